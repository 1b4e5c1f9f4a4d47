// Command agent-deploy provisions the blockchain data agent on AWS Bedrock
// AgentCore: IAM role, ECR image, CloudWatch log group, and the runtime
// itself, then smoke-tests the deployed endpoint.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agent-deploy: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	agentName  string
	region     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "agent-deploy",
		Short:         "Deploy the blockchain data agent to Bedrock AgentCore",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.agentName, "agent-name", "", "AgentCore runtime name")
	root.PersistentFlags().StringVar(&flags.region, "region", "", "AWS region")

	root.AddCommand(newDeployCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newDestroyCmd(flags))
	return root
}
