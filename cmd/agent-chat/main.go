// Command agent-chat is an interactive terminal client for a deployed
// blockchain data agent. It resolves the runtime by name, opens a session,
// and streams responses with tool activity rendered inline.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/spf13/cobra"

	"github.com/chainquery-labs/blockchain-data-agent/internal/deploy"
	"github.com/chainquery-labs/blockchain-data-agent/internal/invoke"
)

var version = "dev"

// exitWords end the chat loop.
var exitWords = map[string]bool{
	"quit": true,
	"exit": true,
	"bye":  true,
	"q":    true,
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agent-chat: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var agentName, region, prompt string

	cmd := &cobra.Command{
		Use:           "agent-chat",
		Short:         "Chat with the deployed blockchain data agent",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), agentName, region, prompt)
		},
	}
	cmd.Flags().StringVar(&agentName, "agent-name", deploy.DefaultAgentName, "AgentCore runtime name")
	cmd.Flags().StringVar(&region, "region", deploy.DefaultRegion, "AWS region")
	cmd.Flags().StringVar(&prompt, "prompt", "", "send a single prompt and exit")
	return cmd
}

func runChat(ctx context.Context, agentName, region, prompt string) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}

	manager := &deploy.RuntimeManager{Client: bedrockagentcorecontrol.NewFromConfig(awsCfg)}
	arn, err := resolveRuntime(ctx, manager, agentName)
	if err != nil {
		return err
	}

	client := invoke.NewClient(bedrockagentcore.NewFromConfig(awsCfg), arn, "")
	renderer := invoke.NewRenderer(os.Stdout)
	renderer.Status(fmt.Sprintf("session %s", client.SessionID()))

	if prompt != "" {
		return send(ctx, client, renderer, prompt)
	}

	renderer.Status("Ask about blockchain data; quit, exit, bye, or q to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitWords[strings.ToLower(line)] {
			break
		}
		if err := send(ctx, client, renderer, line); err != nil {
			fmt.Fprintf(os.Stderr, "agent-chat: %v\n", err)
		}
	}
	return scanner.Err()
}

func send(ctx context.Context, client *invoke.Client, renderer *invoke.Renderer, prompt string) error {
	err := client.Stream(ctx, prompt, renderer.Handle)
	renderer.Flush()
	return err
}

// resolveRuntime finds the runtime ARN by name. A runtime in a non-ready
// state still gets a connection attempt, with a warning; a missing runtime
// lists what is deployed so the user can pick the right name.
func resolveRuntime(ctx context.Context, manager *deploy.RuntimeManager, name string) (string, error) {
	info, err := manager.FindByName(ctx, name)
	if err != nil {
		available, listErr := manager.List(ctx)
		if listErr == nil && len(available) > 0 {
			fmt.Fprintln(os.Stderr, "Available agent runtimes:")
			for _, rt := range available {
				fmt.Fprintf(os.Stderr, "  %s (%s)\n", rt.Name, rt.Status)
			}
		}
		return "", fmt.Errorf("runtime %q not found in this region", name)
	}

	if info.Status != "" && info.Status != "READY" {
		fmt.Fprintf(os.Stderr, "warning: runtime %s is %s, invocations may fail\n", name, info.Status)
	}
	return info.ARN, nil
}
