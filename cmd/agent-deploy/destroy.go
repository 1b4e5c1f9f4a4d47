package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chainquery-labs/blockchain-data-agent/internal/deploy"
)

func newDestroyCmd(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete the deployed agent runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDeployConfig(flags)
			if err != nil {
				return err
			}

			if !force && !confirm(fmt.Sprintf("Delete runtime %q in %s?", cfg.AgentName, cfg.Region)) {
				fmt.Println("Cancelled.")
				return nil
			}

			clients, err := newAWSClients(cmd.Context(), cfg.Region)
			if err != nil {
				return err
			}
			manager := &deploy.RuntimeManager{Client: clients.ControlPlane}
			if err := manager.Delete(cmd.Context(), cfg.AgentName); err != nil {
				return err
			}
			fmt.Printf("Runtime %q deleted. The IAM role, ECR repository, and log group are kept.\n", cfg.AgentName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	return cmd
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
