package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chainquery-labs/blockchain-data-agent/internal/deploy"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the deployed runtime's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDeployConfig(flags)
			if err != nil {
				return err
			}
			clients, err := newAWSClients(cmd.Context(), cfg.Region)
			if err != nil {
				return err
			}
			manager := &deploy.RuntimeManager{Client: clients.ControlPlane}

			if all {
				infos, err := manager.List(cmd.Context())
				if err != nil {
					return err
				}
				printRuntimes(infos)
				return nil
			}

			info, err := manager.Status(cmd.Context(), cfg.AgentName)
			if err != nil {
				return err
			}
			printRuntimes([]deploy.RuntimeInfo{*info})
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every runtime in the region")
	return cmd
}

func printRuntimes(infos []deploy.RuntimeInfo) {
	if len(infos) == 0 {
		fmt.Println("No agent runtimes found.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tARN")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Status, info.ARN)
	}
	w.Flush()
}
