package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focusgroup/internal/config"
	"focusgroup/pkg/agent"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage agent providers",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agent providers",
	RunE:  runAgentsList,
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	rootCmd.AddCommand(agentsCmd)
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	registry := agent.NewRegistry()

	custom, err := config.LoadCustomProviders("")
	if err != nil {
		return err
	}
	if err := registry.RegisterCustomProviders(custom); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, info := range registry.List() {
		var modes []string
		if info.SupportsCLI {
			modes = append(modes, "cli")
		}
		if info.SupportsAPI {
			modes = append(modes, "api")
		}
		desc := info.Description
		if desc == "" {
			desc = "custom provider"
		}
		fmt.Fprintf(out, "%-12s %-10s %s\n", info.Name, strings.Join(modes, ","), desc)
	}
	return nil
}
