package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"focusgroup/internal/config"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Manage feedback schema presets",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in feedback schema presets",
	RunE:  runSchemasList,
}

func init() {
	schemasCmd.AddCommand(schemasListCmd)
	rootCmd.AddCommand(schemasCmd)
}

func runSchemasList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range config.SchemaPresetNames() {
		schema := config.SchemaPreset(name)
		fmt.Fprintf(out, "%s\n", name)
		for _, field := range schema.Fields {
			required := "optional"
			if field.Required {
				required = "required"
			}
			bounds := ""
			if field.Min != nil && field.Max != nil {
				bounds = fmt.Sprintf(" [%d-%d]", *field.Min, *field.Max)
			}
			fmt.Fprintf(out, "  %-12s %s%s (%s) %s\n", field.Name, field.Kind, bounds, required, field.Description)
		}
		fmt.Fprintln(out)
	}
	return nil
}
