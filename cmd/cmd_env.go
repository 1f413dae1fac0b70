// cmd_env.go - Env Command
// Hauptfunktionen: EnvHandler
package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/textstream/envconfig"
)

// EnvHandler - Listet die Umgebungs-Konfiguration auf
func EnvHandler(cmd *cobra.Command, args []string) error {
	envs := envconfig.AsMap()

	var data [][]string
	for _, name := range slices.Sorted(maps.Keys(envs)) {
		e := envs[name]
		data = append(data, []string{e.Name, fmt.Sprintf("%v", e.Value), e.Description})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()

	return nil
}

// newEnvCmd - Erstellt den env Command
func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}
}
