package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the personas the server offers",
	Args:  cobra.NoArgs,
	RunE:  runPersonas,
}

func runPersonas(cmd *cobra.Command, args []string) error {
	personas, err := api.ListPersonas(context.Background())
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(personas))
	for id := range personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	theme := defaultTheme
	for _, id := range ids {
		fmt.Printf("%-12s %s\n", id, theme.speakerStyle().Render(personas[id]))
	}
	return nil
}
