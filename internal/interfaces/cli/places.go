package cli

import (
	"strings"

	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"github.com/spf13/cobra"
)

func newPlacesCommand(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "places",
		Short:   "Look up restaurants by keyword",
		GroupID: "browse",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "search KEYWORD...",
		Short: "Search places; use the result numbers with --pick",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			client, err := app.Places()
			if err != nil {
				return err
			}
			hits, err := client.Search(app.View(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return app.Render(hits, func(t *render.Table) {
				t.Row("#", "NAME", "ADDRESS", "CATEGORY", "PHONE")
				for i, p := range hits {
					t.Row(i+1, p.Name, p.Address, render.Truncate(p.Category, 24), p.Phone)
				}
			})
		},
	})
	return cmd
}
