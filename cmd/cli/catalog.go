package main

import (
	"fmt"

	"github.com/akeren/digitalcraft-dispatch/internal/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List services, budgets and meeting slots",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(app.out, "Services:")
			for _, s := range catalog.Services {
				fmt.Fprintf(app.out, "  - %s\n", s)
			}

			fmt.Fprintln(app.out, "Budgets:")
			for _, b := range catalog.Budgets {
				fmt.Fprintf(app.out, "  - %s\n", b)
			}

			fmt.Fprintln(app.out, "Meeting slots:")
			for _, s := range catalog.Slots() {
				fmt.Fprintf(app.out, "  - %s (%s)\n", s.Value, s.Label)
			}

			first, last := catalog.DateWindow(app.now())
			fmt.Fprintf(app.out, "Bookable dates: %s to %s\n", first.Format(catalog.DateLayout), last.Format(catalog.DateLayout))
		},
	}
}
