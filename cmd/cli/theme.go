package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/theme"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newThemeCmd(app *cliApp) *cobra.Command {
	var at string
	var all bool

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Preview the time-of-day palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				for _, t := range theme.All() {
					fmt.Fprintln(app.out, renderTheme(t))
				}
				return nil
			}

			when, err := parseAt(at, app.now())
			if err != nil {
				return err
			}

			fmt.Fprintln(app.out, renderTheme(theme.ForTime(when)))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "time to preview, HH:MM or RFC3339 (default now)")
	cmd.Flags().BoolVar(&all, "all", false, "show every palette")
	return cmd
}

func parseAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	clock, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want HH:MM or RFC3339", raw)
	}

	y, m, d := now.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, now.Location()), nil
}

func renderTheme(t theme.Tokens) string {
	swatch := func(hex string) string {
		return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ") + " " + hex
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Primary)).Render(t.Title())

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"  primary   "+swatch(t.Primary),
		"  secondary "+swatch(t.Secondary),
		"  accent    "+swatch(t.Accent),
		"  gradient  "+t.Gradient,
		"  hero      "+t.HeroGradient,
	)
}
