package main

import (
	"github.com/spf13/cobra"

	"options-trade-lab/internal/reporting"
	"options-trade-lab/internal/validation"
)

func (c *cli) validationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validation",
		Short: "Inspect the validation event log",
	}

	var recentLimit int
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent validation events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events := c.app.Sink.ReadRecent(cmd.Context(), recentLimit)
			return c.render(events,
				func() string { return reporting.RenderValidationEventsMarkdown(events) },
				func() string { return reporting.RenderValidationEventsCSV(events) })
		},
	}
	recentCmd.Flags().IntVar(&recentLimit, "limit", 50, "Number of events (0 = all)")

	var rollupLimit int
	rollupsCmd := &cobra.Command{
		Use:   "rollups",
		Short: "Count validation events by code and severity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rollups := validation.BuildRollups(c.app.Sink.ReadRecent(cmd.Context(), rollupLimit))
			return c.render(rollups,
				func() string { return reporting.RenderRollupsMarkdown(rollups) },
				nil)
		},
	}
	rollupsCmd.Flags().IntVar(&rollupLimit, "limit", 0, "Only the last N events (0 = all)")

	cmd.AddCommand(recentCmd, rollupsCmd)
	return cmd
}
