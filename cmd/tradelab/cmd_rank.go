package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/reporting"
)

func (c *cli) rankCmd() *cobra.Command {
	var (
		report string
		input  string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank candidate trades for a report",
		Long: `Rank a JSON array of candidate trades. Trades rejected for the report are
left out, as are trades whose strategy cannot be resolved.

Examples:
  tradelab rank --report scan.json --input @candidates.json --format md
  cat candidates.json | tradelab rank --report scan.json --input -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := c.readInput(input)
			if err != nil {
				return err
			}
			var trades []*domain.Trade
			if err := json.Unmarshal(data, &trades); err != nil {
				return fmt.Errorf("%w: candidates: %w", errUsage, err)
			}

			r := c.app.Reports.Generate(cmd.Context(), report, trades)
			return c.render(r,
				func() string { return reporting.RenderMarkdown(r) },
				func() string { return reporting.RenderCSV(r) })
		},
	}

	cmd.Flags().StringVar(&report, "report", "", "Report file whose decisions apply")
	cmd.Flags().StringVar(&input, "input", "-", "Candidates: JSON array, @file or - for stdin")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}
