package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-trade-lab/internal/decision"
	"options-trade-lab/internal/reporting"
)

func (c *cli) decisionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Per-report trade decisions",
		Long:  "Record and list trade rejections for a report file",
	}
	cmd.AddCommand(c.decisionsRejectCmd(), c.decisionsListCmd())
	return cmd
}

func (c *cli) decisionsRejectCmd() *cobra.Command {
	var (
		report  string
		key     string
		payload string
		reason  string
	)

	cmd := &cobra.Command{
		Use:   "reject",
		Short: "Reject a trade for a report",
		Long: `Record a rejection against a report file. The trade is named by --key or by a
--payload trade object whose key is derived with strategy aliases resolved.

Examples:
  tradelab decisions reject --report scan.json --key 'SPY|2026-03-20|put_credit_spread|500|495|18'
  tradelab decisions reject --report scan.json --payload @trade.json --reason "too wide"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var (
				d   decision.Decision
				err error
			)
			switch {
			case key != "" && payload != "":
				return fmt.Errorf("%w: give --key or --payload, not both", errUsage)
			case payload != "":
				t, rerr := c.readTrade(payload)
				if rerr != nil {
					return rerr
				}
				d, err = c.app.Decisions.RejectTrade(ctx, report, t, reason, c.app.Resolver)
			case key != "":
				d, err = c.app.Decisions.AppendReject(ctx, report, key, reason)
			default:
				return fmt.Errorf("%w: --key or --payload is required", errUsage)
			}
			if err != nil {
				return err
			}

			decisions := []decision.Decision{d}
			return c.render(d,
				func() string { return decision.RenderMarkdown(report, decisions) },
				func() string { return reporting.RenderDecisionsCSV(decisions) })
		},
	}

	cmd.Flags().StringVar(&report, "report", "", "Report file the decision belongs to")
	cmd.Flags().StringVar(&key, "key", "", "Trade key")
	cmd.Flags().StringVar(&payload, "payload", "", "Trade payload: JSON, @file or -")
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func (c *cli) decisionsListCmd() *cobra.Command {
	var (
		report string
		dedupe bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the decisions of a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decisions := c.app.Decisions.ListDecisions(cmd.Context(), report)
			if dedupe {
				decisions = c.app.Decisions.Dedupe(decisions)
			}
			return c.render(decisions,
				func() string { return decision.RenderMarkdown(report, decisions) },
				func() string { return reporting.RenderDecisionsCSV(decisions) })
		},
	}

	cmd.Flags().StringVar(&report, "report", "", "Report file")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "Keep the latest decision per trade key")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}
