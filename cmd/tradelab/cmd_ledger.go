package main

import (
	"github.com/spf13/cobra"

	"options-trade-lab/internal/lifecycle"
	"options-trade-lab/internal/reporting"
)

func (c *cli) ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Trade lifecycle ledger",
		Long:  "Append lifecycle events and replay them into per-trade projections",
	}
	cmd.AddCommand(
		c.ledgerAppendCmd(),
		c.ledgerEventsCmd(),
		c.ledgerTradesCmd(),
		c.ledgerHistoryCmd(),
	)
	return cmd
}

func (c *cli) ledgerAppendCmd() *cobra.Command {
	var (
		in      lifecycle.EventInput
		payload string
	)

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append one lifecycle event",
		Long: `Append one lifecycle event. The payload is a JSON trade object given inline,
as @file or as - for stdin. Legacy field names and strategy aliases are accepted
and stored in canonical form.

Examples:
  tradelab ledger append --type open --payload @trade.json --source scanner
  tradelab ledger append --type note --key 'SPY|2026-03-20|csp|500|NA|18' --note "rolled"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if payload != "" {
				t, err := c.readTrade(payload)
				if err != nil {
					return err
				}
				in.Payload = t
			}

			ev, err := c.app.Ledger.Append(cmd.Context(), in)
			if err != nil {
				return err
			}

			events := []lifecycle.Event{ev}
			return c.render(ev,
				func() string { return reporting.RenderEventsMarkdown(events) },
				func() string { return reporting.RenderEventsCSV(events) })
		},
	}

	cmd.Flags().StringVar(&in.EventType, "type", "", "Event type (WATCHLIST, OPEN, ADJUST, CLOSE, NOTE, REJECT, EXPIRE)")
	cmd.Flags().StringVar(&in.TradeKey, "key", "", "Trade key, derived from the payload when it carries the identity")
	cmd.Flags().StringVar(&in.Source, "source", "", "Event source (default unknown)")
	cmd.Flags().StringVar(&in.Reason, "reason", "", "Reason for the event")
	cmd.Flags().StringVar(&in.Note, "note", "", "Free-form note")
	cmd.Flags().StringVar(&payload, "payload", "", "Trade payload: JSON, @file or -")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (c *cli) ledgerEventsCmd() *cobra.Command {
	var (
		f         lifecycle.Filter
		eventType string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List stored lifecycle events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.EventType = lifecycle.EventType(eventType)
			events, err := c.app.Ledger.ListEvents(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.render(events,
				func() string { return reporting.RenderEventsMarkdown(events) },
				func() string { return reporting.RenderEventsCSV(events) })
		},
	}

	cmd.Flags().StringVar(&f.TradeKey, "key", "", "Only events of this trade")
	cmd.Flags().StringVar(&eventType, "type", "", "Only events of this type")
	cmd.Flags().StringVar(&f.Source, "source", "", "Only events from this source")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Keep the last N matching events (0 = all)")
	return cmd
}

func (c *cli) ledgerTradesCmd() *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Replay the ledger into per-trade projections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			want := make([]lifecycle.EventType, 0, len(states))
			for _, s := range states {
				want = append(want, lifecycle.EventType(s))
			}

			projections, err := c.app.Ledger.Trades(cmd.Context(), want...)
			if err != nil {
				return err
			}
			return c.render(projections,
				func() string { return reporting.RenderProjectionsMarkdown(projections) },
				func() string { return reporting.RenderProjectionsCSV(projections) })
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Only trades in these states (comma-separated)")
	return cmd
}

func (c *cli) ledgerHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history TRADE_KEY",
		Short: "Show one trade's projection and full event history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Ledger.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(p,
				func() string { return reporting.RenderHistoryMarkdown(p) },
				func() string { return reporting.RenderEventsCSV(p.History) })
		},
	}
}
