package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/tradekey"
)

// keyResult is the output of the key command.
type keyResult struct {
	Input    string `json:"input"`
	TradeKey string `json:"trade_key"`
	Repaired bool   `json:"repaired"`
}

func (c *cli) keyCmd() *cobra.Command {
	var (
		underlying  string
		expiration  string
		strat       string
		shortStrike string
		longStrike  string
		dte         string
	)

	cmd := &cobra.Command{
		Use:   "key [TRADE_KEY...]",
		Short: "Build or canonicalize trade keys",
		Long: `Canonicalize existing trade keys given as arguments, or build a key from
the identity flags. Strategy aliases are resolved to their canonical id.

Examples:
  tradelab key 'spy|2026-03-20|PCS|500.0|495|18'
  tradelab key --underlying spy --expiration 2026-03-20 --strategy put_credit \
    --short-strike 500 --long-strike 495 --dte 18`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var results []keyResult

			if len(args) == 0 {
				if underlying == "" {
					return fmt.Errorf("%w: give trade keys or --underlying", errUsage)
				}
				var strategyID any
				if strat != "" {
					id, err := c.app.Resolver.Resolve(ctx, strat)
					if err != nil {
						return err
					}
					strategyID = string(id)
				}
				key := tradekey.Build(underlying, optional(expiration), strategyID,
					optional(shortStrike), optional(longStrike), optional(dte))
				results = append(results, keyResult{Input: "flags", TradeKey: key})
			}

			for _, raw := range args {
				comp, err := tradekey.Parse(raw)
				if err != nil {
					return fmt.Errorf("%w: %w", errUsage, err)
				}
				if comp.Strategy != tradekey.Placeholder {
					id, err := c.app.Resolver.Resolve(ctx, comp.Strategy)
					if err != nil {
						return err
					}
					comp = comp.WithStrategy(string(id))
				}
				key := comp.String()
				results = append(results, keyResult{Input: raw, TradeKey: key, Repaired: key != strings.TrimSpace(raw)})
			}

			t := table{headers: []string{"Input", "Trade Key", "Repaired"}}
			for _, r := range results {
				t.rows = append(t.rows, []string{r.Input, r.TradeKey, fmt.Sprint(r.Repaired)})
			}
			return c.render(results, t.markdown, t.csv)
		},
	}

	cmd.Flags().StringVar(&underlying, "underlying", "", "Underlying ticker")
	cmd.Flags().StringVar(&expiration, "expiration", "", "Expiration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&strat, "strategy", "", "Strategy id or alias")
	cmd.Flags().StringVar(&shortStrike, "short-strike", "", "Short strike")
	cmd.Flags().StringVar(&longStrike, "long-strike", "", "Long strike")
	cmd.Flags().StringVar(&dte, "dte", "", "Days to expiration")
	return cmd
}

func optional(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// resolutionResult is one line of the resolve command output.
type resolutionResult struct {
	Provided  string `json:"provided"`
	Canonical string `json:"canonical"`
	Alias     bool   `json:"alias"`
}

func (c *cli) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve RAW...",
		Short: "Resolve strategy strings to canonical ids",
		Long: `Resolve free-form strategy strings. Aliases are recorded in the validation
log as STRATEGY_ALIAS_USED. An unknown strategy exits with code 2.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]resolutionResult, 0, len(args))
			for _, raw := range args {
				id, err := c.app.Resolver.Resolve(cmd.Context(), raw)
				if err != nil {
					return err
				}
				results = append(results, resolutionResult{
					Provided:  raw,
					Canonical: string(id),
					Alias:     c.app.Resolver.IsAlias(raw),
				})
			}

			t := table{headers: []string{"Provided", "Canonical", "Alias"}}
			for _, r := range results {
				t.rows = append(t.rows, []string{r.Provided, r.Canonical, fmt.Sprint(r.Alias)})
			}
			return c.render(results, t.markdown, t.csv)
		},
	}
}

// strategyInfo describes one canonical strategy.
type strategyInfo struct {
	ID      domain.StrategyID     `json:"id"`
	Family  domain.StrategyFamily `json:"family"`
	Aliases []string              `json:"aliases"`
}

func (c *cli) strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List canonical strategies and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			byTarget := map[domain.StrategyID][]string{}
			for alias, id := range c.app.Resolver.Aliases() {
				byTarget[id] = append(byTarget[id], alias)
			}

			ids := domain.CanonicalStrategyIDs()
			infos := make([]strategyInfo, 0, len(ids))
			t := table{title: "Strategies", headers: []string{"Strategy", "Family", "Aliases"}}
			for _, id := range ids {
				aliases := byTarget[id]
				slices.Sort(aliases)
				if aliases == nil {
					aliases = []string{}
				}
				infos = append(infos, strategyInfo{ID: id, Family: id.Family(), Aliases: aliases})
				t.rows = append(t.rows, []string{string(id), string(id.Family()), strings.Join(aliases, ", ")})
			}
			return c.render(infos, t.markdown, t.csv)
		},
	}
}
