package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"options-trade-lab/internal/decision"
	"options-trade-lab/internal/lifecycle"
	"options-trade-lab/internal/validation"
)

// RenderCSV renders ranked rows as CSV string.
func RenderCSV(r *Report) string {
	records := [][]string{{
		"rank", "trade_key", "underlying", "strategy", "expiration",
		"rank_score", "edge", "ror", "pop", "liquidity", "tqs", "liquidity_penalty", "spread_pct",
	}}
	for _, row := range r.Rows {
		records = append(records, []string{
			strconv.Itoa(row.Rank),
			row.TradeKey,
			row.Underlying,
			row.Strategy,
			row.Expiration,
			formatFloat(row.Score),
			formatFloat(row.Edge),
			formatFloat(row.ROR),
			formatFloat(row.POP),
			formatFloat(row.Liquidity),
			formatPtr(row.TQS),
			formatFloat(row.Penalty),
			formatPtr(row.SpreadPct),
		})
	}
	return writeCSV(records)
}

// RenderProjectionsCSV renders trade projections as CSV string.
func RenderProjectionsCSV(projections []lifecycle.Projection) string {
	records := [][]string{{"trade_key", "state", "event_count", "first_seen", "last_updated", "realized_pnl"}}
	for _, p := range projections {
		records = append(records, []string{
			p.TradeKey,
			string(p.State),
			strconv.Itoa(p.EventCount),
			p.FirstSeen,
			p.LastUpdated,
			formatPtr(p.RealizedPnL),
		})
	}
	return writeCSV(records)
}

// RenderDecisionsCSV renders report decisions as CSV string.
func RenderDecisionsCSV(decisions []decision.Decision) string {
	records := [][]string{{"type", "trade_key", "reason", "created_at"}}
	for _, d := range decisions {
		records = append(records, []string{string(d.Type), d.TradeKey, d.Reason, d.CreatedAt})
	}
	return writeCSV(records)
}

// RenderEventsCSV renders lifecycle events as CSV string.
func RenderEventsCSV(events []lifecycle.Event) string {
	records := [][]string{{"id", "timestamp", "event_type", "trade_key", "source", "reason", "note", "warnings"}}
	for _, e := range events {
		codes := make([]string, 0, len(e.Warnings))
		for _, w := range e.Warnings {
			codes = append(codes, w.Code)
		}
		records = append(records, []string{
			e.ID, e.Timestamp, string(e.EventType), e.TradeKey, e.Source, e.Reason, e.Note,
			strings.Join(codes, ";"),
		})
	}
	return writeCSV(records)
}

// RenderValidationEventsCSV renders validation log entries as CSV string.
func RenderValidationEventsCSV(events []validation.Event) string {
	records := [][]string{{"ts", "severity", "code", "message"}}
	for _, ev := range events {
		records = append(records, []string{ev.Timestamp, string(ev.Severity), ev.Code, ev.Message})
	}
	return writeCSV(records)
}

func writeCSV(records [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// bytes.Buffer writes never fail.
	_ = w.WriteAll(records)
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
