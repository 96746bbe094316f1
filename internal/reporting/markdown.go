package reporting

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"options-trade-lab/internal/lifecycle"
	"options-trade-lab/internal/validation"
)

// RenderMarkdown renders a ranking report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Candidate Ranking\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.ReportFile != "" {
		sb.WriteString(fmt.Sprintf("Report: `%s`\n\n", r.ReportFile))
	}
	sb.WriteString(fmt.Sprintf("Candidates: %d | Ranked: %d | Rejected: %d | Invalid: %d\n\n",
		r.Total, len(r.Rows), len(r.Rejected), len(r.Invalid)))

	// Ranking
	sb.WriteString("## Ranking\n\n")
	if len(r.Rows) == 0 {
		sb.WriteString("No candidates ranked.\n\n")
	} else {
		sb.WriteString("| # | Trade Key | Score | Edge | ROR | POP | Liquidity | TQS | Penalty |\n")
		sb.WriteString("|---|-----------|-------|------|-----|-----|-----------|-----|---------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.6f | %.4f | %.4f | %.4f | %.4f | %s | %.4f |\n",
				row.Rank, escapeCell(row.TradeKey), row.Score, row.Edge, row.ROR, row.POP,
				row.Liquidity, formatOptional(row.TQS, 4), row.Penalty))
		}
		sb.WriteString("\n")
	}

	// Exclusions
	if len(r.Rejected) > 0 {
		sb.WriteString("## Rejected\n\n")
		for _, k := range r.Rejected {
			sb.WriteString(fmt.Sprintf("- %s\n", k))
		}
		sb.WriteString("\n")
	}
	if len(r.Invalid) > 0 {
		sb.WriteString("## Invalid\n\n")
		for _, in := range r.Invalid {
			sb.WriteString(fmt.Sprintf("- #%d: %s\n", in.Index, in.Reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderRollupsMarkdown renders validation rollups as Markdown string.
func RenderRollupsMarkdown(r validation.Rollups) string {
	var sb strings.Builder

	sb.WriteString("# Validation Rollups\n\n")
	sb.WriteString(fmt.Sprintf("Total events: %d\n\n", r.Total))

	sb.WriteString("## By Severity\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|----------|-------|\n")
	for _, sev := range sortedKeys(r.BySeverity) {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", sev, r.BySeverity[sev]))
	}
	sb.WriteString("\n")

	sb.WriteString("## By Code\n\n")
	sb.WriteString("| Code | Count | Latest | Latest Message |\n")
	sb.WriteString("|------|-------|--------|----------------|\n")
	for _, code := range sortedKeys(r.ByCode) {
		latest := r.LatestByCode[code]
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
			code, r.ByCode[code], latest.Timestamp, escapeCell(latest.Message)))
	}

	return sb.String()
}

// RenderProjectionsMarkdown renders trade projections as Markdown string.
func RenderProjectionsMarkdown(projections []lifecycle.Projection) string {
	var sb strings.Builder

	sb.WriteString("# Trades\n\n")
	if len(projections) == 0 {
		sb.WriteString("No trades recorded.\n")
		return sb.String()
	}

	sb.WriteString("| Trade Key | State | Events | First Seen | Last Updated | Realized PnL |\n")
	sb.WriteString("|-----------|-------|--------|------------|--------------|--------------|\n")
	for _, p := range projections {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s |\n",
			escapeCell(p.TradeKey), p.State, p.EventCount, p.FirstSeen, p.LastUpdated,
			formatOptional(p.RealizedPnL, 2)))
	}
	return sb.String()
}

// RenderHistoryMarkdown renders one trade's event history as Markdown string.
func RenderHistoryMarkdown(p lifecycle.Projection) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", p.TradeKey))
	sb.WriteString(fmt.Sprintf("State: %s | Events: %d | Realized PnL: %s\n\n",
		p.State, p.EventCount, formatOptional(p.RealizedPnL, 2)))

	sb.WriteString("| # | Timestamp | Type | Source | Warnings | Note |\n")
	sb.WriteString("|---|-----------|------|--------|----------|------|\n")
	for i, e := range p.History {
		codes := make([]string, 0, len(e.Warnings))
		for _, w := range e.Warnings {
			codes = append(codes, w.Code)
		}
		note := e.Note
		if note == "" {
			note = e.Reason
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			i+1, e.Timestamp, e.EventType, e.Source, strings.Join(codes, ", "), escapeCell(note)))
	}
	return sb.String()
}

// RenderValidationEventsMarkdown renders validation log entries as Markdown string.
func RenderValidationEventsMarkdown(events []validation.Event) string {
	var sb strings.Builder

	sb.WriteString("# Validation Events\n\n")
	if len(events) == 0 {
		sb.WriteString("No validation events recorded.\n")
		return sb.String()
	}

	sb.WriteString("| Timestamp | Severity | Code | Message | Trade Key |\n")
	sb.WriteString("|-----------|----------|------|---------|-----------|\n")
	for _, ev := range events {
		key, _ := ev.Context["trade_key"].(string)
		if key == "" {
			key, _ = ev.Context["canonical"].(string)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			ev.Timestamp, ev.Severity, ev.Code, escapeCell(ev.Message), escapeCell(key)))
	}
	return sb.String()
}

// RenderEventsMarkdown renders lifecycle events as Markdown string.
func RenderEventsMarkdown(events []lifecycle.Event) string {
	var sb strings.Builder

	sb.WriteString("# Lifecycle Events\n\n")
	if len(events) == 0 {
		sb.WriteString("No events recorded.\n")
		return sb.String()
	}

	sb.WriteString("| Timestamp | Type | Trade Key | Source | Warnings |\n")
	sb.WriteString("|-----------|------|-----------|--------|----------|\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d |\n",
			e.Timestamp, e.EventType, escapeCell(e.TradeKey), e.Source, len(e.Warnings)))
	}
	return sb.String()
}

func formatOptional(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", places, *v)
}

// Trade keys use '|' which would split a Markdown cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
