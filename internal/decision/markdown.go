package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the decisions of one report as a Markdown table.
func RenderMarkdown(reportFile string, decisions []Decision) string {
	var sb strings.Builder

	sb.WriteString("# Report Decisions\n\n")
	sb.WriteString(fmt.Sprintf("Report: `%s`\n\n", reportFile))

	if len(decisions) == 0 {
		sb.WriteString("No decisions recorded.\n")
		return sb.String()
	}

	sb.WriteString("| # | Type | Trade Key | Reason | Created At |\n")
	sb.WriteString("|---|------|-----------|--------|------------|\n")
	for i, d := range decisions {
		reason := d.Reason
		if reason == "" {
			reason = "-"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, d.Type, escapeCell(d.TradeKey), escapeCell(reason), d.CreatedAt))
	}
	sb.WriteString("\n")

	unique := len(RejectedKeys(decisions, nil))
	sb.WriteString(fmt.Sprintf("Rejected trades: %d unique of %d decisions\n", unique, len(decisions)))
	return sb.String()
}

// Trade keys use '|' which would split a Markdown cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
