package report

import (
	"fmt"
	"strings"
)

// ToMarkdown renders the report as a Markdown document. Chart specs are
// summarized by title, not embedded.
func ToMarkdown(r *Report, title string) string {
	var b strings.Builder
	if title == "" {
		title = "Analysis Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if r.Summary.DatasetOverview != "" {
		b.WriteString("## Overview\n\n")
		b.WriteString(r.Summary.DatasetOverview)
		b.WriteString("\n\n")
	}
	writeList(&b, "Key Risks", r.Summary.KeyRisks)
	writeList(&b, "Key Opportunities", r.Summary.KeyOpportunities)

	if len(r.Insights) > 0 {
		b.WriteString("## Insights\n\n")
		for _, in := range r.Insights {
			fmt.Fprintf(&b, "### %s\n\n", in.Title)
			if in.Severity != "" || in.Confidence > 0 {
				fmt.Fprintf(&b, "*Severity: %s, confidence: %.2f*\n\n", in.Severity, in.Confidence)
			}
			if in.Description != "" {
				b.WriteString(in.Description)
				b.WriteString("\n\n")
			}
			if in.RecommendedAction != "" {
				fmt.Fprintf(&b, "**Recommended action:** %s\n\n", in.RecommendedAction)
			}
		}
	}

	if len(r.DataQualityNotes) > 0 {
		b.WriteString("## Data Quality\n\n")
		for _, n := range r.DataQualityNotes {
			fmt.Fprintf(&b, "- **%s**", n.Issue)
			if len(n.Columns) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(n.Columns, ", "))
			}
			if n.Impact != "" {
				fmt.Fprintf(&b, ", impact: %s", n.Impact)
			}
			if n.Suggestion != "" {
				fmt.Fprintf(&b, ". %s", n.Suggestion)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	writeList(&b, "Next Steps", r.NextSteps)

	if len(r.Charts) > 0 {
		b.WriteString("## Charts\n\n")
		for _, ch := range r.Charts {
			fmt.Fprintf(&b, "- %s (`%s`, pack %s, priority %d)\n", ch.Title, ch.ID, ch.Pack, ch.Priority)
		}
		b.WriteString("\n")
	}

	if r.ProfilingReportURL != "" {
		fmt.Fprintf(&b, "Profiling report: %s\n\n", r.ProfilingReportURL)
	}
	writeList(&b, "Errors", r.Errors)

	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
