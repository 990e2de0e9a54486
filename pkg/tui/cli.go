// Package tui provides the styled terminal output for the CLI.
// Simple, streaming, no complex TUI - just clean prompts and output.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/datascope/datascope/pkg/report"
)

// Colors
var (
	accent  = lipgloss.Color("#4F46E5")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#E5A046")
	danger  = lipgloss.Color("#FF0000")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	dangerStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
)

// PrintHeader prints the CLI banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  DATASCOPE") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Automated dataset analysis"))
	fmt.Println()
}

// ShowProgress creates a percent-based progress bar for a pipeline run.
func ShowProgress(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// PrintStage prints one stage transition in verbose mode.
func PrintStage(stage, status, detail string) {
	marker := accentStyle.Render("⟳")
	if status == "done" {
		marker = successStyle.Render("✓")
	}
	fmt.Printf("  %s %s %s\n", marker, titleStyle.Render(stage), mutedStyle.Render(detail))
}

// PrintReportSummary prints the final report to the terminal.
func PrintReportSummary(r *report.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ ANALYSIS COMPLETE") + " " +
		mutedStyle.Render(fmt.Sprintf("(%s)", formatDuration(elapsed))))
	fmt.Println()

	if r.Summary.DatasetOverview != "" {
		fmt.Printf("  %s\n", titleStyle.Render(r.Summary.DatasetOverview))
		fmt.Println()
	}

	if len(r.Summary.KeyRisks) > 0 {
		fmt.Println(dangerStyle.Render("  ▸ KEY RISKS"))
		for _, risk := range r.Summary.KeyRisks {
			fmt.Printf("    - %s\n", risk)
		}
		fmt.Println()
	}

	if len(r.Summary.KeyOpportunities) > 0 {
		fmt.Println(successStyle.Render("  ▸ KEY OPPORTUNITIES"))
		for _, opp := range r.Summary.KeyOpportunities {
			fmt.Printf("    - %s\n", opp)
		}
		fmt.Println()
	}

	if len(r.Insights) > 0 {
		fmt.Println(accentStyle.Render("  ▸ INSIGHTS"))
		for _, ins := range r.Insights {
			fmt.Printf("    %s %s %s\n",
				severityBadge(ins.Severity),
				titleStyle.Render(ins.Title),
				mutedStyle.Render(fmt.Sprintf("(confidence %.2f)", ins.Confidence)))
			if ins.Description != "" {
				fmt.Printf("      %s\n", mutedStyle.Render(ins.Description))
			}
		}
		fmt.Println()
	}

	if len(r.NextSteps) > 0 {
		fmt.Println(accentStyle.Render("  ▸ NEXT STEPS"))
		for _, step := range r.NextSteps {
			fmt.Printf("    - %s\n", step)
		}
		fmt.Println()
	}

	fmt.Printf("  %s %s\n", mutedStyle.Render("Charts:"),
		titleStyle.Render(fmt.Sprintf("%d", len(r.Charts))))
	if r.ProfilingReportURL != "" {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Profile:"), r.ProfilingReportURL)
	}

	if len(r.Errors) > 0 {
		fmt.Println()
		fmt.Println(warnStyle.Render(fmt.Sprintf("  %d stage error(s):", len(r.Errors))))
		for _, e := range r.Errors {
			fmt.Printf("    %s\n", warnStyle.Render(e))
		}
	}
	fmt.Println()
}

func severityBadge(severity string) string {
	switch severity {
	case "high":
		return dangerStyle.Render("[high]")
	case "medium":
		return warnStyle.Render("[med] ")
	default:
		return mutedStyle.Render("[low] ")
	}
}

// ClearLine clears the current line.
func ClearLine() {
	fmt.Print("\r\033[K")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
