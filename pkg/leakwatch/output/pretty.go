package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// PrettyFormatter formats a report with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatSuspects(r))

	if len(r.Recommendations) > 0 {
		w.WriteString(f.formatRecommendations(r.Recommendations))
	}

	return nil
}

// formatHeader builds the header box with memory and count metadata.
func (f *PrettyFormatter) formatHeader(r *types.Report) string {
	var lines []string

	timeLabel := LabelStyle.Render("Report:")
	timeValue := ValueStyle.Render(r.Time.Format("2006-01-02 15:04:05"))
	lines = append(lines, fmt.Sprintf("%s %s", timeLabel, timeValue))

	heapLabel := LabelStyle.Render("Heap:")
	heapValue := ValueStyle.Render(fmt.Sprintf("%s used / %s total",
		humanize.IBytes(r.Memory.HeapUsed), humanize.IBytes(r.Memory.HeapTotal)))
	lines = append(lines, fmt.Sprintf("%s %s", heapLabel, heapValue))

	countsLabel := LabelStyle.Render("Live:")
	countsValue := ValueStyle.Render(fmt.Sprintf(
		"%d listeners  %d timers  %d nodes (%d detached)  %d store subs",
		r.Counts.Listeners, r.Counts.Timers, r.Counts.Nodes,
		r.Counts.DetachedNodes, r.Counts.StoreSubscriptions))
	lines = append(lines, fmt.Sprintf("%s %s", countsLabel, countsValue))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatSuspects builds the suspect table, or an all-clear line.
func (f *PrettyFormatter) formatSuspects(r *types.Report) string {
	if len(r.Suspects) == 0 {
		return SuccessStyle.Render("  No leak suspects\n")
	}

	var sb strings.Builder

	sevHeader := MutedStyle.Bold(true).Render("SEVERITY")
	catHeader := MutedStyle.Bold(true).Render("CATEGORY")
	descHeader := MutedStyle.Bold(true).Render("DESCRIPTION")
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", sevHeader, catHeader, descHeader))

	for _, s := range r.Suspects {
		sev := SeverityStyle(s.Severity).Render(padRight(s.Severity.String(), 8))
		cat := ValueStyle.Render(padRight(string(s.Category), 18))
		desc := ValueStyle.Render(s.Description)
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", sev, cat, desc))
	}

	return sb.String()
}

// formatRecommendations builds the footer box with the advice list.
func (f *PrettyFormatter) formatRecommendations(recs []string) string {
	var lines []string
	lines = append(lines, TitleStyle.Render("Recommendations"))
	for _, rec := range recs {
		lines = append(lines, ValueStyle.Render("- "+rec))
	}
	return FooterBox.Render(strings.Join(lines, "\n"))
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
