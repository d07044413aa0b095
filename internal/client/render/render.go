// Package render formats summaries and history for terminals.
package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"equipviz.dev/backend/internal/model"
)

const (
	// MaxBarWidth is the widest a distribution bar gets; larger counts are
	// scaled down proportionally.
	MaxBarWidth = 50

	labelWidth = 20
	ruleWidth  = 50
	barCell    = "█"
)

// Entry is one row of the distribution chart.
type Entry struct {
	Label string
	Count int
}

// Ranked orders the distribution by count descending. Equal counts keep the
// order in which their labels were first seen.
func Ranked(d *model.Distribution) []Entry {
	labels := d.Labels()
	entries := make([]Entry, len(labels))
	for i, label := range labels {
		entries[i] = Entry{Label: label, Count: d.Count(label)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// BarWidth is the number of cells drawn for count when the largest count in
// the chart is max. Non-zero counts always get at least one cell.
func BarWidth(count, max int) int {
	if count <= 0 {
		return 0
	}
	if max <= MaxBarWidth {
		return count
	}
	w := int(math.Round(float64(count) * MaxBarWidth / float64(max)))
	if w < 1 {
		w = 1
	}
	return w
}

// Summary renders s as the plain-text analysis report.
func Summary(s *model.Summary) string {
	rule := strings.Repeat("─", ruleWidth)

	var b strings.Builder
	b.WriteString("ANALYSIS RESULTS\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Total Items: %d\n", s.TotalItems)
	fmt.Fprintf(&b, "Average Flowrate: %.2f\n", s.AvgFlowrate)
	fmt.Fprintf(&b, "Average Pressure: %.2f\n", s.AvgPressure)
	fmt.Fprintf(&b, "Average Temperature: %.2f\n", s.AvgTemperature)
	b.WriteString("\n" + rule + "\n")
	b.WriteString("EQUIPMENT DISTRIBUTION:\n")

	entries := Ranked(s.TypeDistribution)
	max := 0
	if len(entries) > 0 {
		max = entries[0].Count
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s %3d %s", dotted(e.Label), e.Count, strings.Repeat(barCell, BarWidth(e.Count, max)))
	}

	return b.String()
}

// dotted left-aligns label and pads it with dots to labelWidth. Longer labels
// are kept whole.
func dotted(label string) string {
	if n := lipgloss.Width(label); n < labelWidth {
		return label + strings.Repeat(".", labelWidth-n)
	}
	return label
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// History renders records as a table, in the order given.
func History(records []*model.SummaryRecord) string {
	if len(records) == 0 {
		return "No uploads yet."
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.UploadedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.TotalItems),
			fmt.Sprintf("%.2f", r.AvgFlowrate),
			fmt.Sprintf("%.2f", r.AvgPressure),
			fmt.Sprintf("%.2f", r.AvgTemperature),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Uploaded At", "Items", "Avg Flowrate", "Avg Pressure", "Avg Temperature").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}
