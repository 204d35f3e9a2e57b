package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/rossby/internal/pipeline"
	"github.com/san-kum/rossby/internal/strat"
)

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.6g", v)
}

func metricRow(label string, v float64, unit string) string {
	value := MetricValue.Render(formatValue(v))
	if unit != "" && !math.IsNaN(v) {
		value += " " + Subtle.Render(unit)
	}
	return MetricLabel.Render(label) + value
}

// Summary renders the stratification scalars. warn is the non-fatal
// stratification error of the run, if any.
func Summary(r strat.Result, warn error) string {
	rows := []string{
		Title.Render(fmt.Sprintf("stratification at t = %d", r.Timestep)),
		metricRow("dtemp", r.DTemp, "degC"),
		metricRow("dT/dz", r.DTdz, "degC/m"),
		metricRow("drho/dz", r.DRhodz, "1/m"),
		metricRow("N2", r.N2, "1/s2"),
		metricRow("N", r.N, "1/s"),
		metricRow("R", r.R, "m"),
		"",
	}
	switch {
	case warn != nil:
		rows = append(rows, StatusWarn.Render("unstable: "+warn.Error()))
	case r.Stable():
		rows = append(rows, StatusOK.Render("stable"))
	default:
		rows = append(rows, StatusWarn.Render("unstable"))
	}
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RunSummary renders the scalars next to the produced animations.
func RunSummary(report *pipeline.Report) string {
	sections := make([]string, 0, len(report.Frames))
	for s := range report.Frames {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	lines := []string{Title.Render("animations")}
	for _, s := range sections {
		lines = append(lines, MetricLabel.Render(s)+MetricValue.Render(fmt.Sprintf("%d frames", report.Frames[s])))
	}
	lines = append(lines, "")
	for _, out := range report.Outputs {
		lines = append(lines, Subtle.Render(out))
	}
	lines = append(lines, "", Subtle.Render(fmt.Sprintf("elapsed %s", report.Elapsed.Round(time.Millisecond))))

	outputs := Panel.Render(strings.Join(lines, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, Summary(report.Stratification, report.Warning), outputs)
}
