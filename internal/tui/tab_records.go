package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"
)

// chartDays is how many trailing days the sales bar chart covers.
const chartDays = 30

var recordColumns = []table.Column{
	{Title: "Date", Width: 10},
	{Title: "Day", Width: 3},
	{Title: "Sales", Width: 12},
	{Title: "Customers", Width: 9},
	{Title: "Weather", Width: 7},
	{Title: "Add-ons", Width: 10},
}

func newRecordsTable() table.Model {
	tbl := table.New(
		table.WithColumns(recordColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	tbl.SetStyles(recordsTableStyles())
	return tbl
}

func recordsTableStyles() table.Styles {
	t := theme.Active
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(t.TextMuted).
		Background(t.Surface).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Surface).
		BorderBottom(true).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary).Background(t.Surface)
	s.Selected = s.Selected.Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	return s
}

// recordRows renders records newest first.
func recordRows(records []model.DailyRecord) []table.Row {
	sorted := pipeline.SortByDate(records)
	rows := make([]table.Row, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		rows = append(rows, table.Row{
			cli.FormatDate(r.Date),
			cli.FormatDayOfWeek(int(r.Date.Weekday())),
			cli.FormatMoney(r.Sales),
			cli.FormatNumber(int64(r.Customers)),
			string(r.Weather),
			cli.FormatMoney(r.Addons),
		})
	}
	return rows
}

func (a *App) refreshRecords() {
	if a.view == nil {
		a.records.SetRows(nil)
		return
	}
	a.records.SetRows(recordRows(a.view.Records))
	a.records.GotoTop()
}

// resizeRecords fits the table under the summary cards.
func (a *App) resizeRecords() {
	// tab bar, status bar, summary cards and the table card border
	h := a.height - 1 - 1 - 5 - 4
	a.records.SetHeight(max(3, h))
}

func (a App) renderRecordsTab(cw, h int) string {
	t := theme.Active
	if a.view == nil || a.view.Empty {
		msg := "No data available yet."
		if a.viewErr != nil {
			msg = "Could not load records: " + a.viewErr.Error()
		}
		return components.ContentCard("Sales Data",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(msg), cw)
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(summaryMetrics(a.view.Summary), cw))
	b.WriteString("\n")

	tableW := lipgloss.Width(a.records.View()) + 4
	if a.isCompactLayout() || cw-tableW < 40 {
		b.WriteString(components.ContentCard("Sales Data", a.records.View(), cw))
		return b.String()
	}

	chartW := cw - tableW
	chartH := max(5, h-lipgloss.Height(b.String())-6)
	chart := components.ContentCard("Daily Sales (last "+strconv.Itoa(chartDays)+" days)",
		a.salesChart(components.CardInnerWidth(chartW), chartH), chartW)
	tbl := components.ContentCard("Sales Data", a.records.View(), tableW)
	b.WriteString(components.CardRow([]string{tbl, chart}))
	return b.String()
}

// salesChart plots daily sales for the trailing chartDays, zero-filling
// days with no record.
func (a App) salesChart(w, h int) string {
	last := a.view.Summary.LastDate
	since := last.AddDate(0, 0, -(chartDays - 1))
	if first := a.view.Summary.FirstDate; since.Before(first) {
		since = first
	}
	days := pipeline.AggregateDays(a.view.Records, since, last)

	values := make([]float64, len(days))
	dates := make([]time.Time, len(days))
	for i, d := range days {
		values[i] = d.Sales.InexactFloat64()
		dates[i] = d.Date
	}
	return components.BarChart(values, chartDateLabels(dates), theme.Active.Sales, w, h)
}

// chartDateLabels builds compact x-axis labels: the month name at the
// start and at month boundaries, otherwise the day number.
func chartDateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	prevMonth := time.Month(0)
	for i, dt := range dates {
		if i == 0 || dt.Month() != prevMonth {
			labels[i] = dt.Format("Jan")
		} else {
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}
