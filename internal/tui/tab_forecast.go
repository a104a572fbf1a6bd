package tui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"
)

// ExportedMsg is sent when a forecast file has been written.
type ExportedMsg struct {
	Path string
	Err  error
}

type exportFormat int

const (
	exportCSV exportFormat = iota
	exportXLSX
)

func (f exportFormat) filename() string {
	if f == exportXLSX {
		return "forecast.xlsx"
	}
	return forecast.ExportFilename
}

func (a App) exportCmd(format exportFormat) tea.Cmd {
	if a.view == nil || len(a.view.Forecast) == 0 {
		return func() tea.Msg {
			return ExportedMsg{Err: fmt.Errorf("no forecast to export")}
		}
	}
	rows := a.view.Forecast
	path := filepath.Join(a.exportDir, format.filename())
	return func() tea.Msg {
		return ExportedMsg{Path: path, Err: writeForecast(path, rows, format)}
	}
}

func writeForecast(path string, rows []model.ForecastRow, format exportFormat) error {
	var buf bytes.Buffer
	var err error
	if format == exportXLSX {
		err = forecast.WriteXLSX(&buf, rows)
	} else {
		err = forecast.WriteCSV(&buf, rows)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (a App) renderForecastTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	bad := lipgloss.NewStyle().Foreground(t.Bad).Background(t.Surface).Bold(true)

	title := fmt.Sprintf("Forecast for Next %d Days", a.horizon())
	if a.view == nil || len(a.view.Forecast) == 0 {
		var body string
		switch {
		case a.viewErr != nil:
			body = bad.Render("Forecast failed: ") + muted.Render(a.viewErr.Error())
		default:
			body = muted.Render("No data available yet.")
		}
		return components.ContentCard(title, body, cw)
	}
	rows := a.view.Forecast

	var b strings.Builder
	tbl := forecastTable(rows)
	tableW := lipgloss.Width(tbl) + 4

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(title, tbl, cw))
		return b.String()
	}

	chartW := cw - tableW
	chartH := max(6, min(16, h-8))
	chart := components.LineChart(forecastSeries(rows), forecastLabels(rows), components.CardInnerWidth(chartW), chartH)
	b.WriteString(components.CardRow([]string{
		components.ContentCard(title, tbl, tableW),
		components.ContentCard("Trend", chart, chartW),
	}))
	b.WriteString("\n")
	b.WriteString(muted.Render(" Press x to write " + exportCSV.filename() + " or X for " + exportXLSX.filename() + " in " + a.exportDir))
	return b.String()
}

func (a App) horizon() int {
	if a.dash != nil && a.dash.Horizon > 0 {
		return a.dash.Horizon
	}
	return forecast.DefaultHorizon
}

func forecastTable(rows []model.ForecastRow) string {
	t := theme.Active
	header := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	date := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sales := lipgloss.NewStyle().Foreground(t.Sales).Background(t.Surface)
	customers := lipgloss.NewStyle().Foreground(t.Customers).Background(t.Surface)

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("%-10s  %-3s  %12s  %9s", "Date", "Day", "Sales", "Customers")))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(date.Render(fmt.Sprintf("%-10s  %-3s  ", cli.FormatDate(r.Date), cli.FormatDayOfWeek(int(r.Date.Weekday())))))
		b.WriteString(sales.Render(fmt.Sprintf("%12s", truncStr(cli.FormatMoneyFloat(r.SalesForecast), 12))))
		b.WriteString(date.Render("  "))
		b.WriteString(customers.Render(fmt.Sprintf("%9s", cli.FormatFloat(r.CustomersForecast, 1))))
	}
	return b.String()
}

func forecastSeries(rows []model.ForecastRow) []components.Series {
	t := theme.Active
	sales := make([]float64, len(rows))
	customers := make([]float64, len(rows))
	for i, r := range rows {
		sales[i] = r.SalesForecast
		customers[i] = r.CustomersForecast
	}
	return []components.Series{
		{Name: "Sales", Values: sales, Color: t.Sales, Format: cli.FormatMoneyFloat},
		{Name: "Customers", Values: customers, Color: t.Customers, Format: func(f float64) string { return cli.FormatFloat(f, 1) }},
	}
}

func forecastLabels(rows []model.ForecastRow) []string {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Date.Format("Jan 2")
	}
	return labels
}
