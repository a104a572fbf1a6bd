package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"
)

// SavedMsg is sent when a submitted record has been stored.
type SavedMsg struct {
	Record model.DailyRecord
	Err    error
}

type entryState struct {
	editing bool
	form    *huh.Form
	vals    *model.RecordInput
	last    *model.DailyRecord
}

// NewEntryForm builds the daily entry form. It is shared with the add command.
func NewEntryForm(vals *model.RecordInput) *huh.Form {
	weatherOpts := make([]huh.Option[string], len(model.Weathers))
	for i, w := range model.Weathers {
		weatherOpts[i] = huh.NewOption(string(w), string(w))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&vals.Date).
				Validate(func(s string) error {
					_, err := model.ParseDate(s)
					return err
				}),
			huh.NewInput().
				Title("Sales ($)").
				Value(&vals.Sales).
				Validate(nonNegativeAmount("sales")),
			huh.NewInput().
				Title("Customers").
				Value(&vals.Customers).
				Validate(func(s string) error {
					n, err := model.ParseCount("customers", s)
					if err == nil && n < 0 {
						err = fmt.Errorf("customers must be >= 0")
					}
					return err
				}),
			huh.NewSelect[string]().
				Title("Weather").
				Options(weatherOpts...).
				Value(&vals.Weather),
			huh.NewInput().
				Title("Add-on sales ($)").
				Value(&vals.Addons).
				Validate(nonNegativeAmount("add-ons")),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

func nonNegativeAmount(field string) func(string) error {
	return func(s string) error {
		d, err := model.ParseAmount(field, s)
		if err == nil && d.IsNegative() {
			err = fmt.Errorf("%s must be >= 0", field)
		}
		return err
	}
}

// entryDefaults prefills the form with day's stored record so saving again
// edits it in place. Unrecorded days start at zero.
func entryDefaults(records []model.DailyRecord, day time.Time) model.RecordInput {
	key := day.Format(model.DateLayout)
	for _, r := range records {
		if r.Key() == key {
			return model.InputOf(r)
		}
	}
	return model.RecordInput{
		Date:      key,
		Sales:     "0",
		Customers: "0",
		Weather:   string(model.Sunny),
		Addons:    "0",
	}
}

func (a App) startEntry() (tea.Model, tea.Cmd) {
	var records []model.DailyRecord
	if a.view != nil {
		records = a.view.Records
	}
	vals := entryDefaults(records, time.Now())
	a.entry.vals = &vals
	a.entry.form = NewEntryForm(a.entry.vals)
	a.entry.editing = true
	a.message = ""
	return a, a.entry.form.Init()
}

func (a App) updateEntryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.entry.editing = false
		a.entry.form = nil
		a.notify(components.StatusInfo, "Entry cancelled")
		return a, nil
	}

	form, cmd := a.entry.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.entry.form = f
	}

	switch a.entry.form.State {
	case huh.StateCompleted:
		a.entry.editing = false
		a.entry.form = nil
		rec, err := a.entry.vals.Parse()
		if err != nil {
			a.notify(components.StatusError, err.Error())
			return a, nil
		}
		return a, saveCmd(a.dash, a.sess, rec)
	case huh.StateAborted:
		a.entry.editing = false
		a.entry.form = nil
		return a, nil
	}
	return a, cmd
}

func saveCmd(dash *pipeline.Dashboard, sess *auth.Session, rec model.DailyRecord) tea.Cmd {
	return func() tea.Msg {
		return SavedMsg{Record: rec, Err: dash.Submit(context.Background(), sess, rec)}
	}
}

func (a App) handleSaved(msg SavedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.notify(components.StatusError, "Could not save: "+msg.Err.Error())
		return a, nil
	}
	rec := msg.Record
	a.entry.last = &rec
	a.notify(components.StatusOK, "Data saved!")
	return a, a.startLoad()
}

func (a App) renderEntryTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var b strings.Builder
	if a.entry.editing && a.entry.form != nil {
		formW := min(cw, 72)
		b.WriteString(components.FocusCard("Enter Daily Data", a.entry.form.View(), formW))
	} else {
		var body strings.Builder
		body.WriteString(muted.Render("Press "))
		body.WriteString(accent.Render("a"))
		body.WriteString(muted.Render(" or "))
		body.WriteString(accent.Render("Enter"))
		body.WriteString(muted.Render(" to record a day's sales."))
		if a.entry.last != nil {
			r := a.entry.last
			body.WriteString("\n\n")
			body.WriteString(muted.Render("Last saved  "))
			body.WriteString(value.Render(fmt.Sprintf("%s  %s  %d customers  %s  add-ons %s",
				cli.FormatDate(r.Date), cli.FormatMoney(r.Sales), r.Customers, r.Weather, cli.FormatMoney(r.Addons))))
		}
		b.WriteString(components.ContentCard("Enter Daily Data", body.String(), cw))
	}

	if a.view != nil && !a.view.Empty {
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(summaryMetrics(a.view.Summary), cw))
	}
	return b.String()
}

// summaryMetrics are the headline cards shared by the entry and records tabs.
func summaryMetrics(s model.Summary) []components.Metric {
	span := ""
	if s.Records > 0 {
		span = cli.FormatDate(s.FirstDate) + " to " + cli.FormatDate(s.LastDate)
	}
	return []components.Metric{
		{Label: "Days recorded", Value: cli.FormatNumber(int64(s.Records)), Note: span},
		{Label: "Total sales", Value: cli.FormatMoney(s.TotalSales), Note: "mean " + cli.FormatMoney(s.MeanSales)},
		{Label: "Customers", Value: cli.FormatNumber(int64(s.TotalCustomers))},
		{Label: "Add-ons", Value: cli.FormatMoney(s.TotalAddons)},
	}
}
