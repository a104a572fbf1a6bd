package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/store"
)

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func history(n int) []model.DailyRecord {
	records := make([]model.DailyRecord, n)
	for i := range records {
		records[i] = model.DailyRecord{
			Date:      jan1.AddDate(0, 0, i),
			Sales:     decimal.NewFromInt(int64(1000 + 10*i)),
			Customers: 20 + i,
			Weather:   model.Sunny,
			Addons:    decimal.NewFromInt(5),
		}
	}
	return records
}

func signedIn(t *testing.T) *auth.Session {
	t.Helper()
	s := auth.NewSession()
	if err := s.Login(auth.DefaultVerifier(), "admin", "admin123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return s
}

// loadedApp returns a signed-in app with n seeded days already loaded.
func loadedApp(t *testing.T, n int) App {
	t.Helper()
	st := store.NewCSVStore(filepath.Join(t.TempDir(), "sales_data.csv"))
	if n > 0 {
		if _, err := store.Import(context.Background(), st, history(n)); err != nil {
			t.Fatalf("Import: %v", err)
		}
	}
	dash := pipeline.New(st, 7)
	sess := signedIn(t)
	v, err := dash.View(context.Background(), sess)
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	a := NewApp(Options{Dashboard: dash, Session: sess, Config: config.DefaultConfig(), ExportDir: t.TempDir()})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = m.Update(DataLoadedMsg{View: v})
	return m.(App)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewAppStartsAtLogin(t *testing.T) {
	a := NewApp(Options{})
	if a.sess.Authenticated {
		t.Fatal("new session is authenticated")
	}
	if a.login.form == nil {
		t.Fatal("login form not built for a signed-out session")
	}
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if got := ansi.Strip(m.View()); !strings.Contains(got, "Login") {
		t.Errorf("view does not show the login card:\n%s", got)
	}
}

func TestLoginFlow(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		wantAuth bool
	}{
		{"valid", "admin", "admin123", true},
		{"wrong password", "admin", "nope", false},
		{"unknown user", "root", "admin123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash := pipeline.New(store.NewCSVStore(filepath.Join(t.TempDir(), "d.csv")), 7)
			a := NewApp(Options{Dashboard: dash})
			a.login.vals.username = tt.user
			a.login.vals.password = tt.password
			a.login.form.State = huh.StateCompleted

			m, _ := a.updateLogin(tickMsg{})
			got := m.(App)
			if got.sess.Authenticated != tt.wantAuth {
				t.Fatalf("Authenticated = %v, want %v", got.sess.Authenticated, tt.wantAuth)
			}
			if tt.wantAuth {
				if !got.loading {
					t.Error("successful login did not start loading")
				}
				return
			}
			if got.login.err != "Invalid credentials" {
				t.Errorf("login error = %q, want %q", got.login.err, "Invalid credentials")
			}
			if got.login.vals.username != tt.user {
				t.Errorf("retry username = %q, want %q", got.login.vals.username, tt.user)
			}
		})
	}
}

func TestDataLoadedFillsRecords(t *testing.T) {
	a := loadedApp(t, 10)
	if !a.loaded {
		t.Fatal("app not loaded after DataLoadedMsg")
	}
	rows := a.records.Rows()
	if len(rows) != 10 {
		t.Fatalf("records table has %d rows, want 10", len(rows))
	}
	if rows[0][0] != "2024-01-10" {
		t.Errorf("first row date = %q, want newest 2024-01-10", rows[0][0])
	}
	if len(a.view.Forecast) != 7 {
		t.Errorf("forecast rows = %d, want 7", len(a.view.Forecast))
	}
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t, 10)
	tests := []struct {
		key  tea.KeyMsg
		want int
	}{
		{key("f"), tabForecast},
		{key("r"), tabRecords},
		{key("e"), tabEntry},
		{tea.KeyMsg{Type: tea.KeyLeft}, tabForecast},
		{tea.KeyMsg{Type: tea.KeyRight}, tabEntry},
	}
	var m tea.Model = a
	for _, tt := range tests {
		m, _ = m.Update(tt.key)
		if got := m.(App).activeTab; got != tt.want {
			t.Fatalf("after %q activeTab = %d, want %d", tt.key.String(), got, tt.want)
		}
	}
}

func TestViewsRender(t *testing.T) {
	a := loadedApp(t, 10)
	tests := []struct {
		tab  int
		want string
	}{
		{tabEntry, "Enter Daily Data"},
		{tabRecords, "Sales Data"},
		{tabForecast, "Forecast for Next 7 Days"},
		{tabForecast, "2024-01-11"},
	}
	for _, tt := range tests {
		a.activeTab = tt.tab
		if got := ansi.Strip(a.View()); !strings.Contains(got, tt.want) {
			t.Errorf("tab %d view missing %q", tt.tab, tt.want)
		}
	}
}

func TestEmptyStoreShowsNoData(t *testing.T) {
	a := loadedApp(t, 0)
	for _, tab := range []int{tabRecords, tabForecast} {
		a.activeTab = tab
		if got := ansi.Strip(a.View()); !strings.Contains(got, "No data available yet.") {
			t.Errorf("tab %d view missing the empty notice", tab)
		}
	}
}

func TestEntrySaveAndReload(t *testing.T) {
	a := loadedApp(t, 10)

	m, _ := a.Update(key("a"))
	a = m.(App)
	if !a.entry.editing || a.entry.form == nil {
		t.Fatal("pressing a did not open the entry form")
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = m.(App)
	if a.entry.editing {
		t.Fatal("esc did not cancel the entry form")
	}

	rec := model.DailyRecord{
		Date:      jan1.AddDate(0, 0, 10),
		Sales:     decimal.NewFromInt(1100),
		Customers: 30,
		Weather:   model.Rainy,
		Addons:    decimal.Zero,
	}
	msg := saveCmd(a.dash, a.sess, rec)()
	saved, ok := msg.(SavedMsg)
	if !ok || saved.Err != nil {
		t.Fatalf("saveCmd returned %#v", msg)
	}

	m, _ = a.Update(saved)
	a = m.(App)
	if a.message != "Data saved!" {
		t.Errorf("message = %q, want %q", a.message, "Data saved!")
	}
	if !a.loading {
		t.Error("save did not trigger a reload")
	}
	records, err := a.dash.Records(context.Background(), a.sess)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 11 {
		t.Errorf("store has %d records, want 11", len(records))
	}
}

func TestEntryFormCompletionSubmits(t *testing.T) {
	a := loadedApp(t, 10)
	m, _ := a.startEntry()
	a = m.(App)
	*a.entry.vals = model.RecordInput{Date: "2024-01-11", Sales: "1100", Customers: "30", Weather: "Sunny", Addons: "0"}
	a.entry.form.State = huh.StateCompleted

	m, cmd := a.updateEntryForm(tickMsg{})
	a = m.(App)
	if a.entry.editing {
		t.Error("form still editing after completion")
	}
	if cmd == nil {
		t.Fatal("completed form returned no save command")
	}
	saved, ok := cmd().(SavedMsg)
	if !ok {
		t.Fatalf("command returned %T, want SavedMsg", cmd())
	}
	if saved.Err != nil {
		t.Fatalf("save failed: %v", saved.Err)
	}
	if got := saved.Record.Key(); got != "2024-01-11" {
		t.Errorf("saved date = %s, want 2024-01-11", got)
	}
}

func TestExportWritesForecast(t *testing.T) {
	a := loadedApp(t, 10)
	for _, f := range []exportFormat{exportCSV, exportXLSX} {
		msg := a.exportCmd(f)().(ExportedMsg)
		if msg.Err != nil {
			t.Fatalf("export %s: %v", f.filename(), msg.Err)
		}
		data, err := os.ReadFile(msg.Path)
		if err != nil {
			t.Fatalf("reading export: %v", err)
		}
		switch f {
		case exportCSV:
			if !strings.HasPrefix(string(data), "ds,sales_forecast,customers_forecast\n") {
				t.Errorf("csv export starts %q", string(data[:min(len(data), 40)]))
			}
		case exportXLSX:
			if !strings.HasPrefix(string(data), "PK") {
				t.Error("xlsx export is not a zip archive")
			}
		}
	}
}

func TestExportWithoutForecast(t *testing.T) {
	a := loadedApp(t, 0)
	msg := a.exportCmd(exportCSV)().(ExportedMsg)
	if msg.Err == nil {
		t.Error("export of an empty forecast succeeded")
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValuesFrom(cfg)
	if vals.Horizon != "7" {
		t.Errorf("prefilled horizon = %q, want 7", vals.Horizon)
	}

	vals.Backend = store.BackendSQLite
	vals.Horizon = "14"
	vals.Theme = "tokyo-night"
	if err := vals.Apply(&cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.General.Backend != store.BackendSQLite || cfg.General.Horizon != 14 || cfg.Appearance.Theme != "tokyo-night" {
		t.Errorf("Apply produced %+v %+v", cfg.General, cfg.Appearance)
	}

	for _, bad := range []string{"", "0", "abc", "400"} {
		vals.Horizon = bad
		if err := vals.Apply(&cfg); err == nil {
			t.Errorf("Apply accepted horizon %q", bad)
		}
	}
}

func TestChartDateLabels(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	}
	got := chartDateLabels(dates)
	want := []string{"Jan", "31", "Feb", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTruncStr(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncStr(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncStr(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestEntryDefaultsPrefillsStoredDay(t *testing.T) {
	records := history(3)
	records[1].Sales = decimal.RequireFromString("1010.25")
	records[1].Weather = model.Rainy

	got := entryDefaults(records, jan1.AddDate(0, 0, 1))
	want := model.RecordInput{Date: "2024-01-02", Sales: "1010.25", Customers: "21", Weather: "Rainy", Addons: "5"}
	if got != want {
		t.Errorf("entryDefaults(stored day) = %+v, want %+v", got, want)
	}
	if rec, err := got.Parse(); err != nil || !rec.Sales.Equal(records[1].Sales) {
		t.Errorf("prefilled input parses to %+v, %v", rec, err)
	}

	blank := entryDefaults(records, jan1.AddDate(0, 0, 9))
	if blank.Date != "2024-01-10" || blank.Sales != "0" || blank.Weather != string(model.Sunny) {
		t.Errorf("entryDefaults(new day) = %+v, want zeroed Sunny 2024-01-10", blank)
	}
}
