// Package tui provides the interactive Bubble Tea dashboard for salescast.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"
)

// DataLoadedMsg is sent when the records are read and the forecast refit.
type DataLoadedMsg struct {
	View     *pipeline.View
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports forecast progress, one step per metric.
type ProgressMsg struct {
	Current int
	Total   int
}

type tickMsg struct{}

const (
	tabEntry = iota
	tabRecords
	tabForecast
)

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 160
	minContentHeight = 5
)

// Options configures NewApp.
type Options struct {
	Dashboard *pipeline.Dashboard
	Verifier  auth.Verifier
	// Session starts signed in when already authenticated; otherwise the
	// login form is shown first.
	Session *auth.Session
	Config  config.Config
	// ConfigPath is where setup answers are saved. Empty means the default.
	ConfigPath string
	// NeedSetup shows the first-run setup form before anything else.
	NeedSetup bool
	// ExportDir is where x and X write forecast files.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	dash      *pipeline.Dashboard
	verifier  auth.Verifier
	sess      *auth.Session
	cfg       config.Config
	cfgPath   string
	exportDir string

	// Data
	view     *pipeline.View
	viewErr  error
	loaded   bool
	loading  bool
	loadTime time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	message   string
	msgKind   components.StatusKind

	// Forms
	login     loginState
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool
	entry     entryState
	records   table.Model

	// Loading, fed by the loader goroutine
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

// NewApp creates the TUI model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	sess := opts.Session
	if sess == nil {
		sess = auth.NewSession()
	}
	verifier := opts.Verifier
	if verifier == nil {
		verifier = auth.DefaultVerifier()
	}
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	a := App{
		dash:      opts.Dashboard,
		verifier:  verifier,
		sess:      sess,
		cfg:       opts.Config,
		cfgPath:   cfgPath,
		exportDir: exportDir,
		needSetup: opts.NeedSetup,
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
		records:   newRecordsTable(),
	}
	if a.needSetup {
		vals := SetupValuesFrom(opts.Config)
		a.setupVals = &vals
		a.setupForm = NewSetupForm(a.setupVals)
	}
	if !sess.Authenticated {
		a.login = newLoginState("")
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion, a.spinner.Tick, tickCmd()}
	switch {
	case a.setupForm != nil:
		cmds = append(cmds, a.setupForm.Init())
	case !a.sess.Authenticated:
		cmds = append(cmds, a.login.form.Init())
	default:
		cmds = append(cmds, loadDataCmd(a.dash, a.sess, a.loadSub))
	}
	return tea.Batch(cmds...)
}

// startLoad kicks off a refit unless one is already running.
func (a *App) startLoad() tea.Cmd {
	if a.loading {
		return nil
	}
	a.loading = true
	a.progress, a.progressMax = 0, 0
	return tea.Batch(loadDataCmd(a.dash, a.sess, a.loadSub), a.spinner.Tick)
}

func (a *App) notify(kind components.StatusKind, msg string) {
	a.msgKind = kind
	a.message = msg
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.resizeRecords()
		return a, nil

	case tea.MouseMsg:
		if !a.inMain() || a.showHelp || a.entry.editing {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabRecords {
				a.records.MoveUp(1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabRecords {
				a.records.MoveDown(1)
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if !a.sess.Authenticated {
			return a.updateLogin(msg)
		}
		if a.entry.editing {
			return a.updateEntryForm(msg)
		}
		return a.updateMainKeys(msg)

	case DataLoadedMsg:
		a.loading = false
		a.loadTime = msg.LoadTime
		a.viewErr = msg.Err
		a.loaded = true
		if msg.View != nil {
			a.view = msg.View
			a.refreshRecords()
		}
		if msg.Err != nil {
			var fitErr *forecast.FitError
			if errors.As(msg.Err, &fitErr) {
				a.notify(components.StatusError, "Forecast failed: "+msg.Err.Error())
			} else {
				a.notify(components.StatusError, "Could not load records: "+msg.Err.Error())
			}
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case SavedMsg:
		return a.handleSaved(msg)

	case ExportedMsg:
		if msg.Err != nil {
			a.notify(components.StatusError, "Export failed: "+msg.Err.Error())
		} else {
			a.notify(components.StatusOK, "Wrote "+msg.Path)
		}
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		return a, tickCmd()
	}

	// Cursor blinks and other form-internal messages.
	switch {
	case a.setupForm != nil:
		return a.updateSetupForm(msg)
	case !a.sess.Authenticated && a.login.form != nil:
		return a.updateLogin(msg)
	case a.entry.editing:
		return a.updateEntryForm(msg)
	}
	return a, nil
}

func (a App) inMain() bool {
	return a.setupForm == nil && a.sess.Authenticated && a.loaded
}

func (a App) updateMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.loaded {
		return a, nil
	}
	key := msg.String()

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "ctrl+r":
		return a, a.startLoad()
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}
	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
	}

	switch a.activeTab {
	case tabEntry:
		if key == "enter" || key == "a" {
			return a.startEntry()
		}
	case tabRecords:
		var cmd tea.Cmd
		a.records, cmd = a.records.Update(msg)
		return a, cmd
	case tabForecast:
		switch key {
		case "x":
			return a, a.exportCmd(exportCSV)
		case "X":
			return a, a.exportCmd(exportXLSX)
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.needSetup = false
		restart, err := a.applySetup()
		switch {
		case err != nil:
			a.notify(components.StatusError, "Could not save config: "+err.Error())
		case restart:
			a.notify(components.StatusInfo, "Saved to "+a.cfgPath+". Storage changes apply on next start.")
		default:
			a.notify(components.StatusOK, "Saved to "+a.cfgPath)
		}
		return a, a.afterSetup()
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		return a, a.afterSetup()
	}
	return a, cmd
}

// afterSetup moves on to the login form or straight to loading.
func (a *App) afterSetup() tea.Cmd {
	if !a.sess.Authenticated {
		return a.login.form.Init()
	}
	return a.startLoad()
}

// applySetup stores the setup answers and applies what can change live.
// It reports whether a storage setting changed and needs a restart.
func (a *App) applySetup() (bool, error) {
	before := a.cfg.General
	if err := a.setupVals.Apply(&a.cfg); err != nil {
		return false, err
	}
	theme.SetActive(a.cfg.Appearance.Theme)
	a.records.SetStyles(recordsTableStyles())
	if a.dash != nil {
		a.dash.Horizon = a.cfg.General.Horizon
	}
	restart := before.Backend != a.cfg.General.Backend ||
		before.DataFile != a.cfg.General.DataFile ||
		before.DatabaseURL != a.cfg.General.DatabaseURL
	return restart, config.SaveTo(a.cfgPath, a.cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setupForm != nil {
		return a.viewForm(a.setupForm.View(), "First-run setup")
	}
	if !a.sess.Authenticated {
		return a.viewLogin()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  salescast needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

// viewForm centers a huh form inside an accent card.
func (a App) viewForm(body, title string) string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	content := titleStyle.Render("◈ salescast") +
		lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(" · "+title) +
		"\n\n" + body
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(content),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ salescast"))
	b.WriteString(subtitleStyle.Render(" · Sales Forecast Dashboard"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Fitting forecast\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(components.StepLabel("metrics", a.progress, a.progressMax))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Loading records..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Sales).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"e r f", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Move through records"},
		}},
		{"Actions", [][2]string{
			{"a Enter", "Enter a day's data"},
			{"Esc", "Cancel entry"},
			{"x / X", "Export forecast CSV / XLSX"},
			{"^r", "Reload and refit"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	switch {
	case a.entry.editing:
		return "[enter]next  [esc]cancel"
	case a.activeTab == tabEntry:
		return "[a]dd day  [?]help  [q]uit"
	case a.activeTab == tabRecords:
		return "[j/k]move  [?]help  [q]uit"
	default:
		return "[x]csv  [X]xlsx  [?]help  [q]uit"
	}
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, "◈ salescast", w)
	statusBar := components.RenderStatusBar(w, components.Status{
		User:     a.sess.User,
		Message:  a.message,
		Kind:     a.msgKind,
		Loading:  a.loading,
		LoadTime: a.loadTime,
		Hints:    a.statusHints(),
	})

	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch a.activeTab {
	case tabEntry:
		content = a.renderEntryTab(cw)
	case tabRecords:
		content = a.renderRecordsTab(cw, contentH)
	case tabForecast:
		content = a.renderForecastTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd reads records and refits the forecast in a background
// goroutine. It streams ProgressMsg updates and a final DataLoadedMsg
// through sub.
func loadDataCmd(dash *pipeline.Dashboard, sess *auth.Session, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Non-blocking: a dropped update is caught up by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			d := *dash
			d.Progress = progressFn
			v, err := d.View(context.Background(), sess)
			sub <- DataLoadedMsg{View: v, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar uses.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
