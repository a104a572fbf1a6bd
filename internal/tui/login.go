package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/tui/theme"
)

type loginValues struct {
	username string
	password string
}

// loginState holds the form values on the heap since App is copied on
// every update.
type loginState struct {
	form *huh.Form
	vals *loginValues
	err  string
}

func newLoginState(username string) loginState {
	vals := &loginValues{username: username}
	return loginState{form: newLoginForm(&vals.username, &vals.password), vals: vals}
}

func newLoginForm(username, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

func (a App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.login.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.login.form = f
	}

	switch a.login.form.State {
	case huh.StateCompleted:
		user := strings.TrimSpace(a.login.vals.username)
		if err := a.sess.Login(a.verifier, user, a.login.vals.password); err != nil {
			retry := newLoginState(user)
			retry.err = "Invalid credentials"
			a.login = retry
			return a, a.login.form.Init()
		}
		a.login = loginState{}
		return a, a.startLoad()
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

func (a App) viewLogin() string {
	if a.login.form == nil {
		return ""
	}
	body := a.login.form.View()
	if a.login.err != "" {
		t := theme.Active
		body = lipgloss.NewStyle().Foreground(t.Bad).Background(t.Surface).Bold(true).Render(a.login.err) +
			"\n\n" + body
	}
	return a.viewForm(body, "Login")
}
