package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	funcs := template.FuncMap{
		"money":  func(d decimal.Decimal) string { return cli.FormatMoney(d) },
		"moneyf": func(f float64) string { return cli.FormatMoneyFloat(f) },
		"num":    func(n int) string { return cli.FormatNumber(int64(n)) },
		"float1": func(f float64) string { return cli.FormatFloat(f, 1) },
		"date":   cli.FormatDate,
	}
	t, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return t, nil
}

type loginPage struct {
	CSRF  template.HTML
	Next  string
	User  string
	Error string
}

type dashboardPage struct {
	CSRF          template.HTML
	User          string
	Notice        string
	Error         string
	Form          model.RecordInput
	Weathers      []model.Weather
	View          *pipeline.View
	ForecastError string
	Chart         template.HTML
	Download      template.HTML
	Horizon       int
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.cookieSession(r).Authenticated {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginPage{
		CSRF: csrf.TemplateField(r),
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	next := safeNext(r.PostFormValue("next"))

	sess := auth.NewSession()
	if err := sess.Login(s.verifier, username, r.PostFormValue("password")); err != nil {
		s.log.Info("login rejected", zap.String("user", username))
		s.render(w, http.StatusUnauthorized, "login.html", loginPage{
			CSRF:  csrf.TemplateField(r),
			Next:  next,
			User:  username,
			Error: "Invalid credentials",
		})
		return
	}

	cs, _ := s.cookies.Get(r, sessionName)
	cs.Values[keySessionID] = sess.ID
	cs.Values[keyUser] = sess.User
	cs.Values[keyAuthenticated] = true
	if err := cs.Save(r, w); err != nil {
		s.log.Error("saving session", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.log.Info("signed in", zap.String("user", sess.User), zap.String("session", sess.ID))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	cs, _ := s.cookies.Get(r, sessionName)
	cs.Values = map[interface{}]interface{}{}
	cs.Options.MaxAge = -1
	if err := cs.Save(r, w); err != nil {
		s.log.Error("clearing session", zap.Error(err))
	}
	if sess != nil {
		s.log.Info("signed out", zap.String("user", sess.User))
		sess.Logout()
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// popFlash returns and clears the one-shot notice stored by a redirect.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	cs, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return ""
	}
	flashes := cs.Flashes(keyFlash)
	if len(flashes) == 0 {
		return ""
	}
	if err := cs.Save(r, w); err != nil {
		s.log.Warn("saving session after flash", zap.Error(err))
	}
	msg, _ := flashes[0].(string)
	return msg
}

func (s *Server) dashboardData(r *http.Request, form model.RecordInput) (dashboardPage, error) {
	sess := sessionFrom(r.Context())
	page := dashboardPage{
		CSRF:     csrf.TemplateField(r),
		User:     sess.User,
		Form:     form,
		Weathers: model.Weathers,
		Horizon:  s.dash.Horizon,
	}

	v, err := s.dash.View(r.Context(), sess)
	if err != nil {
		var fitErr *forecast.FitError
		if v == nil || !errors.As(err, &fitErr) {
			return page, err
		}
		s.log.Warn("forecast failed", zap.Error(err))
		page.ForecastError = err.Error()
	}
	page.View = v

	if len(v.Forecast) > 0 {
		page.Chart = forecastChart(v.Forecast)
		link, err := forecast.DownloadLink(v.Forecast)
		if err != nil {
			return page, err
		}
		page.Download = template.HTML(link) //nolint:gosec // link is built from escaped parts
	}
	return page, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	notice := s.popFlash(w, r)
	page, err := s.dashboardData(r, model.RecordInput{
		Date:    time.Now().Format(model.DateLayout),
		Weather: string(model.Sunny),
		Sales:   "0",
		Addons:  "0",
	})
	if err != nil {
		s.recordError(err)
		s.log.Error("loading dashboard", zap.Error(err))
		http.Error(w, "could not load records", statusFor(err))
		return
	}
	page.Notice = notice
	status := http.StatusOK
	if page.ForecastError != "" {
		status = http.StatusUnprocessableEntity
	}
	s.render(w, status, "dashboard.html", page)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := model.RecordInput{
		Date:      r.PostFormValue("date"),
		Sales:     r.PostFormValue("sales"),
		Customers: r.PostFormValue("customers"),
		Weather:   r.PostFormValue("weather"),
		Addons:    r.PostFormValue("addons"),
	}
	sess := sessionFrom(r.Context())

	rec, err := form.Parse()
	status := http.StatusBadRequest
	if err == nil {
		err = s.dash.Submit(r.Context(), sess, rec)
		status = statusFor(err)
	}
	if err != nil {
		if status >= http.StatusInternalServerError {
			s.recordError(err)
			s.log.Error("saving record", zap.Error(err))
		}
		page, derr := s.dashboardData(r, form)
		if derr != nil {
			http.Error(w, "could not load records", http.StatusInternalServerError)
			return
		}
		page.Error = err.Error()
		if status >= http.StatusInternalServerError {
			page.Error = "Could not save the record. Try again."
		}
		s.render(w, status, "dashboard.html", page)
		return
	}

	s.publishSaved(rec, sess.User)
	if cs, err := s.cookies.Get(r, sessionName); err == nil {
		cs.AddFlash("Data saved!", keyFlash)
		if err := cs.Save(r, w); err != nil {
			s.log.Warn("saving flash", zap.Error(err))
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
