package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// recordJSON is the wire form of a daily record.
type recordJSON struct {
	Date      string          `json:"date"`
	Sales     decimal.Decimal `json:"sales"`
	Customers int             `json:"customers"`
	Weather   string          `json:"weather"`
	Addons    decimal.Decimal `json:"addons"`
}

type forecastRowJSON struct {
	Date              string  `json:"ds"`
	SalesForecast     float64 `json:"sales_forecast"`
	CustomersForecast float64 `json:"customers_forecast"`
}

type forecastResponse struct {
	Horizon int               `json:"horizon"`
	Empty   bool              `json:"empty"`
	Rows    []forecastRowJSON `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toRecordJSON(r model.DailyRecord) recordJSON {
	return recordJSON{
		Date:      r.Key(),
		Sales:     r.Sales,
		Customers: r.Customers,
		Weather:   string(r.Weather),
		Addons:    r.Addons,
	}
}

func (rj recordJSON) record() (model.DailyRecord, error) {
	date, err := model.ParseDate(rj.Date)
	if err != nil {
		return model.DailyRecord{}, err
	}
	w, err := model.ParseWeather(rj.Weather)
	if err != nil {
		return model.DailyRecord{}, err
	}
	return model.DailyRecord{
		Date:      date,
		Sales:     rj.Sales,
		Customers: rj.Customers,
		Weather:   w,
		Addons:    rj.Addons,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps dashboard errors onto HTTP status codes.
func statusFor(err error) int {
	var fitErr *forecast.FitError
	switch {
	case errors.Is(err, pipeline.ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, pipeline.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.As(err, &fitErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as JSON, logging anything that is the server's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.recordError(err)
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with username and password")
		return
	}
	sess := auth.NewSession()
	if err := sess.Login(s.verifier, c.Username, c.Password); err != nil {
		s.log.Info("api login rejected", zap.String("user", c.Username))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tok, err := s.tokens.Issue(sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok, User: sess.User})
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.dash.Records(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	var rj recordJSON
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON record")
		return
	}
	if rj.Weather == "" {
		rj.Weather = string(model.Sunny)
	}
	rec, err := rj.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := sessionFrom(r.Context())
	if err := s.dash.Submit(r.Context(), sess, rec); err != nil {
		s.fail(w, r, err)
		return
	}
	s.publishSaved(rec, sess.User)
	writeJSON(w, http.StatusCreated, toRecordJSON(rec))
}

// forecastRows runs the dashboard view and returns its forecast section.
func (s *Server) forecastRows(r *http.Request) ([]model.ForecastRow, bool, error) {
	v, err := s.dash.View(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		return nil, false, err
	}
	return v.Forecast, v.Empty, nil
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	rows, empty, err := s.forecastRows(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := forecastResponse{Horizon: s.dash.Horizon, Empty: empty, Rows: make([]forecastRowJSON, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, forecastRowJSON{
			Date:              row.Date.Format(model.DateLayout),
			SalesForecast:     row.SalesForecast,
			CustomersForecast: row.CustomersForecast,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForecastCSV(w http.ResponseWriter, r *http.Request) {
	rows, _, err := s.forecastRows(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := forecast.CSV(rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+forecast.ExportFilename+`"`)
	_, _ = w.Write(data)
}

func (s *Server) handleForecastXLSX(w http.ResponseWriter, r *http.Request) {
	rows, _, err := s.forecastRows(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := forecast.WriteXLSX(&buf, rows); err != nil {
		s.fail(w, r, err)
		return
	}
	name := strings.TrimSuffix(forecast.ExportFilename, ".csv") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	_, _ = w.Write(buf.Bytes())
}
