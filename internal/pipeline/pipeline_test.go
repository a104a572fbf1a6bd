package pipeline

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
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
			Weather:   model.Weathers[i%len(model.Weathers)],
			Addons:    decimal.NewFromInt(5),
		}
	}
	return records
}

func newDashboard(t *testing.T) *Dashboard {
	t.Helper()
	return New(store.NewCSVStore(filepath.Join(t.TempDir(), "sales_data.csv")), 7)
}

func signedIn() *auth.Session {
	s := auth.NewSession()
	if err := s.Login(auth.DefaultVerifier(), "admin", "admin123"); err != nil {
		panic(err)
	}
	return s
}

func TestViewEmpty(t *testing.T) {
	d := newDashboard(t)
	v, err := d.View(context.Background(), signedIn())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !v.Empty {
		t.Error("View.Empty = false on an empty store")
	}
	if len(v.Forecast) != 0 {
		t.Errorf("empty View has %d forecast rows", len(v.Forecast))
	}
}

func TestSubmitAndView(t *testing.T) {
	d := newDashboard(t)
	ctx := context.Background()
	sess := signedIn()

	for _, r := range history(10) {
		if err := d.Submit(ctx, sess, r); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	v, err := d.View(ctx, sess)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Empty {
		t.Fatal("View.Empty = true after submitting records")
	}
	if v.Summary.Records != 10 {
		t.Errorf("Summary.Records = %d, want 10", v.Summary.Records)
	}
	if len(v.Forecast) != 7 {
		t.Fatalf("forecast rows = %d, want 7", len(v.Forecast))
	}
	if got := v.Forecast[0].Date.Format(model.DateLayout); got != "2024-01-11" {
		t.Errorf("first forecast date = %s, want 2024-01-11", got)
	}
	if got := v.Forecast[6].Date.Format(model.DateLayout); got != "2024-01-17" {
		t.Errorf("last forecast date = %s, want 2024-01-17", got)
	}
	if got := v.Forecast[0].SalesForecast; math.Abs(got-1100) > 1e-6 {
		t.Errorf("first sales forecast = %f, want 1100", got)
	}
	if got := v.Forecast[6].CustomersForecast; math.Abs(got-36) > 1e-6 {
		t.Errorf("last customers forecast = %f, want 36", got)
	}
}

func TestViewDownloadLinkRoundTrip(t *testing.T) {
	d := newDashboard(t)
	ctx := context.Background()
	sess := signedIn()
	for _, r := range history(10) {
		if err := d.Submit(ctx, sess, r); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	v, err := d.View(ctx, sess)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	link, err := forecast.DownloadLink(v.Forecast)
	if err != nil {
		t.Fatalf("DownloadLink: %v", err)
	}
	start := strings.Index(link, `href="`)
	if start < 0 {
		t.Fatalf("DownloadLink has no href: %s", link)
	}
	href := link[start+len(`href="`):]
	href = href[:strings.Index(href, `"`)]

	raw, err := forecast.DecodeDataURI(href)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 8 {
		t.Fatalf("decoded CSV has %d lines, want 8:\n%s", len(lines), raw)
	}
	if lines[0] != "ds,sales_forecast,customers_forecast" {
		t.Errorf("header = %q", lines[0])
	}
	for i, line := range lines[1:] {
		want := jan1.AddDate(0, 0, 10+i).Format(model.DateLayout)
		if got := strings.SplitN(line, ",", 2)[0]; got != want {
			t.Errorf("row %d date = %s, want %s", i, got, want)
		}
	}
}

func TestSubmitRequiresLogin(t *testing.T) {
	d := newDashboard(t)
	ctx := context.Background()
	rec := history(1)[0]

	if err := d.Submit(ctx, auth.NewSession(), rec); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Submit signed out err = %v, want ErrNotAuthenticated", err)
	}
	if err := d.Submit(ctx, nil, rec); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Submit nil session err = %v, want ErrNotAuthenticated", err)
	}
	if _, err := d.View(ctx, auth.NewSession()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("View signed out err = %v, want ErrNotAuthenticated", err)
	}
}

func TestSubmitRejectsInvalid(t *testing.T) {
	d := newDashboard(t)
	rec := history(1)[0]
	rec.Sales = decimal.NewFromInt(-5)
	if err := d.Submit(context.Background(), signedIn(), rec); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("Submit negative sales err = %v, want ErrInvalidRecord", err)
	}
}

func TestViewSingleRecordFitFailure(t *testing.T) {
	d := newDashboard(t)
	ctx := context.Background()
	sess := signedIn()
	if err := d.Submit(ctx, sess, history(1)[0]); err != nil {
		t.Fatal(err)
	}

	v, err := d.View(ctx, sess)
	if v == nil || len(v.Records) != 1 {
		t.Fatalf("View on fit failure should still carry records, got %+v", v)
	}
	var fe *forecast.FitError
	if !errors.As(err, &fe) {
		t.Fatalf("View err = %v, want *forecast.FitError", err)
	}
	if !errors.Is(err, forecast.ErrInsufficientHistory) {
		t.Errorf("View err does not wrap ErrInsufficientHistory: %v", err)
	}
}

type lockedModel struct {
	mu   sync.Mutex
	fits int
}

func (m *lockedModel) Fit(history []model.Point) (forecast.Fitted, error) {
	m.mu.Lock()
	m.fits++
	m.mu.Unlock()
	return forecast.TrendModel{}.Fit(history)
}

func TestForecastMetricsProgress(t *testing.T) {
	m := &lockedModel{}
	req := &forecast.Requester{Model: m, Horizon: 7}

	var calls []int
	var mu sync.Mutex
	progress := func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, current)
		if total != 2 {
			t.Errorf("progress total = %d, want 2", total)
		}
	}

	out, err := ForecastMetrics(req, history(10), Metrics, 7, progress)
	if err != nil {
		t.Fatalf("ForecastMetrics: %v", err)
	}
	if m.fits != 2 {
		t.Errorf("fits = %d, want 2", m.fits)
	}
	if len(calls) != 2 {
		t.Errorf("progress called %d times, want 2", len(calls))
	}
	for _, metric := range Metrics {
		if len(out[metric]) != 17 {
			t.Errorf("%s points = %d, want 17", metric, len(out[metric]))
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(history(4))
	if s.Records != 4 {
		t.Errorf("Records = %d, want 4", s.Records)
	}
	if !s.TotalSales.Equal(decimal.NewFromInt(4060)) {
		t.Errorf("TotalSales = %s, want 4060", s.TotalSales)
	}
	if !s.MeanSales.Equal(decimal.NewFromInt(1015)) {
		t.Errorf("MeanSales = %s, want 1015", s.MeanSales)
	}
	if s.TotalCustomers != 86 {
		t.Errorf("TotalCustomers = %d, want 86", s.TotalCustomers)
	}
	if !s.FirstDate.Equal(jan1) || !s.LastDate.Equal(jan1.AddDate(0, 0, 3)) {
		t.Errorf("date range = %v..%v", s.FirstDate, s.LastDate)
	}
	if s.WeatherDays[model.Stormy] != 1 {
		t.Errorf("Stormy days = %d, want 1", s.WeatherDays[model.Stormy])
	}

	empty := Summarize(nil)
	if empty.Records != 0 || !empty.MeanSales.IsZero() {
		t.Errorf("Summarize(nil) = %+v", empty)
	}
}

func TestAggregateDaysFillsGaps(t *testing.T) {
	records := []model.DailyRecord{history(5)[4], history(1)[0]}
	days := AggregateDays(records, time.Time{}, time.Time{})
	if len(days) != 5 {
		t.Fatalf("AggregateDays len = %d, want 5", len(days))
	}
	if !days[0].Date.Equal(jan1) {
		t.Errorf("first day = %v, want %v", days[0].Date, jan1)
	}
	if !days[2].Sales.IsZero() {
		t.Errorf("gap day sales = %s, want 0", days[2].Sales)
	}
	if !days[4].Sales.Equal(decimal.NewFromInt(1040)) {
		t.Errorf("last day sales = %s, want 1040", days[4].Sales)
	}

	if got := AggregateDays(nil, time.Time{}, time.Time{}); got != nil {
		t.Errorf("AggregateDays(nil) = %v, want nil", got)
	}
}

func TestFilterByTime(t *testing.T) {
	records := history(10)
	got := FilterByTime(records, jan1.AddDate(0, 0, 2), jan1.AddDate(0, 0, 5))
	if len(got) != 3 {
		t.Fatalf("FilterByTime len = %d, want 3", len(got))
	}
	if got[0].Key() != "2024-01-03" {
		t.Errorf("first = %s, want 2024-01-03", got[0].Key())
	}
	if all := FilterByTime(records, time.Time{}, time.Time{}); len(all) != 10 {
		t.Errorf("unbounded FilterByTime len = %d, want 10", len(all))
	}
}
