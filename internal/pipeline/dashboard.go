package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/store"
)

// ErrNotAuthenticated is returned when a dashboard operation runs on a
// session that has not signed in.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrInvalidRecord wraps validation failures from Submit.
var ErrInvalidRecord = errors.New("invalid record")

// Dashboard wires a record store to a forecast requester. Every call reads
// storage fresh and refits; nothing is cached between interactions.
type Dashboard struct {
	Store     store.RecordStore
	Requester *forecast.Requester
	Horizon   int
	Progress  ProgressFunc
}

// View is the rendered state of the dashboard after one interaction.
type View struct {
	Empty    bool
	Records  []model.DailyRecord
	Summary  model.Summary
	Forecast []model.ForecastRow
}

// New returns a Dashboard with the default requester.
func New(s store.RecordStore, horizon int) *Dashboard {
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	return &Dashboard{Store: s, Requester: forecast.NewRequester(), Horizon: horizon}
}

func requireSession(sess *auth.Session) error {
	if sess == nil || !sess.Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// Submit validates rec and saves it for an authenticated session.
func (d *Dashboard) Submit(ctx context.Context, sess *auth.Session, rec model.DailyRecord) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	rec.Date = model.Day(rec.Date)
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := d.Store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Records loads the stored records for an authenticated session.
func (d *Dashboard) Records(ctx context.Context, sess *auth.Session) ([]model.DailyRecord, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	records, err := d.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	return records, nil
}

// View loads records and, when any exist, forecasts both metrics and keeps
// the trailing horizon rows. An empty store is not an error. When the
// forecast fails the view is still returned with its records so callers can
// render them alongside the error.
func (d *Dashboard) View(ctx context.Context, sess *auth.Session) (*View, error) {
	records, err := d.Records(ctx, sess)
	if err != nil {
		return nil, err
	}

	v := &View{Records: records, Summary: Summarize(records)}
	if len(records) == 0 {
		v.Empty = true
		return v, nil
	}

	horizon := d.Horizon
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	req := d.Requester
	if req == nil {
		req = forecast.NewRequester()
	}

	series, err := ForecastMetrics(req, records, Metrics, horizon, d.Progress)
	if err != nil {
		return v, err
	}
	v.Forecast = forecast.FutureRows(series[forecast.MetricSales], series[forecast.MetricCustomers], horizon)
	return v, nil
}
