// Package forecast fits a time-series model to daily history and projects it
// forward, then merges and exports the sales and customers projections.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/salescast/internal/model"
)

var (
	// ErrInsufficientHistory is returned when there are too few points to fit.
	ErrInsufficientHistory = errors.New("not enough history to fit a model")
	// ErrInvalidHistory is returned when history holds NaN or infinite values.
	ErrInvalidHistory = errors.New("history contains non-finite values")
)

// FitError reports a model fit failure for one metric.
type FitError struct {
	Metric string
	Err    error
}

func (e *FitError) Error() string {
	if e.Metric == "" {
		return "fitting model: " + e.Err.Error()
	}
	return fmt.Sprintf("fitting %s model: %v", e.Metric, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// Model fits a series. Implementations must not retain history between calls.
type Model interface {
	Fit(history []model.Point) (Fitted, error)
}

// Fitted predicts values for arbitrary calendar dates.
type Fitted interface {
	Predict(dates []time.Time) []float64
}

// MinHistory is the fewest points TrendModel will fit.
const MinHistory = 2

// weeklyMinSpan is the history span at which weekly seasonality is enabled.
const weeklyMinSpan = 14 * 24 * time.Hour

// TrendModel is an additive model: a least-squares linear trend over day
// index plus a zero-mean day-of-week offset learned from the residuals.
type TrendModel struct {
	// DisableWeekly turns off the day-of-week component.
	DisableWeekly bool
}

type trendFit struct {
	origin time.Time
	alpha  float64
	beta   float64
	weekly [7]float64
}

// Fit implements Model.
func (m TrendModel) Fit(history []model.Point) (Fitted, error) {
	if len(history) < MinHistory {
		return nil, fmt.Errorf("%w: got %d points, need %d", ErrInsufficientHistory, len(history), MinHistory)
	}

	pts := sortedPoints(history)
	origin := pts[0].Date
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidHistory, p.Date.Format(model.DateLayout))
		}
		xs[i] = dayIndex(origin, p.Date)
		ys[i] = p.Value
	}

	f := &trendFit{origin: origin}
	if xs[len(xs)-1] == xs[0] {
		// All points on one day: no slope to learn.
		f.alpha = stat.Mean(ys, nil)
	} else {
		f.alpha, f.beta = stat.LinearRegression(xs, ys, nil, false)
	}

	span := pts[len(pts)-1].Date.Sub(origin)
	if !m.DisableWeekly && span >= weeklyMinSpan {
		f.weekly = weeklyOffsets(pts, xs, ys, f.alpha, f.beta)
	}
	return f, nil
}

func (f *trendFit) Predict(dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		x := dayIndex(f.origin, d)
		out[i] = f.alpha + f.beta*x + f.weekly[d.Weekday()]
	}
	return out
}

// weeklyOffsets averages trend residuals per weekday and centres them so the
// seasonal component sums to zero over a week.
func weeklyOffsets(pts []model.Point, xs, ys []float64, alpha, beta float64) [7]float64 {
	var sum [7]float64
	var n [7]int
	for i, p := range pts {
		wd := p.Date.Weekday()
		sum[wd] += ys[i] - (alpha + beta*xs[i])
		n[wd]++
	}

	var offsets [7]float64
	var seen []float64
	for wd := range offsets {
		if n[wd] > 0 {
			offsets[wd] = sum[wd] / float64(n[wd])
			seen = append(seen, offsets[wd])
		}
	}
	mean := stat.Mean(seen, nil)
	for wd := range offsets {
		if n[wd] > 0 {
			offsets[wd] -= mean
		}
	}
	return offsets
}

func dayIndex(origin, t time.Time) float64 {
	return math.Round(t.Sub(origin).Hours() / 24)
}

func sortedPoints(history []model.Point) []model.Point {
	pts := make([]model.Point, len(history))
	copy(pts, history)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	return pts
}
