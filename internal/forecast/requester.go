package forecast

import (
	"sort"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

// DefaultHorizon is the number of future days projected when none is given.
const DefaultHorizon = 7

// Metric names a forecastable column of DailyRecord.
type Metric string

const (
	MetricSales     Metric = "sales"
	MetricCustomers Metric = "customers"
)

// SeriesOf extracts one metric from records as a date-sorted series.
func SeriesOf(records []model.DailyRecord, m Metric) []model.Point {
	pts := make([]model.Point, 0, len(records))
	for _, r := range records {
		var v float64
		switch m {
		case MetricSales:
			v = r.Sales.InexactFloat64()
		case MetricCustomers:
			v = float64(r.Customers)
		}
		pts = append(pts, model.Point{Date: r.Date, Value: v})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	return pts
}

// Requester produces forecasts from an injected Model.
type Requester struct {
	Model   Model
	Horizon int
}

// NewRequester returns a Requester using TrendModel and DefaultHorizon.
func NewRequester() *Requester {
	return &Requester{Model: TrendModel{}, Horizon: DefaultHorizon}
}

func (r *Requester) horizon(h int) int {
	if h > 0 {
		return h
	}
	if r.Horizon > 0 {
		return r.Horizon
	}
	return DefaultHorizon
}

// Forecast fits a fresh model on history and returns one point per
// historical date followed by horizon future days. Horizon <= 0 uses the
// requester's default.
func (r *Requester) Forecast(history []model.Point, horizon int) ([]model.Point, error) {
	m := r.Model
	if m == nil {
		m = TrendModel{}
	}
	fitted, err := m.Fit(history)
	if err != nil {
		return nil, &FitError{Err: err}
	}

	dates := FutureDates(history, r.horizon(horizon))
	values := fitted.Predict(dates)

	out := make([]model.Point, len(dates))
	for i, d := range dates {
		out[i] = model.Point{Date: d, Value: values[i]}
	}
	return out, nil
}

// FutureDates returns the sorted historical dates followed by horizon
// consecutive days after the last one.
func FutureDates(history []model.Point, horizon int) []time.Time {
	pts := sortedPoints(history)
	dates := make([]time.Time, 0, len(pts)+horizon)
	for _, p := range pts {
		dates = append(dates, p.Date)
	}
	if len(pts) == 0 {
		return dates
	}
	last := pts[len(pts)-1].Date
	for i := 1; i <= horizon; i++ {
		dates = append(dates, last.AddDate(0, 0, i))
	}
	return dates
}

// Merge joins the sales and customers forecasts on date. Dates missing from
// either side are dropped.
func Merge(sales, customers []model.Point) []model.ForecastRow {
	byDate := make(map[time.Time]float64, len(customers))
	for _, p := range customers {
		byDate[p.Date] = p.Value
	}

	rows := make([]model.ForecastRow, 0, len(sales))
	for _, p := range sales {
		c, ok := byDate[p.Date]
		if !ok {
			continue
		}
		rows = append(rows, model.ForecastRow{Date: p.Date, SalesForecast: p.Value, CustomersForecast: c})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// Tail returns the last n rows, or all rows when there are fewer.
func Tail(rows []model.ForecastRow, n int) []model.ForecastRow {
	if n < 0 {
		n = 0
	}
	if len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}

// FutureRows merges the per-metric forecasts and keeps the trailing horizon
// rows, the days after the last recorded date.
func FutureRows(sales, customers []model.Point, horizon int) []model.ForecastRow {
	return Tail(Merge(sales, customers), horizon)
}
