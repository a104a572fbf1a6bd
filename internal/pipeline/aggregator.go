// Package pipeline orchestrates record loading, aggregation, and forecasting
// for one dashboard interaction.
package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/model"
)

// Summarize computes top-level totals across records.
func Summarize(records []model.DailyRecord) model.Summary {
	s := model.Summary{
		TotalSales:  decimal.Zero,
		MeanSales:   decimal.Zero,
		TotalAddons: decimal.Zero,
		WeatherDays: make(map[model.Weather]int),
	}

	for _, r := range records {
		s.Records++
		s.TotalSales = s.TotalSales.Add(r.Sales)
		s.TotalAddons = s.TotalAddons.Add(r.Addons)
		s.TotalCustomers += r.Customers
		s.WeatherDays[r.Weather]++

		if s.FirstDate.IsZero() || r.Date.Before(s.FirstDate) {
			s.FirstDate = r.Date
		}
		if r.Date.After(s.LastDate) {
			s.LastDate = r.Date
		}
	}

	if s.Records > 0 {
		s.MeanSales = s.TotalSales.Div(decimal.NewFromInt(int64(s.Records))).Round(2)
	}
	return s
}

// AggregateDays returns one record per calendar day in [since, until],
// oldest first. Days with no stored record are zero-filled so charts show
// gaps. Zero since/until default to the first/last stored date.
func AggregateDays(records []model.DailyRecord, since, until time.Time) []model.DailyRecord {
	if len(records) == 0 && (since.IsZero() || until.IsZero()) {
		return nil
	}

	byDay := make(map[string]model.DailyRecord, len(records))
	var first, last time.Time
	for _, r := range records {
		byDay[r.Key()] = r
		if first.IsZero() || r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	if since.IsZero() {
		since = first
	}
	if until.IsZero() {
		until = last
	}

	var days []model.DailyRecord
	for day := model.Day(since); !day.After(model.Day(until)); day = day.AddDate(0, 0, 1) {
		r, ok := byDay[day.Format(model.DateLayout)]
		if !ok {
			r = model.DailyRecord{Date: day, Sales: decimal.Zero, Addons: decimal.Zero}
		}
		days = append(days, r)
	}
	return days
}

// FilterByTime returns records whose date falls within [since, until).
// Zero bounds are open.
func FilterByTime(records []model.DailyRecord, since, until time.Time) []model.DailyRecord {
	if since.IsZero() && until.IsZero() {
		return records
	}

	var result []model.DailyRecord
	for _, r := range records {
		if !since.IsZero() && r.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !r.Date.Before(until) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// SortByDate returns a copy of records ordered oldest first.
func SortByDate(records []model.DailyRecord) []model.DailyRecord {
	out := make([]model.DailyRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
