// Package model defines the domain types shared across salescast.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and on-wire date format.
const DateLayout = "2006-01-02"

// Weather is the observed weather for a business day.
type Weather string

const (
	Sunny  Weather = "Sunny"
	Rainy  Weather = "Rainy"
	Cloudy Weather = "Cloudy"
	Stormy Weather = "Stormy"
)

// Weathers lists the accepted weather values in form order.
var Weathers = []Weather{Sunny, Rainy, Cloudy, Stormy}

// ParseWeather resolves a weather name case-insensitively.
func ParseWeather(s string) (Weather, error) {
	s = strings.TrimSpace(s)
	for _, w := range Weathers {
		if strings.EqualFold(s, string(w)) {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown weather %q (want one of Sunny, Rainy, Cloudy, Stormy)", s)
}

// DailyRecord is one day's business metrics as entered by the user.
type DailyRecord struct {
	Date      time.Time
	Sales     decimal.Decimal
	Customers int
	Weather   Weather
	Addons    decimal.Decimal
}

// Key returns the calendar date used to identify the record.
func (r DailyRecord) Key() string {
	return r.Date.Format(DateLayout)
}

// Validate reports the first field that cannot be stored.
func (r DailyRecord) Validate() error {
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	if r.Sales.IsNegative() {
		return fmt.Errorf("sales must be >= 0, got %s", r.Sales)
	}
	if r.Customers < 0 {
		return fmt.Errorf("customers must be >= 0, got %d", r.Customers)
	}
	if r.Addons.IsNegative() {
		return fmt.Errorf("add-on sales must be >= 0, got %s", r.Addons)
	}
	if _, err := ParseWeather(string(r.Weather)); err != nil {
		return err
	}
	return nil
}

// Day truncates t to a UTC calendar day, keeping its local calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
