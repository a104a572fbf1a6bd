package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RecordInput is a daily record as typed into a form, before parsing.
type RecordInput struct {
	Date      string
	Sales     string
	Customers string
	Weather   string
	Addons    string
}

// InputOf renders r back into form fields.
func InputOf(r DailyRecord) RecordInput {
	return RecordInput{
		Date:      r.Key(),
		Sales:     r.Sales.String(),
		Customers: strconv.Itoa(r.Customers),
		Weather:   string(r.Weather),
		Addons:    r.Addons.String(),
	}
}

// Parse converts the typed fields into a record. Blank numeric fields count
// as zero and a blank weather as Sunny. The result is not validated.
func (in RecordInput) Parse() (DailyRecord, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return DailyRecord{}, err
	}
	sales, err := ParseAmount("sales", in.Sales)
	if err != nil {
		return DailyRecord{}, err
	}
	addons, err := ParseAmount("add-ons", in.Addons)
	if err != nil {
		return DailyRecord{}, err
	}
	customers, err := ParseCount("customers", in.Customers)
	if err != nil {
		return DailyRecord{}, err
	}
	weather := Sunny
	if strings.TrimSpace(in.Weather) != "" {
		if weather, err = ParseWeather(in.Weather); err != nil {
			return DailyRecord{}, err
		}
	}
	return DailyRecord{
		Date:      date,
		Sales:     sales,
		Customers: customers,
		Weather:   weather,
		Addons:    addons,
	}, nil
}

// ParseAmount reads a decimal money field. Blank is zero.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number, got %q", field, s)
	}
	return d, nil
}

// ParseCount reads a whole-number field. Blank is zero.
func ParseCount(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", field, s)
	}
	return n, nil
}
