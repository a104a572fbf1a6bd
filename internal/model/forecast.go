package model

import "time"

// Point is a single dated value, either observed or predicted.
type Point struct {
	Date  time.Time
	Value float64
}

// ForecastRow is one merged row of the sales and customers forecasts.
type ForecastRow struct {
	Date              time.Time
	SalesForecast     float64
	CustomersForecast float64
}
