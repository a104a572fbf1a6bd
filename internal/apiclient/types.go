package apiclient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the wire form of a daily record.
type Record struct {
	Date      string          `json:"date"`
	Sales     decimal.Decimal `json:"sales"`
	Customers int             `json:"customers"`
	Weather   string          `json:"weather"`
	Addons    decimal.Decimal `json:"addons"`
}

// ForecastRow is one predicted day.
type ForecastRow struct {
	Date              string  `json:"ds"`
	SalesForecast     float64 `json:"sales_forecast"`
	CustomersForecast float64 `json:"customers_forecast"`
}

// Forecast is the response of GET /v1/forecast.
type Forecast struct {
	Horizon int           `json:"horizon"`
	Empty   bool          `json:"empty"`
	Rows    []ForecastRow `json:"rows"`
}

// Status is the response of GET /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Backend         string    `json:"backend,omitempty"`
	Horizon         int       `json:"horizon"`
	SaveCount       int64     `json:"save_count"`
	LastSaveAt      time.Time `json:"last_save_at"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}
