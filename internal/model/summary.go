package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the top-level aggregate across all stored records.
type Summary struct {
	Records        int
	FirstDate      time.Time
	LastDate       time.Time
	TotalSales     decimal.Decimal
	MeanSales      decimal.Decimal
	TotalCustomers int
	TotalAddons    decimal.Decimal
	WeatherDays    map[Weather]int
}
