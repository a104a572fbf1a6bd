// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/model"
)

// CurrencySymbol prefixes money amounts.
var CurrencySymbol = "₱"

// FormatMoney formats an amount with two decimals and comma separators.
// e.g., 1234.5 -> "₱1,234.50"
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + CurrencySymbol + s
	}
	return sign + CurrencySymbol + FormatNumber(n) + "." + frac
}

// FormatMoneyFloat formats a predicted money value.
func FormatMoneyFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return FormatMoney(decimal.NewFromFloat(f))
}

// FormatFloat formats f with prec decimals and comma separators.
func FormatFloat(f float64, prec int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	s := strconv.FormatFloat(f, 'f', prec, 64)
	whole, frac, hasFrac := strings.Cut(s, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	out := sign + FormatNumber(n)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatChange formats the relative change from previous to current.
// e.g., (110, 100) -> "+10.0%"
func FormatChange(current, previous float64) string {
	if previous == 0 {
		return "-"
	}
	delta := (current - previous) / math.Abs(previous)
	if delta >= 0 {
		return "+" + FormatPercent(delta)
	}
	return FormatPercent(delta)
}

// FormatDate formats a record date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(model.DateLayout)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
