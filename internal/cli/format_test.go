package cli

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₱0.00"},
		{"5", "₱5.00"},
		{"1234.5", "₱1,234.50"},
		{"1000000.125", "₱1,000,000.13"},
		{"-20", "-₱20.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatMoneyFloat(math.NaN()); got != "n/a" {
		t.Errorf("FormatMoneyFloat(NaN) = %q, want n/a", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		prec int
		want string
	}{
		{1234.567, 1, "1,234.6"},
		{42, 0, "42"},
		{-1500.25, 2, "-1,500.25"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in, tt.prec); got != tt.want {
			t.Errorf("FormatFloat(%v, %d) = %q, want %q", tt.in, tt.prec, got, tt.want)
		}
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(110, 100); got != "+10.0%" {
		t.Errorf("FormatChange(110, 100) = %q", got)
	}
	if got := FormatChange(90, 100); got != "-10.0%" {
		t.Errorf("FormatChange(90, 100) = %q", got)
	}
	if got := FormatChange(5, 0); got != "-" {
		t.Errorf("FormatChange(5, 0) = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)); got != "2024-01-11" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q", got)
	}
}
