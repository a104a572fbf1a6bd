package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecordInputParse(t *testing.T) {
	tests := []struct {
		name    string
		in      RecordInput
		want    DailyRecord
		wantErr bool
	}{
		{
			name: "full",
			in:   RecordInput{Date: "2024-01-05", Sales: "1250.50", Customers: "42", Weather: "rainy", Addons: "75"},
			want: DailyRecord{Sales: decimal.RequireFromString("1250.50"), Customers: 42, Weather: Rainy, Addons: decimal.NewFromInt(75)},
		},
		{
			name: "blank fields default",
			in:   RecordInput{Date: "2024-01-05"},
			want: DailyRecord{Sales: decimal.Zero, Weather: Sunny, Addons: decimal.Zero},
		},
		{
			name: "negative passes through",
			in:   RecordInput{Date: "2024-01-05", Sales: "-5"},
			want: DailyRecord{Sales: decimal.NewFromInt(-5), Weather: Sunny, Addons: decimal.Zero},
		},
		{name: "bad date", in: RecordInput{Date: "01/05/2024"}, wantErr: true},
		{name: "bad sales", in: RecordInput{Date: "2024-01-05", Sales: "lots"}, wantErr: true},
		{name: "fractional customers", in: RecordInput{Date: "2024-01-05", Customers: "4.5"}, wantErr: true},
		{name: "unknown weather", in: RecordInput{Date: "2024-01-05", Weather: "Foggy"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Key() != "2024-01-05" {
				t.Errorf("date = %s, want 2024-01-05", got.Key())
			}
			if !got.Sales.Equal(tt.want.Sales) {
				t.Errorf("sales = %s, want %s", got.Sales, tt.want.Sales)
			}
			if got.Customers != tt.want.Customers {
				t.Errorf("customers = %d, want %d", got.Customers, tt.want.Customers)
			}
			if got.Weather != tt.want.Weather {
				t.Errorf("weather = %q, want %q", got.Weather, tt.want.Weather)
			}
			if !got.Addons.Equal(tt.want.Addons) {
				t.Errorf("addons = %s, want %s", got.Addons, tt.want.Addons)
			}
		})
	}
}

func TestInputOfRoundTrip(t *testing.T) {
	in := RecordInput{Date: "2024-02-29", Sales: "99.95", Customers: "7", Weather: "Stormy", Addons: "0"}
	rec, err := in.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := InputOf(rec); got != in {
		t.Errorf("InputOf = %+v, want %+v", got, in)
	}
}
