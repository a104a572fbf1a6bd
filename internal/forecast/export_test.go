package forecast

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salescast/internal/model"
)

func sampleRows() []model.ForecastRow {
	return []model.ForecastRow{
		{Date: jan1.AddDate(0, 0, 10), SalesForecast: 1100.5, CustomersForecast: 30},
		{Date: jan1.AddDate(0, 0, 11), SalesForecast: 1110.25, CustomersForecast: 31.125},
	}
}

func TestWriteCSV(t *testing.T) {
	data, err := CSV(sampleRows())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	want := "ds,sales_forecast,customers_forecast\n" +
		"2024-01-11,1100.5,30\n" +
		"2024-01-12,1110.25,31.125\n"
	if string(data) != want {
		t.Errorf("CSV =\n%s\nwant\n%s", data, want)
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	data, err := CSV(sampleRows())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	uri := DataURI(data)
	if !strings.HasPrefix(uri, "data:file/csv;base64,") {
		t.Fatalf("DataURI prefix wrong: %q", uri)
	}
	decoded, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded = %q, want %q", decoded, data)
	}
	if _, err := DecodeDataURI("data:text/plain,hi"); err == nil {
		t.Error("DecodeDataURI accepted a non-csv uri")
	}
}

func TestDownloadLink(t *testing.T) {
	link, err := DownloadLink(sampleRows())
	if err != nil {
		t.Fatalf("DownloadLink: %v", err)
	}
	if !strings.HasPrefix(link, `<a href="data:file/csv;base64,`) {
		t.Errorf("link missing data uri: %s", link)
	}
	if !strings.Contains(link, `download="forecast.csv"`) {
		t.Errorf("link missing download name: %s", link)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Forecast")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("sheet rows = %d, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "ds,sales_forecast,customers_forecast" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "2024-01-11" {
		t.Errorf("first ds = %q, want 2024-01-11", rows[1][0])
	}
}
