package forecast

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salescast/internal/model"
)

// ExportHeader is the CSV header of a forecast export.
var ExportHeader = []string{"ds", "sales_forecast", "customers_forecast"}

// ExportFilename is the suggested download name for the CSV export.
const ExportFilename = "forecast.csv"

const dataURIPrefix = "data:file/csv;base64,"

// WriteCSV writes rows with ExportHeader and no index column.
func WriteCSV(w io.Writer, rows []model.ForecastRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date.Format(model.DateLayout),
			strconv.FormatFloat(r.SalesForecast, 'f', -1, 64),
			strconv.FormatFloat(r.CustomersForecast, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the CSV export of rows.
func CSV(rows []model.ForecastRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI embeds csv as a base64 data URI.
func DataURI(csv []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(csv)
}

// DecodeDataURI reverses DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, fmt.Errorf("not a csv data uri")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
}

// DownloadLink returns an HTML anchor that downloads rows as forecast.csv.
func DownloadLink(rows []model.ForecastRow) (string, error) {
	data, err := CSV(rows)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<a href="%s" download="%s">Download Forecast CSV</a>`,
		html.EscapeString(DataURI(data)), ExportFilename), nil
}

const xlsxSheet = "Forecast"

// WriteXLSX writes rows as a single-sheet spreadsheet with a bold header.
func WriteXLSX(w io.Writer, rows []model.ForecastRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	for i, h := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "C1", bold); err != nil {
		return err
	}

	for i, r := range rows {
		row := i + 2
		values := []any{r.Date.Format(model.DateLayout), r.SalesForecast, r.CustomersForecast}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(xlsxSheet, "A", "C", 20); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
