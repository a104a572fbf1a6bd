package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
)

var (
	flagExport string
	flagLink   bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast sales and customers for the coming days",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVarP(&flagExport, "export", "o", "", "Write the forecast to a .csv or .xlsx file")
	forecastCmd.Flags().BoolVar(&flagLink, "link", false, "Print the forecast.csv download link as an HTML anchor")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := signIn(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	dash, st, err := openDashboard(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	v, err := dash.View(ctx, sess)
	if err != nil {
		var fitErr *forecast.FitError
		if errors.As(err, &fitErr) {
			return fmt.Errorf("forecast failed: %w", err)
		}
		return err
	}
	if v.Empty {
		fmt.Println("\n  No data available yet.")
		return nil
	}

	if flagLink {
		link, err := forecast.DownloadLink(v.Forecast)
		if err != nil {
			return err
		}
		fmt.Println(link)
		return nil
	}

	if flagExport != "" {
		if err := exportForecast(flagExport, v.Forecast); err != nil {
			return err
		}
		progressf("Wrote %d rows to %s", len(v.Forecast), flagExport)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  Next %d days", len(v.Forecast))))
	fmt.Println()
	fmt.Print(cli.RenderTable(forecastTable(v.Forecast)))
	fmt.Println()
	return nil
}

func forecastTable(rows []model.ForecastRow) cli.Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			cli.FormatDate(r.Date),
			cli.FormatDayOfWeek(int(r.Date.Weekday())),
			cli.FormatMoneyFloat(r.SalesForecast),
			cli.FormatFloat(r.CustomersForecast, 1),
		}
	}
	return cli.Table{
		Headers: []string{"Date", "Day", "Sales", "Customers"},
		Rows:    out,
	}
}

// exportForecast picks the format from the file extension.
func exportForecast(path string, rows []model.ForecastRow) error {
	f, err := os.Create(path) //nolint:gosec // export path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = forecast.WriteXLSX(f, rows)
	default:
		err = forecast.WriteCSV(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
