package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
)

var (
	flagRecordsLast  int
	flagRecordsSince string
	flagRecordsUntil string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show the stored daily records",
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().IntVar(&flagRecordsLast, "last", 0, "Only show the most recent N days")
	recordsCmd.Flags().StringVar(&flagRecordsSince, "since", "", "First date to show (YYYY-MM-DD)")
	recordsCmd.Flags().StringVar(&flagRecordsUntil, "until", "", "Last date to show, inclusive (YYYY-MM-DD)")
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(_ *cobra.Command, _ []string) error {
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

	records, err := dash.Records(ctx, sess)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("\n  No data available yet.")
		fmt.Println("  " + cli.RenderMuted("Add a day with `salescast add`."))
		return nil
	}

	sorted, err := recordWindow(records, flagRecordsSince, flagRecordsUntil)
	if err != nil {
		return err
	}
	if len(sorted) == 0 {
		fmt.Println("\n  No records in that date range.")
		return nil
	}
	shown := sorted
	if flagRecordsLast > 0 && flagRecordsLast < len(sorted) {
		shown = sorted[len(sorted)-flagRecordsLast:]
	}
	summary := pipeline.Summarize(sorted)

	fmt.Println()
	fmt.Println(cli.RenderTitle("SALES DATA"))
	fmt.Println()
	fmt.Print(cli.RenderTable(recordsTable(shown)))
	fmt.Println()

	pairs := [][2]string{
		{"Days", fmt.Sprintf("%s  (%s to %s)", cli.FormatNumber(int64(summary.Records)),
			cli.FormatDate(summary.FirstDate), cli.FormatDate(summary.LastDate))},
		{"Total sales", cli.FormatMoney(summary.TotalSales)},
		{"Mean sales", cli.FormatMoney(summary.MeanSales)},
		{"Customers", cli.FormatNumber(int64(summary.TotalCustomers))},
		{"Add-ons", cli.FormatMoney(summary.TotalAddons)},
	}
	if n := len(sorted); n >= 2 {
		last, prev := sorted[n-1], sorted[n-2]
		pairs = append(pairs, [2]string{"Latest day", fmt.Sprintf("%s  (%s vs %s)",
			cli.FormatMoney(last.Sales),
			cli.FormatChange(last.Sales.InexactFloat64(), prev.Sales.InexactFloat64()),
			cli.FormatDate(prev.Date))})
	}
	fmt.Println(cli.RenderKeyValues(pairs))
	fmt.Println()

	days := pipeline.AggregateDays(sorted, shown[0].Date, shown[len(shown)-1].Date)
	sales := make([]float64, len(days))
	for i, d := range days {
		sales[i] = d.Sales.InexactFloat64()
	}
	fmt.Printf("  Sales trend  %s\n\n", cli.RenderSparkline(sales))

	peak := 0
	for _, n := range summary.WeatherDays {
		peak = max(peak, n)
	}
	for _, w := range model.Weathers {
		fmt.Println(cli.RenderHorizontalBar(string(w), float64(summary.WeatherDays[w]), float64(peak), 30))
	}
	fmt.Println()
	return nil
}

// recordWindow sorts records and keeps the days from since through until.
// Either bound may be empty.
func recordWindow(records []model.DailyRecord, since, until string) ([]model.DailyRecord, error) {
	var from, to time.Time
	if since != "" {
		d, err := model.ParseDate(since)
		if err != nil {
			return nil, fmt.Errorf("--since: %w", err)
		}
		from = d
	}
	if until != "" {
		d, err := model.ParseDate(until)
		if err != nil {
			return nil, fmt.Errorf("--until: %w", err)
		}
		to = d.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, fmt.Errorf("--since %s is after --until %s", since, until)
	}
	return pipeline.SortByDate(pipeline.FilterByTime(records, from, to)), nil
}

func recordsTable(records []model.DailyRecord) cli.Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			cli.FormatDate(r.Date),
			cli.FormatDayOfWeek(int(r.Date.Weekday())),
			cli.FormatMoney(r.Sales),
			cli.FormatNumber(int64(r.Customers)),
			string(r.Weather),
			cli.FormatMoney(r.Addons),
		}
	}
	return cli.Table{
		Title:   "Sales Data",
		Headers: []string{"Date", "Day", "Sales", "Customers", "Weather", "Add-ons"},
		Rows:    rows,
	}
}
