package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/apiclient"
	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui"
)

var (
	addInput  model.RecordInput
	addServer string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Save one day's sales",
	Long: "Save one day's sales, customers, weather and add-on sales. A day that\n" +
		"is already stored is replaced. Without metric flags an entry form opens.",
	Example: "  salescast add --date 2024-01-11 --sales 1100 --customers 30 --weather Rainy",
	RunE:    runAdd,
}

func init() {
	today := time.Now().Format(model.DateLayout)
	addCmd.Flags().StringVar(&addInput.Date, "date", today, "Date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addInput.Sales, "sales", "0", "Sales in dollars")
	addCmd.Flags().StringVar(&addInput.Customers, "customers", "0", "Number of customers")
	addCmd.Flags().StringVar(&addInput.Weather, "weather", string(model.Sunny), "Sunny, Rainy, Cloudy or Stormy")
	addCmd.Flags().StringVar(&addInput.Addons, "addons", "0", "Add-on sales in dollars")
	addCmd.Flags().StringVar(&addServer, "server", "", "Submit to a running salescast server instead of the local store")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	in := addInput
	flags := cmd.Flags()
	if !flags.Changed("sales") && !flags.Changed("customers") && !flags.Changed("addons") {
		if err := tui.NewEntryForm(&in).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return errors.New("entry cancelled")
			}
			return err
		}
	}

	rec, err := in.Parse()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if server := strings.TrimSpace(addServer); server != "" {
		return submitRemote(ctx, server, rec)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := signIn(cfg)
	if err != nil {
		return err
	}
	dash, st, err := openDashboard(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := dash.Submit(ctx, sess, rec); err != nil {
		return err
	}
	fmt.Println(cli.RenderNotice("Data saved!"))
	progressf("%s  %s  %d customers  %s", cli.FormatDate(rec.Date), cli.FormatMoney(rec.Sales), rec.Customers, rec.Weather)
	return nil
}

func submitRemote(ctx context.Context, addr string, rec model.DailyRecord) error {
	client := apiclient.NewClient(addr)
	if client == nil {
		return fmt.Errorf("server address %q is empty", addr)
	}

	user := firstNonEmpty(flagUser, os.Getenv("SALESCAST_USER"))
	password := firstNonEmpty(flagPassword, os.Getenv("SALESCAST_PASSWORD"))
	if user == "" || password == "" {
		if err := promptLogin(&user, &password); err != nil {
			return err
		}
	}

	if err := client.Login(ctx, user, password); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, cli.RenderWarning("Invalid credentials"))
		}
		return err
	}
	saved, err := client.Submit(ctx, apiclient.Record{
		Date:      rec.Key(),
		Sales:     rec.Sales,
		Customers: rec.Customers,
		Weather:   string(rec.Weather),
		Addons:    rec.Addons,
	})
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderNotice("Data saved!"))
	progressf("%s  sent to %s as %s", saved.Date, addr, client.User())
	return nil
}
