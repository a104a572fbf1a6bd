package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Merge records from a CSV file into the store",
	Long: "Merge records from a CSV file with date,sales,customers,weather,addons\n" +
		"columns. Rows replace stored days with the same date.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := signIn(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening import: %w", err)
	}
	records, err := store.ReadRecords(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if len(records) == 0 {
		progressf("No records in %s", args[0])
		return nil
	}

	ctx := context.Background()
	dash, st, err := openDashboard(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for i, rec := range records {
		if err := dash.Submit(ctx, sess, rec); err != nil {
			if !flagQuiet {
				fmt.Fprintln(os.Stderr)
			}
			return fmt.Errorf("record %d (%s): %w", i+1, rec.Key(), err)
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "\r  Importing %s", cli.RenderProgressBar(i+1, len(records), 30))
		}
	}
	if !flagQuiet {
		fmt.Fprintln(os.Stderr)
	}
	fmt.Println(cli.RenderNotice(fmt.Sprintf("Imported %s records", cli.FormatNumber(int64(len(records))))))
	return nil
}
