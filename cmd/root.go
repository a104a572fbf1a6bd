package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/store"
)

var (
	flagConfig      string
	flagBackend     string
	flagDataFile    string
	flagDatabaseURL string
	flagHorizon     int
	flagQuiet       bool
	flagUser        string
	flagPassword    string
)

var rootCmd = &cobra.Command{
	Use:          "salescast",
	Short:        "Daily sales entry and forecasting",
	Long:         "Record daily sales, customers, weather and add-on sales, then forecast the days ahead.",
	SilenceUsage: true,
	RunE:         runRecords,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Record store: csv, sqlite or postgres")
	rootCmd.PersistentFlags().StringVarP(&flagDataFile, "data-file", "f", "", "CSV data file for the csv backend")
	rootCmd.PersistentFlags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection URL")
	rootCmd.PersistentFlags().IntVarP(&flagHorizon, "horizon", "n", 0, "Days to forecast (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Username (or SALESCAST_USER)")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "Password (or SALESCAST_PASSWORD)")
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// loadConfig reads the config file, then .env and SALESCAST_* variables,
// then command flags, each overriding the last.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		warnf("Ignoring .env: %v", err)
	}
	cfg, err := config.LoadFrom(configPath())
	if err != nil {
		return cfg, err
	}

	if flagBackend != "" {
		cfg.General.Backend = flagBackend
	}
	if flagDataFile != "" {
		cfg.General.DataFile = flagDataFile
	}
	if flagDatabaseURL != "" {
		cfg.General.DatabaseURL = flagDatabaseURL
	}
	if flagHorizon < 0 {
		return cfg, fmt.Errorf("--horizon must be positive, got %d", flagHorizon)
	}
	if flagHorizon > 0 {
		cfg.General.Horizon = flagHorizon
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.RecordStore, error) {
	st, err := store.Open(ctx, store.Options{
		Backend:     cfg.General.Backend,
		DataFile:    cfg.General.DataFile,
		SQLitePath:  cfg.ResolvedSQLitePath(),
		DatabaseURL: cfg.General.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.General.Backend, err)
	}
	return st, nil
}

// openDashboard opens the configured store. Callers must close the store.
func openDashboard(ctx context.Context, cfg config.Config) (*pipeline.Dashboard, store.RecordStore, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	dash := pipeline.New(st, cfg.General.Horizon)
	if !flagQuiet {
		dash.Progress = func(current, total int) {
			fmt.Fprintf(os.Stderr, "\r  Fitting [%d/%d]", current, total)
			if current == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}
	return dash, st, nil
}

// signIn authenticates from flags or the environment, prompting with a
// login form for whatever is missing.
func signIn(cfg config.Config) (*auth.Session, error) {
	v, err := auth.NewVerifier(cfg.Auth.Users)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	user := firstNonEmpty(flagUser, os.Getenv("SALESCAST_USER"))
	password := firstNonEmpty(flagPassword, os.Getenv("SALESCAST_PASSWORD"))
	if user == "" || password == "" {
		if err := promptLogin(&user, &password); err != nil {
			return nil, err
		}
	}

	sess := auth.NewSession()
	if err := sess.Login(v, user, password); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("Invalid credentials"))
		return nil, err
	}
	return sess, nil
}

func promptLogin(user, password *string) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(user),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("login cancelled")
	}
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}
