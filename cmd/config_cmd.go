// Package cmd implements the salescast CLI commands.
package cmd

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", configPath())
	if config.ExistsAt(configPath()) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Backend:  %s\n", cfg.General.Backend)
	switch cfg.General.Backend {
	case store.BackendSQLite:
		fmt.Printf("    Database: %s\n", cfg.ResolvedSQLitePath())
	case store.BackendPostgres:
		fmt.Printf("    Database: %s\n", redactURL(cfg.General.DatabaseURL))
	default:
		fmt.Printf("    Data file: %s\n", cfg.General.DataFile)
	}
	fmt.Printf("    Horizon:  %d days\n", cfg.General.Horizon)
	fmt.Println()

	fmt.Println("  [Auth]")
	if len(cfg.Auth.Users) == 0 {
		fmt.Println("    Users:       default admin account")
	} else {
		names := make([]string, 0, len(cfg.Auth.Users))
		for name := range cfg.Auth.Users {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("    Users:       %v\n", names)
	}
	if cfg.Auth.JWTSecret != "" {
		fmt.Printf("    JWT secret:  %s\n", maskSecret(cfg.Auth.JWTSecret))
	} else {
		fmt.Println("    JWT secret:  not configured (random per server start)")
	}
	if cfg.Auth.SessionKey != "" {
		fmt.Printf("    Session key: %s\n", maskSecret(cfg.Auth.SessionKey))
	} else {
		fmt.Println("    Session key: not configured (random per server start)")
	}
	fmt.Printf("    Token TTL:   %dh\n", cfg.Auth.TokenTTLHours)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:        %s\n", cfg.Server.Addr)
	fmt.Printf("    Secure cookies: %v\n", cfg.Server.SecureCookies)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `salescast setup` to reconfigure.")
	return nil
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return "not configured"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return maskSecret(raw)
	}
	return u.Redacted()
}
