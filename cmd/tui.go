package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/tui"
	"github.com/theirongolddev/salescast/internal/tui/theme"
)

var flagExportDir string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagExportDir, "export-dir", ".", "Directory for forecast exports")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling survives terminals that
	// under-report their capabilities.
	lipgloss.SetColorProfile(termenv.TrueColor)

	dash, st, err := openDashboard(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	dash.Progress = nil

	verifier, err := auth.NewVerifier(cfg.Auth.Users)
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}

	// Credentials from flags or the environment skip the login screen.
	var sess *auth.Session
	user := firstNonEmpty(flagUser, os.Getenv("SALESCAST_USER"))
	password := firstNonEmpty(flagPassword, os.Getenv("SALESCAST_PASSWORD"))
	if user != "" && password != "" {
		sess = auth.NewSession()
		if err := sess.Login(verifier, user, password); err != nil {
			return err
		}
	}

	app := tui.NewApp(tui.Options{
		Dashboard:  dash,
		Verifier:   verifier,
		Session:    sess,
		Config:     cfg,
		ConfigPath: configPath(),
		NeedSetup:  !config.ExistsAt(configPath()),
		ExportDir:  flagExportDir,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
