package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/salescast/internal/auth"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Print a password hash for the [auth.users] config table",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(_ *cobra.Command, args []string) error {
	password := flagPassword
	if password == "" {
		var confirm string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&password).
					Validate(func(s string) error {
						if len(s) < 8 {
							return errors.New("use at least 8 characters")
						}
						return nil
					}),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
					Validate(func(s string) error {
						if s != password {
							return errors.New("passwords do not match")
						}
						return nil
					}),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	progressf("Add this line under [auth.users] in %s:", configPath())
	fmt.Printf("%q = %q\n", args[0], hash)
	return nil
}
