package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Look up your profile by email and store it locally",
	Long:  "Resolve the user profile for the given email address and store the user and team identity in the local configuration file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := client.ProfileByEmail(ctx, args[0])
		if !res.OK() {
			return fmt.Errorf("look up profile: %w", res.Error)
		}
		if res.Data == nil {
			return fmt.Errorf("no profile found for %s", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Profile.UserID = res.Data.ID
		cfg.Profile.Name = res.Data.FullName
		if res.Data.TeamID != "" {
			cfg.Profile.TeamID = res.Data.TeamID
		}
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		name := res.Data.FullName
		if name == "" {
			name = res.Data.Email
		}
		fmt.Printf("Logged in as %s (%s)\n", name, res.Data.ID)
		return nil
	},
}
