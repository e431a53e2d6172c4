package main

import (
	"context"
	"fmt"
	"time"

	careerhub "github.com/AlexeyMish7/Scrum-and-Get-it-sub001"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current configuration and backend health",
	Long:  "Display the current configuration and check that the backend is reachable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Print config summary.
		fmt.Println("Configuration:")
		fmt.Printf("  Environment: %s\n", valueOrDefault(cfg.Default.Environment, "(not set)"))
		if cfg.Default.BaseURL != "" {
			fmt.Printf("  Base URL:    %s\n", cfg.Default.BaseURL)
		}
		if cfg.Default.Token != "" {
			fmt.Printf("  Token:       %s\n", maskKey(cfg.Default.Token))
		} else {
			fmt.Println("  Token:       (not set)")
		}

		fmt.Println()
		fmt.Println("Profile:")
		if cfg.Profile.UserID != "" {
			fmt.Printf("  User ID: %s\n", cfg.Profile.UserID)
			fmt.Printf("  Team ID: %s\n", valueOrDefault(cfg.Profile.TeamID, "(not set)"))
			if cfg.Profile.Name != "" {
				fmt.Printf("  Name:    %s\n", cfg.Profile.Name)
			}
		} else {
			fmt.Println("  User ID: (not set)")
		}

		if cfg.Default.Token == "" {
			return nil
		}

		fmt.Println()
		fmt.Println("Backend:")

		var opts []careerhub.ClientOption
		if cfg.Default.BaseURL != "" {
			opts = append(opts, careerhub.WithBaseURL(cfg.Default.BaseURL))
		} else if cfg.Default.Environment != "" && cfg.Default.Environment != "production" {
			opts = append(opts, careerhub.WithEnvironment(careerhub.Environment(cfg.Default.Environment)))
		}
		client := careerhub.NewClient(cfg.Default.Token, opts...)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := client.Health(ctx)
		if !res.OK() {
			fmt.Printf("  Health: unreachable (%v)\n", res.Error)
			return nil
		}
		fmt.Println("  Health: ok")
		return nil
	},
}

// maskKey shows the first 12 and last 4 characters of a key. Keys too short
// to mask meaningfully are hidden entirely.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "..."
	}
	if len(key) <= 16 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return key[:12] + "..." + key[len(key)-4:]
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
