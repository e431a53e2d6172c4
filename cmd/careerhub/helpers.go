package main

import (
	"fmt"
	"os"

	careerhub "github.com/AlexeyMish7/Scrum-and-Get-it-sub001"
	"go.uber.org/zap"
)

// getClient creates a CareerHub client from the stored configuration.
func getClient() *careerhub.Client {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Default.Token == "" {
		fmt.Fprintln(os.Stderr, "No token. Run 'careerhub init <token>' first.")
		os.Exit(1)
	}

	var opts []careerhub.ClientOption
	if cfg.Default.BaseURL != "" {
		opts = append(opts, careerhub.WithBaseURL(cfg.Default.BaseURL))
	} else if cfg.Default.Environment != "" && cfg.Default.Environment != "production" {
		opts = append(opts, careerhub.WithEnvironment(careerhub.Environment(cfg.Default.Environment)))
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			opts = append(opts, careerhub.WithLogger(logger))
		}
	}

	return careerhub.NewClient(cfg.Default.Token, opts...)
}

// getProfile loads the acting user identity, exiting when it is not set.
func getProfile() (userID, teamID string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Profile.UserID == "" {
		fmt.Fprintln(os.Stderr, "No user profile. Run 'careerhub config set profile.user_id <id>' first.")
		os.Exit(1)
	}
	return cfg.Profile.UserID, cfg.Profile.TeamID
}

// requireTeam exits when no team is configured.
func requireTeam(teamID string) string {
	if teamID == "" {
		fmt.Fprintln(os.Stderr, "No team. Run 'careerhub config set profile.team_id <id>' first.")
		os.Exit(1)
	}
	return teamID
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
