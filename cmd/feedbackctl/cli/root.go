// Package cli implements the feedbackctl commands.
package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/logger"
)

// Settings are the global options shared by every subcommand.
type Settings struct {
	APIURL   string
	Timeout  time.Duration
	LogLevel string
}

// RootCommand builds the command tree. Flags override FEEDBACKCTL_* variables;
// the API origin is also read from FEEDBACK_API_URL.
func RootCommand(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "feedbackctl",
		Short:        "Submit reviews and watch the Fynd feedback dashboard",
		SilenceUsage: true,
	}

	setupFlags(rootCmd, v)

	rootCmd.AddCommand(
		submitCommand(v),
		dashboardCommand(v),
		seedCommand(v),
	)

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, v *viper.Viper) {
	rootCmd.PersistentFlags().String("api-url", "http://localhost:5000", "Feedback API origin")
	rootCmd.PersistentFlags().Duration("timeout", 15*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	_ = v.BindPFlags(rootCmd.PersistentFlags())
	v.SetEnvPrefix("FEEDBACKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api-url", "FEEDBACKCTL_API_URL", "FEEDBACK_API_URL")
}

// settingsFrom reads the effective global options.
func settingsFrom(v *viper.Viper) (Settings, error) {
	s := Settings{
		APIURL:   strings.TrimSpace(v.GetString("api-url")),
		Timeout:  v.GetDuration("timeout"),
		LogLevel: v.GetString("log-level"),
	}
	if s.APIURL == "" {
		return s, fmt.Errorf("--api-url or FEEDBACK_API_URL is required")
	}
	if s.Timeout <= 0 {
		return s, fmt.Errorf("--timeout must be positive, got %s", s.Timeout)
	}
	return s, nil
}

// newClient builds the API client and a stderr logger for cmd.
func newClient(cmd *cobra.Command, v *viper.Viper) (*feedbackapi.Client, *slog.Logger, error) {
	s, err := settingsFrom(v)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewText("feedbackctl", s.LogLevel, cmd.ErrOrStderr())

	cfg := feedbackapi.DefaultConfig(s.APIURL)
	cfg.HTTP.Timeout = s.Timeout
	return feedbackapi.New(cfg, log), log, nil
}
