package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/cartscout/cartscout/config"
	"github.com/cartscout/cartscout/internal/backend"
	"github.com/cartscout/cartscout/internal/httputil"
	"github.com/cartscout/cartscout/internal/logging"
	"github.com/cartscout/cartscout/internal/poll"
	"github.com/cartscout/cartscout/internal/wizard"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cartscout",
	Short: "CartScout - grocery price search CLI & MCP server",
	Long:  "A CLI tool and MCP server that finds the cheapest merchant prices for a shopping list in your ZIP code.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("api-url", "", "Price-search backend base URL")
	rootCmd.PersistentFlags().Duration("poll-timeout", 0, "Give up polling after this duration (0 = poll until the server answers)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("api-url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetDuration("poll-timeout"); v > 0 {
		cfg.PollTimeout = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	log = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}

// buildBackendClient creates the rate-limited backend client from config.
func buildBackendClient() *backend.Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	httpClient := httputil.NewHTTPClient(&httputil.Transport{
		RateLimiter: limiter,
	})
	return backend.New(httpClient, cfg.APIBaseURL, log)
}

// newSession wires a wizard session around the given client.
func newSession(client *backend.Client) *wizard.Session {
	poller := poll.New(client.JobStatus, cfg.PollInterval, cfg.PollTimeout, log)
	return wizard.NewSession(client, poller, cfg.MaxItems, log)
}
