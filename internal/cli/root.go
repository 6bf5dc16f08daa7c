// Package cli implements the agro-weather command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/agro-weather/internal/app"
	"github.com/i474232898/agro-weather/internal/config"
	"github.com/i474232898/agro-weather/internal/render"
)

// globalFlags holds the parsed values of all persistent flags.
var globalFlags struct {
	Format string
}

var rootCmd = &cobra.Command{
	Use:   "agro-weather",
	Short: "Agricultural weather reports: daily forecast, growing degree days, alerts",
	Long: `agro-weather turns OpenWeatherMap observations and 3-hourly forecasts into
agronomic reports: per-day aggregates, growing degree days, frost/drought/rain
alerts and planting, irrigation and harvest insights.

Configuration is read from the environment (and a .env file):
  OPENWEATHER_API_KEY   provider credential (required for reports)

Quick start:
  agro-weather serve
  agro-weather forecast --lat 52.52 --lon 13.40 --days 5
  agro-weather gdd --lat 52.52 --lon 13.40 --days 5 --base-temp 8`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Format, "format", render.FormatTable, "output format: table or json")
}

// buildDeps resolves config and constructs the dependency container.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.New(cfg)
}
