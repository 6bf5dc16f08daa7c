package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/agro-weather/internal/api/http"
	"github.com/i474232898/agro-weather/internal/render"
	"github.com/i474232898/agro-weather/internal/weather"
)

var reportFlags struct {
	Lat      float64
	Lon      float64
	Days     int
	BaseTemp float64
}

var currentCmd = &cobra.Command{
	Use:     "current",
	Short:   "Current conditions with alerts and agricultural insights",
	Example: `  agro-weather current --lat 52.52 --lon 13.40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := flagCoordinates()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *weather.Service) (any, error) {
			return svc.Current(ctx, at)
		})
	},
}

var forecastCmd = &cobra.Command{
	Use:     "forecast",
	Short:   "Daily forecast (1-7 days) with GDD and alerts",
	Example: `  agro-weather forecast --lat 52.52 --lon 13.40 --days 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := flagCoordinates()
		if err != nil {
			return err
		}
		if reportFlags.Days < 1 || reportFlags.Days > 7 {
			return fmt.Errorf("--days must be between 1 and 7")
		}
		return withService(cmd, func(ctx context.Context, svc *weather.Service) (any, error) {
			return svc.Forecast(ctx, at, reportFlags.Days)
		})
	},
}

var gddCmd = &cobra.Command{
	Use:     "gdd",
	Short:   "Growing degree days over 1-30 days",
	Example: `  agro-weather gdd --lat 52.52 --lon 13.40 --days 5 --base-temp 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := flagCoordinates()
		if err != nil {
			return err
		}
		if reportFlags.Days < 1 || reportFlags.Days > 30 {
			return fmt.Errorf("--days must be between 1 and 30")
		}
		return withService(cmd, func(ctx context.Context, svc *weather.Service) (any, error) {
			base := svc.BaseTemp()
			if cmd.Flags().Changed("base-temp") {
				base = reportFlags.BaseTemp
			}
			return svc.GDD(ctx, at, reportFlags.Days, base)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Search for a location by name",
	Args:    cobra.MinimumNArgs(1),
	Example: `  agro-weather search "Des Moines"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withService(cmd, func(ctx context.Context, svc *weather.Service) (any, error) {
			return svc.SearchLocation(ctx, query)
		})
	},
}

var schemaCmd = &cobra.Command{
	Use:       "schema <current|forecast|gdd>",
	Short:     "Print the JSON Schema of a report",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"current", "forecast", "gdd"},
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, ok := httpapi.ReportSchema(args[0])
		if !ok {
			return fmt.Errorf("unknown report %q", args[0])
		}
		return render.Render(cmd.OutOrStdout(), schema, render.FormatJSON)
	},
}

func init() {
	for _, c := range []*cobra.Command{currentCmd, forecastCmd, gddCmd} {
		c.Flags().Float64Var(&reportFlags.Lat, "lat", 0, "latitude")
		c.Flags().Float64Var(&reportFlags.Lon, "lon", 0, "longitude")
		_ = c.MarkFlagRequired("lat")
		_ = c.MarkFlagRequired("lon")
	}
	forecastCmd.Flags().IntVar(&reportFlags.Days, "days", 7, "number of days (1-7)")
	gddCmd.Flags().IntVar(&reportFlags.Days, "days", 7, "number of days (1-30)")
	gddCmd.Flags().Float64Var(&reportFlags.BaseTemp, "base-temp", weather.DefaultBaseTemp, "base temperature in °C")

	rootCmd.AddCommand(currentCmd, forecastCmd, gddCmd, searchCmd, schemaCmd)
}

func flagCoordinates() (weather.Coordinates, error) {
	if reportFlags.Lat < -90 || reportFlags.Lat > 90 {
		return weather.Coordinates{}, fmt.Errorf("--lat must be between -90 and 90")
	}
	if reportFlags.Lon < -180 || reportFlags.Lon > 180 {
		return weather.Coordinates{}, fmt.Errorf("--lon must be between -180 and 180")
	}
	return weather.Coordinates{Lat: reportFlags.Lat, Lon: reportFlags.Lon}, nil
}

// withService builds deps, runs fn and renders its result.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *weather.Service) (any, error)) error {
	deps, err := buildDeps()
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), deps.Config.HTTPTimeout*3)
	defer cancel()

	result, err := fn(ctx, deps.Service)
	if err != nil {
		return err
	}
	return render.Render(cmd.OutOrStdout(), result, globalFlags.Format)
}
