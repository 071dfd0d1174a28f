package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	app "github.com/mattsre/peakform/internal/app"
	"github.com/mattsre/peakform/internal/config"
	"github.com/mattsre/peakform/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Calibrate, plan, and predict for one athlete",
	Long: "Reads a forecast request (athlete history, performance markers, and race " +
		"parameters) as JSON, fits the athlete's model, builds a weekly load plan " +
		"toward the race, and prints the calibrated parameters, trajectory, and " +
		"race prediction as JSON.",
	RunE: runForecast,
}

var (
	forecastInput    string
	forecastRaceDate string
	forecastWeeks    int
	forecastDistance float64
	forecastCeiling  float64
	forecastCurrent  float64
	forecastTrend    bool
	forecastPretty   bool
)

func init() {
	forecastCmd.Flags().StringVarP(&forecastInput, "input", "i", "-", "forecast request JSON file, or - for stdin")
	forecastCmd.Flags().StringVar(&forecastRaceDate, "race-date", "", "race date (YYYY-MM-DD), overrides the request")
	forecastCmd.Flags().IntVar(&forecastWeeks, "weeks", 0, "weeks available before the race, overrides the request")
	forecastCmd.Flags().Float64Var(&forecastDistance, "distance", 0, "race distance in meters, overrides the request")
	forecastCmd.Flags().Float64Var(&forecastCeiling, "ceiling", 0, "weekly load ceiling, overrides the request")
	forecastCmd.Flags().Float64Var(&forecastCurrent, "current-load", 0, "current weekly load, overrides the request")
	forecastCmd.Flags().BoolVar(&forecastTrend, "trend", false, "also emit the daily fitness/fatigue/form series")
	forecastCmd.Flags().BoolVar(&forecastPretty, "pretty", true, "indent JSON output")

	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	req, err := readRequest(forecastInput)
	if err != nil {
		return err
	}
	if err := applyOverrides(&req); err != nil {
		return err
	}

	engine := app.New(append(app.OptionsFromConfig(cfg), app.WithLogger(log))...)
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		engine.Stop(stopCtx)
	}()

	forecast, err := engine.Forecast(ctx, req)
	if err != nil {
		return err
	}

	out := struct {
		app.Forecast
		Trend []app.TrendPoint `json:"trend,omitempty"`
	}{Forecast: forecast}
	if forecastTrend {
		out.Trend = engine.FitnessTrend(forecast.Params, req.History)
	}

	enc := json.NewEncoder(os.Stdout)
	if forecastPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

// readRequest decodes a ForecastRequest from a file or stdin.
func readRequest(path string) (app.ForecastRequest, error) {
	var req app.ForecastRequest

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// applyOverrides lets flags replace fields of the decoded request.
func applyOverrides(req *app.ForecastRequest) error {
	if forecastRaceDate != "" {
		d, err := time.Parse("2006-01-02", forecastRaceDate)
		if err != nil {
			return err
		}
		req.RaceDate = d
	}
	if forecastWeeks > 0 {
		req.WeeksAvailable = forecastWeeks
	}
	if forecastDistance > 0 {
		req.DistanceMeters = forecastDistance
	}
	if forecastCeiling > 0 {
		req.LoadCeiling = forecastCeiling
	}
	if forecastCurrent > 0 {
		req.CurrentWeeklyLoad = forecastCurrent
	}
	return nil
}
