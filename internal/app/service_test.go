package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/mattsre/peakform/internal/app"
	"github.com/mattsre/peakform/internal/domain/calibration"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/types"
	"github.com/mattsre/peakform/internal/synth"
	"github.com/mattsre/peakform/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func startedEngine(ctx context.Context, opts ...service.Option) *service.Engine {
	engine := service.New(append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	if err := engine.Start(ctx); err != nil {
		panic(err)
	}
	return engine
}

func TestEngineLifecycle(t *testing.T) {
	convey.Convey("Given a fresh engine", t, func() {
		ctx := context.Background()
		engine := startedEngine(ctx)
		defer engine.Stop(ctx)

		convey.Convey("When it has started", func() {
			stats := engine.EngineStats()

			convey.So(stats.Started, convey.ShouldBeTrue)
			convey.So(stats.Workers, convey.ShouldEqual, 2)
			convey.So(stats.CacheEntries, convey.ShouldEqual, 0)
		})

		convey.Convey("When Start is called twice", func() {
			convey.So(engine.Start(ctx), convey.ShouldBeNil)
			convey.So(engine.EngineStats().Started, convey.ShouldBeTrue)
		})

		convey.Convey("When the engine stops", func() {
			engine.Stop(ctx)
			convey.So(engine.EngineStats().Started, convey.ShouldBeFalse)
		})
	})
}

func TestEngineBeforeStart(t *testing.T) {
	convey.Convey("Given an engine that was never started", t, func() {
		ctx := context.Background()
		engine := service.New()

		convey.Convey("When calibrating", func() {
			params, err := engine.Calibrate(ctx, "athlete-1", nil, nil)

			convey.Convey("Then the domain stages work without the cache", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(params.Confidence, convey.ShouldEqual, types.ConfidenceLow)
				convey.So(engine.EngineStats().CacheEntries, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When computing a taper", func() {
			plan := engine.ComputeTaper(calibration.DefaultPrior(), nil, types.MetersMarathon)
			convey.So(plan.TaperDays, convey.ShouldEqual, 14)
		})

		convey.Convey("When invalidating without a cache", func() {
			convey.So(engine.InvalidateAthlete("athlete-1"), convey.ShouldEqual, 0)
		})
	})
}

func TestCalibrateCaching(t *testing.T) {
	convey.Convey("Given a started engine", t, func() {
		ctx := context.Background()
		engine := startedEngine(ctx)
		defer engine.Stop(ctx)

		convey.Convey("When calibrating with no data", func() {
			params, err := engine.Calibrate(ctx, "athlete-1", nil, nil)

			convey.Convey("Then the prior comes back at low confidence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(params.Confidence, convey.ShouldEqual, types.ConfidenceLow)
				convey.So(params.Tau1, convey.ShouldAlmostEqual, calibration.DefaultPrior().Tau1)
			})

			convey.Convey("Then the result is cached and a repeat hits it", func() {
				convey.So(engine.EngineStats().CacheEntries, convey.ShouldEqual, 1)

				again, err := engine.Calibrate(ctx, "athlete-1", nil, nil)
				convey.So(err, convey.ShouldBeNil)
				convey.So(again, convey.ShouldResemble, params)
				convey.So(engine.EngineStats().CacheEntries, convey.ShouldEqual, 1)
			})

			convey.Convey("Then invalidating the athlete drops the entry", func() {
				convey.So(engine.InvalidateAthlete("athlete-1"), convey.ShouldEqual, 1)
				convey.So(engine.EngineStats().CacheEntries, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When two athletes calibrate the same data", func() {
			_, err1 := engine.Calibrate(ctx, "athlete-1", nil, nil)
			_, err2 := engine.Calibrate(ctx, "athlete-2", nil, nil)

			convey.So(err1, convey.ShouldBeNil)
			convey.So(err2, convey.ShouldBeNil)
			convey.So(engine.EngineStats().CacheEntries, convey.ShouldEqual, 2)
		})
	})
}

func TestCalibrateAsync(t *testing.T) {
	convey.Convey("Given a started engine", t, func() {
		ctx := context.Background()
		engine := startedEngine(ctx)
		defer engine.Stop(ctx)

		convey.Convey("When a calibration job is submitted", func() {
			jobID, err := engine.CalibrateAsync(ctx, "athlete-1", nil, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(jobID, convey.ShouldNotBeEmpty)

			convey.Convey("Then the result arrives on the results channel", func() {
				select {
				case r := <-engine.Results():
					convey.So(r.JobID, convey.ShouldEqual, jobID)
					convey.So(r.AthleteID, convey.ShouldEqual, "athlete-1")
					convey.So(r.Err, convey.ShouldBeNil)
					convey.So(r.Params.Confidence, convey.ShouldEqual, types.ConfidenceLow)
				case <-time.After(5 * time.Second):
					convey.So("timed out waiting for result", convey.ShouldBeEmpty)
				}

				convey.Convey("And the parameters are cached for synchronous use", func() {
					convey.So(engine.EngineStats().CacheEntries, convey.ShouldEqual, 1)
				})
			})
		})
	})
}

func TestForecast(t *testing.T) {
	convey.Convey("Given a started engine and a synthetic athlete", t, func() {
		ctx := context.Background()
		engine := startedEngine(ctx)
		defer engine.Stop(ctx)

		now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		gen := synth.New("athlete-1")
		history := gen.History(now, 16)
		markers := gen.Markers(calibration.DefaultPrior(), history, 8)

		req := service.ForecastRequest{
			AthleteID:         "athlete-1",
			History:           history,
			Markers:           markers,
			RaceDate:          now.AddDate(0, 0, 12*7),
			WeeksAvailable:    12,
			CurrentWeeklyLoad: 55,
			LoadCeiling:       100,
			DistanceMeters:    types.MetersMarathon,
			EfficiencyTrend:   0,
		}

		convey.Convey("When running the full forecast", func() {
			forecast, err := engine.Forecast(ctx, req)

			convey.Convey("Then every stage produces coherent output", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(forecast.Params.Tau1, convey.ShouldBeGreaterThan, forecast.Params.Tau2)
				convey.So(forecast.Trajectory.Weeks, convey.ShouldHaveLength, 12)
				convey.So(forecast.Trajectory.RaceDate, convey.ShouldResemble, req.RaceDate)
				convey.So(forecast.Trajectory.Taper.TaperDays, convey.ShouldBeGreaterThan, 0)

				p := forecast.Prediction
				convey.So(p.PredictedSeconds, convey.ShouldBeGreaterThan, 0)
				convey.So(p.IntervalLow, convey.ShouldBeLessThan, p.PredictedSeconds)
				convey.So(p.IntervalHigh, convey.ShouldBeGreaterThan, p.PredictedSeconds)
				convey.So(p.BasisDistance, convey.ShouldAlmostEqual, types.MetersMarathon)
			})
		})

		convey.Convey("When the planning constraints are invalid", func() {
			bad := req
			bad.WeeksAvailable = -1

			_, err := engine.Forecast(ctx, bad)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When asking for the fitness trend", func() {
			params, err := engine.Calibrate(ctx, req.AthleteID, history, markers)
			convey.So(err, convey.ShouldBeNil)

			trend := engine.FitnessTrend(params, history)

			convey.Convey("Then the series spans the history day by day", func() {
				convey.So(trend, convey.ShouldNotBeEmpty)
				convey.So(trend[0].Date, convey.ShouldResemble, history[0].Date)
				convey.So(trend[len(trend)-1].Date, convey.ShouldResemble, history[len(history)-1].Date)
				for i := 1; i < len(trend); i++ {
					convey.So(trend[i].Date.Sub(trend[i-1].Date), convey.ShouldEqual, 24*time.Hour)
				}
			})
		})

		convey.Convey("When computing the current state", func() {
			state := engine.CurrentState(calibration.DefaultPrior(), history, history[len(history)-1].Date)

			convey.So(state.Fitness, convey.ShouldBeGreaterThan, 0)
			convey.So(state.Fatigue, convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When computing a taper without calibrated data", func() {
			plan := engine.ComputeTaper(model.ModelParameters{Tau1: 42, Tau2: 7, K1: 0.02, K2: 0.04, Baseline: 20, Confidence: types.ConfidenceLow}, nil, types.MetersMarathon)

			convey.So(plan.TaperDays, convey.ShouldEqual, 14)
			convey.So(plan.Shape, convey.ShouldEqual, types.TaperExponential)
		})
	})
}
