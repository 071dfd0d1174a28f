package loadplan_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/mattsre/peakform/internal/domain/loadplan"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/taper"
	"github.com/mattsre/peakform/internal/domain/types"
)

func planParams() model.ModelParameters {
	return model.ModelParameters{Tau1: 42, Tau2: 7, K1: 0.02, K2: 0.04, Baseline: 20, Confidence: types.ConfidenceLow}
}

func raceDay() time.Time {
	return time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
}

func TestOptimizeBuild(t *testing.T) {
	convey.Convey("Given a 12-week marathon buildup", t, func() {
		ctx := context.Background()
		p := loadplan.New()
		req := loadplan.Request{
			RaceDate:          raceDay(),
			WeeksAvailable:    12,
			CurrentWeeklyLoad: 50,
			LoadCeiling:       100,
			Distance:          types.DistanceMarathon,
		}

		trajectory, err := p.Optimize(ctx, planParams(), model.State{Fitness: 50, Fatigue: 20}, req)

		convey.Convey("Then planning succeeds", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(trajectory.PlanID, convey.ShouldNotBeEmpty)
			convey.So(trajectory.Weeks, convey.ShouldHaveLength, 12)
		})

		convey.Convey("Then the build opens at one ramp step above the current load", func() {
			convey.So(trajectory.Weeks[0].TargetLoad, convey.ShouldAlmostEqual, 55, 1e-9)
			convey.So(trajectory.Weeks[1].TargetLoad, convey.ShouldAlmostEqual, 60.5, 1e-9)
		})

		convey.Convey("Then no week exceeds the ceiling", func() {
			for _, week := range trajectory.Weeks {
				convey.So(week.TargetLoad, convey.ShouldBeLessThanOrEqualTo, req.LoadCeiling*(1+1e-9))
			}
		})

		convey.Convey("Then a 10% ramp from 50 reaches the ceiling of 100 in time", func() {
			convey.So(trajectory.CeilingReached, convey.ShouldBeTrue)
			convey.So(trajectory.Note, convey.ShouldBeEmpty)
		})

		convey.Convey("Then phases run build, peak, taper, race", func() {
			last := len(trajectory.Weeks) - 1
			convey.So(trajectory.Weeks[0].Phase, convey.ShouldEqual, types.PhaseBuild)
			convey.So(trajectory.Weeks[last].Phase, convey.ShouldEqual, types.PhaseRace)

			sawPeak := false
			for _, week := range trajectory.Weeks {
				if week.Phase == types.PhasePeak {
					sawPeak = true
				}
			}
			convey.So(sawPeak, convey.ShouldBeTrue)
		})

		convey.Convey("Then taper weeks strictly decrease", func() {
			var taperLoads []float64
			for _, week := range trajectory.Weeks {
				if week.Phase == types.PhaseTaper || week.Phase == types.PhaseRace {
					taperLoads = append(taperLoads, week.TargetLoad)
				}
			}
			convey.So(len(taperLoads), convey.ShouldBeGreaterThan, 0)
			for i := 1; i < len(taperLoads); i++ {
				convey.So(taperLoads[i], convey.ShouldBeLessThan, taperLoads[i-1])
			}
		})

		convey.Convey("Then week starts count back from the race date", func() {
			first := trajectory.Weeks[0]
			last := trajectory.Weeks[len(trajectory.Weeks)-1]
			convey.So(first.WeekStart, convey.ShouldResemble, raceDay().AddDate(0, 0, -7*12))
			convey.So(last.WeekStart, convey.ShouldResemble, raceDay().AddDate(0, 0, -7))
		})

		convey.Convey("Then repeat planning is bit-for-bit deterministic", func() {
			again, err := p.Optimize(ctx, planParams(), model.State{Fitness: 50, Fatigue: 20}, req)
			convey.So(err, convey.ShouldBeNil)
			convey.So(again, convey.ShouldResemble, trajectory)
		})

		convey.Convey("Then different inputs produce a different plan ID", func() {
			other := req
			other.CurrentWeeklyLoad = 60
			different, err := p.Optimize(ctx, planParams(), model.State{Fitness: 50, Fatigue: 20}, other)
			convey.So(err, convey.ShouldBeNil)
			convey.So(different.PlanID, convey.ShouldNotEqual, trajectory.PlanID)
		})

		convey.Convey("Then the projected form is populated", func() {
			convey.So(math.IsNaN(trajectory.ProjectedForm), convey.ShouldBeFalse)
			convey.So(trajectory.ProjectedForm, convey.ShouldNotEqual, 0)
		})
	})
}

func TestOptimizeShortHorizons(t *testing.T) {
	convey.Convey("Given races too close for a build phase", t, func() {
		ctx := context.Background()
		p := loadplan.New()
		params := planParams()

		convey.Convey("When only one week remains", func() {
			req := loadplan.Request{
				RaceDate:          raceDay(),
				WeeksAvailable:    1,
				CurrentWeeklyLoad: 60,
				LoadCeiling:       100,
				Distance:          types.DistanceMarathon,
			}
			trajectory, err := p.Optimize(ctx, params, model.State{}, req)

			convey.Convey("Then a taper-only plan is returned and flagged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(trajectory.Weeks, convey.ShouldHaveLength, 1)
				convey.So(trajectory.CeilingReached, convey.ShouldBeFalse)
				convey.So(trajectory.Note, convey.ShouldNotBeEmpty)
				convey.So(trajectory.Weeks[0].Phase, convey.ShouldEqual, types.PhaseRace)
				convey.So(trajectory.Weeks[0].TargetLoad, convey.ShouldBeLessThan, 60)
			})
		})

		convey.Convey("When no weeks remain at all", func() {
			req := loadplan.Request{
				RaceDate:          raceDay(),
				WeeksAvailable:    0,
				CurrentWeeklyLoad: 60,
				LoadCeiling:       100,
				Distance:          types.DistanceMarathon,
			}
			trajectory, err := p.Optimize(ctx, params, model.State{Fitness: 80, Fatigue: 30}, req)

			convey.Convey("Then the plan is empty but still carries the taper and form", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(trajectory.Weeks, convey.ShouldBeEmpty)
				convey.So(trajectory.Note, convey.ShouldNotBeEmpty)
				convey.So(trajectory.Taper.TaperDays, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the horizon is too short for the ceiling", func() {
			req := loadplan.Request{
				RaceDate:          raceDay(),
				WeeksAvailable:    5,
				CurrentWeeklyLoad: 40,
				LoadCeiling:       200,
				Distance:          types.DistanceMarathon,
			}
			trajectory, err := p.Optimize(ctx, params, model.State{}, req)

			convey.Convey("Then the best achievable plan is returned unflagged as success", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(trajectory.CeilingReached, convey.ShouldBeFalse)
				convey.So(trajectory.Note, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the athlete has no current load", func() {
			req := loadplan.Request{
				RaceDate:          raceDay(),
				WeeksAvailable:    10,
				CurrentWeeklyLoad: 0,
				LoadCeiling:       100,
				Distance:          types.DistanceMiddle,
			}
			trajectory, err := p.Optimize(ctx, params, model.State{}, req)

			convey.Convey("Then the build starts from the cold-start fraction", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(trajectory.Weeks[0].TargetLoad, convey.ShouldBeGreaterThan, 0)
				convey.So(trajectory.Weeks[0].TargetLoad, convey.ShouldBeLessThanOrEqualTo, 100*0.25*1.10*(1+1e-9))
			})
		})
	})
}

func TestOptimizeValidation(t *testing.T) {
	convey.Convey("Given structurally impossible constraints", t, func() {
		ctx := context.Background()
		p := loadplan.New()
		params := planParams()

		assertInvalid := func(req loadplan.Request, field string) {
			_, err := p.Optimize(ctx, params, model.State{}, req)
			convey.So(err, convey.ShouldNotBeNil)

			var cerr *loadplan.InvalidConstraintError
			convey.So(errors.As(err, &cerr), convey.ShouldBeTrue)
			convey.So(cerr.Field, convey.ShouldEqual, field)
		}

		convey.Convey("Then a zero race date is rejected", func() {
			assertInvalid(loadplan.Request{WeeksAvailable: 10, LoadCeiling: 100}, "race_date")
		})

		convey.Convey("Then negative weeks are rejected", func() {
			assertInvalid(loadplan.Request{RaceDate: raceDay(), WeeksAvailable: -1, LoadCeiling: 100}, "weeks_available")
		})

		convey.Convey("Then a non-positive ceiling is rejected", func() {
			assertInvalid(loadplan.Request{RaceDate: raceDay(), WeeksAvailable: 10, LoadCeiling: 0}, "sustainable_load_ceiling")
			assertInvalid(loadplan.Request{RaceDate: raceDay(), WeeksAvailable: 10, LoadCeiling: math.NaN()}, "sustainable_load_ceiling")
			assertInvalid(loadplan.Request{RaceDate: raceDay(), WeeksAvailable: 10, LoadCeiling: math.Inf(1)}, "sustainable_load_ceiling")
		})

		convey.Convey("Then a negative current load is rejected", func() {
			assertInvalid(loadplan.Request{RaceDate: raceDay(), WeeksAvailable: 10, LoadCeiling: 100, CurrentWeeklyLoad: -5}, "current_weekly_load")
		})

		convey.Convey("Then a canceled context is an error", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := p.Optimize(canceled, params, model.State{}, loadplan.Request{RaceDate: raceDay(), WeeksAvailable: 10, LoadCeiling: 100})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestOptimizeTaperIntegration(t *testing.T) {
	convey.Convey("Given a planner with a custom taper calculator", t, func() {
		ctx := context.Background()
		calc := taper.New(taper.WithClassRule(types.DistanceShort, taper.ClassRule{
			MinDays: 3, MaxDays: 7, DefaultDays: 7, Shape: types.TaperLinear,
		}))
		p := loadplan.New(loadplan.WithTaperCalculator(calc))

		req := loadplan.Request{
			RaceDate:          raceDay(),
			WeeksAvailable:    8,
			CurrentWeeklyLoad: 50,
			LoadCeiling:       80,
			Distance:          types.DistanceShort,
		}
		trajectory, err := p.Optimize(ctx, planParams(), model.State{}, req)

		convey.Convey("Then the taper plan flows into the trajectory", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(trajectory.Taper.TaperDays, convey.ShouldEqual, 7)
			convey.So(trajectory.Taper.Shape, convey.ShouldEqual, types.TaperLinear)
		})
	})
}
