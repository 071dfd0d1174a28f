package synth_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/mattsre/peakform/internal/domain/calibration"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/synth"
)

func TestHistory(t *testing.T) {
	convey.Convey("Given a seeded generator", t, func() {
		start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

		convey.Convey("When generating a 16 week history", func() {
			history := synth.New("athlete-1").History(start, 16)

			convey.Convey("Then it has six training days per week", func() {
				convey.So(history, convey.ShouldHaveLength, 16*6)
			})

			convey.Convey("Then it passes history validation", func() {
				convey.So(model.ValidateHistory(history), convey.ShouldBeNil)
			})

			convey.Convey("Then all days predate the start and carry positive load", func() {
				for _, day := range history {
					convey.So(day.Date.Before(start), convey.ShouldBeTrue)
					convey.So(day.Load, convey.ShouldBeGreaterThan, 0)
				}
			})
		})

		convey.Convey("When the same athlete ID is used twice", func() {
			a := synth.New("athlete-1").History(start, 8)
			b := synth.New("athlete-1").History(start, 8)

			convey.So(a, convey.ShouldResemble, b)
		})

		convey.Convey("When two athlete IDs differ", func() {
			a := synth.New("athlete-1").History(start, 8)
			b := synth.New("athlete-2").History(start, 8)

			convey.So(a, convey.ShouldNotResemble, b)
		})

		convey.Convey("When zero weeks are requested", func() {
			convey.So(synth.New("athlete-1").History(start, 0), convey.ShouldBeNil)
		})

		convey.Convey("When custom weekly loads are set", func() {
			history := synth.New("athlete-1", synth.WithWeeklyLoads(30, 40)).History(start, 4)

			var total float64
			for _, day := range history {
				total += day.Load
			}
			weeklyAverage := total / 4

			convey.Convey("Then weekly volume lands near the configured range", func() {
				convey.So(weeklyAverage, convey.ShouldBeGreaterThan, 20)
				convey.So(weeklyAverage, convey.ShouldBeLessThan, 50)
			})
		})
	})
}

func TestMarkers(t *testing.T) {
	convey.Convey("Given a generated history", t, func() {
		start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		gen := synth.New("athlete-1")
		history := gen.History(start, 16)
		prior := calibration.DefaultPrior()

		convey.Convey("When sampling eight markers", func() {
			markers := gen.Markers(prior, history, 8)

			convey.Convey("Then the requested count comes back, validated and in range", func() {
				convey.So(markers, convey.ShouldHaveLength, 8)
				convey.So(model.ValidateMarkers(markers), convey.ShouldBeNil)
				for _, m := range markers {
					convey.So(m.Date.Before(history[0].Date), convey.ShouldBeFalse)
					convey.So(m.Date.After(history[len(history)-1].Date), convey.ShouldBeFalse)
				}
			})
		})

		convey.Convey("When the generation is repeated with the same seed", func() {
			genA := synth.New("athlete-3")
			genB := synth.New("athlete-3")
			historyA := genA.History(start, 12)
			historyB := genB.History(start, 12)

			convey.So(genA.Markers(prior, historyA, 6), convey.ShouldResemble, genB.Markers(prior, historyB, 6))
		})

		convey.Convey("When no history is available", func() {
			convey.So(gen.Markers(prior, nil, 8), convey.ShouldBeNil)
		})

		convey.Convey("When zero markers are requested", func() {
			convey.So(gen.Markers(prior, history, 0), convey.ShouldBeNil)
		})
	})
}
