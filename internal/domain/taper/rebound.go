package taper

import (
	"sort"
	"time"

	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/types"
)

// Rebound classification windows, in days after a race effort.
const (
	fastReboundDays     = 5
	moderateReboundDays = 10
	reboundWindowDays   = 21
)

// Observation is one historical pre-race rebound, classified by how quickly
// the athlete's performance markers recovered after the effort.
type Observation struct {
	RaceDate time.Time          `json:"race_date"`
	Speed    types.ReboundSpeed `json:"speed"`
}

// ClassifyRebounds scans the marker history for race efforts and classifies
// how quickly performance recovered to the pre-race level afterwards.
// Races with no subsequent marker inside the rebound window yield an
// UNKNOWN observation, which the taper calculator ignores.
func ClassifyRebounds(markers []model.PerformanceMarker) []Observation {
	sorted := make([]model.PerformanceMarker, len(markers))
	copy(sorted, markers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var observations []Observation
	for i, m := range sorted {
		if !m.IsRace {
			continue
		}
		observations = append(observations, Observation{
			RaceDate: m.Date,
			Speed:    classifyRecovery(m, sorted[i+1:]),
		})
	}
	return observations
}

// classifyRecovery finds the first later marker at or above the race-day
// level and buckets the gap in days.
func classifyRecovery(race model.PerformanceMarker, later []model.PerformanceMarker) types.ReboundSpeed {
	sawMarkerInWindow := false
	for _, m := range later {
		gap := int(m.Date.Sub(race.Date).Hours() / 24)
		if gap <= 0 {
			continue
		}
		if gap > reboundWindowDays {
			break
		}
		sawMarkerInWindow = true
		if m.Value >= race.Value {
			switch {
			case gap <= fastReboundDays:
				return types.ReboundFast
			case gap <= moderateReboundDays:
				return types.ReboundModerate
			default:
				return types.ReboundSlow
			}
		}
	}
	if sawMarkerInWindow {
		// Markers exist but never recovered to race level inside the window.
		return types.ReboundSlow
	}
	return types.ReboundUnknown
}
