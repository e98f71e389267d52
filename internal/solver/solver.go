// Package solver implements the optimal-start solver (C4): a pure,
// deterministic function that picks the hour-aligned start time within
// an admissible window that minimises summed hourly energy price over a
// job's integer-hour footprint.
package solver

import (
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
)

// OptimalStart implements spec §4.4 steps 1-6. ok is false when no
// candidate start time survives the filtering (e.g. the admissible
// window is empty, or the price curve has gaps under every candidate's
// footprint); callers must fall back to their own default in that case.
func OptimalStart(currentTime time.Time, prices domain.PriceCurve, durationMinutes int, deadline time.Time) (t time.Time, ok bool) {
	// Step 1: merge into ep (the working set), keep ref_ep immutable for cost lookups.
	refEP := prices.Merged()
	ep := make(map[time.Time]float64, len(refEP))
	for k, v := range refEP {
		ep[k] = v
	}

	// Step 2: drop every hour of today <= the current hour (past hours and
	// the current hour window are ineligible).
	today := truncateToDay(currentTime)
	currentHourFloor := time.Date(currentTime.Year(), currentTime.Month(), currentTime.Day(), currentTime.Hour(), 0, 0, 0, currentTime.Location())
	for k := range ep {
		if truncateToDay(k).Equal(today) && !k.After(currentHourFloor) {
			delete(ep, k)
		}
	}

	// Step 3: end of the 48-hour price horizon.
	finalTime := today.Add(48 * time.Hour)

	// Step 4: if the job must finish before the horizon ends, drop every
	// hour at or after the ceil-hour of (deadline - duration).
	duration := time.Duration(durationMinutes) * time.Minute
	latestStart := deadline.Add(-duration)
	if latestStart.Before(finalTime) {
		cutoff := ceilHour(latestStart)
		for k := range ep {
			if !k.Before(cutoff) {
				delete(ep, k)
			}
		}
	}

	// Step 5: D whole hours of footprint; fractional remainders are
	// discarded deliberately (see the documented open question on this).
	d := durationMinutes / 60

	var (
		best    time.Time
		bestSet bool
		bestCost float64
	)

	for candidate := range ep {
		cost, valid := footprintCost(refEP, candidate, d)
		if !valid {
			continue
		}
		// Equal costs go to the earliest hour so the result does not depend
		// on map iteration order.
		if !bestSet || cost < bestCost || (cost == bestCost && candidate.Before(best)) {
			best, bestCost, bestSet = candidate, cost, true
		}
	}

	return best, bestSet
}

// footprintCost sums ref_ep[candidate + i*1h] for i in [0, d). It rejects
// candidates where any hour of the footprint is missing from ref_ep.
func footprintCost(refEP map[time.Time]float64, candidate time.Time, d int) (float64, bool) {
	var sum float64
	for i := 0; i < d; i++ {
		hour := candidate.Add(time.Duration(i) * time.Hour)
		price, ok := refEP[hour]
		if !ok {
			return 0, false
		}
		sum += price
	}
	return sum, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ceilHour rounds x up to the next hour boundary; x already on the
// boundary is returned unchanged.
func ceilHour(x time.Time) time.Time {
	if x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
		return x
	}
	floor := time.Date(x.Year(), x.Month(), x.Day(), x.Hour(), 0, 0, 0, x.Location())
	return floor.Add(time.Hour)
}
