package solver_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/solver"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

// energyPrices reproduces the ENERGY_PRICES fixture from the original
// DTW test suite: 2016-07-06 intra-day hourly prices plus 2016-07-07
// day-ahead hourly prices.
func energyPrices(t *testing.T) domain.PriceCurve {
	t.Helper()

	intraDay := map[string]float64{
		"2016-07-06T00:00:00": 24.0, "2016-07-06T01:00:00": 23,
		"2016-07-06T02:00:00": 17.4, "2016-07-06T03:00:00": 18.5,
		"2016-07-06T04:00:00": 20, "2016-07-06T05:00:00": 26,
		"2016-07-06T06:00:00": 28.2, "2016-07-06T07:00:00": 30.8,
		"2016-07-06T08:00:00": 32.3, "2016-07-06T09:00:00": 32,
		"2016-07-06T10:00:00": 39.6, "2016-07-06T11:00:00": 44.9,
		"2016-07-06T12:00:00": 32, "2016-07-06T13:00:00": 33,
		"2016-07-06T14:00:00": 31.8, "2016-07-06T15:00:00": 29.5,
		"2016-07-06T16:00:00": 30.5, "2016-07-06T17:00:00": 30.6,
		"2016-07-06T18:00:00": 31, "2016-07-06T19:00:00": 32,
		"2016-07-06T20:00:00": 36.2, "2016-07-06T21:00:00": 29.2,
		"2016-07-06T22:00:00": 34.4, "2016-07-06T23:00:00": 33.6,
	}
	dayAhead := map[string]float64{
		"2016-07-07T00:00:00": 30.4, "2016-07-07T01:00:00": 27.3,
		"2016-07-07T02:00:00": 27, "2016-07-07T03:00:00": 19,
		"2016-07-07T04:00:00": 20.5, "2016-07-07T05:00:00": 27.2,
		"2016-07-07T06:00:00": 30.4, "2016-07-07T07:00:00": 34.8,
		"2016-07-07T08:00:00": 36.2, "2016-07-07T09:00:00": 35.4,
		"2016-07-07T10:00:00": 36.5, "2016-07-07T11:00:00": 46,
		"2016-07-07T12:00:00": 42, "2016-07-07T13:00:00": 34,
		"2016-07-07T14:00:00": 43, "2016-07-07T15:00:00": 33.8,
		"2016-07-07T16:00:00": 34.55, "2016-07-07T17:00:00": 36,
		"2016-07-07T18:00:00": 37.6, "2016-07-07T19:00:00": 38.1,
		"2016-07-07T20:00:00": 33.5, "2016-07-07T21:00:00": 37.5,
		"2016-07-07T22:00:00": 37, "2016-07-07T23:00:00": 35,
	}

	curve := domain.PriceCurve{
		IntraDay: make(map[time.Time]float64, len(intraDay)),
		DayAhead: make(map[time.Time]float64, len(dayAhead)),
	}
	for k, v := range intraDay {
		curve.IntraDay[mustParse(t, k)] = v
	}
	for k, v := range dayAhead {
		curve.DayAhead[mustParse(t, k)] = v
	}
	return curve
}

func TestOptimalStart_Afternoon(t *testing.T) {
	prices := energyPrices(t)
	current := mustParse(t, "2016-07-06T15:43:00")
	deadline := mustParse(t, "2016-07-06T23:00:00")

	got, ok := solver.OptimalStart(current, prices, 75, deadline)
	if !ok {
		t.Fatal("expected a candidate, got none")
	}
	want := mustParse(t, "2016-07-06T21:00:00")
	if !got.Equal(want) {
		t.Errorf("OptimalStart = %v, want %v", got, want)
	}
}

func TestOptimalStart_Morning(t *testing.T) {
	prices := energyPrices(t)
	current := mustParse(t, "2016-07-06T07:43:00")
	deadline := mustParse(t, "2016-07-06T23:00:00")

	got, ok := solver.OptimalStart(current, prices, 150, deadline)
	if !ok {
		t.Fatal("expected a candidate, got none")
	}
	want := mustParse(t, "2016-07-06T15:00:00")
	if !got.Equal(want) {
		t.Errorf("OptimalStart = %v, want %v", got, want)
	}
}

func TestOptimalStart_NoCandidates_WhenWindowEmpty(t *testing.T) {
	prices := energyPrices(t)
	// Deadline already passed relative to current time minus duration:
	// the admissible window collapses to nothing.
	current := mustParse(t, "2016-07-06T22:00:00")
	deadline := mustParse(t, "2016-07-06T22:30:00")

	_, ok := solver.OptimalStart(current, prices, 75, deadline)
	if ok {
		t.Error("expected no candidate when the admissible window is empty")
	}
}

func TestOptimalStart_Deterministic(t *testing.T) {
	prices := energyPrices(t)
	current := mustParse(t, "2016-07-06T15:43:00")
	deadline := mustParse(t, "2016-07-06T23:00:00")

	first, _ := solver.OptimalStart(current, prices, 75, deadline)
	for i := 0; i < 5; i++ {
		got, ok := solver.OptimalStart(current, prices, 75, deadline)
		if !ok || !got.Equal(first) {
			t.Fatalf("run %d: got %v, want stable %v", i, got, first)
		}
	}
}
