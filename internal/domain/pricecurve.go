package domain

import "time"

// PriceCurve is an hour-keyed map of energy prices across the 48-hour
// horizon: today's intra-day prices plus tomorrow's day-ahead prices.
type PriceCurve struct {
	IntraDay map[time.Time]float64
	DayAhead map[time.Time]float64
}

// Merged returns a single map combining both sub-curves. The result is a
// fresh map; changing it does not affect either sub-map.
func (p PriceCurve) Merged() map[time.Time]float64 {
	out := make(map[time.Time]float64, len(p.IntraDay)+len(p.DayAhead))
	for t, v := range p.IntraDay {
		out[t] = v
	}
	for t, v := range p.DayAhead {
		out[t] = v
	}
	return out
}
