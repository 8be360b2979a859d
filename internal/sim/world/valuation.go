package world

import (
	"time"

	"moltmud.ai/internal/sim/tuning"
	"moltmud.ai/internal/store"
)

// Valuation prices a fragment from its stored counters and age. It is a pure
// function: the stored current_value column is a display cache and is never
// an input here, so the price can't drift from the formula between writes.
//
//	value = base + purchases*W_purchase + avgRating*W_rating - ageDays*W_decay
//
// clamped at zero. avgRating is 0 while the fragment is unrated.
func Valuation(f store.Fragment, now time.Time, v tuning.Valuation) float64 {
	ageDays := now.Sub(time.Unix(f.CreatedAt, 0)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	val := f.BaseValue +
		float64(f.PurchaseCount)*v.PurchaseWeight +
		f.AvgRating()*v.RatingWeight -
		ageDays*v.DecayPerDay
	if val < 0 {
		return 0
	}
	return val
}

func (w *World) valuation(f store.Fragment, now time.Time) float64 {
	return Valuation(f, now, w.cfg.Valuation)
}
