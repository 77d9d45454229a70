package analysis

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
)

// Factor is one weighted criterion of a rubric. Score returns a value in [0,1].
type Factor struct {
	Name   string
	Weight float64
	Score  func(Stats) float64
}

// Rubric is a weighted set of factors
type Rubric []Factor

// Evaluate scores s against every factor and returns the weighted mean in
// [0,1], rounded to three decimals, with the per-factor breakdown.
func (r Rubric) Evaluate(s Stats) (float64, []models.FactorScore) {
	var total, earned float64
	scores := make([]models.FactorScore, 0, len(r))
	for _, f := range r {
		v := clamp01(f.Score(s))
		total += f.Weight
		earned += f.Weight * v
		scores = append(scores, models.FactorScore{
			Name:   f.Name,
			Weight: f.Weight,
			Score:  round3(v),
			Points: round3(f.Weight * v),
		})
	}
	if total <= 0 {
		return 0, scores
	}
	return round3(earned / total), scores
}

// Band scores 1 inside [lo, hi], falling linearly to 0 at softLo and softHi
func Band(v, lo, hi, softLo, softHi float64) float64 {
	switch {
	case v >= lo && v <= hi:
		return 1
	case v < lo:
		if softLo >= lo || v <= softLo {
			return 0
		}
		return (v - softLo) / (lo - softLo)
	default:
		if softHi <= hi || v >= softHi {
			return 0
		}
		return (softHi - v) / (softHi - hi)
	}
}

// AtLeast scores 1 at or above full, 0 at or below zero, linear between
func AtLeast(v, zero, full float64) float64 {
	if full <= zero {
		if v >= full {
			return 1
		}
		return 0
	}
	return clamp01((v - zero) / (full - zero))
}

// AtMost scores 1 at or below full, 0 at or above zero, linear between
func AtMost(v, full, zero float64) float64 {
	if zero <= full {
		if v <= full {
			return 1
		}
		return 0
	}
	return clamp01((zero - v) / (zero - full))
}

// HourBand scores the local time of day of t, in fractional hours, with Band
func HourBand(t time.Time, lo, hi, softLo, softHi float64) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return Band(h, lo, hi, softLo, softHi)
}

// Bool scores 1 for true
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
