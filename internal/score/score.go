// Package score aggregates a company's calendar entries into weighted
// compliance and risk scores.
package score

import (
	"math"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/schedule"
)

// Weights maps a penalty severity tier to its scoring weight.
type Weights map[rules.PenaltyImpact]float64

// Multipliers maps a presented (read-time) status to the fraction of its
// weight that counts toward compliance.
type Multipliers map[schedule.Status]float64

// DefaultWeights is the statutory severity weighting. Tiers not listed
// weigh the same as Low.
var DefaultWeights = Weights{
	rules.ImpactImprisonment: 40,
	rules.ImpactHigh:         30,
	rules.ImpactMedium:       20,
	rules.ImpactLow:          10,
}

// DefaultMultipliers grades each presented status. OVERDUE-PASS earns half
// credit: the obligation was met, but late. OVERDUE here is the derived
// read-time state, never a stored one.
var DefaultMultipliers = Multipliers{
	schedule.StatusCompleted:   1.0,
	schedule.StatusOverduePass: 0.5,
	schedule.StatusPending:     0.0,
	schedule.StatusOverdue:     0.0,
	schedule.StatusFailed:      0.0,
}

// Totals is the status breakdown included in the dashboard summary.
// Completed counts both COMPLETED and OVERDUE-PASS entries.
type Totals struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Overdue   int `json:"overdue"`
}

// Summary is the aggregate scoring payload consumed by reporting.
type Summary struct {
	Compliance float64 `json:"compliance_score"`
	Risk       float64 `json:"risk_score"`
	Grade      string  `json:"grade"`
	Totals     Totals  `json:"totals"`
}

// Engine computes scores under an injected weighting scheme. The zero
// value is not usable; construct with NewEngine, which freezes the default
// tables unless overridden (tests substitute alternative schemes).
type Engine struct {
	weights     Weights
	multipliers Multipliers
}

// NewEngine creates a scoring engine. Nil weights or multipliers select
// the defaults.
func NewEngine(w Weights, m Multipliers) *Engine {
	if w == nil {
		w = DefaultWeights
	}
	if m == nil {
		m = DefaultMultipliers
	}
	return &Engine{weights: w, multipliers: m}
}

// Compute aggregates the entries in one pass.
//
//	compliance = 100 × Σ(weight × multiplier) / Σ(weight)
//	risk       = 100 × Σ(weight of derived-OVERDUE entries) / Σ(weight)
//
// Both are 0 when the total weight is 0 (no entries, or all weightless).
// Statuses are projected through schedule.EffectiveStatus at now before
// weighting, so an elapsed PENDING entry scores as OVERDUE. ruleByID maps
// each entry's rule to its penalty tier; entries whose rule is missing
// weigh the same as Low.
func (e *Engine) Compute(entries []schedule.Entry, ruleByID map[int64]rules.Rule, now time.Time) Summary {
	var totalWeight, earnedWeight, overdueWeight float64
	var totals Totals

	for _, entry := range entries {
		weight, ok := e.weights[ruleByID[entry.RuleID].PenaltyImpact]
		if !ok {
			weight = e.weights[rules.ImpactLow]
		}
		totalWeight += weight
		totals.Total++

		status := schedule.EffectiveStatus(entry, now)
		earnedWeight += weight * e.multipliers[status]

		switch status {
		case schedule.StatusCompleted, schedule.StatusOverduePass:
			totals.Completed++
		case schedule.StatusPending:
			totals.Pending++
		case schedule.StatusFailed:
			totals.Failed++
		case schedule.StatusOverdue:
			totals.Overdue++
			overdueWeight += weight
		}
	}

	s := Summary{Totals: totals}
	if totalWeight > 0 {
		s.Compliance = round1(100 * earnedWeight / totalWeight)
		s.Risk = round1(100 * overdueWeight / totalWeight)
	}
	s.Grade = GradeFor(s.Compliance)
	return s
}

// GradeFor bands a compliance score into a letter grade. Bands are closed
// below and open above, except A which includes 100.
func GradeFor(compliance float64) string {
	switch {
	case compliance >= 90:
		return "A"
	case compliance >= 75:
		return "B"
	case compliance >= 50:
		return "C"
	case compliance >= 25:
		return "D"
	default:
		return "F"
	}
}

// round1 rounds to one decimal place, matching the dashboard's display
// precision.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
