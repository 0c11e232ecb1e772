package alarms

import (
	"github.com/gridscope/gridscope-backend/internal/models"
)

// escalationFactor is how far beyond a bound a value must go before a
// violation escalates from high to critical (20% past the bound).
const escalationFactor = 0.2

type BoundKind string

const (
	BoundMin BoundKind = "min"
	BoundMax BoundKind = "max"
)

// Bounds holds an optional min and/or max for one metric.
type Bounds struct {
	Min *float64
	Max *float64
}

// Violation describes a measurement outside its rule bounds.
type Violation struct {
	Metric    string
	Value     float64
	Bound     float64
	BoundKind BoundKind
	Severity  models.EventSeverity
}

// RuleSet is a replaceable threshold table keyed by element type and
// metric name. Deployments can swap the table without touching the
// evaluator.
type RuleSet struct {
	rules map[models.ElementType]map[string]Bounds
}

func NewRuleSet(rules map[models.ElementType]map[string]Bounds) *RuleSet {
	return &RuleSet{rules: rules}
}

func minBound(v float64) Bounds { return Bounds{Min: &v} }
func maxBound(v float64) Bounds { return Bounds{Max: &v} }
func rangeBound(lo, hi float64) Bounds {
	return Bounds{Min: &lo, Max: &hi}
}

// DefaultRuleSet returns the built-in threshold table. Voltage, current
// and power are in per-unit of the element's rating; temperature in °C;
// frequency in Hz.
func DefaultRuleSet() *RuleSet {
	return NewRuleSet(map[models.ElementType]map[string]Bounds{
		models.ElementLoad: {
			"voltage":      rangeBound(0.95, 1.05),
			"current":      maxBound(1.0),
			"power_factor": minBound(0.8),
		},
		models.ElementGenerator: {
			"voltage":   rangeBound(0.95, 1.05),
			"frequency": rangeBound(49.5, 50.5),
			"power":     maxBound(1.0),
		},
		models.ElementTransformer: {
			"temperature": maxBound(85),
			"current":     maxBound(1.1),
		},
		models.ElementLine: {
			"current":     maxBound(1.0),
			"temperature": maxBound(75),
		},
		models.ElementBus: {
			"voltage": rangeBound(0.95, 1.05),
		},
	})
}

// Evaluate returns a violation when a rule exists for the element type and
// metric and the value falls outside its bounds, nil otherwise.
func (rs *RuleSet) Evaluate(elementType models.ElementType, metric string, value float64) *Violation {
	metricRules, ok := rs.rules[elementType]
	if !ok {
		return nil
	}
	bounds, ok := metricRules[metric]
	if !ok {
		return nil
	}

	if bounds.Max != nil && value > *bounds.Max {
		return &Violation{
			Metric:    metric,
			Value:     value,
			Bound:     *bounds.Max,
			BoundKind: BoundMax,
			Severity:  severityAboveMax(value, *bounds.Max),
		}
	}
	if bounds.Min != nil && value < *bounds.Min {
		return &Violation{
			Metric:    metric,
			Value:     value,
			Bound:     *bounds.Min,
			BoundKind: BoundMin,
			Severity:  severityBelowMin(value, *bounds.Min),
		}
	}
	return nil
}

func severityAboveMax(value, max float64) models.EventSeverity {
	if value > max*(1+escalationFactor) {
		return models.SeverityCritical
	}
	return models.SeverityHigh
}

func severityBelowMin(value, min float64) models.EventSeverity {
	if value < min*(1-escalationFactor) {
		return models.SeverityCritical
	}
	return models.SeverityHigh
}
