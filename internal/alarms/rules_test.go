package alarms

import (
	"testing"

	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateWithinBounds(t *testing.T) {
	rs := DefaultRuleSet()

	assert.Nil(t, rs.Evaluate(models.ElementLoad, "voltage", 1.0))
	assert.Nil(t, rs.Evaluate(models.ElementLoad, "voltage", 0.95))
	assert.Nil(t, rs.Evaluate(models.ElementLoad, "voltage", 1.05))
	assert.Nil(t, rs.Evaluate(models.ElementGenerator, "frequency", 50.0))
}

func TestEvaluateUnknownRule(t *testing.T) {
	rs := DefaultRuleSet()

	assert.Nil(t, rs.Evaluate(models.ElementLoad, "unknown_metric", 999))
	assert.Nil(t, rs.Evaluate(models.ElementBus, "temperature", 999))
}

func TestEvaluateMaxViolation(t *testing.T) {
	rs := DefaultRuleSet()

	v := rs.Evaluate(models.ElementTransformer, "temperature", 90)
	require.NotNil(t, v)
	assert.Equal(t, "temperature", v.Metric)
	assert.Equal(t, 90.0, v.Value)
	assert.Equal(t, 85.0, v.Bound)
	assert.Equal(t, BoundMax, v.BoundKind)
	assert.Equal(t, models.SeverityHigh, v.Severity)
}

func TestEvaluateMinViolation(t *testing.T) {
	rs := DefaultRuleSet()

	v := rs.Evaluate(models.ElementLoad, "power_factor", 0.75)
	require.NotNil(t, v)
	assert.Equal(t, BoundMin, v.BoundKind)
	assert.Equal(t, 0.8, v.Bound)
	assert.Equal(t, models.SeverityHigh, v.Severity)
}

// Crossing 20% past the bound escalates high to critical.
func TestEvaluateEscalation(t *testing.T) {
	rs := NewRuleSet(map[models.ElementType]map[string]Bounds{
		models.ElementLoad: {
			"voltage": rangeBound(0.95, 1.05),
			"current": maxBound(1.0),
		},
	})

	tests := []struct {
		name     string
		metric   string
		value    float64
		severity models.EventSeverity
	}{
		{"10 percent over max is high", "current", 1.1, models.SeverityHigh},
		{"exactly 20 percent over max is high", "current", 1.2, models.SeverityHigh},
		{"30 percent over max is critical", "current", 1.3, models.SeverityCritical},
		{"slightly under min is high", "voltage", 0.90, models.SeverityHigh},
		{"far under min is critical", "voltage", 0.70, models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := rs.Evaluate(models.ElementLoad, tt.metric, tt.value)
			require.NotNil(t, v)
			assert.Equal(t, tt.severity, v.Severity)
		})
	}
}
