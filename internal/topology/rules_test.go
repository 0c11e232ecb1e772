package topology

import (
	"testing"

	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConnection(t *testing.T) {
	valid := []struct {
		from, to models.ElementType
	}{
		{models.ElementBus, models.ElementLoad},
		{models.ElementBus, models.ElementGenerator},
		{models.ElementBus, models.ElementTransformer},
		{models.ElementBus, models.ElementLine},
		{models.ElementLoad, models.ElementBus},
		{models.ElementGenerator, models.ElementBus},
		{models.ElementTransformer, models.ElementBus},
		{models.ElementLine, models.ElementBus},
	}
	for _, tt := range valid {
		assert.NoError(t, ValidateConnection(tt.from, tt.to), "%s -> %s should be valid", tt.from, tt.to)
	}
}

func TestValidateConnectionRejectsNonBusPairs(t *testing.T) {
	nonBus := []models.ElementType{
		models.ElementGenerator,
		models.ElementLoad,
		models.ElementTransformer,
		models.ElementLine,
	}

	for _, from := range nonBus {
		for _, to := range nonBus {
			err := ValidateConnection(from, to)
			require.Error(t, err, "%s -> %s should be invalid", from, to)

			var topoErr *InvalidTopologyError
			require.ErrorAs(t, err, &topoErr)
			assert.Equal(t, from, topoErr.FromType)
			assert.Equal(t, to, topoErr.ToType)
		}
	}
}

func TestValidateConnectionRejectsBusToBus(t *testing.T) {
	err := ValidateConnection(models.ElementBus, models.ElementBus)
	assert.Error(t, err)
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "a|b", PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}
