package topology

import (
	"fmt"

	"github.com/gridscope/gridscope-backend/internal/models"
)

// busNeighbors is the set of element types that may attach to a bus.
// The topology is a star around bus nodes: every connection has exactly
// one bus endpoint.
var busNeighbors = map[models.ElementType]bool{
	models.ElementLoad:        true,
	models.ElementGenerator:   true,
	models.ElementTransformer: true,
	models.ElementLine:        true,
}

// InvalidTopologyError reports an illegal connection attempt, naming both
// element types. It is never retried automatically.
type InvalidTopologyError struct {
	FromType models.ElementType
	ToType   models.ElementType
}

func (e *InvalidTopologyError) Error() string {
	return fmt.Sprintf("invalid topology: cannot connect %s to %s (one endpoint must be a bus, the other a load, generator, transformer or line)",
		e.FromType, e.ToType)
}

// ValidateConnection checks that a connection between the two element types
// is legal: exactly one endpoint is a bus and the other is an allowed bus
// neighbor. Bus-to-bus and non-bus pairs are rejected.
func ValidateConnection(fromType, toType models.ElementType) error {
	fromBus := fromType == models.ElementBus
	toBus := toType == models.ElementBus

	if fromBus == toBus {
		return &InvalidTopologyError{FromType: fromType, ToType: toType}
	}

	other := fromType
	if fromBus {
		other = toType
	}
	if !busNeighbors[other] {
		return &InvalidTopologyError{FromType: fromType, ToType: toType}
	}

	return nil
}

// PairKey normalizes an unordered endpoint pair into a stable key, so the
// same two elements always map to one connection record regardless of
// request direction.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
