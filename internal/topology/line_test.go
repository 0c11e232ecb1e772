package topology

import (
	"testing"

	"github.com/gridscope/gridscope-backend/internal/geo"
	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathPoints() []models.LinePathPoint {
	return []models.LinePathPoint{
		{SequenceOrder: 0, Latitude: 43.25, Longitude: 76.90, PointType: models.PointStart},
		{SequenceOrder: 1, Latitude: 43.30, Longitude: 76.95, PointType: models.PointTower},
		{SequenceOrder: 2, Latitude: 43.35, Longitude: 77.00, PointType: models.PointEnd},
	}
}

func TestNormalizePathSortsAndRenumbers(t *testing.T) {
	points := []models.LinePathPoint{
		{SequenceOrder: 7, Latitude: 43.35, Longitude: 77.00},
		{SequenceOrder: 2, Latitude: 43.25, Longitude: 76.90},
		{SequenceOrder: 5, Latitude: 43.30, Longitude: 76.95},
	}

	normalized := NormalizePath(points)

	require.Len(t, normalized, 3)
	for i, p := range normalized {
		assert.Equal(t, i, p.SequenceOrder)
	}
	assert.Equal(t, 43.25, normalized[0].Latitude)
	assert.Equal(t, 43.35, normalized[2].Latitude)
	assert.Equal(t, models.PointStart, normalized[0].PointType)
	assert.Equal(t, models.PointEnd, normalized[2].PointType)
}

func TestPathLengthKmIsAdditive(t *testing.T) {
	points := pathPoints()

	total := PathLengthKm(points)
	first := geo.DistanceKm(points[0].Latitude, points[0].Longitude, points[1].Latitude, points[1].Longitude)
	second := geo.DistanceKm(points[1].Latitude, points[1].Longitude, points[2].Latitude, points[2].Longitude)

	assert.InDelta(t, first+second, total, 1e-9)
	assert.Greater(t, total, 0.0)
}

func TestPathLengthKmUnchangedByResequencing(t *testing.T) {
	original := NormalizePath(pathPoints())
	length := PathLengthKm(original)

	// Same coordinates in the same relative order but with gappy sequence
	// numbers must produce the same consecutive pairs and the same length.
	resequenced := pathPoints()
	resequenced[0].SequenceOrder = 10
	resequenced[1].SequenceOrder = 20
	resequenced[2].SequenceOrder = 30

	assert.InDelta(t, length, PathLengthKm(NormalizePath(resequenced)), 1e-9)
}

func TestValidatePath(t *testing.T) {
	assert.ErrorIs(t, ValidatePath(nil), ErrTooFewPoints)
	assert.ErrorIs(t, ValidatePath(pathPoints()[:1]), ErrTooFewPoints)
	assert.NoError(t, ValidatePath(pathPoints()))

	bad := pathPoints()
	bad[1].Latitude = 91
	assert.Error(t, ValidatePath(bad))
}
