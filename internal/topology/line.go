package topology

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gridscope/gridscope-backend/internal/geo"
	"github.com/gridscope/gridscope-backend/internal/models"
)

var ErrTooFewPoints = errors.New("a line path requires at least 2 points")

// NormalizePath sorts points by sequence order, renumbers them 0..n-1 and
// coerces the first/last point types to start/end. The input slice is
// modified in place and returned.
func NormalizePath(points []models.LinePathPoint) []models.LinePathPoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].SequenceOrder < points[j].SequenceOrder
	})
	for i := range points {
		points[i].SequenceOrder = i
	}
	if len(points) > 0 {
		points[0].PointType = models.PointStart
		points[len(points)-1].PointType = models.PointEnd
	}
	return points
}

// PathLengthKm sums the geodesic distance over consecutive points of a
// normalized path.
func PathLengthKm(points []models.LinePathPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geo.DistanceKm(
			points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude,
		)
	}
	return total
}

// ValidatePath rejects malformed point lists before any state mutation.
func ValidatePath(points []models.LinePathPoint) error {
	if len(points) < 2 {
		return ErrTooFewPoints
	}
	for i, p := range points {
		if !geo.ValidCoordinates(p.Latitude, p.Longitude) {
			return fmt.Errorf("path point %d has coordinates out of range: (%f, %f)", i, p.Latitude, p.Longitude)
		}
	}
	return nil
}
