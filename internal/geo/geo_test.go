package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		{
			name: "same point is zero",
			lat1: 43.25, lon1: 76.95, lat2: 43.25, lon2: 76.95,
			expected:  0,
			tolerance: 1e-9,
		},
		{
			name: "almaty to astana",
			lat1: 43.222, lon1: 76.8512, lat2: 51.1605, lon2: 71.4704,
			expected:  960,
			tolerance: 15,
		},
		{
			name: "one degree of latitude at equator",
			lat1: 0, lon1: 0, lat2: 1, lon2: 0,
			expected:  111.19,
			tolerance: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, got, tt.tolerance)
		})
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	a := DistanceKm(43.25, 76.95, 51.16, 71.47)
	b := DistanceKm(51.16, 71.47, 43.25, 76.95)
	assert.InDelta(t, a, b, 1e-9)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
}
