package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// metersPerDegreeLat on the 6371 km sphere.
const metersPerDegreeLat = 111194.9266

func offsetNorth(p Point, meters float64) Point {
	return Point{Latitude: p.Latitude + meters/metersPerDegreeLat, Longitude: p.Longitude}
}

var siteCenter = Point{Latitude: 40.7128, Longitude: -74.0060}

func TestHaversineDistance_KnownPoints(t *testing.T) {
	// One degree of latitude on the reference sphere
	d := HaversineDistance(0, 0, 1, 0)
	assert.InDelta(t, metersPerDegreeLat, d, 1.0)

	// Identical points
	assert.Equal(t, 0.0, HaversineDistance(40.7128, -74.0060, 40.7128, -74.0060))

	// Symmetric
	d1 := HaversineDistance(40.7128, -74.0060, 40.7138, -74.0070)
	d2 := HaversineDistance(40.7138, -74.0070, 40.7128, -74.0060)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestEvaluate_InsideRadius(t *testing.T) {
	// Worker ~76 m from a site with a ~91 m radius, tight accuracy
	sampleAt := offsetNorth(siteCenter, 76.2)
	result := Evaluate(siteCenter, 91.44, Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 6.1}, 0)

	assert.True(t, result.Verified)
	assert.Equal(t, ReasonVerified, result.Reason)
	assert.InDelta(t, 76.2, result.DistanceMeters, 0.5)
}

func TestEvaluate_OutsideRadius(t *testing.T) {
	// Worker ~137 m away from the same ~91 m geofence
	sampleAt := offsetNorth(siteCenter, 137.16)
	result := Evaluate(siteCenter, 91.44, Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 6.1}, 0)

	assert.False(t, result.Verified)
	assert.Equal(t, ReasonOutOfRange, result.Reason)
	assert.InDelta(t, 137.16, result.DistanceMeters, 0.5)
}

func TestEvaluate_DistanceEqualToRadiusIsVerified(t *testing.T) {
	sampleAt := offsetNorth(siteCenter, 50)
	distance := HaversineDistance(siteCenter.Latitude, siteCenter.Longitude, sampleAt.Latitude, sampleAt.Longitude)

	result := Evaluate(siteCenter, distance, Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 5}, 0)
	assert.True(t, result.Verified)
}

func TestEvaluate_LowAccuracy(t *testing.T) {
	// Reading uncertainty wider than the geofence itself can never confirm
	// presence, even standing dead center.
	result := Evaluate(siteCenter, 91.44, Sample{Latitude: siteCenter.Latitude, Longitude: siteCenter.Longitude, AccuracyMeters: 150}, 0)

	assert.False(t, result.Verified)
	assert.Equal(t, ReasonLowAccuracy, result.Reason)
}

func TestEvaluate_AccuracyCapOverride(t *testing.T) {
	sampleAt := offsetNorth(siteCenter, 10)

	// System-wide cap of 25 m rejects a 30 m reading inside a wide geofence
	result := Evaluate(siteCenter, 500, Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 30}, 25)
	assert.Equal(t, ReasonLowAccuracy, result.Reason)

	// Same reading passes when the cap is the radius
	result = Evaluate(siteCenter, 500, Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 30}, 0)
	assert.True(t, result.Verified)
}

func TestEvaluate_GenerousAccuracyGrantsNoLeeway(t *testing.T) {
	// 137 m away with an accuracy circle that overlaps the fence: still out
	// of range, accuracy never widens the allowed radius.
	sampleAt := offsetNorth(siteCenter, 137.16)
	result := Evaluate(siteCenter, 91.44, Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 60}, 0)

	assert.False(t, result.Verified)
	assert.Equal(t, ReasonOutOfRange, result.Reason)
}

func TestEvaluate_InvalidCoordinates(t *testing.T) {
	cases := []struct {
		name   string
		sample Sample
	}{
		{"latitude above range", Sample{Latitude: 90.5, Longitude: 0, AccuracyMeters: 5}},
		{"latitude below range", Sample{Latitude: -91, Longitude: 0, AccuracyMeters: 5}},
		{"longitude above range", Sample{Latitude: 0, Longitude: 180.1, AccuracyMeters: 5}},
		{"longitude below range", Sample{Latitude: 0, Longitude: -181, AccuracyMeters: 5}},
		{"NaN latitude", Sample{Latitude: math.NaN(), Longitude: 0, AccuracyMeters: 5}},
		{"Inf longitude", Sample{Latitude: 0, Longitude: math.Inf(1), AccuracyMeters: 5}},
		{"negative accuracy", Sample{Latitude: 0, Longitude: 0, AccuracyMeters: -1}},
		{"NaN accuracy", Sample{Latitude: 0, Longitude: 0, AccuracyMeters: math.NaN()}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Evaluate(siteCenter, 100, tc.sample, 0)
			assert.False(t, result.Verified)
			assert.Equal(t, ReasonInvalidCoordinate, result.Reason)
		})
	}
}

func TestEvaluate_InvalidCenter(t *testing.T) {
	result := Evaluate(Point{Latitude: 100, Longitude: 0}, 100, Sample{Latitude: 0, Longitude: 0, AccuracyMeters: 5}, 0)
	assert.Equal(t, ReasonInvalidCoordinate, result.Reason)
}

func TestEvaluate_Deterministic(t *testing.T) {
	sampleAt := offsetNorth(siteCenter, 80)
	sample := Sample{Latitude: sampleAt.Latitude, Longitude: sampleAt.Longitude, AccuracyMeters: 10}

	first := Evaluate(siteCenter, 91.44, sample, 0)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Evaluate(siteCenter, 91.44, sample, 0))
	}
}
