package geofence

import "math"

// Reason codes a geofence evaluation can produce. These are surfaced verbatim
// in audit records and mapped to user-facing messages by the caller.
type Reason string

const (
	ReasonVerified          Reason = "verified"
	ReasonOutOfRange        Reason = "out_of_range"
	ReasonLowAccuracy       Reason = "low_accuracy"
	ReasonInvalidCoordinate Reason = "invalid_coordinate"
)

// Point is a coordinate in signed decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Sample is a single position reading from a client device. AccuracyMeters is
// the uncertainty radius of the reading.
type Sample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

type Result struct {
	DistanceMeters float64
	Verified       bool
	Reason         Reason
}

// HaversineDistance menghitung jarak antara dua titik koordinat dalam Meter.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000 // Jari-jari bumi dalam Meter

	// Konversi ke Radian
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	// Rumus Haversine
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Evaluate classifies a position sample against a circular geofence. All
// distances are meters; callers convert at the boundary, never here.
//
// maxAccuracyMeters caps the acceptable reading uncertainty; pass 0 to use the
// geofence radius itself. A generous accuracy never widens the allowed radius:
// an imprecise reading is rejected outright, because it cannot reliably
// confirm presence.
//
// Never returns an error; a malformed coordinate is a rejection, not a fault.
func Evaluate(center Point, radiusMeters float64, sample Sample, maxAccuracyMeters float64) Result {
	if !validCoordinate(center.Latitude, center.Longitude) ||
		!validCoordinate(sample.Latitude, sample.Longitude) ||
		math.IsNaN(sample.AccuracyMeters) || sample.AccuracyMeters < 0 {
		return Result{Reason: ReasonInvalidCoordinate}
	}

	distance := HaversineDistance(center.Latitude, center.Longitude, sample.Latitude, sample.Longitude)

	maxAccuracy := maxAccuracyMeters
	if maxAccuracy <= 0 {
		maxAccuracy = radiusMeters
	}
	if sample.AccuracyMeters > maxAccuracy {
		return Result{DistanceMeters: distance, Reason: ReasonLowAccuracy}
	}

	if distance > radiusMeters {
		return Result{DistanceMeters: distance, Reason: ReasonOutOfRange}
	}

	return Result{DistanceMeters: distance, Verified: true, Reason: ReasonVerified}
}
