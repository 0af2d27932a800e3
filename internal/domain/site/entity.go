package site

import "time"

// JobSite is a registered work location with a circular geofence. Records are
// created and edited by site administration; this core only reads them.
type JobSite struct {
	ID           string
	Name         string
	Address      *string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
