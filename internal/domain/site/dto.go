package site

// SiteResponse is the read surface workers use to pick a clock-in location.
type SiteResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Address      *string `json:"address,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// ToResponse converts a JobSite entity to SiteResponse.
func ToResponse(s JobSite) SiteResponse {
	return SiteResponse{
		ID:           s.ID,
		Name:         s.Name,
		Address:      s.Address,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		RadiusMeters: s.RadiusMeters,
	}
}
