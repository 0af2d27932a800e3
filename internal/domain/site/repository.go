package site

import "context"

// SiteRepository defines read access to job site records. Site CRUD lives in
// the administration service, not here.
type SiteRepository interface {
	// GetByID retrieves a job site by ID
	GetByID(ctx context.Context, id string) (JobSite, error)

	// List retrieves all active job sites
	List(ctx context.Context) ([]JobSite, error)
}
