package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/site"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type siteRepository struct {
	db *database.DB
}

func NewSiteRepository(db *database.DB) site.SiteRepository {
	return &siteRepository{db: db}
}

// GetByID implements site.SiteRepository.
func (r *siteRepository) GetByID(ctx context.Context, id string) (site.JobSite, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, address, latitude, longitude, radius_m, active, created_at, updated_at
		FROM job_sites
		WHERE id = $1
	`

	var s site.JobSite
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.RadiusMeters, &s.Active,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return site.JobSite{}, site.ErrSiteNotFound
		}
		return site.JobSite{}, fmt.Errorf("failed to get job site by ID: %w", err)
	}

	return s, nil
}

// List implements site.SiteRepository.
func (r *siteRepository) List(ctx context.Context) ([]site.JobSite, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, address, latitude, longitude, radius_m, active, created_at, updated_at
		FROM job_sites
		WHERE active
		ORDER BY name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list job sites: %w", err)
	}
	defer rows.Close()

	var sites []site.JobSite
	for rows.Next() {
		var s site.JobSite
		err := rows.Scan(
			&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.RadiusMeters, &s.Active,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job site: %w", err)
		}
		sites = append(sites, s)
	}

	return sites, rows.Err()
}
