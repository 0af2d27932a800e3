package audit

import "context"

// TrailRepository is the append-only audit store. No update or delete is
// exposed anywhere on this surface. Append must be durable before the
// triggering clock operation is considered complete, so callers run it inside
// the same transaction as the session write.
type TrailRepository interface {
	// Append writes one record
	Append(ctx context.Context, record AuditRecord) (AuditRecord, error)

	// Query retrieves records ordered by occurrence
	Query(ctx context.Context, filter Filter) ([]AuditRecord, int64, error)
}
