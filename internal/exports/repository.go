package exports

import (
	"context"
	"fmt"
	"time"

	"vhc_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Export kinds recorded in the export log.
const (
	KindBoardXLSX = "board.xlsx"
	KindBoardCSV  = "board.csv"
	KindKPIXLSX   = "kpis.xlsx"
)

// ExportRecord is one row of the export log.
type ExportRecord struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Kind           string     `json:"kind"`
	RowCount       int        `json:"rowCount"`
	ExportedBy     *uuid.UUID `json:"exportedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Repository provides data access for the export log.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordExport appends an entry to the export log.
func (r *Repository) RecordExport(ctx context.Context, rec ExportRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO export_log (id, organization_id, kind, row_count, exported_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.OrganizationID, rec.Kind, rec.RowCount, rec.ExportedBy, rec.CreatedAt)
	if err != nil {
		return apperr.Unavailable("storage unavailable", fmt.Errorf("record export: %w", err))
	}
	return nil
}

// ListExports returns the most recent exports of an organization.
func (r *Repository) ListExports(ctx context.Context, orgID uuid.UUID, limit int) ([]ExportRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, kind, row_count, exported_by, created_at
		FROM export_log
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, apperr.Unavailable("storage unavailable", fmt.Errorf("list exports: %w", err))
	}
	defer rows.Close()

	items := make([]ExportRecord, 0)
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.Kind, &rec.RowCount, &rec.ExportedBy, &rec.CreatedAt); err != nil {
			return nil, apperr.Unavailable("storage unavailable", fmt.Errorf("scan export: %w", err))
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("storage unavailable", fmt.Errorf("iterate exports: %w", err))
	}
	return items, nil
}

// DeleteExportsBefore prunes export log entries created before the cutoff.
func (r *Repository) DeleteExportsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM export_log WHERE created_at < $1`, before)
	if err != nil {
		return 0, apperr.Unavailable("storage unavailable", fmt.Errorf("prune exports: %w", err))
	}
	return tag.RowsAffected(), nil
}
