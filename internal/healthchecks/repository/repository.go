package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	healthCheckNotFoundMsg = "health check not found"
	storageUnavailableMsg  = "storage unavailable"
)

// Repository provides database operations for health checks.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new health check repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Compile-time check that Repository implements Store.
var _ Store = (*Repository)(nil)

// unavailable marks a driver failure as retryable for the caller.
func unavailable(op string, err error) error {
	return apperr.Unavailable(storageUnavailableMsg, fmt.Errorf("%s: %w", op, err))
}

// firstOrNil is the single accessor for to-one relations that arrive as row sets.
func firstOrNil[T any](rows []T) *T {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]
	return &first
}

const inspectionColumns = `
	hc.id, hc.organization_id, hc.site_id, hc.technician_id, hc.advisor_id,
	hc.vehicle_reg, hc.status, hc.promised_at, hc.token_expires_at, hc.sent_at,
	hc.tech_started_at, hc.tech_completed_at, hc.due_date, hc.created_at, hc.updated_at,
	hc.deleted_at`

func scanInspection(row pgx.Row) (domain.Inspection, error) {
	var in domain.Inspection
	var status string
	err := row.Scan(
		&in.ID, &in.OrganizationID, &in.SiteID, &in.TechnicianID, &in.AdvisorID,
		&in.VehicleReg, &status, &in.PromisedAt, &in.TokenExpiresAt, &in.SentAt,
		&in.TechStartedAt, &in.TechCompletedAt, &in.DueDate, &in.CreatedAt, &in.UpdatedAt,
		&in.DeletedAt,
	)
	in.Status = domain.Status(status)
	return in, err
}

func collectInspections(rows pgx.Rows) ([]domain.Inspection, error) {
	defer rows.Close()

	items := make([]domain.Inspection, 0)
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, in)
	}
	return items, rows.Err()
}

// GetInspection loads one health check scoped to its organization.
func (r *Repository) GetInspection(ctx context.Context, orgID, id uuid.UUID) (domain.Inspection, error) {
	query := `SELECT ` + inspectionColumns + `
		FROM health_checks hc
		WHERE hc.id = $1 AND hc.organization_id = $2 AND hc.deleted_at IS NULL`

	in, err := scanInspection(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Inspection{}, apperr.NotFound(healthCheckNotFoundMsg)
		}
		return domain.Inspection{}, unavailable("get health check", err)
	}
	return in, nil
}

// ListBoardInspections returns the candidate cards of the workflow board.
func (r *Repository) ListBoardInspections(ctx context.Context, params BoardParams) ([]domain.Inspection, error) {
	excluded := params.ExcludedStatuses
	if excluded == nil {
		excluded = []string{}
	}

	query := `SELECT ` + inspectionColumns + `
		FROM health_checks hc
		WHERE hc.organization_id = $1
			AND hc.deleted_at IS NULL
			AND hc.status <> ALL($2::text[])
			AND ($3::uuid IS NULL OR hc.site_id = $3)
			AND ($4::uuid IS NULL OR hc.technician_id = $4)
			AND ($5::uuid IS NULL OR hc.advisor_id = $5)
		ORDER BY hc.created_at ASC, hc.id ASC`

	rows, err := r.pool.Query(ctx, query, params.OrganizationID, excluded, params.SiteID, params.TechnicianID, params.AdvisorID)
	if err != nil {
		return nil, unavailable("list board health checks", err)
	}
	items, err := collectInspections(rows)
	if err != nil {
		return nil, unavailable("scan board health checks", err)
	}
	return items, nil
}

// ListRepairItems loads the repair tree, selected options and RAG links for the given checks.
// Unknown ids simply yield no rows.
func (r *Repository) ListRepairItems(ctx context.Context, orgID uuid.UUID, healthCheckIDs []uuid.UUID) ([]domain.RepairItem, error) {
	if len(healthCheckIDs) == 0 {
		return []domain.RepairItem{}, nil
	}

	query := `
		SELECT ri.id, ri.health_check_id, ri.parent_id, ri.is_group, ri.selected_option_id,
			ri.labour_total::text, ri.parts_total::text, ri.total_inc_vat::text,
			COALESCE(ri.labour_status, ''), COALESCE(ri.parts_status, ''), COALESCE(ri.outcome_status, ''),
			ri.customer_approved, ri.deleted_at,
			COALESCE(ARRAY_AGG(cr.rag_status) FILTER (WHERE cr.rag_status IS NOT NULL), '{}')
		FROM repair_items ri
		JOIN health_checks hc ON hc.id = ri.health_check_id AND hc.organization_id = $1
		LEFT JOIN repair_item_check_results ricr ON ricr.repair_item_id = ri.id
		LEFT JOIN check_results cr ON cr.id = ricr.check_result_id
		WHERE ri.health_check_id = ANY($2) AND ri.deleted_at IS NULL
		GROUP BY ri.id
		ORDER BY ri.created_at ASC, ri.id ASC`

	rows, err := r.pool.Query(ctx, query, orgID, healthCheckIDs)
	if err != nil {
		return nil, unavailable("list repair items", err)
	}
	defer rows.Close()

	items := make([]domain.RepairItem, 0)
	optionIDs := make([]uuid.UUID, 0)
	selected := make(map[uuid.UUID]uuid.UUID)
	for rows.Next() {
		var (
			it                    domain.RepairItem
			healthCheckID         *uuid.UUID
			selectedOptionID      *uuid.UUID
			labour, parts, incVat *string
			rags                  []string
		)
		if err := rows.Scan(
			&it.ID, &healthCheckID, &it.ParentID, &it.IsGroup, &selectedOptionID,
			&labour, &parts, &incVat,
			&it.LabourStatus, &it.PartsStatus, &it.OutcomeStatus,
			&it.CustomerApproved, &it.DeletedAt,
			&rags,
		); err != nil {
			return nil, unavailable("scan repair item", err)
		}
		if healthCheckID != nil {
			it.HealthCheckID = *healthCheckID
		}
		it.LabourTotal = domain.ParseAmount(deref(labour))
		it.PartsTotal = domain.ParseAmount(deref(parts))
		it.TotalIncVat = domain.ParseAmount(deref(incVat))
		for _, rag := range rags {
			it.RAGs = append(it.RAGs, domain.RAG(rag))
		}
		if selectedOptionID != nil {
			selected[it.ID] = *selectedOptionID
			optionIDs = append(optionIDs, *selectedOptionID)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate repair items", err)
	}

	if len(optionIDs) == 0 {
		return items, nil
	}

	options, err := r.listOptions(ctx, optionIDs)
	if err != nil {
		return nil, err
	}
	for i := range items {
		optionID, ok := selected[items[i].ID]
		if !ok {
			continue
		}
		items[i].SelectedOption = firstOrNil(options[optionID])
	}
	return items, nil
}

func (r *Repository) listOptions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.RepairOption, error) {
	query := `
		SELECT ro.id, ro.labour_total::text, ro.parts_total::text, ro.total_inc_vat::text
		FROM repair_options ro
		WHERE ro.id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, unavailable("list repair options", err)
	}
	defer rows.Close()

	options := make(map[uuid.UUID][]domain.RepairOption)
	for rows.Next() {
		var (
			opt                   domain.RepairOption
			labour, parts, incVat *string
		)
		if err := rows.Scan(&opt.ID, &labour, &parts, &incVat); err != nil {
			return nil, unavailable("scan repair option", err)
		}
		opt.LabourTotal = domain.ParseAmount(deref(labour))
		opt.PartsTotal = domain.ParseAmount(deref(parts))
		opt.TotalIncVat = domain.ParseAmount(deref(incVat))
		options[opt.ID] = append(options[opt.ID], opt)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate repair options", err)
	}
	return options, nil
}

// ListTimeEntries loads clock entries for the given checks.
func (r *Repository) ListTimeEntries(ctx context.Context, orgID uuid.UUID, healthCheckIDs []uuid.UUID) ([]domain.TimeEntry, error) {
	if len(healthCheckIDs) == 0 {
		return []domain.TimeEntry{}, nil
	}

	query := `
		SELECT te.health_check_id, te.technician_id, te.clock_in_at, te.clock_out_at,
			COALESCE(te.duration_minutes, 0)
		FROM time_entries te
		JOIN health_checks hc ON hc.id = te.health_check_id AND hc.organization_id = $1
		WHERE te.health_check_id = ANY($2)
		ORDER BY te.clock_in_at ASC`

	rows, err := r.pool.Query(ctx, query, orgID, healthCheckIDs)
	if err != nil {
		return nil, unavailable("list time entries", err)
	}
	defer rows.Close()

	entries := make([]domain.TimeEntry, 0)
	for rows.Next() {
		var e domain.TimeEntry
		if err := rows.Scan(&e.HealthCheckID, &e.TechnicianID, &e.ClockInAt, &e.ClockOutAt, &e.DurationMinutes); err != nil {
			return nil, unavailable("scan time entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate time entries", err)
	}
	return entries, nil
}

// ListStatusHistory returns the status log of one check, oldest first.
func (r *Repository) ListStatusHistory(ctx context.Context, orgID, healthCheckID uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	query := `
		SELECT h.health_check_id, h.from_status, h.to_status, h.changed_at, h.changed_by
		FROM health_check_status_history h
		JOIN health_checks hc ON hc.id = h.health_check_id AND hc.organization_id = $1
		WHERE h.health_check_id = $2
		ORDER BY h.changed_at ASC, h.id ASC`

	rows, err := r.pool.Query(ctx, query, orgID, healthCheckID)
	if err != nil {
		return nil, unavailable("list status history", err)
	}
	defer rows.Close()

	history := make([]domain.StatusHistoryEntry, 0)
	for rows.Next() {
		var (
			h    domain.StatusHistoryEntry
			from *string
			to   string
		)
		if err := rows.Scan(&h.HealthCheckID, &from, &to, &h.ChangedAt, &h.ChangedBy); err != nil {
			return nil, unavailable("scan status history", err)
		}
		if from != nil {
			s := domain.Status(*from)
			h.FromStatus = &s
		}
		h.ToStatus = domain.Status(to)
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate status history", err)
	}
	return history, nil
}

// ListCohort selects checks whose due date, or creation date when unscheduled, falls in the window.
func (r *Repository) ListCohort(ctx context.Context, params CohortParams) ([]domain.Inspection, error) {
	query := `SELECT ` + inspectionColumns + `
		FROM health_checks hc
		WHERE hc.organization_id = $1
			AND hc.deleted_at IS NULL
			AND ($2::uuid IS NULL OR hc.site_id = $2)
			AND COALESCE(hc.due_date, hc.created_at) BETWEEN $3 AND $4
		ORDER BY hc.created_at ASC`

	rows, err := r.pool.Query(ctx, query, params.OrganizationID, params.SiteID, params.From, params.To)
	if err != nil {
		return nil, unavailable("list kpi cohort", err)
	}
	items, err := collectInspections(rows)
	if err != nil {
		return nil, unavailable("scan kpi cohort", err)
	}
	return items, nil
}

// AdvisorNames resolves display names for advisor ids within the organization.
func (r *Repository) AdvisorNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `
		SELECT u.id, TRIM(CONCAT(u.first_name, ' ', u.last_name))
		FROM users u
		WHERE u.organization_id = $1 AND u.id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, orgID, ids)
	if err != nil {
		return nil, unavailable("list advisor names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, unavailable("scan advisor name", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate advisor names", err)
	}
	return names, nil
}

// UpdateStatus applies a guarded status move and appends the history row in one transaction.
// The move fails with Conflict when the stored status no longer matches change.From.
func (r *Repository) UpdateStatus(ctx context.Context, change StatusChange) (domain.Inspection, error) {
	changedAt := change.ChangedAt
	if changedAt.IsZero() {
		changedAt = time.Now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Inspection{}, unavailable("begin status transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE health_checks hc SET
			status = $4,
			updated_at = $5,
			tech_started_at = CASE WHEN $4 = 'in_progress' AND hc.tech_started_at IS NULL THEN $5 ELSE hc.tech_started_at END,
			tech_completed_at = CASE WHEN $4 = 'tech_completed' THEN $5 ELSE hc.tech_completed_at END,
			sent_at = CASE WHEN $4 = 'sent' AND hc.sent_at IS NULL THEN $5 ELSE hc.sent_at END
		WHERE hc.id = $1 AND hc.organization_id = $2 AND hc.status = $3 AND hc.deleted_at IS NULL
		RETURNING ` + inspectionColumns

	updated, err := scanInspection(tx.QueryRow(ctx, query,
		change.HealthCheckID, change.OrganizationID, string(change.From), string(change.To), changedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Inspection{}, r.explainMissedUpdate(ctx, tx, change)
		}
		return domain.Inspection{}, unavailable("update health check status", err)
	}

	var notes *string
	if change.Notes != "" {
		notes = &change.Notes
	}
	historyQuery := `
		INSERT INTO health_check_status_history (id, health_check_id, from_status, to_status, changed_at, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, historyQuery,
		uuid.New(), change.HealthCheckID, string(change.From), string(change.To), changedAt, change.ChangedBy, notes); err != nil {
		return domain.Inspection{}, unavailable("insert status history", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Inspection{}, unavailable("commit status transaction", err)
	}
	return updated, nil
}

// explainMissedUpdate distinguishes a missing check from a concurrent status change.
func (r *Repository) explainMissedUpdate(ctx context.Context, tx pgx.Tx, change StatusChange) error {
	var current string
	err := tx.QueryRow(ctx,
		`SELECT status FROM health_checks WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`,
		change.HealthCheckID, change.OrganizationID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(healthCheckNotFoundMsg)
	}
	if err != nil {
		return unavailable("reload health check status", err)
	}
	return apperr.Conflict(fmt.Sprintf("health check status changed to %s", current)).
		WithDetails(map[string]string{"currentStatus": current})
}

// ListOrganizationsWithOpenChecks returns organizations that have live checks with SLA dates.
func (r *Repository) ListOrganizationsWithOpenChecks(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT hc.organization_id
		FROM health_checks hc
		WHERE hc.deleted_at IS NULL
			AND (hc.promised_at IS NOT NULL OR hc.token_expires_at IS NOT NULL)`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, unavailable("list organizations", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan organization", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate organizations", err)
	}
	return ids, nil
}

// ListSLACandidates returns non-excluded checks that are overdue or whose link expires before horizon.
func (r *Repository) ListSLACandidates(ctx context.Context, orgID uuid.UUID, excluded []string, horizon time.Time) ([]domain.Inspection, error) {
	if excluded == nil {
		excluded = []string{}
	}

	query := `SELECT ` + inspectionColumns + `
		FROM health_checks hc
		WHERE hc.organization_id = $1
			AND hc.deleted_at IS NULL
			AND hc.status <> ALL($2::text[])
			AND (hc.promised_at < $3 OR hc.token_expires_at < $3)
		ORDER BY hc.created_at ASC`

	rows, err := r.pool.Query(ctx, query, orgID, excluded, horizon)
	if err != nil {
		return nil, unavailable("list sla candidates", err)
	}
	items, err := collectInspections(rows)
	if err != nil {
		return nil, unavailable("scan sla candidates", err)
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
