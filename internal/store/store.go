// Package store implements the Request Store (§4.7): a Postgres-backed
// repository for durable OptimizationRequest rows, grounded on the
// teacher's audit-log repository (parameterized queries over a
// database.DB so tests can substitute pgxmock).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/database"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// ErrRequestNotFound is returned when a lookup by ID finds no row.
var ErrRequestNotFound = apperror.New(apperror.CodeNotFound, "optimization request not found")

// RequestStore persists and retrieves optimization requests.
type RequestStore struct {
	db database.DB
}

// New constructs a RequestStore over db.
func New(db database.DB) *RequestStore {
	return &RequestStore{db: db}
}

// Create inserts req and populates its ID, CreatedAt, UpdatedAt from the
// database defaults.
func (s *RequestStore) Create(ctx context.Context, req *domain.OptimizationRequest) error {
	ctx, span := telemetry.StartSpan(ctx, "RequestStore.Create")
	defer span.End()

	query := `
		INSERT INTO optimization_requests (
			tenant_id, route_name, depot_id, job_ids, driver_ids,
			scheduled_date, goal, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		req.TenantID, req.RouteName, req.DepotID, req.JobIDs, req.DriverIDs,
		req.ScheduledDate, string(req.Goal), string(req.Status),
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return apperror.Wrap(err, apperror.CodePersistence, "failed to create optimization request")
	}
	return nil
}

// Delete removes a request row outright; used by the Submitter to
// compensate for a failed enqueue so no orphaned "queued" row lingers.
func (s *RequestStore) Delete(ctx context.Context, tenantID, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM optimization_requests WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePersistence, "failed to delete optimization request")
	}
	return nil
}

// GetByID fetches one request scoped to tenantID.
func (s *RequestStore) GetByID(ctx context.Context, tenantID, id int64) (*domain.OptimizationRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "RequestStore.GetByID")
	defer span.End()

	query := `
		SELECT id, tenant_id, route_name, depot_id, job_ids, driver_ids,
			scheduled_date, goal, status, started_at, completed_at,
			error_message, result, created_at, updated_at
		FROM optimization_requests
		WHERE id = $1 AND tenant_id = $2
	`
	row := s.db.QueryRow(ctx, query, id, tenantID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		telemetry.RecordError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodePersistence, "failed to load optimization request")
	}
	return req, nil
}

// GetByIDUnscoped fetches one request by ID alone, without a tenant filter.
// The worker queue's payload is just the request ID (§4.7); the
// Orchestrator uses this to resolve a claimed ID's tenant before any
// further, tenant-scoped operation.
func (s *RequestStore) GetByIDUnscoped(ctx context.Context, id int64) (*domain.OptimizationRequest, error) {
	query := `
		SELECT id, tenant_id, route_name, depot_id, job_ids, driver_ids,
			scheduled_date, goal, status, started_at, completed_at,
			error_message, result, created_at, updated_at
		FROM optimization_requests
		WHERE id = $1
	`
	row := s.db.QueryRow(ctx, query, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.CodePersistence, "failed to load optimization request")
	}
	return req, nil
}

// UpdateStatus transitions a request's status, enforcing the state
// machine in domain.RequestStatus.CanTransitionTo before writing.
func (s *RequestStore) UpdateStatus(ctx context.Context, tenantID, id int64, next domain.RequestStatus) error {
	req, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !req.Status.CanTransitionTo(next) {
		return apperror.New(apperror.CodeValidation, fmt.Sprintf("cannot transition request %d from %s to %s", id, req.Status, next))
	}

	query := `UPDATE optimization_requests SET status = $1, updated_at = now() WHERE id = $2 AND tenant_id = $3`
	if _, err := s.db.Exec(ctx, query, string(next), id, tenantID); err != nil {
		return apperror.Wrap(err, apperror.CodePersistence, "failed to update request status")
	}
	return nil
}

// MarkProcessing records the claim timestamp and transitions to processing.
func (s *RequestStore) MarkProcessing(ctx context.Context, tenantID, id int64) error {
	query := `
		UPDATE optimization_requests
		SET status = $1, started_at = now(), updated_at = now()
		WHERE id = $2 AND tenant_id = $3
	`
	_, err := s.db.Exec(ctx, query, string(domain.RequestStatusProcessing), id, tenantID)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePersistence, "failed to mark request processing")
	}
	return nil
}

// MarkCompleted stores the formatted result and transitions to completed.
func (s *RequestStore) MarkCompleted(ctx context.Context, tenantID, id int64, result *domain.OptimizationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte("{}")
	}
	query := `
		UPDATE optimization_requests
		SET status = $1, result = $2, completed_at = now(), updated_at = now()
		WHERE id = $3 AND tenant_id = $4
	`
	_, err = s.db.Exec(ctx, query, string(domain.RequestStatusCompleted), resultJSON, id, tenantID)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePersistence, "failed to mark request completed")
	}
	return nil
}

// MarkFailed records errMessage and transitions to failed.
func (s *RequestStore) MarkFailed(ctx context.Context, tenantID, id int64, errMessage string) error {
	query := `
		UPDATE optimization_requests
		SET status = $1, error_message = $2, completed_at = now(), updated_at = now()
		WHERE id = $3 AND tenant_id = $4
	`
	_, err := s.db.Exec(ctx, query, string(domain.RequestStatusFailed), errMessage, id, tenantID)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePersistence, "failed to mark request failed")
	}
	return nil
}

// ListStaleProcessing returns requests stuck in "processing" whose
// started_at predates the given visibility timeout, for the stale-request
// sweeper (§4.7, §5).
func (s *RequestStore) ListStaleProcessing(ctx context.Context, olderThanSeconds int64) ([]*domain.OptimizationRequest, error) {
	query := `
		SELECT id, tenant_id, route_name, depot_id, job_ids, driver_ids,
			scheduled_date, goal, status, started_at, completed_at,
			error_message, result, created_at, updated_at
		FROM optimization_requests
		WHERE status = $1 AND started_at < now() - ($2 || ' seconds')::interval
	`
	rows, err := s.db.Query(ctx, query, string(domain.RequestStatusProcessing), olderThanSeconds)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodePersistence, "failed to list stale requests")
	}
	defer rows.Close()

	var out []*domain.OptimizationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodePersistence, "failed to scan stale request")
		}
		out = append(out, req)
	}
	return out, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.OptimizationRequest, error) {
	req := &domain.OptimizationRequest{}
	var goal, status string
	var errorMessage pgtype.Text
	var startedAt, completedAt pgtype.Timestamptz
	var resultJSON []byte

	err := row.Scan(
		&req.ID, &req.TenantID, &req.RouteName, &req.DepotID, &req.JobIDs, &req.DriverIDs,
		&req.ScheduledDate, &goal, &status, &startedAt, &completedAt,
		&errorMessage, &resultJSON, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Goal = domain.Goal(goal)
	req.Status = domain.RequestStatus(status)
	req.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		req.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		req.CompletedAt = &t
	}
	if len(resultJSON) > 0 {
		var result domain.OptimizationResult
		if err := json.Unmarshal(resultJSON, &result); err == nil {
			req.Result = &result
		}
	}

	return req, nil
}
