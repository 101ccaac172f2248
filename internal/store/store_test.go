package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() { a.mock.Close() }

func (a *pgxMockAdapter) Ping(ctx context.Context) error { return a.mock.Ping(ctx) }

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *RequestStore) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock, New(&pgxMockAdapter{mock: mock})
}

func TestRequestStore_Create(t *testing.T) {
	mock, s := setupMockDB(t)
	defer mock.Close()

	now := time.Now()
	req := &domain.OptimizationRequest{
		TenantID: 1, RouteName: "morning-run", DepotID: 5,
		JobIDs: []int64{10, 11}, DriverIDs: []int64{20},
		ScheduledDate: now, Goal: domain.GoalMinTime, Status: domain.RequestStatusQueued,
	}

	rows := pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now)
	mock.ExpectQuery(`INSERT INTO optimization_requests`).
		WithArgs(req.TenantID, req.RouteName, req.DepotID, req.JobIDs, req.DriverIDs,
			req.ScheduledDate, string(req.Goal), string(req.Status)).
		WillReturnRows(rows)

	err := s.Create(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(1), req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestStore_UpdateStatus_InvalidTransition(t *testing.T) {
	mock, s := setupMockDB(t)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "route_name", "depot_id", "job_ids", "driver_ids",
		"scheduled_date", "goal", "status", "started_at", "completed_at",
		"error_message", "result", "created_at", "updated_at",
	}).AddRow(
		int64(1), int64(1), "run", int64(5), []int64{10}, []int64{20},
		now, "min_time", "completed", nil, nil, nil, []byte(nil), now, now,
	)
	mock.ExpectQuery(`SELECT id, tenant_id`).WithArgs(int64(1), int64(1)).WillReturnRows(rows)

	err := s.UpdateStatus(t.Context(), 1, 1, domain.RequestStatusProcessing)
	if apperror.Code(err) != apperror.CodeValidation {
		t.Fatalf("expected CodeValidation for completed->processing, got %v", err)
	}
}

func TestRequestStore_MarkFailed(t *testing.T) {
	mock, s := setupMockDB(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE optimization_requests`).
		WithArgs(string(domain.RequestStatusFailed), "boom", int64(1), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.MarkFailed(t.Context(), 1, 1, "boom")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
