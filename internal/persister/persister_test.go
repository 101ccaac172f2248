package persister

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

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

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *Persister) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock, New(&pgxMockAdapter{mock: mock})
}

func sampleResult() *domain.OptimizationResult {
	jobID := int64(10)
	return &domain.OptimizationResult{
		Routes: []domain.FormattedRoute{
			{
				DriverID:             100,
				TotalDistanceMeters:  1000,
				TotalDurationSeconds: 600,
				Stops: []domain.FormattedStop{
					{SequenceOrder: 0, StopType: domain.StopTypeDepotStart},
					{SequenceOrder: 1, StopType: domain.StopTypeJob, JobID: &jobID},
					{SequenceOrder: 2, StopType: domain.StopTypeDepotEnd},
				},
			},
		},
	}
}

func TestPersist_CommitsAllWritesInOneTransaction(t *testing.T) {
	mock, p := setupMockDB(t)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(`INSERT INTO routes`).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(500)))
	mock.ExpectExec(`INSERT INTO route_stops`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO route_stops`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO route_stops`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE jobs`).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := p.Persist(t.Context(), 1, 42, 7, sampleResult())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersist_RollsBackOnFailure(t *testing.T) {
	mock, p := setupMockDB(t)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(`INSERT INTO routes`).WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	err := p.Persist(t.Context(), 1, 42, 7, sampleResult())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
