// Package persister implements the Route Persister (§4.6): it writes a
// solved request's routes and stops, and assigns jobs to their driver and
// route, as a single atomic transaction over pkg/database.WithTransaction.
package persister

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/database"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// Persister writes the formatted result of a solved request.
type Persister struct {
	db database.DB
}

// New constructs a Persister over db.
func New(db database.DB) *Persister {
	return &Persister{db: db}
}

// Persist writes one Route and its RouteStops per route in result, and
// assigns every stopped-at job to its driver and route in a single bulk
// UPDATE. The whole write is one transaction: any failure rolls everything
// back and no partial route is left behind.
func (p *Persister) Persist(ctx context.Context, tenantID, optimizationRequestID, depotID int64, result *domain.OptimizationResult) error {
	ctx, span := telemetry.StartSpan(ctx, "Persister.Persist")
	defer span.End()

	err := database.WithTransaction(ctx, p.db, func(tx pgx.Tx) error {
		assignments := make(map[int64]jobAssignment)

		for _, route := range result.Routes {
			routeID, err := insertRoute(ctx, tx, tenantID, optimizationRequestID, depotID, route)
			if err != nil {
				return err
			}
			if err := insertStops(ctx, tx, routeID, route.Stops); err != nil {
				return err
			}
			for _, stop := range route.Stops {
				if stop.StopType != domain.StopTypeJob || stop.JobID == nil {
					continue
				}
				assignments[*stop.JobID] = jobAssignment{driverID: route.DriverID, routeID: routeID}
			}
		}

		if len(assignments) == 0 {
			return nil
		}
		return assignJobs(ctx, tx, tenantID, assignments)
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return apperror.Wrap(err, apperror.CodePersistence, "failed to persist optimization result")
	}
	return nil
}

type jobAssignment struct {
	driverID int64
	routeID  int64
}

func insertRoute(ctx context.Context, tx pgx.Tx, tenantID, optimizationRequestID, depotID int64, route domain.FormattedRoute) (int64, error) {
	query := `
		INSERT INTO routes (
			tenant_id, optimization_request_id, driver_id, vehicle_id, depot_id,
			status, total_distance_meters, total_duration_seconds,
			total_distance_saved_meters, total_time_saved_seconds, polyline
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var routeID int64
	err := tx.QueryRow(ctx, query,
		tenantID, optimizationRequestID, route.DriverID, route.VehicleID, depotID,
		string(domain.RouteStatusPlanned), route.TotalDistanceMeters, route.TotalDurationSeconds,
		route.TotalDistanceSavedM, route.TotalTimeSavedSeconds, route.Polyline,
	).Scan(&routeID)
	if err != nil {
		return 0, fmt.Errorf("insert route for driver %d: %w", route.DriverID, err)
	}
	return routeID, nil
}

func insertStops(ctx context.Context, tx pgx.Tx, routeID int64, stops []domain.FormattedStop) error {
	query := `
		INSERT INTO route_stops (
			route_id, job_id, sequence_order, stop_type,
			planned_arrival_time, planned_departure_time
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, stop := range stops {
		if _, err := tx.Exec(ctx, query,
			routeID, stop.JobID, stop.SequenceOrder, string(stop.StopType),
			stop.ArrivalTime, stop.DepartureTime,
		); err != nil {
			return fmt.Errorf("insert route_stop at sequence %d of route %d: %w", stop.SequenceOrder, routeID, err)
		}
	}
	return nil
}

// assignJobs writes every job's new driver and route in a single statement
// using a CASE-by-id update, so the whole batch commits or fails together
// rather than as N separate round trips.
func assignJobs(ctx context.Context, tx pgx.Tx, tenantID int64, assignments map[int64]jobAssignment) error {
	ids := make([]int64, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}

	var driverCase, routeCase strings.Builder
	driverCase.WriteString("CASE id ")
	routeCase.WriteString("CASE id ")
	args := make([]any, 0, len(ids)*2+2)
	argPos := 1
	for _, id := range ids {
		a := assignments[id]
		driverCase.WriteString(fmt.Sprintf("WHEN $%d THEN $%d::bigint ", argPos, argPos+1))
		args = append(args, id, a.driverID)
		argPos += 2
	}
	for _, id := range ids {
		a := assignments[id]
		routeCase.WriteString(fmt.Sprintf("WHEN $%d THEN $%d::bigint ", argPos, argPos+1))
		args = append(args, id, a.routeID)
		argPos += 2
	}
	driverCase.WriteString("END")
	routeCase.WriteString("END")

	idPlaceholders := make([]string, len(ids))
	idArgs := make([]any, len(ids))
	for i, id := range ids {
		idPlaceholders[i] = fmt.Sprintf("$%d", argPos)
		idArgs[i] = id
		argPos++
	}
	args = append(args, idArgs...)
	args = append(args, tenantID)

	query := fmt.Sprintf(`
		UPDATE jobs
		SET status = 'assigned',
			assigned_to = %s,
			route_id = %s
		WHERE id IN (%s) AND tenant_id = $%d
	`, driverCase.String(), routeCase.String(), strings.Join(idPlaceholders, ", "), argPos)

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk job assignment: %w", err)
	}
	return nil
}
