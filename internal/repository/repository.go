// Package repository provides Postgres-backed readers for the entities
// the Data Loader consumes: depots, jobs, drivers, and vehicles. Locations
// are stored as PostGIS geography(Point,4326) and converted to/from
// domain.Point via ST_X/ST_Y, per the data model's "Outbound" convention.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/optimizer/pkg/database"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// ErrNotFound is returned when a single-entity lookup finds no row.
var ErrNotFound = errors.New("entity not found")

// DepotRepository reads tenant-scoped depots.
type DepotRepository struct{ db database.DB }

// NewDepotRepository constructs a DepotRepository.
func NewDepotRepository(db database.DB) *DepotRepository { return &DepotRepository{db: db} }

// GetDepot reads a single depot scoped to tenantID.
func (r *DepotRepository) GetDepot(ctx context.Context, tenantID, depotID int64) (*domain.Depot, error) {
	ctx, span := telemetry.StartSpan(ctx, "DepotRepository.GetDepot")
	defer span.End()

	query := `
		SELECT id, tenant_id, name, ST_X(location::geometry), ST_Y(location::geometry), address
		FROM depots
		WHERE id = $1 AND tenant_id = $2
	`
	depot := &domain.Depot{}
	err := r.db.QueryRow(ctx, query, depotID, tenantID).Scan(
		&depot.ID, &depot.TenantID, &depot.Name, &depot.Location.Lng, &depot.Location.Lat, &depot.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to load depot %d: %w", depotID, err)
	}
	return depot, nil
}

// JobRepository reads tenant-scoped jobs.
type JobRepository struct{ db database.DB }

// NewJobRepository constructs a JobRepository.
func NewJobRepository(db database.DB) *JobRepository { return &JobRepository{db: db} }

// GetJobsByIDs reads every job in jobIDs scoped to tenantID. Jobs that
// don't exist are simply absent from the result; the loader treats a
// missing ID as a validation error.
func (r *JobRepository) GetJobsByIDs(ctx context.Context, tenantID int64, jobIDs []int64) ([]*domain.Job, error) {
	ctx, span := telemetry.StartSpan(ctx, "JobRepository.GetJobsByIDs")
	defer span.End()

	if len(jobIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, tenant_id, status, scheduled_date,
			ST_X(location::geometry), ST_Y(location::geometry), address,
			time_window_start, time_window_end, service_duration_minutes,
			priority, assigned_to, route_id
		FROM jobs
		WHERE tenant_id = $1 AND id = ANY($2)
	`
	rows, err := r.db.Query(ctx, query, tenantID, jobIDs)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job := &domain.Job{}
		var status, priority string
		var timeWindowStart, timeWindowEnd pgtype.Int8
		var serviceDuration pgtype.Int4
		var assignedTo, routeID pgtype.Int8

		if err := rows.Scan(
			&job.ID, &job.TenantID, &status, &job.ScheduledDate,
			&job.Location.Lng, &job.Location.Lat, &job.Address,
			&timeWindowStart, &timeWindowEnd, &serviceDuration,
			&priority, &assignedTo, &routeID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		job.Status = domain.JobStatus(status)
		job.Priority = domain.Priority(priority)
		if timeWindowStart.Valid {
			job.TimeWindowStart = &timeWindowStart.Int64
		}
		if timeWindowEnd.Valid {
			job.TimeWindowEnd = &timeWindowEnd.Int64
		}
		if serviceDuration.Valid {
			v := serviceDuration.Int32
			job.ServiceDurationMinutes = &v
		}
		if assignedTo.Valid {
			job.AssignedTo = &assignedTo.Int64
		}
		if routeID.Valid {
			job.RouteID = &routeID.Int64
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// DriverRepository reads tenant-scoped drivers.
type DriverRepository struct{ db database.DB }

// NewDriverRepository constructs a DriverRepository.
func NewDriverRepository(db database.DB) *DriverRepository { return &DriverRepository{db: db} }

// GetDriversByIDs reads every driver in driverIDs scoped to tenantID.
func (r *DriverRepository) GetDriversByIDs(ctx context.Context, tenantID int64, driverIDs []int64) ([]*domain.Driver, error) {
	ctx, span := telemetry.StartSpan(ctx, "DriverRepository.GetDriversByIDs")
	defer span.End()

	if len(driverIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, tenant_id, vehicle_id, work_start_time, work_end_time,
			allowed_overtime, max_distance_km, break_time_start, break_time_end,
			break_duration_minutes, skills
		FROM drivers
		WHERE tenant_id = $1 AND id = ANY($2)
	`
	rows, err := r.db.Query(ctx, query, tenantID, driverIDs)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to load drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		d := &domain.Driver{}
		var vehicleID, workStart, workEnd, breakStart, breakEnd pgtype.Int8
		var breakDuration pgtype.Int4
		var maxDistanceKm pgtype.Float8

		if err := rows.Scan(
			&d.ID, &d.TenantID, &vehicleID, &workStart, &workEnd,
			&d.AllowedOvertime, &maxDistanceKm, &breakStart, &breakEnd,
			&breakDuration, &d.Skills,
		); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}

		if vehicleID.Valid {
			d.VehicleID = &vehicleID.Int64
		}
		if workStart.Valid {
			d.WorkStartTime = &workStart.Int64
		}
		if workEnd.Valid {
			d.WorkEndTime = &workEnd.Int64
		}
		if maxDistanceKm.Valid {
			d.MaxDistanceKm = &maxDistanceKm.Float64
		}
		if breakStart.Valid {
			d.BreakTimeStart = &breakStart.Int64
		}
		if breakEnd.Valid {
			d.BreakTimeEnd = &breakEnd.Int64
		}
		if breakDuration.Valid {
			v := breakDuration.Int32
			d.BreakDurationMinutes = &v
		}
		drivers = append(drivers, d)
	}
	return drivers, nil
}

// VehicleRepository reads tenant-scoped vehicles.
type VehicleRepository struct{ db database.DB }

// NewVehicleRepository constructs a VehicleRepository.
func NewVehicleRepository(db database.DB) *VehicleRepository { return &VehicleRepository{db: db} }

// GetVehiclesByIDs reads every vehicle in vehicleIDs scoped to tenantID.
func (r *VehicleRepository) GetVehiclesByIDs(ctx context.Context, tenantID int64, vehicleIDs []int64) ([]*domain.Vehicle, error) {
	ctx, span := telemetry.StartSpan(ctx, "VehicleRepository.GetVehiclesByIDs")
	defer span.End()

	if len(vehicleIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, tenant_id, type, capacity_weight, capacity_volume
		FROM vehicles
		WHERE tenant_id = $1 AND id = ANY($2)
	`
	rows, err := r.db.Query(ctx, query, tenantID, vehicleIDs)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to load vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		v := &domain.Vehicle{}
		var vType string
		var capacityWeight, capacityVolume pgtype.Float8

		if err := rows.Scan(&v.ID, &v.TenantID, &vType, &capacityWeight, &capacityVolume); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		v.Type = domain.VehicleType(vType)
		if capacityWeight.Valid {
			v.CapacityWeight = &capacityWeight.Float64
		}
		if capacityVolume.Valid {
			v.CapacityVolume = &capacityVolume.Float64
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}
