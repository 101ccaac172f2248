// Package loader implements the Data Loader component (§4.2): given a
// request's (tenant, depot, job, driver) references, it reads and validates
// the entities and produces a normalized domain.Problem ready for the
// constraint model and solver.
package loader

import (
	"context"
	"fmt"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

// DepotReader reads a single tenant-scoped depot.
type DepotReader interface {
	GetDepot(ctx context.Context, tenantID, depotID int64) (*domain.Depot, error)
}

// JobReader reads a set of tenant-scoped jobs by ID.
type JobReader interface {
	GetJobsByIDs(ctx context.Context, tenantID int64, jobIDs []int64) ([]*domain.Job, error)
}

// DriverReader reads a set of tenant-scoped drivers by ID; their vehicles are read through VehicleReader.
type DriverReader interface {
	GetDriversByIDs(ctx context.Context, tenantID int64, driverIDs []int64) ([]*domain.Driver, error)
}

// VehicleReader reads tenant-scoped vehicles by ID.
type VehicleReader interface {
	GetVehiclesByIDs(ctx context.Context, tenantID int64, vehicleIDs []int64) ([]*domain.Vehicle, error)
}

// Loader implements the Data Loader against a set of entity repositories.
type Loader struct {
	depots   DepotReader
	jobs     JobReader
	drivers  DriverReader
	vehicles VehicleReader
}

// New constructs a Loader from its entity repositories.
func New(depots DepotReader, jobs JobReader, drivers DriverReader, vehicles VehicleReader) *Loader {
	return &Loader{depots: depots, jobs: jobs, drivers: drivers, vehicles: vehicles}
}

// Load reads and validates a request's depot, jobs, and drivers (with their
// vehicles), all scoped to tenantID, and returns the normalized Problem the
// solver consumes. It fails with CodeValidation when any invariant listed in
// §4.2 is violated.
func (l *Loader) Load(ctx context.Context, req *domain.OptimizationRequest) (*domain.Problem, error) {
	errs := apperror.NewValidationErrors()

	depot, err := l.depots.GetDepot(ctx, req.TenantID, req.DepotID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeValidation, fmt.Sprintf("depot %d not found", req.DepotID))
	}
	if (depot.Location == domain.Point{}) {
		errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, "depot has no location", "depot.location"))
	}

	if len(req.JobIDs) == 0 {
		errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, "request has no jobs", "job_ids"))
	}
	if len(req.DriverIDs) == 0 {
		errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, "request has no drivers", "driver_ids"))
	}

	jobs, err := l.jobs.GetJobsByIDs(ctx, req.TenantID, req.JobIDs)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeValidation, "failed to load jobs")
	}
	jobsByID := make(map[int64]*domain.Job, len(jobs))
	for _, j := range jobs {
		jobsByID[j.ID] = j
	}

	jobViews := make([]domain.JobView, 0, len(req.JobIDs))
	index := 1
	for _, id := range req.JobIDs {
		job, ok := jobsByID[id]
		if !ok {
			errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, fmt.Sprintf("job %d not found", id), "job_ids"))
			continue
		}
		if job.Status != domain.JobStatusDraft {
			continue
		}
		if (job.Location == domain.Point{}) {
			errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, fmt.Sprintf("job %d has no location", id), "job_ids"))
			continue
		}
		jobViews = append(jobViews, domain.JobView{
			ID:              job.ID,
			Index:           index,
			Location:        job.Location,
			Address:         job.Address,
			TimeWindowStart: job.TimeWindowStart,
			TimeWindowEnd:   job.TimeWindowEnd,
			ServiceSeconds:  job.ServiceSeconds(),
			Priority:        job.Priority,
		})
		index++
	}
	if len(req.JobIDs) > 0 && len(jobViews) == 0 {
		errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, "request has no eligible draft jobs", "job_ids"))
	}

	drivers, err := l.drivers.GetDriversByIDs(ctx, req.TenantID, req.DriverIDs)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeValidation, "failed to load drivers")
	}
	driversByID := make(map[int64]*domain.Driver, len(drivers))
	for _, d := range drivers {
		driversByID[d.ID] = d
	}

	vehicleIDs := make([]int64, 0, len(drivers))
	for _, d := range drivers {
		if d.VehicleID != nil {
			vehicleIDs = append(vehicleIDs, *d.VehicleID)
		}
	}
	var vehiclesByID map[int64]*domain.Vehicle
	if len(vehicleIDs) > 0 {
		vehicles, vErr := l.vehicles.GetVehiclesByIDs(ctx, req.TenantID, vehicleIDs)
		if vErr != nil {
			return nil, apperror.Wrap(vErr, apperror.CodeValidation, "failed to load vehicles")
		}
		vehiclesByID = make(map[int64]*domain.Vehicle, len(vehicles))
		for _, v := range vehicles {
			vehiclesByID[v.ID] = v
		}
	}

	driverViews := make([]domain.DriverView, 0, len(req.DriverIDs))
	vehiclesByDriver := make(map[int64]*domain.VehicleView, len(req.DriverIDs))
	for _, id := range req.DriverIDs {
		driver, ok := driversByID[id]
		if !ok {
			errs.Errors = append(errs.Errors, apperror.NewWithField(apperror.CodeValidation, fmt.Sprintf("driver %d not found", id), "driver_ids"))
			continue
		}

		view := domain.DriverView{
			ID:              driver.ID,
			AllowedOvertime: driver.AllowedOvertime,
			MaxDistanceKm:   driver.MaxDistanceKm,
			Skills:          driver.Skills,
		}
		if driver.WorkStartTime != nil {
			view.WorkStartTime = *driver.WorkStartTime
		}
		if driver.WorkEndTime != nil {
			view.WorkEndTime = *driver.WorkEndTime
		}
		if driver.HasBreakWindow() {
			view.BreakStart = driver.BreakTimeStart
			view.BreakEnd = driver.BreakTimeEnd
			view.BreakDuration = int64(*driver.BreakDurationMinutes) * 60
		}
		driverViews = append(driverViews, view)

		if driver.VehicleID != nil {
			if vehicle, ok := vehiclesByID[*driver.VehicleID]; ok {
				vehiclesByDriver[driver.ID] = &domain.VehicleView{ID: vehicle.ID, Type: vehicle.Type}
			}
		}
	}

	if len(errs.Errors) > 0 {
		combined := apperror.New(apperror.CodeValidation, fmt.Sprintf("request %d failed validation with %d error(s)", req.ID, len(errs.Errors)))
		for i, e := range errs.Errors {
			combined = combined.WithDetails(fmt.Sprintf("error_%d", i), e.Error())
		}
		return nil, combined
	}

	return &domain.Problem{
		TenantID: req.TenantID,
		Depot: domain.DepotView{
			ID:       depot.ID,
			Location: depot.Location,
			Address:  depot.Address,
		},
		Jobs:             jobViews,
		Drivers:          driverViews,
		VehiclesByDriver: vehiclesByDriver,
		ScheduledDate:    req.ScheduledDate,
		Goal:             req.Goal,
	}, nil
}
