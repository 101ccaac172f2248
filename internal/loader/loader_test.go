package loader

import (
	"context"
	"testing"
	"time"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

type fakeDepots struct {
	depot *domain.Depot
	err   error
}

func (f *fakeDepots) GetDepot(ctx context.Context, tenantID, depotID int64) (*domain.Depot, error) {
	return f.depot, f.err
}

type fakeJobs struct {
	jobs []*domain.Job
	err  error
}

func (f *fakeJobs) GetJobsByIDs(ctx context.Context, tenantID int64, jobIDs []int64) ([]*domain.Job, error) {
	return f.jobs, f.err
}

type fakeDrivers struct {
	drivers []*domain.Driver
	err     error
}

func (f *fakeDrivers) GetDriversByIDs(ctx context.Context, tenantID int64, driverIDs []int64) ([]*domain.Driver, error) {
	return f.drivers, f.err
}

type fakeVehicles struct {
	vehicles []*domain.Vehicle
	err      error
}

func (f *fakeVehicles) GetVehiclesByIDs(ctx context.Context, tenantID int64, vehicleIDs []int64) ([]*domain.Vehicle, error) {
	return f.vehicles, f.err
}

func validFixtures() (*fakeDepots, *fakeJobs, *fakeDrivers, *fakeVehicles) {
	depot := &domain.Depot{ID: 1, TenantID: 1, Location: domain.Point{Lng: 10, Lat: 20}}
	job := &domain.Job{ID: 100, TenantID: 1, Status: domain.JobStatusDraft, Location: domain.Point{Lng: 11, Lat: 21}, Priority: domain.PriorityHigh}
	vehicleID := int64(500)
	driver := &domain.Driver{ID: 200, TenantID: 1, VehicleID: &vehicleID}
	vehicle := &domain.Vehicle{ID: 500, TenantID: 1, Type: domain.VehicleCar}
	return &fakeDepots{depot: depot}, &fakeJobs{jobs: []*domain.Job{job}}, &fakeDrivers{drivers: []*domain.Driver{driver}}, &fakeVehicles{vehicles: []*domain.Vehicle{vehicle}}
}

func TestLoader_Load_Success(t *testing.T) {
	depots, jobs, drivers, vehicles := validFixtures()
	l := New(depots, jobs, drivers, vehicles)

	req := &domain.OptimizationRequest{
		ID: 1, TenantID: 1, DepotID: 1, JobIDs: []int64{100}, DriverIDs: []int64{200},
		ScheduledDate: time.Now(), Goal: domain.GoalMinTime,
	}

	problem, err := l.Load(t.Context(), req)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(problem.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(problem.Jobs))
	}
	if problem.Jobs[0].Index != 1 {
		t.Errorf("expected job index 1 (depot is 0), got %d", problem.Jobs[0].Index)
	}
	if len(problem.Drivers) != 1 {
		t.Fatalf("expected 1 driver, got %d", len(problem.Drivers))
	}
	view := problem.VehiclesByDriver[200]
	if view == nil || view.ID != 500 {
		t.Errorf("expected driver 200 mapped to vehicle 500, got %+v", view)
	}
}

func TestLoader_Load_MissingJob(t *testing.T) {
	depots, _, drivers, vehicles := validFixtures()
	l := New(depots, &fakeJobs{jobs: nil}, drivers, vehicles)

	req := &domain.OptimizationRequest{ID: 1, TenantID: 1, DepotID: 1, JobIDs: []int64{999}, DriverIDs: []int64{200}}
	_, err := l.Load(t.Context(), req)
	if apperror.Code(err) != apperror.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestLoader_Load_IneligibleJobDropped(t *testing.T) {
	depots, _, drivers, vehicles := validFixtures()
	completed := &domain.Job{ID: 100, TenantID: 1, Status: domain.JobStatusCompleted, Location: domain.Point{Lng: 1, Lat: 1}}
	l := New(depots, &fakeJobs{jobs: []*domain.Job{completed}}, drivers, vehicles)

	req := &domain.OptimizationRequest{ID: 1, TenantID: 1, DepotID: 1, JobIDs: []int64{100}, DriverIDs: []int64{200}}
	_, err := l.Load(t.Context(), req)
	if apperror.Code(err) != apperror.CodeValidation {
		t.Fatalf("expected CodeValidation for ineligible job, got %v", err)
	}
}

func TestLoader_Load_NoJobs(t *testing.T) {
	depots, jobs, drivers, vehicles := validFixtures()
	l := New(depots, jobs, drivers, vehicles)

	req := &domain.OptimizationRequest{ID: 1, TenantID: 1, DepotID: 1, JobIDs: nil, DriverIDs: []int64{200}}
	_, err := l.Load(t.Context(), req)
	if apperror.Code(err) != apperror.CodeValidation {
		t.Fatalf("expected CodeValidation for empty job set, got %v", err)
	}
}

func TestLoader_Load_DepotWithoutLocation(t *testing.T) {
	depots := &fakeDepots{depot: &domain.Depot{ID: 1, TenantID: 1}}
	_, jobs, drivers, vehicles := validFixtures()
	l := New(depots, jobs, drivers, vehicles)

	req := &domain.OptimizationRequest{ID: 1, TenantID: 1, DepotID: 1, JobIDs: []int64{100}, DriverIDs: []int64{200}}
	_, err := l.Load(t.Context(), req)
	if apperror.Code(err) != apperror.CodeValidation {
		t.Fatalf("expected CodeValidation for depot without location, got %v", err)
	}
}

func TestLoader_Load_DriverBreakWindow(t *testing.T) {
	depots, jobs, _, vehicles := validFixtures()
	start := int64(12 * 3600)
	end := int64(13 * 3600)
	duration := int32(30)
	driver := &domain.Driver{ID: 200, TenantID: 1, BreakTimeStart: &start, BreakTimeEnd: &end, BreakDurationMinutes: &duration}
	l := New(depots, jobs, &fakeDrivers{drivers: []*domain.Driver{driver}}, vehicles)

	req := &domain.OptimizationRequest{ID: 1, TenantID: 1, DepotID: 1, JobIDs: []int64{100}, DriverIDs: []int64{200}}
	problem, err := l.Load(t.Context(), req)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if problem.Drivers[0].BreakDuration != 1800 {
		t.Errorf("expected break duration 1800s, got %d", problem.Drivers[0].BreakDuration)
	}
}
