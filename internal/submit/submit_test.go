package submit

import (
	"context"
	"testing"

	"github.com/fleetops/optimizer/internal/loader"
	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

type fakeDepots struct{ depot *domain.Depot }

func (f *fakeDepots) GetDepot(ctx context.Context, tenantID, depotID int64) (*domain.Depot, error) {
	return f.depot, nil
}

type fakeJobs struct{ jobs []*domain.Job }

func (f *fakeJobs) GetJobsByIDs(ctx context.Context, tenantID int64, jobIDs []int64) ([]*domain.Job, error) {
	return f.jobs, nil
}

type fakeDrivers struct{ drivers []*domain.Driver }

func (f *fakeDrivers) GetDriversByIDs(ctx context.Context, tenantID int64, driverIDs []int64) ([]*domain.Driver, error) {
	return f.drivers, nil
}

type fakeVehicles struct{}

func (f *fakeVehicles) GetVehiclesByIDs(ctx context.Context, tenantID int64, vehicleIDs []int64) ([]*domain.Vehicle, error) {
	return nil, nil
}

func validRequest() (*domain.OptimizationRequest, *loader.Loader) {
	workStart := int64(8 * 3600)
	workEnd := int64(17 * 3600)
	depot := &domain.Depot{ID: 1, Location: domain.Point{Lat: 1, Lng: 1}}
	job := &domain.Job{ID: 10, Status: domain.JobStatusDraft, Location: domain.Point{Lat: 2, Lng: 2}}
	driver := &domain.Driver{ID: 100, WorkStartTime: &workStart, WorkEndTime: &workEnd}

	l := loader.New(&fakeDepots{depot: depot}, &fakeJobs{jobs: []*domain.Job{job}}, &fakeDrivers{drivers: []*domain.Driver{driver}}, &fakeVehicles{})
	req := &domain.OptimizationRequest{TenantID: 1, DepotID: 1, JobIDs: []int64{10}, DriverIDs: []int64{100}}
	return req, l
}

type fakeStore struct {
	created bool
	deleted bool
	failCreate bool
}

func (s *fakeStore) Create(ctx context.Context, req *domain.OptimizationRequest) error {
	if s.failCreate {
		return apperror.New(apperror.CodePersistence, "boom")
	}
	req.ID = 1
	s.created = true
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, tenantID, id int64) error {
	s.deleted = true
	return nil
}

type fakeQueue struct {
	failEnqueue bool
	enqueued    int64
}

func (q *fakeQueue) Enqueue(ctx context.Context, requestID int64) error {
	if q.failEnqueue {
		return apperror.New(apperror.CodeInternal, "queue down")
	}
	q.enqueued = requestID
	return nil
}

func TestSubmit_Success(t *testing.T) {
	req, l := validRequest()
	store := &fakeStore{}
	queue := &fakeQueue{}
	s := New(l, store, queue)

	out, err := s.Submit(t.Context(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.ID != 1 {
		t.Errorf("expected request ID to be set, got %d", out.ID)
	}
	if queue.enqueued != 1 {
		t.Errorf("expected request 1 to be enqueued, got %d", queue.enqueued)
	}
}

func TestSubmit_ValidationFailureNeverWrites(t *testing.T) {
	req, l := validRequest()
	req.JobIDs = nil // triggers a validation failure
	store := &fakeStore{}
	queue := &fakeQueue{}
	s := New(l, store, queue)

	_, err := s.Submit(t.Context(), req)
	if apperror.Code(err) != apperror.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
	if store.created {
		t.Error("expected no row to be created on validation failure")
	}
}

func TestSubmit_EnqueueFailureCompensatesWithDelete(t *testing.T) {
	req, l := validRequest()
	store := &fakeStore{}
	queue := &fakeQueue{failEnqueue: true}
	s := New(l, store, queue)

	_, err := s.Submit(t.Context(), req)
	if err == nil {
		t.Fatal("expected an error from the failed enqueue")
	}
	if !store.created {
		t.Error("expected the row to have been created before the enqueue attempt")
	}
	if !store.deleted {
		t.Error("expected the row to be deleted to compensate for the failed enqueue")
	}
}
