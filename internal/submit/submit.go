// Package submit implements the Submitter (§4.7): the library entry point
// that validates, persists, and enqueues an optimization request. No
// transport is bound to it here; an HTTP or CLI surface calling Submit is
// out of scope.
package submit

import (
	"context"
	"fmt"

	"github.com/fleetops/optimizer/internal/loader"
	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/audit"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// Enqueuer hands a persisted request's ID to the worker queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, requestID int64) error
}

// Store persists an optimization request and can compensate a failed
// enqueue by deleting the row it just created.
type Store interface {
	Create(ctx context.Context, req *domain.OptimizationRequest) error
	Delete(ctx context.Context, tenantID, id int64) error
}

// Submitter validates a request against the current data set, persists it,
// and hands it to the worker queue.
type Submitter struct {
	loader *loader.Loader
	store  Store
	queue  Enqueuer
}

// New constructs a Submitter.
func New(l *loader.Loader, store Store, queue Enqueuer) *Submitter {
	return &Submitter{loader: l, store: store, queue: queue}
}

// Submit validates req against the loader (surfacing CodeValidation before
// anything is written), inserts it with status "queued", and enqueues its
// ID. If enqueuing fails, the inserted row is deleted rather than left
// behind as an orphaned "queued" request that nothing will ever process.
func (s *Submitter) Submit(ctx context.Context, req *domain.OptimizationRequest) (*domain.OptimizationRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "Submitter.Submit")
	defer span.End()

	if _, err := s.loader.Load(ctx, req); err != nil {
		audit.Log(ctx, audit.NewEntry().
			Service("optimizer").Action(audit.ActionCreate).Outcome(audit.OutcomeFailure).
			Resource("optimization_request", fmt.Sprintf("tenant=%d", req.TenantID)).
			Error(string(apperror.Code(err)), err.Error()).Build())
		return nil, err
	}

	req.Status = domain.RequestStatusQueued
	if err := s.store.Create(ctx, req); err != nil {
		audit.Log(ctx, audit.NewEntry().
			Service("optimizer").Action(audit.ActionCreate).Outcome(audit.OutcomeFailure).
			Error(string(apperror.Code(err)), err.Error()).Build())
		return nil, err
	}

	audit.Log(ctx, audit.NewEntry().
		Service("optimizer").Action(audit.ActionCreate).Outcome(audit.OutcomeSuccess).
		Resource("optimization_request", fmt.Sprintf("%d", req.ID)).Build())

	if err := s.queue.Enqueue(ctx, req.ID); err != nil {
		telemetry.RecordError(ctx, err)
		audit.Log(ctx, audit.NewEntry().
			Service("optimizer").Action(audit.ActionEnqueue).Outcome(audit.OutcomeFailure).
			Resource("optimization_request", fmt.Sprintf("%d", req.ID)).
			Error(string(apperror.Code(err)), err.Error()).Build())

		if delErr := s.store.Delete(ctx, req.TenantID, req.ID); delErr != nil {
			return nil, apperror.Wrap(delErr, apperror.CodeInternal,
				fmt.Sprintf("failed to enqueue request %d and failed to compensate by deleting it", req.ID))
		}
		return nil, err
	}

	audit.Log(ctx, audit.NewEntry().
		Service("optimizer").Action(audit.ActionEnqueue).Outcome(audit.OutcomeSuccess).
		Resource("optimization_request", fmt.Sprintf("%d", req.ID)).Build())

	return req, nil
}
