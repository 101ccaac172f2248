// Package orchestrator implements the worker loop (§4.7, §5): a bounded
// pool of N goroutines, each repeatedly dequeuing a request ID and driving
// it through load → matrix → solve → format → persist, translating every
// failure after the request is marked processing into the terminal status
// update described in §7.
package orchestrator

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fleetops/optimizer/internal/constraint"
	"github.com/fleetops/optimizer/internal/formatter"
	"github.com/fleetops/optimizer/internal/loader"
	"github.com/fleetops/optimizer/internal/routingprovider"
	"github.com/fleetops/optimizer/internal/solver"
	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/audit"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/logger"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// Dequeuer hands out claimed request IDs and acknowledges finished ones.
type Dequeuer interface {
	Dequeue(ctx context.Context, timeout time.Duration) (requestID int64, ok bool, err error)
	Ack(ctx context.Context, requestID int64) error
}

// Persister writes a solved request's routes atomically.
type Persister interface {
	Persist(ctx context.Context, tenantID, optimizationRequestID, depotID int64, result *domain.OptimizationResult) error
}

// Store is the subset of the Request Store the Orchestrator drives a
// request's lifecycle through.
type Store interface {
	GetByIDUnscoped(ctx context.Context, id int64) (*domain.OptimizationRequest, error)
	MarkProcessing(ctx context.Context, tenantID, id int64) error
	MarkCompleted(ctx context.Context, tenantID, id int64, result *domain.OptimizationResult) error
	MarkFailed(ctx context.Context, tenantID, id int64, errMessage string) error
	ListStaleProcessing(ctx context.Context, olderThanSeconds int64) ([]*domain.OptimizationRequest, error)
}

// Options configures the worker pool.
type Options struct {
	MaxWorkers    int
	JobTimeout    time.Duration
	SolveBudget   time.Duration
	SweepInterval time.Duration
	DequeueWait   time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 4
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 5 * time.Minute
	}
	if o.SolveBudget <= 0 {
		o.SolveBudget = solver.DefaultSolveBudget
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	if o.DequeueWait <= 0 {
		o.DequeueWait = 5 * time.Second
	}
	return o
}

// Orchestrator drives requests through the optimization pipeline.
type Orchestrator struct {
	queue     Dequeuer
	store     Store
	loader    *loader.Loader
	provider  routingprovider.Provider
	persister Persister
	opts      Options
	sem       *semaphore.Weighted
}

// New constructs an Orchestrator.
func New(queue Dequeuer, store Store, l *loader.Loader, provider routingprovider.Provider, p Persister, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		queue:     queue,
		store:     store,
		loader:    l,
		provider:  provider,
		persister: p,
		opts:      opts,
		sem:       semaphore.NewWeighted(int64(opts.MaxWorkers)),
	}
}

// Run blocks, dispatching claimed requests onto the bounded worker pool
// until ctx is cancelled. A separate goroutine sweeps stale "processing"
// rows every SweepInterval.
func (o *Orchestrator) Run(ctx context.Context) {
	go o.sweepLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		requestID, ok, err := o.queue.Dequeue(ctx, o.opts.DequeueWait)
		if err != nil {
			logger.Log.Error("orchestrator: dequeue failed", "error", err)
			continue
		}
		if !ok {
			continue
		}

		if err := o.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func(id int64) {
			defer o.sem.Release(1)
			o.process(ctx, id)
		}(requestID)
	}
}

// process runs one request through the full pipeline. Once the request is
// marked processing, any failure ends in MarkFailed; a failed lookup or a
// failed MarkProcessing is only logged.
func (o *Orchestrator) process(ctx context.Context, requestID int64) {
	jobCtx, cancel := context.WithTimeout(ctx, o.opts.JobTimeout)
	defer cancel()
	jobCtx, span := telemetry.StartSpan(jobCtx, "Orchestrator.process")
	defer span.End()

	defer func() {
		if err := o.queue.Ack(jobCtx, requestID); err != nil {
			logger.Log.Error("orchestrator: ack failed", "request_id", requestID, "error", err)
		}
	}()

	req, err := o.findRequestByQueueID(jobCtx, requestID)
	if err != nil {
		logger.Log.Error("orchestrator: could not locate queued request", "request_id", requestID, "error", err)
		return
	}

	if err := o.store.MarkProcessing(jobCtx, req.TenantID, req.ID); err != nil {
		logger.Log.Error("orchestrator: failed to mark processing", "request_id", req.ID, "error", err)
		return
	}
	audit.Log(jobCtx, audit.NewEntry().Service("optimizer").Action(audit.ActionClaim).Outcome(audit.OutcomeSuccess).
		Resource("optimization_request", itoa(req.ID)).Build())

	if err := o.run(jobCtx, req); err != nil {
		o.fail(jobCtx, req, err)
		return
	}
}

func (o *Orchestrator) run(ctx context.Context, req *domain.OptimizationRequest) error {
	problem, err := o.loader.Load(ctx, req)
	if err != nil {
		return err
	}

	profile := firstProfile(problem)
	points := problem.Locations()
	matrix, err := o.provider.Matrix(ctx, points, profile)
	if err != nil {
		return err
	}

	model, err := constraint.Build(problem, matrix.Distances, matrix.Durations)
	if err != nil {
		return err
	}

	solution, err := solver.Solve(ctx, model, solver.Options{Budget: o.opts.SolveBudget})
	if err != nil {
		return err
	}
	audit.Log(ctx, audit.NewEntry().Service("optimizer").Action(audit.ActionSolve).Outcome(audit.OutcomeSuccess).
		Resource("optimization_request", itoa(req.ID)).Build())

	result := formatter.Format(ctx, problem, solution, o.provider)

	if err := o.persister.Persist(ctx, req.TenantID, req.ID, req.DepotID, result); err != nil {
		return err
	}
	audit.Log(ctx, audit.NewEntry().Service("optimizer").Action(audit.ActionPersist).Outcome(audit.OutcomeSuccess).
		Resource("optimization_request", itoa(req.ID)).Build())

	if err := o.store.MarkCompleted(ctx, req.TenantID, req.ID, result); err != nil {
		return err
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, req *domain.OptimizationRequest, err error) {
	logger.Log.Error("orchestrator: request failed", "request_id", req.ID, "code", apperror.Code(err), "error", err)
	audit.Log(ctx, audit.NewEntry().Service("optimizer").Action(audit.ActionSolve).Outcome(audit.OutcomeFailure).
		Resource("optimization_request", itoa(req.ID)).
		Error(string(apperror.Code(err)), err.Error()).Build())

	if markErr := o.store.MarkFailed(ctx, req.TenantID, req.ID, err.Error()); markErr != nil {
		logger.Log.Error("orchestrator: failed to mark request failed", "request_id", req.ID, "error", markErr)
	}
}

// findRequestByQueueID loads the request referenced by a dequeued ID. The
// queue carries only the ID, so the initial lookup is unscoped; every
// subsequent operation on the request uses its now-known tenant_id.
func (o *Orchestrator) findRequestByQueueID(ctx context.Context, requestID int64) (*domain.OptimizationRequest, error) {
	return o.store.GetByIDUnscoped(ctx, requestID)
}

// sweepLoop periodically marks failed, with a timeout error, "processing"
// requests whose worker died or hung past the job timeout (§5's
// crash-recovery sweeper); it does not requeue them.
func (o *Orchestrator) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(o.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweepStale(ctx)
		}
	}
}

func (o *Orchestrator) sweepStale(ctx context.Context) {
	stale, err := o.store.ListStaleProcessing(ctx, int64(o.opts.JobTimeout.Seconds()))
	if err != nil {
		logger.Log.Error("orchestrator: sweep failed to list stale requests", "error", err)
		return
	}
	for _, req := range stale {
		timeoutErr := apperror.New(apperror.CodeTimeout, "request exceeded its processing timeout")
		if err := o.store.MarkFailed(ctx, req.TenantID, req.ID, timeoutErr.Error()); err != nil {
			logger.Log.Error("orchestrator: failed to mark stale request failed", "request_id", req.ID, "error", err)
		}
	}
}

// firstProfile picks the routing profile from the first driver with an
// assigned vehicle, falling back to the default "drive" profile when no
// vehicle is assigned. A single matrix call covers every driver on a
// request, so heterogeneous vehicle types in one request share one profile.
func firstProfile(problem *domain.Problem) string {
	for _, d := range problem.Drivers {
		if v, ok := problem.VehicleFor(d.ID); ok {
			return routingprovider.ProfileFor(v.Type, routingprovider.DefaultProfileTable)
		}
	}
	return "drive"
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
