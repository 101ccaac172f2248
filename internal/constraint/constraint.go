// Package constraint builds the constraint declarations the solver enforces
// over a domain.Problem (§4.3): hard constraints (depot start/end, time
// windows, working hours with overtime, max distance, service time, break
// scheduling) and soft constraints (priority-weighted drop penalties).
package constraint

import (
	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

// queue is a FIFO of location indices for the reachability pre-check,
// backed by a slice with a head pointer to avoid per-pop reallocation.
type queue struct {
	data []int
	head int
}

func newQueue(capacity int) *queue {
	return &queue{data: make([]int, 0, capacity)}
}

func (q *queue) push(v int) { q.data = append(q.data, v) }

func (q *queue) pop() int {
	v := q.data[q.head]
	q.head++
	return v
}

func (q *queue) empty() bool { return q.head >= len(q.data) }

// Model is the fully-resolved set of constraints for one Problem, derived
// from the raw entity fields plus the matrix of travel costs between
// locations (index 0 is always the depot).
type Model struct {
	Problem *domain.Problem

	// DistanceMeters and DurationSeconds are indexed [from][to] over
	// Problem.Locations(); a cell equal to routingprovider.UnreachableCost
	// means the two locations cannot be connected directly.
	DistanceMeters  [][]float64
	DurationSeconds [][]float64

	// MaxDistanceCapMeters bounds the distance dimension (§4.4): no slack,
	// hard 10^8m cap so unreachable-cost arcs are rejected by construction.
	MaxDistanceCapMeters float64

	// TimeSlackSeconds/TimeCapSeconds bound the time dimension: 8h slack,
	// 24h cap, wide enough to host overtime and waiting at a time window.
	TimeSlackSeconds int64
	TimeCapSeconds   int64

	// UnreachableJobIndices lists the location indices of jobs the depot
	// cannot reach at all (§4.1): the solver never finds a feasible
	// insertion for these, so they fall out of construction into the
	// unassigned set on their own, but this is recorded up front for
	// diagnostics.
	UnreachableJobIndices []int64
}

const (
	distanceCapMeters = 1e8
	timeSlackSeconds  = 8 * 3600
	timeCapSeconds    = 24 * 3600

	// unreachableCost mirrors routingprovider.UnreachableCost; duplicated
	// here so this package stays independent of the provider package.
	unreachableCost = 1<<31 - 1
)

// Build validates the problem's constraint preconditions and assembles the
// Model the solver consumes. It returns a CodeInfeasible error only when no
// driver is available at all; a job the depot cannot reach at all is not a
// reason to fail the whole request (§4.1) — it is recorded on
// UnreachableJobIndices and left for construction to drop into the
// unassigned set, surfacing later as "Could not be visited within
// constraints" (§4.5.6).
func Build(problem *domain.Problem, distances, durations [][]float64) (*Model, error) {
	if len(problem.Drivers) == 0 {
		return nil, apperror.New(apperror.CodeInfeasible, "no drivers available to build a route")
	}

	m := &Model{
		Problem:              problem,
		DistanceMeters:       distances,
		DurationSeconds:      durations,
		MaxDistanceCapMeters: distanceCapMeters,
		TimeSlackSeconds:     timeSlackSeconds,
		TimeCapSeconds:       timeCapSeconds,
	}

	m.UnreachableJobIndices = unreachableJobs(m)
	return m, nil
}

// unreachableJobs runs a breadth-first search from the depot over the cost
// matrix (treating unreachableCost cells as absent edges) and returns the
// location index of every job the search never reaches.
func unreachableJobs(m *Model) []int64 {
	n := len(m.DistanceMeters)
	if n == 0 {
		return nil
	}

	visited := make([]bool, n)
	visited[0] = true
	q := newQueue(n)
	q.push(0)

	for !q.empty() {
		u := q.pop()
		for v := 0; v < n; v++ {
			if visited[v] {
				continue
			}
			if m.DistanceMeters[u][v] >= unreachableCost {
				continue
			}
			visited[v] = true
			q.push(v)
		}
	}

	var unreachable []int64
	for _, job := range m.Problem.Jobs {
		if job.Index < n && !visited[job.Index] {
			unreachable = append(unreachable, int64(job.Index))
		}
	}
	return unreachable
}

// WorkWindow returns a driver's absolute start/end seconds-from-midnight,
// with EffectiveWorkEnd already folding in the permitted overtime.
func WorkWindow(d *domain.DriverView) (start, end int64) {
	return d.WorkStartTime, d.EffectiveWorkEnd()
}

// BreakFits reports whether a driver's declared break window is wide
// enough to host its duration; per §4.3 a break that does not fit is
// silently dropped rather than rejecting the whole route.
func BreakFits(d *domain.DriverView) bool {
	if d.BreakStart == nil || d.BreakEnd == nil {
		return false
	}
	return *d.BreakEnd-*d.BreakStart >= d.BreakDuration
}

// DropPenalty is the soft-constraint cost of leaving a job unassigned.
func DropPenalty(job *domain.JobView) int64 {
	return job.Priority.DropPenalty()
}
