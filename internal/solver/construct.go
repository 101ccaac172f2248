package solver

import (
	"sort"
	"sync"

	"github.com/fleetops/optimizer/internal/constraint"
)

// route is the solver's working representation of one vehicle's visiting
// order, as job location indices (1..N); the depot at index 0 is implicit
// at both ends.
type route struct {
	driverIdx int
	stops     []int
}

// insertionCandidate is the best place found to insert a job into one
// particular route.
type insertionCandidate struct {
	routeIdx int
	position int
	costDelta float64
	feasible  bool
}

// construct builds an initial assignment via parallel cheapest insertion
// (§4.4): jobs are offered to routes in priority order (high first, then
// by ID for determinism), and each job goes to whichever (route, position)
// pair increases that route's cost the least, evaluated concurrently
// across routes. A job with no feasible insertion anywhere is left
// unassigned and accrues its drop penalty.
func construct(m *constraint.Model) (routes []route, unassigned []int64) {
	routes = make([]route, len(m.Problem.Drivers))
	for i := range m.Problem.Drivers {
		routes[i] = route{driverIdx: i, stops: nil}
	}

	jobIndices := make([]int, len(m.Problem.Jobs))
	for i, j := range m.Problem.Jobs {
		jobIndices[i] = j.Index
	}
	sort.Slice(jobIndices, func(a, b int) bool {
		ja, _ := m.Problem.JobByIndex(jobIndices[a])
		jb, _ := m.Problem.JobByIndex(jobIndices[b])
		if ja.Priority.DropPenalty() != jb.Priority.DropPenalty() {
			return ja.Priority.DropPenalty() > jb.Priority.DropPenalty()
		}
		return ja.ID < jb.ID
	})

	for _, jobIdx := range jobIndices {
		best := bestInsertion(m, routes, jobIdx)
		if best == nil {
			unassigned = append(unassigned, int64(jobIdx))
			continue
		}
		r := &routes[best.routeIdx]
		stops := make([]int, 0, len(r.stops)+1)
		stops = append(stops, r.stops[:best.position]...)
		stops = append(stops, jobIdx)
		stops = append(stops, r.stops[best.position:]...)
		r.stops = stops
	}

	return routes, unassigned
}

// bestInsertion evaluates every (route, position) pair for jobIdx
// concurrently, one goroutine per route, and returns the cheapest
// feasible placement, or nil if the job fits nowhere.
func bestInsertion(m *constraint.Model, routes []route, jobIdx int) *insertionCandidate {
	results := make([]*insertionCandidate, len(routes))
	var wg sync.WaitGroup
	for i := range routes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = bestInsertionInRoute(m, routes[i], jobIdx)
		}(i)
	}
	wg.Wait()

	var best *insertionCandidate
	for _, c := range results {
		if c == nil || !c.feasible {
			continue
		}
		if best == nil || c.costDelta < best.costDelta {
			best = c
		}
	}
	return best
}

func bestInsertionInRoute(m *constraint.Model, r route, jobIdx int) *insertionCandidate {
	driver := &m.Problem.Drivers[r.driverIdx]

	baseSim, baseFeasible := simulate(m, driver, r.stops)
	baseCost := 0.0
	if baseFeasible {
		baseCost = routeCost(m, baseSim)
	}

	var best *insertionCandidate
	for pos := 0; pos <= len(r.stops); pos++ {
		candidateStops := make([]int, 0, len(r.stops)+1)
		candidateStops = append(candidateStops, r.stops[:pos]...)
		candidateStops = append(candidateStops, jobIdx)
		candidateStops = append(candidateStops, r.stops[pos:]...)

		sim, feasible := simulate(m, driver, candidateStops)
		if !feasible {
			continue
		}
		delta := routeCost(m, sim) - baseCost
		if best == nil || delta < best.costDelta {
			best = &insertionCandidate{routeIdx: r.driverIdx, position: pos, costDelta: delta, feasible: true}
		}
	}
	return best
}

// routeCost is the objective contribution of one route, in the unit the
// problem's goal minimizes.
func routeCost(m *constraint.Model, sim *routeSim) float64 {
	if m.Problem.Goal.String() == "min_distance" {
		return sim.totalDistance
	}
	return sim.totalDuration
}
