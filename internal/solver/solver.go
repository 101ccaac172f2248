package solver

import (
	"context"
	"time"

	"github.com/fleetops/optimizer/internal/constraint"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// Solve runs cheapest-insertion construction followed by a time-bounded
// local search over model, and returns the raw per-vehicle Solution the
// Result Formatter later converts to absolute timestamps (§4.5).
//
// Instances with fewer than autoLocalSearchLocationCount locations use a
// short automatic local search; larger instances use the caller's budget
// (opts.Budget, defaulting to DefaultSolveBudget) with guided local search.
func Solve(ctx context.Context, m *constraint.Model, opts Options) (*domain.Solution, error) {
	ctx, span := telemetry.StartSpan(ctx, "solver.Solve")
	defer span.End()
	span.SetAttributes(telemetry.ProblemAttributes(len(m.Problem.Jobs), len(m.Problem.Drivers), m.Problem.Depot.ID)...)

	routes, unassigned := construct(m)

	locationCount := len(m.Problem.Locations())
	var deadline time.Time
	var useGLS bool
	if locationCount < autoLocalSearchLocationCount {
		deadline = time.Now().Add(autoLocalSearchBudget)
		useGLS = false
	} else {
		deadline = time.Now().Add(opts.budgetOrDefault())
		useGLS = true
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	routes = localSearch(m, routes, deadline, useGLS)

	// A second cheapest-insertion pass picks up any job the local search's
	// Or-opt moves could place now that routes have settled, without
	// rerunning the full construction order.
	for i := 0; i < len(unassigned); {
		jobIdx := int(unassigned[i])
		best := bestInsertion(m, routes, jobIdx)
		if best == nil {
			i++
			continue
		}
		r := &routes[best.routeIdx]
		stops := make([]int, 0, len(r.stops)+1)
		stops = append(stops, r.stops[:best.position]...)
		stops = append(stops, jobIdx)
		stops = append(stops, r.stops[best.position:]...)
		r.stops = stops
		unassigned = append(unassigned[:i], unassigned[i+1:]...)
	}

	solution := &domain.Solution{UnassignedJobs: unassigned}
	var totalDistance float64
	var totalDuration int64
	for _, r := range routes {
		if len(r.stops) == 0 {
			continue
		}
		vs := buildVehicleSolution(m, r)
		totalDistance += vs.DistanceMeters
		totalDuration += vs.DurationSeconds
		solution.Vehicles = append(solution.Vehicles, vs)
	}

	algorithm := "cheapest_insertion"
	if useGLS {
		algorithm = "guided_local_search"
	}
	span.SetAttributes(telemetry.SolveAttributes(algorithm, totalDistance, totalDuration, len(unassigned))...)

	return solution, nil
}

func buildVehicleSolution(m *constraint.Model, r route) domain.VehicleSolution {
	driver := &m.Problem.Drivers[r.driverIdx]
	sim, feasible := simulate(m, driver, r.stops)
	if !feasible {
		// Local search only ever commits feasible candidates, so this
		// indicates a bug in a move's feasibility guard rather than a
		// reachable runtime condition; fall back to an empty route
		// instead of panicking on a caller-facing path.
		return domain.VehicleSolution{DriverID: driver.ID}
	}

	vs := domain.VehicleSolution{
		DriverID:        driver.ID,
		DistanceMeters:  sim.totalDistance,
		DurationSeconds: int64(sim.totalDuration),
	}
	if vehicle, ok := m.Problem.VehicleFor(driver.ID); ok {
		vs.VehicleID = &vehicle.ID
	}
	if len(sim.timings) > 0 {
		vs.StartDistance = m.DistanceMeters[0][sim.timings[0].locationIndex]
		vs.StartDuration = int64(m.DurationSeconds[0][sim.timings[0].locationIndex])
	}

	vs.Stops = make([]domain.Stop, len(sim.timings))
	for i, t := range sim.timings {
		job, _ := m.Problem.JobByIndex(t.locationIndex)
		vs.Stops[i] = domain.Stop{
			JobID:             job.ID,
			LocationIndex:     t.locationIndex,
			ArrivalSeconds:    t.arrival,
			DistanceToNext:    t.distanceToNext,
			DurationToNextSec: int64(t.durationToNext),
		}
	}

	if sim.breakApplied {
		vs.Break = &domain.BreakInfo{
			StartSeconds:    sim.breakStart,
			DurationMinutes: int32(driver.BreakDuration / 60),
		}
	}

	baselineDistance, baselineDuration := outAndBackBaseline(m, r.stops)
	if saved := baselineDistance - sim.totalDistance; saved > 0 {
		vs.SavedDistanceMeters = saved
	}
	if saved := baselineDuration - int64(sim.totalDuration); saved > 0 {
		vs.SavedTimeSeconds = saved
	}

	return vs
}

// outAndBackBaseline returns the distance and duration of visiting each of
// stops with an individual out-and-back trip from the depot (§4.4's
// baseline for saved_distance_meters/saved_time_seconds), i.e.
// Σ 2·cost(depot, job) over the route's assigned jobs.
func outAndBackBaseline(m *constraint.Model, stops []int) (distance float64, duration int64) {
	for _, loc := range stops {
		distance += 2 * m.DistanceMeters[0][loc]
		duration += 2 * int64(m.DurationSeconds[0][loc])
	}
	return distance, duration
}
