package solver

import (
	"time"

	"github.com/fleetops/optimizer/internal/constraint"
)

// edgeKey identifies a directed arc between two location indices, used to
// track guided-local-search penalties.
type edgeKey struct{ from, to int }

// localSearch improves routes in place within the given deadline. For
// small instances (fewer than autoLocalSearchLocationCount locations) it
// runs a plain 2-opt/Or-opt descent and stops at the first local optimum.
// For larger instances it escalates penalties on the costliest edges once
// a local optimum is reached (guided local search), so the search keeps
// exploring until the deadline rather than stopping at the first optimum.
func localSearch(m *constraint.Model, routes []route, deadline time.Time, useGLS bool) []route {
	penalties := make(map[edgeKey]float64)
	const lambda = 0.3

	cost := func(from, to int) float64 {
		base := m.DistanceMeters[from][to]
		if !useGLS {
			return base
		}
		return base + penalties[edgeKey{from, to}]*lambda*averageEdgeCost(m)
	}

	for time.Now().Before(deadline) {
		improved := twoOptPass(m, routes, cost, deadline)
		improved = orOptPass(m, routes, cost, deadline) || improved

		if improved {
			continue
		}
		if !useGLS {
			break
		}
		if !escalatePenalty(m, routes, penalties) {
			break
		}
	}

	return routes
}

// averageEdgeCost normalizes penalty weight against the matrix's scale,
// the way classic GLS ties lambda to the objective's typical edge cost.
func averageEdgeCost(m *constraint.Model) float64 {
	n := len(m.DistanceMeters)
	if n == 0 {
		return 1
	}
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || m.DistanceMeters[i][j] >= unreachableCost {
				continue
			}
			sum += m.DistanceMeters[i][j]
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return sum / float64(count)
}

// twoOptPass tries reversing every segment within every route, keeping the
// move only when it reduces cost and stays feasible.
func twoOptPass(m *constraint.Model, routes []route, cost func(int, int) float64, deadline time.Time) bool {
	improved := false
	for ri := range routes {
		r := &routes[ri]
		driver := &m.Problem.Drivers[r.driverIdx]
		n := len(r.stops)
		if n < 2 {
			continue
		}
		for i := 0; i < n-1; i++ {
			if time.Now().After(deadline) {
				return improved
			}
			for j := i + 1; j < n; j++ {
				candidate := reversedSegment(r.stops, i, j)
				if sequenceCost(m, cost, r.stops) <= sequenceCost(m, cost, candidate) {
					continue
				}
				if _, feasible := simulate(m, driver, candidate); !feasible {
					continue
				}
				r.stops = candidate
				improved = true
			}
		}
	}
	return improved
}

// orOptPass tries relocating a single job to another position, possibly
// on a different route, keeping the move only when it reduces the
// combined cost of both routes and both stay feasible.
func orOptPass(m *constraint.Model, routes []route, cost func(int, int) float64, deadline time.Time) bool {
	improved := false
	for fromIdx := range routes {
		from := &routes[fromIdx]
		for pos := range from.stops {
			if time.Now().After(deadline) {
				return improved
			}
			jobIdx := from.stops[pos]
			withoutJob := append(append([]int{}, from.stops[:pos]...), from.stops[pos+1:]...)

			for toIdx := range routes {
				to := &routes[toIdx]
				destStops := to.stops
				if toIdx == fromIdx {
					destStops = withoutJob
				}

				for insertAt := 0; insertAt <= len(destStops); insertAt++ {
					if toIdx == fromIdx && insertAt == pos {
						continue
					}
					candidate := make([]int, 0, len(destStops)+1)
					candidate = append(candidate, destStops[:insertAt]...)
					candidate = append(candidate, jobIdx)
					candidate = append(candidate, destStops[insertAt:]...)

					fromDriver := &m.Problem.Drivers[from.driverIdx]
					toDriver := &m.Problem.Drivers[to.driverIdx]

					oldCost := sequenceCost(m, cost, from.stops)
					if toIdx != fromIdx {
						oldCost += sequenceCost(m, cost, to.stops)
					}

					var newFromStops, newToStops []int
					if toIdx == fromIdx {
						newFromStops = candidate
						newToStops = candidate
					} else {
						newFromStops = withoutJob
						newToStops = candidate
					}
					newCost := sequenceCost(m, cost, newFromStops)
					if toIdx != fromIdx {
						newCost += sequenceCost(m, cost, newToStops)
					}
					if newCost >= oldCost {
						continue
					}

					if _, feasible := simulate(m, fromDriver, newFromStops); toIdx == fromIdx && !feasible {
						continue
					}
					if toIdx != fromIdx {
						if _, feasible := simulate(m, fromDriver, newFromStops); !feasible {
							continue
						}
						if _, feasible := simulate(m, toDriver, newToStops); !feasible {
							continue
						}
					}

					from.stops = newFromStops
					to.stops = newToStops
					improved = true
				}
			}
		}
	}
	return improved
}

func reversedSegment(stops []int, i, j int) []int {
	out := append([]int{}, stops...)
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// sequenceCost is the augmented-cost sum of a route's arcs, including the
// depot legs at both ends.
func sequenceCost(m *constraint.Model, cost func(int, int) float64, stops []int) float64 {
	total := 0.0
	prev := 0
	for _, s := range stops {
		total += cost(prev, s)
		prev = s
	}
	total += cost(prev, 0)
	return total
}

// escalatePenalty bumps the penalty on the costliest arc currently in use
// across all routes (classic GLS utility = cost / (1 + penalty)),
// returning false if no routes contain any arcs to penalize.
func escalatePenalty(m *constraint.Model, routes []route, penalties map[edgeKey]float64) bool {
	var worstKey edgeKey
	var worstUtility float64
	found := false

	for _, r := range routes {
		prev := 0
		for _, s := range r.stops {
			key := edgeKey{prev, s}
			utility := m.DistanceMeters[prev][s] / (1 + penalties[key])
			if !found || utility > worstUtility {
				worstUtility = utility
				worstKey = key
				found = true
			}
			prev = s
		}
	}
	if !found {
		return false
	}
	penalties[worstKey]++
	return true
}
