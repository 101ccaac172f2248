package solver

import (
	"github.com/fleetops/optimizer/internal/constraint"
	"github.com/fleetops/optimizer/pkg/domain"
)

const unreachableCost = 1<<31 - 1

// stopTiming is the simulated arrival/departure for one stop in a route,
// in seconds-from-midnight.
type stopTiming struct {
	locationIndex int
	arrival       int64
	departure     int64
	distanceToNext  float64
	durationToNext  float64
}

// routeSim is the result of simulating a route's schedule against a
// driver's working hours, a job's time windows, and break placement.
type routeSim struct {
	timings        []stopTiming
	totalDistance  float64
	totalDuration  float64
	breakStart     int64
	breakApplied   bool
	breakAfterStop int // index into timings after which the break occurs
}

// simulate walks stops (job location indices, in visiting order) starting
// and ending at the depot (index 0), enforcing §4.3's hard constraints. It
// returns (sim, true) when the route is feasible, (nil, false) otherwise.
func simulate(m *constraint.Model, driver *domain.DriverView, stops []int) (*routeSim, bool) {
	sim := &routeSim{timings: make([]stopTiming, 0, len(stops)), breakAfterStop: -1}

	current := int64(driver.WorkStartTime)
	currentLoc := 0
	breakFits := constraint.BreakFits(driver)

	for _, loc := range stops {
		dist := m.DistanceMeters[currentLoc][loc]
		dur := m.DurationSeconds[currentLoc][loc]
		if dist >= unreachableCost {
			return nil, false
		}

		// This leg (currentLoc -> loc) is the "to-next" leg of the
		// previously appended stop, not of the stop being appended now.
		if len(sim.timings) > 0 {
			sim.timings[len(sim.timings)-1].distanceToNext = dist
			sim.timings[len(sim.timings)-1].durationToNext = dur
		}

		arrival := current + int64(dur)

		job, ok := m.Problem.JobByIndex(loc)
		if !ok {
			return nil, false
		}
		if job.TimeWindowStart != nil && arrival < *job.TimeWindowStart {
			arrival = *job.TimeWindowStart
		}
		if job.TimeWindowEnd != nil && arrival > *job.TimeWindowEnd {
			return nil, false
		}

		departure := arrival + job.ServiceSeconds

		if breakFits && !sim.breakApplied && current >= *driver.BreakStart {
			if departure+driver.BreakDuration <= *driver.BreakEnd || departure <= *driver.BreakEnd-driver.BreakDuration {
				sim.breakApplied = true
				sim.breakStart = departure
				sim.breakAfterStop = len(sim.timings)
				departure += driver.BreakDuration
			}
		}

		sim.timings = append(sim.timings, stopTiming{
			locationIndex: loc,
			arrival:       arrival,
			departure:     departure,
		})

		sim.totalDistance += dist
		sim.totalDuration += float64(departure - current)
		current = departure
		currentLoc = loc
	}

	returnDist := m.DistanceMeters[currentLoc][0]
	returnDur := m.DurationSeconds[currentLoc][0]
	if returnDist >= unreachableCost {
		return nil, false
	}
	arrival := current + int64(returnDur)
	if arrival > driver.EffectiveWorkEnd() {
		return nil, false
	}
	if driver.MaxDistanceKm != nil && sim.totalDistance+returnDist > *driver.MaxDistanceKm*1000 {
		return nil, false
	}

	sim.totalDistance += returnDist
	sim.totalDuration += float64(returnDur)

	if len(sim.timings) > 0 {
		sim.timings[len(sim.timings)-1].distanceToNext = returnDist
		sim.timings[len(sim.timings)-1].durationToNext = returnDur
	}

	return sim, true
}
