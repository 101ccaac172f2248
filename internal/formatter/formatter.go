// Package formatter implements the Result Formatter component (§4.5): it
// rewrites a solver's raw domain.Solution into the absolute-time,
// stop-by-stop domain.OptimizationResult persisted on the request.
package formatter

import (
	"context"
	"time"

	"github.com/fleetops/optimizer/internal/routingprovider"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

const idleThreshold = 60 * time.Second
const breakAtStopTolerance = 60 * time.Second

// Format converts solution into the persisted result tree. scheduledDate
// anchors the seconds-from-midnight values onto a calendar date; provider
// supplies the route polyline (a failed or nil fetch is stored as null,
// per §4.5.5 — never fatal to formatting).
func Format(ctx context.Context, problem *domain.Problem, solution *domain.Solution, provider routingprovider.Provider) *domain.OptimizationResult {
	ctx, span := telemetry.StartSpan(ctx, "formatter.Format")
	defer span.End()

	result := &domain.OptimizationResult{}

	for _, vs := range solution.Vehicles {
		result.Routes = append(result.Routes, formatRoute(ctx, problem, vs, provider))
	}
	result.UnassignedJobs = formatUnassigned(problem, solution.UnassignedJobs)

	span.SetAttributes(telemetry.ResultAttributes(len(result.Routes), len(result.UnassignedJobs))...)
	return result
}

func formatRoute(ctx context.Context, problem *domain.Problem, vs domain.VehicleSolution, provider routingprovider.Provider) domain.FormattedRoute {
	driver := driverByID(problem, vs.DriverID)

	route := domain.FormattedRoute{
		DriverID:              vs.DriverID,
		VehicleID:             vs.VehicleID,
		TotalDistanceMeters:   vs.DistanceMeters,
		TotalDurationSeconds:  vs.DurationSeconds,
		TotalDistanceSavedM:   vs.SavedDistanceMeters,
		TotalTimeSavedSeconds: vs.SavedTimeSeconds,
	}

	workStart := driver.WorkStartTime
	depotStartTime := absoluteTime(problem.ScheduledDate, workStart)
	depotEndTime := absoluteTime(problem.ScheduledDate, workStart+vs.DurationSeconds)

	stops := make([]domain.FormattedStop, 0, len(vs.Stops)+2)
	stops = append(stops, domain.FormattedStop{
		SequenceOrder: 0,
		StopType:      domain.StopTypeDepotStart,
		Address:       problem.Depot.Address,
		Location:      problem.Depot.Location,
		ArrivalTime:   depotStartTime,
		DepartureTime: depotStartTime,
	})

	var prevDeparture int64 = workStart
	for i, stop := range vs.Stops {
		job, _ := problem.JobByIndex(stop.LocationIndex)
		arrival := absoluteTime(problem.ScheduledDate, stop.ArrivalSeconds)
		var serviceSeconds int64
		if job != nil {
			serviceSeconds = job.ServiceSeconds
		}
		departureSeconds := stop.ArrivalSeconds + serviceSeconds
		departure := absoluteTime(problem.ScheduledDate, departureSeconds)

		idleSeconds := stop.ArrivalSeconds - (prevDeparture + travelSeconds(vs, i))
		if idleSeconds > int64(idleThreshold.Seconds()) {
			route.IdleBlocks = append(route.IdleBlocks, domain.IdleBlock{
				StartTime:       absoluteTime(problem.ScheduledDate, prevDeparture+travelSeconds(vs, i)),
				EndTime:         arrival,
				DurationSeconds: idleSeconds,
				AtLocationIndex: stop.LocationIndex,
			})
		}

		var address string
		var location domain.Point
		var jobID *int64
		if job != nil {
			address = job.Address
			location = job.Location
			id := job.ID
			jobID = &id
		}

		stops = append(stops, domain.FormattedStop{
			SequenceOrder:          i + 1,
			StopType:               domain.StopTypeJob,
			JobID:                  jobID,
			Address:                address,
			Location:               location,
			ArrivalTime:            arrival,
			DepartureTime:          departure,
			DistanceToNextMeters:   stop.DistanceToNext,
			TimeToNextStopSeconds:  stop.DurationToNextSec,
		})
		prevDeparture = departureSeconds
	}

	stops = append(stops, domain.FormattedStop{
		SequenceOrder: len(stops),
		StopType:      domain.StopTypeDepotEnd,
		Address:       problem.Depot.Address,
		Location:      problem.Depot.Location,
		ArrivalTime:   depotEndTime,
		DepartureTime: depotEndTime,
	})
	route.Stops = stops

	if vs.Break != nil {
		route.Break = formatBreak(problem, vs, *vs.Break)
	}

	route.Polyline = fetchPolyline(ctx, problem, vs, provider)

	return route
}

// travelSeconds returns the travel time immediately preceding stop i: the
// depot->first-stop leg for i==0, or the (i-1)->i leg otherwise.
func travelSeconds(vs domain.VehicleSolution, i int) int64 {
	if i == 0 {
		return vs.StartDuration
	}
	return vs.Stops[i-1].DurationToNextSec
}

// formatBreak locates which stop the solver's break interval falls after
// and whether it happened at that stop or en route, using the "within 60s
// of departure" heuristic from §4.5.3.
func formatBreak(problem *domain.Problem, vs domain.VehicleSolution, info domain.BreakInfo) *domain.FormattedBreak {
	afterIndex := -1
	var departureSeconds int64
	location := problem.Depot.Location

	for i, stop := range vs.Stops {
		job, _ := problem.JobByIndex(stop.LocationIndex)
		var serviceSeconds int64
		if job != nil {
			serviceSeconds = job.ServiceSeconds
		}
		dep := stop.ArrivalSeconds + serviceSeconds
		if dep <= info.StartSeconds {
			afterIndex = i
			departureSeconds = dep
			if job != nil {
				location = job.Location
			}
		}
	}

	enRoute := info.StartSeconds-departureSeconds > int64(breakAtStopTolerance.Seconds())

	start := absoluteTime(problem.ScheduledDate, info.StartSeconds)
	end := absoluteTime(problem.ScheduledDate, info.StartSeconds+int64(info.DurationMinutes)*60)

	return &domain.FormattedBreak{
		DurationMinutes: info.DurationMinutes,
		StartTime:       start,
		EndTime:         end,
		AfterStopIndex:  afterIndex,
		EnRoute:         enRoute,
		Location:        location,
	}
}

// fetchPolyline calls the routing provider for the route's ordered
// geometry; any failure (including a nil provider) yields a nil polyline
// rather than failing the whole format pass.
func fetchPolyline(ctx context.Context, problem *domain.Problem, vs domain.VehicleSolution, provider routingprovider.Provider) *string {
	if provider == nil {
		return nil
	}
	points := make([]domain.Point, 0, len(vs.Stops)+2)
	points = append(points, problem.Depot.Location)
	for _, stop := range vs.Stops {
		job, _ := problem.JobByIndex(stop.LocationIndex)
		if job != nil {
			points = append(points, job.Location)
		}
	}
	points = append(points, problem.Depot.Location)

	poly, err := provider.Polyline(ctx, points, "")
	if err != nil {
		return nil
	}
	return poly
}

// formatUnassigned attaches a human-readable reason to each dropped job
// using the heuristic from §4.5.6.
func formatUnassigned(problem *domain.Problem, unassignedIndices []int64) []domain.UnassignedJob {
	out := make([]domain.UnassignedJob, 0, len(unassignedIndices))
	for _, idx := range unassignedIndices {
		job, ok := problem.JobByIndex(int(idx))
		if !ok {
			continue
		}
		out = append(out, domain.UnassignedJob{
			JobID:   job.ID,
			Reason:  unassignedReason(problem, job),
			Address: job.Address,
		})
	}
	return out
}

func unassignedReason(problem *domain.Problem, job *domain.JobView) string {
	if job.TimeWindowStart != nil && job.TimeWindowEnd != nil {
		anyOverlap := false
		for _, d := range problem.Drivers {
			if windowsOverlap(*job.TimeWindowStart, *job.TimeWindowEnd, d.WorkStartTime, d.EffectiveWorkEnd()) {
				anyOverlap = true
				break
			}
		}
		if !anyOverlap {
			return "Time window is outside of all team member's working hours"
		}
	}

	exceedsAllShifts := true
	for _, d := range problem.Drivers {
		shift := d.EffectiveWorkEnd() - d.WorkStartTime
		if job.ServiceSeconds <= shift {
			exceedsAllShifts = false
			break
		}
	}
	if exceedsAllShifts && len(problem.Drivers) > 0 {
		return "Service duration exceeds all team member's shift lengths"
	}

	return "Could not be visited within constraints"
}

func windowsOverlap(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart <= bEnd && bStart <= aEnd
}

func driverByID(problem *domain.Problem, driverID int64) *domain.DriverView {
	for i := range problem.Drivers {
		if problem.Drivers[i].ID == driverID {
			return &problem.Drivers[i]
		}
	}
	return &domain.DriverView{}
}

// absoluteTime rolls seconds-from-midnight (possibly beyond 86400, which
// carries into the next day) onto scheduledDate's calendar day in UTC.
func absoluteTime(scheduledDate time.Time, secondsFromMidnight int64) time.Time {
	midnight := time.Date(scheduledDate.Year(), scheduledDate.Month(), scheduledDate.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(secondsFromMidnight) * time.Second)
}
