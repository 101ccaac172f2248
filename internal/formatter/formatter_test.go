package formatter

import (
	"testing"
	"time"

	"github.com/fleetops/optimizer/pkg/domain"
)

func sampleProblem() *domain.Problem {
	return &domain.Problem{
		Depot: domain.DepotView{ID: 1, Address: "Depot HQ"},
		Jobs: []domain.JobView{
			{ID: 10, Index: 1, Address: "Stop A", ServiceSeconds: 300},
			{ID: 11, Index: 2, Address: "Stop B", ServiceSeconds: 600},
		},
		Drivers:       []domain.DriverView{{ID: 100, WorkStartTime: 8 * 3600, WorkEndTime: 17 * 3600}},
		ScheduledDate: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormat_StopListAndDepotBookends(t *testing.T) {
	problem := sampleProblem()
	solution := &domain.Solution{
		Vehicles: []domain.VehicleSolution{
			{
				DriverID:        100,
				DurationSeconds: 2000,
				Stops: []domain.Stop{
					{JobID: 10, LocationIndex: 1, ArrivalSeconds: 8*3600 + 600, DistanceToNext: 1000, DurationToNextSec: 500},
					{JobID: 11, LocationIndex: 2, ArrivalSeconds: 8*3600 + 600 + 300 + 500, DistanceToNext: 800, DurationToNextSec: 400},
				},
			},
		},
	}

	result := Format(t.Context(), problem, solution, nil)
	if len(result.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(result.Routes))
	}
	route := result.Routes[0]
	if len(route.Stops) != 4 {
		t.Fatalf("expected 4 stops (depot_start, 2 jobs, depot_end), got %d", len(route.Stops))
	}
	if route.Stops[0].StopType != domain.StopTypeDepotStart {
		t.Errorf("first stop type = %v, want depot_start", route.Stops[0].StopType)
	}
	if route.Stops[len(route.Stops)-1].StopType != domain.StopTypeDepotEnd {
		t.Errorf("last stop type = %v, want depot_end", route.Stops[len(route.Stops)-1].StopType)
	}
	if route.Stops[1].JobID == nil || *route.Stops[1].JobID != 10 {
		t.Errorf("expected second stop to be job 10, got %+v", route.Stops[1])
	}
}

func TestFormat_IdleBlockDetected(t *testing.T) {
	problem := sampleProblem()
	solution := &domain.Solution{
		Vehicles: []domain.VehicleSolution{
			{
				DriverID:        100,
				DurationSeconds: 5000,
				Stops: []domain.Stop{
					{JobID: 10, LocationIndex: 1, ArrivalSeconds: 8 * 3600, DistanceToNext: 1000, DurationToNextSec: 300},
					// a 500s gap beyond the 300s travel time from the previous stop
					{JobID: 11, LocationIndex: 2, ArrivalSeconds: 8*3600 + 300 + 300 + 500, DistanceToNext: 800, DurationToNextSec: 400},
				},
			},
		},
	}

	result := Format(t.Context(), problem, solution, nil)
	route := result.Routes[0]
	if len(route.IdleBlocks) != 1 {
		t.Fatalf("expected 1 idle block, got %d", len(route.IdleBlocks))
	}
	if route.IdleBlocks[0].DurationSeconds < 60 {
		t.Errorf("expected idle duration over the 60s threshold, got %d", route.IdleBlocks[0].DurationSeconds)
	}
}

func TestFormat_UnassignedReason_OutsideWorkingHours(t *testing.T) {
	problem := sampleProblem()
	early := int64(1 * 3600)
	earlyEnd := int64(2 * 3600)
	problem.Jobs[0].TimeWindowStart = &early
	problem.Jobs[0].TimeWindowEnd = &earlyEnd

	solution := &domain.Solution{UnassignedJobs: []int64{1}}
	result := Format(t.Context(), problem, solution, nil)
	if len(result.UnassignedJobs) != 1 {
		t.Fatalf("expected 1 unassigned job, got %d", len(result.UnassignedJobs))
	}
	if result.UnassignedJobs[0].Reason != "Time window is outside of all team member's working hours" {
		t.Errorf("unexpected reason: %q", result.UnassignedJobs[0].Reason)
	}
}

func TestFormat_UnassignedReason_ServiceDurationTooLong(t *testing.T) {
	problem := sampleProblem()
	problem.Jobs[0].ServiceSeconds = 100 * 3600 // longer than any shift

	solution := &domain.Solution{UnassignedJobs: []int64{1}}
	result := Format(t.Context(), problem, solution, nil)
	if result.UnassignedJobs[0].Reason != "Service duration exceeds all team member's shift lengths" {
		t.Errorf("unexpected reason: %q", result.UnassignedJobs[0].Reason)
	}
}

func TestFormat_NilProvider_NoPolyline(t *testing.T) {
	problem := sampleProblem()
	solution := &domain.Solution{
		Vehicles: []domain.VehicleSolution{
			{DriverID: 100, Stops: []domain.Stop{{JobID: 10, LocationIndex: 1, ArrivalSeconds: 8 * 3600}}},
		},
	}
	result := Format(t.Context(), problem, solution, nil)
	if result.Routes[0].Polyline != nil {
		t.Error("expected nil polyline with nil provider")
	}
}
