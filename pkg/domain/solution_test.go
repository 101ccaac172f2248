package domain

import "testing"

func TestSolution_Totals(t *testing.T) {
	s := &Solution{
		Vehicles: []VehicleSolution{
			{
				DistanceMeters:  1000,
				DurationSeconds: 600,
				Stops:           []Stop{{JobID: 1}, {JobID: 2}},
			},
			{
				DistanceMeters:  2000,
				DurationSeconds: 900,
				Stops:           []Stop{{JobID: 3}},
			},
		},
		UnassignedJobs: []int64{4},
	}

	if got := s.TotalDistanceMeters(); got != 3000 {
		t.Errorf("TotalDistanceMeters() = %v, want 3000", got)
	}
	if got := s.TotalDurationSeconds(); got != 1500 {
		t.Errorf("TotalDurationSeconds() = %v, want 1500", got)
	}
	if got := s.AssignedJobCount(); got != 3 {
		t.Errorf("AssignedJobCount() = %v, want 3", got)
	}
}

func TestSolution_Empty(t *testing.T) {
	s := &Solution{}
	if got := s.TotalDistanceMeters(); got != 0 {
		t.Errorf("TotalDistanceMeters() on empty solution = %v, want 0", got)
	}
	if got := s.AssignedJobCount(); got != 0 {
		t.Errorf("AssignedJobCount() on empty solution = %v, want 0", got)
	}
}
