package constraint

import (
	"testing"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

func sampleProblem() *domain.Problem {
	return &domain.Problem{
		Jobs: []domain.JobView{
			{ID: 1, Index: 1, Priority: domain.PriorityHigh},
			{ID: 2, Index: 2, Priority: domain.PriorityLow},
		},
		Drivers: []domain.DriverView{{ID: 10, WorkStartTime: 8 * 3600, WorkEndTime: 17 * 3600}},
	}
}

func TestBuild_Success(t *testing.T) {
	problem := sampleProblem()
	distances := [][]float64{
		{0, 100, 200},
		{100, 0, 150},
		{200, 150, 0},
	}
	durations := [][]float64{
		{0, 10, 20},
		{10, 0, 15},
		{20, 15, 0},
	}

	m, err := Build(problem, distances, durations)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m.MaxDistanceCapMeters != distanceCapMeters {
		t.Errorf("MaxDistanceCapMeters = %v, want %v", m.MaxDistanceCapMeters, distanceCapMeters)
	}
}

func TestBuild_NoDrivers(t *testing.T) {
	problem := sampleProblem()
	problem.Drivers = nil
	_, err := Build(problem, [][]float64{{0}}, [][]float64{{0}})
	if apperror.Code(err) != apperror.CodeInfeasible {
		t.Fatalf("expected CodeInfeasible, got %v", err)
	}
}

func TestBuild_UnreachableJob(t *testing.T) {
	problem := sampleProblem()
	distances := [][]float64{
		{0, unreachableCost, 200},
		{unreachableCost, 0, unreachableCost},
		{200, unreachableCost, 0},
	}
	durations := distances

	m, err := Build(problem, distances, durations)
	if err != nil {
		t.Fatalf("Build() should still succeed with a partially unreachable job, got error = %v", err)
	}
	if len(m.UnreachableJobIndices) != 1 || m.UnreachableJobIndices[0] != 1 {
		t.Fatalf("UnreachableJobIndices = %v, want [1]", m.UnreachableJobIndices)
	}
}

func TestBreakFits(t *testing.T) {
	start := int64(12 * 3600)
	end := int64(12*3600 + 1800)
	fits := &domain.DriverView{BreakStart: &start, BreakEnd: &end, BreakDuration: 1800}
	if !BreakFits(fits) {
		t.Error("expected break to fit exactly")
	}

	tooTight := &domain.DriverView{BreakStart: &start, BreakEnd: &end, BreakDuration: 3600}
	if BreakFits(tooTight) {
		t.Error("expected break window narrower than duration to not fit")
	}

	noWindow := &domain.DriverView{}
	if BreakFits(noWindow) {
		t.Error("expected no break window to not fit")
	}
}

func TestWorkWindow_Overtime(t *testing.T) {
	d := &domain.DriverView{WorkStartTime: 8 * 3600, WorkEndTime: 17 * 3600, AllowedOvertime: true}
	start, end := WorkWindow(d)
	if start != 8*3600 {
		t.Errorf("start = %v, want %v", start, 8*3600)
	}
	if end != 19*3600 {
		t.Errorf("end = %v, want %v (with 2h overtime)", end, 19*3600)
	}
}

func TestDropPenalty(t *testing.T) {
	high := &domain.JobView{Priority: domain.PriorityHigh}
	if DropPenalty(high) != 10_000_000 {
		t.Errorf("DropPenalty(high) = %d, want 10000000", DropPenalty(high))
	}
}
