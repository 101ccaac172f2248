package exportpdf

import (
	"testing"
	"time"

	"github.com/fleetops/optimizer/pkg/domain"
)

func sampleResult() *domain.OptimizationResult {
	jobID := int64(10)
	now := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)
	return &domain.OptimizationResult{
		Routes: []domain.FormattedRoute{
			{
				DriverID:             100,
				TotalDistanceMeters:  5000,
				TotalDurationSeconds: 3600,
				Stops: []domain.FormattedStop{
					{SequenceOrder: 0, StopType: domain.StopTypeDepotStart, Address: "Depot", ArrivalTime: now, DepartureTime: now},
					{SequenceOrder: 1, StopType: domain.StopTypeJob, JobID: &jobID, Address: "Stop A", ArrivalTime: now.Add(time.Hour), DepartureTime: now.Add(time.Hour)},
				},
				Break: &domain.FormattedBreak{
					StartTime:       now.Add(2 * time.Hour),
					EndTime:         now.Add(2*time.Hour + 30*time.Minute),
					DurationMinutes: 30,
				},
			},
		},
	}
}

func TestWrite_ProducesNonEmptyPDF(t *testing.T) {
	data, err := Write(sampleResult(), "Downtown Loop", time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Write() returned empty data")
	}
	// PDF files begin with the %PDF- magic header.
	if string(data[:5]) != "%PDF-" {
		t.Errorf("output does not look like a PDF, starts with %q", data[:5])
	}
}

func TestWrite_WithUnassignedJobs(t *testing.T) {
	result := sampleResult()
	result.UnassignedJobs = []domain.UnassignedJob{
		{JobID: 99, Address: "Stop Z", Reason: "Service duration exceeds all team member's shift lengths"},
	}
	data, err := Write(result, "Downtown Loop", time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Write() returned empty data")
	}
}

func TestWrite_NoRoutes(t *testing.T) {
	data, err := Write(&domain.OptimizationResult{}, "Empty Route", time.Now())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Write() returned empty data for an empty result")
	}
}
