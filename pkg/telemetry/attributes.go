package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Задача (проблема маршрутизации)
	AttrProblemJobs    = "problem.jobs"
	AttrProblemDrivers = "problem.drivers"
	AttrProblemDepotID = "problem.depot_id"

	// Решатель
	AttrAlgorithm            = "solver.algorithm"
	AttrIterations           = "solver.iterations"
	AttrTotalDistanceMeters  = "solver.total_distance_meters"
	AttrTotalDurationSeconds = "solver.total_duration_seconds"
	AttrUnassignedCount      = "solver.unassigned_count"

	// Результат
	AttrRoutesCount = "result.routes_count"
)

// ProblemAttributes returns the span attributes describing a routing
// problem's size, recorded before a solve attempt.
func ProblemAttributes(jobs, drivers int, depotID int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrProblemJobs, jobs),
		attribute.Int(AttrProblemDrivers, drivers),
		attribute.Int64(AttrProblemDepotID, depotID),
	}
}

// SolveAttributes returns the span attributes describing a completed
// solve: the algorithm used, the totals across every vehicle's route,
// and how many jobs went unassigned.
func SolveAttributes(algorithm string, totalDistanceMeters float64, totalDurationSeconds int64, unassignedCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, algorithm),
		attribute.Float64(AttrTotalDistanceMeters, totalDistanceMeters),
		attribute.Int64(AttrTotalDurationSeconds, totalDurationSeconds),
		attribute.Int(AttrUnassignedCount, unassignedCount),
	}
}

// ResultAttributes returns the span attributes describing a formatted
// result's shape.
func ResultAttributes(routesCount, unassignedCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrRoutesCount, routesCount),
		attribute.Int(AttrUnassignedCount, unassignedCount),
	}
}
