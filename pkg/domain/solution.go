package domain

// Stop один визит в маршруте решателя, до форматирования в абсолютное время.
type Stop struct {
	JobID             int64
	LocationIndex     int
	ArrivalSeconds    int64
	DistanceToNext    float64
	DurationToNextSec int64
}

// BreakInfo конкретное значение интервала перерыва, выданное решателем для
// транспортного средства (см. §4.4, §4.5.3).
type BreakInfo struct {
	StartSeconds    int64
	DurationMinutes int32
}

// VehicleSolution маршрут одного водителя/транспортного средства, посетившего
// хотя бы одну задачу.
type VehicleSolution struct {
	DriverID  int64
	VehicleID *int64
	Stops     []Stop

	DistanceMeters float64
	DurationSeconds int64

	StartDistance float64 // депо → первая задача
	StartDuration int64

	SavedDistanceMeters float64
	SavedTimeSeconds    int64

	Break *BreakInfo
}

// Solution сырой результат решателя (§4.4): маршруты по водителям и
// задачи, которые не удалось разместить ни в одном маршруте.
type Solution struct {
	Vehicles       []VehicleSolution
	UnassignedJobs []int64
}

// TotalDistanceMeters возвращает суммарную дистанцию по всем маршрутам решения.
func (s *Solution) TotalDistanceMeters() float64 {
	var total float64
	for _, v := range s.Vehicles {
		total += v.DistanceMeters
	}
	return total
}

// TotalDurationSeconds возвращает суммарную длительность по всем маршрутам решения.
func (s *Solution) TotalDurationSeconds() int64 {
	var total int64
	for _, v := range s.Vehicles {
		total += v.DurationSeconds
	}
	return total
}

// AssignedJobCount возвращает число задач, размещённых по маршрутам.
func (s *Solution) AssignedJobCount() int {
	count := 0
	for _, v := range s.Vehicles {
		count += len(v.Stops)
	}
	return count
}
