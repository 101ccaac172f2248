package domain

import "time"

// OptimizationRequest заявка на оптимизацию маршрутов (§3). Снимок входных
// идентификаторов (job_ids/driver_ids) хранится на самой заявке — она не
// выводится заново из Job.route_id при последующих чтениях.
type OptimizationRequest struct {
	ID            int64
	TenantID      int64
	RouteName     string
	DepotID       int64
	JobIDs        []int64
	DriverIDs     []int64
	ScheduledDate time.Time
	Goal          Goal
	Status        RequestStatus
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ErrorMessage  string
	Result        *OptimizationResult
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone создаёт глубокую копию заявки, достаточную для сравнения идемпотентности опроса (§8).
func (r *OptimizationRequest) Clone() *OptimizationRequest {
	clone := *r
	clone.JobIDs = append([]int64(nil), r.JobIDs...)
	clone.DriverIDs = append([]int64(nil), r.DriverIDs...)
	if r.StartedAt != nil {
		t := *r.StartedAt
		clone.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		clone.CompletedAt = &t
	}
	if r.Result != nil {
		result := *r.Result
		result.Routes = append([]FormattedRoute(nil), r.Result.Routes...)
		result.UnassignedJobs = append([]UnassignedJob(nil), r.Result.UnassignedJobs...)
		clone.Result = &result
	}
	return &clone
}

// UnassignedJob задача, которую решатель не смог включить ни в один маршрут,
// вместе с объясняющей причиной (эвристика, не производная решателя, §4.5.6).
type UnassignedJob struct {
	JobID   int64   `json:"job_id"`
	Reason  string  `json:"reason"`
	Address string  `json:"address"`
}

// IdleBlock период простоя между двумя последовательными остановками,
// превышающий порог в 60 секунд (§4.5.4).
type IdleBlock struct {
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationSeconds  int64     `json:"duration_seconds"`
	AtLocationIndex  int       `json:"at_location_index"`
}

// FormattedStop остановка маршрута после перевода в абсолютное время (§4.5.2).
type FormattedStop struct {
	SequenceOrder          int       `json:"sequence_order"`
	StopType               StopType  `json:"stop_type"`
	JobID                  *int64    `json:"job_id,omitempty"`
	Address                string    `json:"address,omitempty"`
	Location               Point     `json:"location"`
	ArrivalTime            time.Time `json:"arrival_time"`
	DepartureTime          time.Time `json:"departure_time"`
	DistanceToNextMeters   float64   `json:"distance_to_next_stop_meters,omitempty"`
	TimeToNextStopSeconds  int64     `json:"time_to_next_stop_seconds,omitempty"`
}

// FormattedBreak перерыв, размещённый в расписании маршрута (§4.5.3).
type FormattedBreak struct {
	DurationMinutes  int32     `json:"duration_minutes"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	AfterStopIndex   int       `json:"break_after_stop_index"`
	EnRoute          bool      `json:"en_route"`
	Location         Point     `json:"location"`
}

// FormattedRoute один маршрут в составе итогового результата заявки.
type FormattedRoute struct {
	DriverID               int64             `json:"driver_id"`
	VehicleID              *int64            `json:"vehicle_id,omitempty"`
	Stops                  []FormattedStop   `json:"stops"`
	IdleBlocks             []IdleBlock       `json:"idle_blocks,omitempty"`
	Break                  *FormattedBreak   `json:"break,omitempty"`
	Polyline               *string           `json:"polyline"`
	TotalDistanceMeters    float64           `json:"total_distance_meters"`
	TotalDurationSeconds   int64             `json:"total_duration_seconds"`
	TotalDistanceSavedM    float64           `json:"total_distance_saved_meters"`
	TotalTimeSavedSeconds  int64             `json:"total_time_saved_seconds"`
}

// OptimizationResult результат оптимизации, сохраняемый в Request.Result (§4.5).
type OptimizationResult struct {
	Routes         []FormattedRoute `json:"routes"`
	UnassignedJobs []UnassignedJob  `json:"unassigned_jobs"`
}

// Route сохранённый маршрут (§3); создаётся только Route Persister-ом при
// успешном решении.
type Route struct {
	ID                      int64
	TenantID                int64
	OptimizationRequestID   int64
	DriverID                *int64
	VehicleID               *int64
	DepotID                 *int64
	ScheduledDate           time.Time
	Status                  RouteStatus
	TotalDistanceMeters     float64
	TotalDurationSeconds    int64
	TotalDistanceSavedMeters float64
	TotalTimeSavedSeconds    int64
	Polyline                *string
}

// RouteStop остановка сохранённого маршрута (§3). Последовательность стопов
// одного маршрута непрерывна 0..n-1: позиция 0 — depot_start, n-1 — depot_end.
type RouteStop struct {
	ID                   int64
	RouteID              int64
	JobID                *int64
	SequenceOrder        int
	StopType             StopType
	PlannedArrivalTime   *time.Time
	PlannedDepartureTime *time.Time
}
