package domain

// Goal целевая функция, которую решатель минимизирует по маршруту.
type Goal string

const (
	GoalMinTime     Goal = "min_time"
	GoalMinDistance Goal = "min_distance"
)

// String возвращает строковое представление цели оптимизации.
func (g Goal) String() string {
	return string(g)
}

// Valid проверяет, что значение цели допустимо.
func (g Goal) Valid() bool {
	switch g {
	case GoalMinTime, GoalMinDistance:
		return true
	default:
		return false
	}
}

// JobStatus статус задачи в её жизненном цикле.
type JobStatus string

const (
	JobStatusDraft      JobStatus = "draft"
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusInTransit  JobStatus = "in_transit"
	JobStatusCompleted  JobStatus = "completed"
)

func (s JobStatus) String() string {
	return string(s)
}

// Priority приоритет задачи, определяющий штраф за её пропуск решателем.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) String() string {
	return string(p)
}

// DropPenalty возвращает штраф дизъюнкции для данного приоритета (см. §4.3).
func (p Priority) DropPenalty() int64 {
	switch p {
	case PriorityHigh:
		return 10_000_000
	case PriorityMedium:
		return 5_000_000
	case PriorityLow:
		return 1_000_000
	default:
		return 1_000_000
	}
}

// RequestStatus статус заявки на оптимизацию.
type RequestStatus string

const (
	RequestStatusQueued     RequestStatus = "queued"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusFailed     RequestStatus = "failed"
)

func (s RequestStatus) String() string {
	return string(s)
}

// Terminal сообщает, является ли статус конечным (completed/failed).
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusFailed
}

// CanTransitionTo проверяет допустимость перехода queued→processing→{completed,failed}.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestStatusQueued:
		return next == RequestStatusProcessing
	case RequestStatusProcessing:
		return next == RequestStatusCompleted || next == RequestStatusFailed
	default:
		return false
	}
}

// VehicleType тип транспортного средства; определяет профиль маршрутизации.
type VehicleType string

const (
	VehicleCar     VehicleType = "car"
	VehicleVan     VehicleType = "van"
	VehicleTruck   VehicleType = "truck"
	VehicleBike    VehicleType = "bike"
	VehicleScooter VehicleType = "scooter"
	VehicleFoot    VehicleType = "foot"
)

func (v VehicleType) String() string {
	return string(v)
}

// RouteStatus статус сформированного маршрута.
type RouteStatus string

const (
	RouteStatusPlanned   RouteStatus = "planned"
	RouteStatusActive    RouteStatus = "active"
	RouteStatusCompleted RouteStatus = "completed"
)

func (s RouteStatus) String() string {
	return string(s)
}

// StopType тип остановки в последовательности маршрута.
type StopType string

const (
	StopTypeDepotStart StopType = "depot_start"
	StopTypeJob        StopType = "job"
	StopTypeDepotEnd   StopType = "depot_end"
)

func (s StopType) String() string {
	return string(s)
}
