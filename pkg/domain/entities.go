package domain

import "time"

// Point географическая точка в WGS84 (долгота, широта), как её хранит PostGIS.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Depot склад/база — начало и конец каждого маршрута заявки.
type Depot struct {
	ID       int64
	TenantID int64
	Name     string
	Location Point
	Address  string
}

// Clone создаёт копию депо.
func (d *Depot) Clone() *Depot {
	clone := *d
	return &clone
}

// Job задача доставки/визита.
type Job struct {
	ID                     int64
	TenantID               int64
	Status                 JobStatus
	ScheduledDate          time.Time
	Location               Point
	Address                string
	TimeWindowStart        *int64 // секунды от полуночи ScheduledDate
	TimeWindowEnd          *int64
	ServiceDurationMinutes *int32
	Priority               Priority
	AssignedTo             *int64 // driver id
	RouteID                *int64
}

// Clone создаёт глубокую копию задачи.
func (j *Job) Clone() *Job {
	clone := *j
	if j.TimeWindowStart != nil {
		v := *j.TimeWindowStart
		clone.TimeWindowStart = &v
	}
	if j.TimeWindowEnd != nil {
		v := *j.TimeWindowEnd
		clone.TimeWindowEnd = &v
	}
	if j.ServiceDurationMinutes != nil {
		v := *j.ServiceDurationMinutes
		clone.ServiceDurationMinutes = &v
	}
	if j.AssignedTo != nil {
		v := *j.AssignedTo
		clone.AssignedTo = &v
	}
	if j.RouteID != nil {
		v := *j.RouteID
		clone.RouteID = &v
	}
	return &clone
}

// Eligible сообщает, подлежит ли задача оптимизации: статус draft и известна локация.
func (j *Job) Eligible() bool {
	return j.Status == JobStatusDraft && !(j.Location == Point{})
}

// HasTimeWindow сообщает, заданы ли оба конца временного окна.
func (j *Job) HasTimeWindow() bool {
	return j.TimeWindowStart != nil && j.TimeWindowEnd != nil
}

// ServiceSeconds возвращает продолжительность обслуживания задачи в секундах.
func (j *Job) ServiceSeconds() int64 {
	if j.ServiceDurationMinutes == nil {
		return 0
	}
	return int64(*j.ServiceDurationMinutes) * 60
}

// Vehicle транспортное средство, закреплённое за водителем.
type Vehicle struct {
	ID             int64
	TenantID       int64
	Type           VehicleType
	CapacityWeight *float64
	CapacityVolume *float64
}

// Clone создаёт копию транспортного средства.
func (v *Vehicle) Clone() *Vehicle {
	clone := *v
	if v.CapacityWeight != nil {
		cw := *v.CapacityWeight
		clone.CapacityWeight = &cw
	}
	if v.CapacityVolume != nil {
		cv := *v.CapacityVolume
		clone.CapacityVolume = &cv
	}
	return &clone
}

// Driver водитель (участник команды), которому решатель назначает маршрут.
type Driver struct {
	ID                   int64
	TenantID             int64
	VehicleID            *int64
	WorkStartTime        *int64 // секунды от полуночи
	WorkEndTime          *int64
	AllowedOvertime      bool
	MaxDistanceKm        *float64
	BreakTimeStart       *int64
	BreakTimeEnd         *int64
	BreakDurationMinutes *int32
	Skills               []string
}

// Clone создаёт глубокую копию водителя.
func (d *Driver) Clone() *Driver {
	clone := *d
	if d.VehicleID != nil {
		v := *d.VehicleID
		clone.VehicleID = &v
	}
	if d.WorkStartTime != nil {
		v := *d.WorkStartTime
		clone.WorkStartTime = &v
	}
	if d.WorkEndTime != nil {
		v := *d.WorkEndTime
		clone.WorkEndTime = &v
	}
	if d.MaxDistanceKm != nil {
		v := *d.MaxDistanceKm
		clone.MaxDistanceKm = &v
	}
	if d.BreakTimeStart != nil {
		v := *d.BreakTimeStart
		clone.BreakTimeStart = &v
	}
	if d.BreakTimeEnd != nil {
		v := *d.BreakTimeEnd
		clone.BreakTimeEnd = &v
	}
	if d.BreakDurationMinutes != nil {
		v := *d.BreakDurationMinutes
		clone.BreakDurationMinutes = &v
	}
	clone.Skills = append([]string(nil), d.Skills...)
	return &clone
}

// HasBreakWindow проверяет, что окно перерыва задано и достаточно широко,
// чтобы вместить заявленную продолжительность (иначе перерыв отбрасывается, §4.3).
func (d *Driver) HasBreakWindow() bool {
	if d.BreakTimeStart == nil || d.BreakTimeEnd == nil || d.BreakDurationMinutes == nil {
		return false
	}
	durationSeconds := int64(*d.BreakDurationMinutes) * 60
	return *d.BreakTimeEnd-*d.BreakTimeStart >= durationSeconds
}

// EffectiveWorkEnd возвращает конец смены с учётом разрешённой переработки (+2ч, §4.3).
func (d *Driver) EffectiveWorkEnd() int64 {
	if d.WorkEndTime == nil {
		return 0
	}
	end := *d.WorkEndTime
	if d.AllowedOvertime {
		end += 2 * 3600
	}
	return end
}

// ShiftLengthSeconds возвращает продолжительность рабочей смены в секундах, без переработки.
func (d *Driver) ShiftLengthSeconds() int64 {
	if d.WorkStartTime == nil || d.WorkEndTime == nil {
		return 0
	}
	return *d.WorkEndTime - *d.WorkStartTime
}
