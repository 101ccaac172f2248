package domain

import "time"

// DepotView нормализованное представление депо для решателя.
type DepotView struct {
	ID       int64
	Location Point
	Address  string
}

// JobView нормализованное представление задачи; Index — позиция в матрице
// издержек, где индекс 0 зарезервирован под депо (индексация 1..N, §4.2).
type JobView struct {
	ID              int64
	Index           int
	Location        Point
	Address         string
	TimeWindowStart *int64
	TimeWindowEnd   *int64
	ServiceSeconds  int64
	Priority        Priority
}

// DriverView нормализованное представление водителя — решатель трактует
// каждого водителя как одно "транспортное средство".
type DriverView struct {
	ID              int64
	WorkStartTime   int64
	WorkEndTime     int64
	AllowedOvertime bool
	MaxDistanceKm   *float64
	BreakStart      *int64
	BreakEnd        *int64
	BreakDuration   int64
	Skills          []string
}

// EffectiveWorkEnd возвращает конец смены с учётом разрешённой переработки (+2ч, §4.3).
func (d *DriverView) EffectiveWorkEnd() int64 {
	end := d.WorkEndTime
	if d.AllowedOvertime {
		end += 2 * 3600
	}
	return end
}

// VehicleView нормализованное представление транспортного средства,
// достаточное для выбора профиля маршрутизации (§4.1).
type VehicleView struct {
	ID   int64
	Type VehicleType
}

// Problem нормализованный, провалидированный вход для решателя — результат
// работы Data Loader (§4.2).
type Problem struct {
	TenantID         int64
	Depot            DepotView
	Jobs             []JobView
	Drivers          []DriverView
	VehiclesByDriver map[int64]*VehicleView
	ScheduledDate    time.Time
	Goal             Goal
}

// Locations возвращает упорядоченный список координат для матрицы издержек:
// индекс 0 — депо, далее по одной на задачу в порядке Problem.Jobs.
func (p *Problem) Locations() []Point {
	locations := make([]Point, 0, len(p.Jobs)+1)
	locations = append(locations, p.Depot.Location)
	for _, j := range p.Jobs {
		locations = append(locations, j.Location)
	}
	return locations
}

// JobByIndex возвращает JobView по её позиции в матрице издержек (1..N).
func (p *Problem) JobByIndex(index int) (*JobView, bool) {
	for i := range p.Jobs {
		if p.Jobs[i].Index == index {
			return &p.Jobs[i], true
		}
	}
	return nil, false
}

// VehicleFor возвращает транспортное средство, закреплённое за водителем, если оно есть.
func (p *Problem) VehicleFor(driverID int64) (*VehicleView, bool) {
	v, ok := p.VehiclesByDriver[driverID]
	return v, ok && v != nil
}
