package domain

import "testing"

func ptr64(v int64) *int64  { return &v }
func ptr32(v int32) *int32  { return &v }

func TestJob_Eligible(t *testing.T) {
	draft := &Job{Status: JobStatusDraft, Location: Point{Lng: 1, Lat: 2}}
	if !draft.Eligible() {
		t.Error("draft job with location should be eligible")
	}

	assigned := &Job{Status: JobStatusAssigned, Location: Point{Lng: 1, Lat: 2}}
	if assigned.Eligible() {
		t.Error("assigned job should not be eligible")
	}

	noLocation := &Job{Status: JobStatusDraft}
	if noLocation.Eligible() {
		t.Error("job without a location should not be eligible")
	}
}

func TestJob_HasTimeWindow(t *testing.T) {
	j := &Job{}
	if j.HasTimeWindow() {
		t.Error("job without window bounds should report no time window")
	}
	j.TimeWindowStart = ptr64(1000)
	j.TimeWindowEnd = ptr64(2000)
	if !j.HasTimeWindow() {
		t.Error("job with both bounds should report a time window")
	}
}

func TestJob_Clone_Independent(t *testing.T) {
	j := &Job{ID: 1, TimeWindowStart: ptr64(100), AssignedTo: ptr64(5)}
	clone := j.Clone()

	*clone.TimeWindowStart = 999
	*clone.AssignedTo = 10

	if *j.TimeWindowStart != 100 {
		t.Error("mutating clone's TimeWindowStart affected original")
	}
	if *j.AssignedTo != 5 {
		t.Error("mutating clone's AssignedTo affected original")
	}
}

func TestDriver_HasBreakWindow(t *testing.T) {
	d := &Driver{
		BreakTimeStart:       ptr64(12 * 3600),
		BreakTimeEnd:         ptr64(14 * 3600),
		BreakDurationMinutes: ptr32(30),
	}
	if !d.HasBreakWindow() {
		t.Error("2h window with a 30m break should be wide enough")
	}

	tight := &Driver{
		BreakTimeStart:       ptr64(12 * 3600),
		BreakTimeEnd:         ptr64(12*3600 + 10*60),
		BreakDurationMinutes: ptr32(30),
	}
	if tight.HasBreakWindow() {
		t.Error("window narrower than the break duration should be rejected")
	}

	missing := &Driver{}
	if missing.HasBreakWindow() {
		t.Error("driver without break fields should report no break window")
	}
}

func TestDriver_EffectiveWorkEnd(t *testing.T) {
	d := &Driver{WorkEndTime: ptr64(17 * 3600), AllowedOvertime: false}
	if got := d.EffectiveWorkEnd(); got != 17*3600 {
		t.Errorf("EffectiveWorkEnd() = %d, want %d", got, 17*3600)
	}

	d.AllowedOvertime = true
	if got := d.EffectiveWorkEnd(); got != 19*3600 {
		t.Errorf("EffectiveWorkEnd() with overtime = %d, want %d", got, 19*3600)
	}
}

func TestDriver_ShiftLengthSeconds(t *testing.T) {
	d := &Driver{WorkStartTime: ptr64(9 * 3600), WorkEndTime: ptr64(17 * 3600)}
	if got := d.ShiftLengthSeconds(); got != 8*3600 {
		t.Errorf("ShiftLengthSeconds() = %d, want %d", got, 8*3600)
	}

	noShift := &Driver{}
	if got := noShift.ShiftLengthSeconds(); got != 0 {
		t.Errorf("ShiftLengthSeconds() without bounds = %d, want 0", got)
	}
}

func TestDriver_Clone_Independent(t *testing.T) {
	d := &Driver{ID: 1, Skills: []string{"refrigerated"}, MaxDistanceKm: new(float64)}
	*d.MaxDistanceKm = 100
	clone := d.Clone()

	clone.Skills[0] = "hazmat"
	*clone.MaxDistanceKm = 200

	if d.Skills[0] != "refrigerated" {
		t.Error("mutating clone's Skills affected original")
	}
	if *d.MaxDistanceKm != 100 {
		t.Error("mutating clone's MaxDistanceKm affected original")
	}
}
