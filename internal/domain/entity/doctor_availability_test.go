package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewDefaultAvailability_Weekdays(t *testing.T) {
	doctor := uuid.New()
	for day := 0; day < 7; day++ {
		a := NewDefaultAvailability(doctor, day)
		want := day >= 1 && day <= 5
		if a.IsAvailable != want {
			t.Errorf("day %d: available %v, want %v", day, a.IsAvailable, want)
		}
		if len(a.TimeSlots) != 6 {
			t.Errorf("day %d: expected six default slots, got %d", day, len(a.TimeSlots))
		}
	}
}

func TestSetSpecialDate_ReplacesSameDate(t *testing.T) {
	a := NewDefaultAvailability(uuid.New(), 2)
	a.SetSpecialDate(SpecialDate{Date: "2030-06-04", IsAvailable: false, Reason: "Holiday"})
	a.SetSpecialDate(SpecialDate{Date: "2030-06-05", IsAvailable: false})
	a.SetSpecialDate(SpecialDate{Date: "2030-06-04", IsAvailable: true, Reason: "Reopened"})

	if len(a.SpecialDates) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(a.SpecialDates))
	}
	sd, ok := a.FindSpecialDate("2030-06-04")
	if !ok || !sd.IsAvailable || sd.Reason != "Reopened" {
		t.Fatalf("override not replaced: %+v", sd)
	}
	if _, ok := a.FindSpecialDate("2030-06-06"); ok {
		t.Fatalf("unexpected override")
	}
}

func TestTimeSlot_BoundsInClinicZone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2030, 6, 4, 0, 0, 0, 0, loc)

	start, end, err := TimeSlot{StartTime: "09:00", EndTime: "10:00"}.Bounds(day, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2030, 6, 4, 3, 30, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start: got %s, want %s", start.UTC(), want)
	}
	if end.Sub(start) != time.Hour {
		t.Fatalf("expected a one hour slot, got %s", end.Sub(start))
	}

	if _, _, err := (TimeSlot{StartTime: "9am", EndTime: "10:00"}).Bounds(day, loc); err == nil {
		t.Fatalf("expected an error for a malformed clock")
	}
}

func TestTimeSlot_Validate(t *testing.T) {
	cases := []struct {
		slot TimeSlot
		ok   bool
	}{
		{TimeSlot{StartTime: "09:00", EndTime: "10:00"}, true},
		{TimeSlot{StartTime: "10:00", EndTime: "09:00"}, false},
		{TimeSlot{StartTime: "10:00", EndTime: "10:00"}, false},
		{TimeSlot{StartTime: "25:00", EndTime: "26:00"}, false},
	}
	for _, tc := range cases {
		if err := tc.slot.Validate(); (err == nil) != tc.ok {
			t.Errorf("%+v: got err %v, want ok=%v", tc.slot, err, tc.ok)
		}
	}
}

func TestTimeSlots_ScanValue(t *testing.T) {
	var nilSlots TimeSlots
	v, err := nilSlots.Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil slots should store as an empty array, got %v %v", v, err)
	}

	var scanned TimeSlots
	if err := scanned.Scan([]byte(`[{"startTime":"09:00","endTime":"10:00","isAvailable":true}]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(scanned) != 1 || scanned[0].EndTime != "10:00" {
		t.Fatalf("unexpected slots %+v", scanned)
	}
	if err := scanned.Scan(42); err == nil {
		t.Fatalf("expected an error for a non-JSON value")
	}
}

func TestOpenSlots(t *testing.T) {
	a := &DoctorAvailability{TimeSlots: TimeSlots{
		{StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
		{StartTime: "10:00", EndTime: "11:00", IsAvailable: false},
		{StartTime: "11:00", EndTime: "12:00", IsAvailable: true},
	}}
	open := a.OpenSlots()
	if len(open) != 2 || open[1].StartTime != "11:00" {
		t.Fatalf("unexpected open slots %+v", open)
	}
}
