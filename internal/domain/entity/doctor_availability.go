package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the calendar-date format used for special dates and slot lookups.
	DateLayout = "2006-01-02"
	// ClockLayout is the local time-of-day format used by time slots.
	ClockLayout = "15:04"
)

// TimeSlot is a bookable window in local clinic time, e.g. 09:00-10:00.
type TimeSlot struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// Bounds resolves the slot onto a calendar day in loc.
func (s TimeSlot) Bounds(day time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start, err := clockOn(day, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := clockOn(day, s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Validate checks the HH:MM format and ordering of the slot.
func (s TimeSlot) Validate() error {
	start, err := time.Parse(ClockLayout, s.StartTime)
	if err != nil {
		return fmt.Errorf("invalid slot start %q", s.StartTime)
	}
	end, err := time.Parse(ClockLayout, s.EndTime)
	if err != nil {
		return fmt.Errorf("invalid slot end %q", s.EndTime)
	}
	if !start.Before(end) {
		return fmt.Errorf("slot %s-%s ends before it starts", s.StartTime, s.EndTime)
	}
	return nil
}

// SpecialDate overrides the weekly template for one calendar date.
type SpecialDate struct {
	Date        string `json:"date"` // YYYY-MM-DD
	IsAvailable bool   `json:"isAvailable"`
	Reason      string `json:"reason"`
}

// TimeSlots is stored as JSONB
type TimeSlots []TimeSlot

// SpecialDates is stored as JSONB
type SpecialDates []SpecialDate

// DoctorAvailability is a practitioner's template for one weekday (0 = Sunday).
type DoctorAvailability struct {
	ID           int          `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:doctor_availabilities_doctor_day_key,priority:1" json:"doctor_id"`
	DayOfWeek    int          `gorm:"type:smallint;not null;uniqueIndex:doctor_availabilities_doctor_day_key,priority:2" json:"day_of_week"`
	IsAvailable  bool         `gorm:"not null" json:"is_available"`
	TimeSlots    TimeSlots    `gorm:"type:jsonb;not null;default:'[]'" json:"time_slots"`
	SpecialDates SpecialDates `gorm:"type:jsonb;not null;default:'[]'" json:"special_dates"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DoctorAvailability) TableName() string {
	return "doctor_availabilities"
}

// DefaultTimeSlots is the template used when a weekday record is created implicitly.
func DefaultTimeSlots() TimeSlots {
	return TimeSlots{
		{StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
		{StartTime: "10:00", EndTime: "11:00", IsAvailable: true},
		{StartTime: "11:00", EndTime: "12:00", IsAvailable: true},
		{StartTime: "14:00", EndTime: "15:00", IsAvailable: true},
		{StartTime: "15:00", EndTime: "16:00", IsAvailable: true},
		{StartTime: "16:00", EndTime: "17:00", IsAvailable: true},
	}
}

// NewDefaultAvailability creates the implicit record for a weekday: default slots,
// open Monday through Friday.
func NewDefaultAvailability(doctorID uuid.UUID, dayOfWeek int) *DoctorAvailability {
	return &DoctorAvailability{
		DoctorID:     doctorID,
		DayOfWeek:    dayOfWeek,
		IsAvailable:  dayOfWeek >= int(time.Monday) && dayOfWeek <= int(time.Friday),
		TimeSlots:    DefaultTimeSlots(),
		SpecialDates: SpecialDates{},
	}
}

// FindSpecialDate returns the override for date (YYYY-MM-DD), if any.
func (d *DoctorAvailability) FindSpecialDate(date string) (SpecialDate, bool) {
	for _, sd := range d.SpecialDates {
		if sd.Date == date {
			return sd, true
		}
	}
	return SpecialDate{}, false
}

// SetSpecialDate replaces any existing override for the same date and appends sd.
func (d *DoctorAvailability) SetSpecialDate(sd SpecialDate) {
	kept := make(SpecialDates, 0, len(d.SpecialDates)+1)
	for _, existing := range d.SpecialDates {
		if existing.Date != sd.Date {
			kept = append(kept, existing)
		}
	}
	d.SpecialDates = append(kept, sd)
}

// OpenSlots returns the slots flagged available, in stored order.
func (d *DoctorAvailability) OpenSlots() TimeSlots {
	out := make(TimeSlots, 0, len(d.TimeSlots))
	for _, s := range d.TimeSlots {
		if s.IsAvailable {
			out = append(out, s)
		}
	}
	return out
}

func clockOn(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use HH:MM", clock)
	}
	y, m, dd := day.In(loc).Date()
	return time.Date(y, m, dd, t.Hour(), t.Minute(), 0, 0, loc), nil
}

// Value returns json value, implement driver.Valuer interface
func (t TimeSlots) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	return string(b), err
}

// Scan scan value into TimeSlots, implements sql.Scanner interface
func (t *TimeSlots) Scan(value interface{}) error {
	return scanJSONB(value, t)
}

// Value returns json value, implement driver.Valuer interface
func (s SpecialDates) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan scan value into SpecialDates, implements sql.Scanner interface
func (s *SpecialDates) Scan(value interface{}) error {
	return scanJSONB(value, s)
}

func scanJSONB(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, dest)
}
