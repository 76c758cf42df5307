package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

func TestModifyDay_InsertsClosedWeekend(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewDoctorAvailabilityRepository(db, time.Second)
	doctor := uuid.New()

	mutated := false
	_, err := repo.ModifyDay(context.Background(), doctor, int(time.Sunday), func(a *entity.DoctorAvailability) {
		mutated = true
	})
	if err != nil {
		t.Fatalf("modify day: %v", err)
	}
	if !mutated {
		t.Fatalf("mutate was not called")
	}

	insert, sql := rec.mustFind(t, `INSERT INTO "doctor_availabilities"`, "ON CONFLICT")
	if !strings.Contains(sql, fmt.Sprintf("'%s',0,false,", doctor)) {
		t.Fatalf("Sunday must be inserted closed:\n%s", sql)
	}
	if !strings.Contains(sql, `ON CONFLICT ("doctor_id","day_of_week") DO NOTHING`) {
		t.Fatalf("insert must not overwrite an existing day:\n%s", sql)
	}

	lock, sel := rec.mustFind(t, `SELECT * FROM "doctor_availabilities"`)
	if lock < insert || !strings.HasSuffix(strings.TrimSpace(sel), "FOR UPDATE") {
		t.Fatalf("expected the row to be locked after the insert:\n%s", rec.dump())
	}
}

func TestModifyDay_InsertsOpenWeekday(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewDoctorAvailabilityRepository(db, time.Second)
	doctor := uuid.New()

	if _, err := repo.ModifyDay(context.Background(), doctor, int(time.Monday), func(*entity.DoctorAvailability) {}); err != nil {
		t.Fatalf("modify day: %v", err)
	}

	_, sql := rec.mustFind(t, `INSERT INTO "doctor_availabilities"`, "ON CONFLICT")
	if !strings.Contains(sql, fmt.Sprintf("'%s',1,true,", doctor)) {
		t.Fatalf("Monday must be inserted open:\n%s", sql)
	}
}
