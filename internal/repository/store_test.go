package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("syntax error")

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"practitioner start", &pgconn.PgError{Code: "23505", ConstraintName: "appointments_practitioner_start_key"}, domainRepo.ErrDuplicateStart},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, domainRepo.ErrDuplicate},
		{"exclusion", &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"}, domainRepo.ErrSlotConflict},
		{"wrapped exclusion", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"}), domainRepo.ErrSlotConflict},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, domainRepo.ErrStoreUnavailable},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, domainRepo.ErrStoreUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), domainRepo.ErrStoreUnavailable},
		{"domain passes through", domainRepo.ErrStaleWrite, domainRepo.ErrStaleWrite},
		{"unknown", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := translateError(tc.err); !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTranslateError_UnknownPgErrorUnchanged(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01"}
	got := translateError(pgErr)

	var out *pgconn.PgError
	if !errors.As(got, &out) || out.Code != "42P01" {
		t.Fatalf("expected the original error, got %v", got)
	}
}

func TestNewStore_DefaultTimeout(t *testing.T) {
	if s := newStore(nil, 0); s.timeout != defaultStoreTimeout {
		t.Fatalf("expected default timeout, got %s", s.timeout)
	}
	if s := newStore(nil, 2*time.Second); s.timeout != 2*time.Second {
		t.Fatalf("expected configured timeout, got %s", s.timeout)
	}
}

func TestNotFound(t *testing.T) {
	if !notFound(fmt.Errorf("find: %w", gorm.ErrRecordNotFound)) {
		t.Fatalf("wrapped record-not-found should match")
	}
	if notFound(errors.New("other")) {
		t.Fatalf("other errors must not match")
	}
}
