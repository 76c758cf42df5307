package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const defaultStoreTimeout = 5 * time.Second

// PostgreSQL error codes
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	pgLockNotAvailable   = "55P03"
	pgQueryCanceled      = "57014"
)

const practitionerStartConstraint = "appointments_practitioner_start_key"

// store is embedded by every repository: it bounds each call with a timeout and
// translates driver errors into domain errors.
type store struct {
	db      *gorm.DB
	timeout time.Duration
}

func newStore(db *gorm.DB, timeout time.Duration) store {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return store{db: db, timeout: timeout}
}

// conn returns a session bound to a context that expires after the store timeout.
func (s store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// translateError maps PostgreSQL and context failures onto domain errors. Errors that
// are already domain errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domainRepo.ErrStoreUnavailable
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if strings.Contains(pgErr.ConstraintName, practitionerStartConstraint) {
			return domainRepo.ErrDuplicateStart
		}
		return domainRepo.ErrDuplicate
	case pgExclusionViolation:
		return domainRepo.ErrSlotConflict
	case pgLockNotAvailable, pgQueryCanceled:
		return domainRepo.ErrStoreUnavailable
	}
	return err
}

// notFound reports whether err is gorm's record-not-found.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
