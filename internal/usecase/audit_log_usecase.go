package usecase

import (
	"context"
	"errors"

	"ayurveda-clinic-backend/internal/converter"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrAuditLogNotFound = errors.New("audit log not found")
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, limit, offset int) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// GetAllAuditLogs returns one page of audit logs, newest first.
func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, limit, offset int) (*dto.AuditLogListResponse, error) {
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := u.auditLogRepo.FindAll(ctx, limit, offset)
	if err != nil {
		u.log.Warnf("Failed to find all audit logs: %+v", err)
		return nil, storeError(err)
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, storeError(err)
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
