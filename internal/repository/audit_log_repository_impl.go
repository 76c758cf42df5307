package repository

import (
	"context"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct {
	store
}

func NewAuditLogRepository(db *gorm.DB, storeTimeout time.Duration) domainRepo.AuditLogRepository {
	return &auditLogRepository{store: newStore(db, storeTimeout)}
}

func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translateError(db.Omit("User").Create(log).Error)
}

func (r *auditLogRepository) FindAll(ctx context.Context, limit, offset int) ([]entity.AuditLog, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var logs []entity.AuditLog
	var total int64

	if err := db.Model(&entity.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	err := db.Preload("User.Role").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return logs, total, nil
}

func (r *auditLogRepository) FindByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var log entity.AuditLog
	err := db.Preload("User.Role").Where("id = ?", id).First(&log).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &log, nil
}
