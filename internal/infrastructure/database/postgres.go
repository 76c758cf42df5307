package database

import (
	"context"
	"fmt"
	"time"

	"ayurveda-clinic-backend/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectTimeout  = 5 * time.Second
	connMaxLifetime = 30 * time.Minute
	slowQuery       = 200 * time.Millisecond
)

// DSN builds the libpq connection string. Sessions use the clinic timezone.
func DSN(cfg config.DBConfig, timezone string) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, timezone,
	)
}

// NewPostgresConnection opens the gorm pool and pings it. SQL is logged through log:
// slow queries and errors always, every statement at debug level.
func NewPostgresConnection(cfg config.DBConfig, timezone string, log *logrus.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg, timezone)), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(logrus.Fields{"host": cfg.Host, "db": cfg.Name}).Info("Connected to PostgreSQL")
	return db, nil
}
