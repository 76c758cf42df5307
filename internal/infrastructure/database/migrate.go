package database

import (
	"errors"
	"fmt"
	"net/url"

	"ayurveda-clinic-backend/config"
	"ayurveda-clinic-backend/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

// MigrationURL builds the pgx5:// URL golang-migrate expects.
func MigrationURL(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// Migrator applies the embedded schema.
type Migrator struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

func NewMigrator(cfg config.DBConfig, log *logrus.Logger) (*Migrator, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrationURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrateLogger{log: log}

	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	mg.logVersion()
	return nil
}

// Down rolls back the given number of migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		steps = 1
	}
	if err := mg.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	mg.logVersion()
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) logVersion() {
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		mg.log.Warnf("Failed to read schema version: %+v", err)
		return
	}
	mg.log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Schema migrated")
}

// migrateLogger adapts logrus to migrate.Logger.
type migrateLogger struct {
	log *logrus.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}
