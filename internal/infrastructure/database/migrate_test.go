package database

import (
	"testing"

	"ayurveda-clinic-backend/config"
)

func TestMigrationURL(t *testing.T) {
	cfg := config.DBConfig{
		Host:     "db",
		Port:     "5432",
		User:     "clinic",
		Password: "p@ss word",
		Name:     "ayurveda",
		SSLMode:  "disable",
	}

	want := "pgx5://clinic:p%40ss%20word@db:5432/ayurveda?sslmode=disable"
	if got := MigrationURL(cfg); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestDSN_UsesClinicTimezone(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: "5432", User: "clinic", Password: "secret", Name: "ayurveda", SSLMode: "require"}

	want := "host=db user=clinic password=secret dbname=ayurveda port=5432 sslmode=require TimeZone=Asia/Kolkata"
	if got := DSN(cfg, "Asia/Kolkata"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
