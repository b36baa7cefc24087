package database

import (
	"testing"

	"github.com/iliyamo/transit-admin-console/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{User: "console", Host: "db", Port: "3306", Name: "audit"}
	if got := DSN(cfg); got != "console@tcp(db:3306)/audit?charset=utf8mb4&parseTime=true&loc=UTC" {
		t.Fatalf("DSN = %q", got)
	}
	cfg.Pass = "pw"
	if got := DSN(cfg); got != "console:pw@tcp(db:3306)/audit?charset=utf8mb4&parseTime=true&loc=UTC" {
		t.Fatalf("DSN with password = %q", got)
	}
}
