// internal/database/database_test.go
//
// Unit-tests for the sqlx pool helpers using sqlmock.
//
// Run: go test ./internal/database -v

package database

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestPrepareDSN(t *testing.T) {
	out, err := PrepareDSN("gate@tcp(db:3306)/control", "s3cret")
	if err != nil {
		t.Fatalf("PrepareDSN: %v", err)
	}
	cfg, err := mysql.ParseDSN(out)
	if err != nil {
		t.Fatalf("reparse %q: %v", out, err)
	}
	if cfg.User != "gate" || cfg.Passwd != "s3cret" || cfg.DBName != "control" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.ParseTime {
		t.Error("parseTime not forced")
	}
}

func TestPrepareDSNKeepsPassword(t *testing.T) {
	out, err := PrepareDSN("gate:inline@tcp(db:3306)/control", "")
	if err != nil {
		t.Fatalf("PrepareDSN: %v", err)
	}
	if !strings.Contains(out, "gate:inline@") {
		t.Errorf("password dropped: %q", out)
	}
}

func TestPrepareDSNInvalid(t *testing.T) {
	if _, err := PrepareDSN("not a dsn", ""); err == nil {
		t.Fatal("expected parse error")
	}
}
