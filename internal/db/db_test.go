package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDialect(t *testing.T) {
	for _, s := range []string{"postgres", "sqlite"} {
		d, err := ParseDialect(s)
		if err != nil || string(d) != s {
			t.Errorf("ParseDialect(%q) = %q, %v", s, d, err)
		}
	}
	if _, err := ParseDialect("mysql"); err == nil {
		t.Error("mysql accepted")
	}
}

func TestBuilderPlaceholders(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{Postgres, "DELETE FROM tasks WHERE id = $1"},
		{SQLite, "DELETE FROM tasks WHERE id = ?"},
	}
	for _, tt := range tests {
		query, args, err := tt.dialect.Builder().Delete("tasks").Where("id = ?", 3).ToSql()
		if err != nil {
			t.Fatal(err)
		}
		if query != tt.want || len(args) != 1 {
			t.Errorf("%s: got %q %v, want %q", tt.dialect, query, args, tt.want)
		}
	}
}

func TestTasksTableDDL(t *testing.T) {
	if ddl := Postgres.TasksTableDDL(); !strings.Contains(ddl, "BIGSERIAL PRIMARY KEY") || !strings.Contains(ddl, "TIMESTAMPTZ") {
		t.Errorf("postgres ddl: %s", ddl)
	}
	if ddl := SQLite.TasksTableDDL(); !strings.Contains(ddl, "AUTOINCREMENT") {
		t.Errorf("sqlite ddl: %s", ddl)
	}
}

func TestPerCallProvider(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := Connect(ctx, SQLite, filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()

	p := NewPerCallProvider(sqlDB)
	for i := 0; i < 3; i++ {
		conn, err := p.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		// with a single open connection this would block forever if
		// the previous call leaked its connection
		if err := conn.Close(); err != nil {
			t.Fatal(err)
		}
	}

	sqlDB.Close()
	if _, err := p.Conn(ctx); err == nil {
		t.Error("conn from closed pool succeeded")
	}
}
