package database

import (
	"testing"
)

func TestDialectMetadata(t *testing.T) {
	tests := []struct {
		name         string
		dialect      Dialect
		driver       string
		subdir       string
		lastInsertId bool
		boolTrue     string
		boolFalse    string
	}{
		{"sqlite", NewSQLiteDialect(), "sqlite3", "sqlite", true, "1", "0"},
		{"postgres", NewPostgresDialect(), "postgres", "postgres", false, "TRUE", "FALSE"},
		{"mysql", NewMySQLDialect(), "mysql", "mysql", true, "TRUE", "FALSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %q, want %q", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %q, want %q", got, tt.subdir)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertId {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertId)
			}
			if got := tt.dialect.BoolValue(true); got != tt.boolTrue {
				t.Errorf("BoolValue(true) = %q, want %q", got, tt.boolTrue)
			}
			if got := tt.dialect.BoolValue(false); got != tt.boolFalse {
				t.Errorf("BoolValue(false) = %q, want %q", got, tt.boolFalse)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{
			name:    "sqlite passthrough",
			dialect: NewSQLiteDialect(),
			query:   "SELECT id FROM invitations WHERE token = ?",
			want:    "SELECT id FROM invitations WHERE token = ?",
		},
		{
			name:    "postgres single placeholder",
			dialect: NewPostgresDialect(),
			query:   "SELECT id FROM invitations WHERE token = ?",
			want:    "SELECT id FROM invitations WHERE token = $1",
		},
		{
			name:    "postgres numbering follows query order",
			dialect: NewPostgresDialect(),
			query:   "UPDATE invitations SET status = ?, linked_profile_id = ? WHERE token = ? AND status = ?",
			want:    "UPDATE invitations SET status = $1, linked_profile_id = $2 WHERE token = $3 AND status = $4",
		},
		{
			name:    "mysql passthrough",
			dialect: NewMySQLDialect(),
			query:   "INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)",
			want:    "INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.RewriteQuery(tt.query); got != tt.want {
				t.Errorf("RewriteQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}
