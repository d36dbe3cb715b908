package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect captures what differs between the supported engines: driver
// wiring, placeholder syntax, and the SQL fragments that cannot be
// written portably. Repositories write SQLite-flavored queries with ?
// placeholders and let the dialect translate.
type Dialect interface {
	// DriverName returns the driver name registered with database/sql
	DriverName() string

	// DSN builds the data source name for sql.Open
	DSN(config DialectConfig) string

	// RewriteQuery translates ? placeholders into the engine's syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether INSERT ids come from
	// Result.LastInsertId rather than a RETURNING clause
	SupportsLastInsertId() bool

	// ConfigureConnection applies engine-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the engine's directory under migrations/
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the DDL for the table that
	// records applied migration files
	CreateMigrationsTableQuery() string

	// BoolValue renders a boolean as a SQL literal, for the few queries
	// that inline it instead of binding it
	BoolValue(b bool) string
}

// DialectConfig carries the connection settings a dialect needs to
// build its DSN.
type DialectConfig struct {
	// Path is the database file; SQLite only
	Path string

	// URL is the connection URL for PostgreSQL and MySQL
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered renumbers ? placeholders as $1, $2, ...
// in query order.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
