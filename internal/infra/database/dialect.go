package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLiteFoldFunction is the scalar function registered with the SQLite driver that
// lowercases text by Unicode rules. The built-in lower() and LIKE fold ASCII only.
const SQLiteFoldFunction = "lower_unicode"

//nolint:gochecknoinits
func init() {
	sqlite.MustRegisterDeterministicScalarFunction(SQLiteFoldFunction, 1, foldText)
}

func foldText(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Dialect describes the SQL differences between the supported databases.
type Dialect interface {
	// Name returns the configured driver name.
	Name() string
	// DriverName returns the database/sql driver the dialect registers.
	DriverName() string
	// DSN turns the configured DSN into a driver specific connection string.
	DSN(dsn string) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
	// ContainsFold returns a predicate matching column against the LIKE pattern bound
	// at placeholder, ignoring case. The pattern escapes with a backslash.
	ContainsFold(column, placeholder string) string
	// UniqueViolation reports whether err is a unique constraint violation and returns
	// the offending constraint description.
	UniqueViolation(err error) (string, bool)
	// ForeignKeyViolation reports whether err is a foreign key violation.
	ForeignKeyViolation(err error) bool

	migrationDir() string
	writeLocker() sync.Locker
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		return SQLiteDialect{}, nil
	case DriverPostgres, "postgresql", "pq":
		return PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// SQLiteDialect targets modernc.org/sqlite.
type SQLiteDialect struct{}

var _ Dialect = SQLiteDialect{}

func (SQLiteDialect) Name() string           { return DriverSQLite }
func (SQLiteDialect) DriverName() string     { return "sqlite" }
func (SQLiteDialect) DSN(dsn string) string  { return sqliteDSN(dsn) }
func (SQLiteDialect) Placeholder(int) string { return "?" }
func (SQLiteDialect) migrationDir() string   { return "migrations/sqlite" }

func (SQLiteDialect) ContainsFold(column, placeholder string) string {
	return SQLiteFoldFunction + "(" + column + ") LIKE " + SQLiteFoldFunction + "(" + placeholder + ") ESCAPE '\\'"
}

// SQLite allows a single writer at a time.
func (SQLiteDialect) writeLocker() sync.Locker { return &sync.Mutex{} }

func (SQLiteDialect) UniqueViolation(err error) (string, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		// e.g. "UNIQUE constraint failed: users.email"
		return sqliteErr.Error(), true
	default:
		return "", false
	}
}

func (SQLiteDialect) ForeignKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error

	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// PostgresDialect targets github.com/lib/pq.
type PostgresDialect struct{}

var _ Dialect = PostgresDialect{}

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

func (PostgresDialect) Name() string             { return DriverPostgres }
func (PostgresDialect) DriverName() string       { return "postgres" }
func (PostgresDialect) DSN(dsn string) string    { return dsn }
func (PostgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (PostgresDialect) migrationDir() string     { return "migrations/postgres" }
func (PostgresDialect) writeLocker() sync.Locker { return nopLocker{} }

func (PostgresDialect) ContainsFold(column, placeholder string) string {
	return column + " ILIKE " + placeholder + " ESCAPE '\\'"
}

func (PostgresDialect) UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return "", false
	}

	// e.g. "users_email_key"
	return pqErr.Constraint, true
}

func (PostgresDialect) ForeignKeyViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
