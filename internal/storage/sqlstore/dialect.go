package sqlstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DefaultTable is the default vault table name.
const DefaultTable = "token_vault"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ParseDialect accepts the configured backend name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return "", fmt.Errorf("sqlstore: unknown dialect %q", s)
	}
}

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return ""
	}
}

// ValidTableName reports whether name can be interpolated as an identifier.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// CreateTableSQL returns the idempotent DDL for the vault table.
// Tokens are case-sensitive, so MySQL needs a binary collation on the key.
// Words are stored as utf8mb4 regardless of the server default charset.
func (d Dialect) CreateTableSQL(table string) string {
	switch d {
	case MySQL:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
			"token VARCHAR(64) CHARACTER SET ascii COLLATE ascii_bin NOT NULL PRIMARY KEY, "+
			"word TEXT CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL)", table)
	default:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
			"token VARCHAR(64) PRIMARY KEY, "+
			"word TEXT NOT NULL)", table)
	}
}

// UpsertSQL returns the insert-or-update statement for one row, with
// placeholders already in the driver's bind style.
func (d Dialect) UpsertSQL(table string) string {
	var q string
	switch d {
	case MySQL:
		q = fmt.Sprintf("INSERT INTO %s (token, word) VALUES (?, ?) "+
			"ON DUPLICATE KEY UPDATE word = VALUES(word)", table)
	default:
		q = fmt.Sprintf("INSERT INTO %s (token, word) VALUES (?, ?) "+
			"ON CONFLICT (token) DO UPDATE SET word = EXCLUDED.word", table)
	}
	return sqlx.Rebind(sqlx.BindType(d.DriverName()), q)
}

// SelectAllSQL returns the statement loading every row, ordered by token.
func (d Dialect) SelectAllSQL(table string) string {
	return fmt.Sprintf("SELECT token, word FROM %s ORDER BY token", table)
}
