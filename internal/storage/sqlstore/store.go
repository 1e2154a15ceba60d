// Package sqlstore persists the vault as one row per token in PostgreSQL
// or MySQL.
//
// Each assignment is a single upsert; the database commits it before
// Upsert returns. Load reads the whole table at startup.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/yndnr/tokvault-go/internal/core/domain"
)

// Config configures the SQL backend.
type Config struct {
	Dialect      Dialect
	DSN          string
	Table        string
	MaxOpenConns int
}

// Backend implements storage.Backend over a relational table.
type Backend struct {
	db      *sqlx.DB
	dialect Dialect
	table   string
	upsert  string
	logger  *slog.Logger
}

type row struct {
	Token string `db:"token"`
	Word  string `db:"word"`
}

// Open connects, verifies the connection and creates the table if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.Dialect.DriverName() == "" {
		return nil, fmt.Errorf("sqlstore: unknown dialect %q", cfg.Dialect)
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect %s: %w", cfg.Dialect, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	b, err := New(db, cfg.Dialect, cfg.Table, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := b.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// New wraps an open connection pool.
func New(db *sqlx.DB, dialect Dialect, table string, logger *slog.Logger) (*Backend, error) {
	if table == "" {
		table = DefaultTable
	}
	if !ValidTableName(table) {
		return nil, fmt.Errorf("sqlstore: invalid table name %q", table)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{
		db:      db,
		dialect: dialect,
		table:   table,
		upsert:  dialect.UpsertSQL(table),
		logger:  logger,
	}, nil
}

// EnsureSchema creates the vault table when it does not exist.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, b.dialect.CreateTableSQL(b.table)); err != nil {
		return fmt.Errorf("sqlstore: create table %s: %w", b.table, err)
	}
	return nil
}

// Name returns the dialect name.
func (b *Backend) Name() string {
	return string(b.dialect)
}

// Load reads every row. Rows that would break the one-to-one mapping
// (a word already seen under another token) are skipped; the row with the
// smallest token wins.
func (b *Backend) Load(ctx context.Context) (*domain.Vault, error) {
	var rows []row
	if err := b.db.SelectContext(ctx, &rows, b.dialect.SelectAllSQL(b.table)); err != nil {
		return nil, domain.ErrStorageOpen.WithDetails("select " + b.table).WithCause(err)
	}

	v, skipped := vaultFromRows(rows)
	if skipped > 0 {
		b.logger.Warn("skipped vault rows sharing a word with another token",
			"backend", b.Name(),
			"table", b.table,
			"skipped", skipped)
	}
	b.logger.Info("vault loaded", "backend", b.Name(), "entries", v.Len())
	return v, nil
}

// vaultFromRows builds the vault from rows in byte order of token, so the
// surviving row does not depend on the database collation.
func vaultFromRows(rows []row) (*domain.Vault, int) {
	slices.SortFunc(rows, func(a, b row) int { return strings.Compare(a.Token, b.Token) })

	v := domain.NewVault()
	skipped := 0
	for _, r := range rows {
		if _, dup := v.WordToToken[r.Word]; dup {
			skipped++
			continue
		}
		v.WordToToken[r.Word] = r.Token
		v.TokenToWord[r.Token] = r.Word
	}
	return v, skipped
}

// Upsert writes the single new row for e.
func (b *Backend) Upsert(ctx context.Context, _ *domain.Vault, e domain.Entry) error {
	if _, err := b.db.ExecContext(ctx, b.upsert, e.Token, e.Word); err != nil {
		return fmt.Errorf("%s: upsert: %w", b.dialect, err)
	}
	return nil
}

// Replace rewrites the table to hold exactly v, in one transaction.
func (b *Backend) Replace(ctx context.Context, v *domain.Vault) (err error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", b.dialect, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+b.table); err != nil {
		return fmt.Errorf("%s: clear %s: %w", b.dialect, b.table, err)
	}
	for _, e := range v.Entries() {
		if _, err = tx.ExecContext(ctx, b.upsert, e.Token, e.Word); err != nil {
			return fmt.Errorf("%s: upsert: %w", b.dialect, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", b.dialect, err)
	}
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}
