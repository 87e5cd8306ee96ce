// Package postgres provides the Postgres-backed project store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const uniqueViolation = "23505"

// Config controls the Postgres connection pool used for project rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Ping(context.Context) error
	Close()
}

// ProjectStore reads and writes project rows in Postgres.
type ProjectStore struct {
	pool  pool
	table string
}

// NewProjectStore connects a pool using cfg.
func NewProjectStore(ctx context.Context, cfg Config) (*ProjectStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProjectStore{pool: p, table: table}, nil
}

// NewProjectStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProjectStoreWithPool(p pool, table string) (*ProjectStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ProjectStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = "projects"
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the projects table when it is missing.
func (s *ProjectStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	status TEXT,
	start_date DATE,
	end_date DATE,
	owner TEXT
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Fetch runs q against the table.
func (s *ProjectStore) Fetch(ctx context.Context, q project.FetchQuery) ([]project.Project, error) {
	cols, err := q.Columns()
	if err != nil {
		return nil, err
	}
	query, args, err := s.selectSQL(cols, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (s *ProjectStore) selectSQL(cols []project.Column, q project.FetchQuery) (string, []any, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = string(c)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(names, ", "), s.table)
	if q.OrderBy != "" {
		if !q.OrderBy.Known() {
			return "", nil, fmt.Errorf("%w: unknown order column %q", project.ErrInvalidInput, q.OrderBy)
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", q.OrderBy, dir)
	}
	var args []any
	if q.Top > 0 {
		b.WriteString(" LIMIT $1")
		args = append(args, q.Top)
	}
	return b.String(), args, nil
}

func scanProject(rows pgx.Rows, cols []project.Column) (project.Project, error) {
	var (
		p                         project.Project
		name, desc, status, owner *string
		startDate, endDate        *time.Time
	)
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case project.ColumnID:
			dest[i] = &p.ID
		case project.ColumnName:
			dest[i] = &name
		case project.ColumnDescription:
			dest[i] = &desc
		case project.ColumnStatus:
			dest[i] = &status
		case project.ColumnStartDate:
			dest[i] = &startDate
		case project.ColumnEndDate:
			dest[i] = &endDate
		case project.ColumnOwner:
			dest[i] = &owner
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return project.Project{}, fmt.Errorf("scan project: %w", err)
	}
	p.Name = deref(name)
	p.Description = deref(desc)
	p.Status = deref(status)
	p.Owner = deref(owner)
	p.StartDate = startDate
	p.EndDate = endDate
	return p, nil
}

// Insert writes p as a new row.
func (s *ProjectStore) Insert(ctx context.Context, p project.Project) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", project.ErrInvalidInput)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	description,
	status,
	start_date,
	end_date,
	owner
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`, s.table)

	args := []any{
		p.ID,
		p.Name,
		nullable(p.Description),
		nullable(p.Status),
		nullableDate(p.StartDate),
		nullableDate(p.EndDate),
		nullable(p.Owner),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", project.ErrDuplicate, p.ID)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *ProjectStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ProjectStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
