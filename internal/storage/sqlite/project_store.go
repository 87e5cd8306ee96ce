// Package sqlite provides an embedded project store on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/project-dashboard/internal/project"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    status TEXT,
    start_date TEXT,
    end_date TEXT,
    owner TEXT
);
CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
`

// ProjectStore keeps project rows in a SQLite database file.
type ProjectStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*ProjectStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage.sqlite.path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &ProjectStore{db: db}, nil
}

// Fetch runs q against the projects table.
func (s *ProjectStore) Fetch(ctx context.Context, q project.FetchQuery) ([]project.Project, error) {
	cols, err := q.Columns()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = string(c)
	}
	query := "SELECT " + strings.Join(names, ", ") + " FROM projects"
	if q.OrderBy != "" {
		if !q.OrderBy.Known() {
			return nil, fmt.Errorf("%w: unknown order column %q", project.ErrInvalidInput, q.OrderBy)
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", q.OrderBy, dir)
	}
	var args []any
	if q.Top > 0 {
		query += " LIMIT ?"
		args = append(args, q.Top)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func scanProject(rows *sql.Rows, cols []project.Column) (project.Project, error) {
	var (
		p    project.Project
		vals = make([]sql.NullString, len(cols))
		dest = make([]any, len(cols))
	)
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return project.Project{}, fmt.Errorf("scan project: %w", err)
	}
	for i, c := range cols {
		v := vals[i].String
		switch c {
		case project.ColumnID:
			p.ID = v
		case project.ColumnName:
			p.Name = v
		case project.ColumnDescription:
			p.Description = v
		case project.ColumnStatus:
			p.Status = v
		case project.ColumnOwner:
			p.Owner = v
		case project.ColumnStartDate, project.ColumnEndDate:
			if !vals[i].Valid || v == "" {
				continue
			}
			t, err := project.ParseDate(v)
			if err != nil {
				return project.Project{}, fmt.Errorf("scan %s of %q: %w", c, p.ID, err)
			}
			if c == project.ColumnStartDate {
				p.StartDate = t
			} else {
				p.EndDate = t
			}
		}
	}
	return p, nil
}

// Insert writes p as a new row.
func (s *ProjectStore) Insert(ctx context.Context, p project.Project) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", project.ErrInvalidInput)
	}
	const query = `
		INSERT INTO projects (id, name, description, status, start_date, end_date, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		nullable(p.Description),
		nullable(p.Status),
		nullableDate(p.StartDate),
		nullableDate(p.EndDate),
		nullable(p.Owner),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", project.ErrDuplicate, p.ID)
	}
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Ping checks the database handle.
func (s *ProjectStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *ProjectStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(project.DateLayout), Valid: true}
}
