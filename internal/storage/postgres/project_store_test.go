package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

func strPtr(s string) *string { return &s }

func TestNewProjectStoreWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewProjectStoreWithPool(mock, "projects; DROP TABLE x")
	require.Error(t, err)
	_, err = NewProjectStoreWithPool(nil, "")
	require.Error(t, err)
}

func TestFetchBuildsDashboardQuery(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProjectStoreWithPool(mock, "")
	require.NoError(t, err)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "name", "description", "status", "start_date", "end_date", "owner"}).
		AddRow("p1", strPtr("Alpha"), (*string)(nil), strPtr("Complete"), &start, (*time.Time)(nil), strPtr("ana")).
		AddRow("p2", strPtr("Beta"), strPtr("second"), (*string)(nil), (*time.Time)(nil), (*time.Time)(nil), (*string)(nil))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, description, status, start_date, end_date, owner FROM projects ORDER BY name ASC LIMIT $1",
	)).WithArgs(200).WillReturnRows(rows)

	got, err := store.Fetch(context.Background(), project.DashboardQuery(200))
	require.NoError(t, err)
	require.Equal(t, []project.Project{
		{ID: "p1", Name: "Alpha", Status: "Complete", StartDate: &start, Owner: "ana"},
		{ID: "p2", Name: "Beta", Description: "second"},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRejectsUnknownColumns(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewProjectStoreWithPool(mock, "projects")
	require.NoError(t, err)

	_, err = store.Fetch(context.Background(), project.FetchQuery{Select: []project.Column{"secret"}})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = store.Fetch(context.Background(), project.FetchQuery{OrderBy: "1; --"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchWrapsQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewProjectStoreWithPool(mock, "projects")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT id, name FROM projects ORDER BY owner DESC").WillReturnError(boom)

	_, err = store.Fetch(context.Background(), project.FetchQuery{
		Select:  []project.Column{project.ColumnID, project.ColumnName},
		OrderBy: project.ColumnOwner,
		Desc:    true,
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertWritesRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewProjectStoreWithPool(mock, "projects")
	require.NoError(t, err)

	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	p := project.Project{ID: "p1", Name: "Alpha", Status: "Started", EndDate: &end}

	mock.ExpectExec("INSERT INTO projects").
		WithArgs("p1", "Alpha", nil, "Started", nil, end, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Insert(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewProjectStoreWithPool(mock, "projects")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO projects").
		WithArgs("p1", "Alpha", nil, nil, nil, nil, nil).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err = store.Insert(context.Background(), project.Project{ID: "p1", Name: "Alpha"})
	require.ErrorIs(t, err, project.ErrDuplicate)
	require.ErrorIs(t, store.Insert(context.Background(), project.Project{Name: "x"}), project.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaAndPing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewProjectStoreWithPool(mock, "projects")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS projects").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectPing()

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
