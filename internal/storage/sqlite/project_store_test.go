package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

// newTestStore opens an in-memory database for one test.
func newTestStore(t *testing.T) *ProjectStore {
	t.Helper()

	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := project.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestInsertAndFetchRoundTripsColumns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alpha := project.Project{
		ID:          "p1",
		Name:        "Alpha",
		Description: "first",
		Status:      "In Progress",
		StartDate:   date(t, "2024-01-15"),
		EndDate:     date(t, "2024-03-01"),
		Owner:       "ana",
	}
	require.NoError(t, store.Insert(ctx, project.Project{ID: "p2", Name: "Beta"}))
	require.NoError(t, store.Insert(ctx, alpha))

	got, err := store.Fetch(ctx, project.DashboardQuery(200))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, alpha, got[0])
	require.Equal(t, project.Project{ID: "p2", Name: "Beta"}, got[1])
}

func TestFetchHonorsOrderLimitAndProjection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, p := range []project.Project{
		{ID: "a", Name: "A", Owner: "x"},
		{ID: "b", Name: "B", Owner: "y"},
		{ID: "c", Name: "C", Owner: "z"},
	} {
		require.NoError(t, store.Insert(ctx, p))
	}

	got, err := store.Fetch(ctx, project.FetchQuery{
		Select:  []project.Column{project.ColumnName, project.ColumnOwner},
		OrderBy: project.ColumnName,
		Desc:    true,
		Top:     2,
	})
	require.NoError(t, err)
	require.Equal(t, []project.Project{{Name: "C", Owner: "z"}, {Name: "B", Owner: "y"}}, got)

	_, err = store.Fetch(ctx, project.FetchQuery{OrderBy: "rowid"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestInsertDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, project.Project{ID: "p1", Name: "Alpha"}))
	require.ErrorIs(t, store.Insert(ctx, project.Project{ID: "p1", Name: "Again"}), project.ErrDuplicate)
	require.ErrorIs(t, store.Insert(ctx, project.Project{Name: "no id"}), project.ErrInvalidInput)
}

func TestOpenFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, project.Project{ID: "p1", Name: "Alpha"}))
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	got, err := reopened.Fetch(ctx, project.DashboardQuery(10))
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = Open(ctx, " ")
	require.Error(t, err)
}
