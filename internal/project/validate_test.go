package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateRequestBuild(t *testing.T) {
	t.Parallel()

	p, err := CreateRequest{
		Name:        "  Apollo ",
		Description: "Moon",
		Owner:       "Ana",
		Status:      "in-progress",
		StartDate:   "2024-03-01",
		EndDate:     "2024-06-30T00:00:00Z",
	}.Build("id-1")
	require.NoError(t, err)
	require.Equal(t, "id-1", p.ID)
	require.Equal(t, "Apollo", p.Name)
	require.Equal(t, StatusInProgress, p.Status)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *p.StartDate)
	require.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), *p.EndDate)
}

func TestCreateRequestBuild_Invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		req  CreateRequest
	}{
		{"missing name", CreateRequest{Name: "  "}},
		{"bad status", CreateRequest{Name: "x", Status: "Paused"}},
		{"bad start", CreateRequest{Name: "x", StartDate: "03/01/2024"}},
		{"end before start", CreateRequest{Name: "x", StartDate: "2024-03-02", EndDate: "2024-03-01"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.Build("id")
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateRequestBuild_EmptyStatusStaysMissing(t *testing.T) {
	t.Parallel()

	p, err := CreateRequest{Name: "x"}.Build("id")
	require.NoError(t, err)
	require.Empty(t, p.Status)
	require.Nil(t, p.StartDate)
	require.Nil(t, p.EndDate)
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "3/01/2024", FormatDate(date(2024, 3, 1)))
	require.Empty(t, FormatDate(nil))
}

func TestDashboardQuery(t *testing.T) {
	t.Parallel()

	q := DashboardQuery(0)
	require.Equal(t, DefaultMaxRows, q.Top)
	require.Equal(t, ColumnName, q.OrderBy)
	require.False(t, q.Desc)
	require.Equal(t, DefaultProjection, q.Select)
}
