package project

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEffectiveStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{"", StatusNotStarted},
		{"NotStarted", StatusNotStarted},
		{"Not Started", StatusNotStarted},
		{"InProgress", StatusInProgress},
		{"AtRisk", StatusAtRisk},
		{"Complete", StatusComplete},
		{"Unknown", "Unknown"},
		{"   ", "   "},
		{"complete", "complete"},
		{"not-started", "not-started"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, EffectiveStatus(tc.in), "input %q", tc.in)
	}
}

func TestStatusColor(t *testing.T) {
	t.Parallel()

	require.Equal(t, "#9ca3af", StatusColor(StatusNotStarted))
	require.Equal(t, "#6366f1", StatusColor(StatusStarted))
	require.Equal(t, "#f59e0b", StatusColor(StatusInProgress))
	require.Equal(t, "#f43f5e", StatusColor(StatusAtRisk))
	require.Equal(t, "#10b981", StatusColor(StatusComplete))
	require.Equal(t, "#9ca3af", StatusColor("Unknown"))
	require.Equal(t, "#9ca3af", StatusColor(""))
	require.Equal(t, "#9ca3af", StatusColor("complete"))
}

func TestStatusBadgeClass(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bg-rose-100 text-rose-700", StatusBadgeClass("At Risk"))
	require.Empty(t, StatusBadgeClass("Unknown"))
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseStatus("")
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = ParseStatus("in progress")
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, got)

	_, err = ParseStatus("Paused")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestIsKnownStatus(t *testing.T) {
	t.Parallel()

	require.True(t, IsKnownStatus(""))
	require.True(t, IsKnownStatus("InProgress"))
	require.False(t, IsKnownStatus("complete"))
	require.False(t, IsKnownStatus("Archived"))
}
