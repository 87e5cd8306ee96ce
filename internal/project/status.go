package project

import (
	"fmt"
	"strings"
)

// Status display labels. These are the values stored in the status column.
const (
	StatusNotStarted = "Not Started"
	StatusStarted    = "Started"
	StatusInProgress = "In Progress"
	StatusAtRisk     = "At Risk"
	StatusComplete   = "Complete"
)

// Statuses lists the enumerated status set in form order.
var Statuses = []string{
	StatusNotStarted,
	StatusStarted,
	StatusInProgress,
	StatusAtRisk,
	StatusComplete,
}

type statusStyle struct {
	color string
	badge string
}

var statusStyles = map[string]statusStyle{
	StatusNotStarted: {color: "#9ca3af", badge: "bg-slate-100 text-slate-700"},
	StatusStarted:    {color: "#6366f1", badge: "bg-indigo-100 text-indigo-700"},
	StatusInProgress: {color: "#f59e0b", badge: "bg-amber-100 text-amber-700"},
	StatusAtRisk:     {color: "#f43f5e", badge: "bg-rose-100 text-rose-700"},
	StatusComplete:   {color: "#10b981", badge: "bg-emerald-100 text-emerald-700"},
}

// canonical maps a folded spelling (lowercase, no separators) to its label.
var canonical = func() map[string]string {
	m := make(map[string]string, len(Statuses))
	for _, s := range Statuses {
		m[fold(s)] = s
	}
	return m
}()

func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// identifiers maps the enum identifiers ("NotStarted", "InProgress", ...) to
// their display labels.
var identifiers = func() map[string]string {
	m := make(map[string]string, len(Statuses))
	for _, s := range Statuses {
		m[strings.ReplaceAll(s, " ", "")] = s
	}
	return m
}()

// EffectiveStatus resolves the status used for grouping and display. An empty
// value becomes StatusNotStarted and an enum identifier such as "NotStarted"
// becomes its display label. Anything else is returned unchanged.
func EffectiveStatus(raw string) string {
	if raw == "" {
		return StatusNotStarted
	}
	if label, ok := identifiers[raw]; ok {
		return label
	}
	return raw
}

// IsKnownStatus reports whether raw resolves to a member of Statuses.
func IsKnownStatus(raw string) bool {
	_, ok := statusStyles[EffectiveStatus(raw)]
	return ok
}

// StatusColor returns the chart color for a status, falling back to the
// Not Started color for unrecognized values.
func StatusColor(raw string) string {
	if st, ok := statusStyles[EffectiveStatus(raw)]; ok {
		return st.color
	}
	return statusStyles[StatusNotStarted].color
}

// StatusBadgeClass returns the table badge classes for a status, or "" when
// the status is not recognized.
func StatusBadgeClass(raw string) string {
	return statusStyles[EffectiveStatus(raw)].badge
}

// ParseStatus validates a status submitted through the create form or a status
// filter. Matching ignores case and separators. An empty value is accepted and
// stays empty.
func ParseStatus(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	if label, ok := canonical[fold(s)]; ok {
		return label, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
}
