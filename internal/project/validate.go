package project

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of form dates.
const DateLayout = "2006-01-02"

// DisplayDateLayout renders dates in the table (M/dd/yyyy).
const DisplayDateLayout = "1/02/2006"

// Build validates req and returns the project to insert under id.
func (req CreateRequest) Build(id string) (Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Project{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return Project{}, err
	}
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return Project{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return Project{}, fmt.Errorf("end_date: %w", err)
	}
	if start != nil && end != nil && end.Before(*start) {
		return Project{}, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	return Project{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		StartDate:   start,
		EndDate:     end,
		Owner:       strings.TrimSpace(req.Owner),
	}, nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields nil.
func ParseDate(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, raw)
	}
	t = t.UTC()
	return &t, nil
}

// FormatDate renders an optional date for display; nil renders as "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DisplayDateLayout)
}
