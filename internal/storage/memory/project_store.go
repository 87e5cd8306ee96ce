package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

// ProjectStore provides an in-memory project table for development/testing.
type ProjectStore struct {
	mu    sync.RWMutex
	rows  map[string]project.Project
	order []string
}

// NewProjectStore constructs a ProjectStore, optionally seeded with rows.
func NewProjectStore(seed ...project.Project) *ProjectStore {
	s := &ProjectStore{rows: make(map[string]project.Project)}
	for _, p := range seed {
		if _, exists := s.rows[p.ID]; exists {
			continue
		}
		s.rows[p.ID] = cloneProject(p)
		s.order = append(s.order, p.ID)
	}
	return s
}

// Insert stores a new project.
func (s *ProjectStore) Insert(_ context.Context, p project.Project) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", project.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[p.ID]; exists {
		return project.ErrDuplicate
	}
	s.rows[p.ID] = cloneProject(p)
	s.order = append(s.order, p.ID)
	return nil
}

// Fetch returns copies of the stored rows shaped by query.
func (s *ProjectStore) Fetch(ctx context.Context, query project.FetchQuery) ([]project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	s.mu.RLock()
	out := make([]project.Project, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneProject(s.rows[id]))
	}
	s.mu.RUnlock()

	if query.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := sortKey(out[i], query.OrderBy), sortKey(out[j], query.OrderBy)
			if query.Desc {
				return a > b
			}
			return a < b
		})
	}
	if query.Top > 0 && len(out) > query.Top {
		out = out[:query.Top]
	}
	if len(query.Select) > 0 {
		for i := range out {
			out[i] = project.Select(out[i], query.Select)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *ProjectStore) Close() error { return nil }

// Len reports the number of stored rows.
func (s *ProjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// sortKey approximates ORDER BY: names compare case-insensitively and missing
// dates sort first.
func sortKey(p project.Project, col project.Column) string {
	switch col {
	case project.ColumnID:
		return p.ID
	case project.ColumnDescription:
		return p.Description
	case project.ColumnStatus:
		return p.Status
	case project.ColumnOwner:
		return p.Owner
	case project.ColumnStartDate:
		if p.StartDate == nil {
			return ""
		}
		return p.StartDate.UTC().Format("2006-01-02T15:04:05")
	case project.ColumnEndDate:
		if p.EndDate == nil {
			return ""
		}
		return p.EndDate.UTC().Format("2006-01-02T15:04:05")
	default:
		return strings.ToLower(p.Name)
	}
}

func cloneProject(p project.Project) project.Project {
	cp := p
	if p.StartDate != nil {
		t := *p.StartDate
		cp.StartDate = &t
	}
	if p.EndDate != nil {
		t := *p.EndDate
		cp.EndDate = &t
	}
	return cp
}
