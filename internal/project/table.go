package project

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Table paging limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListOptions narrows and orders a project snapshot for one table view.
type ListOptions struct {
	Filter   string
	Status   string
	SortBy   Column
	Desc     bool
	Page     int
	PageSize int
}

// Page is one table view over a snapshot.
type Page struct {
	Items     []Project `json:"items"`
	Total     int       `json:"total"`
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
	PageCount int       `json:"page_count"`
}

// ParseColumn validates a sort column name. Empty means "keep store order".
func ParseColumn(raw string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case "":
		return "", nil
	case ColumnName, ColumnDescription, ColumnStatus, ColumnStartDate, ColumnEndDate, ColumnOwner:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown sort column %q", ErrInvalidInput, raw)
	}
}

// Normalize clamps paging fields to their allowed ranges.
func (o ListOptions) Normalize() ListOptions {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.Page < 0 {
		o.Page = 0
	}
	return o
}

// Apply filters, sorts and paginates projects. The input slice is not
// modified. A page index past the end yields an empty Items slice.
func Apply(projects []Project, opts ListOptions) Page {
	opts = opts.Normalize()
	rows := filter(projects, opts.Filter, opts.Status)
	if opts.SortBy != "" {
		sortRows(rows, opts.SortBy, opts.Desc)
	}

	total := len(rows)
	pageCount := (total + opts.PageSize - 1) / opts.PageSize
	start := opts.Page * opts.PageSize
	items := []Project{}
	if start < total {
		end := min(start+opts.PageSize, total)
		items = rows[start:end]
	}
	return Page{
		Items:     items,
		Total:     total,
		Page:      opts.Page,
		PageSize:  opts.PageSize,
		PageCount: pageCount,
	}
}

func filter(projects []Project, text, status string) []Project {
	needle := strings.ToLower(strings.TrimSpace(text))
	wantStatus := ""
	if status = strings.TrimSpace(status); status != "" {
		wantStatus = EffectiveStatus(status)
		if label, err := ParseStatus(status); err == nil {
			wantStatus = label
		}
	}
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if wantStatus != "" && EffectiveStatus(p.Status) != wantStatus {
			continue
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p Project, needle string) bool {
	for _, field := range []string{p.Name, p.Description, p.Status, p.Owner} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func sortRows(rows []Project, col Column, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch col {
		case ColumnStartDate:
			return lessDate(a.StartDate, b.StartDate, desc)
		case ColumnEndDate:
			return lessDate(a.EndDate, b.EndDate, desc)
		}
		x, y := textValue(a, col), textValue(b, col)
		if desc {
			return x > y
		}
		return x < y
	})
}

func textValue(p Project, col Column) string {
	switch col {
	case ColumnDescription:
		return strings.ToLower(p.Description)
	case ColumnStatus:
		return strings.ToLower(EffectiveStatus(p.Status))
	case ColumnOwner:
		return strings.ToLower(p.Owner)
	default:
		return strings.ToLower(p.Name)
	}
}

// lessDate orders missing dates after present ones in both directions.
func lessDate(a, b *time.Time, desc bool) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return false
	case b == nil:
		return true
	case desc:
		return a.After(*b)
	default:
		return a.Before(*b)
	}
}
