package project

import (
	"fmt"
	"time"
)

// Project is a single row of the projects table as the dashboard sees it.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Owner       string     `json:"owner"`
}

// StatusCount is one bar of the status chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Color  string `json:"color"`
}

// Column identifies a sortable/projectable field of Project.
type Column string

// Columns exposed by the store and the table.
const (
	ColumnID          Column = "id"
	ColumnName        Column = "name"
	ColumnDescription Column = "description"
	ColumnStatus      Column = "status"
	ColumnStartDate   Column = "start_date"
	ColumnEndDate     Column = "end_date"
	ColumnOwner       Column = "owner"
)

// DefaultProjection is the fixed column set the dashboard reads.
var DefaultProjection = []Column{
	ColumnID,
	ColumnName,
	ColumnDescription,
	ColumnStatus,
	ColumnStartDate,
	ColumnEndDate,
	ColumnOwner,
}

// DefaultMaxRows caps a dashboard fetch.
const DefaultMaxRows = 200

// FetchQuery describes the read issued against a Store.
type FetchQuery struct {
	Select  []Column
	OrderBy Column
	Desc    bool
	Top     int
}

// DashboardQuery returns the fixed query the dashboard uses: every displayed
// column, ascending by name, at most maxRows rows.
func DashboardQuery(maxRows int) FetchQuery {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	sel := make([]Column, len(DefaultProjection))
	copy(sel, DefaultProjection)
	return FetchQuery{
		Select:  sel,
		OrderBy: ColumnName,
		Top:     maxRows,
	}
}

// CreateRequest carries the raw fields of the add-project form.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Status      string `json:"status"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// CreatedEvent is published after a project is stored.
type CreatedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Select returns p with every column outside cols zeroed.
func Select(p Project, cols []Column) Project {
	var out Project
	for _, c := range cols {
		switch c {
		case ColumnID:
			out.ID = p.ID
		case ColumnName:
			out.Name = p.Name
		case ColumnDescription:
			out.Description = p.Description
		case ColumnStatus:
			out.Status = p.Status
		case ColumnStartDate:
			out.StartDate = p.StartDate
		case ColumnEndDate:
			out.EndDate = p.EndDate
		case ColumnOwner:
			out.Owner = p.Owner
		}
	}
	return out
}

// Known reports whether c names a column of the projects table.
func (c Column) Known() bool {
	for _, k := range DefaultProjection {
		if c == k {
			return true
		}
	}
	return false
}

// Columns returns the projection of q, defaulting to DefaultProjection, and
// fails on a column the table does not have.
func (q FetchQuery) Columns() ([]Column, error) {
	if len(q.Select) == 0 {
		return DefaultProjection, nil
	}
	for _, c := range q.Select {
		if !c.Known() {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidInput, c)
		}
	}
	return q.Select, nil
}
