package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query(), s.opts.PageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.svc.List(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req project.CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p, err := s.svc.Create(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type summaryResponse struct {
	Statuses []project.StatusCount `json:"statuses"`
	Total    int                   `json:"total"`
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Statuses: counts, Total: project.Total(counts)})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Export(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// parseListOptions reads q, status, sort, desc, page, and page_size.
func parseListOptions(q url.Values, defaultPageSize int) (project.ListOptions, error) {
	opts := project.ListOptions{
		Filter:   strings.TrimSpace(q.Get("q")),
		Status:   strings.TrimSpace(q.Get("status")),
		PageSize: defaultPageSize,
	}
	col, err := project.ParseColumn(q.Get("sort"))
	if err != nil {
		return project.ListOptions{}, err
	}
	opts.SortBy = col
	if raw := q.Get("desc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			return project.ListOptions{}, fmt.Errorf("%w: desc must be a boolean", project.ErrInvalidInput)
		}
		opts.Desc = desc
	}
	if opts.Page, err = intParam(q, "page", 0); err != nil {
		return project.ListOptions{}, err
	}
	if opts.PageSize, err = intParam(q, "page_size", defaultPageSize); err != nil {
		return project.ListOptions{}, err
	}
	return opts.Normalize(), nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", project.ErrInvalidInput, name)
	}
	return n, nil
}
