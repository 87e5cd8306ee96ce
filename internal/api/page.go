package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// Chart geometry in SVG user units.
const (
	chartWidth      = 640.0
	chartHeight     = 180.0
	chartPadLeft    = 30.0
	chartPadBottom  = 24.0
	chartPadTop     = 8.0
	chartBarFill    = 0.6
	chartMaxYTicks  = 6
	pageTitle       = "Project Dashboard"
	chartCardTitle  = "Projects by State"
	emptyTableLabel = "No results."
)

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() *pageRenderer {
	tmpl := template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
		"num": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}).ParseFS(templateFS, "templates/dashboard.html"))
	return &pageRenderer{tmpl: tmpl}
}

type headerCell struct {
	Label string
	URL   string
	Arrow string
}

type rowView struct {
	Name        string
	Description string
	Status      string
	BadgeClass  string
	StartDate   string
	EndDate     string
	Owner       string
}

type chartBar struct {
	Label  string
	Count  int
	Color  string
	X      float64
	Y      float64
	Width  float64
	Height float64
	LabelX float64
}

type chartTick struct {
	Value int
	Y     float64
}

type chartView struct {
	Width    float64
	Height   float64
	PadLeft  float64
	AxisY    float64
	LabelY   float64
	Bars     []chartBar
	Ticks    []chartTick
	HasData  bool
	TotalSum int
}

type pageData struct {
	Title      string
	ChartTitle string
	EmptyLabel string
	Filter     string
	Status     string
	Headers    []headerCell
	Rows       []rowView
	Total      int
	Page       int
	PageCount  int
	PrevURL    string
	NextURL    string
	Chart      chartView
	Statuses   []string
	Form       project.CreateRequest
	Error      string
	FormError  string
}

var tableColumns = []struct {
	label string
	col   project.Column
}{
	{"Name", project.ColumnName},
	{"Description", project.ColumnDescription},
	{"State", project.ColumnStatus},
	{"Start Date", project.ColumnStartDate},
	{"End Date", project.ColumnEndDate},
	{"Owner", project.ColumnOwner},
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	data := pageData{}
	opts, err := parseListOptions(r.URL.Query(), s.opts.PageSize)
	if err != nil {
		status = http.StatusBadRequest
		data.Error = err.Error()
		opts = project.ListOptions{PageSize: s.opts.PageSize}.Normalize()
	}
	s.renderDashboard(w, r, status, opts, data)
}

func (s *Server) createForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := project.CreateRequest{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
		Owner:       r.PostForm.Get("owner"),
		Status:      r.PostForm.Get("status"),
		StartDate:   r.PostForm.Get("start_date"),
		EndDate:     r.PostForm.Get("end_date"),
	}
	if _, err := s.svc.Create(r.Context(), req); err != nil {
		if errors.Is(err, project.ErrInvalidInput) || errors.Is(err, project.ErrDuplicate) {
			opts := project.ListOptions{PageSize: s.opts.PageSize}.Normalize()
			s.renderDashboard(w, r, http.StatusBadRequest, opts, pageData{Form: req, FormError: err.Error()})
			return
		}
		status, msg := errorStatus(err)
		s.logger.Error("create from form failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		http.Error(w, msg, status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, opts project.ListOptions, data pageData) {
	page, err := s.svc.List(r.Context(), opts)
	if err != nil {
		s.htmlFail(w, r, err)
		return
	}
	counts, err := s.svc.Summary(r.Context())
	if err != nil {
		s.htmlFail(w, r, err)
		return
	}

	data.Title = pageTitle
	data.ChartTitle = chartCardTitle
	data.EmptyLabel = emptyTableLabel
	data.Filter = opts.Filter
	data.Status = opts.Status
	data.Headers = headerCells(opts)
	data.Rows = rowViews(page.Items)
	data.Total = page.Total
	data.Page = page.Page + 1
	data.PageCount = max(page.PageCount, 1)
	if page.Page > 0 {
		prev := opts
		prev.Page = min(page.Page-1, max(page.PageCount-1, 0))
		data.PrevURL = listURL(prev)
	}
	if page.Page+1 < page.PageCount {
		next := opts
		next.Page = page.Page + 1
		data.NextURL = listURL(next)
	}
	data.Chart = buildChart(counts)
	data.Statuses = project.Statuses

	var buf bytes.Buffer
	if err := s.page.tmpl.Execute(&buf, data); err != nil {
		s.logger.Error("render dashboard", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("write dashboard", zap.Error(err))
	}
}

func (s *Server) htmlFail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	s.logger.Error("dashboard unavailable",
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	http.Error(w, "Error: "+msg, status)
}

// headerCells builds sort links cycling ascending, descending, unsorted.
func headerCells(opts project.ListOptions) []headerCell {
	out := make([]headerCell, 0, len(tableColumns))
	for _, c := range tableColumns {
		next := opts
		next.Page = 0
		cell := headerCell{Label: c.label}
		switch {
		case opts.SortBy == c.col && !opts.Desc:
			cell.Arrow = "↑"
			next.Desc = true
		case opts.SortBy == c.col && opts.Desc:
			cell.Arrow = "↓"
			next.SortBy = ""
			next.Desc = false
		default:
			next.SortBy = c.col
			next.Desc = false
		}
		cell.URL = listURL(next)
		out = append(out, cell)
	}
	return out
}

func rowViews(items []project.Project) []rowView {
	rows := make([]rowView, 0, len(items))
	for _, p := range items {
		rows = append(rows, rowView{
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			BadgeClass:  project.StatusBadgeClass(p.Status),
			StartDate:   project.FormatDate(p.StartDate),
			EndDate:     project.FormatDate(p.EndDate),
			Owner:       p.Owner,
		})
	}
	return rows
}

// listURL renders opts as a dashboard query string, omitting defaults.
func listURL(opts project.ListOptions) string {
	q := url.Values{}
	if opts.Filter != "" {
		q.Set("q", opts.Filter)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.SortBy != "" {
		q.Set("sort", string(opts.SortBy))
		if opts.Desc {
			q.Set("desc", "true")
		}
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 && opts.PageSize != project.DefaultPageSize {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// buildChart lays out one bar per status. The y axis runs from zero to the
// largest count plus one, in whole numbers.
func buildChart(counts []project.StatusCount) chartView {
	plotHeight := chartHeight - chartPadTop - chartPadBottom
	plotWidth := chartWidth - chartPadLeft
	view := chartView{
		Width:   chartWidth,
		Height:  chartHeight,
		PadLeft: chartPadLeft,
		AxisY:   chartPadTop + plotHeight,
		LabelY:  chartHeight - 6,
		HasData: len(counts) > 0,
	}

	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
		view.TotalSum += c.Count
	}
	yMax := maxCount + 1
	step := 1
	if yMax > chartMaxYTicks {
		step = (yMax + chartMaxYTicks - 1) / chartMaxYTicks
	}
	tickY := func(v int) float64 {
		return chartPadTop + plotHeight - plotHeight*float64(v)/float64(yMax)
	}
	for v := 0; v < yMax; v += step {
		view.Ticks = append(view.Ticks, chartTick{Value: v, Y: tickY(v)})
	}
	// The top gridline always sits at yMax.
	view.Ticks = append(view.Ticks, chartTick{Value: yMax, Y: tickY(yMax)})
	if len(counts) == 0 {
		return view
	}

	slot := plotWidth / float64(len(counts))
	barWidth := slot * chartBarFill
	for i, c := range counts {
		h := plotHeight * float64(c.Count) / float64(yMax)
		x := chartPadLeft + float64(i)*slot + (slot-barWidth)/2
		view.Bars = append(view.Bars, chartBar{
			Label:  c.Status,
			Count:  c.Count,
			Color:  c.Color,
			X:      x,
			Y:      chartPadTop + plotHeight - h,
			Width:  barWidth,
			Height: h,
			LabelX: x + barWidth/2,
		})
	}
	return view
}

func (b chartBar) String() string {
	return fmt.Sprintf("%s: %d", b.Label, b.Count)
}
