// Package dashboard orchestrates the project store, the query cache, event
// publishing, and snapshot exports behind the HTTP and CLI surfaces.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/project-dashboard/internal/cache"
	"github.com/JakeFAU/project-dashboard/internal/metrics"
	"github.com/JakeFAU/project-dashboard/internal/project"
)

// ProjectsKey is the query key of the dashboard fetch.
const ProjectsKey = "projects"

// DefaultTopic receives project.created events when none is configured.
const DefaultTopic = "project.created"

var tracer = otel.Tracer("github.com/JakeFAU/project-dashboard/internal/dashboard")

// Deps are the collaborators of a Service. Store, IDs, and Clock are required.
type Deps struct {
	Store     project.Store
	Blobs     project.BlobStore
	Publisher project.Publisher
	IDs       project.IDGenerator
	Clock     project.Clock
	// Hasher fills ExportResult.Checksum when set.
	Hasher    project.Hasher
	Logger    *zap.Logger
}

// Options tune the dashboard query and side effects.
type Options struct {
	MaxRows      int
	CacheTTL     time.Duration
	QueryTimeout time.Duration
	Topic        string
	ExportPrefix string
}

// Service is the dashboard's application layer.
type Service struct {
	store     project.Store
	blobs     project.BlobStore
	publisher project.Publisher
	ids       project.IDGenerator
	clock     project.Clock
	hasher    project.Hasher
	logger    *zap.Logger
	cache     *cache.Cache[[]project.Project]
	opts      Options
}

// New validates deps and builds a Service.
func New(deps Deps, opts Options) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("project store is required")
	}
	if deps.IDs == nil {
		return nil, errors.New("id generator is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("clock is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = project.DefaultMaxRows
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = "snapshots"
	}
	return &Service{
		store:     deps.Store,
		blobs:     deps.Blobs,
		publisher: deps.Publisher,
		ids:       deps.IDs,
		clock:     deps.Clock,
		hasher:    deps.Hasher,
		logger:    logger.Named("dashboard"),
		cache:     cache.New[[]project.Project](cache.WithTTL(opts.CacheTTL)),
		opts:      opts,
	}, nil
}

// Projects returns the dashboard snapshot: every column, ascending by name,
// at most MaxRows rows. Results are served from the cache until invalidated.
func (s *Service) Projects(ctx context.Context) ([]project.Project, error) {
	ctx, span := tracer.Start(ctx, "dashboard.Projects")
	defer span.End()

	rows, err := s.cache.Get(ctx, ProjectsKey, s.fetch)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("fetch projects: %w", err))
	}
	span.SetAttributes(attribute.Int("projects.count", len(rows)))
	out := make([]project.Project, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Service) fetch(ctx context.Context) ([]project.Project, error) {
	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}
	start := time.Now()
	rows, err := s.store.Fetch(ctx, project.DashboardQuery(s.opts.MaxRows))
	metrics.ObserveStoreFetch(time.Since(start), err)
	if err != nil {
		s.logger.Warn("store fetch failed", zap.Error(err))
		return nil, err
	}
	s.logger.Debug("store fetch", zap.Int("rows", len(rows)), zap.Duration("took", time.Since(start)))
	return rows, nil
}

// List applies a table view to the snapshot.
func (s *Service) List(ctx context.Context, opts project.ListOptions) (project.Page, error) {
	rows, err := s.Projects(ctx)
	if err != nil {
		return project.Page{}, err
	}
	return project.Apply(rows, opts), nil
}

// Summary aggregates the snapshot by status and refreshes the status gauge.
func (s *Service) Summary(ctx context.Context) ([]project.StatusCount, error) {
	ctx, span := tracer.Start(ctx, "dashboard.Summary")
	defer span.End()

	rows, err := s.Projects(ctx)
	if err != nil {
		return nil, spanError(span, err)
	}
	counts := project.Aggregate(rows)
	metrics.SetStatusCounts(statusGauge(counts))
	span.SetAttributes(attribute.Int("statuses.count", len(counts)))
	return counts, nil
}

// statusGauge folds counts onto the fixed gauge label set: one label per
// enumerated status plus metrics.OtherStatus for everything else.
func statusGauge(counts []project.StatusCount) map[string]int {
	gauge := make(map[string]int, len(project.Statuses)+1)
	for _, st := range project.Statuses {
		gauge[st] = 0
	}
	gauge[metrics.OtherStatus] = 0
	for _, c := range counts {
		if project.IsKnownStatus(c.Status) {
			gauge[c.Status] += c.Count
		} else {
			gauge[metrics.OtherStatus] += c.Count
		}
	}
	return gauge
}

// Create validates req, stores the new project, invalidates the snapshot, and
// publishes a created event. A failed publish is logged and does not fail the create.
func (s *Service) Create(ctx context.Context, req project.CreateRequest) (project.Project, error) {
	ctx, span := tracer.Start(ctx, "dashboard.Create")
	defer span.End()

	id, err := s.ids.NewID()
	if err != nil {
		metrics.ObserveProjectCreated(err)
		return project.Project{}, spanError(span, fmt.Errorf("generate project id: %w", err))
	}
	p, err := req.Build(id)
	if err != nil {
		metrics.ObserveProjectCreated(err)
		return project.Project{}, spanError(span, err)
	}
	span.SetAttributes(attribute.String("project.id", p.ID))

	if err := s.store.Insert(ctx, p); err != nil {
		metrics.ObserveProjectCreated(err)
		return project.Project{}, spanError(span, fmt.Errorf("insert project: %w", err))
	}
	metrics.ObserveProjectCreated(nil)
	s.cache.Invalidate(ProjectsKey)

	s.publishCreated(ctx, p)
	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("status", project.EffectiveStatus(p.Status)),
	)
	return p, nil
}

func (s *Service) publishCreated(ctx context.Context, p project.Project) {
	if s.publisher == nil {
		return
	}
	event := project.CreatedEvent{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		Owner:     p.Owner,
		CreatedAt: s.clock.Now(),
	}
	msgID, err := s.publisher.Publish(ctx, s.opts.Topic, event)
	if err != nil {
		s.logger.Warn("publish project.created failed",
			zap.String("project_id", p.ID),
			zap.String("topic", s.opts.Topic),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("published project.created", zap.String("message_id", msgID))
}

// Snapshot is the exported document.
type Snapshot struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Total       int                   `json:"total"`
	Statuses    []project.StatusCount `json:"statuses"`
	Projects    []project.Project     `json:"projects"`
}

// ExportResult locates a written snapshot.
type ExportResult struct {
	URI      string `json:"uri"`
	Path     string `json:"path"`
	Count    int    `json:"count"`
	Checksum string `json:"checksum,omitempty"`
}

// ErrExportDisabled is returned by Export when no blob store is configured.
var ErrExportDisabled = errors.New("export is not configured")

// Export writes the snapshot and its status summary as JSON to
// <prefix>/YYYY/MM/DD/<id>.json.
func (s *Service) Export(ctx context.Context) (ExportResult, error) {
	ctx, span := tracer.Start(ctx, "dashboard.Export")
	defer span.End()

	if s.blobs == nil {
		return ExportResult{}, spanError(span, ErrExportDisabled)
	}
	res, err := s.export(ctx)
	metrics.ObserveExport(err)
	if err != nil {
		return ExportResult{}, spanError(span, err)
	}
	span.SetAttributes(attribute.String("export.uri", res.URI))
	s.logger.Info("snapshot exported", zap.String("uri", res.URI), zap.Int("projects", res.Count))
	return res, nil
}

func (s *Service) export(ctx context.Context) (ExportResult, error) {
	rows, err := s.Projects(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	now := s.clock.Now().UTC()
	snap := Snapshot{
		GeneratedAt: now,
		Total:       len(rows),
		Statuses:    project.Aggregate(rows),
		Projects:    rows,
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return ExportResult{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	id, err := s.ids.NewID()
	if err != nil {
		return ExportResult{}, fmt.Errorf("generate export id: %w", err)
	}
	res := ExportResult{
		Path:  fmt.Sprintf("%s/%s/%s.json", s.opts.ExportPrefix, now.Format("2006/01/02"), id),
		Count: len(rows),
	}
	if s.hasher != nil {
		if res.Checksum, err = s.hasher.Hash(body); err != nil {
			return ExportResult{}, fmt.Errorf("hash snapshot: %w", err)
		}
	}
	res.URI, err = s.blobs.PutObject(ctx, res.Path, "application/json", bytes.NewReader(body))
	if err != nil {
		return ExportResult{}, fmt.Errorf("write snapshot: %w", err)
	}
	return res, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready checks that the store answers.
func (s *Service) Ready(ctx context.Context) error {
	p, ok := s.store.(pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
