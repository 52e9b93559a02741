package nutrigraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flavorlab/nutrigraph/pkg/cache"
	"github.com/flavorlab/nutrigraph/pkg/config"
	"github.com/flavorlab/nutrigraph/pkg/graph"
	"github.com/flavorlab/nutrigraph/pkg/loader"
	"github.com/flavorlab/nutrigraph/pkg/metrics"
	"github.com/flavorlab/nutrigraph/pkg/pillars"
	"github.com/flavorlab/nutrigraph/pkg/search"
	"github.com/flavorlab/nutrigraph/pkg/stats"
	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

var tracer = otel.Tracer("nutrigraph")

// Client is the query façade over one store. All operations are safe for
// concurrent use.
type Client struct {
	store    *store.Store
	searcher *search.Searcher
	paths    *graph.PathFinder
	stats    *stats.Aggregator
	loader   *loader.Loader
	cache    cache.StatsCache
	config   *Config
	logger   *slog.Logger
}

// Config holds the limits applied by the Client.
type Config struct {
	// DefaultPageSize is used when a query does not set a page limit
	DefaultPageSize int
	// MaxPageSize caps page limits
	MaxPageSize int
	// DefaultMaxDepth is used when FindPath gets a zero depth
	DefaultMaxDepth int
	// MaxDepthLimit caps the depth accepted by FindPath
	MaxDepthLimit int
	SuggestLimit  int
	SuggestMax    int
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() *Config {
	return &Config{
		DefaultPageSize: search.DefaultPageSize,
		MaxPageSize:     search.MaxPageSize,
		DefaultMaxDepth: graph.DefaultMaxDepth,
		MaxDepthLimit:   8,
		SuggestLimit:    search.DefaultSuggestLimit,
		SuggestMax:      search.MaxSuggestLimit,
	}
}

// ConfigFromEngine converts the engine section of the application config.
func ConfigFromEngine(e config.EngineConfig) *Config {
	cfg := DefaultConfig()
	if e.DefaultPageSize > 0 {
		cfg.DefaultPageSize = e.DefaultPageSize
	}
	if e.MaxPageSize > 0 {
		cfg.MaxPageSize = e.MaxPageSize
	}
	if e.DefaultMaxDepth > 0 {
		cfg.DefaultMaxDepth = e.DefaultMaxDepth
	}
	if e.MaxDepthLimit > 0 {
		cfg.MaxDepthLimit = e.MaxDepthLimit
	}
	if e.SuggestLimit > 0 {
		cfg.SuggestLimit = e.SuggestLimit
	}
	if e.SuggestMax > 0 {
		cfg.SuggestMax = e.SuggestMax
	}
	return cfg
}

// NewClient creates a Client over st. A nil config selects DefaultConfig.
func NewClient(st *store.Store, cfg *Config, logger *slog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	searcher := search.NewSearcher(st, logger.With("component", "search"))
	searcher.SetPageLimits(cfg.DefaultPageSize, cfg.MaxPageSize)
	searcher.SetSuggestLimits(cfg.SuggestLimit, cfg.SuggestMax)

	return &Client{
		store:    st,
		searcher: searcher,
		paths:    graph.NewPathFinder(st, logger.With("component", "graph")),
		stats:    stats.NewAggregator(st, logger.With("component", "stats")),
		loader:   loader.New(st, logger.With("component", "loader")),
		config:   cfg,
		logger:   logger,
	}
}

// SetStatsCache shares statistics through sc. Pass nil to disable.
func (c *Client) SetStatsCache(sc cache.StatsCache) {
	c.cache = sc
}

// Store returns the underlying store.
func (c *Client) Store() *store.Store {
	return c.store
}

// Close releases the statistics cache, if any.
func (c *Client) Close(ctx context.Context) error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// Load fetches the given sources and loads their records.
func (c *Client) Load(ctx context.Context, sources ...loader.Source) (*loader.Report, error) {
	ctx, span := c.start(ctx, "Load", attribute.Int("sources", len(sources)))
	defer span.End()

	report, err := c.loader.LoadFrom(ctx, sources...)
	if err != nil {
		return nil, c.fail(span, err)
	}
	span.SetAttributes(
		attribute.Int("entities_loaded", report.EntitiesLoaded),
		attribute.Int("relationships_loaded", report.RelationshipsLoaded),
		attribute.Int("rejected", report.Rejected()),
	)
	return report, nil
}

// SearchEntities returns one page of entities matching q.
func (c *Client) SearchEntities(ctx context.Context, q *types.EntityQuery) (res *types.EntityResult, err error) {
	start := time.Now()
	ctx, span := c.start(ctx, "SearchEntities")
	defer func() { c.finish(span, "search_entities", start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	res, err = c.searcher.SearchEntities(q)
	if err != nil {
		return nil, err
	}
	metrics.QueryResults.WithLabelValues("search_entities").Observe(float64(res.TotalCount))
	span.SetAttributes(attribute.Int("total_count", res.TotalCount))
	return res, nil
}

// SearchRelationships returns one page of relationships matching q.
func (c *Client) SearchRelationships(ctx context.Context, q *types.RelationshipQuery) (res *types.RelationshipResult, err error) {
	start := time.Now()
	ctx, span := c.start(ctx, "SearchRelationships")
	defer func() { c.finish(span, "search_relationships", start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	res, err = c.searcher.SearchRelationships(q)
	if err != nil {
		return nil, err
	}
	metrics.QueryResults.WithLabelValues("search_relationships").Observe(float64(res.TotalCount))
	span.SetAttributes(attribute.Int("total_count", res.TotalCount))
	return res, nil
}

// GetEntity returns the entity with id.
func (c *Client) GetEntity(ctx context.Context, id string) (*types.Entity, error) {
	e, err := c.store.GetEntity(id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetRelationship returns the relationship with id.
func (c *Client) GetRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	r, err := c.store.GetRelationship(id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetEntityConnections lists the relationships touching entityID. An empty
// direction selects both directions.
func (c *Client) GetEntityConnections(ctx context.Context, entityID string, dir types.Direction, relTypes []string) (res *types.Connections, err error) {
	start := time.Now()
	ctx, span := c.start(ctx, "GetEntityConnections",
		attribute.String("entity_id", entityID),
		attribute.String("direction", string(dir)))
	defer func() { c.finish(span, "connections", start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if dir != "" {
		if dir, err = types.ParseDirection(string(dir)); err != nil {
			return nil, err
		}
	}
	return c.paths.Connections(entityID, dir, relTypes)
}

// FindPath returns a shortest path from sourceID to targetID. A zero
// maxDepth selects the configured default; larger values are capped at the
// configured limit. An empty direction follows relationships forward only.
func (c *Client) FindPath(ctx context.Context, sourceID, targetID string, maxDepth int, dir types.Direction) (path *types.Path, err error) {
	start := time.Now()
	ctx, span := c.start(ctx, "FindPath",
		attribute.String("source_id", sourceID),
		attribute.String("target_id", targetID))
	defer func() { c.finish(span, "find_path", start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if maxDepth, err = c.depth(maxDepth); err != nil {
		return nil, err
	}
	if dir != "" {
		if dir, err = types.ParseDirection(string(dir)); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("max_depth", maxDepth))

	path, err = c.paths.ShortestPath(sourceID, targetID, maxDepth, dir)
	if err != nil {
		return nil, err
	}
	metrics.PathLength.Observe(float64(path.Length))
	span.SetAttributes(attribute.Int("path_length", path.Length))
	return path, nil
}

func (c *Client) depth(maxDepth int) (int, error) {
	switch {
	case maxDepth < 0:
		return 0, types.NewInvalidArgument("max_depth", "must be >= 0, got %d", maxDepth)
	case maxDepth == 0:
		return c.config.DefaultMaxDepth, nil
	case c.config.MaxDepthLimit > 0 && maxDepth > c.config.MaxDepthLimit:
		return c.config.MaxDepthLimit, nil
	}
	return maxDepth, nil
}

// GetStatistics returns aggregate statistics for kind, or for both kinds
// when kind is empty. With a cache configured, statistics computed by any
// replica at the same store revision are reused.
func (c *Client) GetStatistics(ctx context.Context, kind types.RecordKind) (s *types.Statistics, err error) {
	start := time.Now()
	ctx, span := c.start(ctx, "GetStatistics", attribute.String("kind", string(kind)))
	defer func() { c.finish(span, "statistics", start, err) }()

	if kind != "" {
		if kind, err = types.ParseRecordKind(string(kind)); err != nil {
			return nil, err
		}
	}
	if c.cache == nil {
		return c.stats.Aggregate(kind)
	}

	rev := c.store.Revision()
	s, hit, cerr := c.cache.GetStats(ctx, rev)
	if cerr != nil {
		c.logger.WarnContext(ctx, "Statistics cache read failed", "revision", rev, "error", cerr)
	}
	span.SetAttributes(attribute.Bool("cache_hit", hit))
	if !hit {
		s = c.stats.Compute()
		if perr := c.cache.PutStats(ctx, s); perr != nil {
			c.logger.WarnContext(ctx, "Statistics cache write failed", "revision", s.Revision, "error", perr)
		}
	}
	out := *s
	switch kind {
	case types.KindEntity:
		out.Relationships = nil
	case types.KindRelationship:
		out.Entities = nil
	}
	return &out, nil
}

// RelationshipTypes lists relationship types with their counts.
func (c *Client) RelationshipTypes(ctx context.Context) []types.TypeCount {
	return c.stats.RelationshipTypes()
}

// Suggest returns autocomplete candidates for prefix.
func (c *Client) Suggest(ctx context.Context, prefix string, kind types.RecordKind, class types.Classification, limit int) (out []types.Suggestion, err error) {
	start := time.Now()
	ctx, span := c.start(ctx, "Suggest", attribute.String("kind", string(kind)))
	defer func() { c.finish(span, "suggest", start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if kind != "" {
		if kind, err = types.ParseRecordKind(string(kind)); err != nil {
			return nil, err
		}
	}
	if class != "" && !class.Valid() {
		return nil, types.NewInvalidArgument("classification", "unknown classification %q", class)
	}
	switch {
	case limit <= 0:
		limit = c.config.SuggestLimit
	case limit > c.config.SuggestMax:
		limit = c.config.SuggestMax
	}
	return c.searcher.Suggest(prefix, kind, class, limit)
}

// Pillars returns the health pillar vocabulary.
func (c *Client) Pillars() []pillars.Pillar {
	return pillars.All()
}

// UpsertEntity inserts or replaces an entity.
func (c *Client) UpsertEntity(ctx context.Context, e types.Entity) error {
	if err := e.Validate(); err != nil {
		return invalid(err)
	}
	if err := c.store.UpsertEntity(e); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "Entity saved", "id", e.ID)
	return nil
}

// UpsertRelationship inserts or replaces a relationship. Both endpoints
// must exist.
func (c *Client) UpsertRelationship(ctx context.Context, r types.Relationship) error {
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	err := c.store.Write(func(tx *store.Tx) error {
		if !tx.HasEntity(r.SourceID) {
			return types.NewInvalidArgument("source_id", "%v: %s", types.ErrUnknownEntity, r.SourceID)
		}
		if !tx.HasEntity(r.TargetID) {
			return types.NewInvalidArgument("target_id", "%v: %s", types.ErrUnknownEntity, r.TargetID)
		}
		return tx.PutRelationship(r)
	})
	if err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "Relationship saved", "id", r.ID)
	return nil
}

// DeleteEntity removes an entity. Its relationships remain but are ignored
// by traversal until the entity is restored.
func (c *Client) DeleteEntity(ctx context.Context, id string) error {
	return c.store.DeleteEntity(id)
}

// DeleteRelationship removes a relationship.
func (c *Client) DeleteRelationship(ctx context.Context, id string) error {
	return c.store.DeleteRelationship(id)
}

func (c *Client) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "nutrigraph."+op, trace.WithAttributes(attrs...))
}

func (c *Client) finish(span trace.Span, op string, start time.Time, err error) {
	metrics.ObserveQuery(op, start, err)
	if err != nil {
		c.fail(span, err)
	}
	span.End()
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func invalid(err error) error {
	var ia *types.InvalidArgumentError
	if errors.As(err, &ia) {
		return err
	}
	return &types.InvalidArgumentError{Field: "record", Reason: fmt.Sprint(err)}
}
