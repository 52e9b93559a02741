package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/flavorlab/nutrigraph/pkg/config"
)

// Source produces records to load.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Batch, error)
}

// StaticSource serves a fixed batch.
type StaticSource struct {
	Label string
	Batch *Batch
}

// Name implements Source.
func (s *StaticSource) Name() string { return s.Label }

// Fetch implements Source.
func (s *StaticSource) Fetch(ctx context.Context) (*Batch, error) {
	if s.Batch == nil {
		return &Batch{}, nil
	}
	return s.Batch, nil
}

// BreakerSource wraps a remote Source with a circuit breaker so repeated
// reloads stop hammering a failing backend.
type BreakerSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerSource wraps source. When circuit breaking is disabled the
// source is returned unchanged.
func NewBreakerSource(source Source, cfg config.CircuitBreakerConfig, logger *slog.Logger) Source {
	if !cfg.Enabled {
		return source
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        source.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Error("Circuit breaker opened", "source", name, "from", from.String(), "to", to.String())
				return
			}
			logger.Info("Circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerSource{
		source: source,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Name implements Source.
func (b *BreakerSource) Name() string { return b.source.Name() }

// State reports the breaker state.
func (b *BreakerSource) State() gobreaker.State { return b.cb.State() }

// Fetch implements Source.
func (b *BreakerSource) Fetch(ctx context.Context) (*Batch, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.source.Fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	batch, ok := res.(*Batch)
	if !ok {
		return nil, fmt.Errorf("unexpected batch type %T", res)
	}
	return batch, nil
}

// SourcesFromConfig builds the seed sources named by cfg, files first.
func SourcesFromConfig(cfg *config.Config, logger *slog.Logger) ([]Source, error) {
	var sources []Source
	lc := cfg.Loader
	if len(lc.EntityFiles) > 0 || len(lc.RelationshipFiles) > 0 {
		sources = append(sources, &FileSource{
			EntityFiles:       lc.EntityFiles,
			RelationshipFiles: lc.RelationshipFiles,
			Lenient:           lc.LenientJSON,
		})
	}
	if lc.Neo4j.Enabled {
		src, err := NewNeo4jSource(lc.Neo4j, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, NewBreakerSource(src, cfg.CircuitBreaker, logger))
	}
	return sources, nil
}

// CloseSources releases sources holding connections.
func CloseSources(ctx context.Context, sources []Source) {
	for _, src := range sources {
		if b, ok := src.(*BreakerSource); ok {
			src = b.source
		}
		if c, ok := src.(interface{ Close(context.Context) error }); ok {
			_ = c.Close(ctx)
		}
	}
}
