// Package telemetry provides the stores that metrics snapshots are read from:
// a static JSON fixture, a Redis keyspace fed by collectors, and a chain that
// consults several in order.
package telemetry

import (
	"context"
	"log/slog"

	"sentinel/internal/models"
)

// Source looks up the latest snapshot for a service id. A missing key is
// reported as ok=false with a nil error.
type Source interface {
	Lookup(ctx context.Context, serviceID string) (models.Snapshot, bool, error)
}

// Chain consults each source in order and returns the first hit. Source
// errors are logged and skipped.
type Chain struct {
	sources []Source
	log     *slog.Logger
}

// NewChain builds a chain, dropping nil sources.
func NewChain(log *slog.Logger, sources ...Source) *Chain {
	if log == nil {
		log = slog.Default()
	}
	c := &Chain{log: log}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Len returns the number of sources in the chain.
func (c *Chain) Len() int { return len(c.sources) }

func (c *Chain) Lookup(ctx context.Context, serviceID string) (models.Snapshot, bool, error) {
	for _, s := range c.sources {
		snap, ok, err := s.Lookup(ctx, serviceID)
		if err != nil {
			c.log.Warn("telemetry source failed", "service_id", serviceID, "error", err)
			continue
		}
		if ok {
			return snap, true, nil
		}
	}
	return models.Snapshot{}, false, nil
}
