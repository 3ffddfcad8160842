package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mymusic/internal/domain/track"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the track.
func (c *Chain) Execute(ctx context.Context, t track.Track) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, t)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the tracks accepted by every filter, keeping their order.
func (c *Chain) Apply(ctx context.Context, tracks []track.Track) []track.Track {
	accepted := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		result := c.Execute(ctx, t)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: track rejected: code=%s uri=%s", result.Code, t.URI)
			continue
		}
		accepted = append(accepted, t)
	}
	return accepted
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
