// Package filter provides the filter chain applied to scanned tracks.
package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/osa030/mymusic/internal/domain/track"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "hidden_file", "duration_limit_exceeded"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter decides whether a scanned track enters the playlist.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter settings.
	ValidateConfig(settings map[string]any) error
	// Check performs the filter check.
	Check(ctx context.Context, t track.Track) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// RegisteredNames returns the registered filter names in sorted order.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates a chain from the enabled filters and their settings.
// Filters run in name order. Unknown names and invalid settings are errors.
func Build(enabled map[string]map[string]any) (*Chain, error) {
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)

	chain := NewChain()
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
		f := factory()
		if err := f.ValidateConfig(enabled[name]); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
	}
	return chain, nil
}
