// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// idNamespace scopes name-based track IDs so the same locator always maps
// to the same ID across scans.
var idNamespace = uuid.MustParse("5b8f2c3e-7d1a-4c0e-9a6b-3f2e1d0c9b8a")

// Track represents one playable audio asset.
type Track struct {
	ID       string         // Stable asset reference
	Title    string         // Display name
	URI      string         // Playable resource locator (file path for local assets)
	Duration *time.Duration // Track duration (nil if unknown)
}

// New creates a track for the given locator with an ID derived from it.
func New(uri, title string, duration *time.Duration) Track {
	return Track{
		ID:       IDFor(uri),
		Title:    title,
		URI:      uri,
		Duration: duration,
	}
}

// IDFor returns the stable ID for a resource locator.
func IDFor(uri string) string {
	return uuid.NewSHA1(idNamespace, []byte(uri)).String()
}

// HasDuration reports whether the track has a known, non-zero duration.
func (t *Track) HasDuration() bool {
	return t.Duration != nil && *t.Duration > 0
}

// DisplayDuration returns the formatted duration, or an empty string if unknown.
func (t *Track) DisplayDuration() string {
	s, _ := FormatDuration(t.Duration)
	return s
}

// Seconds converts a duration in seconds into an optional duration.
// Non-positive values are treated as unknown.
func Seconds(s float64) *time.Duration {
	if s <= 0 {
		return nil
	}
	d := time.Duration(s * float64(time.Second))
	return &d
}

// FormatDuration formats a duration as minutes:seconds with the seconds
// zero-padded and the minutes unpadded (65s -> "1:05").
// Unknown or zero durations have no displayable form and return false.
func FormatDuration(d *time.Duration) (string, bool) {
	if d == nil || *d <= 0 {
		return "", false
	}
	total := int64(d.Seconds())
	minutes := total / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds), true
}
