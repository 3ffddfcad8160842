// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/mymusic/internal/domain/track"
)

// Playlist is an ordered sequence of tracks.
// Insertion order is both display and navigation order; duplicates are allowed.
type Playlist struct {
	Tracks []track.Track
}

// New creates a playlist holding a copy of the given tracks.
func New(tracks []track.Track) *Playlist {
	p := &Playlist{Tracks: make([]track.Track, len(tracks))}
	copy(p.Tracks, tracks)
	return p
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// IsEmpty returns true if the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// At returns the track at the given position.
func (p *Playlist) At(index int) (track.Track, bool) {
	if index < 0 || index >= p.Len() {
		return track.Track{}, false
	}
	return p.Tracks[index], true
}

// IndexOfURI returns the first position holding the given locator, or -1.
func (p *Playlist) IndexOfURI(uri string) int {
	for i := 0; i < p.Len(); i++ {
		if p.Tracks[i].URI == uri {
			return i
		}
	}
	return -1
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, p.Len())
	for i := 0; i < p.Len(); i++ {
		ids[i] = p.Tracks[i].ID
	}
	return ids
}

// TotalDuration returns the summed duration of tracks with a known duration.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for i := 0; i < p.Len(); i++ {
		if d := p.Tracks[i].Duration; d != nil {
			total += *d
		}
	}
	return total
}
