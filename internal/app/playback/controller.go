package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mymusic/internal/domain/playlist"
	"github.com/osa030/mymusic/internal/domain/track"
)

// Errors
var (
	ErrOutOfRange    = errors.New("track index out of range")
	ErrNoActiveTrack = errors.New("no active track")
	ErrEmptyPlaylist = errors.New("playlist is empty")
)

// Config holds controller configuration.
type Config struct {
	EventBufferSize int // Capacity of the event channel
}

// Restored is a previously persisted selection offered at startup.
type Restored struct {
	Title    string
	URI      string
	Duration *time.Duration
	Index    int
}

// Snapshot is a consistent read-only view of the controller.
type Snapshot struct {
	State     State
	Selection Selection // Zero value when State is StateUnselected
	Track     *track.Track
	Length    int
	Total     time.Duration // Sum of the known track durations
}

// Selected reports whether the snapshot has a selected track.
func (s Snapshot) Selected() bool {
	return s.State != StateUnselected
}

// Controller owns the playlist and the current selection and computes
// every state transition atomically from the latest state.
type Controller struct {
	mu sync.RWMutex

	playlist  *playlist.Playlist
	total     time.Duration // Cached playlist.TotalDuration
	selection *Selection    // nil while unselected
	loaded    bool          // Selected track is loaded in the audio backend

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new controller with an empty playlist and no selection.
func NewController(config Config) *Controller {
	size := config.EventBufferSize
	if size <= 0 {
		size = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		playlist: playlist.New(nil),
		eventCh:  make(chan Event, size),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// SetPlaylist replaces the playlist.
// A current selection follows its track to the new position. If the track
// is gone, the index is clamped into the new playlist and playback stops.
// An empty playlist drops the selection.
func (c *Controller) SetPlaylist(tracks []track.Track) Intent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var oldURI string
	if cur, ok := c.currentTrackLocked(); ok {
		oldURI = cur.URI
	}

	c.playlist = playlist.New(tracks)
	c.total = c.playlist.TotalDuration()
	intent := Intent{Kind: IntentNone}

	if c.selection != nil {
		switch idx := c.playlist.IndexOfURI(oldURI); {
		case c.playlist.IsEmpty():
			zlog.Info().Msg("playback: playlist replaced with empty list, dropping selection")
			c.selection = nil
			c.loaded = false
			intent = Intent{Kind: IntentStop}
		case idx >= 0:
			c.selection.Index = idx
		default:
			zlog.Info().Msgf("playback: selected track no longer present: uri=%s", oldURI)
			c.selection.Index = min(c.selection.Index, c.playlist.Len()-1)
			c.selection.Paused = true
			c.loaded = false
			intent = Intent{Kind: IntentStop}
		}
	}

	c.sendEventLocked(EventPlaylistReplaced)
	return intent
}

// Tracks returns a copy of the playlist tracks.
func (c *Controller) Tracks() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]track.Track, c.playlist.Len())
	copy(result, c.playlist.Tracks)
	return result
}

// Len returns the playlist length.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playlist.Len()
}

// SelectTrack selects the track at index and starts playing it.
func (c *Controller) SelectTrack(index int) (Intent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.playlist.At(index)
	if !ok {
		return Intent{}, errors.Wrapf(ErrOutOfRange, "index %d, playlist length %d", index, c.playlist.Len())
	}

	c.selection = &Selection{Index: index, Paused: false}
	c.loaded = true
	zlog.Debug().Msgf("playback: track selected: index=%d title=%s", index, t.Title)
	c.sendEventLocked(EventTrackSelected)
	return playIntent(t), nil
}

// TogglePause flips the paused flag of the current selection.
// Unpausing a track that is not loaded in the backend (after a stop or a
// reported failure) plays it again instead of resuming.
func (c *Controller) TogglePause() (Intent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection == nil {
		return Intent{}, ErrNoActiveTrack
	}

	c.selection.Paused = !c.selection.Paused
	c.sendEventLocked(EventStateChanged)

	if c.selection.Paused {
		return Intent{Kind: IntentPause}, nil
	}
	if !c.loaded {
		t, _ := c.currentTrackLocked()
		c.loaded = true
		zlog.Debug().Msgf("playback: reloading unloaded track: index=%d title=%s", c.selection.Index, t.Title)
		return playIntent(t), nil
	}
	return Intent{Kind: IntentResume}, nil
}

// Next advances to the following track, wrapping to the first one.
func (c *Controller) Next() (Intent, error) {
	return c.navigate(NextIndex)
}

// Previous goes back to the preceding track, wrapping to the last one.
// On a single-track playlist it stays on the only track.
func (c *Controller) Previous() (Intent, error) {
	return c.navigate(PreviousIndex)
}

func (c *Controller) navigate(step func(n, current int) int) (Intent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playlist.IsEmpty() {
		return Intent{}, ErrEmptyPlaylist
	}
	if c.selection == nil {
		return Intent{}, ErrNoActiveTrack
	}

	index := step(c.playlist.Len(), c.selection.Index)
	c.selection = &Selection{Index: index, Paused: false}
	c.loaded = true

	t, _ := c.playlist.At(index)
	zlog.Debug().Msgf("playback: navigated: index=%d title=%s", index, t.Title)
	c.sendEventLocked(EventTrackSelected)
	return playIntent(t), nil
}

// Restore accepts a persisted selection as the initial selected state.
// The stored index is trusted only while it still points at the stored
// locator; otherwise the locator is looked up in the playlist.
// Returns false and leaves the controller unselected if it cannot be placed.
func (c *Controller) Restore(r Restored) (Intent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection != nil {
		return Intent{Kind: IntentNone}, false
	}

	index := -1
	if t, ok := c.playlist.At(r.Index); ok && (r.URI == "" || t.URI == r.URI) {
		index = r.Index
	} else if r.URI != "" {
		index = c.playlist.IndexOfURI(r.URI)
	}
	if index < 0 {
		zlog.Info().Msgf("playback: persisted selection not found in playlist: index=%d uri=%s", r.Index, r.URI)
		return Intent{Kind: IntentNone}, false
	}

	c.selection = &Selection{Index: index, Paused: false}
	c.loaded = true
	t, _ := c.playlist.At(index)
	zlog.Info().Msgf("playback: restored selection: index=%d title=%s", index, t.Title)
	c.sendEventLocked(EventTrackSelected)
	return playIntent(t), true
}

// ReportFailure tells the controller the audio backend could not play uri.
// If uri is the current track it is no longer treated as playing.
func (c *Controller) ReportFailure(uri string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.currentTrackLocked()
	if !ok || cur.URI != uri {
		return false
	}
	c.selection.Paused = true
	c.loaded = false
	c.sendEventLocked(EventPlaybackFailed)
	return true
}

// GetState returns the current playback state.
func (c *Controller) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

// GetSelection returns the current selection.
func (c *Controller) GetSelection() (Selection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.selection == nil {
		return Selection{}, false
	}
	return *c.selection, true
}

// GetCurrentTrack returns the selected track.
func (c *Controller) GetCurrentTrack() (track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTrackLocked()
}

// Snapshot returns a consistent view of state, selection and current track.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		State:  c.stateLocked(),
		Length: c.playlist.Len(),
		Total:  c.total,
	}
	if c.selection != nil {
		s.Selection = *c.selection
	}
	if t, ok := c.currentTrackLocked(); ok {
		s.Track = &t
	}
	return s
}

// Close closes the controller and releases resources.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return
	}
	c.cancel()
	close(c.eventCh)
}

func (c *Controller) stateLocked() State {
	if c.selection == nil {
		return StateUnselected
	}
	return c.selection.State()
}

func (c *Controller) currentTrackLocked() (track.Track, bool) {
	if c.selection == nil {
		return track.Track{}, false
	}
	return c.playlist.At(c.selection.Index)
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(eventType EventType) {
	e := Event{
		Type:  eventType,
		Index: -1,
		State: c.stateLocked(),
	}
	if t, ok := c.currentTrackLocked(); ok {
		e.Track = &t
		e.Index = c.selection.Index
	}

	// Closed controllers have a closed channel
	if c.ctx.Err() != nil {
		return
	}

	select {
	case c.eventCh <- e:
	default:
		zlog.Debug().Msgf("playback: event channel full, dropping event: type=%s", eventType)
	}
}
