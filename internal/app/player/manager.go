// Package player provides the player manager that drives the playback
// controller and its collaborators.
package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
	"github.com/osa030/mymusic/internal/app/filter"
	"github.com/osa030/mymusic/internal/app/notification"
	"github.com/osa030/mymusic/internal/app/playback"
	"github.com/osa030/mymusic/internal/app/theme"
	"github.com/osa030/mymusic/internal/domain/track"
	"github.com/osa030/mymusic/internal/infra/audio"
	"github.com/osa030/mymusic/internal/infra/store"
)

var (
	ErrPlaybackFailed = errors.New("audio backend failed")
	ErrClosed         = errors.New("player is closed")
)

// TrackSource lists the playable tracks.
type TrackSource interface {
	Scan(ctx context.Context) ([]track.Track, error)
}

// SelectionStore persists the selected track across restarts.
type SelectionStore interface {
	Load(ctx context.Context) (*store.Selection, error)
	SaveLater(sel store.Selection)
	Close() error
}

// Config holds manager configuration.
type Config struct {
	Theme           theme.Scheme
	EventBufferSize int
}

// Manager serializes player commands. Each command runs the controller
// transition, applies the resulting intent to the audio backend and
// persists the selection before the next command starts.
type Manager struct {
	cmdMu sync.Mutex

	// Components
	playback     *playback.Controller
	source       TrackSource
	filters      *filter.Chain
	backend      audio.Backend
	store        SelectionStore // nil disables persistence
	theme        *theme.Holder
	notification *notification.Manager

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewManager creates a new player manager.
func NewManager(
	cfg Config,
	source TrackSource,
	filters *filter.Chain,
	backend audio.Backend,
	selectionStore SelectionStore,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if filters == nil {
		filters = filter.NewChain()
	}
	return &Manager{
		playback:     playback.NewController(playback.Config{EventBufferSize: cfg.EventBufferSize}),
		source:       source,
		filters:      filters,
		backend:      backend,
		store:        selectionStore,
		theme:        theme.NewHolder(cfg.Theme),
		notification: notification.NewManager(),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start loads the playlist, restores the persisted selection and starts
// the event loops.
func (m *Manager) Start(ctx context.Context) error {
	var err error
	m.startOnce.Do(func() {
		m.wg.Add(2)
		go m.eventLoop()
		go m.completionLoop()

		m.cmdMu.Lock()
		defer m.cmdMu.Unlock()

		if _, err = m.loadPlaylistLocked(ctx); err != nil {
			return
		}
		m.restoreLocked(ctx)
	})
	return err
}

// loadPlaylistLocked scans the source and replaces the playlist.
// Must be called with cmdMu held.
func (m *Manager) loadPlaylistLocked(ctx context.Context) (int, error) {
	tracks, err := m.source.Scan(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan library")
	}
	tracks = m.filters.Apply(ctx, tracks)

	intent := m.playback.SetPlaylist(tracks)
	if err := m.applyIntentLocked(intent); err != nil {
		zlog.Error().Msgf("player: failed to apply intent after playlist change: %v", err)
	}
	m.persistLocked()

	zlog.Info().Msgf("player: playlist loaded: tracks=%d", len(tracks))
	return len(tracks), nil
}

// restoreLocked offers the persisted selection to the controller.
// Must be called with cmdMu held.
func (m *Manager) restoreLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	sel, err := m.store.Load(ctx)
	if err != nil {
		zlog.Error().Msgf("player: failed to load persisted selection: %v", err)
		return
	}
	if sel == nil {
		return
	}

	restored := playback.Restored{Title: sel.Title, URI: sel.URI, Index: sel.Index}
	if sel.DurationSeconds != nil {
		restored.Duration = track.Seconds(*sel.DurationSeconds)
	}

	intent, ok := m.playback.Restore(restored)
	if !ok {
		return
	}
	if err := m.applyIntentLocked(intent); err != nil {
		zlog.Error().Msgf("player: failed to resume restored track: %v", err)
	}
	m.persistLocked()
}

// SelectTrack selects and plays the track at index.
func (m *Manager) SelectTrack(index int) (*playerv1.PlayerStatus, error) {
	return m.command("select", func() (playback.Intent, error) {
		return m.playback.SelectTrack(index)
	})
}

// Next plays the following track.
func (m *Manager) Next() (*playerv1.PlayerStatus, error) {
	return m.command("next", m.playback.Next)
}

// Previous plays the preceding track.
func (m *Manager) Previous() (*playerv1.PlayerStatus, error) {
	return m.command("previous", m.playback.Previous)
}

// TogglePause pauses or resumes the current track.
func (m *Manager) TogglePause() (*playerv1.PlayerStatus, error) {
	return m.command("toggle_pause", m.playback.TogglePause)
}

func (m *Manager) command(name string, transition func() (playback.Intent, error)) (*playerv1.PlayerStatus, error) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if m.ctx.Err() != nil {
		return nil, ErrClosed
	}

	intent, err := transition()
	if err != nil {
		zlog.Debug().Msgf("player: %s rejected: %v", name, err)
		return nil, err
	}

	applyErr := m.applyIntentLocked(intent)
	m.persistLocked()
	return m.statusLocked(), applyErr
}

// applyIntentLocked forwards the intent to the audio backend.
// Must be called with cmdMu held.
func (m *Manager) applyIntentLocked(intent playback.Intent) error {
	var err error
	switch intent.Kind {
	case playback.IntentNone:
		return nil
	case playback.IntentPlay:
		if err = m.backend.Play(intent.Track.URI); err != nil {
			m.playback.ReportFailure(intent.Track.URI)
			return errors.Mark(errors.Wrapf(err, "failed to play %s", intent.Track.URI), ErrPlaybackFailed)
		}
		zlog.Info().Msgf("player: playing: title=%s", intent.Track.Title)
		return nil
	case playback.IntentPause:
		err = m.backend.Pause()
	case playback.IntentResume:
		err = m.backend.Resume()
	case playback.IntentStop:
		err = m.backend.Stop()
	}
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to %s", intent.Kind), ErrPlaybackFailed)
	}
	return nil
}

// persistLocked saves the current selection, if any.
// Must be called with cmdMu held.
func (m *Manager) persistLocked() {
	if m.store == nil {
		return
	}
	snap := m.playback.Snapshot()
	if snap.Track == nil {
		return
	}
	sel := store.Selection{
		Title: snap.Track.Title,
		URI:   snap.Track.URI,
		Index: snap.Selection.Index,
	}
	if snap.Track.HasDuration() {
		seconds := snap.Track.Duration.Seconds()
		sel.DurationSeconds = &seconds
	}
	m.store.SaveLater(sel)
}

// Rescan scans the library again and replaces the playlist.
func (m *Manager) Rescan(ctx context.Context) (int, error) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if m.ctx.Err() != nil {
		return 0, ErrClosed
	}
	return m.loadPlaylistLocked(ctx)
}

// ToggleTheme switches between the light and dark schemes.
func (m *Manager) ToggleTheme() theme.Scheme {
	scheme := m.theme.Toggle()
	zlog.Info().Msgf("player: theme changed: scheme=%s", scheme)
	m.broadcast(playerv1.NotificationTypeThemeChanged, "")
	return scheme
}

// Theme returns the active color scheme.
func (m *Manager) Theme() theme.Scheme {
	return m.theme.Current()
}

// Status returns the current player status.
func (m *Manager) Status() *playerv1.PlayerStatus {
	return m.statusLocked()
}

// statusLocked only reads through the controller's own lock, so it is
// safe with or without cmdMu.
func (m *Manager) statusLocked() *playerv1.PlayerStatus {
	return buildStatus(m.playback.Snapshot(), m.theme.Current())
}

// ListTracks returns the playlist.
func (m *Manager) ListTracks() []*playerv1.TrackInfo {
	tracks := m.playback.Tracks()
	infos := make([]*playerv1.TrackInfo, len(tracks))
	for i := range tracks {
		infos[i] = buildTrackInfo(i, tracks[i])
	}
	return infos
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Done is closed when the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops playback and releases every component.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cmdMu.Lock()
		m.cancel()
		m.cmdMu.Unlock()

		m.playback.Close()
		if err := m.backend.Close(); err != nil {
			zlog.Error().Msgf("player: failed to close audio backend: %v", err)
		}
		m.wg.Wait()

		if m.store != nil {
			if err := m.store.Close(); err != nil {
				zlog.Error().Msgf("player: failed to close store: %v", err)
			}
		}
		m.notification.Close()
		close(m.done)
	})
}

// eventLoop turns controller events into notifications.
func (m *Manager) eventLoop() {
	defer m.wg.Done()
	for event := range m.playback.Events() {
		m.handlePlaybackEvent(event)
	}
}

func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Debug().Msgf("player: playback event: type=%s index=%d state=%s", event.Type, event.Index, event.State)

	switch event.Type {
	case playback.EventTrackSelected:
		m.broadcast(playerv1.NotificationTypeTrackChanged, "")
	case playback.EventStateChanged:
		m.broadcast(playerv1.NotificationTypeStateChanged, "")
	case playback.EventPlaylistReplaced:
		m.broadcast(playerv1.NotificationTypePlaylistReplaced, "")
	case playback.EventPlaybackFailed:
		var msg string
		if event.Track != nil {
			msg = "failed to play " + event.Track.Title
		}
		m.broadcast(playerv1.NotificationTypePlaybackFailed, msg)
	}
}

func (m *Manager) broadcast(t playerv1.NotificationType, message string) {
	m.notification.Broadcast(&playerv1.Notification{
		Type:    t,
		Status:  m.Status(),
		Message: message,
	})
}

// completionLoop logs tracks that played to the end. Playback does not
// advance on its own.
func (m *Manager) completionLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case uri, ok := <-m.backend.Done():
			if !ok {
				return
			}
			zlog.Info().Msgf("player: track finished: uri=%s", uri)
		}
	}
}
