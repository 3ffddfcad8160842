package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
	"github.com/osa030/mymusic/internal/app/filter"
	"github.com/osa030/mymusic/internal/app/playback"
	"github.com/osa030/mymusic/internal/app/theme"
	"github.com/osa030/mymusic/internal/domain/track"
	"github.com/osa030/mymusic/internal/infra/store"
)

type fakeSource struct {
	mu     sync.Mutex
	tracks []track.Track
	err    error
}

func (s *fakeSource) Scan(ctx context.Context) ([]track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks, s.err
}

func (s *fakeSource) set(tracks []track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = tracks
}

type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	failURIs map[string]bool
	closed   bool
	doneCh   chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failURIs: map[string]bool{}, doneCh: make(chan string, 1)}
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Play(uri string) error {
	b.record("play:" + uri)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failURIs[uri] {
		return errors.New("device busy")
	}
	return nil
}

func (b *fakeBackend) Pause() error  { b.record("pause"); return nil }
func (b *fakeBackend) Resume() error { b.record("resume"); return nil }
func (b *fakeBackend) Stop() error   { b.record("stop"); return nil }

func (b *fakeBackend) Done() <-chan string { return b.doneCh }

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.doneCh)
	}
	return nil
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type fakeStore struct {
	mu     sync.Mutex
	loaded *store.Selection
	saved  []store.Selection
	closed bool
}

func (s *fakeStore) Load(ctx context.Context) (*store.Selection, error) {
	return s.loaded, nil
}

func (s *fakeStore) SaveLater(sel store.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, sel)
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) last() (store.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return store.Selection{}, false
	}
	return s.saved[len(s.saved)-1], true
}

type recordingStream struct {
	mu       sync.Mutex
	received []*playerv1.Notification
}

func (s *recordingStream) Send(n *playerv1.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, n)
	return nil
}

func (s *recordingStream) has(t playerv1.NotificationType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.received {
		if n.Type == t {
			return true
		}
	}
	return false
}

func musicTracks(names ...string) []track.Track {
	tracks := make([]track.Track, len(names))
	for i, name := range names {
		tracks[i] = track.New("/music/"+name+".mp3", name+".mp3", track.Seconds(float64(60+i)))
	}
	return tracks
}

type fixture struct {
	source  *fakeSource
	backend *fakeBackend
	store   *fakeStore
	manager *Manager
}

func newFixture(t *testing.T, tracks []track.Track, persisted *store.Selection) *fixture {
	t.Helper()
	f := &fixture{
		source:  &fakeSource{tracks: tracks},
		backend: newFakeBackend(),
		store:   &fakeStore{loaded: persisted},
	}
	f.manager = NewManager(Config{Theme: theme.Light}, f.source, nil, f.backend, f.store)
	t.Cleanup(f.manager.Close)
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.manager.Start(context.Background()))
}

func TestManager_StartWithoutPersistedSelection(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b", "c"), nil)
	f.start(t)

	status := f.manager.Status()
	assert.Equal(t, playerv1.PlaybackStateUnselected, status.State)
	assert.Nil(t, status.CurrentTrack)
	assert.Equal(t, 3, status.TrackCount)
	assert.Equal(t, 183.0, status.TotalDurationSeconds)
	assert.Equal(t, "light", status.Theme)
	assert.Empty(t, f.backend.Calls())
}

func TestManager_StartRestoresSelection(t *testing.T) {
	tests := []struct {
		name      string
		persisted *store.Selection
		wantIndex int
		wantCalls []string
	}{
		{
			name:      "stored index still matches",
			persisted: &store.Selection{Title: "b.mp3", URI: "/music/b.mp3", Index: 1},
			wantIndex: 1,
			wantCalls: []string{"play:/music/b.mp3"},
		},
		{
			name:      "track moved",
			persisted: &store.Selection{Title: "c.mp3", URI: "/music/c.mp3", Index: 0},
			wantIndex: 2,
			wantCalls: []string{"play:/music/c.mp3"},
		},
		{
			name:      "track gone",
			persisted: &store.Selection{Title: "z.mp3", URI: "/music/z.mp3", Index: 7},
			wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, musicTracks("a", "b", "c"), tt.persisted)
			f.start(t)

			status := f.manager.Status()
			if tt.wantIndex < 0 {
				assert.Equal(t, playerv1.PlaybackStateUnselected, status.State)
				assert.Empty(t, f.backend.Calls())
				return
			}
			assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)
			require.NotNil(t, status.CurrentTrack)
			assert.Equal(t, tt.wantIndex, status.CurrentTrack.Index)
			assert.Equal(t, tt.wantCalls, f.backend.Calls())
		})
	}
}

func TestManager_TransportCommands(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b", "c"), nil)
	f.start(t)
	m := f.manager

	status, err := m.SelectTrack(0)
	require.NoError(t, err)
	assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)
	assert.Equal(t, 0, status.CurrentTrack.Index)

	status, err = m.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentTrack.Index)

	status, err = m.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, playerv1.PlaybackStatePaused, status.State)

	status, err = m.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)

	status, err = m.Previous()
	require.NoError(t, err)
	assert.Equal(t, 0, status.CurrentTrack.Index)

	status, err = m.Previous()
	require.NoError(t, err)
	assert.Equal(t, 2, status.CurrentTrack.Index)

	assert.Equal(t, []string{
		"play:/music/a.mp3",
		"play:/music/b.mp3",
		"pause",
		"resume",
		"play:/music/a.mp3",
		"play:/music/c.mp3",
	}, f.backend.Calls())

	saved, ok := f.store.last()
	require.True(t, ok)
	assert.Equal(t, "/music/c.mp3", saved.URI)
	assert.Equal(t, 2, saved.Index)
	require.NotNil(t, saved.DurationSeconds)
	assert.Equal(t, 62.0, *saved.DurationSeconds)
}

func TestManager_CommandErrors(t *testing.T) {
	t.Run("empty playlist", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.start(t)

		_, err := f.manager.Next()
		assert.True(t, errors.Is(err, playback.ErrEmptyPlaylist))
		_, err = f.manager.SelectTrack(0)
		assert.True(t, errors.Is(err, playback.ErrOutOfRange))
	})

	t.Run("no selection", func(t *testing.T) {
		f := newFixture(t, musicTracks("a"), nil)
		f.start(t)

		_, err := f.manager.Previous()
		assert.True(t, errors.Is(err, playback.ErrNoActiveTrack))
		_, err = f.manager.TogglePause()
		assert.True(t, errors.Is(err, playback.ErrNoActiveTrack))
		assert.Empty(t, f.backend.Calls())
	})
}

func TestManager_PlaybackFailure(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b"), nil)
	f.backend.failURIs["/music/b.mp3"] = true
	f.start(t)

	status, err := f.manager.SelectTrack(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlaybackFailed))
	require.NotNil(t, status)
	assert.Equal(t, playerv1.PlaybackStatePaused, status.State)
	assert.Equal(t, 1, status.CurrentTrack.Index)

	// Navigation still works after a failure
	status, err = f.manager.Next()
	require.NoError(t, err)
	assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)
	assert.Equal(t, 0, status.CurrentTrack.Index)
}

func TestManager_TogglePauseReloadsUnloadedTrack(t *testing.T) {
	t.Run("after a playback failure", func(t *testing.T) {
		f := newFixture(t, musicTracks("a", "b"), nil)
		f.backend.failURIs["/music/a.mp3"] = true
		f.start(t)

		_, err := f.manager.SelectTrack(0)
		require.Error(t, err)

		f.backend.mu.Lock()
		delete(f.backend.failURIs, "/music/a.mp3")
		f.backend.mu.Unlock()

		status, err := f.manager.TogglePause()
		require.NoError(t, err)
		assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)
		calls := f.backend.Calls()
		assert.Equal(t, []string{"play:/music/a.mp3", "play:/music/a.mp3"}, calls)
	})

	t.Run("failing again leaves it paused", func(t *testing.T) {
		f := newFixture(t, musicTracks("a"), nil)
		f.backend.failURIs["/music/a.mp3"] = true
		f.start(t)

		_, err := f.manager.SelectTrack(0)
		require.Error(t, err)

		status, err := f.manager.TogglePause()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPlaybackFailed))
		assert.Equal(t, playerv1.PlaybackStatePaused, status.State)
	})

	t.Run("after a rescan stopped playback", func(t *testing.T) {
		f := newFixture(t, musicTracks("a", "b"), nil)
		f.start(t)

		_, err := f.manager.SelectTrack(1)
		require.NoError(t, err)

		f.source.set(musicTracks("a"))
		_, err = f.manager.Rescan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, playerv1.PlaybackStatePaused, f.manager.Status().State)

		status, err := f.manager.TogglePause()
		require.NoError(t, err)
		assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)
		assert.Equal(t, []string{"play:/music/b.mp3", "stop", "play:/music/a.mp3"}, f.backend.Calls())
	})
}

func TestManager_StatusTotalsFollowPlaylist(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b", "c"), nil)
	f.start(t)

	status := f.manager.Status()
	assert.Equal(t, 3, status.TrackCount)
	assert.InDelta(t, 183.0, status.TotalDurationSeconds, 0.001)

	f.source.set(musicTracks("a"))
	_, err := f.manager.Rescan(context.Background())
	require.NoError(t, err)

	status = f.manager.Status()
	assert.Equal(t, 1, status.TrackCount)
	assert.InDelta(t, 60.0, status.TotalDurationSeconds, 0.001)
}

func TestManager_Rescan(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b", "c"), nil)
	f.start(t)

	_, err := f.manager.SelectTrack(2)
	require.NoError(t, err)

	t.Run("selection follows its track", func(t *testing.T) {
		f.source.set(musicTracks("c", "d"))
		n, err := f.manager.Rescan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		status := f.manager.Status()
		assert.Equal(t, playerv1.PlaybackStatePlaying, status.State)
		assert.Equal(t, 0, status.CurrentTrack.Index)
		assert.Equal(t, "/music/c.mp3", status.CurrentTrack.URI)
	})

	t.Run("removed track stops playback", func(t *testing.T) {
		f.source.set(musicTracks("x"))
		_, err := f.manager.Rescan(context.Background())
		require.NoError(t, err)

		status := f.manager.Status()
		assert.Equal(t, playerv1.PlaybackStatePaused, status.State)
		assert.Equal(t, 0, status.CurrentTrack.Index)
		calls := f.backend.Calls()
		assert.Equal(t, "stop", calls[len(calls)-1])
	})

	t.Run("empty library drops the selection", func(t *testing.T) {
		f.source.set(nil)
		_, err := f.manager.Rescan(context.Background())
		require.NoError(t, err)

		assert.Equal(t, playerv1.PlaybackStateUnselected, f.manager.Status().State)
		assert.Empty(t, f.manager.ListTracks())
	})
}

func TestManager_FiltersApplied(t *testing.T) {
	tracks := append(musicTracks("a"), track.New("/music/.hidden.mp3", ".hidden.mp3", nil))
	chain := filter.NewChain()
	chain.Add(&filter.HiddenFileFilter{})

	m := NewManager(Config{}, &fakeSource{tracks: tracks}, chain, newFakeBackend(), nil)
	t.Cleanup(m.Close)
	require.NoError(t, m.Start(context.Background()))

	infos := m.ListTracks()
	require.Len(t, infos, 1)
	assert.Equal(t, "/music/a.mp3", infos[0].URI)
	assert.Equal(t, "1:00", infos[0].DisplayDuration)
	assert.NotEmpty(t, infos[0].TrackID)
}

func TestManager_StartScanError(t *testing.T) {
	m := NewManager(Config{}, &fakeSource{err: errors.New("disk on fire")}, nil, newFakeBackend(), nil)
	t.Cleanup(m.Close)
	assert.Error(t, m.Start(context.Background()))
}

func TestManager_ThemeToggle(t *testing.T) {
	f := newFixture(t, musicTracks("a"), nil)
	f.start(t)

	stream := &recordingStream{}
	f.manager.GetNotificationManager().Subscribe(stream)

	assert.Equal(t, theme.Light, f.manager.Theme())
	assert.Equal(t, theme.Dark, f.manager.ToggleTheme())
	assert.Equal(t, "dark", f.manager.Status().Theme)
	assert.True(t, stream.has(playerv1.NotificationTypeThemeChanged))

	assert.Equal(t, theme.Light, f.manager.ToggleTheme())
}

func TestManager_NotificationsFollowCommands(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b"), nil)
	f.start(t)

	stream := &recordingStream{}
	f.manager.GetNotificationManager().Subscribe(stream)

	_, err := f.manager.SelectTrack(1)
	require.NoError(t, err)
	_, err = f.manager.TogglePause()
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return stream.has(playerv1.NotificationTypeTrackChanged) &&
			stream.has(playerv1.NotificationTypeStateChanged)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_ConcurrentNextIsSerialized(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b", "c", "d", "e"), nil)
	f.start(t)
	_, err := f.manager.SelectTrack(0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Next()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status := f.manager.Status()
	assert.Equal(t, 0, status.CurrentTrack.Index)
	assert.Len(t, f.backend.Calls(), 11)
}

func TestManager_CompletionDoesNotAdvance(t *testing.T) {
	f := newFixture(t, musicTracks("a", "b"), nil)
	f.start(t)
	_, err := f.manager.SelectTrack(0)
	require.NoError(t, err)

	f.backend.doneCh <- "/music/a.mp3"

	assert.Never(t, func() bool {
		return len(f.backend.Calls()) > 1
	}, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 0, f.manager.Status().CurrentTrack.Index)
}

func TestManager_Close(t *testing.T) {
	f := newFixture(t, musicTracks("a"), nil)
	f.start(t)

	f.manager.Close()
	f.manager.Close()

	select {
	case <-f.manager.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	assert.True(t, f.store.closed)
	assert.True(t, f.backend.closed)

	_, err := f.manager.Next()
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = f.manager.Rescan(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
}
