package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
	"github.com/osa030/mymusic/internal/api/playerv1/playerv1connect"
	"github.com/osa030/mymusic/internal/app/playback"
	"github.com/osa030/mymusic/internal/app/player"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player *player.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(p *player.Manager) *PlayerService {
	return &PlayerService{player: p}
}

// Ensure PlayerService implements the interface.
var _ playerv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// ListTracks returns the playlist.
func (s *PlayerService) ListTracks(
	ctx context.Context,
	req *connect.Request[playerv1.ListTracksRequest],
) (*connect.Response[playerv1.ListTracksResponse], error) {
	return connect.NewResponse(&playerv1.ListTracksResponse{
		Tracks: s.player.ListTracks(),
	}), nil
}

// GetStatus returns the current player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[playerv1.GetStatusRequest],
) (*connect.Response[playerv1.GetStatusResponse], error) {
	return connect.NewResponse(&playerv1.GetStatusResponse{
		Status: s.player.Status(),
	}), nil
}

// SelectTrack plays the track at the requested index.
func (s *PlayerService) SelectTrack(
	ctx context.Context,
	req *connect.Request[playerv1.SelectTrackRequest],
) (*connect.Response[playerv1.CommandResponse], error) {
	return commandResponse(s.player.SelectTrack(req.Msg.Index))
}

// Next plays the following track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[playerv1.NextRequest],
) (*connect.Response[playerv1.CommandResponse], error) {
	return commandResponse(s.player.Next())
}

// Previous plays the preceding track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[playerv1.PreviousRequest],
) (*connect.Response[playerv1.CommandResponse], error) {
	return commandResponse(s.player.Previous())
}

// TogglePause pauses or resumes the current track.
func (s *PlayerService) TogglePause(
	ctx context.Context,
	req *connect.Request[playerv1.TogglePauseRequest],
) (*connect.Response[playerv1.CommandResponse], error) {
	return commandResponse(s.player.TogglePause())
}

// ToggleTheme switches the color scheme.
func (s *PlayerService) ToggleTheme(
	ctx context.Context,
	req *connect.Request[playerv1.ToggleThemeRequest],
) (*connect.Response[playerv1.ToggleThemeResponse], error) {
	scheme := s.player.ToggleTheme()
	return connect.NewResponse(&playerv1.ToggleThemeResponse{
		Theme:   scheme.String(),
		Palette: player.BuildPalette(scheme),
	}), nil
}

// Rescan scans the library again.
func (s *PlayerService) Rescan(
	ctx context.Context,
	req *connect.Request[playerv1.RescanRequest],
) (*connect.Response[playerv1.RescanResponse], error) {
	n, err := s.player.Rescan(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.RescanResponse{TrackCount: n}), nil
}

// Subscribe streams notifications until the client goes away or the player closes.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[playerv1.SubscribeRequest],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	notifManager := s.player.GetNotificationManager()
	adapter := &notificationStreamAdapter{stream: stream}

	// Register before taking the initial snapshot so no broadcast falls
	// between the two. Broadcasts wait on the adapter until it is sent.
	adapter.mu.Lock()
	subscriptionID := notifManager.Subscribe(adapter)
	initial := &playerv1.Notification{
		Type:       playerv1.NotificationTypeInitialState,
		SequenceNo: notifManager.NextSequenceNo(),
		Status:     s.player.Status(),
	}
	err := adapter.sendLocked(initial)
	adapter.mu.Unlock()
	if err != nil {
		notifManager.Unsubscribe(subscriptionID)
		return err
	}
	zlog.Debug().Msgf("connect: subscriber joined: id=%s", subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.player.Done():
	}

	notifManager.Unsubscribe(subscriptionID)
	adapter.close()
	return nil
}

type notificationSender interface {
	Send(*playerv1.Notification) error
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Broadcasts may overlap, and a ServerStream allows one sender at a time.
// Notifications older than the last one sent carry stale state and are skipped.
type notificationStreamAdapter struct {
	mu      sync.Mutex
	stream  notificationSender
	lastSeq uint64
	closed  bool
}

var errStreamClosed = errors.New("notification stream closed")

func (a *notificationStreamAdapter) Send(n *playerv1.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sendLocked(n)
}

func (a *notificationStreamAdapter) sendLocked(n *playerv1.Notification) error {
	if a.closed {
		return errStreamClosed
	}
	if n.SequenceNo <= a.lastSeq {
		return nil
	}
	if err := a.stream.Send(n); err != nil {
		return err
	}
	a.lastSeq = n.SequenceNo
	return nil
}

// close stops further sends once the handler has returned.
func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

func commandResponse(status *playerv1.PlayerStatus, err error) (*connect.Response[playerv1.CommandResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.CommandResponse{Status: status}), nil
}

// toConnectError maps player errors to RPC status codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, playback.ErrOutOfRange):
		return connect.NewError(connect.CodeOutOfRange, err)
	case errors.Is(err, playback.ErrNoActiveTrack), errors.Is(err, playback.ErrEmptyPlaylist):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, player.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	}
	zlog.Error().Msgf("connect: command failed: %v", err)
	return connect.NewError(connect.CodeInternal, err)
}
