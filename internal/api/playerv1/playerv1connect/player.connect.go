// Package playerv1connect wires the mymusic.v1.PlayerService messages to
// Connect handlers and clients.
package playerv1connect

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "mymusic.v1.PlayerService"

// Procedure paths.
const (
	PlayerServiceListTracksProcedure  = "/mymusic.v1.PlayerService/ListTracks"
	PlayerServiceGetStatusProcedure   = "/mymusic.v1.PlayerService/GetStatus"
	PlayerServiceSelectTrackProcedure = "/mymusic.v1.PlayerService/SelectTrack"
	PlayerServiceNextProcedure        = "/mymusic.v1.PlayerService/Next"
	PlayerServicePreviousProcedure    = "/mymusic.v1.PlayerService/Previous"
	PlayerServiceTogglePauseProcedure = "/mymusic.v1.PlayerService/TogglePause"
	PlayerServiceToggleThemeProcedure = "/mymusic.v1.PlayerService/ToggleTheme"
	PlayerServiceRescanProcedure      = "/mymusic.v1.PlayerService/Rescan"
	PlayerServiceSubscribeProcedure   = "/mymusic.v1.PlayerService/Subscribe"
)

// MutatingProcedures lists the procedures that change player state.
var MutatingProcedures = map[string]bool{
	PlayerServiceSelectTrackProcedure: true,
	PlayerServiceNextProcedure:        true,
	PlayerServicePreviousProcedure:    true,
	PlayerServiceTogglePauseProcedure: true,
	PlayerServiceToggleThemeProcedure: true,
	PlayerServiceRescanProcedure:      true,
}

// JSONCodec marshals plain Go messages with encoding/json.
// It is registered under the "json" name, replacing Connect's protojson codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// PlayerServiceHandler is implemented by the server.
type PlayerServiceHandler interface {
	ListTracks(context.Context, *connect.Request[playerv1.ListTracksRequest]) (*connect.Response[playerv1.ListTracksResponse], error)
	GetStatus(context.Context, *connect.Request[playerv1.GetStatusRequest]) (*connect.Response[playerv1.GetStatusResponse], error)
	SelectTrack(context.Context, *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.CommandResponse], error)
	Next(context.Context, *connect.Request[playerv1.NextRequest]) (*connect.Response[playerv1.CommandResponse], error)
	Previous(context.Context, *connect.Request[playerv1.PreviousRequest]) (*connect.Response[playerv1.CommandResponse], error)
	TogglePause(context.Context, *connect.Request[playerv1.TogglePauseRequest]) (*connect.Response[playerv1.CommandResponse], error)
	ToggleTheme(context.Context, *connect.Request[playerv1.ToggleThemeRequest]) (*connect.Response[playerv1.ToggleThemeResponse], error)
	Rescan(context.Context, *connect.Request[playerv1.RescanRequest]) (*connect.Response[playerv1.RescanResponse], error)
	Subscribe(context.Context, *connect.Request[playerv1.SubscribeRequest], *connect.ServerStream[playerv1.Notification]) error
}

// NewPlayerServiceHandler builds an HTTP handler for the service and
// returns the path to mount it on.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlayerServiceListTracksProcedure, connect.NewUnaryHandler(PlayerServiceListTracksProcedure, svc.ListTracks, opts...))
	mux.Handle(PlayerServiceGetStatusProcedure, connect.NewUnaryHandler(PlayerServiceGetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(PlayerServiceSelectTrackProcedure, connect.NewUnaryHandler(PlayerServiceSelectTrackProcedure, svc.SelectTrack, opts...))
	mux.Handle(PlayerServiceNextProcedure, connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...))
	mux.Handle(PlayerServicePreviousProcedure, connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...))
	mux.Handle(PlayerServiceTogglePauseProcedure, connect.NewUnaryHandler(PlayerServiceTogglePauseProcedure, svc.TogglePause, opts...))
	mux.Handle(PlayerServiceToggleThemeProcedure, connect.NewUnaryHandler(PlayerServiceToggleThemeProcedure, svc.ToggleTheme, opts...))
	mux.Handle(PlayerServiceRescanProcedure, connect.NewUnaryHandler(PlayerServiceRescanProcedure, svc.Rescan, opts...))
	mux.Handle(PlayerServiceSubscribeProcedure, connect.NewServerStreamHandler(PlayerServiceSubscribeProcedure, svc.Subscribe, opts...))

	return "/" + PlayerServiceName + "/", mux
}

// PlayerServiceClient is a client for the service.
type PlayerServiceClient struct {
	listTracks  *connect.Client[playerv1.ListTracksRequest, playerv1.ListTracksResponse]
	getStatus   *connect.Client[playerv1.GetStatusRequest, playerv1.GetStatusResponse]
	selectTrack *connect.Client[playerv1.SelectTrackRequest, playerv1.CommandResponse]
	next        *connect.Client[playerv1.NextRequest, playerv1.CommandResponse]
	previous    *connect.Client[playerv1.PreviousRequest, playerv1.CommandResponse]
	togglePause *connect.Client[playerv1.TogglePauseRequest, playerv1.CommandResponse]
	toggleTheme *connect.Client[playerv1.ToggleThemeRequest, playerv1.ToggleThemeResponse]
	rescan      *connect.Client[playerv1.RescanRequest, playerv1.RescanResponse]
	subscribe   *connect.Client[playerv1.SubscribeRequest, playerv1.Notification]
}

// NewPlayerServiceClient creates a client for the service at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)

	return &PlayerServiceClient{
		listTracks:  connect.NewClient[playerv1.ListTracksRequest, playerv1.ListTracksResponse](httpClient, baseURL+PlayerServiceListTracksProcedure, opts...),
		getStatus:   connect.NewClient[playerv1.GetStatusRequest, playerv1.GetStatusResponse](httpClient, baseURL+PlayerServiceGetStatusProcedure, opts...),
		selectTrack: connect.NewClient[playerv1.SelectTrackRequest, playerv1.CommandResponse](httpClient, baseURL+PlayerServiceSelectTrackProcedure, opts...),
		next:        connect.NewClient[playerv1.NextRequest, playerv1.CommandResponse](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		previous:    connect.NewClient[playerv1.PreviousRequest, playerv1.CommandResponse](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		togglePause: connect.NewClient[playerv1.TogglePauseRequest, playerv1.CommandResponse](httpClient, baseURL+PlayerServiceTogglePauseProcedure, opts...),
		toggleTheme: connect.NewClient[playerv1.ToggleThemeRequest, playerv1.ToggleThemeResponse](httpClient, baseURL+PlayerServiceToggleThemeProcedure, opts...),
		rescan:      connect.NewClient[playerv1.RescanRequest, playerv1.RescanResponse](httpClient, baseURL+PlayerServiceRescanProcedure, opts...),
		subscribe:   connect.NewClient[playerv1.SubscribeRequest, playerv1.Notification](httpClient, baseURL+PlayerServiceSubscribeProcedure, opts...),
	}
}

func (c *PlayerServiceClient) ListTracks(ctx context.Context, req *connect.Request[playerv1.ListTracksRequest]) (*connect.Response[playerv1.ListTracksResponse], error) {
	return c.listTracks.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) GetStatus(ctx context.Context, req *connect.Request[playerv1.GetStatusRequest]) (*connect.Response[playerv1.GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) SelectTrack(ctx context.Context, req *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.CommandResponse], error) {
	return c.selectTrack.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Next(ctx context.Context, req *connect.Request[playerv1.NextRequest]) (*connect.Response[playerv1.CommandResponse], error) {
	return c.next.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Previous(ctx context.Context, req *connect.Request[playerv1.PreviousRequest]) (*connect.Response[playerv1.CommandResponse], error) {
	return c.previous.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) TogglePause(ctx context.Context, req *connect.Request[playerv1.TogglePauseRequest]) (*connect.Response[playerv1.CommandResponse], error) {
	return c.togglePause.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) ToggleTheme(ctx context.Context, req *connect.Request[playerv1.ToggleThemeRequest]) (*connect.Response[playerv1.ToggleThemeResponse], error) {
	return c.toggleTheme.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Rescan(ctx context.Context, req *connect.Request[playerv1.RescanRequest]) (*connect.Response[playerv1.RescanResponse], error) {
	return c.rescan.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Subscribe(ctx context.Context, req *connect.Request[playerv1.SubscribeRequest]) (*connect.ServerStreamForClient[playerv1.Notification], error) {
	return c.subscribe.CallServerStream(ctx, req)
}
