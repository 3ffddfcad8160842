// Package main provides the player control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/mymusic/internal/api/connect"
	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
	"github.com/osa030/mymusic/internal/api/playerv1/playerv1connect"
	"github.com/osa030/mymusic/internal/domain/track"
)

var (
	app    = kingpin.New("mymusic-playerctl", "mymusic player control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set MYMUSIC_CONTROL_TOKEN env)").Envar("MYMUSIC_CONTROL_TOKEN").String()

	listCmd   = app.Command("list", "List the tracks in the playlist").Alias("ls")
	statusCmd = app.Command("status", "Show the player status")

	selectCmd   = app.Command("select", "Play the track at a playlist position")
	selectIndex = selectCmd.Arg("index", "Playlist position (0-based)").Required().Int()

	nextCmd  = app.Command("next", "Play the next track")
	prevCmd  = app.Command("prev", "Play the previous track").Alias("previous")
	pauseCmd = app.Command("pause", "Toggle pause")

	themeCmd     = app.Command("theme", "Toggle the color scheme")
	rescanCmd    = app.Command("rescan", "Rescan the music library")
	subscribeCmd = app.Command("subscribe", "Subscribe to notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := playerv1connect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewControlTokenInterceptor(*token)),
	)

	ctx := context.Background()

	switch command {
	case listCmd.FullCommand():
		listTracks(ctx, client)
	case statusCmd.FullCommand():
		status(ctx, client)
	case selectCmd.FullCommand():
		runCommand(func() (*connect.Response[playerv1.CommandResponse], error) {
			return client.SelectTrack(ctx, connect.NewRequest(&playerv1.SelectTrackRequest{Index: *selectIndex}))
		})
	case nextCmd.FullCommand():
		runCommand(func() (*connect.Response[playerv1.CommandResponse], error) {
			return client.Next(ctx, connect.NewRequest(&playerv1.NextRequest{}))
		})
	case prevCmd.FullCommand():
		runCommand(func() (*connect.Response[playerv1.CommandResponse], error) {
			return client.Previous(ctx, connect.NewRequest(&playerv1.PreviousRequest{}))
		})
	case pauseCmd.FullCommand():
		runCommand(func() (*connect.Response[playerv1.CommandResponse], error) {
			return client.TogglePause(ctx, connect.NewRequest(&playerv1.TogglePauseRequest{}))
		})
	case themeCmd.FullCommand():
		toggleTheme(ctx, client)
	case rescanCmd.FullCommand():
		rescan(ctx, client)
	case subscribeCmd.FullCommand():
		subscribe(ctx, client)
	}
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func listTracks(ctx context.Context, client *playerv1connect.PlayerServiceClient) {
	resp, err := client.ListTracks(ctx, connect.NewRequest(&playerv1.ListTracksRequest{}))
	if err != nil {
		fail(err)
	}

	fmt.Printf("Tracks (%d):\n", len(resp.Msg.Tracks))
	for _, t := range resp.Msg.Tracks {
		fmt.Printf("  %3d  %-50s %s\n", t.Index, t.Title, displayDuration(t))
	}
}

func status(ctx context.Context, client *playerv1connect.PlayerServiceClient) {
	resp, err := client.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	if err != nil {
		fail(err)
	}
	printStatus(resp.Msg.Status)
}

func runCommand(call func() (*connect.Response[playerv1.CommandResponse], error)) {
	resp, err := call()
	if err != nil {
		fail(err)
	}
	printStatus(resp.Msg.Status)
}

func toggleTheme(ctx context.Context, client *playerv1connect.PlayerServiceClient) {
	resp, err := client.ToggleTheme(ctx, connect.NewRequest(&playerv1.ToggleThemeRequest{}))
	if err != nil {
		fail(err)
	}

	fmt.Printf("Theme: %s\n", resp.Msg.Theme)
	if p := resp.Msg.Palette; p != nil {
		fmt.Printf("  Text: %s  Background: %s  Secondary: %s  Main: %s\n",
			p.Text, p.Background, p.Secondary, p.Main)
	}
}

func rescan(ctx context.Context, client *playerv1connect.PlayerServiceClient) {
	resp, err := client.Rescan(ctx, connect.NewRequest(&playerv1.RescanRequest{}))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Library rescanned: %d tracks\n", resp.Msg.TrackCount)
}

func subscribe(ctx context.Context, client *playerv1connect.PlayerServiceClient) {
	stream, err := client.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{}))
	if err != nil {
		fail(err)
	}

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}

	if err := stream.Err(); err != nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printNotification(n *playerv1.Notification) {
	fmt.Printf("\n[Sequence: %d] ", n.SequenceNo)

	switch n.Type {
	case playerv1.NotificationTypeInitialState:
		fmt.Println("=== INITIAL STATE ===")
	case playerv1.NotificationTypeTrackChanged:
		fmt.Println("=== TRACK CHANGED ===")
	case playerv1.NotificationTypeStateChanged:
		fmt.Println("=== STATE CHANGED ===")
	case playerv1.NotificationTypePlaylistReplaced:
		fmt.Println("=== PLAYLIST REPLACED ===")
	case playerv1.NotificationTypePlaybackFailed:
		fmt.Println("=== PLAYBACK FAILED ===")
	case playerv1.NotificationTypeThemeChanged:
		fmt.Println("=== THEME CHANGED ===")
	default:
		fmt.Printf("=== UNKNOWN EVENT (%s) ===\n", n.Type)
	}

	if n.Message != "" {
		fmt.Printf("  %s\n", n.Message)
	}
	if n.Status != nil {
		printStatus(n.Status)
	}
}

func printStatus(s *playerv1.PlayerStatus) {
	if s == nil {
		return
	}

	fmt.Printf("State: %s\n", formatState(s.State))
	total, ok := track.FormatDuration(track.Seconds(s.TotalDurationSeconds))
	if !ok {
		total = "--:--"
	}
	fmt.Printf("Tracks: %d (%s total)\n", s.TrackCount, total)
	fmt.Printf("Theme: %s\n", s.Theme)

	if t := s.CurrentTrack; t != nil {
		fmt.Println("\nCurrent Track:")
		fmt.Printf("  Index: %d\n", t.Index)
		fmt.Printf("  Title: %s\n", t.Title)
		fmt.Printf("  URI: %s\n", t.URI)
		fmt.Printf("  Duration: %s\n", displayDuration(t))
	} else {
		fmt.Println("\nNo track selected")
	}
}

func formatState(state playerv1.PlaybackState) string {
	switch state {
	case playerv1.PlaybackStatePlaying:
		return "▶️  Playing"
	case playerv1.PlaybackStatePaused:
		return "⏸  Paused"
	case playerv1.PlaybackStateUnselected:
		return "⏹  Stopped"
	default:
		return "❓ Unknown"
	}
}

func displayDuration(t *playerv1.TrackInfo) string {
	if t.DisplayDuration != "" {
		return t.DisplayDuration
	}
	return "--:--"
}
