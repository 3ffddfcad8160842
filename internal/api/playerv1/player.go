// Package playerv1 defines the messages of the mymusic.v1 player API.
// Messages are plain structs carried by the JSON codec in playerv1connect.
package playerv1

// PlaybackState is the playback state reported to clients.
type PlaybackState string

const (
	PlaybackStateUnselected PlaybackState = "unselected"
	PlaybackStatePlaying    PlaybackState = "playing"
	PlaybackStatePaused     PlaybackState = "paused"
)

// NotificationType identifies why a notification was sent.
type NotificationType string

const (
	NotificationTypeInitialState     NotificationType = "initial_state"
	NotificationTypeTrackChanged     NotificationType = "track_changed"
	NotificationTypeStateChanged     NotificationType = "state_changed"
	NotificationTypePlaylistReplaced NotificationType = "playlist_replaced"
	NotificationTypePlaybackFailed   NotificationType = "playback_failed"
	NotificationTypeThemeChanged     NotificationType = "theme_changed"
)

// TrackInfo describes one playlist entry.
type TrackInfo struct {
	Index           int      `json:"index"`
	TrackID         string   `json:"track_id"`
	Title           string   `json:"title"`
	URI             string   `json:"uri"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	DisplayDuration string   `json:"display_duration,omitempty"`
}

// Palette holds the colors of a theme.
type Palette struct {
	Text       string `json:"text"`
	Background string `json:"background"`
	Secondary  string `json:"secondary"`
	Main       string `json:"main"`
}

// PlayerStatus is the state needed to render a player UI.
type PlayerStatus struct {
	State                PlaybackState `json:"state"`
	CurrentTrack         *TrackInfo    `json:"current_track,omitempty"`
	TrackCount           int           `json:"track_count"`
	TotalDurationSeconds float64       `json:"total_duration_seconds"`
	Theme                string        `json:"theme"`
}

// Notification is pushed to subscribers on every state change.
type Notification struct {
	Type       NotificationType `json:"type"`
	SequenceNo uint64           `json:"sequence_no"`
	Status     *PlayerStatus    `json:"status,omitempty"`
	Message    string           `json:"message,omitempty"`
}

type ListTracksRequest struct{}

type ListTracksResponse struct {
	Tracks []*TrackInfo `json:"tracks"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status *PlayerStatus `json:"status"`
}

type SelectTrackRequest struct {
	Index int `json:"index"`
}

type NextRequest struct{}

type PreviousRequest struct{}

type TogglePauseRequest struct{}

// CommandResponse is returned by every transport command.
type CommandResponse struct {
	Status *PlayerStatus `json:"status"`
}

type ToggleThemeRequest struct{}

type ToggleThemeResponse struct {
	Theme   string   `json:"theme"`
	Palette *Palette `json:"palette"`
}

type RescanRequest struct{}

type RescanResponse struct {
	TrackCount int `json:"track_count"`
}

type SubscribeRequest struct{}
