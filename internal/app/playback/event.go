package playback

import "github.com/osa030/mymusic/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackSelected    EventType = iota // A track was selected (select/next/previous/restore)
	EventStateChanged                      // Pause state changed
	EventPlaylistReplaced                  // Playlist contents were replaced
	EventPlaybackFailed                    // Audio backend could not play the current track
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackSelected:
		return "track_selected"
	case EventStateChanged:
		return "state_changed"
	case EventPlaylistReplaced:
		return "playlist_replaced"
	case EventPlaybackFailed:
		return "playback_failed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Current track (nil when nothing is selected)
	Index int          // Current index (-1 when nothing is selected)
	State State
}
