package playback

import "github.com/osa030/mymusic/internal/domain/track"

// IntentKind is the action the audio backend must perform after a transition.
type IntentKind int

const (
	IntentNone   IntentKind = iota // Nothing to do
	IntentPlay                     // Load and play Track, replacing whatever is loaded
	IntentPause                    // Pause the loaded track
	IntentResume                   // Resume the loaded track
	IntentStop                     // Stop and unload
)

// String returns the string representation of the intent kind.
func (k IntentKind) String() string {
	switch k {
	case IntentNone:
		return "none"
	case IntentPlay:
		return "play"
	case IntentPause:
		return "pause"
	case IntentResume:
		return "resume"
	case IntentStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Intent is returned by every transition and tells the caller what the
// audio collaborator has to do next.
type Intent struct {
	Kind  IntentKind
	Track track.Track // Set for IntentPlay
}

func playIntent(t track.Track) Intent {
	return Intent{Kind: IntentPlay, Track: t}
}
