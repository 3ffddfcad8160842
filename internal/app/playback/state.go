// Package playback provides playlist navigation and playback state control.
package playback

// State represents the playback state.
type State int

const (
	StateUnselected State = iota // No track selected
	StatePlaying                 // Selected track is playing
	StatePaused                  // Selected track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnselected:
		return "unselected"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Selection identifies the selected track by its position in the playlist.
type Selection struct {
	Index  int
	Paused bool
}

// State returns the playback state implied by the selection.
func (s Selection) State() State {
	if s.Paused {
		return StatePaused
	}
	return StatePlaying
}
