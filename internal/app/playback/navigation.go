package playback

// NextIndex returns the position after current in a playlist of length n.
// Advancing past the last track wraps to the first one.
// n must be positive and current within [0, n).
func NextIndex(n, current int) int {
	return (current + 1) % n
}

// PreviousIndex returns the position before current in a playlist of length n.
// Going back from the first track wraps to the last one, except for a
// single-track playlist where it stays on the only track.
// n must be positive and current within [0, n).
func PreviousIndex(n, current int) int {
	if current == 0 {
		if n == 1 {
			return 0
		}
		return n - 1
	}
	return current - 1
}
