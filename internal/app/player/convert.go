package player

import (
	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
	"github.com/osa030/mymusic/internal/app/playback"
	"github.com/osa030/mymusic/internal/app/theme"
	"github.com/osa030/mymusic/internal/domain/track"
)

func buildTrackInfo(index int, t track.Track) *playerv1.TrackInfo {
	info := &playerv1.TrackInfo{
		Index:           index,
		TrackID:         t.ID,
		Title:           t.Title,
		URI:             t.URI,
		DisplayDuration: t.DisplayDuration(),
	}
	if t.HasDuration() {
		seconds := t.Duration.Seconds()
		info.DurationSeconds = &seconds
	}
	return info
}

func buildStatus(snap playback.Snapshot, scheme theme.Scheme) *playerv1.PlayerStatus {
	status := &playerv1.PlayerStatus{
		State:                convertState(snap.State),
		TrackCount:           snap.Length,
		TotalDurationSeconds: snap.Total.Seconds(),
		Theme:                scheme.String(),
	}
	if snap.Track != nil {
		status.CurrentTrack = buildTrackInfo(snap.Selection.Index, *snap.Track)
	}
	return status
}

func convertState(s playback.State) playerv1.PlaybackState {
	switch s {
	case playback.StatePlaying:
		return playerv1.PlaybackStatePlaying
	case playback.StatePaused:
		return playerv1.PlaybackStatePaused
	default:
		return playerv1.PlaybackStateUnselected
	}
}

// BuildPalette converts a scheme palette for the API.
func BuildPalette(s theme.Scheme) *playerv1.Palette {
	p := s.Palette()
	return &playerv1.Palette{
		Text:       p.Text,
		Background: p.Background,
		Secondary:  p.Secondary,
		Main:       p.Main,
	}
}
