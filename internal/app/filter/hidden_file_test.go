package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mymusic/internal/domain/track"
)

func TestHiddenFileFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		uri          string
		includeDirs  bool
		wantAccepted bool
	}{
		{name: "regular file", uri: "/music/song.mp3", wantAccepted: true},
		{name: "dot file", uri: "/music/.song.mp3", wantAccepted: false},
		{name: "resource fork", uri: "/music/._song.mp3", wantAccepted: false},
		{name: "hidden dir ignored by default", uri: "/music/.cache/song.mp3", wantAccepted: true},
		{name: "hidden dir rejected when enabled", uri: "/music/.cache/song.mp3", includeDirs: true, wantAccepted: false},
		{name: "relative path with dots", uri: "../music/song.mp3", includeDirs: true, wantAccepted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &HiddenFileFilter{}
			require.NoError(t, f.ValidateConfig(map[string]any{"include_dirs": tt.includeDirs}))

			result := f.Check(context.Background(), track.New(tt.uri, "song.mp3", nil))

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "hidden_file", result.Code)
			}
		})
	}
}
