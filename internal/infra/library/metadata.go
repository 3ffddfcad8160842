package library

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// ReadTitle returns the title tag of the file, falling back to its file name.
func ReadTitle(path string) string {
	fallback := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fallback
	}
	if title := strings.TrimSpace(m.Title()); title != "" {
		return title
	}
	return fallback
}

// ProbeDuration decodes the file header to compute its duration.
// Only mp3 and wav can be probed.
func ProbeDuration(path string) (time.Duration, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext != "mp3" && ext != "wav" {
		return 0, errors.Newf("unsupported format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case "mp3":
		streamer, format, err = mp3.Decode(f)
	case "wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to decode %s", ext)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}
