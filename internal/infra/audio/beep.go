package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	zlog "github.com/rs/zerolog/log"
)

// BeepConfig represents the settings of the speaker backend.
type BeepConfig struct {
	SampleRate int     `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs   int     `mapstructure:"buffer_ms" default:"200" validate:"gte=10,lte=2000"`
	Volume     float64 `mapstructure:"volume" validate:"gte=-10,lte=2"` // Base-2 exponent, 0 is unchanged
}

// BeepBackend plays mp3 and wav files on the system speaker.
type BeepBackend struct {
	config BeepConfig
	rate   beep.SampleRate

	mu          sync.Mutex
	initialized bool
	closed      bool
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
	current     string
	generation  uint64

	doneCh chan string
}

// NewBeepBackend creates a speaker backend from settings.
// The speaker itself is initialized on the first Play.
func NewBeepBackend(settings map[string]any) (*BeepBackend, error) {
	var config BeepConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &BeepBackend{
		config: config,
		rate:   beep.SampleRate(config.SampleRate),
		doneCh: make(chan string, 1),
	}, nil
}

func (b *BeepBackend) Name() string { return "beep" }

func (b *BeepBackend) Play(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.stopLocked()

	streamer, format, err := decode(uri)
	if err != nil {
		return err
	}

	if !b.initialized {
		if err := speaker.Init(b.rate, b.rate.N(time.Duration(b.config.BufferMs)*time.Millisecond)); err != nil {
			streamer.Close()
			return errors.Wrap(err, "failed to initialize speaker")
		}
		b.initialized = true
	}

	var s beep.Streamer = streamer
	if format.SampleRate != b.rate {
		s = beep.Resample(4, format.SampleRate, b.rate, s)
	}
	if b.config.Volume != 0 {
		s = &effects.Volume{Streamer: s, Base: 2, Volume: b.config.Volume}
	}

	b.generation++
	gen := b.generation
	b.streamer = streamer
	b.current = uri
	b.ctrl = &beep.Ctrl{Streamer: s}

	speaker.Play(beep.Seq(b.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker lock held
		go b.finished(gen, uri)
	})))

	zlog.Debug().Msgf("audio: playing: uri=%s rate=%d", uri, format.SampleRate)
	return nil
}

func (b *BeepBackend) finished(gen uint64, uri string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || gen != b.generation {
		return
	}
	notify(b.doneCh, uri)
}

func (b *BeepBackend) Pause() error {
	return b.setPaused(true)
}

func (b *BeepBackend) Resume() error {
	return b.setPaused(false)
}

func (b *BeepBackend) setPaused(paused bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.ctrl == nil {
		return nil
	}
	speaker.Lock()
	b.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

func (b *BeepBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.stopLocked()
	return nil
}

// stopLocked must be called with b.mu held.
func (b *BeepBackend) stopLocked() {
	if b.ctrl != nil {
		speaker.Clear()
		b.ctrl = nil
	}
	if b.streamer != nil {
		if err := b.streamer.Close(); err != nil {
			zlog.Debug().Msgf("audio: failed to close streamer: uri=%s err=%v", b.current, err)
		}
		b.streamer = nil
	}
	b.current = ""
	b.generation++
}

func (b *BeepBackend) Done() <-chan string {
	return b.doneCh
}

func (b *BeepBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.stopLocked()
	b.closed = true
	if b.initialized {
		speaker.Close()
	}
	close(b.doneCh)
	return nil
}

// decode opens uri and picks a decoder by extension.
func decode(uri string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(uri)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to open audio file")
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(uri)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, errors.Newf("unsupported audio format: %s", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", uri)
	}
	return streamer, format, nil
}

func init() {
	Register("beep", func(settings map[string]any) (Backend, error) {
		b, err := NewBeepBackend(settings)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}
