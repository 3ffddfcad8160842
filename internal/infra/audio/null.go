package audio

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// NullConfig represents the settings of the silent backend.
type NullConfig struct {
	// VerifyFiles makes Play fail for files that cannot be opened.
	VerifyFiles bool `mapstructure:"verify_files" default:"true"`
	// CompleteAfterMs reports every track as finished after this delay. 0 never completes.
	CompleteAfterMs int `mapstructure:"complete_after_ms" validate:"gte=0"`
}

// NullBackend tracks playback state without producing sound.
// It is used on hosts without an audio device.
type NullBackend struct {
	config NullConfig

	mu         sync.Mutex
	closed     bool
	current    string
	paused     bool
	generation uint64
	timer      *time.Timer

	doneCh chan string
}

// NewNullBackend creates a silent backend from settings.
func NewNullBackend(settings map[string]any) (*NullBackend, error) {
	var config NullConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &NullBackend{
		config: config,
		doneCh: make(chan string, 1),
	}, nil
}

func (b *NullBackend) Name() string { return "null" }

func (b *NullBackend) Play(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.stopLocked()

	if b.config.VerifyFiles {
		f, err := os.Open(uri)
		if err != nil {
			return errors.Wrap(err, "failed to open audio file")
		}
		f.Close()
	}

	b.current = uri
	b.paused = false
	if b.config.CompleteAfterMs > 0 {
		gen := b.generation
		b.timer = time.AfterFunc(time.Duration(b.config.CompleteAfterMs)*time.Millisecond, func() {
			b.finished(gen, uri)
		})
	}
	zlog.Debug().Msgf("audio: null backend playing: uri=%s", uri)
	return nil
}

func (b *NullBackend) finished(gen uint64, uri string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || gen != b.generation {
		return
	}
	b.current = ""
	notify(b.doneCh, uri)
}

func (b *NullBackend) Pause() error {
	return b.setPaused(true)
}

func (b *NullBackend) Resume() error {
	return b.setPaused(false)
}

func (b *NullBackend) setPaused(paused bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.current != "" {
		b.paused = paused
	}
	return nil
}

func (b *NullBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.stopLocked()
	return nil
}

// stopLocked must be called with b.mu held.
func (b *NullBackend) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.current = ""
	b.paused = false
	b.generation++
}

// Current returns the file being played and whether it is paused.
func (b *NullBackend) Current() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.paused
}

func (b *NullBackend) Done() <-chan string {
	return b.doneCh
}

func (b *NullBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.stopLocked()
	b.closed = true
	close(b.doneCh)
	return nil
}

func init() {
	Register("null", func(settings map[string]any) (Backend, error) {
		b, err := NewNullBackend(settings)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}
