// Package audio provides the audio backends that play local files.
package audio

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ErrClosed is returned by backends after Close.
var ErrClosed = errors.New("audio backend closed")

// Backend plays one file at a time.
// Play always replaces whatever is playing; it never queues.
type Backend interface {
	// Name returns the backend type name.
	Name() string
	// Play stops the current file and starts uri.
	Play(uri string) error
	Pause() error
	Resume() error
	Stop() error
	// Done receives the URI of every file that played to the end.
	Done() <-chan string
	Close() error
}

// registry holds backend factories by type name.
var registry = make(map[string]func(settings map[string]any) (Backend, error))

// Register registers a backend factory.
func Register(name string, factory func(settings map[string]any) (Backend, error)) {
	registry[name] = factory
}

// Types returns the registered backend types in sorted order.
func Types() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend creates the backend registered under backendType.
func NewBackend(backendType string, settings map[string]any) (Backend, error) {
	factory, ok := registry[backendType]
	if !ok {
		return nil, errors.Newf("unknown audio backend: %s", backendType)
	}
	b, err := factory(settings)
	if err != nil {
		return nil, errors.Wrapf(err, "audio backend %s", backendType)
	}
	return b, nil
}

// decodeSettings applies defaults to out, decodes settings over them and validates.
// Defaults go first so that explicit false or zero settings survive.
func decodeSettings(settings map[string]any, out any) error {
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// notify sends uri on ch without blocking.
func notify(ch chan string, uri string) {
	select {
	case ch <- uri:
	default:
	}
}
