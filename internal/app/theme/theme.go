// Package theme holds the light and dark color schemes of the player.
package theme

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Scheme is a color scheme name.
type Scheme string

const (
	Light Scheme = "light"
	Dark  Scheme = "dark"
)

// ErrUnknownScheme is returned by ParseScheme for names other than light or dark.
var ErrUnknownScheme = errors.New("unknown color scheme")

// Palette is the set of colors used to render a scheme.
type Palette struct {
	Text       string
	Background string
	Secondary  string
	Main       string
}

var palettes = map[Scheme]Palette{
	Light: {
		Text:       "#393737",
		Background: "#F3F8FF",
		Secondary:  "#EEF5FF",
		Main:       "#E8D3FF",
	},
	Dark: {
		Text:       "#EDEDED",
		Background: "#171717",
		Secondary:  "#1B262C",
		Main:       "#7752FE",
	},
}

// ParseScheme parses a scheme name, case-insensitively.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", errors.Wrapf(ErrUnknownScheme, "%q", s)
}

// Toggle returns the other scheme.
func (s Scheme) Toggle() Scheme {
	if s == Dark {
		return Light
	}
	return Dark
}

// Palette returns the colors of the scheme. Unknown schemes get the light palette.
func (s Scheme) Palette() Palette {
	if p, ok := palettes[s]; ok {
		return p
	}
	return palettes[Light]
}

func (s Scheme) String() string { return string(s) }

// Holder is the current scheme, safe for concurrent use.
type Holder struct {
	mu     sync.RWMutex
	scheme Scheme
}

// NewHolder creates a holder starting at initial.
func NewHolder(initial Scheme) *Holder {
	if initial != Dark {
		initial = Light
	}
	return &Holder{scheme: initial}
}

// Current returns the active scheme.
func (h *Holder) Current() Scheme {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scheme
}

// Toggle switches to the other scheme and returns it.
func (h *Holder) Toggle() Scheme {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scheme = h.scheme.Toggle()
	return h.scheme
}
