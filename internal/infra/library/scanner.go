// Package library scans music directories for playable files.
package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mymusic/internal/domain/track"
)

// Config represents scanner configuration.
type Config struct {
	Dirs       []string
	Extensions []string // Without leading dot, e.g. "mp3"
}

// Scanner lists audio files below the configured directories.
type Scanner struct {
	dirs []string
	exts map[string]bool

	walk     func(root string, fn fs.WalkDirFunc) error
	title    func(path string) string
	duration func(path string) (time.Duration, error)
}

// NewScanner creates a scanner.
func NewScanner(cfg Config) *Scanner {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return &Scanner{
		dirs:     cfg.Dirs,
		exts:     exts,
		walk:     filepath.WalkDir,
		title:    ReadTitle,
		duration: ProbeDuration,
	}
}

// Scan walks every directory and returns the tracks ordered by path.
// Directories that cannot be read for lack of permission, or do not
// exist, contribute no tracks.
func (s *Scanner) Scan(ctx context.Context) ([]track.Track, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, dir := range s.dirs {
		found, err := s.scanDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)

	tracks := make([]track.Track, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "scan cancelled")
		}
		tracks = append(tracks, s.load(p))
	}

	zlog.Info().Msgf("library: scan complete: dirs=%d tracks=%d", len(s.dirs), len(tracks))
	return tracks, nil
}

func (s *Scanner) scanDir(ctx context.Context, root string) ([]string, error) {
	var paths []string

	err := s.walk(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			switch {
			case errors.Is(err, fs.ErrPermission):
				zlog.Warn().Msgf("library: permission denied, skipping: path=%s", path)
				return skip(d)
			case errors.Is(err, fs.ErrNotExist):
				zlog.Warn().Msgf("library: directory not found, skipping: path=%s", path)
				return skip(d)
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if s.accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", root)
	}
	return paths, nil
}

// skip returns the walk result that skips the failing entry.
// A nil entry means the root itself failed.
func skip(d fs.DirEntry) error {
	if d == nil || d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

func (s *Scanner) accepts(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && s.exts[ext]
}

func (s *Scanner) load(path string) track.Track {
	var duration *time.Duration
	if d, err := s.duration(path); err != nil {
		zlog.Debug().Msgf("library: duration unknown: path=%s err=%v", path, err)
	} else if d > 0 {
		duration = &d
	}
	return track.New(path, s.title(path), duration)
}
