package filter

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/mymusic/internal/domain/track"
)

// HiddenFileConfig represents the configuration for HiddenFileFilter.
type HiddenFileConfig struct {
	// IncludeDirs also rejects files below a hidden directory.
	IncludeDirs bool `yaml:"include_dirs" mapstructure:"include_dirs"`
}

// HiddenFileFilter rejects dot-files such as macOS "._" resource forks.
type HiddenFileFilter struct {
	config HiddenFileConfig
}

func (f *HiddenFileFilter) Name() string {
	return "hidden_file_filter"
}

func (f *HiddenFileFilter) Description() string {
	return "Skips hidden files (names starting with a dot)"
}

func (f *HiddenFileFilter) ReturnCodes() []string {
	return []string{"hidden_file"}
}

func (f *HiddenFileFilter) ValidateConfig(settings map[string]any) error {
	var config HiddenFileConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	f.config = config
	return nil
}

func (f *HiddenFileFilter) Check(ctx context.Context, t track.Track) Result {
	path := filepath.Clean(t.URI)
	if isHidden(filepath.Base(path)) {
		return Reject("hidden_file")
	}
	if f.config.IncludeDirs {
		for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
			if isHidden(part) {
				return Reject("hidden_file")
			}
		}
	}
	return Accept()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func init() {
	Register("hidden_file_filter", func() Filter {
		return &HiddenFileFilter{}
	})
}
