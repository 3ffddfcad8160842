package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mymusic/internal/domain/track"
)

// DurationLimitConfig represents the configuration for DurationLimitFilter.
type DurationLimitConfig struct {
	MinSeconds float64 `yaml:"min_seconds" mapstructure:"min_seconds" default:"0" validate:"gte=0"`
	MaxSeconds float64 `yaml:"max_seconds" mapstructure:"max_seconds" validate:"gte=0"`
}

// DurationLimitFilter rejects tracks whose known duration is outside the limits.
// Tracks with an unknown duration are accepted.
type DurationLimitFilter struct {
	config *DurationLimitConfig
}

// NewDurationLimitFilter creates a new duration limit filter.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Skips tracks shorter or longer than the configured limits"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{"duration_limit_exceeded"}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	// max_seconds of 0 means no upper limit
	if config.MaxSeconds > 0 && config.MinSeconds > config.MaxSeconds {
		return errors.New("min_seconds cannot be greater than max_seconds")
	}
	f.config = &config
	zlog.Info().Msgf("filter: duration limit config: %+v", config)
	return nil
}

func (f *DurationLimitFilter) Check(ctx context.Context, t track.Track) Result {
	if f.config == nil || !t.HasDuration() {
		return Accept()
	}

	seconds := t.Duration.Seconds()
	if seconds < f.config.MinSeconds {
		return Reject("duration_limit_exceeded")
	}
	if f.config.MaxSeconds > 0 && seconds > f.config.MaxSeconds {
		return Reject("duration_limit_exceeded")
	}
	return Accept()
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return NewDurationLimitFilter()
	})
}
