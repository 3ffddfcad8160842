package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
library:
  dirs: ["/music"]
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, []string{"mp3", "wav"}, cfg.Library.Extensions)
	assert.Equal(t, "beep", cfg.Audio.Type)
	assert.Equal(t, "music-storage", cfg.Store.Namespace)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, "light", cfg.Theme.Default)
	assert.Empty(t, cfg.Control.Token)
}

func TestParse_FullFile(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: "127.0.0.1:9090"
  hooks:
    on_started: ["echo started"]
library:
  dirs: ["/music", "/podcasts"]
  extensions: [".MP3", "wav"]
filters:
  hidden_file_filter:
    enabled: true
  duration_limit_filter:
    enabled: false
    settings:
      min_seconds: 30
audio:
  type: "null"
store:
  path: "/tmp/mymusic.db"
theme:
  default: dark
control:
  token: secret
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, []string{"echo started"}, cfg.Server.Hooks.OnStarted)
	assert.Equal(t, []string{"/music", "/podcasts"}, cfg.Library.Dirs)
	assert.Equal(t, []string{"mp3", "wav"}, cfg.Library.Extensions)
	assert.Equal(t, "null", cfg.Audio.Type)
	assert.Equal(t, "/tmp/mymusic.db", cfg.Store.Path)
	assert.Equal(t, "dark", cfg.Theme.Default)
	assert.Equal(t, "secret", cfg.Control.Token)

	assert.True(t, cfg.IsFilterEnabled("hidden_file_filter"))
	assert.False(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("missing_filter"))

	enabled := cfg.EnabledFilters()
	assert.Len(t, enabled, 1)
	assert.Contains(t, enabled, "hidden_file_filter")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing library dirs", yaml: `server: {addr: ":8080"}`},
		{name: "empty library dir", yaml: `library: {dirs: [""]}`},
		{name: "unknown audio backend", yaml: "library: {dirs: [/m]}\naudio: {type: alsa}"},
		{name: "unknown theme", yaml: "library: {dirs: [/m]}\ntheme: {default: sepia}"},
		{name: "unknown log level", yaml: "library: {dirs: [/m]}\nlog: {level: verbose}"},
		{name: "malformed yaml", yaml: "library: [dirs"},
		{name: "undecodable extension", yaml: "library: {dirs: [/m], extensions: [mp3, flac]}"},
		{name: "blank extensions", yaml: "library: {dirs: [/m], extensions: [\"\", \".\"]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("MYMUSIC_SERVER_ADDR", ":7070")
	t.Setenv("MYMUSIC_LIBRARY_DIRS", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("MYMUSIC_AUDIO_TYPE", "null")
	t.Setenv("MYMUSIC_STORE_PATH", "/var/lib/mymusic.db")
	t.Setenv("MYMUSIC_THEME", "dark")
	t.Setenv("MYMUSIC_CONTROL_TOKEN", "from-env")
	t.Setenv("MYMUSIC_LOG_LEVEL", "debug")

	cfg, err := Parse([]byte(`
server: {addr: ":8080"}
library: {dirs: ["/music"]}
control: {token: from-file}
`))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Library.Dirs)
	assert.Equal(t, "null", cfg.Audio.Type)
	assert.Equal(t, "/var/lib/mymusic.db", cfg.Store.Path)
	assert.Equal(t, "dark", cfg.Theme.Default)
	assert.Equal(t, "from-env", cfg.Control.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParse_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Parse([]byte(`
library:
  dirs: ["~/Music", "/srv/music", "~"]
store:
  path: ~/data/mymusic.db
`))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(home, "Music"), "/srv/music", home}, cfg.Library.Dirs)
	assert.Equal(t, filepath.Join(home, "data", "mymusic.db"), cfg.Store.Path)
}

func TestLoad(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("library:\n  dirs: [/music]\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"/music"}, cfg.Library.Dirs)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestLibraryConfig_NormalizedExtensions(t *testing.T) {
	l := LibraryConfig{Extensions: []string{".Mp3", " wav ", "", "."}}
	assert.Equal(t, []string{"mp3", "wav"}, l.NormalizedExtensions())
}
