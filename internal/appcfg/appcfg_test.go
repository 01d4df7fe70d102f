package appcfg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/betterstudio/studio-sync/internal/appcfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	s, err := appcfg.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:17441", s.HubAddr)
	assert.Equal(t, "sqlite", s.Store)
	assert.Empty(t, s.PagePath)
}

func TestParseOverrides(t *testing.T) {
	s, err := appcfg.Parse([]byte("hub_addr: 127.0.0.1:9999\nstore: files\npage: /tmp/studio.html\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", s.HubAddr)
	assert.Equal(t, "files", s.Store)
	assert.Equal(t, "/tmp/studio.html", s.PagePath)
}

func TestParseInvalid(t *testing.T) {
	_, err := appcfg.Parse([]byte("store: [not, a, string"))
	assert.Error(t, err)
}

func TestLoadAbsentFile(t *testing.T) {
	s, err := appcfg.Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Store)
}

func TestRoundTrip(t *testing.T) {
	orig := appcfg.Settings{HubAddr: "127.0.0.1:4000", Store: "files", PagePath: "p.html"}
	data, err := appcfg.Marshal(orig)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := appcfg.Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}
