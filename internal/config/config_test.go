package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/warp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "warp.yaml", "engine:\n  url: ws://engine:9000/ws\n  legacy: true\nlog:\n  level: debug\n"},
		{"toml", "warp.toml", "[engine]\nurl = \"ws://engine:9000/ws\"\nlegacy = true\n\n[log]\nlevel = \"debug\"\n"},
		{"json", "warp.json", `{"engine": {"url": "ws://engine:9000/ws", "legacy": true}, "log": {"level": "debug"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(write(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, "ws://engine:9000/ws", cfg.Engine.URL)
			assert.True(t, cfg.Engine.Legacy)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, config.TransportWebsocket, cfg.Engine.Transport, "defaults are kept")
			require.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := config.Load(write(t, "warp.ini", "x=1"))
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	env := map[string]string{
		config.EnvEngineURL: "ws://override/ws",
		config.EnvLogLevel:  "warn",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "ws://override/ws", cfg.Engine.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Empty(t, cfg.Drafts.RedisURL)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Transport = "carrier-pigeon"
	cfg.Drafts.Backend = config.DraftsRedis
	cfg.Engine.RequestTimeout = "soon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.transport")
	assert.Contains(t, err.Error(), "drafts.redis_url")
	assert.Contains(t, err.Error(), "engine.request_timeout")
}
