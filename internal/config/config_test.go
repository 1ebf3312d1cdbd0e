package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Market.CycleLength)
	assert.Equal(t, int64(10000), cfg.Player.StartingMoney)
	assert.Equal(t, 1000.0, cfg.Player.MaxVolume)
	assert.Equal(t, "damped", cfg.Market.ImpactPolicy)
	assert.Equal(t, "127.0.0.1:8100", cfg.Server.Addr())
}

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
market:
  seed: 99
  cycle_length: 2s
  impact_policy: undamped
player:
  max_volume: 250
log:
  format: json
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(99), cfg.Market.Seed)
	assert.Equal(t, 2*time.Second, cfg.Market.CycleLength)
	assert.Equal(t, "undamped", cfg.Market.ImpactPolicy)
	assert.Equal(t, 250.0, cfg.Player.MaxVolume)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1.0, cfg.Market.Speed, "unset keys keep defaults")
	assert.Equal(t, int64(10000), cfg.Player.StartingMoney)
}

func TestLoadFile_Malformed(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(writeFile(t, "market: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
market:
  speed: 2
  seed: 5
server:
  port: 9000
`)
	t.Setenv("MARKET_SPEED", "3")
	t.Setenv("MARKET_PORT", "9100")

	cfg, err := Load("test", []string{"-config", path, "-port", "9200"})
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.Market.Seed, "file beats default")
	assert.Equal(t, 3.0, cfg.Market.Speed, "env beats file")
	assert.Equal(t, 9200, cfg.Server.Port, "flag beats env")
}

func TestLoad_InvalidFlagValue(t *testing.T) {
	t.Setenv("MARKET_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))

	_, err := Load("test", []string{"-speed", "0"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load("test", []string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"market.cycle_length", func(c *Config) { c.Market.CycleLength = 0 }},
		{"market.speed", func(c *Config) { c.Market.Speed = -1 }},
		{"market.random_influence", func(c *Config) { c.Market.RandomInfluence = 1.5 }},
		{"market.impact_policy", func(c *Config) { c.Market.ImpactPolicy = "chaotic" }},
		{"player.max_volume", func(c *Config) { c.Player.MaxVolume = 0 }},
		{"player.starting_money", func(c *Config) { c.Player.StartingMoney = -5 }},
		{"server.send_buffer", func(c *Config) { c.Server.SendBuffer = 0 }},
		{"loop.frame_interval", func(c *Config) { c.Loop.FrameInterval = 0 }},
		{"log.level", func(c *Config) { c.Log.Level = "loud" }},
		{"log.format", func(c *Config) { c.Log.Format = "xml" }},
		{"data.path", func(c *Config) { c.Data.Path = "" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.field, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestDataFile(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Data.Path = "/srv/market"
	assert.Equal(t, filepath.Join("/srv/market", "news.json"), cfg.DataFile("news.json"))
}
