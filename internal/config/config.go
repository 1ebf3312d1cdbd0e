package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when -config is not given.
const DefaultPath = "config.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulator configuration.
type Config struct {
	Data   DataConfig   `yaml:"data"`
	Market MarketConfig `yaml:"market"`
	Player PlayerConfig `yaml:"player"`
	Server ServerConfig `yaml:"server"`
	Loop   LoopConfig   `yaml:"loop"`
	Log    LogConfig    `yaml:"log"`
}

// DataConfig locates the catalog, vendor and news files.
type DataConfig struct {
	Path string `yaml:"path"`
}

type MarketConfig struct {
	Seed            int64         `yaml:"seed"` // 0 = time-seeded
	CycleLength     time.Duration `yaml:"cycle_length"`
	Speed           float64       `yaml:"speed"`
	RandomInfluence float64       `yaml:"random_influence"`
	ImpactPolicy    string        `yaml:"impact_policy"` // damped | undamped
	Paused          bool          `yaml:"paused"`
}

type PlayerConfig struct {
	StartingMoney int64   `yaml:"starting_money"`
	MaxVolume     float64 `yaml:"max_volume"`
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	SendBuffer int    `yaml:"send_buffer"` // per-client queued messages
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

type LoopConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
}

type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // json | text
	File       string `yaml:"file"`   // rotated log file; empty = stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Data: DataConfig{Path: "data"},
		Market: MarketConfig{
			CycleLength:     5 * time.Second,
			Speed:           1.0,
			RandomInfluence: 0.025,
			ImpactPolicy:    "damped",
		},
		Player: PlayerConfig{
			StartingMoney: 10000,
			MaxVolume:     1000,
		},
		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       8100,
			SendBuffer: 256,
		},
		Loop: LoopConfig{FrameInterval: 16 * time.Millisecond},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadFile reads YAML over the defaults. A missing file yields defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file named by -config, MARKET_* environment variables and
// command-line flags. The result is validated.
func Load(name string, args []string) (Config, error) {
	pre := flag.NewFlagSet(name, flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	path := pre.String("config", envStr("MARKET_CONFIG", DefaultPath), "")
	bindFlags(pre, &Config{})
	_ = pre.Parse(args) // errors are reported by the full parse below

	cfg, err := LoadFile(*path)
	if err != nil {
		return cfg, err
	}
	cfg.applyEnv()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", *path, "YAML config file (missing = defaults)")
	bindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// bindFlags registers one flag per field, defaulting to the field's current
// value so unset flags keep file and environment settings.
func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Data.Path, "data", c.Data.Path, "Data directory with catalog, vendor and news files")

	fs.Int64Var(&c.Market.Seed, "seed", c.Market.Seed, "PRNG seed (0 = random)")
	fs.DurationVar(&c.Market.CycleLength, "cycle", c.Market.CycleLength, "Market cycle length")
	fs.Float64Var(&c.Market.Speed, "speed", c.Market.Speed, "Game speed multiplier")
	fs.Float64Var(&c.Market.RandomInfluence, "random-influence", c.Market.RandomInfluence, "Half-width of the random price factor")
	fs.StringVar(&c.Market.ImpactPolicy, "impact-policy", c.Market.ImpactPolicy, "Player impact policy: damped or undamped")
	fs.BoolVar(&c.Market.Paused, "paused", c.Market.Paused, "Start with the cycle timer paused")

	fs.Int64Var(&c.Player.StartingMoney, "money", c.Player.StartingMoney, "Starting money")
	fs.Float64Var(&c.Player.MaxVolume, "max-volume", c.Player.MaxVolume, "Inventory volume cap")

	fs.StringVar(&c.Server.Host, "host", c.Server.Host, "Listen host")
	fs.IntVar(&c.Server.Port, "port", c.Server.Port, "HTTP and WebSocket port")
	fs.IntVar(&c.Server.SendBuffer, "send-buffer", c.Server.SendBuffer, "Per-client send buffer size")

	fs.DurationVar(&c.Loop.FrameInterval, "frame", c.Loop.FrameInterval, "Frame loop tick interval")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "Log format: json or text")
	fs.StringVar(&c.Log.File, "log-file", c.Log.File, "Rotated log file (empty = stdout only)")
}

func (c *Config) applyEnv() {
	c.Data.Path = envStr("MARKET_DATA_PATH", c.Data.Path)

	c.Market.Seed = envInt64("MARKET_SEED", c.Market.Seed)
	c.Market.CycleLength = envDuration("MARKET_CYCLE_LENGTH", c.Market.CycleLength)
	c.Market.Speed = envFloat("MARKET_SPEED", c.Market.Speed)
	c.Market.RandomInfluence = envFloat("MARKET_RANDOM_INFLUENCE", c.Market.RandomInfluence)
	c.Market.ImpactPolicy = envStr("MARKET_IMPACT_POLICY", c.Market.ImpactPolicy)
	c.Market.Paused = envBool("MARKET_PAUSED", c.Market.Paused)

	c.Player.StartingMoney = envInt64("MARKET_STARTING_MONEY", c.Player.StartingMoney)
	c.Player.MaxVolume = envFloat("MARKET_MAX_VOLUME", c.Player.MaxVolume)

	c.Server.Host = envStr("MARKET_HOST", c.Server.Host)
	c.Server.Port = envInt("MARKET_PORT", c.Server.Port)
	c.Server.SendBuffer = envInt("MARKET_SEND_BUFFER", c.Server.SendBuffer)

	c.Loop.FrameInterval = envDuration("MARKET_FRAME_INTERVAL", c.Loop.FrameInterval)

	c.Log.Level = envStr("MARKET_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envStr("MARKET_LOG_FORMAT", c.Log.Format)
	c.Log.File = envStr("MARKET_LOG_FILE", c.Log.File)
}

// FieldError names the offending setting.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	switch {
	case c.Data.Path == "":
		return invalid("data.path", "must not be empty")
	case c.Market.CycleLength <= 0:
		return invalid("market.cycle_length", "must be positive, got %s", c.Market.CycleLength)
	case c.Market.Speed <= 0:
		return invalid("market.speed", "must be positive, got %v", c.Market.Speed)
	case c.Market.RandomInfluence < 0 || c.Market.RandomInfluence >= 1:
		return invalid("market.random_influence", "must be in [0, 1), got %v", c.Market.RandomInfluence)
	case c.Player.StartingMoney < 0:
		return invalid("player.starting_money", "must not be negative, got %d", c.Player.StartingMoney)
	case c.Player.MaxVolume <= 0:
		return invalid("player.max_volume", "must be positive, got %v", c.Player.MaxVolume)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return invalid("server.port", "out of range: %d", c.Server.Port)
	case c.Server.SendBuffer <= 0:
		return invalid("server.send_buffer", "must be positive, got %d", c.Server.SendBuffer)
	case c.Loop.FrameInterval <= 0:
		return invalid("loop.frame_interval", "must be positive, got %s", c.Loop.FrameInterval)
	}

	switch strings.ToLower(c.Market.ImpactPolicy) {
	case "damped", "undamped":
	default:
		return invalid("market.impact_policy", "unknown policy %q", c.Market.ImpactPolicy)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}
	return nil
}

// DataFile joins name onto the data directory.
func (c *Config) DataFile(name string) string {
	return filepath.Join(c.Data.Path, name)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
