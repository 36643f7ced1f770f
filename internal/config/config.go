// Package config loads and validates scoreshot configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
// It is built once in main and handed to constructors; nothing reads
// configuration through package globals.
type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
	Target    TargetConfig   `mapstructure:"target"`
	Plate     PlateConfig    `mapstructure:"plate"`
	Capture   CaptureConfig  `mapstructure:"capture"`
	Artifacts ArtifactConfig `mapstructure:"artifacts"`
	Probe     ProbeConfig    `mapstructure:"probe"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// TelegramConfig holds bot credentials and long-poll behavior.
type TelegramConfig struct {
	Token          string `mapstructure:"token"`
	PollTimeoutSec int    `mapstructure:"poll_timeout_seconds"`
	Debug          bool   `mapstructure:"debug"`
}

// TargetConfig names the score page the bot screenshots.
type TargetConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// PlateConfig bounds the accepted registration-mark length.
type PlateConfig struct {
	MinLength int `mapstructure:"min_length"`
	MaxLength int `mapstructure:"max_length"`
}

// CaptureConfig governs the headless render-convergence engine. Every
// heuristic knob lives here rather than as a constant in the engine.
type CaptureConfig struct {
	UserAgent      string       `mapstructure:"user_agent"`
	ViewportWidth  int          `mapstructure:"viewport_width"`
	ViewportHeight int          `mapstructure:"viewport_height"`
	NavTimeoutSec  int          `mapstructure:"nav_timeout_seconds"`
	SettleMs       int          `mapstructure:"settle_ms"`
	Quality        int          `mapstructure:"quality"`
	ConsentLabels  []string     `mapstructure:"consent_labels"`
	Score          ScoreConfig  `mapstructure:"score"`
	Scroll         ScrollConfig `mapstructure:"scroll"`
}

// ScoreConfig tunes the value-stability poll that waits for the page's
// score figure to stop changing.
type ScoreConfig struct {
	Rounds      int `mapstructure:"rounds"`
	IntervalMs  int `mapstructure:"interval_ms"`
	StableReads int `mapstructure:"stable_reads"`
}

// ScrollConfig tunes lazy-load exhaustion over the dominant scrollable
// region.
type ScrollConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
	IntervalMs    int `mapstructure:"interval_ms"`
	StableReads   int `mapstructure:"stable_reads"`
	MinScrollPx   int `mapstructure:"min_scroll_px"`
}

// ArtifactConfig locates the temp directory screenshots pass through.
type ArtifactConfig struct {
	Dir string `mapstructure:"dir"`
}

// ProbeConfig controls the target reachability check behind /readyz and
// the /status command.
type ProbeConfig struct {
	TimeoutSec  int `mapstructure:"timeout_seconds"`
	CacheTTLSec int `mapstructure:"cache_ttl_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. The Telegram token and ops
// port are additionally bound to the bare TG_BOT_TOKEN and PORT names
// that bot hosts and container platforms conventionally inject.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCORESHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("telegram.token", "SCORESHOT_TELEGRAM_TOKEN", "TG_BOT_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("bind token env: %w", err)
	}
	if err := v.BindEnv("server.port", "SCORESHOT_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind port env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("telegram.poll_timeout_seconds", 30)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("target.base_url", "https://vehiclescore.co.uk/score")
	v.SetDefault("plate.min_length", 2)
	v.SetDefault("plate.max_length", 8)
	v.SetDefault("capture.user_agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome Safari/537.36")
	v.SetDefault("capture.viewport_width", 1280)
	v.SetDefault("capture.viewport_height", 720)
	v.SetDefault("capture.nav_timeout_seconds", 45)
	v.SetDefault("capture.settle_ms", 2000)
	v.SetDefault("capture.quality", 100)
	v.SetDefault("capture.consent_labels", []string{"Accept all", "Accept", "I Agree", "Got it", "OK"})
	v.SetDefault("capture.score.rounds", 10)
	v.SetDefault("capture.score.interval_ms", 500)
	v.SetDefault("capture.score.stable_reads", 2)
	v.SetDefault("capture.scroll.max_iterations", 12)
	v.SetDefault("capture.scroll.interval_ms", 600)
	v.SetDefault("capture.scroll.stable_reads", 2)
	v.SetDefault("capture.scroll.min_scroll_px", 200)
	v.SetDefault("artifacts.dir", filepath.Join(os.TempDir(), "scoreshot"))
	v.SetDefault("probe.timeout_seconds", 10)
	v.SetDefault("probe.cache_ttl_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. A missing bot
// token fails here, so the process refuses to start rather than poll
// Telegram unauthenticated.
func (c Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (set TG_BOT_TOKEN)")
	}
	if c.Telegram.PollTimeoutSec <= 0 {
		return fmt.Errorf("telegram.poll_timeout_seconds must be > 0")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535")
	}
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil {
		return fmt.Errorf("target.base_url: %w", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("target.base_url must be absolute http(s), got %q", c.Target.BaseURL)
	}
	if c.Plate.MinLength < 1 || c.Plate.MinLength > c.Plate.MaxLength {
		return fmt.Errorf("plate length bounds must satisfy 1 <= min <= max, got %d..%d",
			c.Plate.MinLength, c.Plate.MaxLength)
	}
	if c.Plate.MaxLength > 8 {
		return fmt.Errorf("plate.max_length must be <= 8, got %d", c.Plate.MaxLength)
	}
	if c.Capture.ViewportWidth <= 0 || c.Capture.ViewportHeight <= 0 {
		return fmt.Errorf("capture viewport must be positive")
	}
	if c.Capture.NavTimeoutSec <= 0 {
		return fmt.Errorf("capture.nav_timeout_seconds must be > 0")
	}
	if c.Capture.SettleMs < 0 {
		return fmt.Errorf("capture.settle_ms must be >= 0")
	}
	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		return fmt.Errorf("capture.quality must be in 1..100")
	}
	if c.Capture.Score.Rounds <= 0 || c.Capture.Score.StableReads <= 0 {
		return fmt.Errorf("capture.score rounds and stable_reads must be > 0")
	}
	if c.Capture.Score.IntervalMs <= 0 {
		return fmt.Errorf("capture.score.interval_ms must be > 0")
	}
	if c.Capture.Scroll.MaxIterations <= 0 || c.Capture.Scroll.StableReads <= 0 {
		return fmt.Errorf("capture.scroll max_iterations and stable_reads must be > 0")
	}
	if c.Capture.Scroll.IntervalMs <= 0 {
		return fmt.Errorf("capture.scroll.interval_ms must be > 0")
	}
	if c.Capture.Scroll.MinScrollPx < 0 {
		return fmt.Errorf("capture.scroll.min_scroll_px must be >= 0")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	if c.Probe.TimeoutSec <= 0 {
		return fmt.Errorf("probe.timeout_seconds must be > 0")
	}
	if c.Probe.CacheTTLSec < 0 {
		return fmt.Errorf("probe.cache_ttl_seconds must be >= 0")
	}
	return nil
}

// PollTimeout converts the Telegram long-poll setting into a duration.
func (c TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSec) * time.Second
}

// NavTimeout is the navigation deadline for one capture.
func (c CaptureConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// Settle is the fixed delay applied after navigation and before capture.
func (c CaptureConfig) Settle() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}

// Interval is the pause between score poll rounds.
func (c ScoreConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Interval is the pause between scroll iterations.
func (c ScrollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Timeout bounds one reachability probe.
func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheTTL is how long a probe result may be served from cache.
func (c ProbeConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}
