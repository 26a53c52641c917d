// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// MIMIC_POLLER_INTERVAL=1s.
const EnvPrefix = "MIMIC"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Humanoid() HumanoidConfig
	Locator() LocatorConfig
	Interaction() InteractionConfig
	Poller() PollerConfig

	SetBrowserHeadless(bool)
	SetLocatorTimeout(time.Duration)
	SetLocatorVisibleOnly(bool)
	SetInteractionMaxRetries(int)
	SetPollerDeadline(time.Duration)
	SetPollerInterval(time.Duration)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	HumanoidCfg    HumanoidConfig    `mapstructure:"humanoid" yaml:"humanoid"`
	LocatorCfg     LocatorConfig     `mapstructure:"locator" yaml:"locator"`
	InteractionCfg InteractionConfig `mapstructure:"interaction" yaml:"interaction"`
	PollerCfg      PollerConfig      `mapstructure:"poller" yaml:"poller"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Humanoid() HumanoidConfig       { return c.HumanoidCfg }
func (c *Config) Locator() LocatorConfig         { return c.LocatorCfg }
func (c *Config) Interaction() InteractionConfig { return c.InteractionCfg }
func (c *Config) Poller() PollerConfig           { return c.PollerCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)         { c.BrowserCfg.Headless = b }
func (c *Config) SetLocatorTimeout(d time.Duration) { c.LocatorCfg.Timeout = d }
func (c *Config) SetLocatorVisibleOnly(b bool)      { c.LocatorCfg.VisibleOnly = b }
func (c *Config) SetInteractionMaxRetries(n int)    { c.InteractionCfg.MaxRetries = n }
func (c *Config) SetPollerDeadline(d time.Duration) { c.PollerCfg.Deadline = d }
func (c *Config) SetPollerInterval(d time.Duration) { c.PollerCfg.Interval = d }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ViewportConfig is the window size requested at browser launch.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// BrowserConfig holds settings for the controlled browser instance.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir       string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ActionTimeout bounds every individual CDP round trip.
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// InputRateLimit caps dispatched input events per second; InputBurst is the token bucket size.
	InputRateLimit float64 `mapstructure:"input_rate_limit" yaml:"input_rate_limit"`
	InputBurst     int     `mapstructure:"input_burst" yaml:"input_burst"`
}

// LocatorConfig tunes the cross-document element search.
type LocatorConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RescanInterval    time.Duration `mapstructure:"rescan_interval" yaml:"rescan_interval"`
	FrameReadyTimeout time.Duration `mapstructure:"frame_ready_timeout" yaml:"frame_ready_timeout"`
	VisibleOnly       bool          `mapstructure:"visible_only" yaml:"visible_only"`
}

// InteractionConfig tunes the retrying click executor.
type InteractionConfig struct {
	MaxRetries         int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialSettle      DurationRange `mapstructure:"initial_settle" yaml:"initial_settle"`
	Backoff            DurationRange `mapstructure:"backoff" yaml:"backoff"`
	ReloadSettle       DurationRange `mapstructure:"reload_settle" yaml:"reload_settle"`
	ReloadTimeout      time.Duration `mapstructure:"reload_timeout" yaml:"reload_timeout"`
	PreClickSettle     DurationRange `mapstructure:"pre_click_settle" yaml:"pre_click_settle"`
	PseudostateTimeout time.Duration `mapstructure:"pseudostate_timeout" yaml:"pseudostate_timeout"`
	PseudostatePoll    time.Duration `mapstructure:"pseudostate_poll" yaml:"pseudostate_poll"`
	PostClickSettle    DurationRange `mapstructure:"post_click_settle" yaml:"post_click_settle"`
	PostClickDrift     float64       `mapstructure:"post_click_drift" yaml:"post_click_drift"`
	PostClickSteps     IntRange      `mapstructure:"post_click_steps" yaml:"post_click_steps"`
	WarmupMovements    IntRange      `mapstructure:"warmup_movements" yaml:"warmup_movements"`
	WarmupDuration     DurationRange `mapstructure:"warmup_duration" yaml:"warmup_duration"`
}

// PollerConfig tunes the wait-until-gone primitive.
type PollerConfig struct {
	Deadline     time.Duration `mapstructure:"deadline" yaml:"deadline"`
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

// NewViper returns a viper instance with defaults registered and environment
// overrides (MIMIC_SECTION_KEY) enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "mimic")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 1366)
	v.SetDefault("browser.viewport.height", 768)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.input_rate_limit", 400.0)
	v.SetDefault("browser.input_burst", 16)

	setHumanoidDefaults(v)

	// -- Locator --
	v.SetDefault("locator.timeout", "30s")
	v.SetDefault("locator.rescan_interval", "250ms")
	v.SetDefault("locator.frame_ready_timeout", "1s")
	v.SetDefault("locator.visible_only", false)

	// -- Interaction --
	v.SetDefault("interaction.max_retries", 5)
	v.SetDefault("interaction.initial_settle.min", "1s")
	v.SetDefault("interaction.initial_settle.max", "2s")
	v.SetDefault("interaction.backoff.min", "2s")
	v.SetDefault("interaction.backoff.max", "4s")
	v.SetDefault("interaction.reload_settle.min", "1s")
	v.SetDefault("interaction.reload_settle.max", "2s")
	v.SetDefault("interaction.reload_timeout", "30s")
	v.SetDefault("interaction.pre_click_settle.min", "400ms")
	v.SetDefault("interaction.pre_click_settle.max", "700ms")
	v.SetDefault("interaction.pseudostate_timeout", "2s")
	v.SetDefault("interaction.pseudostate_poll", "100ms")
	v.SetDefault("interaction.post_click_settle.min", "800ms")
	v.SetDefault("interaction.post_click_settle.max", "1500ms")
	v.SetDefault("interaction.post_click_drift", 50.0)
	v.SetDefault("interaction.post_click_steps.min", 10)
	v.SetDefault("interaction.post_click_steps.max", 20)
	v.SetDefault("interaction.warmup_movements.min", 4)
	v.SetDefault("interaction.warmup_movements.max", 7)
	v.SetDefault("interaction.warmup_duration.min", "1500ms")
	v.SetDefault("interaction.warmup_duration.max", "2500ms")

	// -- Poller --
	v.SetDefault("poller.deadline", "300s")
	v.SetDefault("poller.interval", "3s")
	v.SetDefault("poller.probe_timeout", "5s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ExpandPaths resolves a leading ~ in every filesystem path setting.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.BrowserCfg.ExecPath, &c.BrowserCfg.UserDataDir, &c.LoggerCfg.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Viewport.Width <= 0 || c.BrowserCfg.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport must have positive width and height")
	}
	if c.BrowserCfg.InputRateLimit <= 0 {
		return fmt.Errorf("browser.input_rate_limit must be positive")
	}
	if c.BrowserCfg.InputBurst <= 0 {
		return fmt.Errorf("browser.input_burst must be a positive integer")
	}
	if err := c.HumanoidCfg.Validate(); err != nil {
		return fmt.Errorf("humanoid configuration invalid: %w", err)
	}
	if c.LocatorCfg.Timeout <= 0 {
		return fmt.Errorf("locator.timeout must be a positive duration")
	}
	if c.LocatorCfg.RescanInterval <= 0 {
		return fmt.Errorf("locator.rescan_interval must be a positive duration")
	}
	if err := c.InteractionCfg.Validate(); err != nil {
		return fmt.Errorf("interaction configuration invalid: %w", err)
	}
	if err := c.PollerCfg.Validate(); err != nil {
		return fmt.Errorf("poller configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the InteractionConfig settings.
func (i *InteractionConfig) Validate() error {
	if i.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be a positive integer")
	}
	for name, r := range map[string]DurationRange{
		"initial_settle":    i.InitialSettle,
		"backoff":           i.Backoff,
		"reload_settle":     i.ReloadSettle,
		"pre_click_settle":  i.PreClickSettle,
		"post_click_settle": i.PostClickSettle,
		"warmup_duration":   i.WarmupDuration,
	} {
		if err := r.Validate(name); err != nil {
			return err
		}
	}
	if err := i.PostClickSteps.Validate("post_click_steps"); err != nil {
		return err
	}
	if err := i.WarmupMovements.Validate("warmup_movements"); err != nil {
		return err
	}
	if i.PseudostateTimeout < 0 {
		return fmt.Errorf("pseudostate_timeout must not be negative")
	}
	return nil
}

// Validate checks the PollerConfig settings.
func (p *PollerConfig) Validate() error {
	if p.Deadline <= 0 {
		return fmt.Errorf("deadline must be a positive duration")
	}
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if p.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be a positive duration")
	}
	return nil
}
