// Package config loads schemaviz settings from defaults, an optional
// schemaviz.yaml and SCHEMAVIZ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"schemaviz/erd"
	"schemaviz/layout"
)

// EnvPrefix is prepended to every environment override, with dots in the
// key replaced by underscores: SCHEMAVIZ_LAYOUT_CHARGE.
const EnvPrefix = "SCHEMAVIZ"

// Config represents the application configuration
type Config struct {
	View    ViewConfig
	Layout  LayoutConfig
	Diagram DiagramConfig
	Server  ServerConfig
	Log     LogConfig
}

// ViewConfig selects what is shown first.
type ViewConfig struct {
	Mode string
	Cols int
	Rows int
}

// LayoutConfig represents force layout configuration
type LayoutConfig struct {
	Width           float64
	Height          float64
	Charge          float64
	LinkDistance    float64
	CollisionRadius float64
	MaxTicks        int
	Seed            int64
	Interval        time.Duration // Time between live ticks
	FPS             float64       // Maximum frames pushed to viewers per second
}

// DiagramConfig represents diagram engine configuration
type DiagramConfig struct {
	Engine      string // "source" or "mmdc"
	MMDCPath    string
	Theme       string
	Format      string
	Background  string
	Timeout     time.Duration
	MaxFailures uint32
	Cooldown    time.Duration
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr string
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level       string
	Development bool
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	lc := layout.DefaultConfig()
	v.SetDefault("view.mode", "layout")
	v.SetDefault("view.cols", 80)
	v.SetDefault("view.rows", 30)

	v.SetDefault("layout.width", lc.Width)
	v.SetDefault("layout.height", lc.Height)
	v.SetDefault("layout.charge", lc.Charge)
	v.SetDefault("layout.link_distance", lc.LinkDistance)
	v.SetDefault("layout.collision_radius", lc.CollisionRadius)
	v.SetDefault("layout.max_ticks", lc.MaxTicks)
	v.SetDefault("layout.seed", 0)
	v.SetDefault("layout.interval", "16ms")
	v.SetDefault("layout.fps", 30)

	dc := erd.DefaultConfig()
	v.SetDefault("diagram.engine", "source")
	v.SetDefault("diagram.mmdc_path", erd.DefaultCLIPath)
	v.SetDefault("diagram.theme", dc.Theme)
	v.SetDefault("diagram.format", string(dc.Format))
	v.SetDefault("diagram.background", dc.Background)
	v.SetDefault("diagram.timeout", "30s")
	v.SetDefault("diagram.max_failures", 3)
	v.SetDefault("diagram.cooldown", "30s")

	v.SetDefault("server.addr", "127.0.0.1:8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// New returns a viper instance with defaults and environment overrides
// bound. When path is set the file must exist; otherwise schemaviz.yaml is
// looked up in the working directory and the user config directory, and
// its absence is not an error.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("schemaviz")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/schemaviz")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration. See New for where it is looked up.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper builds a Config from an initialised viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		View: ViewConfig{
			Mode: v.GetString("view.mode"),
			Cols: v.GetInt("view.cols"),
			Rows: v.GetInt("view.rows"),
		},
		Layout: LayoutConfig{
			Width:           v.GetFloat64("layout.width"),
			Height:          v.GetFloat64("layout.height"),
			Charge:          v.GetFloat64("layout.charge"),
			LinkDistance:    v.GetFloat64("layout.link_distance"),
			CollisionRadius: v.GetFloat64("layout.collision_radius"),
			MaxTicks:        v.GetInt("layout.max_ticks"),
			Seed:            v.GetInt64("layout.seed"),
			Interval:        v.GetDuration("layout.interval"),
			FPS:             v.GetFloat64("layout.fps"),
		},
		Diagram: DiagramConfig{
			Engine:      strings.ToLower(v.GetString("diagram.engine")),
			MMDCPath:    v.GetString("diagram.mmdc_path"),
			Theme:       v.GetString("diagram.theme"),
			Format:      v.GetString("diagram.format"),
			Background:  v.GetString("diagram.background"),
			Timeout:     v.GetDuration("diagram.timeout"),
			MaxFailures: v.GetUint32("diagram.max_failures"),
			Cooldown:    v.GetDuration("diagram.cooldown"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		return fmt.Errorf("layout size must be positive, got %gx%g", c.Layout.Width, c.Layout.Height)
	}
	if c.Layout.CollisionRadius <= 0 {
		return fmt.Errorf("layout.collision_radius must be positive, got %g", c.Layout.CollisionRadius)
	}
	if c.View.Cols <= 0 || c.View.Rows <= 0 {
		return fmt.Errorf("view size must be positive, got %dx%d", c.View.Cols, c.View.Rows)
	}
	switch c.Diagram.Engine {
	case "source", "mmdc":
	default:
		return fmt.Errorf("unknown diagram engine %q", c.Diagram.Engine)
	}
	if _, err := erd.ParseOutputFormat(c.Diagram.Format); err != nil {
		return err
	}
	return nil
}

// LayoutSettings returns the simulation parameters with the configured
// overrides applied.
func (c *Config) LayoutSettings() layout.Config {
	lc := layout.DefaultConfig()
	lc.Width = c.Layout.Width
	lc.Height = c.Layout.Height
	lc.Charge = c.Layout.Charge
	lc.LinkDistance = c.Layout.LinkDistance
	lc.CollisionRadius = c.Layout.CollisionRadius
	if c.Layout.MaxTicks > 0 {
		lc.MaxTicks = c.Layout.MaxTicks
	}
	lc.Seed = c.Layout.Seed
	return lc
}

// DiagramSettings returns the engine configuration document.
func (c *Config) DiagramSettings() erd.Config {
	dc := erd.DefaultConfig()
	dc.Theme = c.Diagram.Theme
	dc.Background = c.Diagram.Background
	if f, err := erd.ParseOutputFormat(c.Diagram.Format); err == nil {
		dc.Format = f
	}
	return dc
}

// CLIEngineSettings returns the options for the external diagram engine.
func (c *Config) CLIEngineSettings() erd.CLIEngineConfig {
	return erd.CLIEngineConfig{
		Path:        c.Diagram.MMDCPath,
		Timeout:     c.Diagram.Timeout,
		MaxFailures: c.Diagram.MaxFailures,
		Cooldown:    c.Diagram.Cooldown,
	}
}
