// Package config loads gofetch's runtime configuration: built-in defaults,
// GOFETCH_* environment variables, and (lowest to highest precedence)
// programmatic overrides passed to Load. This is a trimmed, download-focused
// sibling of a typical service config loader: there is no HTTP server,
// metrics, or health-check section here, because those concerns don't exist
// in a download engine.
package config

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
)

// Config holds gofetch's resolved runtime configuration. CLI flags bound via
// cobra take precedence over all of this at the command layer; Config only
// supplies the defaults a flag falls back to when unset.
type Config struct {
	DownloadDir string        `mapstructure:"download_dir"`
	Delimiter   string        `mapstructure:"delimiter"`
	Region      string        `mapstructure:"region"`
	Endpoint    string        `mapstructure:"endpoint"`
	Profile     string        `mapstructure:"profile"`
	Threads     int           `mapstructure:"threads"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	LogLevel    string        `mapstructure:"log_level"`
	Quiet       bool          `mapstructure:"quiet"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

var (
	configMu  sync.Mutex
	appConfig *Config
)

// envSpec describes one environment variable binding, used by getEnvSpecs
// for introspection (diagnostics, documentation generation).
type envSpec struct {
	Name string
	Path string
}

const envPrefix = "GOFETCH"

// Load resolves Config from defaults, GOFETCH_* environment variables, and
// optional runtime overrides (highest precedence), and stores the result as
// the process-wide config retrievable via GetConfig.
func Load(_ context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	setDefaults(v)
	for _, spec := range envSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", spec.Name, err)
		}
	}

	for _, override := range overrides {
		for key, val := range override {
			v.Set(key, val)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	configMu.Lock()
	appConfig = cfg
	configMu.Unlock()

	return cfg, nil
}

// GetConfig returns the most recently Load-ed Config, or nil if Load has
// never been called.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("download_dir", ".")
	v.SetDefault("delimiter", "/")
	v.SetDefault("region", "us-east-1")
	v.SetDefault("threads", detectThreads())
	v.SetDefault("rate_limit", float64(0))
	v.SetDefault("log_level", "info")
	v.SetDefault("quiet", false)
	v.SetDefault("debug", false)
	v.SetDefault("timeout", 0)
}

func envSpecs() []envSpec {
	return []envSpec{
		{Name: envPrefix + "_DOWNLOAD_DIR", Path: "download_dir"},
		{Name: envPrefix + "_DELIMITER", Path: "delimiter"},
		{Name: envPrefix + "_REGION", Path: "region"},
		{Name: envPrefix + "_ENDPOINT", Path: "endpoint"},
		{Name: envPrefix + "_PROFILE", Path: "profile"},
		{Name: envPrefix + "_THREADS", Path: "threads"},
		{Name: envPrefix + "_RATE_LIMIT", Path: "rate_limit"},
		{Name: envPrefix + "_LOG_LEVEL", Path: "log_level"},
		{Name: envPrefix + "_QUIET", Path: "quiet"},
		{Name: envPrefix + "_DEBUG", Path: "debug"},
		{Name: envPrefix + "_TIMEOUT", Path: "timeout"},
	}
}

// detectThreads picks a worker-count default: the CPU-affinity-aware quota
// applied by automaxprocs when running under a cgroup limit, falling back
// to the logical core count, and finally to 1.
func detectThreads() int {
	undo, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	if err == nil {
		defer undo()
	}

	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
