// Package config loads and watches the watcher's JSON configuration file.
//
// The file is shared with an external settings collaborator that may rewrite
// it wholesale at any time; a replacement takes effect on the next scan
// cycle, never mid-cycle. Consumers therefore read config through a Manager
// snapshot rather than holding a Config across cycles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	// DefaultFile is the config file name next to the binary.
	DefaultFile = "config.json"

	// Interval bounds. Values outside the range are clamped, not rejected,
	// so a hand-edited file cannot stall or hammer the source site.
	MinIntervalMinutes = 5
	MaxIntervalMinutes = 120

	defaultIntervalMinutes = 30
	defaultKeyword         = "Chiếu sáng"
	defaultSearchFrom      = "05/08/2025"
	defaultListenAddr      = ":8081"
)

// Config holds all runtime configuration for the bid watcher.
type Config struct {
	TelegramToken   string `mapstructure:"telegram_token" json:"telegram_token"`
	ChatID          int64  `mapstructure:"chat_id" json:"chat_id"`
	IntervalMinutes int    `mapstructure:"interval_minutes" json:"interval_minutes"`
	AutoStart       bool   `mapstructure:"auto_start" json:"auto_start"`
	Keyword         string `mapstructure:"keyword" json:"keyword"`
	SearchFrom      string `mapstructure:"search_from" json:"search_from"` // window start, dd/mm/yyyy
	DataDir         string `mapstructure:"data_dir" json:"data_dir"`
	DatabaseURL     string `mapstructure:"database_url" json:"database_url"` // optional Postgres archive
	RedisURL        string `mapstructure:"redis_url" json:"redis_url"`       // optional Redis notified-set
	ListenAddr      string `mapstructure:"listen_addr" json:"listen_addr"`
}

// ArchivePath is the record archive file used when no database_url is set.
func (c Config) ArchivePath() string {
	return filepath.Join(c.DataDir, "biddings.json")
}

// NotifiedPath is the notified-code set file used when no redis_url is set.
func (c Config) NotifiedPath() string {
	return filepath.Join(c.DataDir, "notified_biddings.json")
}

// Manager owns the viper instance and hands out immutable snapshots.
type Manager struct {
	mu  sync.RWMutex
	v   *viper.Viper
	cfg Config
}

// Load reads path (JSON) and returns a Manager. A missing file is not an
// error: defaults apply and the settings collaborator may create the file
// later. A malformed file is an error.
func Load(path string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist) {
			log.Printf("[config] %s not found — using defaults", path)
		} else {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	m := &Manager{v: v}
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

// Snapshot returns the current configuration by value.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Watch re-reads the file whenever the settings collaborator rewrites it and
// invokes onChange with the new snapshot. Errors keep the previous snapshot.
func (m *Manager) Watch(onChange func(Config)) {
	m.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshal(m.v)
		if err != nil {
			log.Printf("[config] Ignoring config change: %v", err)
			return
		}
		m.mu.Lock()
		m.cfg = cfg
		m.mu.Unlock()
		log.Printf("[config] Reloaded — interval=%dm auto_start=%v", cfg.IntervalMinutes, cfg.AutoStart)
		if onChange != nil {
			onChange(cfg)
		}
	})
	m.v.WatchConfig()
}

// WriteDefault writes a config file populated with defaults, for first-run
// setup. Fails if the file already exists.
func WriteDefault(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_token", "")
	v.SetDefault("chat_id", 0)
	v.SetDefault("interval_minutes", defaultIntervalMinutes)
	v.SetDefault("auto_start", true)
	v.SetDefault("keyword", defaultKeyword)
	v.SetDefault("search_from", defaultSearchFrom)
	v.SetDefault("data_dir", ".")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("listen_addr", defaultListenAddr)
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Clamp()
	return cfg, nil
}

// Clamp normalises out-of-range or empty values in place.
func (c *Config) Clamp() {
	if c.IntervalMinutes < MinIntervalMinutes {
		c.IntervalMinutes = MinIntervalMinutes
	}
	if c.IntervalMinutes > MaxIntervalMinutes {
		c.IntervalMinutes = MaxIntervalMinutes
	}
	if c.Keyword == "" {
		c.Keyword = defaultKeyword
	}
	if c.SearchFrom == "" {
		c.SearchFrom = defaultSearchFrom
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
}
