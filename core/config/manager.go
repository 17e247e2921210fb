package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/adalundhe/shopkeep/core/storage"
)

const settingsFile = "settings.yaml"

// Manager holds the live configuration behind an atomic pointer so readers
// never block on a reload. Load layers defaults, the user settings file and
// environment overrides; Watch reloads when the settings file changes on disk.
type Manager struct {
	config    atomic.Pointer[Config]
	dirs      *storage.Dirs
	watchers  []func(*Config)
	watcherMu sync.RWMutex
	stopWatch chan struct{}
	watchOnce sync.Once
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Sheets  SheetsConfig  `yaml:"sheets"`
	Orders  OrdersConfig  `yaml:"orders"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type LLMConfig struct {
	DefaultProvider string        `yaml:"default_provider"`
	DefaultModel    string        `yaml:"default_model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	MaxTokens       int           `yaml:"max_tokens"`
}

type SheetsConfig struct {
	// BaseURL overrides the spreadsheet API endpoint, for tests and
	// self-hosted proxies. Empty means the public endpoint.
	BaseURL string `yaml:"base_url"`
}

type OrdersConfig struct {
	DedupeWindow  string `yaml:"dedupe_window"`
	DefaultStatus string `yaml:"default_status"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DedupeWindowDuration parses the configured window, falling back to 30s.
func (o OrdersConfig) DedupeWindowDuration() time.Duration {
	if d, err := time.ParseDuration(o.DedupeWindow); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// RequestTimeoutDuration parses the configured request timeout, falling
// back to 60s.
func (s ServerConfig) RequestTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(s.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// ShutdownTimeoutDuration parses the configured shutdown grace period,
// falling back to 10s.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(s.ShutdownTimeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

func NewManager(dirs *storage.Dirs) *Manager {
	m := &Manager{
		dirs:      dirs,
		stopWatch: make(chan struct{}),
	}
	m.config.Store(DefaultConfig())
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			RequestTimeout:  "60s",
			ShutdownTimeout: "10s",
		},
		LLM: LLMConfig{
			DefaultProvider: "anthropic",
			DefaultModel:    "claude-sonnet-4-20250514",
			Timeout:         2 * time.Minute,
			MaxRetries:      3,
			MaxTokens:       4096,
		},
		Orders: OrdersConfig{
			DedupeWindow:  "30s",
			DefaultStatus: "Pending",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (m *Manager) Get() *Config {
	return m.config.Load()
}

func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadSettingsFile(cfg); err != nil {
		return fmt.Errorf("settings file: %w", err)
	}

	m.applyEnvironment(cfg)

	m.config.Store(cfg)
	m.notifyWatchers(cfg)

	return nil
}

func (m *Manager) settingsPath() string {
	return m.dirs.ConfigDir(settingsFile)
}

func (m *Manager) loadSettingsFile(cfg *Config) error {
	data, err := os.ReadFile(m.settingsPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}

	DeepMerge(cfg, &fileCfg)
	return nil
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("SHOPKEEP_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SHOPKEEP_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("SHOPKEEP_LLM_DEFAULT_MODEL"); v != "" {
		cfg.LLM.DefaultModel = v
	}
	if v := os.Getenv("SHOPKEEP_LLM_MAX_RETRIES"); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.LLM.MaxRetries = n
		}
	}
	if v := os.Getenv("SHOPKEEP_SHEETS_BASE_URL"); v != "" {
		cfg.Sheets.BaseURL = v
	}
	if v := os.Getenv("SHOPKEEP_ORDERS_DEDUPE_WINDOW"); v != "" {
		cfg.Orders.DedupeWindow = v
	}
	if v := os.Getenv("SHOPKEEP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SHOPKEEP_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
}

func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

// Watch reloads the configuration whenever the settings file is rewritten.
// It returns once the watcher is installed; reloads happen in a background
// goroutine until ctx is cancelled or Close is called.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.dirs.Config); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopWatch:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != settingsFile {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					_ = m.Load()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

func (m *Manager) Close() error {
	m.watchOnce.Do(func() {
		close(m.stopWatch)
	})
	return nil
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
