package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Manager keeps a JSON config file and an in-memory Config in sync. Watch
// reloads external edits (debounced) and notifies the registered callback,
// so a long-running server can pick up new strategy parameters without a
// restart. Writes made through Update suppress their own watch event.
type Manager struct {
	path     string
	debounce time.Duration
	log      zerolog.Logger

	mu       sync.RWMutex
	cfg      Config
	onChange func(Config)

	suppressSelf atomic.Bool
	watching     atomic.Bool
}

type managerOptions struct {
	path     string
	initial  *Config
	debounce time.Duration
	log      zerolog.Logger
}

type ManagerOption func(*managerOptions)

// WithConfigPath sets the exact config file location.
func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.path = path
		}
	}
}

// WithConfigDir places config.json inside dir.
func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir != "" {
			o.path = filepath.Join(dir, "config.json")
		}
	}
}

// WithInitialConfig seeds the file when it does not exist yet.
func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) { o.initial = cfg }
}

// WithDebounce sets how long Watch waits after a file event before
// reloading, coalescing editor write bursts.
func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithManagerLogger routes watch errors to the given logger.
func WithManagerLogger(logger zerolog.Logger) ManagerOption {
	return func(o *managerOptions) { o.log = logger }
}

// NewManager loads the config file, creating it from the initial config
// (or the defaults) when missing.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{
		debounce: 300 * time.Millisecond,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := loadOrInitConfig(path, o.initial)
	if err != nil {
		return nil, err
	}

	return &Manager{
		path:     path,
		debounce: o.debounce,
		log:      o.log,
		cfg:      cfg,
	}, nil
}

// Get returns a copy of the current config.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Path returns the config file location.
func (m *Manager) Path() string {
	return m.path
}

// OnChange registers the single callback invoked after every applied
// change, whether it came from Update or from a watched file edit.
func (m *Manager) OnChange(cb func(Config)) {
	m.mu.Lock()
	m.onChange = cb
	m.mu.Unlock()
}

// Update validates, persists and applies a new config. A no-op when the
// config is unchanged.
func (m *Manager) Update(next Config) error {
	if err := next.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	unchanged := reflect.DeepEqual(m.cfg, next)
	m.mu.RUnlock()
	if unchanged {
		return nil
	}

	m.suppressSelf.Store(true)
	time.AfterFunc(m.debounce*2, func() { m.suppressSelf.Store(false) })

	if err := writeConfigFile(m.path, next); err != nil {
		m.suppressSelf.Store(false)
		return err
	}

	m.apply(next)
	return nil
}

// Watch follows the config file until ctx is cancelled, reloading it on
// external edits. Invalid or unparseable edits are logged and skipped,
// keeping the last good config.
func (m *Manager) Watch(ctx context.Context) error {
	if !m.watching.CompareAndSwap(false, true) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.watching.Store(false)
		return err
	}
	// Watch the directory, not the file: atomic renames replace the inode.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		m.watching.Store(false)
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	defer m.watching.Store(false)

	var timerMu sync.Mutex
	var timer *time.Timer
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, m.reload)
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(m.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if m.suppressSelf.Load() {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				m.log.Warn().Err(err).Msg("config watcher error")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	var cfg Config
	if err := loadConfigFromFile(m.path, &cfg); err != nil {
		m.log.Warn().Err(err).Str("path", m.path).Msg("config reload failed")
		return
	}
	if err := cfg.Validate(); err != nil {
		m.log.Warn().Err(err).Msg("config reload rejected, keeping previous")
		return
	}

	m.mu.RLock()
	unchanged := reflect.DeepEqual(m.cfg, cfg)
	m.mu.RUnlock()
	if unchanged {
		return
	}
	m.apply(cfg)
}

func (m *Manager) apply(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(cfg)
	}
}

// loadConfigFromFile reads and parses the JSON config at path. A missing
// file surfaces as os.ErrNotExist for callers that want to seed one.
func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadOrInitConfig(path string, initial *Config) (Config, error) {
	var cfg Config
	err := loadConfigFromFile(path, &cfg)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		if initial != nil {
			cfg = *initial
		} else {
			cfg = *DefaultConfigWithRoot(filepath.Dir(path))
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		if err := writeConfigFile(path, cfg); err != nil {
			return Config{}, fmt.Errorf("write initial config: %w", err)
		}
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "sentigo", "config.json"), nil
}

// writeConfigFile writes atomically via temp file + rename so a watcher
// never observes a half-written config.
func writeConfigFile(path string, cfg Config) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&cfg); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
