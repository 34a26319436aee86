package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ErrExists is returned by WriteDefault when the file is already present.
var ErrExists = errors.New("config: file already exists")

// reloadDebounce collapses the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Loader handles configuration loading, watching, and hot-reloading.
type Loader struct {
	path     string
	config   *Config
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	ctx      context.Context
	cancel   context.CancelFunc
	errChan  chan error
}

// NewLoader creates a loader for path. An empty path means FindConfigFile.
func NewLoader(path string) *Loader {
	if path == "" {
		path = FindConfigFile()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		path:    path,
		errChan: make(chan error, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load reads, validates and stores the configuration. A missing file
// yields the defaults.
func (l *Loader) Load() (*Config, error) {
	cfg, err := readConfig(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Config returns the current configuration, or the defaults before the
// first successful Load.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.config == nil {
		cfg := DefaultConfig()
		cfg.ApplyEnvOverrides()
		return cfg
	}
	return l.config
}

// Watch starts watching the configuration file for changes. On change the
// file is reloaded and the OnChange callbacks run; a file that fails to
// load or validate is reported on Errors and the previous config is kept.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	l.watcher = watcher

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case <-l.ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, l.reload)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.reportError(err)
		}
	}
}

func (l *Loader) reload() {
	if l.ctx.Err() != nil {
		return
	}
	cfg, err := readConfig(l.path)
	if err != nil {
		l.reportError(fmt.Errorf("reload config: %w", err))
		return
	}

	l.mu.Lock()
	l.config = cfg
	callbacks := append([]func(*Config){}, l.onChange...)
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (l *Loader) reportError(err error) {
	select {
	case l.errChan <- err:
	default:
	}
}

// OnChange registers a callback invoked after every successful reload.
func (l *Loader) OnChange(cb func(*Config)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, cb)
	l.mu.Unlock()
}

// Errors returns a channel for receiving errors that occur during watching.
func (l *Loader) Errors() <-chan error {
	return l.errChan
}

// Close stops the watcher and releases resources.
func (l *Loader) Close() error {
	l.cancel()
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

// Load reads the configuration at path (FindConfigFile when empty).
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

func readConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// decode validates the raw document against the schema, then decodes it
// over the defaults in cfg.
func decode(path string, data []byte, cfg *Config) error {
	var doc any
	switch format(path) {
	case "json":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
		if err := validateDocument(doc); err != nil {
			return err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
		if err := validateDocument(doc); err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		m := map[string]any{}
		if _, err := toml.Decode(string(data), &m); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
		if err := validateDocument(m); err != nil {
			return err
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	}
	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// Encode writes cfg in the format implied by path's extension.
func Encode(cfg *Config, path string) ([]byte, error) {
	switch format(path) {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode JSON: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("encode YAML: %w", err)
		}
		return data, nil
	default:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode TOML: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	return Save(DefaultConfig(), path)
}
