package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Path to the YAML configuration file.
	Path string

	// Watch reloads the configuration when the file changes.
	Watch bool

	// OnChange is invoked with each successfully reloaded configuration.
	OnChange func(*Config) error
}

// Loader reads, defaults, and optionally watches a configuration file.
type Loader struct {
	options  LoaderOptions
	stopChan chan struct{}
}

// NewLoader creates a Loader.
func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	return &Loader{
		options:  opts,
		stopChan: make(chan struct{}),
	}, nil
}

// Load parses the file, expands environment references, applies defaults
// and validates. With Watch set, a background watcher keeps reloading.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.loadOnce()
	if err != nil {
		return nil, err
	}

	if l.options.Watch {
		go l.watch()
	}

	return cfg, nil
}

// Stop terminates the background watcher.
func (l *Loader) Stop() {
	close(l.stopChan)
}

func (l *Loader) loadOnce() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(l.options.Path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", l.options.Path, err)
	}

	expanded := make(map[string]interface{}, len(k.All()))
	for key, value := range k.All() {
		if s, ok := value.(string); ok {
			expanded[key] = expandEnvVars(s)
		} else {
			expanded[key] = value
		}
	}

	k = koanf.New(".")
	if err := k.Load(confmap.Provider(expanded, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to apply expanded config: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// watch reloads the file on filesystem events. Editors often replace the
// file instead of writing in place, so the parent directory is watched
// and events are filtered by name.
func (l *Loader) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("Config watcher unavailable", "error", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(l.options.Path)
	if err := watcher.Add(dir); err != nil {
		slog.Warn("Config watcher failed to add directory", "dir", dir, "error", err)
		return
	}

	target := filepath.Clean(l.options.Path)
	slog.Info("Config watcher started", "path", target)

	var debounce *time.Timer
	for {
		select {
		case <-l.stopChan:
			slog.Info("Config watcher stopped", "path", target)
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, l.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)
		}
	}
}

func (l *Loader) reload() {
	cfg, err := l.loadOnce()
	if err != nil {
		slog.Warn("Config reload failed", "error", err)
		return
	}
	if l.options.OnChange == nil {
		slog.Warn("Config changed but no OnChange callback is set")
		return
	}
	if err := l.options.OnChange(cfg); err != nil {
		slog.Warn("Config change callback failed", "error", err)
		return
	}
	slog.Info("Configuration reloaded", "path", l.options.Path)
}
