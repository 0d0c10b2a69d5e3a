package tuning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

// ParseFile reads a TOML parameter file. Dotted keys and tables both work:
// `moon.x = 1` and `[moon] x = 1` name the same parameter.
func ParseFile(path string) (map[string]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a TOML parameter document.
func Parse(data []byte) (map[string]float32, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}
	out := make(map[string]float32)
	if err := flatten("", doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, doc map[string]any, out map[string]float32) error {
	for k, v := range doc {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			if err := flatten(name, v, out); err != nil {
				return err
			}
		case float64:
			out[name] = float32(v)
		case int64:
			out[name] = float32(v)
		default:
			return fmt.Errorf("parameter %s: want a number, got %T", name, v)
		}
	}
	return nil
}

// Encode renders the panel's current values as TOML, grouped by prefix.
func (p *Panel) Encode() ([]byte, error) {
	doc := make(map[string]any)
	for name, v := range p.Values() {
		parts := strings.Split(name, ".")
		table := doc
		for _, part := range parts[:len(parts)-1] {
			next, ok := table[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				table[part] = next
			}
			table = next
		}
		table[parts[len(parts)-1]] = v
	}
	return toml.Marshal(doc)
}

// Watch queues the contents of path now and on every later write, until ctx
// is done. The parent directory is watched so editors that replace the file
// are followed.
func (p *Panel) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create parameter watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}
	p.reload(path)

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					p.reload(path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("parameter watcher error: " + err.Error())
			}
		}
	}()
	return nil
}

func (p *Panel) reload(path string) {
	values, err := ParseFile(path)
	if err != nil {
		slog.Warn("parameter file not applied", "path", path, "err", err)
		return
	}
	if err := p.Queue(values); err != nil {
		slog.Warn("some parameters rejected", "path", path, "err", err)
	}
	slog.Debug("parameters queued", "path", path, "count", len(values))
}
