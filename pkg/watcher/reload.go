package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ritzau/map-api/pkg/logging"
	"github.com/ritzau/map-api/pkg/metrics"
	"github.com/ritzau/map-api/pkg/model"
)

// Replacer stores a new graph. *store.Store satisfies it.
type Replacer interface {
	Replace(g *model.Graph) error
}

// ReadGraphFile decodes a graph file. The format is the SetMap request body.
func ReadGraphFile(path string) (*model.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var g model.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse graph file %s: %w", path, err)
	}
	return &g, nil
}

// LoadGraphFile reads path and replaces the stored graph with its content.
func LoadGraphFile(path string, dst Replacer) error {
	g, err := ReadGraphFile(path)
	if err != nil {
		metrics.GraphReplacesTotal.WithLabelValues("file", "invalid").Inc()
		return err
	}
	if err := dst.Replace(g); err != nil {
		metrics.GraphReplacesTotal.WithLabelValues("file", "invalid").Inc()
		return fmt.Errorf("graph file %s: %w", path, err)
	}
	metrics.GraphReplacesTotal.WithLabelValues("file", "ok").Inc()
	return nil
}

// Reload consumes debounced change events and reloads the graph file for
// each of them until events is closed or ctx is done. A failed reload is
// logged and the stored graph stays as it was.
func Reload(ctx context.Context, events <-chan ChangeEvent, dst Replacer) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := LoadGraphFile(event.Path, dst); err != nil {
				logging.Error("graph reload failed, keeping current graph", "path", event.Path, "error", err)
				continue
			}
			logging.Info("graph reloaded", "path", event.Path, "changes", len(event.Ops))
		}
	}
}

// Watch wires a FileWatcher, a Debouncer and Reload together for path.
// It returns once the watch is established; reloading continues in the
// background until ctx is done.
func Watch(ctx context.Context, path string, dst Replacer, quietPeriod, maxWait time.Duration) error {
	fw, err := NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	d := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	d.Start(ctx)

	go Reload(ctx, d.Output(), dst)
	return nil
}
