package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/ritzau/map-api/pkg/auth"
	"github.com/ritzau/map-api/pkg/config"
	"github.com/ritzau/map-api/pkg/graph"
	"github.com/ritzau/map-api/pkg/logging"
	"github.com/ritzau/map-api/pkg/metrics"
	"github.com/ritzau/map-api/pkg/model"
	"github.com/ritzau/map-api/pkg/output"
	"github.com/ritzau/map-api/pkg/pubsub"
	"github.com/ritzau/map-api/pkg/query"
	"github.com/ritzau/map-api/pkg/store"
	"github.com/ritzau/map-api/pkg/watcher"
	"github.com/ritzau/map-api/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("map-api", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(os.Stderr, level, cfg.LogFormat)

	if !cfg.WebMode {
		os.Exit(runOnce(cfg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		logging.Fatal("server failed", "error", err)
	}
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	st := store.New()

	publisher := pubsub.NewSSEPublisher()
	defer publisher.Close()

	// graph: buffer last 5 events, replay only the current graph to new subscribers
	publisher.ConfigureTopic(pubsub.TopicGraph, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	st.OnReplace(func(g *model.Graph, version uint64) {
		summary := graph.Summarize(g)
		metrics.GraphNodes.Set(float64(summary.Nodes))
		metrics.GraphEdges.Set(float64(summary.Edges))
		metrics.GraphComponents.Set(float64(summary.Components))

		logging.Info("graph replaced",
			"version", version,
			"nodes", summary.Nodes,
			"edges", summary.Edges,
			"components", summary.Components,
		)

		err := publisher.Publish(pubsub.TopicGraph, pubsub.EventReplaced, pubsub.GraphReplaced{
			Version:    version,
			Nodes:      summary.Nodes,
			Edges:      summary.Edges,
			Components: summary.Components,
		})
		if err != nil {
			logging.Warn("failed to publish graph event", "error", err)
		}
	})

	if cfg.GraphFile != "" {
		if err := watcher.LoadGraphFile(cfg.GraphFile, st); err != nil {
			return fmt.Errorf("loading seed graph: %w", err)
		}
		if cfg.Watch {
			if err := watcher.Watch(ctx, cfg.GraphFile, st, cfg.DebounceQuiet, cfg.DebounceMax); err != nil {
				return fmt.Errorf("watching seed graph: %w", err)
			}
		}
	}

	server := web.NewServer(st, auth.NewAPIKeyAuth(cfg.APIKey), publisher, web.Options{
		MaxBodyBytes: cfg.MaxBodyBytes,
		Metrics:      cfg.Metrics,
	})
	return server.Start(ctx, cfg.Addr)
}

// runOnce answers a single route query from the graph file and prints a
// report. It returns the process exit code.
func runOnce(cfg *config.Config) int {
	st := store.New()
	if err := watcher.LoadGraphFile(cfg.GraphFile, st); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	route, err := query.NewService(st).ShortestRoute(cfg.From, cfg.To)
	output.PrintRouteReport(os.Stdout, output.RouteReport{
		GraphFile: cfg.GraphFile,
		Summary:   graph.Summarize(st.Current()),
		From:      cfg.From,
		To:        cfg.To,
		Route:     route,
		Err:       err,
	})
	if err != nil {
		return 1
	}
	return 0
}
