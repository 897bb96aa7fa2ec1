// Package pubsub fans graph replace notifications out to streaming
// clients. The server publishes one GraphReplaced payload on TopicGraph
// after every successful replace; /api/map/subscribe relays them as SSE.
package pubsub

import (
	"context"
	"encoding/json"
)

// TopicGraph carries one event per successful graph replace.
const TopicGraph = "graph"

// EventReplaced is the event type published on TopicGraph.
const EventReplaced = "replaced"

// Event is one message on a topic as it goes over the wire. Data holds
// the JSON-encoded payload, a GraphReplaced for TopicGraph. Version counts
// publishes per topic starting at 1, independent of the store version.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"`
}

// Subscription is a single listener on a topic.
type Subscription interface {
	Topic() string

	// Events yields replayed events first, then live ones. The channel is
	// closed when the subscription ends.
	Events() <-chan Event

	// Close ends the subscription. Safe to call more than once.
	Close() error
}

// Publisher delivers topic events to subscribers without blocking the
// publishing side. A replace must never wait on a slow stream client.
type Publisher interface {
	// Subscribe starts listening on topic until ctx is done or the
	// subscription is closed.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish marshals data to JSON and hands it to every subscriber.
	Publish(topic string, eventType string, data interface{}) error

	// Close ends every subscription; later calls return ErrClosed.
	Close() error
}

// GraphReplaced is the payload of an EventReplaced event.
type GraphReplaced struct {
	Version    uint64 `json:"version"` // store version after the replace
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"` // undirected, each counted once
	Components int    `json:"components"`
}
