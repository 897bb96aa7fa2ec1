package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/map-api/pkg/logging"
)

// ErrClosed is returned when publishing to or subscribing on a closed publisher.
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer is the per-subscription channel capacity. Publishing never
// blocks; a subscriber that falls this far behind loses events.
const subscriberBuffer = 100

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to keep for replay (0 = no buffering)
	ReplayAll  bool // Replay every buffered event; otherwise only the last one
}

// topic is the state of one topic. Guarded by SSEPublisher.mu.
type topic struct {
	config  TopicConfig
	version int
	buffer  []Event
	subs    map[*sseSubscription]struct{}
}

// remember appends event to the replay buffer, keeping the most recent ones.
func (t *topic) remember(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.buffer = append(t.buffer, event)
	if over := len(t.buffer) - t.config.BufferSize; over > 0 {
		t.buffer = append([]Event(nil), t.buffer[over:]...)
	}
}

// replay returns the events a new subscriber should receive.
func (t *topic) replay() []Event {
	if len(t.buffer) == 0 {
		return nil
	}
	if t.config.ReplayAll {
		return append([]Event(nil), t.buffer...)
	}
	return []Event{t.buffer[len(t.buffer)-1]}
}

// SSEPublisher implements Publisher for Server-Sent Events streams.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// topicLocked returns the state for name, creating it on first use.
func (p *SSEPublisher) topicLocked(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicLocked(name).config = config
}

// Subscribe registers a subscription on name. Buffered events are replayed
// before any live event. The subscription is closed when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
		done:      make(chan struct{}),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	t := p.topicLocked(name)
	// Replay while holding the lock so a concurrent Publish cannot
	// interleave a newer event ahead of the replayed ones.
	replayed := t.replay()
	for _, event := range replayed {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	t.subs[sub] = struct{}{}
	p.mu.Unlock()

	if len(replayed) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replayed))
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Publish marshals data and sends it to every subscriber of name without
// blocking. Versions increase by one per published event on a topic.
func (p *SSEPublisher) Publish(name string, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	t := p.topicLocked(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    payload,
		Version: t.version,
	}
	t.remember(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", name, "version", event.Version)
		}
	}
	return nil
}

// Close shuts down the publisher and ends every subscription.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			sub.finish()
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

// unsubscribe removes sub and closes its channel.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
	sub.finish()
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
	done      chan struct{}
}

// Topic returns the subscription topic
func (s *sseSubscription) Topic() string {
	return s.topic
}

// Events returns a channel for receiving events. It is closed when the
// subscription ends.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. It is safe to call more than once.
func (s *sseSubscription) Close() error {
	s.publisher.unsubscribe(s)
	return nil
}

// finish closes the events channel once. Callers hold the publisher lock,
// so no Publish can be sending on it.
func (s *sseSubscription) finish() {
	s.once.Do(func() {
		close(s.events)
		close(s.done)
	})
}

// WriteSSE writes an event as one SSE message: "data: {json}\n\n".
func WriteSSE(w io.Writer, event Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", frame)
	return err
}
