package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func publishReplaces(t *testing.T, pub *SSEPublisher, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := pub.Publish(TopicGraph, EventReplaced, GraphReplaced{Version: uint64(i), Nodes: i})
		if err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
}

func TestReplayLastReplace(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureTopic(TopicGraph, TopicConfig{BufferSize: 5})

	publishReplaces(t, pub, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 3 || event.Type != EventReplaced || event.Topic != TopicGraph {
			t.Errorf("unexpected replayed event: %+v", event)
		}
		var payload GraphReplaced
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Version != 3 || payload.Nodes != 3 {
			t.Errorf("payload = %+v, want version 3 with 3 nodes", payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for replayed event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReplayAllKeepsMostRecent(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureTopic(TopicGraph, TopicConfig{BufferSize: 3, ReplayAll: true})

	publishReplaces(t, pub, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("version = %d, want %d", event.Version, want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for version %d", want)
		}
	}
}

func TestUnbufferedTopicDeliversLiveOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	publishReplaces(t, pub, 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected replay of version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	if err := pub.Publish(TopicGraph, EventReplaced, GraphReplaced{Version: 3}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("version = %d, want 3", event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for live event")
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}

	// Publishing after the subscriber left must not block or panic.
	if err := pub.Publish(TopicGraph, EventReplaced, GraphReplaced{Version: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewSSEPublisher()
	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("expected subscription channel to be closed")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("closing subscription twice: %v", err)
	}
	if err := pub.Publish(TopicGraph, EventReplaced, nil); err == nil {
		t.Error("expected error publishing on closed publisher")
	}
	if _, err := pub.Subscribe(context.Background(), TopicGraph); err == nil {
		t.Error("expected error subscribing on closed publisher")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicGraph, Type: EventReplaced, Data: json.RawMessage(`{"version":1}`), Version: 1}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "data: ") || !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("unexpected framing: %q", out)
	}
	var decoded Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(out, "data: "))), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Topic != TopicGraph || decoded.Version != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestEventVersionCountsPublishesPerTopic(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// Store versions are sparse when replaces fail; event versions are not.
	for _, storeVersion := range []uint64{7, 9} {
		if err := pub.Publish(TopicGraph, EventReplaced, GraphReplaced{Version: storeVersion}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if err := pub.Publish("other", EventReplaced, GraphReplaced{}); err != nil {
		t.Fatalf("publish other: %v", err)
	}

	for i, want := range []uint64{7, 9} {
		select {
		case event := <-sub.Events():
			if event.Version != i+1 {
				t.Errorf("event version = %d, want %d", event.Version, i+1)
			}
			var payload GraphReplaced
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload.Version != want {
				t.Errorf("store version = %d, want %d", payload.Version, want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	select {
	case event := <-sub.Events():
		t.Errorf("received event from another topic: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}
