package watcher

import (
	"context"
	"time"

	"github.com/ritzau/map-api/pkg/logging"
)

// Debouncer batches rapid file system events so that a burst of writes
// leads to a single reload.
//
// A batch is flushed after quietPeriod without new events, or after maxWait
// since the first event of the batch, whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		pending  *ChangeEvent
		count    int
		quiet    = stoppedTimer()
		deadline = stoppedTimer()
	)

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "path", pending.Path, "count", count)
		pending.Timestamp = time.Now()
		select {
		case d.output <- *pending:
		case <-ctx.Done():
		}
		pending = nil
		count = 0
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			if pending == nil {
				pending = &ChangeEvent{Path: event.Path}
				deadline.Reset(d.maxWait)
			}
			pending.Ops = append(pending.Ops, event.Ops...)
			count++

			if !quiet.Stop() {
				drain(quiet)
			}
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

func drain(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
