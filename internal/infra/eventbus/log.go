package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"booking-engine/internal/domain/shared"
)

// LogPublisher is the default sink: events are written to the structured log only.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...shared.Event) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "domain event",
			"event", e.EventName(),
			"aggregate_id", e.AggregateID(),
			"occurred_at", e.OccurredAt(),
		)
	}
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// Recorder keeps published events in memory; tests assert on it.
type Recorder struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Publish calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Publish(_ context.Context, events ...shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, events...)
	return nil
}

func (r *Recorder) Events() []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.EventName())
	}
	return names
}

func (r *Recorder) Close() error {
	return nil
}
