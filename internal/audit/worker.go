package audit

import (
	"context"
	"log/slog"
)

// Worker drains an event channel into a store. It backs the ChannelSink so
// persistence happens off the transition path.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes until ctx is cancelled. Persistence failures are logged and
// skipped; the audit trail is best-effort by contract.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "append transition event failed",
					slog.String("request_id", event.RequestID.String()),
					slog.String("error", err.Error()))
			}
		}
	}
}

// ChannelSink feeds events to a Worker. A full buffer drops the event rather
// than blocking the transition.
type ChannelSink struct {
	ch      chan Event
	logger  *slog.Logger
	dropped func()
}

// NewChannelSink builds the sink and the channel a Worker reads from.
func NewChannelSink(buffer int, logger *slog.Logger, onDrop func()) (*ChannelSink, <-chan Event) {
	if logger == nil {
		logger = slog.Default()
	}
	ch := make(chan Event, buffer)
	return &ChannelSink{ch: ch, logger: logger, dropped: onDrop}, ch
}

func (s *ChannelSink) Publish(ctx context.Context, event Event) {
	select {
	case s.ch <- event:
	default:
		s.logger.WarnContext(ctx, "audit buffer full, event dropped",
			slog.String("request_id", event.RequestID.String()))
		if s.dropped != nil {
			s.dropped()
		}
	}
}
