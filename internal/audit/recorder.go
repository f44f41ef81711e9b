package audit

import (
	"context"

	wfmodels "caseflow/internal/workflow/models"
	"caseflow/pkg/requestcontext"
)

// Recorder adapts applied transitions into audit events and fans them out to
// every configured sink. It satisfies the workflow service's publisher
// contract.
type Recorder struct {
	sinks []Sink
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks}
}

// TransitionApplied builds the event from the history entry plus the
// request-scoped client metadata and publishes it to all sinks.
func (r *Recorder) TransitionApplied(ctx context.Context, req *wfmodels.Request, entry *wfmodels.StatusHistoryEntry) {
	event := Event{
		RequestID:     entry.RequestID,
		FromState:     string(entry.FromState),
		ToState:       string(entry.ToState),
		ActorID:       entry.ActorID,
		Comment:       entry.Comment,
		CorrelationID: requestcontext.RequestID(ctx),
		ClientIP:      requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
		SLABand:       string(req.SLABand),
		OccurredAt:    entry.CreatedAt,
	}
	for _, sink := range r.sinks {
		sink.Publish(ctx, event)
	}
}
