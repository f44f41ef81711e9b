// Package domain holds shared identifier and value types used across modules.
//
// IDs are distinct uuid-backed types so a TaskID can never be passed where a
// RequestID is expected. Construct them via the Parse helpers at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "caseflow/pkg/domain-errors"
)

type (
	// RequestID identifies a service request (consent application, pension
	// application, etc.) moving through the workflow.
	RequestID uuid.UUID

	// AssessmentID identifies the assessment project attached to a request.
	AssessmentID uuid.UUID

	// TaskID identifies a single assessment task.
	TaskID uuid.UUID

	// RFIID identifies an information request issued against a request.
	RFIID uuid.UUID

	// HistoryEntryID identifies an append-only status history entry.
	HistoryEntryID uuid.UUID
)

// NewRequestID returns a freshly generated request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewAssessmentID returns a freshly generated assessment ID.
func NewAssessmentID() AssessmentID { return AssessmentID(uuid.New()) }

// NewTaskID returns a freshly generated task ID.
func NewTaskID() TaskID { return TaskID(uuid.New()) }

// NewRFIID returns a freshly generated information request ID.
func NewRFIID() RFIID { return RFIID(uuid.New()) }

// NewHistoryEntryID returns a freshly generated history entry ID.
func NewHistoryEntryID() HistoryEntryID { return HistoryEntryID(uuid.New()) }

func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id AssessmentID) String() string   { return uuid.UUID(id).String() }
func (id TaskID) String() string         { return uuid.UUID(id).String() }
func (id RFIID) String() string          { return uuid.UUID(id).String() }
func (id HistoryEntryID) String() string { return uuid.UUID(id).String() }

func (id RequestID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AssessmentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id TaskID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RFIID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil uuid")
	}
	return u, nil
}

// ParseRequestID constructs a RequestID from external input.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request")
	return RequestID(u), err
}

// ParseAssessmentID constructs an AssessmentID from external input.
func ParseAssessmentID(s string) (AssessmentID, error) {
	u, err := parseUUID(s, "assessment")
	return AssessmentID(u), err
}

// ParseTaskID constructs a TaskID from external input.
func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s, "task")
	return TaskID(u), err
}

// ParseRFIID constructs an RFIID from external input.
func ParseRFIID(s string) (RFIID, error) {
	u, err := parseUUID(s, "information request")
	return RFIID(u), err
}

// ParseHistoryEntryID constructs a HistoryEntryID from external input.
func ParseHistoryEntryID(s string) (HistoryEntryID, error) {
	u, err := parseUUID(s, "history entry")
	return HistoryEntryID(u), err
}
