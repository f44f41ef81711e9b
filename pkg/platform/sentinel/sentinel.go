package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and providers return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness or exclusivity constraint violated
// - ErrVersionMismatch: optimistic-concurrency version check failed
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: provider or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
