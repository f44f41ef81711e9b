package testutil

import (
	"context"
	"testing"
	"time"

	"caseflow/pkg/domain"
	"caseflow/pkg/requestcontext"
)

// Ctx returns a context populated with an actor and a fixed request time,
// the two values nearly every service operation reads.
func Ctx(t *testing.T, actorID string, roles ...domain.Role) context.Context {
	t.Helper()
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleStaff}
	}
	ctx := requestcontext.WithActor(context.Background(), domain.Actor{ID: actorID, Roles: roles})
	return requestcontext.WithTime(ctx, FixedNow)
}

// CtxAt is Ctx with an explicit clock, for tests that walk the calendar.
func CtxAt(t *testing.T, actorID string, at time.Time, roles ...domain.Role) context.Context {
	t.Helper()
	return requestcontext.WithTime(Ctx(t, actorID, roles...), at)
}

// FixedNow is a Monday, so working-day arithmetic in tests starts from a
// predictable anchor.
var FixedNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
