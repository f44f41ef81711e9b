//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/rfi/models"
	"caseflow/internal/rfi/store"
	wfmodels "caseflow/internal/workflow/models"
	wfstore "caseflow/internal/workflow/store"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/testutil/containers"
)

type PostgresRFISuite struct {
	suite.Suite
	db        *sql.DB
	rfis      *store.PostgresRFIStore
	requestID domain.RequestID
}

func TestPostgresRFISuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRFISuite))
}

func (s *PostgresRFISuite) SetupSuite() {
	s.db = containers.StartPostgres(s.T())
	s.rfis = store.NewPostgresRFIStore(s.db)
}

func (s *PostgresRFISuite) SetupTest() {
	containers.TruncateAll(s.T(), s.db)

	// Parent row for the FK.
	ctx := context.Background()
	now := time.Now().UTC()
	s.requestID = domain.NewRequestID()
	requests := wfstore.NewPostgresRequestStore(s.db)
	s.Require().NoError(requests.Create(ctx, &wfmodels.Request{
		ID: s.requestID, Type: "building-consent", Council: "northshore",
		ApplicantID: "applicant-1", State: wfmodels.StateProcessing,
		DeadlineDays: 20, SLABand: "green", CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *PostgresRFISuite) newRFI() *models.InformationRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.InformationRequest{
		ID:               domain.NewRFIID(),
		RequestID:        s.requestID,
		Questions:        []string{"Please supply the site plan.", "Confirm the setback distance."},
		Status:           models.StatusIssued,
		IssuedBy:         "officer-1",
		IssuedDate:       now,
		ResponseDeadline: now.AddDate(0, 0, 21),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *PostgresRFISuite) TestRoundTrip() {
	ctx := context.Background()
	rfi := s.newRFI()
	s.Require().NoError(s.rfis.Create(ctx, rfi))

	got, err := s.rfis.Get(ctx, rfi.ID)
	s.Require().NoError(err)
	s.Equal(rfi.Questions, got.Questions)
	s.Equal(models.StatusIssued, got.Status)
	s.Nil(got.ReceivedDate)
}

func (s *PostgresRFISuite) TestOnlyOneOpenPerRequest() {
	ctx := context.Background()
	s.Require().NoError(s.rfis.Create(ctx, s.newRFI()))

	err := s.rfis.Create(ctx, s.newRFI())
	s.ErrorIs(err, sentinel.ErrConflict, "partial unique index rejects a second open RFI")
}

func (s *PostgresRFISuite) TestCloseThenReopen() {
	ctx := context.Background()
	first := s.newRFI()
	s.Require().NoError(s.rfis.Create(ctx, first))

	received := time.Now().UTC().Truncate(time.Microsecond)
	first.Status = models.StatusReceived
	first.ReceivedDate = &received
	first.Response = "Site plan attached."
	s.Require().NoError(s.rfis.Update(ctx, first))

	_, err := s.rfis.FindOpen(ctx, s.requestID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// A new cycle may open once the previous one has been answered.
	second := s.newRFI()
	s.Require().NoError(s.rfis.Create(ctx, second))

	open, err := s.rfis.FindOpen(ctx, s.requestID)
	s.Require().NoError(err)
	s.Equal(second.ID, open.ID)

	all, err := s.rfis.ListByRequest(ctx, s.requestID)
	s.Require().NoError(err)
	s.Len(all, 2)
}
