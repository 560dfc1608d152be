package fraud

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// ResultStore persists aggregate fraud results, one row per user.
type ResultStore interface {
	// UpsertResult inserts the aggregate result for the user or updates
	// the existing row in place; at most one result exists per user.
	UpsertResult(ctx context.Context, userID int64, status Status, reason string) error
}

// Activator flips a beneficiary account active once its review passes.
type Activator interface {
	Activate(ctx context.Context, userID int64) error
}

// Service runs the full review of one beneficiary: eligibility
// pre-checks, the independent fraud checks, aggregation, persistence and
// activation.
type Service struct {
	Users     UserStore
	Results   ResultStore
	Activator Activator
}

// precheck decides whether the pipeline applies to this user at all.
// It returns explicit outcome values rather than signalling through
// errors: a rejection here is an expected state, not a failure.
func (s *Service) precheck(u model.User) Outcome {
	if u.Role != "BENEFICIARY" {
		return Reject("user is not a beneficiary")
	}
	if u.IsActive {
		return Accept() // already reviewed and activated
	}
	return Continue()
}

// Evaluate runs every check for the user, in a fixed order (duplicate
// user, id piece format, duplicate id piece, identity sub-scores),
// aggregates the verdicts and stores the result.  Re-evaluating a user
// updates the stored row in place.  An OK aggregate activates the
// account.
func (s *Service) Evaluate(ctx context.Context, u model.User, scores []SubScore) (model.FraudResult, error) {
	switch outcome := s.precheck(u); outcome.Kind {
	case KindReject:
		return model.FraudResult{}, fmt.Errorf("fraud review does not apply: %s", outcome.Reason)
	case KindAccept:
		return model.FraudResult{UserID: u.ID, Status: string(StatusOK)}, nil
	}

	items := make([]Item, 0, 3+len(scores))
	item, err := CheckDuplicateUser(ctx, s.Users, u)
	if err != nil {
		return model.FraudResult{}, err
	}
	items = append(items, item)
	items = append(items, CheckIDPieceFormat(u))
	item, err = CheckDuplicateIDPiece(ctx, s.Users, u)
	if err != nil {
		return model.FraudResult{}, err
	}
	items = append(items, item)
	items = append(items, CheckIdentityScores(scores)...)

	status, reason := Aggregate(items)
	if err := s.Results.UpsertResult(ctx, u.ID, status, reason); err != nil {
		return model.FraudResult{}, fmt.Errorf("store fraud result: %w", err)
	}
	if status == StatusOK {
		if err := s.Activator.Activate(ctx, u.ID); err != nil {
			return model.FraudResult{}, fmt.Errorf("activate beneficiary: %w", err)
		}
	}
	logrus.WithFields(logrus.Fields{
		"user_id": u.ID,
		"status":  status,
	}).Info("fraud review completed")
	return model.FraudResult{UserID: u.ID, Status: string(status), Reason: reason}, nil
}
