package fraud

import (
	"context"
	"fmt"
	"regexp"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// UserStore is the read surface the checks need over the user table.
type UserStore interface {
	// CountActiveDuplicates counts active users sharing the same first
	// name, last name and birth date, excluding the candidate itself.
	CountActiveDuplicates(ctx context.Context, firstName, lastName string, birthDateISO string, excludeUserID int64) (int, error)
	// CountByIDPieceNumber counts users already carrying this identity
	// document number, excluding the candidate itself.
	CountByIDPieceNumber(ctx context.Context, idPieceNumber string, excludeUserID int64) (int, error)
}

// idPieceNumberPattern accepts the formats of French identity documents:
// 8 to 12 alphanumeric characters, no separators.
var idPieceNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,12}$`)

// SubScore is one named identity-check sub-score between 0 and 100, as
// reported by the external identity verification service.
type SubScore struct {
	Name  string
	Value int
}

const (
	// subScoreKO is the hard-fail threshold for an identity sub-score.
	subScoreKO = 30
	// subScoreSuspicious marks doubt without a hard fail.
	subScoreSuspicious = 50
)

// CheckDuplicateUser flags a candidate whose name and birth date match
// an already activated beneficiary: the same person must not open a
// second wallet.
func CheckDuplicateUser(ctx context.Context, store UserStore, u model.User) (Item, error) {
	if u.BirthDate == nil {
		return Item{Status: StatusKO, Detail: "no birth date on file"}, nil
	}
	n, err := store.CountActiveDuplicates(ctx, u.FirstName, u.LastName, u.BirthDate.Format("2006-01-02"), u.ID)
	if err != nil {
		return Item{}, fmt.Errorf("duplicate user lookup: %w", err)
	}
	if n > 0 {
		return Item{Status: StatusSuspicious, Detail: fmt.Sprintf("found %d active user(s) with the same name and birth date", n)}, nil
	}
	return Item{Status: StatusOK}, nil
}

// CheckIDPieceFormat validates the shape of the identity document
// number.  A malformed number is a hard fail.
func CheckIDPieceFormat(u model.User) Item {
	if u.IDPieceNumber == nil || *u.IDPieceNumber == "" {
		return Item{Status: StatusKO, Detail: "no id piece number submitted"}
	}
	if !idPieceNumberPattern.MatchString(*u.IDPieceNumber) {
		return Item{Status: StatusKO, Detail: fmt.Sprintf("id piece number %q has an invalid format", *u.IDPieceNumber)}
	}
	return Item{Status: StatusOK}
}

// CheckDuplicateIDPiece flags an identity document already used by
// another user.
func CheckDuplicateIDPiece(ctx context.Context, store UserStore, u model.User) (Item, error) {
	if u.IDPieceNumber == nil || *u.IDPieceNumber == "" {
		// The format check already decides this case.
		return Item{Status: StatusOK}, nil
	}
	n, err := store.CountByIDPieceNumber(ctx, *u.IDPieceNumber, u.ID)
	if err != nil {
		return Item{}, fmt.Errorf("duplicate id piece lookup: %w", err)
	}
	if n > 0 {
		return Item{Status: StatusKO, Detail: fmt.Sprintf("id piece number already used by %d other user(s)", n)}, nil
	}
	return Item{Status: StatusOK}, nil
}

// CheckIdentityScores converts each sub-score reported by the identity
// verification service into one item.  Scores below the hard threshold
// are KO, borderline scores are suspicious.  Items are produced in the
// order the scores were reported, keeping the aggregate reason stable.
func CheckIdentityScores(scores []SubScore) []Item {
	items := make([]Item, 0, len(scores))
	for _, s := range scores {
		switch {
		case s.Value < subScoreKO:
			items = append(items, Item{Status: StatusKO, Detail: fmt.Sprintf("identity score %s=%d below %d", s.Name, s.Value, subScoreKO)})
		case s.Value < subScoreSuspicious:
			items = append(items, Item{Status: StatusSuspicious, Detail: fmt.Sprintf("identity score %s=%d below %d", s.Name, s.Value, subScoreSuspicious)})
		default:
			items = append(items, Item{Status: StatusOK})
		}
	}
	return items
}
