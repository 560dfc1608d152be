package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

func TestAggregatePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		items  []Item
		status Status
		reason string
	}{
		{
			name:   "all ok",
			items:  []Item{{Status: StatusOK}, {Status: StatusOK}},
			status: StatusOK,
			reason: "",
		},
		{
			name:   "no items",
			items:  nil,
			status: StatusOK,
			reason: "",
		},
		{
			name:   "any ko wins",
			items:  []Item{{Status: StatusSuspicious, Detail: "odd"}, {Status: StatusKO, Detail: "bad"}, {Status: StatusOK}},
			status: StatusKO,
			reason: "odd;bad",
		},
		{
			name:   "ko before suspicious still wins",
			items:  []Item{{Status: StatusKO, Detail: "bad"}, {Status: StatusSuspicious, Detail: "odd"}},
			status: StatusKO,
			reason: "bad;odd",
		},
		{
			name:   "suspicious without ko",
			items:  []Item{{Status: StatusOK}, {Status: StatusSuspicious, Detail: "odd"}},
			status: StatusSuspicious,
			reason: "odd",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, reason := Aggregate(tc.items)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

// fakeUserStore answers the duplicate lookups with fixed counts.
type fakeUserStore struct {
	duplicateUsers  int
	duplicatePieces int
	lastBirthDate   string
	lastPiece       string
}

func (f *fakeUserStore) CountActiveDuplicates(_ context.Context, _, _, birthDateISO string, _ int64) (int, error) {
	f.lastBirthDate = birthDateISO
	return f.duplicateUsers, nil
}

func (f *fakeUserStore) CountByIDPieceNumber(_ context.Context, piece string, _ int64) (int, error) {
	f.lastPiece = piece
	return f.duplicatePieces, nil
}

func strp(s string) *string { return &s }

func beneficiary() model.User {
	bd := time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC)
	return model.User{
		ID:            9,
		Role:          "BENEFICIARY",
		FirstName:     "Jeanne",
		LastName:      "Martin",
		BirthDate:     &bd,
		IDPieceNumber: strp("AB12345678"),
	}
}

func TestCheckDuplicateUser(t *testing.T) {
	store := &fakeUserStore{}
	item, err := CheckDuplicateUser(context.Background(), store, beneficiary())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, item.Status)
	assert.Equal(t, "2008-03-14", store.lastBirthDate)

	store.duplicateUsers = 1
	item, err = CheckDuplicateUser(context.Background(), store, beneficiary())
	require.NoError(t, err)
	assert.Equal(t, StatusSuspicious, item.Status)
	assert.NotEmpty(t, item.Detail)

	noBirth := beneficiary()
	noBirth.BirthDate = nil
	item, err = CheckDuplicateUser(context.Background(), store, noBirth)
	require.NoError(t, err)
	assert.Equal(t, StatusKO, item.Status)
}

func TestCheckIDPieceFormat(t *testing.T) {
	u := beneficiary()
	assert.Equal(t, StatusOK, CheckIDPieceFormat(u).Status)

	for _, bad := range []string{"", "short", "way-too-long-number", "with space", "abc!12345"} {
		u.IDPieceNumber = strp(bad)
		item := CheckIDPieceFormat(u)
		assert.Equal(t, StatusKO, item.Status, "number %q", bad)
	}

	u.IDPieceNumber = nil
	assert.Equal(t, StatusKO, CheckIDPieceFormat(u).Status)
}

func TestCheckDuplicateIDPiece(t *testing.T) {
	store := &fakeUserStore{}
	item, err := CheckDuplicateIDPiece(context.Background(), store, beneficiary())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, item.Status)
	assert.Equal(t, "AB12345678", store.lastPiece)

	store.duplicatePieces = 2
	item, err = CheckDuplicateIDPiece(context.Background(), store, beneficiary())
	require.NoError(t, err)
	assert.Equal(t, StatusKO, item.Status)

	// Missing number defers to the format check.
	empty := beneficiary()
	empty.IDPieceNumber = nil
	item, err = CheckDuplicateIDPiece(context.Background(), store, empty)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, item.Status)
}

func TestCheckIdentityScores(t *testing.T) {
	items := CheckIdentityScores([]SubScore{
		{Name: "document", Value: 80},
		{Name: "face", Value: 45},
		{Name: "liveness", Value: 10},
	})
	require.Len(t, items, 3)
	assert.Equal(t, StatusOK, items[0].Status)
	assert.Equal(t, StatusSuspicious, items[1].Status)
	assert.Equal(t, StatusKO, items[2].Status)
}

// fakeResultStore records upserts; re-upserting the same user overwrites.
type fakeResultStore struct {
	rows map[int64]Item
}

func (f *fakeResultStore) UpsertResult(_ context.Context, userID int64, status Status, reason string) error {
	if f.rows == nil {
		f.rows = map[int64]Item{}
	}
	f.rows[userID] = Item{Status: status, Detail: reason}
	return nil
}

type fakeActivator struct{ activated []int64 }

func (f *fakeActivator) Activate(_ context.Context, userID int64) error {
	f.activated = append(f.activated, userID)
	return nil
}

func TestEvaluateActivatesOnOK(t *testing.T) {
	store := &fakeUserStore{}
	results := &fakeResultStore{}
	activator := &fakeActivator{}
	svc := &Service{Users: store, Results: results, Activator: activator}

	result, err := svc.Evaluate(context.Background(), beneficiary(), []SubScore{{Name: "document", Value: 90}})
	require.NoError(t, err)
	assert.Equal(t, string(StatusOK), result.Status)
	assert.Equal(t, []int64{9}, activator.activated)
	assert.Equal(t, StatusOK, results.rows[9].Status)
}

func TestEvaluateDoesNotActivateOnKO(t *testing.T) {
	store := &fakeUserStore{duplicatePieces: 1}
	results := &fakeResultStore{}
	activator := &fakeActivator{}
	svc := &Service{Users: store, Results: results, Activator: activator}

	result, err := svc.Evaluate(context.Background(), beneficiary(), nil)
	require.NoError(t, err)
	assert.Equal(t, string(StatusKO), result.Status)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, activator.activated)
	assert.Equal(t, StatusKO, results.rows[9].Status)
}

func TestEvaluateReEvaluationOverwritesRow(t *testing.T) {
	store := &fakeUserStore{duplicateUsers: 1}
	results := &fakeResultStore{}
	activator := &fakeActivator{}
	svc := &Service{Users: store, Results: results, Activator: activator}

	first, err := svc.Evaluate(context.Background(), beneficiary(), nil)
	require.NoError(t, err)
	assert.Equal(t, string(StatusSuspicious), first.Status)

	store.duplicateUsers = 0
	second, err := svc.Evaluate(context.Background(), beneficiary(), nil)
	require.NoError(t, err)
	assert.Equal(t, string(StatusOK), second.Status)
	assert.Len(t, results.rows, 1, "one row per user, updated in place")
	assert.Equal(t, StatusOK, results.rows[9].Status)
}

func TestEvaluateRejectsNonBeneficiary(t *testing.T) {
	svc := &Service{Users: &fakeUserStore{}, Results: &fakeResultStore{}, Activator: &fakeActivator{}}
	pro := model.User{ID: 1, Role: "PRO"}

	_, err := svc.Evaluate(context.Background(), pro, nil)
	assert.Error(t, err)
}

func TestEvaluateAcceptsAlreadyActive(t *testing.T) {
	results := &fakeResultStore{}
	activator := &fakeActivator{}
	svc := &Service{Users: &fakeUserStore{duplicatePieces: 5}, Results: results, Activator: activator}

	active := beneficiary()
	active.IsActive = true
	result, err := svc.Evaluate(context.Background(), active, nil)
	require.NoError(t, err)
	assert.Equal(t, string(StatusOK), result.Status)
	assert.Empty(t, results.rows, "no re-review of an activated account")
	assert.Empty(t, activator.activated)
}

func TestOutcomeConstructors(t *testing.T) {
	assert.Equal(t, KindContinue, Continue().Kind)
	assert.Equal(t, KindAccept, Accept().Kind)
	r := Reject("because")
	assert.Equal(t, KindReject, r.Kind)
	assert.Equal(t, "because", r.Reason)
}
