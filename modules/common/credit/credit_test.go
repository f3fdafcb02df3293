package credit

import (
	"errors"
	"testing"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

type conditionalCall struct {
	expected float64
	credits  float64
}

type fakeStore struct {
	credits    float64
	profileErr error
	updateErr  error

	profileCalls int
	conditional  []conditionalCall
	plain        []float64
}

func (f *fakeStore) GetProfile(userID string) (*model.UserProfile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &model.UserProfile{ID: userID, Credits: f.credits}, nil
}

func (f *fakeStore) UpdateCredits(userID string, credits float64) error {
	f.plain = append(f.plain, credits)
	if f.updateErr != nil {
		return f.updateErr
	}
	f.credits = credits
	return nil
}

func (f *fakeStore) UpdateCreditsIf(userID string, expected, credits float64) error {
	f.conditional = append(f.conditional, conditionalCall{expected: expected, credits: credits})
	if f.updateErr != nil {
		return f.updateErr
	}
	f.credits = credits
	return nil
}

func (f *fakeStore) InsertAsset(asset *model.GeneratedAsset) error { return nil }
func (f *fakeStore) DeleteAsset(assetID string) error              { return nil }
func (f *fakeStore) ListAssets(userID string, assetType model.AssetType) ([]model.GeneratedAsset, error) {
	return nil, nil
}

func TestDebitPersistsConditionally(t *testing.T) {
	store := &fakeStore{credits: 100}
	ledger := NewLedger(store)

	balance, err := ledger.Debit("user-1", 15)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if balance != 85 {
		t.Errorf("balance = %g, want 85", balance)
	}
	if len(store.conditional) != 1 {
		t.Fatalf("conditional updates = %d, want 1", len(store.conditional))
	}
	if got := store.conditional[0]; got.expected != 100 || got.credits != 85 {
		t.Errorf("conditional update = %+v, want expected 100 credits 85", got)
	}
}

func TestDebitClampsAtZero(t *testing.T) {
	store := &fakeStore{credits: 10}
	ledger := NewLedger(store)

	balance, err := ledger.Debit("user-1", 25)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %g, want 0", balance)
	}
	if store.conditional[0].credits != 0 {
		t.Errorf("persisted %g, want 0", store.conditional[0].credits)
	}
}

func TestDebitRevertsOnPersistenceFailure(t *testing.T) {
	store := &fakeStore{credits: 100}
	ledger := NewLedger(store)

	if _, err := ledger.Debit("user-1", 15); err != nil {
		t.Fatalf("first debit: %v", err)
	}

	store.updateErr = errors.New("balance changed concurrently")
	balance, err := ledger.Debit("user-1", 15)

	var persistenceErr *model.PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if balance != 85 {
		t.Errorf("reverted balance = %g, want last persisted 85", balance)
	}

	// The cache must stay at the last persisted value so a retry debits
	// from 85, not from the failed attempt's 70.
	store.updateErr = nil
	balance, err = ledger.Debit("user-1", 15)
	if err != nil {
		t.Fatalf("retry debit: %v", err)
	}
	if balance != 70 {
		t.Errorf("retry balance = %g, want 70", balance)
	}
	last := store.conditional[len(store.conditional)-1]
	if last.expected != 85 {
		t.Errorf("retry expected %g, want 85", last.expected)
	}
}

func TestDebitUsesCachedBalance(t *testing.T) {
	store := &fakeStore{credits: 50}
	ledger := NewLedger(store)

	if _, err := ledger.Balance("user-1"); err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if _, err := ledger.Debit("user-1", 5); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if store.profileCalls != 1 {
		t.Errorf("profile fetched %d times, want 1 (debit should use the cache)", store.profileCalls)
	}
}

func TestBalanceRefreshesCache(t *testing.T) {
	store := &fakeStore{credits: 40}
	ledger := NewLedger(store)

	if _, err := ledger.Debit("user-1", 10); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	// Another writer changed the stored balance behind our back.
	store.credits = 200
	balance, err := ledger.Balance("user-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 200 {
		t.Errorf("balance = %g, want refreshed 200", balance)
	}

	if _, err := ledger.Debit("user-1", 50); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	last := store.conditional[len(store.conditional)-1]
	if last.expected != 200 || last.credits != 150 {
		t.Errorf("conditional update = %+v, want expected 200 credits 150", last)
	}
}

func TestCanAfford(t *testing.T) {
	store := &fakeStore{credits: 15}
	ledger := NewLedger(store)

	tests := []struct {
		amount float64
		want   bool
	}{
		{10, true},
		{15, true},
		{15.1, false},
	}

	for _, tt := range tests {
		got, err := ledger.CanAfford("user-1", tt.amount)
		if err != nil {
			t.Fatalf("CanAfford(%g): %v", tt.amount, err)
		}
		if got != tt.want {
			t.Errorf("CanAfford(%g) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestCreditTopUp(t *testing.T) {
	store := &fakeStore{credits: 5}
	ledger := NewLedger(store)

	balance, err := ledger.Credit("user-1", 100)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if balance != 105 {
		t.Errorf("balance = %g, want 105", balance)
	}

	// A top-up writes unconditionally, unlike the debit path.
	if len(store.plain) != 1 || store.plain[0] != 105 {
		t.Errorf("plain updates = %v, want one write of 105", store.plain)
	}
	if len(store.conditional) != 0 {
		t.Errorf("top-up used the conditional write: %v", store.conditional)
	}
}
