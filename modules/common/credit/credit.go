package credit

import (
	"log"
	"sync"

	"github.com/metnitcs/esay-ai-shop/modules/common/database"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

// Ledger meters credits against the profiles table. Debits are applied
// optimistically against a cached balance and persisted conditionally,
// so a concurrent writer shows up as a persistence failure and the
// cached balance reverts to the last value known to be stored.
type Ledger struct {
	store database.Store

	mu        sync.Mutex
	persisted map[string]float64
}

func NewLedger(store database.Store) *Ledger {
	return &Ledger{
		store:     store,
		persisted: make(map[string]float64),
	}
}

// Balance returns the user's current balance, refreshing the cache.
func (l *Ledger) Balance(userID string) (float64, error) {
	profile, err := l.store.GetProfile(userID)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	l.persisted[userID] = profile.Credits
	l.mu.Unlock()

	return profile.Credits, nil
}

// CanAfford reports whether the user's balance covers the amount.
func (l *Ledger) CanAfford(userID string, amount float64) (bool, error) {
	balance, err := l.Balance(userID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// Debit subtracts amount from the user's balance, clamped at zero, and
// persists the result. On persistence failure the ledger reverts to the
// last persisted balance and returns it alongside the error.
func (l *Ledger) Debit(userID string, amount float64) (float64, error) {
	current, err := l.currentBalance(userID)
	if err != nil {
		return 0, err
	}

	newBalance := current - amount
	if newBalance < 0 {
		newBalance = 0
	}

	log.Printf("💰 Debit %.1f credits: %s (%.1f → %.1f)", amount, userID, current, newBalance)

	if err := l.store.UpdateCreditsIf(userID, current, newBalance); err != nil {
		log.Printf("⚠️ Debit not persisted, reverting to %.1f: %v", current, err)
		return current, &model.PersistenceError{Op: "debit", Err: err}
	}

	l.mu.Lock()
	l.persisted[userID] = newBalance
	l.mu.Unlock()

	return newBalance, nil
}

// Credit adds amount to the user's balance. Admin top-up path; the
// write is unconditional since a top-up never races itself.
func (l *Ledger) Credit(userID string, amount float64) (float64, error) {
	current, err := l.Balance(userID)
	if err != nil {
		return 0, err
	}

	newBalance := current + amount
	log.Printf("💰 Credit %.1f credits: %s (%.1f → %.1f)", amount, userID, current, newBalance)

	if err := l.store.UpdateCredits(userID, newBalance); err != nil {
		return current, &model.PersistenceError{Op: "credit", Err: err}
	}

	l.mu.Lock()
	l.persisted[userID] = newBalance
	l.mu.Unlock()

	return newBalance, nil
}

func (l *Ledger) currentBalance(userID string) (float64, error) {
	l.mu.Lock()
	cached, ok := l.persisted[userID]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}
	return l.Balance(userID)
}
