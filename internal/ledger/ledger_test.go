package ledger

import (
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/database"
	"github.com/opsre/gvmd/internal/model"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) }) //nolint:errcheck
	return New(db), db
}

func seedAccount(t *testing.T, db *gorm.DB, credits int) uint {
	t.Helper()
	account := model.Account{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "x",
		Credits:  credits,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account.ID
}

func TestDebitAndBalance(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 200)

	if err := l.Debit(id, 96); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	balance, err := l.Balance(id)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 104 {
		t.Fatalf("balance=%d, want 104", balance)
	}
}

func TestDebitInsufficientLeavesBalanceUnchanged(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 100)

	err := l.Debit(id, 150)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err=%v, want ErrInsufficientCredits", err)
	}

	balance, _ := l.Balance(id)
	if balance != 100 {
		t.Fatalf("balance=%d, want 100", balance)
	}
}

func TestDebitExactBalance(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 42)

	if err := l.Debit(id, 42); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	balance, _ := l.Balance(id)
	if balance != 0 {
		t.Fatalf("balance=%d, want 0", balance)
	}
}

func TestDebitNegativeAmount(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 100)

	if err := l.Debit(id, -1); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("err=%v, want ErrNegativeAmount", err)
	}
}

func TestDebitMissingAccount(t *testing.T) {
	l, _ := newTestLedger(t)

	if err := l.Debit(999, 10); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err=%v, want ErrAccountNotFound", err)
	}
}

func TestCredit(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 10)

	if err := l.Credit(id, 90); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	balance, _ := l.Balance(id)
	if balance != 100 {
		t.Fatalf("balance=%d, want 100", balance)
	}

	if err := l.Credit(999, 10); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err=%v, want ErrAccountNotFound", err)
	}
}

func TestDebitClampedStopsAtZero(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 30)

	if err := l.DebitClamped(id, 100); err != nil {
		t.Fatalf("DebitClamped: %v", err)
	}
	balance, _ := l.Balance(id)
	if balance != 0 {
		t.Fatalf("balance=%d, want 0", balance)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	l, db := newTestLedger(t)
	id := seedAccount(t, db, 100)

	const (
		workers = 10
		amount  = 30
	)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Debit(id, amount); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded > 3 {
		t.Fatalf("succeeded=%d debits of %d against balance 100", succeeded, amount)
	}
	balance, _ := l.Balance(id)
	if balance != 100-succeeded*amount {
		t.Fatalf("balance=%d, want %d", balance, 100-succeeded*amount)
	}
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
}
