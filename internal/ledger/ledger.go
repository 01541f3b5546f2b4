// Package ledger owns account credit balances. Balances never go negative:
// a debit either applies in full or changes nothing.
package ledger

import (
	"errors"

	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/model"
)

var (
	// ErrInsufficientCredits rejects a debit larger than the current balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrAccountNotFound reports a balance operation against a missing account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNegativeAmount rejects negative debit/credit amounts.
	ErrNegativeAmount = errors.New("amount must be non-negative")
)

// Ledger performs atomic debit and credit operations against account rows.
type Ledger struct {
	db *gorm.DB
}

// New creates a ledger over db.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Debit subtracts amount from the account balance, rejecting the operation
// if the balance would go negative.
func (l *Ledger) Debit(accountID uint, amount int) error {
	return l.DebitTx(l.db, accountID, amount)
}

// DebitTx is Debit inside an existing transaction. The balance guard is a
// single conditional UPDATE, so two concurrent debits can never both apply
// against a stale balance.
func (l *Ledger) DebitTx(tx *gorm.DB, accountID uint, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	res := tx.Model(&model.Account{}).
		Where("id = ? AND credits >= ?", accountID, amount).
		UpdateColumn("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&model.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrAccountNotFound
		}
		return ErrInsufficientCredits
	}
	return nil
}

// DebitClamped subtracts up to amount from the account balance, stopping at
// zero instead of rejecting. Used for administrative credit removal.
func (l *Ledger) DebitClamped(accountID uint, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	res := l.db.Model(&model.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("credits", gorm.Expr("MAX(credits - ?, 0)", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Credit adds amount to the account balance.
func (l *Ledger) Credit(accountID uint, amount int) error {
	return l.CreditTx(l.db, accountID, amount)
}

// CreditTx is Credit inside an existing transaction.
func (l *Ledger) CreditTx(tx *gorm.DB, accountID uint, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	res := tx.Model(&model.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Balance returns the current balance of the account.
func (l *Ledger) Balance(accountID uint) (int, error) {
	var account model.Account
	if err := l.db.Select("credits").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return account.Credits, nil
}
