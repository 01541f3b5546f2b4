package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is a panel user. Credits are a non-negative integer balance and
// are only ever changed through the ledger, never assigned from request input.
type Account struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"uniqueIndex;not null;size:80" json:"username"`
	Email    string `gorm:"uniqueIndex;not null;size:120" json:"email"`
	Password string `gorm:"not null;size:255" json:"-"`
	Role     string `gorm:"size:20;default:'user'" json:"role"`
	Credits  int    `gorm:"not null;default:0" json:"credits"`
	Theme    string `gorm:"size:10;default:'dark'" json:"theme"`
}

// TableName sets the table name.
func (Account) TableName() string {
	return "accounts"
}

// IsAdmin reports whether the account holds the administrator role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SetPassword stores a bcrypt hash of the given password.
func (a *Account) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

// CheckPassword verifies the given password against the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
}
