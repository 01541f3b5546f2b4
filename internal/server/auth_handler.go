package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/config"
	"github.com/opsre/gvmd/internal/model"
)

var (
	errUsernameTaken = errors.New("username already exists")
	errEmailTaken    = errors.New("email already registered")
)

// AuthHandler serves registration, login and profile endpoints.
type AuthHandler struct {
	config *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{config: cfg, db: db, log: log}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=80"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Register creates a new account. The first account on an empty database is
// promoted to administrator with the bootstrap credit grant.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		fail(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	account := model.Account{
		Username: req.Username,
		Email:    req.Email,
		Role:     model.RoleUser,
		Theme:    "dark",
	}
	if err := account.SetPassword(req.Password); err != nil {
		fail(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Account{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errUsernameTaken
		}
		if err := tx.Model(&model.Account{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errEmailTaken
		}

		if err := tx.Model(&model.Account{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			account.Role = model.RoleAdmin
			account.Credits = h.config.Bootstrap.AdminCredits
		}
		return tx.Create(&account).Error
	})
	switch err {
	case nil:
	case errUsernameTaken:
		fail(c, http.StatusBadRequest, "username already exists")
		return
	case errEmailTaken:
		fail(c, http.StatusBadRequest, "email already registered")
		return
	default:
		fail(c, http.StatusInternalServerError, "failed to create account: "+err.Error())
		return
	}

	h.log.Infof("registered account %s (id %d, role %s)", account.Username, account.ID, account.Role)
	success(c, accountInfo(&account))
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	Account     AccountInfo `json:"account"`
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var account model.Account
	if err := h.db.Where("username = ?", req.Username).First(&account).Error; err != nil {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !account.CheckPassword(req.Password) {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	ttl := time.Duration(h.config.Auth.TokenTTLHours) * time.Hour
	token, err := GenerateToken(h.config.Auth.JWTSecret, ttl, &account)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to issue token: "+err.Error())
		return
	}

	success(c, LoginResponse{AccessToken: token, Account: accountInfo(&account)})
}

// AccountInfo is the account view returned to clients.
type AccountInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Credits  int    `json:"credits"`
	Theme    string `json:"theme"`
}

func accountInfo(a *model.Account) AccountInfo {
	return AccountInfo{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
		Credits:  a.Credits,
		Theme:    a.Theme,
	}
}

// GetUserInfo returns the authenticated account.
func (h *AuthHandler) GetUserInfo(c *gin.Context) {
	var account model.Account
	if err := h.db.First(&account, c.GetUint("account_id")).Error; err != nil {
		fail(c, http.StatusNotFound, "account not found")
		return
	}
	success(c, accountInfo(&account))
}

// UpdateProfileRequest is the profile update payload.
type UpdateProfileRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
	Theme string `json:"theme" binding:"omitempty,oneof=dark light"`
}

// UpdateProfile updates the caller's email and theme.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var account model.Account
	if err := h.db.First(&account, c.GetUint("account_id")).Error; err != nil {
		fail(c, http.StatusNotFound, "account not found")
		return
	}

	if req.Email != "" {
		var count int64
		if err := h.db.Model(&model.Account{}).
			Where("email = ? AND id <> ?", req.Email, account.ID).
			Count(&count).Error; err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		if count > 0 {
			fail(c, http.StatusBadRequest, "email already in use")
			return
		}
		account.Email = req.Email
	}
	if req.Theme != "" {
		account.Theme = req.Theme
	}

	if err := h.db.Save(&account).Error; err != nil {
		fail(c, http.StatusInternalServerError, "failed to update profile: "+err.Error())
		return
	}
	success(c, accountInfo(&account))
}

// ChangePasswordRequest is the password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword rotates the caller's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var account model.Account
	if err := h.db.First(&account, c.GetUint("account_id")).Error; err != nil {
		fail(c, http.StatusNotFound, "account not found")
		return
	}
	if !account.CheckPassword(req.CurrentPassword) {
		fail(c, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if err := account.SetPassword(req.NewPassword); err != nil {
		fail(c, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := h.db.Save(&account).Error; err != nil {
		fail(c, http.StatusInternalServerError, "failed to save password: "+err.Error())
		return
	}

	success(c, nil)
}
