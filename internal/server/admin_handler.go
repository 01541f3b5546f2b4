package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/controller"
	"github.com/opsre/gvmd/internal/ledger"
	"github.com/opsre/gvmd/internal/model"
	"github.com/opsre/gvmd/internal/sysinfo"
)

// AdminHandler serves the administrator endpoints. Routes are guarded by the
// adminRequired middleware.
type AdminHandler struct {
	db         *gorm.DB
	controller *controller.Controller
	ledger     *ledger.Ledger
	log        *zap.SugaredLogger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(db *gorm.DB, ctrl *controller.Controller, led *ledger.Ledger, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{db: db, controller: ctrl, ledger: led, log: log}
}

// accountID parses the :id path parameter.
func accountID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid account id")
		return 0, false
	}
	return uint(id), true
}

// ListUsers returns every account.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var accounts []model.Account
	if err := h.db.Order("id").Find(&accounts).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	infos := make([]AccountInfo, 0, len(accounts))
	for i := range accounts {
		infos = append(infos, accountInfo(&accounts[i]))
	}
	success(c, infos)
}

// AddUserRequest is the admin account creation payload.
type AddUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

// AddUser creates an account with an explicit role.
func (h *AdminHandler) AddUser(c *gin.Context) {
	var req AddUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	account := model.Account{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
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
		return tx.Create(&account).Error
	})
	switch err {
	case nil:
	case errUsernameTaken, errEmailTaken:
		fail(c, http.StatusBadRequest, err.Error())
		return
	default:
		fail(c, http.StatusInternalServerError, "failed to create account: "+err.Error())
		return
	}

	h.log.Infof("admin created account %s (id %d, role %s)", account.Username, account.ID, account.Role)
	success(c, accountInfo(&account))
}

// DeleteUser removes an account and, best effort, its containers. The
// account row and its instance records go away regardless of runtime
// cleanup outcomes.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	if id == c.GetUint("account_id") {
		fail(c, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	var account model.Account
	if err := h.db.First(&account, id).Error; err != nil {
		fail(c, http.StatusNotFound, "account not found")
		return
	}

	if err := h.controller.RemoveAccountInstances(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, "failed to remove instances: "+err.Error())
		return
	}
	if err := h.db.Delete(&model.Account{}, id).Error; err != nil {
		fail(c, http.StatusInternalServerError, "failed to delete account: "+err.Error())
		return
	}

	h.log.Infof("admin deleted account %s (id %d)", account.Username, id)
	success(c, nil)
}

// ManageCreditsRequest is the credit adjustment payload.
type ManageCreditsRequest struct {
	Action string `json:"action" binding:"required,oneof=add remove"`
	Amount int    `json:"amount" binding:"required,gt=0"`
}

// ManageCredits tops up or removes credits from an account. Removal clamps
// at zero rather than failing on an overdraft.
func (h *AdminHandler) ManageCredits(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var req ManageCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var err error
	switch req.Action {
	case "add":
		err = h.ledger.Credit(id, req.Amount)
	case "remove":
		err = h.ledger.DebitClamped(id, req.Amount)
	}
	if errors.Is(err, ledger.ErrAccountNotFound) {
		fail(c, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	balance, err := h.ledger.Balance(id)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	success(c, gin.H{"credits": balance})
}

// ListAllVPS returns every instance in the system.
func (h *AdminHandler) ListAllVPS(c *gin.Context) {
	instances, err := h.controller.ListAll(callerFrom(c))
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, instances)
}

// Overview returns panel-wide counters and a host resource snapshot.
func (h *AdminHandler) Overview(c *gin.Context) {
	var userCount int64
	if err := h.db.Model(&model.Account{}).Count(&userCount).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	instances, err := h.controller.ListAll(callerFrom(c))
	if err != nil {
		writeControllerError(c, err)
		return
	}

	running, stopped := 0, 0
	for i := range instances {
		switch instances[i].Status {
		case model.StatusRunning:
			running++
		case model.StatusStopped:
			stopped++
		}
	}

	success(c, gin.H{
		"total_users": userCount,
		"total_vps":   len(instances),
		"running_vps": running,
		"stopped_vps": stopped,
		"host":        sysinfo.Collect(),
	})
}
