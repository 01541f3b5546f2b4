package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opsre/gvmd/internal/catalog"
	"github.com/opsre/gvmd/internal/controller"
)

// VPSHandler serves the instance lifecycle endpoints.
type VPSHandler struct {
	controller *controller.Controller
	catalog    *catalog.Catalog
	log        *zap.SugaredLogger
}

// NewVPSHandler creates the VPS handler.
func NewVPSHandler(ctrl *controller.Controller, cat *catalog.Catalog, log *zap.SugaredLogger) *VPSHandler {
	return &VPSHandler{controller: ctrl, catalog: cat, log: log}
}

// writeControllerError maps controller outcomes onto HTTP status codes:
// caller errors are 4xx, runtime failures are 500 with the gateway's message
// surfaced verbatim.
func writeControllerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, controller.ErrInvalidPlan):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, controller.ErrInsufficientCredits):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, controller.ErrAccessDenied):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, controller.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// instanceID parses the :id path parameter.
func instanceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid instance id")
		return 0, false
	}
	return uint(id), true
}

// ListPlans returns the plan catalog.
func (h *VPSHandler) ListPlans(c *gin.Context) {
	success(c, h.catalog.Plans())
}

// CreateRequest is the instance creation payload.
type CreateRequest struct {
	Plan      string `json:"plan" binding:"required"`
	Processor string `json:"processor"`
}

// Create provisions a new instance for the caller.
func (h *VPSHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Processor == "" {
		req.Processor = catalog.ProcessorIntel
	}

	inst, err := h.controller.Create(c.Request.Context(), callerFrom(c), req.Plan, req.Processor)
	observeOp("create", err)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, inst)
}

// List returns the caller's instances, or every instance for administrators
// asking for the full view.
func (h *VPSHandler) List(c *gin.Context) {
	caller := callerFrom(c)

	if c.Query("all") == "true" {
		instances, err := h.controller.ListAll(caller)
		if err != nil {
			writeControllerError(c, err)
			return
		}
		success(c, instances)
		return
	}

	instances, err := h.controller.List(caller)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, instances)
}

// Start starts an instance.
func (h *VPSHandler) Start(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	err := h.controller.Start(c.Request.Context(), callerFrom(c), id)
	observeOp("start", err)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, nil)
}

// Stop stops an instance.
func (h *VPSHandler) Stop(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	err := h.controller.Stop(c.Request.Context(), callerFrom(c), id)
	observeOp("stop", err)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, nil)
}

// Restart restarts an instance.
func (h *VPSHandler) Restart(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	err := h.controller.Restart(c.Request.Context(), callerFrom(c), id)
	observeOp("restart", err)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, nil)
}

// Destroy deletes an instance.
func (h *VPSHandler) Destroy(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	err := h.controller.Destroy(c.Request.Context(), callerFrom(c), id)
	observeOp("destroy", err)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, nil)
}

// Stats returns advisory runtime usage for an instance.
func (h *VPSHandler) Stats(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	stats, err := h.controller.Stats(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		writeControllerError(c, err)
		return
	}
	success(c, stats)
}
