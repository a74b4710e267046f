// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/config"
	"github.com/govexecio/govexec/goapi/govapi"
)

type ginHandler struct {
	config config.Config
	logger log.Logger
	svc    Service
}

func newGinHandler(cfg config.Config, svc Service, logger log.Logger) *ginHandler {
	return &ginHandler{
		config: cfg,
		logger: logger,
		svc:    svc,
	}
}

func (h *ginHandler) CreateEngineAction(c *gin.Context) {
	var req govapi.CreateEngineActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received CreateEngineAction API request", tag.Value(h.toJson(req)))

	resp, errResp := h.svc.CreateEngineAction(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) ApproveEngineAction(c *gin.Context) {
	var req govapi.ApproveEngineActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received ApproveEngineAction API request", tag.Value(h.toJson(req)))

	if errResp := h.svc.ApproveEngineAction(c.Request.Context(), req); errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, struct{}{})
}

func (h *ginHandler) ClaimEngineAction(c *gin.Context) {
	var req govapi.ClaimEngineActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received ClaimEngineAction API request", tag.Value(h.toJson(req)))

	if errResp := h.svc.ClaimEngineAction(c.Request.Context(), req); errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, struct{}{})
}

func (h *ginHandler) UpdateActionStatus(c *gin.Context) {
	var req govapi.UpdateActionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received UpdateActionStatus API request", tag.Value(h.toJson(req)))

	if errResp := h.svc.UpdateActionStatus(c.Request.Context(), req); errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, struct{}{})
}

func (h *ginHandler) RecordCompletion(c *gin.Context) {
	var req govapi.RecordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received RecordCompletion API request", tag.Value(h.toJson(req)))

	if errResp := h.svc.RecordCompletion(c.Request.Context(), req); errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, struct{}{})
}

func (h *ginHandler) CancelEngineAction(c *gin.Context) {
	var req govapi.CancelEngineActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received CancelEngineAction API request", tag.Value(h.toJson(req)))

	if errResp := h.svc.CancelEngineAction(c.Request.Context(), req); errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, struct{}{})
}

func (h *ginHandler) InitiateGovernanceActionType(c *gin.Context) {
	var req govapi.InitiateGovernanceActionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received InitiateGovernanceActionType API request", tag.Value(h.toJson(req)))

	resp, errResp := h.svc.InitiateGovernanceActionType(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) InitiateGovernanceActionProcess(c *gin.Context) {
	var req govapi.InitiateGovernanceActionProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received InitiateGovernanceActionProcess API request", tag.Value(h.toJson(req)))

	resp, errResp := h.svc.InitiateGovernanceActionProcess(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) GetEngineAction(c *gin.Context) {
	var req govapi.GetEngineActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.GetEngineAction(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) ListActiveEngineActions(c *gin.Context) {
	var req govapi.ListEngineActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.ListActiveEngineActions(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) ListClaimedEngineActions(c *gin.Context) {
	var req govapi.ListEngineActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.ListClaimedEngineActions(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) SearchEngineActions(c *gin.Context) {
	var req govapi.SearchEngineActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.SearchEngineActions(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) toJson(req any) string {
	str, err := json.Marshal(req)
	if err != nil {
		h.logger.Error("error when serializing request", tag.Error(err), tag.DefaultValue(req))
		return ""
	}
	return string(str)
}

func invalidRequestSchema(c *gin.Context) {
	c.JSON(http.StatusBadRequest, govapi.ApiErrorResponse{
		Detail: govapi.PtrString("invalid request schema"),
	})
}
