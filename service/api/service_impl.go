// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/config"
	"github.com/govexecio/govexec/engine"
	"github.com/govexecio/govexec/goapi/govapi"
)

type serviceImpl struct {
	cfg       config.Config
	lifecycle *engine.EngineActionLifecycle
	expander  *engine.ProcessExpander
	query     *engine.EngineActionQuery
	logger    log.Logger
}

func NewServiceImpl(
	cfg config.Config,
	lifecycle *engine.EngineActionLifecycle,
	expander *engine.ProcessExpander,
	query *engine.EngineActionQuery,
	logger log.Logger,
) Service {
	return &serviceImpl{
		cfg:       cfg,
		lifecycle: lifecycle,
		expander:  expander,
		query:     query,
		logger:    logger,
	}
}

func (s serviceImpl) CreateEngineAction(
	ctx context.Context, request govapi.CreateEngineActionRequest,
) (*govapi.CreateEngineActionResponse, *ErrorWithStatus) {
	engineActionId, err := s.lifecycle.CreateEngineAction(ctx, request)
	if err != nil {
		return nil, s.handleError("CreateEngineAction", err)
	}
	return &govapi.CreateEngineActionResponse{
		EngineActionId: engineActionId,
	}, nil
}

func (s serviceImpl) ApproveEngineAction(
	ctx context.Context, request govapi.ApproveEngineActionRequest,
) *ErrorWithStatus {
	err := s.lifecycle.ApproveEngineAction(ctx, request.UserId, request.EngineActionId)
	if err != nil {
		return s.handleError("ApproveEngineAction", err)
	}
	return nil
}

func (s serviceImpl) ClaimEngineAction(
	ctx context.Context, request govapi.ClaimEngineActionRequest,
) *ErrorWithStatus {
	err := s.lifecycle.ClaimEngineAction(ctx, request.UserId, request.EngineActionId)
	if err != nil {
		return s.handleError("ClaimEngineAction", err)
	}
	return nil
}

func (s serviceImpl) UpdateActionStatus(
	ctx context.Context, request govapi.UpdateActionStatusRequest,
) *ErrorWithStatus {
	err := s.lifecycle.UpdateEngineActionStatus(ctx, request.UserId, request.EngineActionId, request.Status)
	if err != nil {
		return s.handleError("UpdateActionStatus", err)
	}
	return nil
}

func (s serviceImpl) RecordCompletion(
	ctx context.Context, request govapi.RecordCompletionRequest,
) *ErrorWithStatus {
	err := s.lifecycle.RecordCompletionStatus(ctx, request)
	if err != nil {
		return s.handleError("RecordCompletion", err)
	}
	return nil
}

func (s serviceImpl) CancelEngineAction(
	ctx context.Context, request govapi.CancelEngineActionRequest,
) *ErrorWithStatus {
	err := s.lifecycle.CancelEngineAction(ctx, request.UserId, request.EngineActionId)
	if err != nil {
		return s.handleError("CancelEngineAction", err)
	}
	return nil
}

func (s serviceImpl) InitiateGovernanceActionType(
	ctx context.Context, request govapi.InitiateGovernanceActionTypeRequest,
) (*govapi.InitiateGovernanceActionTypeResponse, *ErrorWithStatus) {
	engineActionId, err := s.expander.InitiateGovernanceActionType(ctx, request)
	if err != nil {
		return nil, s.handleError("InitiateGovernanceActionType", err)
	}
	return &govapi.InitiateGovernanceActionTypeResponse{
		EngineActionId: engineActionId,
	}, nil
}

func (s serviceImpl) InitiateGovernanceActionProcess(
	ctx context.Context, request govapi.InitiateGovernanceActionProcessRequest,
) (*govapi.InitiateGovernanceActionProcessResponse, *ErrorWithStatus) {
	processInstanceId, firstEngineActionId, err := s.expander.InitiateGovernanceActionProcess(ctx, request)
	if err != nil {
		return nil, s.handleError("InitiateGovernanceActionProcess", err)
	}
	return &govapi.InitiateGovernanceActionProcessResponse{
		ProcessInstanceId:   processInstanceId,
		FirstEngineActionId: firstEngineActionId,
	}, nil
}

func (s serviceImpl) GetEngineAction(
	ctx context.Context, request govapi.GetEngineActionRequest,
) (*govapi.EngineAction, *ErrorWithStatus) {
	action, err := s.query.GetEngineAction(ctx, request.EngineActionId)
	if err != nil {
		return nil, s.handleError("GetEngineAction", err)
	}
	return action, nil
}

func (s serviceImpl) ListActiveEngineActions(
	ctx context.Context, request govapi.ListEngineActionsRequest,
) (*govapi.EngineActionListResponse, *ErrorWithStatus) {
	actions, err := s.query.ListActiveEngineActions(ctx, request.StartFrom, request.PageSize)
	if err != nil {
		return nil, s.handleError("ListActiveEngineActions", err)
	}
	return &govapi.EngineActionListResponse{EngineActions: actions}, nil
}

func (s serviceImpl) ListClaimedEngineActions(
	ctx context.Context, request govapi.ListEngineActionsRequest,
) (*govapi.EngineActionListResponse, *ErrorWithStatus) {
	actions, err := s.query.ListClaimedEngineActions(ctx, request.UserId, request.StartFrom, request.PageSize)
	if err != nil {
		return nil, s.handleError("ListClaimedEngineActions", err)
	}
	return &govapi.EngineActionListResponse{EngineActions: actions}, nil
}

func (s serviceImpl) SearchEngineActions(
	ctx context.Context, request govapi.SearchEngineActionsRequest,
) (*govapi.EngineActionListResponse, *ErrorWithStatus) {
	actions, err := s.query.SearchEngineActions(ctx, request.SearchString, request.StartFrom, request.PageSize)
	if err != nil {
		return nil, s.handleError("SearchEngineActions", err)
	}
	return &govapi.EngineActionListResponse{EngineActions: actions}, nil
}

func (s serviceImpl) handleError(operation string, err error) *ErrorWithStatus {
	apiErr := toApiError(err)
	if apiErr.StatusCode >= 500 {
		s.logger.Error("error on operation", tag.RequestType(operation), tag.Error(err))
	} else {
		s.logger.Debug("request rejected", tag.RequestType(operation), tag.Error(err))
	}
	return apiErr
}
