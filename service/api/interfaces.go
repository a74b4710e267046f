// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/govexecio/govexec/goapi/govapi"
)

type Server interface {
	// Start will start running on the background
	Start() error
	Stop(ctx context.Context) error
}

// Service is the interface of the API service, decoupled from the REST server
// framework like Gin so that users can choose other REST frameworks to serve
// the same requests
type Service interface {
	CreateEngineAction(ctx context.Context, request govapi.CreateEngineActionRequest) (
		resp *govapi.CreateEngineActionResponse, err *ErrorWithStatus)
	ApproveEngineAction(ctx context.Context, request govapi.ApproveEngineActionRequest) *ErrorWithStatus
	ClaimEngineAction(ctx context.Context, request govapi.ClaimEngineActionRequest) *ErrorWithStatus
	UpdateActionStatus(ctx context.Context, request govapi.UpdateActionStatusRequest) *ErrorWithStatus
	RecordCompletion(ctx context.Context, request govapi.RecordCompletionRequest) *ErrorWithStatus
	CancelEngineAction(ctx context.Context, request govapi.CancelEngineActionRequest) *ErrorWithStatus

	InitiateGovernanceActionType(ctx context.Context, request govapi.InitiateGovernanceActionTypeRequest) (
		resp *govapi.InitiateGovernanceActionTypeResponse, err *ErrorWithStatus)
	InitiateGovernanceActionProcess(ctx context.Context, request govapi.InitiateGovernanceActionProcessRequest) (
		resp *govapi.InitiateGovernanceActionProcessResponse, err *ErrorWithStatus)

	GetEngineAction(ctx context.Context, request govapi.GetEngineActionRequest) (
		resp *govapi.EngineAction, err *ErrorWithStatus)
	ListActiveEngineActions(ctx context.Context, request govapi.ListEngineActionsRequest) (
		resp *govapi.EngineActionListResponse, err *ErrorWithStatus)
	ListClaimedEngineActions(ctx context.Context, request govapi.ListEngineActionsRequest) (
		resp *govapi.EngineActionListResponse, err *ErrorWithStatus)
	SearchEngineActions(ctx context.Context, request govapi.SearchEngineActionsRequest) (
		resp *govapi.EngineActionListResponse, err *ErrorWithStatus)
}
