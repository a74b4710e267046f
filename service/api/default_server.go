// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/config"
)

const PathCreateEngineAction = "/api/v1/govexec/service/engine-action/create"
const PathApproveEngineAction = "/api/v1/govexec/service/engine-action/approve"
const PathClaimEngineAction = "/api/v1/govexec/service/engine-action/claim"
const PathUpdateActionStatus = "/api/v1/govexec/service/engine-action/update-status"
const PathRecordCompletion = "/api/v1/govexec/service/engine-action/complete"
const PathCancelEngineAction = "/api/v1/govexec/service/engine-action/cancel"
const PathGetEngineAction = "/api/v1/govexec/service/engine-action/get"
const PathListActiveEngineActions = "/api/v1/govexec/service/engine-action/list-active"
const PathListClaimedEngineActions = "/api/v1/govexec/service/engine-action/list-claimed"
const PathSearchEngineActions = "/api/v1/govexec/service/engine-action/search"
const PathInitiateGovernanceActionType = "/api/v1/govexec/service/governance-action-type/initiate"
const PathInitiateGovernanceActionProcess = "/api/v1/govexec/service/governance-action-process/initiate"

type defaultSever struct {
	rootCtx    context.Context
	cfg        config.Config
	logger     log.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

func NewDefaultAPIServerWithGin(
	rootCtx context.Context, cfg config.Config, svc Service, logger log.Logger,
) Server {
	engine := gin.Default()

	handler := newGinHandler(cfg, svc, logger)

	engine.POST(PathCreateEngineAction, handler.CreateEngineAction)
	engine.POST(PathApproveEngineAction, handler.ApproveEngineAction)
	engine.POST(PathClaimEngineAction, handler.ClaimEngineAction)
	engine.POST(PathUpdateActionStatus, handler.UpdateActionStatus)
	engine.POST(PathRecordCompletion, handler.RecordCompletion)
	engine.POST(PathCancelEngineAction, handler.CancelEngineAction)
	engine.POST(PathGetEngineAction, handler.GetEngineAction)
	engine.POST(PathListActiveEngineActions, handler.ListActiveEngineActions)
	engine.POST(PathListClaimedEngineActions, handler.ListClaimedEngineActions)
	engine.POST(PathSearchEngineActions, handler.SearchEngineActions)
	engine.POST(PathInitiateGovernanceActionType, handler.InitiateGovernanceActionType)
	engine.POST(PathInitiateGovernanceActionProcess, handler.InitiateGovernanceActionProcess)

	svrCfg := cfg.ApiService.HttpServer
	httpServer := &http.Server{
		Addr:              svrCfg.Address,
		ReadTimeout:       svrCfg.ReadTimeout,
		WriteTimeout:      svrCfg.WriteTimeout,
		ReadHeaderTimeout: svrCfg.ReadHeaderTimeout,
		IdleTimeout:       svrCfg.IdleTimeout,
		MaxHeaderBytes:    svrCfg.MaxHeaderBytes,
		TLSConfig:         svrCfg.TLSConfig,
		Handler:           engine,
		BaseContext: func(listener net.Listener) context.Context {
			// for graceful shutdown
			return rootCtx
		},
	}

	return &defaultSever{
		rootCtx:    rootCtx,
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		httpServer: httpServer,
	}
}

func (s defaultSever) Start() error {
	go func() {
		err := s.httpServer.ListenAndServe()
		s.logger.Info("Http Server for API service is closed", tag.Error(err))
	}()

	return nil
}

func (s defaultSever) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
