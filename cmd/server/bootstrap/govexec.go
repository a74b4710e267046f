// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"fmt"
	rawLog "log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/config"
	"github.com/govexecio/govexec/engine"
	"github.com/govexecio/govexec/metadata"
	"github.com/govexecio/govexec/metadata/sqlstore"
	"github.com/govexecio/govexec/mq"
	"github.com/govexecio/govexec/service/api"
)

const ApiServiceName = "api"

const FlagConfig = "config"

func StartGovexecServerCli(c *cli.Context) {
	// register interrupt signal for graceful shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	configPath := c.String(FlagConfig)

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		rawLog.Fatalf("Unable to load config for path %v because of error %v", configPath, err)
	}
	shutdownFunc := StartGovexecServer(rootCtx, cfg)
	// wait for os signals
	<-rootCtx.Done()

	ctx, cancF := context.WithTimeout(context.Background(), time.Second*10)
	defer cancF()
	err = shutdownFunc(ctx)
	if err != nil {
		fmt.Println("shutdown error:", err)
	}
}

type GracefulShutdown func(ctx context.Context) error

func StartGovexecServer(rootCtx context.Context, cfg *config.Config) GracefulShutdown {
	zapLogger, err := cfg.Log.NewZapLogger()
	if err != nil {
		rawLog.Fatalf("Unable to create a new zap logger %v", err)
	}
	logger := log.NewLogger(zapLogger)
	logger.Info("config is loaded", tag.Value(cfg.String()))
	err = cfg.ValidateAndSetDefaults()
	if err != nil {
		logger.Fatal("config is invalid", tag.Error(err))
	}

	var store metadata.Store
	if cfg.Database.SQL != nil {
		store, err = sqlstore.NewSQLMetadataStore(*cfg.Database.SQL, logger)
		if err != nil {
			logger.Fatal("error on metadata store setup", tag.Error(err))
		}
	} else {
		// development profile without a database
		store = metadata.NewMemoryStore()
	}

	notifier, err := mq.NewActionNotifier(*cfg, logger)
	if err != nil {
		logger.Fatal("error on message queue setup", tag.Error(err))
	}

	lifecycle := engine.NewEngineActionLifecycle(
		store, engine.NewOpenSecurityVerifier(), notifier, logger)
	expander := engine.NewProcessExpander(store, lifecycle, logger)
	lifecycle.SetCascadeHandler(expander)
	query := engine.NewEngineActionQuery(store, logger)

	svc := api.NewServiceImpl(*cfg, lifecycle, expander, query,
		logger.WithTags(tag.Service(ApiServiceName)))
	apiServer := api.NewDefaultAPIServerWithGin(
		rootCtx, *cfg, svc, logger.WithTags(tag.Service(ApiServiceName)))
	err = apiServer.Start()
	if err != nil {
		logger.Fatal("Failed to start api server", tag.Error(err))
	}

	return func(ctx context.Context) error {
		// graceful shutdown
		var errs error
		// first stop taking new requests
		err := apiServer.Stop(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		notifier.Close()
		err = store.Close()
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		return errs
	}
}
