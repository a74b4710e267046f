// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	cerrors "github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

// EngineActionQuery is the read side: it never mutates the store and is
// independent of the lifecycle and the expander
type EngineActionQuery struct {
	store  metadata.Store
	logger log.Logger
}

func NewEngineActionQuery(store metadata.Store, logger log.Logger) *EngineActionQuery {
	return &EngineActionQuery{
		store:  store,
		logger: logger,
	}
}

func (q *EngineActionQuery) GetEngineAction(
	ctx context.Context, engineActionId string,
) (*govapi.EngineAction, error) {
	if engineActionId == "" {
		return nil, cerrors.NewInvalidParameter("engineActionId", "engineActionId cannot be empty")
	}
	entity, err := q.store.GetEntityById(ctx, engineActionId, EntityTypeEngineAction)
	if err != nil {
		return nil, cerrors.NewPropertyServer("failed to fetch engine action %v: %v", engineActionId, err)
	}
	if entity == nil {
		return nil, cerrors.NewPropertyServer("missing engine action %v", engineActionId)
	}
	return engineActionFromEntity(ctx, q.store, entity)
}

// ListActiveEngineActions returns one page of actions in a non-terminal
// status. Pages are cut after filtering, so the offset is a position in
// the active subset.
func (q *EngineActionQuery) ListActiveEngineActions(
	ctx context.Context, startFrom int, pageSize int,
) ([]govapi.EngineAction, error) {
	return q.collectPage(ctx, metadata.NewEntityIterator(
		q.store, EntityTypeEngineAction, nil, metadata.DefaultPageSize),
		startFrom, pageSize,
		func(entity *metadata.Entity) bool {
			return govapi.ActionStatus(entity.Properties.GetString(PropActionStatus)).IsActive()
		})
}

// ListClaimedEngineActions returns one page of the actions claimed by the
// calling engine host that are still active
func (q *EngineActionQuery) ListClaimedEngineActions(
	ctx context.Context, userId string, startFrom int, pageSize int,
) ([]govapi.EngineAction, error) {
	if userId == "" {
		return nil, cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	return q.collectPage(ctx, metadata.NewEntityIterator(
		q.store, EntityTypeEngineAction,
		metadata.Properties{PropProcessingEngineUserId: userId}, metadata.DefaultPageSize),
		startFrom, pageSize,
		func(entity *metadata.Entity) bool {
			return govapi.ActionStatus(entity.Properties.GetString(PropActionStatus)).IsActive()
		})
}

// SearchEngineActions returns one page of actions where any string
// property contains searchString
func (q *EngineActionQuery) SearchEngineActions(
	ctx context.Context, searchString string, startFrom int, pageSize int,
) ([]govapi.EngineAction, error) {
	if searchString == "" {
		return nil, cerrors.NewInvalidParameter("searchString", "searchString cannot be empty")
	}
	if pageSize <= 0 {
		pageSize = metadata.DefaultPageSize
	}
	entities, err := q.store.GetEntitiesByValuePage(
		ctx, EntityTypeEngineAction, searchString, startFrom, pageSize)
	if err != nil {
		return nil, cerrors.NewPropertyServer("failed to search engine actions: %v", err)
	}
	out := make([]govapi.EngineAction, 0, len(entities))
	for _, entity := range entities {
		bean, err := engineActionFromEntity(ctx, q.store, entity)
		if err != nil {
			return nil, err
		}
		out = append(out, *bean)
	}
	return out, nil
}

func (q *EngineActionQuery) collectPage(
	ctx context.Context, it *metadata.EntityIterator,
	startFrom int, pageSize int, keep func(*metadata.Entity) bool,
) ([]govapi.EngineAction, error) {
	if pageSize <= 0 {
		pageSize = metadata.DefaultPageSize
	}
	var out []govapi.EngineAction
	matched := 0
	for {
		entity, err := it.Next(ctx)
		if err != nil {
			return nil, cerrors.NewPropertyServer("failed to list engine actions: %v", err)
		}
		if entity == nil {
			return out, nil
		}
		if !keep(entity) {
			continue
		}
		matched++
		if matched <= startFrom {
			continue
		}
		bean, err := engineActionFromEntity(ctx, q.store, entity)
		if err != nil {
			return nil, err
		}
		out = append(out, *bean)
		if len(out) >= pageSize {
			return out, nil
		}
	}
}
