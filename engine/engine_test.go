// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

// capturingNotifier records which engine actions were announced as approved
type capturingNotifier struct {
	sync.Mutex
	approved []string
}

func (n *capturingNotifier) NotifyActionApproved(_ context.Context, engineActionId string) {
	n.Lock()
	defer n.Unlock()
	n.approved = append(n.approved, engineActionId)
}

func (n *capturingNotifier) Close() {}

func (n *capturingNotifier) approvedIds() []string {
	n.Lock()
	defer n.Unlock()
	return append([]string{}, n.approved...)
}

type testEnv struct {
	store     metadata.Store
	lifecycle *EngineActionLifecycle
	expander  *ProcessExpander
	query     *EngineActionQuery
	notifier  *capturingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.NewLogger(zap.NewNop())
	store := metadata.NewMemoryStore()
	notifier := &capturingNotifier{}
	lifecycle := NewEngineActionLifecycle(store, NewOpenSecurityVerifier(), notifier, logger)
	expander := NewProcessExpander(store, lifecycle, logger)
	lifecycle.SetCascadeHandler(expander)
	query := NewEngineActionQuery(store, logger)
	return &testEnv{
		store:     store,
		lifecycle: lifecycle,
		expander:  expander,
		query:     query,
		notifier:  notifier,
	}
}

func (env *testEnv) createGovernanceEngine(
	t *testing.T, ctx context.Context, name string, requestTypes ...string,
) string {
	t.Helper()
	engineId, err := env.store.CreateEntity(ctx, EntityTypeGovernanceEngine, metadata.Properties{
		PropQualifiedName: name,
	})
	require.NoError(t, err)
	for _, requestType := range requestTypes {
		_, err = env.store.CreateRelationship(ctx, RelTypeSupportedRequestType, engineId, engineId,
			metadata.Properties{PropRequestType: requestType})
		require.NoError(t, err)
	}
	return engineId
}

// createActionType creates an action type template with one executor edge
func (env *testEnv) createActionType(
	t *testing.T, ctx context.Context, name string, engineId string, requestType string,
	executorProps metadata.Properties,
) string {
	t.Helper()
	actionTypeId, err := env.store.CreateEntity(ctx, EntityTypeGovernanceActionType, metadata.Properties{
		PropQualifiedName: name,
		PropDisplayName:   name,
	})
	require.NoError(t, err)
	props := metadata.Properties{PropRequestType: requestType}
	for k, v := range executorProps {
		props[k] = v
	}
	_, err = env.store.CreateRelationship(ctx, RelTypeExecutor, actionTypeId, engineId, props)
	require.NoError(t, err)
	return actionTypeId
}

func (env *testEnv) createProcess(t *testing.T, ctx context.Context, name string) string {
	t.Helper()
	processId, err := env.store.CreateEntity(ctx, EntityTypeProcess, metadata.Properties{
		PropQualifiedName: name,
		PropDisplayName:   name,
	})
	require.NoError(t, err)
	return processId
}

// createProcessStep creates a step template with one executor edge
func (env *testEnv) createProcessStep(
	t *testing.T, ctx context.Context, name string, engineId string, requestType string,
	stepProps metadata.Properties,
) string {
	t.Helper()
	props := metadata.Properties{
		PropQualifiedName: name,
		PropDisplayName:   name,
	}
	for k, v := range stepProps {
		props[k] = v
	}
	stepId, err := env.store.CreateEntity(ctx, EntityTypeProcessStep, props)
	require.NoError(t, err)
	_, err = env.store.CreateRelationship(ctx, RelTypeExecutor, stepId, engineId,
		metadata.Properties{PropRequestType: requestType})
	require.NoError(t, err)
	return stepId
}

func (env *testEnv) linkFirstStep(t *testing.T, ctx context.Context, processId string, stepId string) {
	t.Helper()
	_, err := env.store.CreateRelationship(ctx, RelTypeProcessFlow, processId, stepId, nil)
	require.NoError(t, err)
}

// linkNextStep adds a NextGovernanceActionProcessStep edge; guard may be
// empty for an unconditional edge
func (env *testEnv) linkNextStep(
	t *testing.T, ctx context.Context, fromStepId string, toStepId string, guard string, mandatory bool,
) {
	t.Helper()
	props := metadata.Properties{PropMandatoryGuard: mandatory}
	if guard != "" {
		props[PropGuard] = guard
	}
	_, err := env.store.CreateRelationship(ctx, RelTypeNextProcessStep, fromStepId, toStepId, props)
	require.NoError(t, err)
}

func (env *testEnv) actionStatus(t *testing.T, ctx context.Context, engineActionId string) string {
	t.Helper()
	entity, err := env.store.GetEntityById(ctx, engineActionId, EntityTypeEngineAction)
	require.NoError(t, err)
	require.NotNil(t, entity)
	return entity.Properties.GetString(PropActionStatus)
}

// claimAndStart walks an action through claim and IN_PROGRESS for userId
func (env *testEnv) claimAndStart(t *testing.T, ctx context.Context, userId string, engineActionId string) {
	t.Helper()
	require.NoError(t, env.lifecycle.ClaimEngineAction(ctx, userId, engineActionId))
	require.NoError(t, env.lifecycle.UpdateEngineActionStatus(ctx, userId, engineActionId, govapi.ActionStatusActivating))
	require.NoError(t, env.lifecycle.UpdateEngineActionStatus(ctx, userId, engineActionId, govapi.ActionStatusInProgress))
}
