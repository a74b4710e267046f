// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

func TestInitiateGovernanceActionType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	env.createActionType(t, ctx, "evaluate-quality", engineId, "verify-asset", metadata.Properties{
		PropRequestParameters: map[string]string{"threshold": "0.9"},
	})

	engineActionId, err := env.expander.InitiateGovernanceActionType(ctx, govapi.InitiateGovernanceActionTypeRequest{
		UserId:                  "alice",
		ActionTypeQualifiedName: "evaluate-quality",
		RequestParameters:       map[string]string{"sample": "full"},
	})
	require.NoError(t, err)

	// no mandatory guards on a standalone action type, so it runs immediately
	assert.Equal(t, string(govapi.ActionStatusApproved), env.actionStatus(t, ctx, engineActionId))

	action, err := env.query.GetEngineAction(ctx, engineActionId)
	require.NoError(t, err)
	assert.Equal(t, "quality-engine", action.GovernanceEngineName)
	assert.Equal(t, "verify-asset", action.RequestType)
	// executor predefined parameters merge with the caller's
	assert.Equal(t, map[string]string{"threshold": "0.9", "sample": "full"}, action.RequestParameters)
	assert.Contains(t, action.QualifiedName, "evaluate-quality:")
}

func TestInitiateGovernanceActionTypeUnknownType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.expander.InitiateGovernanceActionType(ctx, govapi.InitiateGovernanceActionTypeRequest{
		UserId:                  "alice",
		ActionTypeQualifiedName: "no-such-type",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "unknown governance action type")
}

func TestInitiateGovernanceActionTypeNoExecutor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.store.CreateEntity(ctx, EntityTypeGovernanceActionType, metadata.Properties{
		PropQualifiedName: "orphan-type",
	})
	require.NoError(t, err)

	_, err = env.expander.InitiateGovernanceActionType(ctx, govapi.InitiateGovernanceActionTypeRequest{
		UserId:                  "alice",
		ActionTypeQualifiedName: "orphan-type",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "unknown executor")
}

func TestInitiateGovernanceActionTypeAmbiguousExecutor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	actionTypeId := env.createActionType(t, ctx, "evaluate-quality", engineId, "verify-asset", nil)
	_, err := env.store.CreateRelationship(ctx, RelTypeExecutor, actionTypeId, engineId,
		metadata.Properties{PropRequestType: "verify-asset"})
	require.NoError(t, err)

	_, err = env.expander.InitiateGovernanceActionType(ctx, govapi.InitiateGovernanceActionTypeRequest{
		UserId:                  "alice",
		ActionTypeQualifiedName: "evaluate-quality",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "more than one executor")
}

func TestInitiateGovernanceActionProcess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	firstStep := env.createProcessStep(t, ctx, "check-quality", engineId, "verify-asset", nil)
	env.linkFirstStep(t, ctx, processId, firstStep)

	processInstanceId, firstEngineActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
		})
	require.NoError(t, err)
	require.NotEmpty(t, processInstanceId)
	require.NotEmpty(t, firstEngineActionId)

	instance, err := env.store.GetEntityById(ctx, processInstanceId, EntityTypeProcessInstance)
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.Equal(t, "certify-asset", instance.Properties.GetString(PropProcessName))
	assert.NotZero(t, instance.Properties.GetInt64(PropProcessStartTime))
	assert.False(t, instance.Properties.Has(PropProcessEndTime))

	action, err := env.query.GetEngineAction(ctx, firstEngineActionId)
	require.NoError(t, err)
	assert.Equal(t, "certify-asset", action.ProcessName)
	assert.Equal(t, firstStep, action.ProcessStepId)
	// the anchor ties every action of this run to the instance
	assert.Equal(t, processInstanceId, action.AnchorId)
	// the first step is unconditional and has no mandatory guards
	assert.Equal(t, govapi.ActionStatusApproved, action.Status)
}

func TestInitiateGovernanceActionProcessUnknownProcess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "no-such-process",
		})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "unknown governance action process")
}

func TestInitiateGovernanceActionProcessWithoutFirstStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createProcess(t, ctx, "empty-process")

	_, _, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "empty-process",
		})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "no process implementation")
}

// completeAction claims and completes an approved action with output guards
func (env *testEnv) completeAction(
	t *testing.T, ctx context.Context, host string, engineActionId string, guards ...string,
) {
	t.Helper()
	env.claimAndStart(t, ctx, host, engineActionId)
	require.NoError(t, env.lifecycle.RecordCompletionStatus(ctx, govapi.RecordCompletionRequest{
		UserId:           host,
		EngineActionId:   engineActionId,
		CompletionStatus: govapi.ActionStatusActioned,
		OutputGuards:     guards,
	}))
}

func (env *testEnv) actionsForStep(
	t *testing.T, ctx context.Context, processName string, stepId string,
) []*metadata.Entity {
	t.Helper()
	page, err := env.store.GetEntitiesByTypePage(ctx, EntityTypeEngineAction,
		metadata.Properties{PropProcessName: processName}, 0, 100)
	require.NoError(t, err)
	var matches []*metadata.Entity
	for _, entity := range page {
		if entity.Properties.GetString(PropProcessStepId) == stepId {
			matches = append(matches, entity)
		}
	}
	return matches
}

func TestCascadeFollowsMatchingGuardOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	stepCheck := env.createProcessStep(t, ctx, "check-quality", engineId, "verify-asset", nil)
	stepCertify := env.createProcessStep(t, ctx, "certify", engineId, "verify-asset", nil)
	stepQuarantine := env.createProcessStep(t, ctx, "quarantine", engineId, "verify-asset", nil)
	env.linkFirstStep(t, ctx, processId, stepCheck)
	env.linkNextStep(t, ctx, stepCheck, stepCertify, "PASS", false)
	env.linkNextStep(t, ctx, stepCheck, stepQuarantine, "FAIL", false)

	_, firstActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
		})
	require.NoError(t, err)

	env.completeAction(t, ctx, "engine-host-1", firstActionId, "PASS")

	// only the PASS branch fired
	certifyActions := env.actionsForStep(t, ctx, "certify-asset", stepCertify)
	require.Len(t, certifyActions, 1)
	assert.Equal(t, string(govapi.ActionStatusApproved),
		certifyActions[0].Properties.GetString(PropActionStatus))
	assert.Empty(t, env.actionsForStep(t, ctx, "certify-asset", stepQuarantine))

	// the NextEngineAction edge carries the guard that selected it
	rels, err := env.store.GetRelationshipsPage(
		ctx, firstActionId, RelTypeNextEngineAction, metadata.DirectionOutgoing, 0, 10)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, certifyActions[0].Id, rels[0].ToId)
	assert.Equal(t, "PASS", rels[0].Properties.GetString(PropGuard))
}

func TestCascadeUnconditionalEdgeAlwaysFires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	stepCheck := env.createProcessStep(t, ctx, "check-quality", engineId, "verify-asset", nil)
	stepLog := env.createProcessStep(t, ctx, "log-result", engineId, "verify-asset", nil)
	env.linkFirstStep(t, ctx, processId, stepCheck)
	env.linkNextStep(t, ctx, stepCheck, stepLog, "", false)

	_, firstActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
		})
	require.NoError(t, err)

	// no output guards at all, the unlabelled edge still fires
	env.completeAction(t, ctx, "engine-host-1", firstActionId)
	assert.Len(t, env.actionsForStep(t, ctx, "certify-asset", stepLog), 1)
}

func TestCascadeFanInAccumulatesGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	stepFork := env.createProcessStep(t, ctx, "fork", engineId, "verify-asset", nil)
	stepX := env.createProcessStep(t, ctx, "step-x", engineId, "verify-asset", nil)
	stepY := env.createProcessStep(t, ctx, "step-y", engineId, "verify-asset", nil)
	stepJoin := env.createProcessStep(t, ctx, "join", engineId, "verify-asset", nil)
	env.linkFirstStep(t, ctx, processId, stepFork)
	env.linkNextStep(t, ctx, stepFork, stepX, "", false)
	env.linkNextStep(t, ctx, stepFork, stepY, "", false)
	env.linkNextStep(t, ctx, stepX, stepJoin, "X-DONE", true)
	env.linkNextStep(t, ctx, stepY, stepJoin, "Y-DONE", true)

	_, forkActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
		})
	require.NoError(t, err)
	env.completeAction(t, ctx, "engine-host-1", forkActionId)

	xActions := env.actionsForStep(t, ctx, "certify-asset", stepX)
	yActions := env.actionsForStep(t, ctx, "certify-asset", stepY)
	require.Len(t, xActions, 1)
	require.Len(t, yActions, 1)

	// first branch completes: the join action exists but keeps waiting
	env.completeAction(t, ctx, "engine-host-1", xActions[0].Id, "X-DONE")
	joinActions := env.actionsForStep(t, ctx, "certify-asset", stepJoin)
	require.Len(t, joinActions, 1)
	assert.Equal(t, string(govapi.ActionStatusRequested),
		joinActions[0].Properties.GetString(PropActionStatus))

	// second branch completes: the same action is reused and released
	env.completeAction(t, ctx, "engine-host-2", yActions[0].Id, "Y-DONE")
	joinActions = env.actionsForStep(t, ctx, "certify-asset", stepJoin)
	require.Len(t, joinActions, 1)
	assert.Equal(t, string(govapi.ActionStatusApproved),
		joinActions[0].Properties.GetString(PropActionStatus))
	assert.ElementsMatch(t, []string{"X-DONE", "Y-DONE"},
		joinActions[0].Properties.GetStringSlice(PropReceivedGuards))
}

func TestCascadeIgnoreMultipleTriggers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	stepFork := env.createProcessStep(t, ctx, "fork", engineId, "verify-asset", nil)
	stepX := env.createProcessStep(t, ctx, "step-x", engineId, "verify-asset", nil)
	stepY := env.createProcessStep(t, ctx, "step-y", engineId, "verify-asset", nil)
	stepOnce := env.createProcessStep(t, ctx, "fire-once", engineId, "verify-asset",
		metadata.Properties{PropIgnoreMultipleTriggers: true})
	env.linkFirstStep(t, ctx, processId, stepFork)
	env.linkNextStep(t, ctx, stepFork, stepX, "", false)
	env.linkNextStep(t, ctx, stepFork, stepY, "", false)
	env.linkNextStep(t, ctx, stepX, stepOnce, "", false)
	env.linkNextStep(t, ctx, stepY, stepOnce, "", false)

	_, forkActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
		})
	require.NoError(t, err)
	env.completeAction(t, ctx, "engine-host-1", forkActionId)

	xActions := env.actionsForStep(t, ctx, "certify-asset", stepX)
	yActions := env.actionsForStep(t, ctx, "certify-asset", stepY)
	require.Len(t, xActions, 1)
	require.Len(t, yActions, 1)

	env.completeAction(t, ctx, "engine-host-1", xActions[0].Id)
	require.Len(t, env.actionsForStep(t, ctx, "certify-asset", stepOnce), 1)

	// the second trigger is dropped without error, no duplicate action
	env.completeAction(t, ctx, "engine-host-2", yActions[0].Id)
	assert.Len(t, env.actionsForStep(t, ctx, "certify-asset", stepOnce), 1)
}

func TestProcessEndStampedOnceChainTerminates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	stepCheck := env.createProcessStep(t, ctx, "check-quality", engineId, "verify-asset", nil)
	stepCertify := env.createProcessStep(t, ctx, "certify", engineId, "verify-asset", nil)
	env.linkFirstStep(t, ctx, processId, stepCheck)
	env.linkNextStep(t, ctx, stepCheck, stepCertify, "PASS", false)

	processInstanceId, firstActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
		})
	require.NoError(t, err)

	env.completeAction(t, ctx, "engine-host-1", firstActionId, "PASS")

	// the certify action is still active, so the instance has no end time
	instance, err := env.store.GetEntityById(ctx, processInstanceId, EntityTypeProcessInstance)
	require.NoError(t, err)
	assert.False(t, instance.Properties.Has(PropProcessEndTime))

	certifyActions := env.actionsForStep(t, ctx, "certify-asset", stepCertify)
	require.Len(t, certifyActions, 1)
	env.completeAction(t, ctx, "engine-host-1", certifyActions[0].Id)

	instance, err = env.store.GetEntityById(ctx, processInstanceId, EntityTypeProcessInstance)
	require.NoError(t, err)
	assert.NotZero(t, instance.Properties.GetInt64(PropProcessEndTime))
}

func TestCascadeInheritsAndOverridesActionTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	engineId := env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")
	processId := env.createProcess(t, ctx, "certify-asset")
	stepCheck := env.createProcessStep(t, ctx, "check-quality", engineId, "verify-asset", nil)
	stepCertify := env.createProcessStep(t, ctx, "certify", engineId, "verify-asset", nil)
	env.linkFirstStep(t, ctx, processId, stepCheck)
	env.linkNextStep(t, ctx, stepCheck, stepCertify, "", false)

	assetId, err := env.store.CreateEntity(ctx, "Asset", metadata.Properties{
		PropQualifiedName: "asset-1",
	})
	require.NoError(t, err)
	reportId, err := env.store.CreateEntity(ctx, "Report", metadata.Properties{
		PropQualifiedName: "report-1",
	})
	require.NoError(t, err)

	_, firstActionId, err := env.expander.InitiateGovernanceActionProcess(
		ctx, govapi.InitiateGovernanceActionProcessRequest{
			UserId:               "alice",
			ProcessQualifiedName: "certify-asset",
			ActionTargets:        []govapi.NewActionTarget{{ActionTargetName: "asset", TargetId: assetId}},
		})
	require.NoError(t, err)

	// the completing engine produces a new target for the next step
	env.claimAndStart(t, ctx, "engine-host-1", firstActionId)
	require.NoError(t, env.lifecycle.RecordCompletionStatus(ctx, govapi.RecordCompletionRequest{
		UserId:           "engine-host-1",
		EngineActionId:   firstActionId,
		CompletionStatus: govapi.ActionStatusActioned,
		NewActionTargets: []govapi.NewActionTarget{{ActionTargetName: "report", TargetId: reportId}},
	}))

	certifyActions := env.actionsForStep(t, ctx, "certify-asset", stepCertify)
	require.Len(t, certifyActions, 1)
	action, err := env.query.GetEngineAction(ctx, certifyActions[0].Id)
	require.NoError(t, err)

	targets := map[string]string{}
	for _, target := range action.ActionTargets {
		targets[target.ActionTargetName] = target.TargetId
	}
	// the asset target is inherited from the previous action, the report
	// target comes from the completion
	assert.Equal(t, map[string]string{"asset": assetId, "report": reportId}, targets)
}
