// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

func TestCreateEngineActionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{})
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId: "alice",
	})
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:        "alice",
		QualifiedName: "ea-1",
	})
	assert.True(t, errors.IsInvalidParameter(err))
}

func TestCreateEngineActionUnknownEngine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "ghost-engine",
		RequestType:          "verify-asset",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "unknown governance engine")
}

func TestCreateEngineActionUnsupportedRequestType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	_, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "provision-asset",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "does not support request type")
}

func TestCreateEngineActionDuplicateQualifiedName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	request := govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	}
	_, err := env.lifecycle.CreateEngineAction(ctx, request)
	require.NoError(t, err)

	_, err = env.lifecycle.CreateEngineAction(ctx, request)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "already in use")
}

func TestCreateEngineActionLinksSourcesAndTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	sourceId, err := env.store.CreateEntity(ctx, "Asset", metadata.Properties{
		PropQualifiedName: "asset-source",
	})
	require.NoError(t, err)
	targetId, err := env.store.CreateEntity(ctx, "Asset", metadata.Properties{
		PropQualifiedName: "asset-target",
	})
	require.NoError(t, err)

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
		RequestSources:       []govapi.RequestSource{{SourceId: sourceId, RequestSourceName: "nightly-run"}},
		ActionTargets:        []govapi.NewActionTarget{{ActionTargetName: "asset", TargetId: targetId}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(govapi.ActionStatusRequested), env.actionStatus(t, ctx, engineActionId))

	action, err := env.query.GetEngineAction(ctx, engineActionId)
	require.NoError(t, err)
	require.Len(t, action.ActionTargets, 1)
	assert.Equal(t, "asset", action.ActionTargets[0].ActionTargetName)
	assert.Equal(t, targetId, action.ActionTargets[0].TargetId)
	assert.Nil(t, action.ActionTargets[0].Status)

	// source -> action provenance edge
	rels, err := env.store.GetRelationshipsPage(
		ctx, sourceId, RelTypeRequestSource, metadata.DirectionOutgoing, 0, 10)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, engineActionId, rels[0].ToId)
}

func TestApproveNotifiesEngineHosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)

	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))
	assert.Equal(t, string(govapi.ActionStatusApproved), env.actionStatus(t, ctx, engineActionId))
	assert.Equal(t, []string{engineActionId}, env.notifier.approvedIds())
}

func TestClaimRequiresApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)

	err = env.lifecycle.ClaimEngineAction(ctx, "engine-host-1", engineActionId)
	require.Error(t, err)
	assert.True(t, errors.IsPropertyServer(err))
	assert.Contains(t, err.Error(), string(govapi.ActionStatusRequested))
}

func TestClaimSecondClaimCitesOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))

	require.NoError(t, env.lifecycle.ClaimEngineAction(ctx, "engine-host-1", engineActionId))
	assert.Equal(t, string(govapi.ActionStatusWaiting), env.actionStatus(t, ctx, engineActionId))

	err = env.lifecycle.ClaimEngineAction(ctx, "engine-host-2", engineActionId)
	require.Error(t, err)
	assert.True(t, errors.IsPropertyServer(err))
	assert.Contains(t, err.Error(), "already claimed by engine-host-1")
}

func TestClaimConcurrentExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))

	const claimers = 16
	var wg sync.WaitGroup
	results := make([]error, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = env.lifecycle.ClaimEngineAction(ctx, "engine-host-"+string(rune('a'+i)), engineActionId)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.True(t, errors.IsPropertyServer(err))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestUpdateStatusRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))
	require.NoError(t, env.lifecycle.ClaimEngineAction(ctx, "engine-host-1", engineActionId))

	err = env.lifecycle.UpdateEngineActionStatus(ctx, "engine-host-2", engineActionId, govapi.ActionStatusActivating)
	require.Error(t, err)
	assert.True(t, errors.IsUserNotAuthorized(err))

	require.NoError(t, env.lifecycle.UpdateEngineActionStatus(
		ctx, "engine-host-1", engineActionId, govapi.ActionStatusActivating))
	assert.Equal(t, string(govapi.ActionStatusActivating), env.actionStatus(t, ctx, engineActionId))
}

func TestUpdateStatusNeverMovesBackward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))
	env.claimAndStart(t, ctx, "engine-host-1", engineActionId)

	// even the claiming engine cannot rewind the state machine
	err = env.lifecycle.UpdateEngineActionStatus(
		ctx, "engine-host-1", engineActionId, govapi.ActionStatusRequested)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Equal(t, string(govapi.ActionStatusInProgress), env.actionStatus(t, ctx, engineActionId))

	// re-asserting the current status is a rejected no-op, not a transition
	err = env.lifecycle.UpdateEngineActionStatus(
		ctx, "engine-host-1", engineActionId, govapi.ActionStatusInProgress)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))

	// terminal statuses are only reachable through completion
	err = env.lifecycle.UpdateEngineActionStatus(
		ctx, "engine-host-1", engineActionId, govapi.ActionStatusActioned)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
	assert.Equal(t, string(govapi.ActionStatusInProgress), env.actionStatus(t, ctx, engineActionId))
}

func TestRecordCompletionRequiresClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))

	err = env.lifecycle.RecordCompletionStatus(ctx, govapi.RecordCompletionRequest{
		UserId:           "engine-host-1",
		EngineActionId:   engineActionId,
		CompletionStatus: govapi.ActionStatusActioned,
	})
	require.Error(t, err)
	assert.True(t, errors.IsUserNotAuthorized(err))
}

func TestRecordCompletionRejectsNonTerminalStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.lifecycle.RecordCompletionStatus(ctx, govapi.RecordCompletionRequest{
		UserId:           "engine-host-1",
		EngineActionId:   "whatever",
		CompletionStatus: govapi.ActionStatusInProgress,
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidParameter(err))
}

func TestRecordCompletionStampsActionAndTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	targetId, err := env.store.CreateEntity(ctx, "Asset", metadata.Properties{
		PropQualifiedName: "asset-1",
	})
	require.NoError(t, err)

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
		ActionTargets:        []govapi.NewActionTarget{{ActionTargetName: "asset", TargetId: targetId}},
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))
	env.claimAndStart(t, ctx, "engine-host-1", engineActionId)

	err = env.lifecycle.RecordCompletionStatus(ctx, govapi.RecordCompletionRequest{
		UserId:            "engine-host-1",
		EngineActionId:    engineActionId,
		CompletionStatus:  govapi.ActionStatusActioned,
		OutputGuards:      []string{"PASS"},
		CompletionMessage: "all checks passed",
	})
	require.NoError(t, err)
	assert.Equal(t, string(govapi.ActionStatusActioned), env.actionStatus(t, ctx, engineActionId))

	action, err := env.query.GetEngineAction(ctx, engineActionId)
	require.NoError(t, err)
	assert.Equal(t, []string{"PASS"}, action.CompletionGuards)
	assert.Equal(t, "all checks passed", action.CompletionMessage)
	require.NotNil(t, action.CompletionTime)

	// the untouched target edge inherits the action's completion
	require.Len(t, action.ActionTargets, 1)
	require.NotNil(t, action.ActionTargets[0].Status)
	assert.Equal(t, govapi.ActionStatusActioned, *action.ActionTargets[0].Status)

	// completing twice is rejected
	err = env.lifecycle.RecordCompletionStatus(ctx, govapi.RecordCompletionRequest{
		UserId:           "engine-host-1",
		EngineActionId:   engineActionId,
		CompletionStatus: govapi.ActionStatusFailed,
	})
	require.Error(t, err)
	assert.True(t, errors.IsPropertyServer(err))
}

func TestCancelEngineAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
	})
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.ApproveEngineAction(ctx, "alice", engineActionId))
	require.NoError(t, env.lifecycle.ClaimEngineAction(ctx, "engine-host-1", engineActionId))

	// no ownership check: any admin may cancel
	require.NoError(t, env.lifecycle.CancelEngineAction(ctx, "admin", engineActionId))
	assert.Equal(t, string(govapi.ActionStatusCancelled), env.actionStatus(t, ctx, engineActionId))

	err = env.lifecycle.CancelEngineAction(ctx, "admin", engineActionId)
	require.Error(t, err)
	assert.True(t, errors.IsPropertyServer(err))
}

func TestRunEngineActionIfReadyWaitsOnMandatoryGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGovernanceEngine(t, ctx, "quality-engine", "verify-asset")

	engineActionId, err := env.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               "alice",
		QualifiedName:        "ea-1",
		GovernanceEngineName: "quality-engine",
		RequestType:          "verify-asset",
		MandatoryGuards:      []string{"X-DONE", "Y-DONE"},
		ReceivedGuards:       []string{"X-DONE"},
	})
	require.NoError(t, err)

	require.NoError(t, env.lifecycle.RunEngineActionIfReady(ctx, "alice", engineActionId))
	assert.Equal(t, string(govapi.ActionStatusRequested), env.actionStatus(t, ctx, engineActionId))

	// the second guard arrives, readiness flips
	require.NoError(t, env.store.UpdateEntityProperties(ctx, engineActionId,
		metadata.Properties{PropReceivedGuards: []string{"X-DONE", "Y-DONE"}}, false))
	require.NoError(t, env.lifecycle.RunEngineActionIfReady(ctx, "alice", engineActionId))
	assert.Equal(t, string(govapi.ActionStatusApproved), env.actionStatus(t, ctx, engineActionId))

	// repeat triggers on a non REQUESTED action are a no-op
	require.NoError(t, env.lifecycle.RunEngineActionIfReady(ctx, "alice", engineActionId))
	assert.Equal(t, string(govapi.ActionStatusApproved), env.actionStatus(t, ctx, engineActionId))
}

func TestGetMissingEngineActionIsServerError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.lifecycle.ApproveEngineAction(ctx, "alice", "no-such-id")
	require.Error(t, err)
	assert.True(t, errors.IsPropertyServer(err))
	assert.Contains(t, err.Error(), "missing engine action")
}
