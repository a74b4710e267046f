// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"time"

	cerrors "github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

// EngineActionLifecycle owns the engine action state machine:
// create, approve, claim, status update, completion and cancel.
//
// Waiting is never an in-process affair, it is persisted state polled by
// external engine hosts. The only atomicity this component needs from the
// store is the conditional property update, which carries the claim
// protocol and the forward-only status invariant.
type EngineActionLifecycle struct {
	store    metadata.Store
	security SecurityVerifier
	notifier ActionNotifier
	cascade  CascadeHandler
	logger   log.Logger
}

func NewEngineActionLifecycle(
	store metadata.Store, security SecurityVerifier, notifier ActionNotifier, logger log.Logger,
) *EngineActionLifecycle {
	return &EngineActionLifecycle{
		store:    store,
		security: security,
		notifier: notifier,
		logger:   logger,
	}
}

// SetCascadeHandler wires in the process expander. The lifecycle and the
// expander reference each other, so this is set after construction.
func (l *EngineActionLifecycle) SetCascadeHandler(cascade CascadeHandler) {
	l.cascade = cascade
}

// CreateEngineAction persists a new engine action in REQUESTED status and
// links its request sources and action targets. Returns the new id.
func (l *EngineActionLifecycle) CreateEngineAction(
	ctx context.Context, request govapi.CreateEngineActionRequest,
) (string, error) {
	if request.UserId == "" {
		return "", cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if request.QualifiedName == "" {
		return "", cerrors.NewInvalidParameter("qualifiedName", "qualifiedName cannot be empty")
	}
	if request.GovernanceEngineName == "" {
		return "", cerrors.NewInvalidParameter("governanceEngineName", "governanceEngineName cannot be empty")
	}
	if request.RequestType == "" {
		return "", cerrors.NewInvalidParameter("requestType", "requestType cannot be empty")
	}
	if err := l.security.ValidateUserForOperation(ctx, request.UserId, "createEngineAction"); err != nil {
		return "", err
	}

	existing, err := l.store.GetEntityByUniqueName(
		ctx, EntityTypeEngineAction, metadata.PropertyQualifiedName, request.QualifiedName)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", cerrors.NewInvalidParameter("qualifiedName",
			"qualified name %v is already in use by engine action %v", request.QualifiedName, existing.Id)
	}

	engineId, err := l.resolveGovernanceEngine(ctx, request.GovernanceEngineName, request.RequestType)
	if err != nil {
		return "", err
	}

	props := metadata.Properties{
		PropQualifiedName:        request.QualifiedName,
		PropActionStatus:         string(govapi.ActionStatusRequested),
		PropGovernanceEngineId:   engineId,
		PropGovernanceEngineName: request.GovernanceEngineName,
		PropRequestType:          request.RequestType,
		PropRequesterUserId:      request.UserId,
	}
	if request.DomainIdentifier != 0 {
		props[PropDomainIdentifier] = request.DomainIdentifier
	}
	if request.DisplayName != "" {
		props[PropDisplayName] = request.DisplayName
	}
	if request.Description != "" {
		props[PropDescription] = request.Description
	}
	if request.RequestedStartTime != nil {
		props[PropRequestedStartTime] = *request.RequestedStartTime
	}
	if len(request.RequestParameters) > 0 {
		props[PropRequestParameters] = request.RequestParameters
	}
	if len(request.MandatoryGuards) > 0 {
		props[PropMandatoryGuards] = request.MandatoryGuards
	}
	if len(request.ReceivedGuards) > 0 {
		props[PropReceivedGuards] = request.ReceivedGuards
	}
	if request.ProcessName != "" {
		props[PropProcessName] = request.ProcessName
	}
	if request.ProcessStepId != "" {
		props[PropProcessStepId] = request.ProcessStepId
	}
	if request.ProcessStepName != "" {
		props[PropProcessStepName] = request.ProcessStepName
	}
	if request.AnchorId != "" {
		props[PropAnchorId] = request.AnchorId
	}

	engineActionId, err := l.store.CreateEntity(ctx, EntityTypeEngineAction, props)
	if err != nil {
		return "", cerrors.NewPropertyServer("failed to create engine action: %v", err)
	}

	for _, source := range request.RequestSources {
		var relProps metadata.Properties
		if source.RequestSourceName != "" {
			relProps = metadata.Properties{PropRequestSourceName: source.RequestSourceName}
		}
		_, err = l.store.CreateRelationship(ctx, RelTypeRequestSource, source.SourceId, engineActionId, relProps)
		if err != nil {
			return "", cerrors.NewPropertyServer(
				"failed to link request source %v to engine action %v: %v", source.SourceId, engineActionId, err)
		}
	}
	for _, target := range request.ActionTargets {
		var relProps metadata.Properties
		if target.ActionTargetName != "" {
			relProps = metadata.Properties{PropActionTargetName: target.ActionTargetName}
		}
		_, err = l.store.CreateRelationship(ctx, RelTypeTargetForAction, engineActionId, target.TargetId, relProps)
		if err != nil {
			return "", cerrors.NewPropertyServer(
				"failed to link action target %v to engine action %v: %v", target.TargetId, engineActionId, err)
		}
	}

	l.logger.Info("created engine action",
		tag.EngineActionId(engineActionId),
		tag.QualifiedName(request.QualifiedName),
		tag.GovernanceEngine(request.GovernanceEngineName),
		tag.RequestType(request.RequestType))
	return engineActionId, nil
}

// resolveGovernanceEngine maps an engine name to its id and checks the
// engine advertises the request type
func (l *EngineActionLifecycle) resolveGovernanceEngine(
	ctx context.Context, engineName string, requestType string,
) (string, error) {
	engine, err := l.store.GetEntityByUniqueName(
		ctx, EntityTypeGovernanceEngine, metadata.PropertyQualifiedName, engineName)
	if err != nil {
		return "", err
	}
	if engine == nil {
		return "", cerrors.NewInvalidParameter("governanceEngineName",
			"unknown governance engine %v", engineName)
	}

	it := metadata.NewRelationshipIterator(
		l.store, engine.Id, RelTypeSupportedRequestType, metadata.DirectionOutgoing, metadata.DefaultPageSize)
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return "", err
		}
		if rel == nil {
			break
		}
		if rel.Properties.GetString(PropRequestType) == requestType {
			return engine.Id, nil
		}
	}
	return "", cerrors.NewInvalidParameter("requestType",
		"governance engine %v does not support request type %v", engineName, requestType)
}

// ApproveEngineAction moves the action to APPROVED, which makes it eligible
// for pickup by an engine host
func (l *EngineActionLifecycle) ApproveEngineAction(
	ctx context.Context, userId string, engineActionId string,
) error {
	if userId == "" {
		return cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if engineActionId == "" {
		return cerrors.NewInvalidParameter("engineActionId", "engineActionId cannot be empty")
	}
	if err := l.security.ValidateUserForOperation(ctx, userId, "approveEngineAction"); err != nil {
		return err
	}

	l.logger.Info("approving engine action",
		tag.EngineActionId(engineActionId), tag.UserId(userId))

	err := l.UpdateEngineActionStatus(ctx, userId, engineActionId, govapi.ActionStatusApproved)
	if err != nil {
		return err
	}
	if l.notifier != nil {
		l.notifier.NotifyActionApproved(ctx, engineActionId)
	}
	return nil
}

// RunEngineActionIfReady recomputes the set of received guards and approves
// the action when every mandatory guard is present. An action with unmet
// mandatory guards stays parked in REQUESTED until more predecessors
// complete; nothing blocks in process.
func (l *EngineActionLifecycle) RunEngineActionIfReady(
	ctx context.Context, userId string, engineActionId string,
) error {
	entity, err := l.getEngineActionEntity(ctx, engineActionId)
	if err != nil {
		return err
	}
	if entity.Properties.GetString(PropActionStatus) != string(govapi.ActionStatusRequested) {
		// already picked up on an earlier trigger
		return nil
	}

	receivedGuards, err := l.collectReceivedGuards(ctx, entity)
	if err != nil {
		return err
	}
	mandatoryGuards := entity.Properties.GetStringSlice(PropMandatoryGuards)

	if !GuardsSatisfied(mandatoryGuards, receivedGuards) {
		l.logger.Debug("engine action waiting for mandatory guards",
			tag.EngineActionId(engineActionId),
			tag.Value(mandatoryGuards))
		if len(receivedGuards) > 0 {
			// persist the accumulated guards so readers can see progress
			return l.store.UpdateEntityProperties(ctx, entity.Id,
				metadata.Properties{PropReceivedGuards: receivedGuards}, false)
		}
		return nil
	}

	if len(receivedGuards) > 0 {
		err = l.store.UpdateEntityProperties(ctx, entity.Id,
			metadata.Properties{PropReceivedGuards: receivedGuards}, false)
		if err != nil {
			return err
		}
	}
	return l.ApproveEngineAction(ctx, userId, engineActionId)
}

// collectReceivedGuards unions the guards already stored on the action with
// the guard labels of incoming NextEngineAction edges. Only incoming edges
// are read so the walk never moves forward along the chain.
func (l *EngineActionLifecycle) collectReceivedGuards(
	ctx context.Context, entity *metadata.Entity,
) ([]string, error) {
	seen := map[string]bool{}
	var guards []string
	for _, g := range entity.Properties.GetStringSlice(PropReceivedGuards) {
		if !seen[g] {
			seen[g] = true
			guards = append(guards, g)
		}
	}

	it := metadata.NewRelationshipIterator(
		l.store, entity.Id, RelTypeNextEngineAction, metadata.DirectionIncoming, metadata.DefaultPageSize)
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			break
		}
		if rel.FromId == entity.Id {
			// self referencing edges never contribute guards
			continue
		}
		guard := rel.Properties.GetString(PropGuard)
		if guard == "" {
			// a nil guard label is unconditional, it contributes nothing
			continue
		}
		if !seen[guard] {
			seen[guard] = true
			guards = append(guards, guard)
		}
	}
	return guards, nil
}

// ClaimEngineAction takes exclusive ownership of an APPROVED action for the
// calling engine host. The check and the write are one conditional update
// at the store layer: for concurrent claims exactly one caller wins.
func (l *EngineActionLifecycle) ClaimEngineAction(
	ctx context.Context, userId string, engineActionId string,
) error {
	if userId == "" {
		return cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if engineActionId == "" {
		return cerrors.NewInvalidParameter("engineActionId", "engineActionId cannot be empty")
	}
	if err := l.security.ValidateUserForOperation(ctx, userId, "claimEngineAction"); err != nil {
		return err
	}

	entity, err := l.getEngineActionEntity(ctx, engineActionId)
	if err != nil {
		return err
	}

	ok, err := l.store.UpdateEntityPropertiesConditionally(ctx, entity.Id,
		metadata.Properties{
			PropActionStatus:           string(govapi.ActionStatusApproved),
			PropProcessingEngineUserId: nil,
		},
		metadata.Properties{
			PropActionStatus:           string(govapi.ActionStatusWaiting),
			PropProcessingEngineUserId: userId,
		})
	if err != nil {
		return cerrors.NewPropertyServer("failed to claim engine action %v: %v", engineActionId, err)
	}
	if !ok {
		// condition failed: either not yet approved, or another engine won
		current, err := l.getEngineActionEntity(ctx, engineActionId)
		if err != nil {
			return err
		}
		owner := current.Properties.GetString(PropProcessingEngineUserId)
		if owner != "" {
			return cerrors.NewPropertyServer(
				"invalid engine action status: engine action %v is already claimed by %v",
				engineActionId, owner)
		}
		return cerrors.NewPropertyServer(
			"invalid engine action status: engine action %v is in status %v, claim requires %v",
			engineActionId, current.Properties.GetString(PropActionStatus), govapi.ActionStatusApproved)
	}

	l.logger.Info("claimed engine action",
		tag.EngineActionId(engineActionId), tag.UserId(userId))
	return nil
}

// UpdateEngineActionStatus moves the action forward through the state
// machine. Permitted when the action is unclaimed and the new status is
// APPROVED, or when the caller is the claiming engine.
func (l *EngineActionLifecycle) UpdateEngineActionStatus(
	ctx context.Context, userId string, engineActionId string, status govapi.ActionStatus,
) error {
	if userId == "" {
		return cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if !status.IsValid() {
		return cerrors.NewInvalidParameter("status", "unknown engine action status %v", status)
	}
	if err := l.security.ValidateUserForOperation(ctx, userId, "updateEngineActionStatus"); err != nil {
		return err
	}

	entity, err := l.getEngineActionEntity(ctx, engineActionId)
	if err != nil {
		return err
	}

	currentStatus := govapi.ActionStatus(entity.Properties.GetString(PropActionStatus))
	if !currentStatus.IsActive() {
		return cerrors.NewPropertyServer(
			"invalid engine action status: engine action %v already completed with status %v",
			engineActionId, currentStatus)
	}

	owner := entity.Properties.GetString(PropProcessingEngineUserId)
	allowed := (owner == "" && status == govapi.ActionStatusApproved) || userId == owner
	if !allowed {
		return cerrors.NewUserNotAuthorized(userId,
			"engine action %v is owned by %v", engineActionId, owner)
	}

	if !currentStatus.MovesForwardTo(status) {
		return cerrors.NewInvalidParameter("status",
			"engine action %v cannot move from %v to %v", engineActionId, currentStatus, status)
	}

	updates := metadata.Properties{
		PropActionStatus: string(status),
	}
	if status == govapi.ActionStatusInProgress {
		updates[PropStartTime] = time.Now().Unix()
	}

	// conditioned on the status we read so the state machine never moves backward
	ok, err := l.store.UpdateEntityPropertiesConditionally(ctx, entity.Id,
		metadata.Properties{PropActionStatus: string(currentStatus)}, updates)
	if err != nil {
		return cerrors.NewPropertyServer(
			"failed to update status of engine action %v: %v", engineActionId, err)
	}
	if !ok {
		return cerrors.NewPropertyServer(
			"invalid engine action status: engine action %v changed concurrently", engineActionId)
	}

	l.logger.Info("updated engine action status",
		tag.EngineActionId(engineActionId),
		tag.ActionStatus(string(status)),
		tag.UserId(userId))
	return nil
}

// RecordCompletionStatus records the terminal status and output guards of a
// claimed action, completes its untouched action targets, and hands the
// output guards to the cascade so follow-on actions can fire.
//
// There is no transactional boundary across these store calls: a failure
// part way leaves earlier writes in place, and re-entry is safe because the
// cascade's dedup rule reuses pending actions.
func (l *EngineActionLifecycle) RecordCompletionStatus(
	ctx context.Context, request govapi.RecordCompletionRequest,
) error {
	if request.UserId == "" {
		return cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if !request.CompletionStatus.IsComplete() {
		return cerrors.NewInvalidParameter("completionStatus",
			"completion status must be terminal, got %v", request.CompletionStatus)
	}
	if err := l.security.ValidateUserForOperation(ctx, request.UserId, "recordCompletionStatus"); err != nil {
		return err
	}

	entity, err := l.getEngineActionEntity(ctx, request.EngineActionId)
	if err != nil {
		return err
	}

	currentStatus := govapi.ActionStatus(entity.Properties.GetString(PropActionStatus))
	if !currentStatus.IsActive() {
		return cerrors.NewPropertyServer(
			"invalid engine action status: engine action %v already completed with status %v",
			request.EngineActionId, currentStatus)
	}
	owner := entity.Properties.GetString(PropProcessingEngineUserId)
	if request.UserId != owner {
		return cerrors.NewUserNotAuthorized(request.UserId,
			"engine action %v is owned by %v", request.EngineActionId, owner)
	}

	completionTime := time.Now().Unix()
	updates := metadata.Properties{
		PropActionStatus:   string(request.CompletionStatus),
		PropCompletionTime: completionTime,
	}
	if len(request.OutputGuards) > 0 {
		updates[PropCompletionGuards] = request.OutputGuards
	}
	if request.CompletionMessage != "" {
		updates[PropCompletionMessage] = request.CompletionMessage
	}
	ok, err := l.store.UpdateEntityPropertiesConditionally(ctx, entity.Id,
		metadata.Properties{PropActionStatus: string(currentStatus)}, updates)
	if err != nil {
		return cerrors.NewPropertyServer(
			"failed to record completion of engine action %v: %v", request.EngineActionId, err)
	}
	if !ok {
		return cerrors.NewPropertyServer(
			"invalid engine action status: engine action %v changed concurrently", request.EngineActionId)
	}

	err = l.completeUntouchedActionTargets(ctx, entity.Id, request.CompletionStatus, completionTime, request.CompletionMessage)
	if err != nil {
		return err
	}

	l.logger.Info("recorded engine action completion",
		tag.EngineActionId(request.EngineActionId),
		tag.ActionStatus(string(request.CompletionStatus)),
		tag.Value(request.OutputGuards))

	if l.cascade == nil {
		return nil
	}
	newTargets := map[string]string{}
	for _, t := range request.NewActionTargets {
		newTargets[t.ActionTargetName] = t.TargetId
	}
	return l.cascade.InitiateNextEngineActions(ctx, NextEngineActionsInput{
		UserId:           request.UserId,
		PreviousActionId: entity.Id,
		PreviousStepId:   entity.Properties.GetString(PropProcessStepId),
		AnchorId:         entity.Properties.GetString(PropAnchorId),
		ProcessName:      entity.Properties.GetString(PropProcessName),
		OutputGuards:     request.OutputGuards,
		NewActionTargets: newTargets,
	})
}

// completeUntouchedActionTargets stamps every target edge that has no
// status of its own with the action's completion status and time
func (l *EngineActionLifecycle) completeUntouchedActionTargets(
	ctx context.Context, engineActionId string, status govapi.ActionStatus, completionTime int64, message string,
) error {
	it := metadata.NewRelationshipIterator(
		l.store, engineActionId, RelTypeTargetForAction, metadata.DirectionOutgoing, metadata.DefaultPageSize)
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if rel == nil {
			return nil
		}
		if rel.Properties.Has(PropActionStatus) {
			// the governance service tracked this target itself
			continue
		}
		updates := metadata.Properties{
			PropActionStatus:   string(status),
			PropCompletionTime: completionTime,
		}
		if message != "" {
			updates[PropCompletionMessage] = message
		}
		err = l.store.UpdateRelationshipProperties(ctx, rel.Id, updates)
		if err != nil {
			return cerrors.NewPropertyServer(
				"failed to complete action target %v of engine action %v: %v", rel.Id, engineActionId, err)
		}
	}
}

// CancelEngineAction administratively terminates an active action.
// There is deliberately no ownership check.
func (l *EngineActionLifecycle) CancelEngineAction(
	ctx context.Context, userId string, engineActionId string,
) error {
	if userId == "" {
		return cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if err := l.security.ValidateUserForOperation(ctx, userId, "cancelEngineAction"); err != nil {
		return err
	}

	entity, err := l.getEngineActionEntity(ctx, engineActionId)
	if err != nil {
		return err
	}
	currentStatus := govapi.ActionStatus(entity.Properties.GetString(PropActionStatus))
	if !currentStatus.IsActive() {
		return cerrors.NewPropertyServer(
			"invalid engine action status: engine action %v already completed with status %v",
			engineActionId, currentStatus)
	}

	err = l.store.UpdateEntityProperties(ctx, entity.Id, metadata.Properties{
		PropActionStatus:   string(govapi.ActionStatusCancelled),
		PropCompletionTime: time.Now().Unix(),
	}, false)
	if err != nil {
		return cerrors.NewPropertyServer(
			"failed to cancel engine action %v: %v", engineActionId, err)
	}

	l.logger.Info("cancelled engine action",
		tag.EngineActionId(engineActionId), tag.UserId(userId))
	return nil
}

func (l *EngineActionLifecycle) getEngineActionEntity(
	ctx context.Context, engineActionId string,
) (*metadata.Entity, error) {
	if engineActionId == "" {
		return nil, cerrors.NewInvalidParameter("engineActionId", "engineActionId cannot be empty")
	}
	entity, err := l.store.GetEntityById(ctx, engineActionId, EntityTypeEngineAction)
	if err != nil {
		return nil, cerrors.NewPropertyServer("failed to fetch engine action %v: %v", engineActionId, err)
	}
	if entity == nil {
		return nil, cerrors.NewPropertyServer("missing engine action %v", engineActionId)
	}
	return entity, nil
}
