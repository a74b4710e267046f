// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"sync"
	"time"

	cerrors "github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/common/uuid"
	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

// ProcessExpander turns declarative process and action type templates into
// chains of engine actions connected by guard labelled edges, and computes
// the follow-on actions when a predecessor completes.
type ProcessExpander struct {
	store     metadata.Store
	lifecycle *EngineActionLifecycle
	guards    *GuardEvaluator
	logger    log.Logger

	// serializes the search-then-create of getEngineActionForProcessStep
	// per (processName, processStepId) so concurrent completions of sibling
	// predecessors cannot spawn duplicate actions for the same step
	stepLocks     map[string]*sync.Mutex
	stepLocksLock sync.Mutex
}

var _ CascadeHandler = (*ProcessExpander)(nil)

func NewProcessExpander(
	store metadata.Store, lifecycle *EngineActionLifecycle, logger log.Logger,
) *ProcessExpander {
	return &ProcessExpander{
		store:     store,
		lifecycle: lifecycle,
		guards:    NewGuardEvaluator(store),
		logger:    logger,
		stepLocks: map[string]*sync.Mutex{},
	}
}

// executorBinding is the resolved Executor relationship of an action type
// or process step
type executorBinding struct {
	engineId    string
	engineName  string
	requestType string

	requestParameters      map[string]string
	requestParameterRename map[string]string
	requestParameterFilter []string
	actionTargetRename     map[string]string
	actionTargetFilter     []string
}

// InitiateGovernanceActionType expands a standalone action type template
// into a single engine action and runs it if ready.
func (e *ProcessExpander) InitiateGovernanceActionType(
	ctx context.Context, request govapi.InitiateGovernanceActionTypeRequest,
) (string, error) {
	if request.UserId == "" {
		return "", cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if request.ActionTypeQualifiedName == "" {
		return "", cerrors.NewInvalidParameter("actionTypeQualifiedName", "actionTypeQualifiedName cannot be empty")
	}

	actionType, err := e.store.GetEntityByUniqueName(
		ctx, EntityTypeGovernanceActionType, metadata.PropertyQualifiedName, request.ActionTypeQualifiedName)
	if err != nil {
		return "", err
	}
	if actionType == nil {
		return "", cerrors.NewInvalidParameter("actionTypeQualifiedName",
			"unknown governance action type %v", request.ActionTypeQualifiedName)
	}

	executor, err := e.resolveExecutor(ctx, actionType.Id, request.ActionTypeQualifiedName)
	if err != nil {
		return "", err
	}

	predefinedTargets, err := e.predefinedActionTargets(ctx, actionType.Id)
	if err != nil {
		return "", err
	}
	callerTargets := actionTargetsToMap(request.ActionTargets)

	requestParameters := ResolveOverrides(
		executor.requestParameterRename, executor.requestParameterFilter,
		executor.requestParameters, request.RequestParameters)
	actionTargets := ResolveOverrides(
		executor.actionTargetRename, executor.actionTargetFilter,
		predefinedTargets, callerTargets)

	engineActionId, err := e.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               request.UserId,
		QualifiedName:        request.ActionTypeQualifiedName + ":" + uuid.MustNewUUID().String(),
		DomainIdentifier:     actionType.Properties.GetInt(PropDomainIdentifier),
		DisplayName:          actionType.Properties.GetString(PropDisplayName),
		Description:          actionType.Properties.GetString(PropDescription),
		RequestedStartTime:   request.RequestedStartTime,
		GovernanceEngineName: executor.engineName,
		RequestType:          executor.requestType,
		RequestParameters:    requestParameters,
		RequestSources:       request.RequestSources,
		ActionTargets:        mapToActionTargets(actionTargets),
	})
	if err != nil {
		return "", err
	}

	err = e.lifecycle.RunEngineActionIfReady(ctx, request.UserId, engineActionId)
	if err != nil {
		return "", err
	}
	return engineActionId, nil
}

// InitiateGovernanceActionProcess creates a process instance for the named
// process template and expands its first step. The process instance id is
// the anchor for every engine action spawned from this run.
func (e *ProcessExpander) InitiateGovernanceActionProcess(
	ctx context.Context, request govapi.InitiateGovernanceActionProcessRequest,
) (processInstanceId string, firstEngineActionId string, retErr error) {
	if request.UserId == "" {
		return "", "", cerrors.NewInvalidParameter("userId", "userId cannot be empty")
	}
	if request.ProcessQualifiedName == "" {
		return "", "", cerrors.NewInvalidParameter("processQualifiedName", "processQualifiedName cannot be empty")
	}

	process, err := e.store.GetEntityByUniqueName(
		ctx, EntityTypeProcess, metadata.PropertyQualifiedName, request.ProcessQualifiedName)
	if err != nil {
		return "", "", err
	}
	if process == nil {
		return "", "", cerrors.NewInvalidParameter("processQualifiedName",
			"unknown governance action process %v", request.ProcessQualifiedName)
	}

	firstStepId, err := e.resolveFirstStep(ctx, process.Id, request.ProcessQualifiedName)
	if err != nil {
		return "", "", err
	}

	processInstanceId, err = e.store.CreateEntity(ctx, EntityTypeProcessInstance, metadata.Properties{
		PropQualifiedName:    request.ProcessQualifiedName + ":" + uuid.MustNewUUID().String(),
		PropProcessName:      request.ProcessQualifiedName,
		PropDisplayName:      process.Properties.GetString(PropDisplayName),
		PropRequesterUserId:  request.UserId,
		PropProcessStartTime: time.Now().Unix(),
	})
	if err != nil {
		return "", "", cerrors.NewPropertyServer(
			"failed to create process instance for %v: %v", request.ProcessQualifiedName, err)
	}

	predefinedTargets, err := e.predefinedActionTargets(ctx, process.Id)
	if err != nil {
		return "", "", err
	}
	targets := overlayMaps(predefinedTargets, actionTargetsToMap(request.ActionTargets))

	firstEngineActionId, err = e.prepareEngineActionFromProcessStep(ctx, stepExpansion{
		userId:             request.UserId,
		processName:        request.ProcessQualifiedName,
		anchorId:           processInstanceId,
		processStepId:      firstStepId,
		guard:              nil, // the first step is unconditional
		mandatoryGuard:     false,
		previousActionId:   "",
		requestParameters:  request.RequestParameters,
		actionTargets:      targets,
		requestSources:     request.RequestSources,
		requestedStartTime: request.RequestedStartTime,
	})
	if err != nil {
		return "", "", err
	}

	e.logger.Info("initiated governance action process",
		tag.ProcessName(request.ProcessQualifiedName),
		tag.ProcessInstanceId(processInstanceId),
		tag.EngineActionId(firstEngineActionId))
	return processInstanceId, firstEngineActionId, nil
}

type stepExpansion struct {
	userId        string
	processName   string
	anchorId      string
	processStepId string

	// guard is the label of the incoming edge; nil means unconditional
	guard          *string
	mandatoryGuard bool

	previousActionId   string
	requestParameters  map[string]string
	actionTargets      map[string]string
	requestSources     []govapi.RequestSource
	requestedStartTime *int64
}

// prepareEngineActionFromProcessStep creates (or reuses) the engine action
// for one process step, links it to its predecessor, and runs it if ready
func (e *ProcessExpander) prepareEngineActionFromProcessStep(
	ctx context.Context, input stepExpansion,
) (string, error) {
	step, err := e.store.GetEntityById(ctx, input.processStepId, EntityTypeProcessStep)
	if err != nil {
		return "", cerrors.NewPropertyServer("failed to fetch process step %v: %v", input.processStepId, err)
	}
	if step == nil {
		return "", cerrors.NewPropertyServer("missing process step %v", input.processStepId)
	}

	executor, err := e.resolveExecutor(ctx, step.Id, step.Properties.GetString(PropQualifiedName))
	if err != nil {
		return "", err
	}

	mandatoryGuards, err := e.guards.MandatoryGuardsForStep(ctx, step.Id)
	if err != nil {
		return "", err
	}

	// action targets merge from three sources, most specific last:
	// caller supplied, inherited from the previous engine action, predefined
	// on the step itself
	previousTargets := map[string]string{}
	if input.previousActionId != "" {
		previousTargets, err = e.actionTargetsOf(ctx, input.previousActionId)
		if err != nil {
			return "", err
		}
	}
	stepTargets, err := e.predefinedActionTargets(ctx, step.Id)
	if err != nil {
		return "", err
	}
	actionTargets := ResolveOverrides(
		executor.actionTargetRename, executor.actionTargetFilter,
		input.actionTargets, previousTargets, stepTargets)

	requestParameters := ResolveOverrides(
		executor.requestParameterRename, executor.requestParameterFilter,
		executor.requestParameters, input.requestParameters)

	var receivedGuards []string
	if input.guard != nil {
		receivedGuards = []string{*input.guard}
	}

	engineActionId, err := e.getEngineActionForProcessStep(ctx, getOrCreateActionInput{
		userId:             input.userId,
		processName:        input.processName,
		anchorId:           input.anchorId,
		step:               step,
		executor:           executor,
		mandatoryGuards:    mandatoryGuards,
		receivedGuards:     receivedGuards,
		requestParameters:  requestParameters,
		actionTargets:      actionTargets,
		requestSources:     input.requestSources,
		requestedStartTime: input.requestedStartTime,
	})
	if err != nil {
		return "", err
	}
	if engineActionId == "" {
		// ignoreMultipleTriggers dropped the trigger
		return "", nil
	}

	if input.previousActionId != "" {
		if input.previousActionId == engineActionId {
			return "", cerrors.NewInvalidParameter("previousActionId",
				"engine action %v cannot be its own follow-on action", engineActionId)
		}
		relProps := metadata.Properties{PropMandatoryGuard: input.mandatoryGuard}
		if input.guard != nil {
			relProps[PropGuard] = *input.guard
		}
		_, err = e.store.CreateRelationship(
			ctx, RelTypeNextEngineAction, input.previousActionId, engineActionId, relProps)
		if err != nil {
			return "", cerrors.NewPropertyServer(
				"failed to link engine action %v to follow-on action %v: %v",
				input.previousActionId, engineActionId, err)
		}
	}

	err = e.lifecycle.RunEngineActionIfReady(ctx, input.userId, engineActionId)
	if err != nil {
		return "", err
	}
	return engineActionId, nil
}

type getOrCreateActionInput struct {
	userId             string
	processName        string
	anchorId           string
	step               *metadata.Entity
	executor           *executorBinding
	mandatoryGuards    []string
	receivedGuards     []string
	requestParameters  map[string]string
	actionTargets      map[string]string
	requestSources     []govapi.RequestSource
	requestedStartTime *int64
}

// getEngineActionForProcessStep reuses a pending engine action for this
// (process, step) pair when one exists, so guards from converging branches
// accumulate onto a single action instead of spawning duplicates.
// Returns "" when ignoreMultipleTriggers suppresses a repeat trigger.
func (e *ProcessExpander) getEngineActionForProcessStep(
	ctx context.Context, input getOrCreateActionInput,
) (string, error) {
	lock := e.stepLock(input.processName, input.step.Id)
	lock.Lock()
	defer lock.Unlock()

	it := metadata.NewEntityIterator(e.store, EntityTypeEngineAction,
		metadata.Properties{PropProcessName: input.processName}, metadata.DefaultPageSize)

	var matches []*metadata.Entity
	for {
		entity, err := it.Next(ctx)
		if err != nil {
			return "", err
		}
		if entity == nil {
			break
		}
		if entity.Properties.GetString(PropProcessStepId) != input.step.Id {
			continue
		}
		matches = append(matches, entity)
	}

	if len(matches) > 0 {
		if input.step.Properties.GetBool(PropIgnoreMultipleTriggers) {
			// only-fire-once policy: drop the trigger, this is not an error
			e.logger.Debug("ignoring repeat trigger for process step",
				tag.ProcessName(input.processName),
				tag.ProcessStepId(input.step.Id))
			return "", nil
		}
		for _, entity := range matches {
			if entity.Properties.GetString(PropActionStatus) == string(govapi.ActionStatusRequested) {
				// converging branch: accumulate guards onto the pending action
				err := e.accumulateReceivedGuards(ctx, entity, input.receivedGuards)
				if err != nil {
					return "", err
				}
				return entity.Id, nil
			}
		}
	}

	stepName := input.step.Properties.GetString(PropDisplayName)
	if stepName == "" {
		stepName = input.step.Properties.GetString(PropQualifiedName)
	}
	return e.lifecycle.CreateEngineAction(ctx, govapi.CreateEngineActionRequest{
		UserId:               input.userId,
		QualifiedName:        input.processName + ":" + stepName + ":" + uuid.MustNewUUID().String(),
		DomainIdentifier:     input.step.Properties.GetInt(PropDomainIdentifier),
		DisplayName:          stepName,
		Description:          input.step.Properties.GetString(PropDescription),
		RequestedStartTime:   input.requestedStartTime,
		GovernanceEngineName: input.executor.engineName,
		RequestType:          input.executor.requestType,
		RequestParameters:    input.requestParameters,
		MandatoryGuards:      input.mandatoryGuards,
		ReceivedGuards:       input.receivedGuards,
		ProcessName:          input.processName,
		ProcessStepId:        input.step.Id,
		ProcessStepName:      stepName,
		AnchorId:             input.anchorId,
		RequestSources:       input.requestSources,
		ActionTargets:        mapToActionTargets(input.actionTargets),
	})
}

func (e *ProcessExpander) accumulateReceivedGuards(
	ctx context.Context, entity *metadata.Entity, newGuards []string,
) error {
	if len(newGuards) == 0 {
		return nil
	}
	existing := entity.Properties.GetStringSlice(PropReceivedGuards)
	seen := map[string]bool{}
	for _, g := range existing {
		seen[g] = true
	}
	merged := existing
	for _, g := range newGuards {
		if !seen[g] {
			seen[g] = true
			merged = append(merged, g)
		}
	}
	if len(merged) == len(existing) {
		return nil
	}
	return e.store.UpdateEntityProperties(ctx, entity.Id,
		metadata.Properties{PropReceivedGuards: merged}, false)
}

// InitiateNextEngineActions is the completion cascade: fire every successor
// step whose edge guard is unconditional or matched by an output guard, and
// stamp the process instance when the chain has fully terminated.
func (e *ProcessExpander) InitiateNextEngineActions(
	ctx context.Context, input NextEngineActionsInput,
) error {
	if input.PreviousStepId == "" {
		// the completed action was not part of a process
		return nil
	}

	outputGuards := map[string]bool{}
	for _, g := range input.OutputGuards {
		outputGuards[g] = true
	}

	it := metadata.NewRelationshipIterator(
		e.store, input.PreviousStepId, RelTypeNextProcessStep, metadata.DirectionOutgoing, metadata.DefaultPageSize)
	edgeCount := 0
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if rel == nil {
			break
		}
		edgeCount++

		var guard *string
		if rel.Properties.Has(PropGuard) {
			g := rel.Properties.GetString(PropGuard)
			guard = &g
		}
		// an edge with no guard label is unconditional
		if guard != nil && !outputGuards[*guard] {
			continue
		}

		_, err = e.prepareEngineActionFromProcessStep(ctx, stepExpansion{
			userId:           input.UserId,
			processName:      input.ProcessName,
			anchorId:         input.AnchorId,
			processStepId:    rel.ToId,
			guard:            guard,
			mandatoryGuard:   rel.Properties.GetBool(PropMandatoryGuard),
			previousActionId: input.PreviousActionId,
			actionTargets:    input.NewActionTargets,
		})
		if err != nil {
			return err
		}
	}

	if edgeCount == 0 {
		return e.recordProcessEndIfComplete(ctx, input.ProcessName, input.AnchorId)
	}
	return nil
}

// recordProcessEndIfComplete scans the chain and stamps the process
// instance's end time once no engine action of the process remains active.
// The stamp is a conditional update so a dangling late completion can
// never stamp twice.
func (e *ProcessExpander) recordProcessEndIfComplete(
	ctx context.Context, processName string, anchorId string,
) error {
	if processName == "" || anchorId == "" {
		return nil
	}

	it := metadata.NewEntityIterator(e.store, EntityTypeEngineAction,
		metadata.Properties{PropProcessName: processName}, metadata.DefaultPageSize)
	for {
		entity, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if entity == nil {
			break
		}
		status := govapi.ActionStatus(entity.Properties.GetString(PropActionStatus))
		if status.IsActive() {
			return nil
		}
	}

	stamped, err := e.store.UpdateEntityPropertiesConditionally(ctx, anchorId,
		metadata.Properties{PropProcessEndTime: nil},
		metadata.Properties{PropProcessEndTime: time.Now().Unix()})
	if err != nil {
		return cerrors.NewPropertyServer(
			"failed to record process end time on instance %v: %v", anchorId, err)
	}
	if stamped {
		e.logger.Info("governance action process completed",
			tag.ProcessName(processName),
			tag.ProcessInstanceId(anchorId))
	}
	return nil
}

// resolveExecutor finds the single Executor relationship of an action type
// or process step. Absence and ambiguity are both caller errors: a template
// without exactly one executor cannot be run.
func (e *ProcessExpander) resolveExecutor(
	ctx context.Context, templateId string, templateName string,
) (*executorBinding, error) {
	it := metadata.NewRelationshipIterator(
		e.store, templateId, RelTypeExecutor, metadata.DirectionOutgoing, metadata.DefaultPageSize)

	var executorRel *metadata.Relationship
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			break
		}
		if executorRel != nil {
			return nil, cerrors.NewInvalidParameter("executor",
				"more than one executor is defined for %v", templateName)
		}
		executorRel = rel
	}
	if executorRel == nil {
		return nil, cerrors.NewInvalidParameter("executor",
			"unknown executor: no governance engine is defined for %v", templateName)
	}

	engine, err := e.store.GetEntityById(ctx, executorRel.ToId, EntityTypeGovernanceEngine)
	if err != nil {
		return nil, cerrors.NewPropertyServer(
			"failed to fetch governance engine %v: %v", executorRel.ToId, err)
	}
	if engine == nil {
		return nil, cerrors.NewPropertyServer("missing governance engine %v", executorRel.ToId)
	}

	requestType := executorRel.Properties.GetString(PropRequestType)
	if requestType == "" {
		return nil, cerrors.NewPropertyServer(
			"executor relationship %v of %v has no request type", executorRel.Id, templateName)
	}

	return &executorBinding{
		engineId:               engine.Id,
		engineName:             engine.Properties.GetString(PropQualifiedName),
		requestType:            requestType,
		requestParameters:      executorRel.Properties.GetStringMap(PropRequestParameters),
		requestParameterRename: executorRel.Properties.GetStringMap(PropRequestParameterMap),
		requestParameterFilter: executorRel.Properties.GetStringSlice(PropRequestParameterFilter),
		actionTargetRename:     executorRel.Properties.GetStringMap(PropActionTargetMap),
		actionTargetFilter:     executorRel.Properties.GetStringSlice(PropActionTargetFilter),
	}, nil
}

// resolveFirstStep requires exactly one process flow relationship pointing
// at the first step of the process
func (e *ProcessExpander) resolveFirstStep(
	ctx context.Context, processId string, processName string,
) (string, error) {
	it := metadata.NewRelationshipIterator(
		e.store, processId, RelTypeProcessFlow, metadata.DirectionOutgoing, metadata.DefaultPageSize)

	var flowRel *metadata.Relationship
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return "", err
		}
		if rel == nil {
			break
		}
		if flowRel != nil {
			return "", cerrors.NewInvalidParameter("processQualifiedName",
				"more than one process flow is defined for %v", processName)
		}
		flowRel = rel
	}
	if flowRel == nil {
		return "", cerrors.NewInvalidParameter("processQualifiedName",
			"no process implementation: %v has no first step", processName)
	}
	return flowRel.ToId, nil
}

// predefinedActionTargets reads the TargetForAction edges predefined on a
// template entity (action type, process or process step)
func (e *ProcessExpander) predefinedActionTargets(
	ctx context.Context, templateId string,
) (map[string]string, error) {
	return e.actionTargetsOf(ctx, templateId)
}

func (e *ProcessExpander) actionTargetsOf(
	ctx context.Context, entityId string,
) (map[string]string, error) {
	it := metadata.NewRelationshipIterator(
		e.store, entityId, RelTypeTargetForAction, metadata.DirectionOutgoing, metadata.DefaultPageSize)
	targets := map[string]string{}
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			return targets, nil
		}
		targets[rel.Properties.GetString(PropActionTargetName)] = rel.ToId
	}
}

func (e *ProcessExpander) stepLock(processName string, processStepId string) *sync.Mutex {
	key := processName + "\x00" + processStepId
	e.stepLocksLock.Lock()
	defer e.stepLocksLock.Unlock()
	lock, ok := e.stepLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.stepLocks[key] = lock
	}
	return lock
}

func actionTargetsToMap(targets []govapi.NewActionTarget) map[string]string {
	out := map[string]string{}
	for _, t := range targets {
		out[t.ActionTargetName] = t.TargetId
	}
	return out
}

func mapToActionTargets(targets map[string]string) []govapi.NewActionTarget {
	if len(targets) == 0 {
		return nil
	}
	names := sortedKeys(targets)
	out := make([]govapi.NewActionTarget, 0, len(targets))
	for _, name := range names {
		out = append(out, govapi.NewActionTarget{
			ActionTargetName: name,
			TargetId:         targets[name],
		})
	}
	return out
}
