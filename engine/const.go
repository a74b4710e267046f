// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

// Entity type names in the metadata store
const (
	EntityTypeEngineAction           = "EngineAction"
	EntityTypeGovernanceEngine       = "GovernanceEngine"
	EntityTypeGovernanceActionType   = "GovernanceActionType"
	EntityTypeProcess                = "GovernanceActionProcess"
	EntityTypeProcessStep            = "GovernanceActionProcessStep"
	EntityTypeProcessInstance        = "GovernanceActionProcessInstance"
)

// Relationship type names
const (
	// RelTypeTargetForAction links an engine action (or a template entity that
	// predefines targets) to a referenceable entity it operates on
	RelTypeTargetForAction = "TargetForAction"
	// RelTypeRequestSource links a referenceable entity to the engine action
	// it requested, recording provenance
	RelTypeRequestSource = "EngineActionRequestSource"
	// RelTypeNextEngineAction links a completed engine action to a follow-on
	// action, labelled with the guard that selected the edge
	RelTypeNextEngineAction = "NextEngineAction"
	// RelTypeProcessFlow links a process definition to its first step
	RelTypeProcessFlow = "GovernanceActionProcessFlow"
	// RelTypeNextProcessStep links a step to a successor step, labelled with a
	// guard and a mandatory-guard flag
	RelTypeNextProcessStep = "NextGovernanceActionProcessStep"
	// RelTypeExecutor links an action type or process step to the governance
	// engine that executes it, carrying request type and override rules
	RelTypeExecutor = "GovernanceActionExecutor"
	// RelTypeSupportedRequestType advertises a request type that a governance
	// engine knows how to run
	RelTypeSupportedRequestType = "SupportedGovernanceRequestType"
)

// Property keys
const (
	PropQualifiedName          = "qualifiedName"
	PropDomainIdentifier       = "domainIdentifier"
	PropDisplayName            = "displayName"
	PropDescription            = "description"
	PropActionStatus           = "actionStatus"
	PropRequestedStartTime     = "requestedStartTime"
	PropStartTime              = "startTime"
	PropGovernanceEngineId     = "governanceEngineId"
	PropGovernanceEngineName   = "governanceEngineName"
	PropRequesterUserId        = "requesterUserId"
	PropRequestType            = "requestType"
	PropRequestParameters      = "requestParameters"
	PropMandatoryGuards        = "mandatoryGuards"
	PropReceivedGuards         = "receivedGuards"
	PropCompletionGuards       = "completionGuards"
	PropCompletionTime         = "completionTime"
	PropCompletionMessage      = "completionMessage"
	PropProcessName            = "processName"
	PropProcessStepId          = "processStepId"
	PropProcessStepName        = "processStepName"
	PropProcessingEngineUserId = "processingEngineUserId"
	PropAnchorId               = "anchorId"

	PropActionTargetName = "actionTargetName"
	PropRequestSourceName = "requestSourceName"

	PropGuard          = "guard"
	PropMandatoryGuard = "mandatoryGuard"

	PropIgnoreMultipleTriggers = "ignoreMultipleTriggers"

	PropRequestParameterMap    = "requestParameterMap"
	PropRequestParameterFilter = "requestParameterFilter"
	PropActionTargetMap        = "actionTargetMap"
	PropActionTargetFilter     = "actionTargetFilter"

	PropProcessStartTime = "processStartTime"
	PropProcessEndTime   = "processEndTime"
)
