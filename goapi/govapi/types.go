// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package govapi

// NewActionTarget names an entity that an engine action should operate on
type NewActionTarget struct {
	// ActionTargetName is the label the governance service knows the target by
	ActionTargetName string `json:"actionTargetName"`
	// TargetId is the id of the referenceable entity in the metadata store
	TargetId string `json:"targetId"`
}

// RequestSource records where the request for governance work came from
type RequestSource struct {
	RequestSourceName string `json:"requestSourceName,omitempty"`
	SourceId          string `json:"sourceId"`
}

// ActionTargetElement is one target of an engine action with its own
// progress tracking, independent from the action as a whole
type ActionTargetElement struct {
	RelationshipId    string        `json:"relationshipId"`
	ActionTargetName  string        `json:"actionTargetName,omitempty"`
	TargetId          string        `json:"targetId"`
	Status            *ActionStatus `json:"status,omitempty"`
	StartTime         *int64        `json:"startTime,omitempty"`
	CompletionTime    *int64        `json:"completionTime,omitempty"`
	CompletionMessage string        `json:"completionMessage,omitempty"`
}

// EngineAction is the full view of one unit of governed work
type EngineAction struct {
	EngineActionId   string `json:"engineActionId"`
	QualifiedName    string `json:"qualifiedName"`
	DomainIdentifier int    `json:"domainIdentifier,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
	Description      string `json:"description,omitempty"`

	Status             ActionStatus `json:"status"`
	RequestedStartTime *int64       `json:"requestedStartTime,omitempty"`
	StartTime          *int64       `json:"startTime,omitempty"`

	GovernanceEngineId   string            `json:"governanceEngineId"`
	GovernanceEngineName string            `json:"governanceEngineName"`
	RequestType          string            `json:"requestType"`
	RequestParameters    map[string]string `json:"requestParameters,omitempty"`

	MandatoryGuards []string `json:"mandatoryGuards,omitempty"`
	ReceivedGuards  []string `json:"receivedGuards,omitempty"`
	CompletionGuards []string `json:"completionGuards,omitempty"`

	CompletionTime    *int64 `json:"completionTime,omitempty"`
	CompletionMessage string `json:"completionMessage,omitempty"`

	RequesterUserId        string `json:"requesterUserId"`
	ProcessingEngineUserId string `json:"processingEngineUserId,omitempty"`

	ProcessName     string `json:"processName,omitempty"`
	ProcessStepId   string `json:"processStepId,omitempty"`
	ProcessStepName string `json:"processStepName,omitempty"`
	AnchorId        string `json:"anchorId,omitempty"`

	ActionTargets []ActionTargetElement `json:"actionTargets,omitempty"`
}

type CreateEngineActionRequest struct {
	UserId           string `json:"userId"`
	QualifiedName    string `json:"qualifiedName"`
	DomainIdentifier int    `json:"domainIdentifier,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
	Description      string `json:"description,omitempty"`

	// RequestedStartTime is unix seconds; nil means "as soon as possible"
	RequestedStartTime *int64 `json:"requestedStartTime,omitempty"`

	GovernanceEngineName string            `json:"governanceEngineName"`
	RequestType          string            `json:"requestType"`
	RequestParameters    map[string]string `json:"requestParameters,omitempty"`

	MandatoryGuards []string `json:"mandatoryGuards,omitempty"`
	ReceivedGuards  []string `json:"receivedGuards,omitempty"`

	ProcessName     string `json:"processName,omitempty"`
	ProcessStepId   string `json:"processStepId,omitempty"`
	ProcessStepName string `json:"processStepName,omitempty"`
	AnchorId        string `json:"anchorId,omitempty"`

	RequestSources []RequestSource   `json:"requestSources,omitempty"`
	ActionTargets  []NewActionTarget `json:"actionTargets,omitempty"`
}

type CreateEngineActionResponse struct {
	EngineActionId string `json:"engineActionId"`
}

type ApproveEngineActionRequest struct {
	UserId         string `json:"userId"`
	EngineActionId string `json:"engineActionId"`
}

type ClaimEngineActionRequest struct {
	UserId         string `json:"userId"`
	EngineActionId string `json:"engineActionId"`
}

type UpdateActionStatusRequest struct {
	UserId         string       `json:"userId"`
	EngineActionId string       `json:"engineActionId"`
	Status         ActionStatus `json:"status"`
}

type RecordCompletionRequest struct {
	UserId         string `json:"userId"`
	EngineActionId string `json:"engineActionId"`

	// CompletionStatus must be one of the terminal statuses
	CompletionStatus  ActionStatus      `json:"completionStatus"`
	OutputGuards      []string          `json:"outputGuards,omitempty"`
	CompletionMessage string            `json:"completionMessage,omitempty"`
	RequestParameters map[string]string `json:"requestParameters,omitempty"`
	NewActionTargets  []NewActionTarget `json:"newActionTargets,omitempty"`
}

type CancelEngineActionRequest struct {
	UserId         string `json:"userId"`
	EngineActionId string `json:"engineActionId"`
}

type InitiateGovernanceActionTypeRequest struct {
	UserId                  string            `json:"userId"`
	ActionTypeQualifiedName string            `json:"actionTypeQualifiedName"`
	RequestParameters       map[string]string `json:"requestParameters,omitempty"`
	RequestSources          []RequestSource   `json:"requestSources,omitempty"`
	ActionTargets           []NewActionTarget `json:"actionTargets,omitempty"`
	// RequestedStartTime is unix seconds; nil means "as soon as possible"
	RequestedStartTime *int64 `json:"requestedStartTime,omitempty"`
	OriginatorAssetId  string `json:"originatorAssetId,omitempty"`
}

type InitiateGovernanceActionTypeResponse struct {
	EngineActionId string `json:"engineActionId"`
}

type InitiateGovernanceActionProcessRequest struct {
	UserId               string            `json:"userId"`
	ProcessQualifiedName string            `json:"processQualifiedName"`
	RequestParameters    map[string]string `json:"requestParameters,omitempty"`
	RequestSources       []RequestSource   `json:"requestSources,omitempty"`
	ActionTargets        []NewActionTarget `json:"actionTargets,omitempty"`
	// RequestedStartTime is unix seconds; nil means "as soon as possible"
	RequestedStartTime *int64 `json:"requestedStartTime,omitempty"`
}

type InitiateGovernanceActionProcessResponse struct {
	ProcessInstanceId   string `json:"processInstanceId"`
	FirstEngineActionId string `json:"firstEngineActionId,omitempty"`
}

type GetEngineActionRequest struct {
	UserId         string `json:"userId"`
	EngineActionId string `json:"engineActionId"`
}

type ListEngineActionsRequest struct {
	UserId    string `json:"userId"`
	StartFrom int    `json:"startFrom,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
}

type SearchEngineActionsRequest struct {
	UserId       string `json:"userId"`
	SearchString string `json:"searchString"`
	StartFrom    int    `json:"startFrom,omitempty"`
	PageSize     int    `json:"pageSize,omitempty"`
}

type EngineActionListResponse struct {
	EngineActions []EngineAction `json:"engineActions"`
}

type ApiErrorResponse struct {
	Detail    *string `json:"detail,omitempty"`
	ErrorKind *string `json:"errorKind,omitempty"`
}

func PtrString(s string) *string {
	return &s
}
