// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/govexecio/govexec/goapi/govapi"
	"github.com/govexecio/govexec/metadata"
)

// engineActionFromEntity maps a stored engine action entity, plus its
// action target edges, into the API bean
func engineActionFromEntity(
	ctx context.Context, store metadata.Store, entity *metadata.Entity,
) (*govapi.EngineAction, error) {
	props := entity.Properties
	bean := &govapi.EngineAction{
		EngineActionId:   entity.Id,
		QualifiedName:    props.GetString(PropQualifiedName),
		DomainIdentifier: props.GetInt(PropDomainIdentifier),
		DisplayName:      props.GetString(PropDisplayName),
		Description:      props.GetString(PropDescription),

		Status:             govapi.ActionStatus(props.GetString(PropActionStatus)),
		RequestedStartTime: props.GetInt64Ptr(PropRequestedStartTime),
		StartTime:          props.GetInt64Ptr(PropStartTime),

		GovernanceEngineId:   props.GetString(PropGovernanceEngineId),
		GovernanceEngineName: props.GetString(PropGovernanceEngineName),
		RequestType:          props.GetString(PropRequestType),
		RequestParameters:    props.GetStringMap(PropRequestParameters),

		MandatoryGuards:  props.GetStringSlice(PropMandatoryGuards),
		ReceivedGuards:   props.GetStringSlice(PropReceivedGuards),
		CompletionGuards: props.GetStringSlice(PropCompletionGuards),

		CompletionTime:    props.GetInt64Ptr(PropCompletionTime),
		CompletionMessage: props.GetString(PropCompletionMessage),

		RequesterUserId:        props.GetString(PropRequesterUserId),
		ProcessingEngineUserId: props.GetString(PropProcessingEngineUserId),

		ProcessName:     props.GetString(PropProcessName),
		ProcessStepId:   props.GetString(PropProcessStepId),
		ProcessStepName: props.GetString(PropProcessStepName),
		AnchorId:        props.GetString(PropAnchorId),
	}

	it := metadata.NewRelationshipIterator(
		store, entity.Id, RelTypeTargetForAction, metadata.DirectionOutgoing, metadata.DefaultPageSize)
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			break
		}
		element := govapi.ActionTargetElement{
			RelationshipId:    rel.Id,
			ActionTargetName:  rel.Properties.GetString(PropActionTargetName),
			TargetId:          rel.ToId,
			StartTime:         rel.Properties.GetInt64Ptr(PropStartTime),
			CompletionTime:    rel.Properties.GetInt64Ptr(PropCompletionTime),
			CompletionMessage: rel.Properties.GetString(PropCompletionMessage),
		}
		if rel.Properties.Has(PropActionStatus) {
			status := govapi.ActionStatus(rel.Properties.GetString(PropActionStatus))
			element.Status = &status
		}
		bean.ActionTargets = append(bean.ActionTargets, element)
	}
	return bean, nil
}
