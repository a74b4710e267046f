// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package govapi

// ActionStatus is the lifecycle status of an engine action.
// The status only ever moves forward:
//
//	REQUESTED -> APPROVED -> WAITING -> ACTIVATING -> IN_PROGRESS -> terminal
//
// CANCELLED is reachable from any non-terminal status.
type ActionStatus string

const (
	ActionStatusRequested  ActionStatus = "REQUESTED"
	ActionStatusApproved   ActionStatus = "APPROVED"
	ActionStatusWaiting    ActionStatus = "WAITING"
	ActionStatusActivating ActionStatus = "ACTIVATING"
	ActionStatusInProgress ActionStatus = "IN_PROGRESS"

	ActionStatusActioned  ActionStatus = "ACTIONED"
	ActionStatusInvalid   ActionStatus = "INVALID"
	ActionStatusIgnored   ActionStatus = "IGNORED"
	ActionStatusFailed    ActionStatus = "FAILED"
	ActionStatusCancelled ActionStatus = "CANCELLED"
)

// IsActive returns true when the action has not reached a terminal status
func (s ActionStatus) IsActive() bool {
	switch s {
	case ActionStatusRequested, ActionStatusApproved, ActionStatusWaiting,
		ActionStatusActivating, ActionStatusInProgress:
		return true
	}
	return false
}

// activeOrder positions the active statuses along the forward-only chain.
var activeOrder = map[ActionStatus]int{
	ActionStatusRequested:  1,
	ActionStatusApproved:   2,
	ActionStatusWaiting:    3,
	ActionStatusActivating: 4,
	ActionStatusInProgress: 5,
}

// MovesForwardTo returns true when transitioning from s to next advances the
// active state machine. Terminal statuses are never a valid target here; they
// are only reachable through completion or cancellation.
func (s ActionStatus) MovesForwardTo(next ActionStatus) bool {
	from, ok := activeOrder[s]
	if !ok {
		return false
	}
	to, ok := activeOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// IsComplete returns true for the five terminal statuses
func (s ActionStatus) IsComplete() bool {
	switch s {
	case ActionStatusActioned, ActionStatusInvalid, ActionStatusIgnored,
		ActionStatusFailed, ActionStatusCancelled:
		return true
	}
	return false
}

// IsValid returns true when the value is one of the known statuses
func (s ActionStatus) IsValid() bool {
	return s.IsActive() || s.IsComplete()
}
