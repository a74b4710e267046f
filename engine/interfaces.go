// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
)

// SecurityVerifier is the injected authorization capability.
// An implementation returns a UserNotAuthorized error to reject the call;
// the engine surfaces it unchanged and never retries.
type SecurityVerifier interface {
	// ValidateUserForOperation is consulted before every mutating operation
	ValidateUserForOperation(ctx context.Context, userId string, operation string) error
}

// NewOpenSecurityVerifier returns a verifier that allows every caller.
// This is the default when no verifier is configured.
func NewOpenSecurityVerifier() SecurityVerifier {
	return openSecurityVerifier{}
}

type openSecurityVerifier struct{}

func (openSecurityVerifier) ValidateUserForOperation(context.Context, string, string) error {
	return nil
}

// ActionNotifier tells external engine hosts that an engine action became
// available for claiming. Delivery is best effort: engine hosts poll the
// store anyway, the notification only shortens pickup latency, so a failed
// publish must never fail the approval.
type ActionNotifier interface {
	NotifyActionApproved(ctx context.Context, engineActionId string)
	Close()
}

// CascadeHandler is how completion re-enters process expansion.
// ProcessExpander implements it; the indirection exists because the
// lifecycle and the expander depend on each other.
type CascadeHandler interface {
	InitiateNextEngineActions(ctx context.Context, input NextEngineActionsInput) error
}

// NextEngineActionsInput carries everything the cascade needs from the
// just-completed engine action
type NextEngineActionsInput struct {
	UserId           string
	PreviousActionId string
	PreviousStepId   string
	AnchorId         string
	ProcessName      string
	OutputGuards     []string
	NewActionTargets map[string]string
}
