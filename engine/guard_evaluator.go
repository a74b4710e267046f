// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/govexecio/govexec/metadata"
)

// GuardsSatisfied is the readiness predicate for a waiting engine action:
// ready when there are no mandatory guards, or every mandatory guard has
// been received. Matching is exact string equality.
func GuardsSatisfied(mandatoryGuards []string, receivedGuards []string) bool {
	if len(mandatoryGuards) == 0 {
		return true
	}
	received := make(map[string]bool, len(receivedGuards))
	for _, g := range receivedGuards {
		received[g] = true
	}
	for _, g := range mandatoryGuards {
		if !received[g] {
			return false
		}
	}
	return true
}

// GuardEvaluator resolves guard requirements from process step templates
type GuardEvaluator struct {
	store metadata.Store
}

func NewGuardEvaluator(store metadata.Store) *GuardEvaluator {
	return &GuardEvaluator{store: store}
}

// MandatoryGuardsForStep collects the guard labels of every incoming
// NextGovernanceActionProcessStep edge whose mandatoryGuard flag is set.
// Returns nil when the step has no mandatory guards; callers treat nil and
// empty identically.
func (g *GuardEvaluator) MandatoryGuardsForStep(ctx context.Context, processStepId string) ([]string, error) {
	it := metadata.NewRelationshipIterator(
		g.store, processStepId, RelTypeNextProcessStep, metadata.DirectionIncoming, metadata.DefaultPageSize)

	var mandatoryGuards []string
	for {
		rel, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			break
		}
		if !rel.Properties.GetBool(PropMandatoryGuard) {
			continue
		}
		if guard := rel.Properties.GetString(PropGuard); guard != "" {
			mandatoryGuards = append(mandatoryGuards, guard)
		}
	}
	return mandatoryGuards, nil
}
