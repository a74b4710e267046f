// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOverridesOverlayOrder(t *testing.T) {
	out := ResolveOverrides(nil, nil,
		map[string]string{"asset": "id-1", "schema": "id-2"},
		map[string]string{"asset": "id-3"})
	assert.Equal(t, map[string]string{"asset": "id-3", "schema": "id-2"}, out)
}

func TestResolveOverridesRename(t *testing.T) {
	out := ResolveOverrides(
		map[string]string{"asset": "subject"}, nil,
		map[string]string{"asset": "id-1", "schema": "id-2"})
	assert.Equal(t, map[string]string{"subject": "id-1", "schema": "id-2"}, out)
}

func TestResolveOverridesRenameCollision(t *testing.T) {
	// both "a" and "b" rename to "target"; key iteration is in sorted
	// order so the lexicographically last original key wins
	out := ResolveOverrides(
		map[string]string{"a": "target", "b": "target"}, nil,
		map[string]string{"a": "id-a", "b": "id-b"})
	assert.Equal(t, map[string]string{"target": "id-b"}, out)
}

func TestResolveOverridesFilter(t *testing.T) {
	out := ResolveOverrides(nil, []string{"internal"},
		map[string]string{"asset": "id-1", "internal": "id-2"})
	assert.Equal(t, map[string]string{"asset": "id-1"}, out)
}

func TestResolveOverridesFilterAppliesAfterRename(t *testing.T) {
	out := ResolveOverrides(
		map[string]string{"asset": "internal"}, []string{"internal"},
		map[string]string{"asset": "id-1"})
	assert.Nil(t, out)
}

func TestResolveOverridesEmptyCollapsesToNil(t *testing.T) {
	assert.Nil(t, ResolveOverrides(nil, nil))
	assert.Nil(t, ResolveOverrides(nil, nil, map[string]string{}))
	assert.Nil(t, ResolveOverrides(nil, []string{"a"}, map[string]string{"a": "id-1"}))
}
