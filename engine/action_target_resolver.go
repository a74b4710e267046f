// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sort"
)

// The override pipeline applied to both request parameters and action
// targets when an executor runs a request:
//
//  1. overlay the source mappings, later sources winning on key collision
//  2. rewrite keys through the executor's rename map, if any
//  3. drop keys named by the executor's filter list, if any
//
// The result collapses to nil when empty so callers can cheaply test
// "no overrides". Key iteration during the rename stage is in sorted key
// order; Go maps have no insertion order, and sorted order is the one
// reproducible contract available, so collisions after renaming resolve
// to the lexicographically last original key.

// ResolveOverrides runs the full pipeline. Sources are overlaid in the
// given order, so callers list the most specific source last.
func ResolveOverrides(
	renameMap map[string]string, filterList []string, sources ...map[string]string,
) map[string]string {
	merged := overlayMaps(sources...)
	renamed := applyRenameMap(merged, renameMap)
	filtered := applyFilterList(renamed, filterList)
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func overlayMaps(sources ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, src := range sources {
		for k, v := range src {
			out[k] = v
		}
	}
	return out
}

func applyRenameMap(in map[string]string, renameMap map[string]string) map[string]string {
	if len(renameMap) == 0 {
		return in
	}
	keys := sortedKeys(in)
	out := make(map[string]string, len(in))
	for _, k := range keys {
		name := k
		if mapped, ok := renameMap[k]; ok {
			name = mapped
		}
		// last write wins on collision after renaming
		out[name] = in[k]
	}
	return out
}

func applyFilterList(in map[string]string, filterList []string) map[string]string {
	if len(filterList) == 0 {
		return in
	}
	drop := make(map[string]bool, len(filterList))
	for _, k := range filterList {
		drop[k] = true
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if drop[k] {
			continue
		}
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
