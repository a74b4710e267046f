// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package ptr

func Any[T any](v T) *T {
	return &v
}
