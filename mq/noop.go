// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package mq

import (
	"context"

	"github.com/govexecio/govexec/engine"
)

type noopNotifier struct{}

// NewNoopNotifier returns a notifier that drops every notification.
// Engine hosts poll the store, so this only costs pickup latency.
func NewNoopNotifier() engine.ActionNotifier {
	return noopNotifier{}
}

func (noopNotifier) NotifyActionApproved(context.Context, string) {}

func (noopNotifier) Close() {}
