// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package mq

import (
	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/config"
	"github.com/govexecio/govexec/engine"
)

// NewActionNotifier picks the notifier implementation from config.
// Without a messageQueue section engine hosts rely purely on polling.
func NewActionNotifier(cfg config.Config, logger log.Logger) (engine.ActionNotifier, error) {
	if cfg.MessageQueue == nil || cfg.MessageQueue.Pulsar == nil {
		return NewNoopNotifier(), nil
	}
	return NewPulsarNotifier(*cfg.MessageQueue.Pulsar, logger)
}
