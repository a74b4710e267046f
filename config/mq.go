// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"
)

type (
	// MessageQueueConfig configures the optional message queue used to tell
	// external engine hosts that an engine action became available for claiming.
	// The queue is a latency optimization on top of polling, nothing in the
	// engine depends on its delivery guarantees.
	MessageQueueConfig struct {
		Pulsar *PulsarMQConfig `yaml:"pulsar"`
	}

	PulsarMQConfig struct {
		// URL is the pulsar broker service URL, e.g. pulsar://localhost:6650
		URL string `yaml:"url"`
		// ApprovalTopic is the topic that approval notifications are published to
		ApprovalTopic string `yaml:"approvalTopic"`
		// ConnectionTimeout for establishing the client connection.
		// Default is 10 seconds.
		ConnectionTimeout time.Duration `yaml:"connectionTimeout"`
		// SendTimeout for a single publish. Default is 5 seconds.
		SendTimeout time.Duration `yaml:"sendTimeout"`
	}
)

func (c *PulsarMQConfig) validateAndSetDefaults() error {
	if c.URL == "" {
		return fmt.Errorf("messageQueue.pulsar.url cannot be empty")
	}
	if c.ApprovalTopic == "" {
		return fmt.Errorf("messageQueue.pulsar.approvalTopic cannot be empty")
	}
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = 10 * time.Second
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 5 * time.Second
	}
	return nil
}
