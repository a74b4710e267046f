// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/config"
	"github.com/govexecio/govexec/engine"
)

// ApprovalEvent is the payload published when an engine action becomes
// claimable. Engine hosts subscribed to the topic can claim immediately
// instead of waiting for their next poll.
type ApprovalEvent struct {
	EngineActionId string `json:"engineActionId"`
	ApprovedAtUnix int64  `json:"approvedAtUnix"`
}

type pulsarNotifier struct {
	cfg      config.PulsarMQConfig
	client   pulsar.Client
	producer pulsar.Producer
	logger   log.Logger
}

func NewPulsarNotifier(cfg config.PulsarMQConfig, logger log.Logger) (engine.ActionNotifier, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL:               cfg.URL,
		ConnectionTimeout: cfg.ConnectionTimeout,
	})
	if err != nil {
		return nil, err
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic:       cfg.ApprovalTopic,
		SendTimeout: cfg.SendTimeout,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return &pulsarNotifier{
		cfg:      cfg,
		client:   client,
		producer: producer,
		logger:   logger,
	}, nil
}

// NotifyActionApproved publishes asynchronously and logs on failure.
// The notification is best effort: the approval has already been
// persisted and must not be failed by a broker problem.
func (p *pulsarNotifier) NotifyActionApproved(_ context.Context, engineActionId string) {
	payload, err := json.Marshal(ApprovalEvent{
		EngineActionId: engineActionId,
		ApprovedAtUnix: time.Now().Unix(),
	})
	if err != nil {
		p.logger.Error("failed to serialize approval event",
			tag.EngineActionId(engineActionId), tag.Error(err))
		return
	}
	p.producer.SendAsync(context.Background(), &pulsar.ProducerMessage{
		Key:     engineActionId,
		Payload: payload,
	}, func(_ pulsar.MessageID, _ *pulsar.ProducerMessage, err error) {
		if err != nil {
			p.logger.Error("failed to publish approval event",
				tag.EngineActionId(engineActionId), tag.Error(err))
		}
	})
}

func (p *pulsarNotifier) Close() {
	p.producer.Close()
	p.client.Close()
}
