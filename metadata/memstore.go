// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	cerrors "github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/common/uuid"
)

// memStore is a Store kept entirely in process memory.
// It backs unit tests and the development profile of the server.
// All operations, including the conditional update, run under one lock,
// which gives the same atomicity the SQL store gets from transactions.
type memStore struct {
	sync.RWMutex
	entities      map[string]*Entity
	relationships map[string]*Relationship
}

func NewMemoryStore() Store {
	return &memStore{
		entities:      map[string]*Entity{},
		relationships: map[string]*Relationship{},
	}
}

func (m *memStore) GetEntityById(_ context.Context, id string, typeName string) (*Entity, error) {
	m.RLock()
	defer m.RUnlock()
	entity, ok := m.entities[id]
	if !ok {
		return nil, nil
	}
	if typeName != "" && entity.TypeName != typeName {
		return nil, nil
	}
	return copyEntity(entity), nil
}

func (m *memStore) GetEntityByUniqueName(
	_ context.Context, typeName string, propertyName string, value string,
) (*Entity, error) {
	m.RLock()
	defer m.RUnlock()
	var found *Entity
	for _, entity := range m.entities {
		if entity.TypeName != typeName {
			continue
		}
		if entity.Properties.GetString(propertyName) != value {
			continue
		}
		if found != nil {
			return nil, cerrors.NewInvalidParameter(propertyName,
				"more than one %v entity matches unique name %v", typeName, value)
		}
		found = entity
	}
	return copyEntity(found), nil
}

func (m *memStore) CreateEntity(_ context.Context, typeName string, properties Properties) (string, error) {
	m.Lock()
	defer m.Unlock()
	id := uuid.MustNewUUID().String()
	now := time.Now()
	m.entities[id] = &Entity{
		Id:         id,
		TypeName:   typeName,
		Properties: properties.Clone(),
		CreateTime: now,
		UpdateTime: now,
	}
	return id, nil
}

func (m *memStore) UpdateEntityProperties(
	_ context.Context, id string, updates Properties, replaceAll bool,
) error {
	m.Lock()
	defer m.Unlock()
	entity, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("entity %v does not exist", id)
	}
	applyUpdates(entity, updates, replaceAll)
	return nil
}

func (m *memStore) UpdateEntityPropertiesConditionally(
	_ context.Context, id string, expected Properties, updates Properties,
) (bool, error) {
	m.Lock()
	defer m.Unlock()
	entity, ok := m.entities[id]
	if !ok {
		return false, fmt.Errorf("entity %v does not exist", id)
	}
	if !PropertiesMatch(entity.Properties, expected) {
		return false, nil
	}
	applyUpdates(entity, updates, false)
	return true, nil
}

func (m *memStore) CreateRelationship(
	_ context.Context, typeName string, fromId string, toId string, properties Properties,
) (string, error) {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.entities[fromId]; !ok {
		return "", fmt.Errorf("entity %v does not exist", fromId)
	}
	if _, ok := m.entities[toId]; !ok {
		return "", fmt.Errorf("entity %v does not exist", toId)
	}
	id := uuid.MustNewUUID().String()
	m.relationships[id] = &Relationship{
		Id:         id,
		TypeName:   typeName,
		FromId:     fromId,
		ToId:       toId,
		Properties: properties.Clone(),
		CreateTime: time.Now(),
	}
	return id, nil
}

func (m *memStore) UpdateRelationshipProperties(
	_ context.Context, relationshipId string, updates Properties,
) error {
	m.Lock()
	defer m.Unlock()
	rel, ok := m.relationships[relationshipId]
	if !ok {
		return fmt.Errorf("relationship %v does not exist", relationshipId)
	}
	if rel.Properties == nil {
		rel.Properties = Properties{}
	}
	for k, v := range updates {
		if v == nil {
			delete(rel.Properties, k)
			continue
		}
		rel.Properties[k] = v
	}
	return nil
}

func (m *memStore) GetRelationshipsPage(
	_ context.Context, entityId string, typeName string, direction Direction, startFrom int, pageSize int,
) ([]*Relationship, error) {
	m.RLock()
	defer m.RUnlock()
	var matched []*Relationship
	for _, rel := range m.relationships {
		if typeName != "" && rel.TypeName != typeName {
			continue
		}
		switch direction {
		case DirectionOutgoing:
			if rel.FromId != entityId {
				continue
			}
		case DirectionIncoming:
			if rel.ToId != entityId {
				continue
			}
		default:
			if rel.FromId != entityId && rel.ToId != entityId {
				continue
			}
		}
		matched = append(matched, copyRelationship(rel))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Id < matched[j].Id })
	return slicePage(matched, startFrom, pageSize), nil
}

func (m *memStore) GetEntitiesByTypePage(
	_ context.Context, typeName string, matchProperties Properties, startFrom int, pageSize int,
) ([]*Entity, error) {
	m.RLock()
	defer m.RUnlock()
	var matched []*Entity
	for _, entity := range m.entities {
		if entity.TypeName != typeName {
			continue
		}
		if !containsProperties(entity.Properties, matchProperties) {
			continue
		}
		matched = append(matched, copyEntity(entity))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Id < matched[j].Id })
	return slicePage(matched, startFrom, pageSize), nil
}

func (m *memStore) GetEntitiesByValuePage(
	_ context.Context, typeName string, searchString string, startFrom int, pageSize int,
) ([]*Entity, error) {
	m.RLock()
	defer m.RUnlock()
	needle := strings.ToLower(searchString)
	var matched []*Entity
	for _, entity := range m.entities {
		if typeName != "" && entity.TypeName != typeName {
			continue
		}
		if !anyStringValueContains(entity.Properties, needle) {
			continue
		}
		matched = append(matched, copyEntity(entity))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Id < matched[j].Id })
	return slicePage(matched, startFrom, pageSize), nil
}

func (m *memStore) Close() error {
	return nil
}

func applyUpdates(entity *Entity, updates Properties, replaceAll bool) {
	if replaceAll {
		entity.Properties = updates.Clone()
	} else {
		if entity.Properties == nil {
			entity.Properties = Properties{}
		}
		for k, v := range updates {
			if v == nil {
				delete(entity.Properties, k)
				continue
			}
			entity.Properties[k] = v
		}
	}
	entity.UpdateTime = time.Now()
}

// PropertiesMatch reports whether current satisfies every expectation.
// A nil expected value means the property must be absent or empty.
func PropertiesMatch(current Properties, expected Properties) bool {
	for key, want := range expected {
		if want == nil {
			if current.GetString(key) != "" {
				return false
			}
			continue
		}
		if current.GetString(key) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func containsProperties(current Properties, match Properties) bool {
	for key, want := range match {
		got, ok := current[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func anyStringValueContains(props Properties, lowerNeedle string) bool {
	for _, v := range props {
		if s, ok := v.(string); ok {
			if strings.Contains(strings.ToLower(s), lowerNeedle) {
				return true
			}
		}
	}
	return false
}

func slicePage[T any](all []T, startFrom int, pageSize int) []T {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if startFrom >= len(all) {
		return nil
	}
	end := startFrom + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[startFrom:end]
}

func copyEntity(entity *Entity) *Entity {
	if entity == nil {
		return nil
	}
	out := *entity
	out.Properties = entity.Properties.Clone()
	return &out
}

func copyRelationship(rel *Relationship) *Relationship {
	if rel == nil {
		return nil
	}
	out := *rel
	out.Properties = rel.Properties.Clone()
	return &out
}
