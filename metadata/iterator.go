// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
)

const DefaultPageSize = 100

// RelationshipIterator walks the relationships of an entity page by page.
// It is restartable: the current offset is plain state, not a cursor held
// open in the store.
type RelationshipIterator struct {
	store     Store
	entityId  string
	typeName  string
	direction Direction
	pageSize  int

	offset  int
	page    []*Relationship
	pagePos int
	done    bool
}

func NewRelationshipIterator(
	store Store, entityId string, typeName string, direction Direction, pageSize int,
) *RelationshipIterator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RelationshipIterator{
		store:     store,
		entityId:  entityId,
		typeName:  typeName,
		direction: direction,
		pageSize:  pageSize,
	}
}

// Next returns the next relationship, or (nil, nil) when the scan is exhausted
func (it *RelationshipIterator) Next(ctx context.Context) (*Relationship, error) {
	for {
		if it.pagePos < len(it.page) {
			rel := it.page[it.pagePos]
			it.pagePos++
			return rel, nil
		}
		if it.done {
			return nil, nil
		}
		page, err := it.store.GetRelationshipsPage(ctx, it.entityId, it.typeName, it.direction, it.offset, it.pageSize)
		if err != nil {
			return nil, err
		}
		it.offset += len(page)
		it.page = page
		it.pagePos = 0
		if len(page) < it.pageSize {
			it.done = true
		}
		if len(page) == 0 {
			return nil, nil
		}
	}
}

// EntityIterator walks entities of one type matching the given properties,
// page by page, with the same restartable-offset contract as
// RelationshipIterator.
type EntityIterator struct {
	store     Store
	typeName  string
	matchProp Properties
	pageSize  int

	offset  int
	page    []*Entity
	pagePos int
	done    bool
}

func NewEntityIterator(
	store Store, typeName string, matchProperties Properties, pageSize int,
) *EntityIterator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &EntityIterator{
		store:     store,
		typeName:  typeName,
		matchProp: matchProperties,
		pageSize:  pageSize,
	}
}

// Next returns the next entity, or (nil, nil) when the scan is exhausted
func (it *EntityIterator) Next(ctx context.Context) (*Entity, error) {
	for {
		if it.pagePos < len(it.page) {
			entity := it.page[it.pagePos]
			it.pagePos++
			return entity, nil
		}
		if it.done {
			return nil, nil
		}
		page, err := it.store.GetEntitiesByTypePage(ctx, it.typeName, it.matchProp, it.offset, it.pageSize)
		if err != nil {
			return nil, err
		}
		it.offset += len(page)
		it.page = page
		it.pagePos = 0
		if len(page) < it.pageSize {
			it.done = true
		}
		if len(page) == 0 {
			return nil, nil
		}
	}
}
