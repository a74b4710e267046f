// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
)

// PropertyQualifiedName is the property every referenceable entity carries
// as its globally unique name
const PropertyQualifiedName = "qualifiedName"

// Store is the abstract metadata repository that the engine runs against.
// Implementations: the in-memory store in this package, and the SQL backed
// store in metadata/sqlstore.
//
// Error conventions:
//   - lookups return (nil, nil) when nothing matched; "missing" is the
//     caller's call to make, not the store's
//   - GetEntityByUniqueName returns an InvalidParameter error when more than
//     one entity matches, since the caller asked for a unique entity
//   - all other failures are store-layer errors, surfaced unchanged
type Store interface {
	// GetEntityById fetches one entity. When typeName is non-empty the
	// entity must carry that type, otherwise (nil, nil) is returned.
	GetEntityById(ctx context.Context, id string, typeName string) (*Entity, error)

	// GetEntityByUniqueName fetches the single entity of the given type whose
	// propertyName property equals value
	GetEntityByUniqueName(ctx context.Context, typeName string, propertyName string, value string) (*Entity, error)

	CreateEntity(ctx context.Context, typeName string, properties Properties) (string, error)

	// UpdateEntityProperties merges updates into the entity's properties.
	// When replaceAll is true the stored properties are replaced wholesale.
	// A nil value in updates removes the property on merge.
	UpdateEntityProperties(ctx context.Context, id string, updates Properties, replaceAll bool) error

	// UpdateEntityPropertiesConditionally applies updates only when every
	// expected property currently matches (a nil expected value means "absent
	// or empty"). The check and the write are a single atomic step at the
	// storage layer. Returns false, without error, when the condition fails.
	// The claim protocol's at-most-one-claimant guarantee rests on this call.
	UpdateEntityPropertiesConditionally(ctx context.Context, id string, expected Properties, updates Properties) (bool, error)

	CreateRelationship(ctx context.Context, typeName string, fromId string, toId string, properties Properties) (string, error)

	UpdateRelationshipProperties(ctx context.Context, relationshipId string, updates Properties) error

	// GetRelationshipsPage returns one page of the relationships of the given
	// type touching the entity, ordered by relationship id. typeName may be
	// empty to scan all types. The page is weakly consistent under concurrent
	// mutation; callers restart from an explicit offset.
	GetRelationshipsPage(ctx context.Context, entityId string, typeName string, direction Direction, startFrom int, pageSize int) ([]*Relationship, error)

	// GetEntitiesByTypePage returns one page of entities of the given type
	// whose properties contain every entry of matchProperties, ordered by id
	GetEntitiesByTypePage(ctx context.Context, typeName string, matchProperties Properties, startFrom int, pageSize int) ([]*Entity, error)

	// GetEntitiesByValuePage returns one page of entities of the given type
	// where any string property contains searchString, ordered by id
	GetEntitiesByValuePage(ctx context.Context, typeName string, searchString string, startFrom int, pageSize int) ([]*Entity, error)

	Close() error
}
