// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"fmt"

	"github.com/govexecio/govexec/extensions"
)

const insertEntityQuery = `INSERT INTO govexec_entities
	(id, type_name, properties, create_time, update_time)
	VALUES ($1, $2, $3, $4, $5)`

const selectEntityQuery = `SELECT id, type_name, properties, create_time, update_time
	FROM govexec_entities WHERE id = $1`

const selectEntitiesByPropertyQuery = `SELECT id, type_name, properties, create_time, update_time
	FROM govexec_entities WHERE type_name = $1 AND properties->>$2 = $3
	ORDER BY id LIMIT $4`

const selectEntitiesContainingQuery = `SELECT id, type_name, properties, create_time, update_time
	FROM govexec_entities WHERE type_name = $1 AND properties @> $2
	ORDER BY id OFFSET $3 LIMIT $4`

const selectEntitiesByTextQuery = `SELECT id, type_name, properties, create_time, update_time
	FROM govexec_entities WHERE type_name = $1 AND properties::text ILIKE $2
	ORDER BY id OFFSET $3 LIMIT $4`

const insertRelationshipQuery = `INSERT INTO govexec_relationships
	(id, type_name, from_id, to_id, properties, create_time)
	VALUES ($1, $2, $3, $4, $5, $6)`

const selectRelationshipQuery = `SELECT id, type_name, from_id, to_id, properties, create_time
	FROM govexec_relationships WHERE id = $1`

const updateRelationshipPropertiesQuery = `UPDATE govexec_relationships
	SET properties = $2 WHERE id = $1`

func (d dbSession) InsertEntity(ctx context.Context, row extensions.EntityRow) error {
	_, err := d.db.ExecContext(ctx, insertEntityQuery,
		row.Id, row.TypeName, row.Properties, row.CreateTime, row.UpdateTime)
	return err
}

func (d dbSession) SelectEntity(ctx context.Context, id string) (*extensions.EntityRow, error) {
	var row extensions.EntityRow
	err := d.db.GetContext(ctx, &row, selectEntityQuery, id)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d dbSession) SelectEntitiesByProperty(
	ctx context.Context, typeName string, propertyName string, value string, limit int,
) ([]extensions.EntityRow, error) {
	var rows []extensions.EntityRow
	err := d.db.SelectContext(ctx, &rows, selectEntitiesByPropertyQuery,
		typeName, propertyName, value, limit)
	return rows, err
}

func (d dbSession) SelectEntitiesContainingProperties(
	ctx context.Context, typeName string, propertiesJson []byte, offset int, limit int,
) ([]extensions.EntityRow, error) {
	var rows []extensions.EntityRow
	err := d.db.SelectContext(ctx, &rows, selectEntitiesContainingQuery,
		typeName, propertiesJson, offset, limit)
	return rows, err
}

func (d dbSession) SelectEntitiesByTextSearch(
	ctx context.Context, typeName string, search string, offset int, limit int,
) ([]extensions.EntityRow, error) {
	var rows []extensions.EntityRow
	err := d.db.SelectContext(ctx, &rows, selectEntitiesByTextQuery,
		typeName, "%"+search+"%", offset, limit)
	return rows, err
}

func (d dbSession) InsertRelationship(ctx context.Context, row extensions.RelationshipRow) error {
	_, err := d.db.ExecContext(ctx, insertRelationshipQuery,
		row.Id, row.TypeName, row.FromId, row.ToId, row.Properties, row.CreateTime)
	return err
}

func (d dbSession) SelectRelationship(ctx context.Context, id string) (*extensions.RelationshipRow, error) {
	var row extensions.RelationshipRow
	err := d.db.GetContext(ctx, &row, selectRelationshipQuery, id)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d dbSession) SelectRelationships(
	ctx context.Context, entityId string, typeName string, direction extensions.RelationshipDirection,
	offset int, limit int,
) ([]extensions.RelationshipRow, error) {
	var endPredicate string
	switch direction {
	case extensions.RelationshipDirectionOutgoing:
		endPredicate = "from_id = $1"
	case extensions.RelationshipDirectionIncoming:
		endPredicate = "to_id = $1"
	default:
		endPredicate = "(from_id = $1 OR to_id = $1)"
	}

	query := fmt.Sprintf(`SELECT id, type_name, from_id, to_id, properties, create_time
		FROM govexec_relationships WHERE %v`, endPredicate)
	args := []interface{}{entityId}
	if typeName != "" {
		query += " AND type_name = $2 ORDER BY id OFFSET $3 LIMIT $4"
		args = append(args, typeName, offset, limit)
	} else {
		query += " ORDER BY id OFFSET $2 LIMIT $3"
		args = append(args, offset, limit)
	}

	var rows []extensions.RelationshipRow
	err := d.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (d dbSession) UpdateRelationshipProperties(
	ctx context.Context, id string, propertiesJson []byte,
) error {
	_, err := d.db.ExecContext(ctx, updateRelationshipPropertiesQuery, id, propertiesJson)
	return err
}
