// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/common/log"
	"github.com/govexecio/govexec/common/log/tag"
	"github.com/govexecio/govexec/common/uuid"
	"github.com/govexecio/govexec/config"
	"github.com/govexecio/govexec/extensions"
	"github.com/govexecio/govexec/metadata"
)

type sqlStore struct {
	session extensions.SQLDBSession
	logger  log.Logger
}

// NewSQLMetadataStore builds a metadata store on top of the registered SQL
// extension named in the config
func NewSQLMetadataStore(sqlConfig config.SQL, logger log.Logger) (metadata.Store, error) {
	session, err := extensions.NewSQLSession(&sqlConfig)
	if err != nil {
		return nil, err
	}
	return &sqlStore{
		session: session,
		logger:  logger,
	}, nil
}

func (s *sqlStore) GetEntityById(ctx context.Context, id string, typeName string) (*metadata.Entity, error) {
	row, err := s.session.SelectEntity(ctx, id)
	if err != nil {
		if s.session.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	entity, err := entityFromRow(row)
	if err != nil {
		return nil, err
	}
	if typeName != "" && entity.TypeName != typeName {
		return nil, nil
	}
	return entity, nil
}

func (s *sqlStore) GetEntityByUniqueName(
	ctx context.Context, typeName string, propertyName string, value string,
) (*metadata.Entity, error) {
	rows, err := s.session.SelectEntitiesByProperty(ctx, typeName, propertyName, value, 2)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		return nil, errors.NewInvalidParameter(propertyName,
			"more than one %v entity has %v %v", typeName, propertyName, value)
	}
	return entityFromRow(&rows[0])
}

func (s *sqlStore) CreateEntity(ctx context.Context, typeName string, properties metadata.Properties) (string, error) {
	id := uuid.MustNewUUID().String()
	propsJson, err := json.Marshal(properties)
	if err != nil {
		return "", err
	}
	now := time.Now()
	err = s.session.InsertEntity(ctx, extensions.EntityRow{
		Id:         id,
		TypeName:   typeName,
		Properties: propsJson,
		CreateTime: now,
		UpdateTime: now,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *sqlStore) UpdateEntityProperties(
	ctx context.Context, id string, updates metadata.Properties, replaceAll bool,
) error {
	_, err := s.updateEntityInTxn(ctx, id, func(current metadata.Properties) (metadata.Properties, bool) {
		if replaceAll {
			return updates.Clone(), true
		}
		return mergeProperties(current, updates), true
	})
	return err
}

func (s *sqlStore) UpdateEntityPropertiesConditionally(
	ctx context.Context, id string, expected metadata.Properties, updates metadata.Properties,
) (bool, error) {
	return s.updateEntityInTxn(ctx, id, func(current metadata.Properties) (metadata.Properties, bool) {
		if !metadata.PropertiesMatch(current, expected) {
			return nil, false
		}
		return mergeProperties(current, updates), true
	})
}

// updateEntityInTxn reads the entity row under a row lock, lets apply decide
// the new property document, and writes it back before committing. Returning
// false from apply rolls back and reports the condition failure to the caller.
func (s *sqlStore) updateEntityInTxn(
	ctx context.Context, id string, apply func(current metadata.Properties) (metadata.Properties, bool),
) (bool, error) {
	txn, err := s.session.StartTransaction(ctx, &sql.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err := txn.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("transaction rollback failed", tag.Error(err))
		}
	}()

	row, err := txn.SelectEntityForUpdate(ctx, id)
	if err != nil {
		if s.session.IsNotFoundError(err) {
			return false, errors.NewInvalidParameter("id", "no entity with id %v", id)
		}
		return false, err
	}
	var current metadata.Properties
	if err := json.Unmarshal(row.Properties, &current); err != nil {
		return false, err
	}

	next, ok := apply(current)
	if !ok {
		return false, nil
	}

	propsJson, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	row.Properties = propsJson
	row.UpdateTime = time.Now()
	if err := txn.UpdateEntityProperties(ctx, *row); err != nil {
		return false, err
	}
	return true, txn.Commit()
}

func (s *sqlStore) CreateRelationship(
	ctx context.Context, typeName string, fromId string, toId string, properties metadata.Properties,
) (string, error) {
	id := uuid.MustNewUUID().String()
	propsJson, err := json.Marshal(properties)
	if err != nil {
		return "", err
	}
	err = s.session.InsertRelationship(ctx, extensions.RelationshipRow{
		Id:         id,
		TypeName:   typeName,
		FromId:     fromId,
		ToId:       toId,
		Properties: propsJson,
		CreateTime: time.Now(),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *sqlStore) UpdateRelationshipProperties(
	ctx context.Context, relationshipId string, updates metadata.Properties,
) error {
	row, err := s.session.SelectRelationship(ctx, relationshipId)
	if err != nil {
		if s.session.IsNotFoundError(err) {
			return errors.NewInvalidParameter("relationshipId", "no relationship with id %v", relationshipId)
		}
		return err
	}
	var current metadata.Properties
	if err := json.Unmarshal(row.Properties, &current); err != nil {
		return err
	}
	propsJson, err := json.Marshal(mergeProperties(current, updates))
	if err != nil {
		return err
	}
	return s.session.UpdateRelationshipProperties(ctx, relationshipId, propsJson)
}

func (s *sqlStore) GetRelationshipsPage(
	ctx context.Context, entityId string, typeName string, direction metadata.Direction,
	startFrom int, pageSize int,
) ([]*metadata.Relationship, error) {
	rows, err := s.session.SelectRelationships(
		ctx, entityId, typeName, toExtensionDirection(direction), startFrom, pageSize)
	if err != nil {
		return nil, err
	}
	result := make([]*metadata.Relationship, 0, len(rows))
	for i := range rows {
		rel, err := relationshipFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, rel)
	}
	return result, nil
}

func (s *sqlStore) GetEntitiesByTypePage(
	ctx context.Context, typeName string, matchProperties metadata.Properties,
	startFrom int, pageSize int,
) ([]*metadata.Entity, error) {
	matchJson, err := json.Marshal(matchProperties)
	if err != nil {
		return nil, err
	}
	rows, err := s.session.SelectEntitiesContainingProperties(ctx, typeName, matchJson, startFrom, pageSize)
	if err != nil {
		return nil, err
	}
	return entitiesFromRows(rows)
}

func (s *sqlStore) GetEntitiesByValuePage(
	ctx context.Context, typeName string, searchString string, startFrom int, pageSize int,
) ([]*metadata.Entity, error) {
	rows, err := s.session.SelectEntitiesByTextSearch(ctx, typeName, searchString, startFrom, pageSize)
	if err != nil {
		return nil, err
	}
	return entitiesFromRows(rows)
}

func (s *sqlStore) Close() error {
	return s.session.Close()
}

func mergeProperties(current metadata.Properties, updates metadata.Properties) metadata.Properties {
	merged := current.Clone()
	if merged == nil {
		merged = metadata.Properties{}
	}
	for key, value := range updates {
		if value == nil {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	return merged
}

func toExtensionDirection(direction metadata.Direction) extensions.RelationshipDirection {
	switch direction {
	case metadata.DirectionOutgoing:
		return extensions.RelationshipDirectionOutgoing
	case metadata.DirectionIncoming:
		return extensions.RelationshipDirectionIncoming
	default:
		return extensions.RelationshipDirectionAny
	}
}

func entityFromRow(row *extensions.EntityRow) (*metadata.Entity, error) {
	var props metadata.Properties
	if err := json.Unmarshal(row.Properties, &props); err != nil {
		return nil, err
	}
	return &metadata.Entity{
		Id:         row.Id,
		TypeName:   row.TypeName,
		Properties: props,
		CreateTime: row.CreateTime,
		UpdateTime: row.UpdateTime,
	}, nil
}

func entitiesFromRows(rows []extensions.EntityRow) ([]*metadata.Entity, error) {
	result := make([]*metadata.Entity, 0, len(rows))
	for i := range rows {
		entity, err := entityFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, nil
}

func relationshipFromRow(row *extensions.RelationshipRow) (*metadata.Relationship, error) {
	var props metadata.Properties
	if err := json.Unmarshal(row.Properties, &props); err != nil {
		return nil, err
	}
	return &metadata.Relationship{
		Id:         row.Id,
		TypeName:   row.TypeName,
		FromId:     row.FromId,
		ToId:       row.ToId,
		Properties: props,
		CreateTime: row.CreateTime,
	}, nil
}
