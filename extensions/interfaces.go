// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package extensions

import (
	"context"
	"database/sql"

	"github.com/govexecio/govexec/config"
)

type SQLDBExtension interface {
	// StartDBSession starts the session for regular business logic
	StartDBSession(cfg *config.SQL) (SQLDBSession, error)
	// StartAdminDBSession starts the session for admin operation like DDL
	StartAdminDBSession(cfg *config.SQL) (SQLAdminDBSession, error)
}

type SQLDBSession interface {
	metadataNonTxnCRUD
	ErrorChecker

	StartTransaction(ctx context.Context, opts *sql.TxOptions) (SQLTransaction, error)
	Close() error
}

type SQLTransaction interface {
	metadataTxnCRUD
	Commit() error
	Rollback() error
}

type SQLAdminDBSession interface {
	CreateDatabase(ctx context.Context, database string) error
	DropDatabase(ctx context.Context, database string) error
	ExecuteSchemaDDL(ctx context.Context, ddlQuery string) error
	Close() error
}

type metadataNonTxnCRUD interface {
	InsertEntity(ctx context.Context, row EntityRow) error
	SelectEntity(ctx context.Context, id string) (*EntityRow, error)
	// SelectEntitiesByProperty matches one top level string property of the
	// JSON document; limit rows ordered by id
	SelectEntitiesByProperty(ctx context.Context, typeName string, propertyName string, value string, limit int) ([]EntityRow, error)
	// SelectEntitiesContainingProperties uses JSON containment over the
	// properties document
	SelectEntitiesContainingProperties(ctx context.Context, typeName string, propertiesJson []byte, offset int, limit int) ([]EntityRow, error)
	SelectEntitiesByTextSearch(ctx context.Context, typeName string, search string, offset int, limit int) ([]EntityRow, error)

	InsertRelationship(ctx context.Context, row RelationshipRow) error
	SelectRelationship(ctx context.Context, id string) (*RelationshipRow, error)
	SelectRelationships(ctx context.Context, entityId string, typeName string, direction RelationshipDirection, offset int, limit int) ([]RelationshipRow, error)
	UpdateRelationshipProperties(ctx context.Context, id string, propertiesJson []byte) error
}

type metadataTxnCRUD interface {
	// SelectEntityForUpdate locks the row for the rest of the transaction;
	// the conditional property update of the metadata store rides on this
	SelectEntityForUpdate(ctx context.Context, id string) (*EntityRow, error)
	UpdateEntityProperties(ctx context.Context, row EntityRow) error
}

type ErrorChecker interface {
	IsDupEntryError(err error) bool
	IsNotFoundError(err error) bool
	IsTimeoutError(err error) bool
	IsThrottlingError(err error) bool
}

// RelationshipDirection selects which end of the relationship the entity is on
type RelationshipDirection string

const (
	RelationshipDirectionOutgoing RelationshipDirection = "outgoing"
	RelationshipDirectionIncoming RelationshipDirection = "incoming"
	RelationshipDirectionAny      RelationshipDirection = "any"
)
