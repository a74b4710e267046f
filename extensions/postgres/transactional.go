// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"

	"github.com/govexecio/govexec/extensions"
)

const selectEntityForUpdateQuery = `SELECT id, type_name, properties, create_time, update_time
	FROM govexec_entities WHERE id = $1 FOR UPDATE`

const updateEntityPropertiesQuery = `UPDATE govexec_entities
	SET properties = $2, update_time = $3 WHERE id = $1`

func (d dbTx) SelectEntityForUpdate(ctx context.Context, id string) (*extensions.EntityRow, error) {
	var row extensions.EntityRow
	err := d.tx.GetContext(ctx, &row, selectEntityForUpdateQuery, id)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d dbTx) UpdateEntityProperties(ctx context.Context, row extensions.EntityRow) error {
	_, err := d.tx.ExecContext(ctx, updateEntityPropertiesQuery,
		row.Id, row.Properties, row.UpdateTime)
	return err
}
