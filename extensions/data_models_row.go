// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package extensions

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type (
	EntityRow struct {
		Id         string
		TypeName   string
		Properties types.JSONText
		CreateTime time.Time
		UpdateTime time.Time
	}

	RelationshipRow struct {
		Id         string
		TypeName   string
		FromId     string
		ToId       string
		Properties types.JSONText
		CreateTime time.Time
	}
)
