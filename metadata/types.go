// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"time"
)

// Properties is the property bag of an entity or relationship.
// Values survive a JSON round trip through the SQL store, so the typed
// accessors accept both the native Go types and the shapes that
// encoding/json produces (float64, []interface{}, map[string]interface{}).
type Properties map[string]interface{}

// Entity is a typed node in the metadata store
type Entity struct {
	Id         string
	TypeName   string
	Properties Properties
	CreateTime time.Time
	UpdateTime time.Time
}

// Relationship is a typed directed edge between two entities
type Relationship struct {
	Id         string
	TypeName   string
	FromId     string
	ToId       string
	Properties Properties
	CreateTime time.Time
}

// Direction selects which relationships of an entity a scan returns
type Direction string

const (
	// DirectionOutgoing returns relationships where the entity is the "from" end
	DirectionOutgoing Direction = "outgoing"
	// DirectionIncoming returns relationships where the entity is the "to" end
	DirectionIncoming Direction = "incoming"
	// DirectionAny returns relationships touching the entity at either end
	DirectionAny Direction = "any"
)

func (p Properties) GetString(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (p Properties) GetInt(key string) int {
	v, ok := p[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return 0
}

func (p Properties) GetInt64(key string) int64 {
	v, ok := p[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float64:
		return int64(t)
	}
	return 0
}

func (p Properties) GetInt64Ptr(key string) *int64 {
	if _, ok := p[key]; !ok {
		return nil
	}
	v := p.GetInt64(key)
	return &v
}

func (p Properties) GetBool(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (p Properties) GetStringSlice(key string) []string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (p Properties) GetStringMap(key string) map[string]string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case map[string]string:
		return t
	case map[string]interface{}:
		out := make(map[string]string, len(t))
		for k, e := range t {
			if s, ok := e.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// Has returns true when the key is present, even with an empty value
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
