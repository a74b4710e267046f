// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package tag

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const LoggingCallAtKey = "logging-call-at"

// Tag is the interface for logging system
type Tag struct {
	// keep this field private
	field zap.Field
}

// Field returns a zap field
func (t *Tag) Field() zap.Field {
	return t.field
}

func newStringTag(key string, value string) Tag {
	return Tag{
		field: zap.String(key, value),
	}
}

func newInt(key string, value int) Tag {
	return Tag{
		field: zap.Int(key, value),
	}
}

func newTimeTag(key string, value time.Time) Tag {
	return Tag{
		field: zap.Time(key, value),
	}
}

func newObjectTag(key string, value interface{}) Tag {
	return Tag{
		field: zap.String(key, fmt.Sprintf("%v", value)),
	}
}

func newErrorTag(key string, value error) Tag {
	//NOTE zap already chosen "error" as key
	return Tag{
		field: zap.Error(value),
	}
}

// TAGS

func Error(err error) Tag {
	return newErrorTag("error", err)
}

func Service(sv string) Tag {
	return newStringTag("service", sv)
}

func Message(msg string) Tag {
	return newStringTag("message", msg)
}

func EngineActionId(id string) Tag {
	return newStringTag("engineActionId", id)
}

func QualifiedName(name string) Tag {
	return newStringTag("qualifiedName", name)
}

func ProcessName(name string) Tag {
	return newStringTag("processName", name)
}

func ProcessInstanceId(id string) Tag {
	return newStringTag("processInstanceId", id)
}

func ProcessStepId(id string) Tag {
	return newStringTag("processStepId", id)
}

func GovernanceEngine(name string) Tag {
	return newStringTag("governanceEngine", name)
}

func RequestType(rt string) Tag {
	return newStringTag("requestType", rt)
}

func UserId(id string) Tag {
	return newStringTag("userId", id)
}

func Guard(g string) Tag {
	return newStringTag("guard", g)
}

func ActionStatus(status string) Tag {
	return newStringTag("actionStatus", status)
}

func StatusCode(status int) Tag {
	return newInt("status", status)
}

func Value(v interface{}) Tag {
	return newObjectTag("value", v)
}

func DefaultValue(v interface{}) Tag {
	return newObjectTag("default-value", v)
}

func UnixTimestamp(v int64) Tag {
	return newTimeTag("UnixTimestamp", time.Unix(v, 0))
}

func AnyToStr(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
