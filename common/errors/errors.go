// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
)

// The three error kinds that every operation of the engine can surface.
// They are never swallowed and never retried internally: the caller owns
// retry policy.
//
//   - InvalidParameterError: malformed/missing input or an unresolvable
//     name reference (unknown engine, unknown process, unknown executor,
//     ambiguous unique lookup).
//   - UserNotAuthorizedError: the caller lacks permission for the action,
//     e.g. mutating an engine action claimed by another engine.
//   - PropertyServerError: the metadata store misbehaved (entity vanished
//     between lookup and use, missing required property, type mismatch).

type InvalidParameterError struct {
	// ParameterName is the name of the offending parameter, when known
	ParameterName string
	Message       string
}

func (e *InvalidParameterError) Error() string {
	if e.ParameterName == "" {
		return e.Message
	}
	return fmt.Sprintf("%v (parameter %v)", e.Message, e.ParameterName)
}

func NewInvalidParameter(parameterName string, format string, args ...interface{}) error {
	return &InvalidParameterError{
		ParameterName: parameterName,
		Message:       fmt.Sprintf(format, args...),
	}
}

type UserNotAuthorizedError struct {
	UserId  string
	Message string
}

func (e *UserNotAuthorizedError) Error() string {
	return fmt.Sprintf("user %v is not authorized: %v", e.UserId, e.Message)
}

func NewUserNotAuthorized(userId string, format string, args ...interface{}) error {
	return &UserNotAuthorizedError{
		UserId:  userId,
		Message: fmt.Sprintf(format, args...),
	}
}

type PropertyServerError struct {
	Message string
}

func (e *PropertyServerError) Error() string {
	return e.Message
}

func NewPropertyServer(format string, args ...interface{}) error {
	return &PropertyServerError{
		Message: fmt.Sprintf(format, args...),
	}
}

func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}

func IsUserNotAuthorized(err error) bool {
	var target *UserNotAuthorizedError
	return errors.As(err, &target)
}

func IsPropertyServer(err error) bool {
	var target *PropertyServerError
	return errors.As(err, &target)
}
