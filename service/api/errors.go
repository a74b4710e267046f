// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/govexecio/govexec/common/errors"
	"github.com/govexecio/govexec/goapi/govapi"
)

type ErrorWithStatus struct {
	StatusCode int
	Error      govapi.ApiErrorResponse
}

func NewErrorWithStatus(code int, details string) *ErrorWithStatus {
	return &ErrorWithStatus{
		StatusCode: code,
		Error: govapi.ApiErrorResponse{
			Detail: &details,
		},
	}
}

const (
	errorKindInvalidParameter  = "INVALID_PARAMETER"
	errorKindUserNotAuthorized = "USER_NOT_AUTHORIZED"
	errorKindPropertyServer    = "PROPERTY_SERVER"
)

// toApiError maps the engine's error kinds onto HTTP statuses:
// caller mistakes are 400, authorization failures 403, everything else 500
func toApiError(err error) *ErrorWithStatus {
	switch {
	case errors.IsInvalidParameter(err):
		return newKindError(http.StatusBadRequest, errorKindInvalidParameter, err)
	case errors.IsUserNotAuthorized(err):
		return newKindError(http.StatusForbidden, errorKindUserNotAuthorized, err)
	case errors.IsPropertyServer(err):
		return newKindError(http.StatusInternalServerError, errorKindPropertyServer, err)
	default:
		return NewErrorWithStatus(http.StatusInternalServerError, err.Error())
	}
}

func newKindError(code int, kind string, err error) *ErrorWithStatus {
	return &ErrorWithStatus{
		StatusCode: code,
		Error: govapi.ApiErrorResponse{
			Detail:    govapi.PtrString(err.Error()),
			ErrorKind: govapi.PtrString(kind),
		},
	}
}
