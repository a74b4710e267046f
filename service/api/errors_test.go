// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govexecio/govexec/common/errors"
)

func TestToApiErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{errors.NewInvalidParameter("userId", "userId cannot be empty"), http.StatusBadRequest, errorKindInvalidParameter},
		{errors.NewUserNotAuthorized("bob", "not the owner"), http.StatusForbidden, errorKindUserNotAuthorized},
		{errors.NewPropertyServer("store unavailable"), http.StatusInternalServerError, errorKindPropertyServer},
	}
	for _, tt := range tests {
		apiErr := toApiError(tt.err)
		assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		require.NotNil(t, apiErr.Error.ErrorKind)
		assert.Equal(t, tt.wantKind, *apiErr.Error.ErrorKind)
		require.NotNil(t, apiErr.Error.Detail)
		assert.Equal(t, tt.err.Error(), *apiErr.Error.Detail)
	}
}

func TestToApiErrorUnknownErrorIs500(t *testing.T) {
	apiErr := toApiError(fmt.Errorf("something broke"))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Nil(t, apiErr.Error.ErrorKind)
}
