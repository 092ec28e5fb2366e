package apperror

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionforest/api/pkg/logger"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without internal",
			err:  ErrCycle,
			want: "cycle_error: Operation would create a cycle",
		},
		{
			name: "with internal",
			err:  ErrDatabase.WithInternal(errors.New("connection refused")),
			want: "database_error: Database operation failed (connection refused)",
		},
		{
			name: "with custom message",
			err:  ErrParentNotFound.WithMessage("parent 'abc' not found"),
			want: "parent_not_found: parent 'abc' not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	wrapped := ErrVersionConflict.WithInternal(errors.New("stale"))
	assert.True(t, errors.Is(wrapped, ErrVersionConflict))
	assert.False(t, errors.Is(wrapped, ErrCycle))

	custom := ErrActionNotFound.WithMessage("Action 'x' not found")
	assert.True(t, errors.Is(custom, ErrActionNotFound))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	assert.Equal(t, inner, ErrInternal.WithInternal(inner).Unwrap())
	assert.Nil(t, ErrInternal.Unwrap())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ErrActionNotFound, http.StatusNotFound},
		{ErrParentNotFound, http.StatusNotFound},
		{ErrVersionConflict, http.StatusConflict},
		{ErrCycle, http.StatusConflict},
		{ErrDuplicateEdge, http.StatusConflict},
		{ErrSelfDependency, http.StatusBadRequest},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrMaxDepth, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestHTTPErrorHandlerAppError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/dependencies", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger.NewLogger())
	handler(ErrCycle, c)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error":"Operation would create a cycle","code":"cycle_error"}`,
		rec.Body.String())
}

func TestHTTPErrorHandlerEchoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger.NewLogger())
	handler(echo.NewHTTPError(http.StatusNotFound, "route not found"), c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error":"route not found","code":"not_found"}`,
		rec.Body.String())
}

func TestHTTPErrorHandlerUnknownError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger.NewLogger())
	handler(errors.New("boom"), c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error":"An internal error occurred","code":"internal_error"}`,
		rec.Body.String())
}

func TestHTTPErrorHandlerHeadRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger.NewLogger())
	handler(ErrActionNotFound, c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
