package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnprocessableCarriesViolations(t *testing.T) {
	violations := []FieldViolation{
		{Type: "greater_than", Loc: []string{"body", "cart_value"}, Message: "Input should be greater than 0"},
	}

	err := ErrUnprocessable("validation failed", violations)

	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, CodeUnprocessable, err.Code)
	assert.Equal(t, violations, err.Violations)
	assert.Equal(t, "UNPROCESSABLE_ENTITY: validation failed", err.Error())
}

func TestMapDomainError(t *testing.T) {
	appErr := ErrBadRequest("bad")
	assert.Same(t, appErr, MapDomainError(fmt.Errorf("wrapped: %w", appErr)))

	assert.Nil(t, MapDomainError(nil))
	assert.Equal(t, http.StatusNotFound, MapDomainError(stderrors.New("rule not found")).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, MapDomainError(stderrors.New("Invalid rush day")).HTTPStatus)

	internal := MapDomainError(stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.EqualError(t, internal.Unwrap(), "boom")
}

func TestAsAppError(t *testing.T) {
	_, ok := AsAppError(stderrors.New("plain"))
	assert.False(t, ok)

	got, ok := AsAppError(fmt.Errorf("ctx: %w", ErrNotFound("route")))
	require.True(t, ok)
	assert.Equal(t, "route not found", got.Message)
}

func TestWithDetail(t *testing.T) {
	err := ErrValidation("bad rules").WithDetail("field", "maxFee")
	assert.Equal(t, map[string]string{"field": "maxFee"}, err.Details)
}

func TestErrPayloadTooLarge(t *testing.T) {
	err := ErrPayloadTooLarge(65536)

	assert.Equal(t, http.StatusRequestEntityTooLarge, err.HTTPStatus)
	assert.Equal(t, CodePayloadTooLarge, err.Code)
	assert.Equal(t, map[string]string{"maxBytes": "65536"}, err.Details)
}
