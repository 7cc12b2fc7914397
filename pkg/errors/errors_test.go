package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrNotFound)

	got := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, "internal server error: boom", got.Error())
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrValidation, "years is required")
	assert.Equal(t, "years is required", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Nil(t, Clone(nil, "x"))
}

type subjectPayload struct {
	Code  string `validate:"required"`
	Hours int    `validate:"min=0,max=60"`
}

type yearPayload struct {
	Subjects []subjectPayload `validate:"dive"`
}

func TestValidationListsFieldFailures(t *testing.T) {
	err := validator.New().Struct(yearPayload{Subjects: []subjectPayload{{Hours: 90}}})
	require.Error(t, err)

	got := Validation(err, "invalid timetable generation payload")
	assert.Equal(t, ErrValidation.Code, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, []FieldError{
		{Field: "Subjects[0].Code", Rule: "required"},
		{Field: "Subjects[0].Hours", Rule: "max", Param: "60"},
	}, got.Details)
}

func TestValidationWithoutFieldErrors(t *testing.T) {
	got := Validation(stdErrors.New("json: unsupported value"), "timetable data is not serialisable")
	assert.Equal(t, ErrValidation.Code, got.Code)
	assert.Empty(t, got.Details)
	assert.Equal(t, "timetable data is not serialisable: json: unsupported value", got.Error())
}
