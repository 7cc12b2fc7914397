package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestNewValidatorReportsJSONFieldNames(t *testing.T) {
	req := GenerateTimetableRequest{
		Years: map[string]YearPayload{
			"FY": {Subjects: []SubjectPayload{{Type: "Seminar", Hours: 3}}},
		},
		Rooms: []RoomPayload{{Name: "C-1", Type: "Classroom"}},
	}

	err := NewValidator().Struct(req)
	require.Error(t, err)

	details := appErrors.Validation(err, "invalid timetable generation payload").Details
	assert.ElementsMatch(t, []appErrors.FieldError{
		{Field: "years[FY].subjects[0].code", Rule: "required"},
		{Field: "years[FY].subjects[0].type", Rule: "oneof", Param: "Theory Lab Tutorial"},
	}, details)
}
