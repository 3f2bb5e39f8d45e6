package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/doctor-api/pkg/errors"
)

type visit struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02,notpast"`
	Time  string  `json:"time" validate:"required,hhmm"`
	Mode  string  `json:"mode" validate:"omitempty,oneof=online in-person"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
}

func TestValidateAcceptsToday(t *testing.T) {
	v := NewWithClock(fixedClock)
	assert.NoError(t, v.Validate(&visit{Date: "2025-03-10", Time: "09:15", Mode: "online"}))
}

func TestValidateRejects(t *testing.T) {
	v := NewWithClock(fixedClock)
	bad := "not-an-email"

	tests := []struct {
		name string
		in   visit
		msg  string
	}{
		{"past date", visit{Date: "2025-03-09", Time: "09:15"}, "date cannot be in the past"},
		{"bad time", visit{Date: "2025-03-11", Time: "25:00"}, "time must be in HH:MM format"},
		{"bad mode", visit{Date: "2025-03-11", Time: "09:00", Mode: "phone"}, "mode must be one of: online in-person"},
		{"missing date", visit{Time: "09:00"}, "date is required"},
		{"bad email", visit{Date: "2025-03-11", Time: "09:00", Email: &bad}, "email must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			assert.True(t, errors.IsValidation(err))
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestValidateVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateVar("patient_id", "6f1c1d9c-8a57-4a53-9a43-3c6f5f0c1e2a", "uuid"))
	assert.EqualError(t, v.ValidateVar("patient_id", "abc", "uuid"), "patient_id must be a valid UUID")
}
