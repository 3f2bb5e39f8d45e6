package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusAccepted AppointmentStatus = "accepted"
	AppointmentStatusRejected AppointmentStatus = "rejected"
	AppointmentStatusNoShow   AppointmentStatus = "no-show"
)

type AppointmentMode string

const (
	AppointmentModeOnline   AppointmentMode = "online"
	AppointmentModeInPerson AppointmentMode = "in-person"
)

type Appointment struct {
	Base
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date            string            `db:"date" json:"date"`
	Time            string            `db:"time" json:"time"`
	Mode            AppointmentMode   `db:"mode" json:"mode"`
	Status          AppointmentStatus `db:"status" json:"status"`
	RejectionReason *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id" validate:"omitempty,uuid"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02,notpast"`
	Time            string `json:"time" validate:"required,hhmm"`
	Mode            string `json:"mode" validate:"omitempty,oneof=online in-person"`
	Status          string `json:"status" validate:"omitempty,oneof=pending accepted rejected no-show"`
	RejectionReason string `json:"rejection_reason" validate:"max=255"`
}

type UpdateAppointmentRequest struct {
	Date            *string `json:"date" validate:"omitempty,datetime=2006-01-02,notpast"`
	Time            *string `json:"time" validate:"omitempty,hhmm"`
	Mode            *string `json:"mode" validate:"omitempty,oneof=online in-person"`
	Status          *string `json:"status" validate:"omitempty,oneof=pending accepted rejected no-show"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=255"`
}

type AppointmentFilters struct {
	Date   string `form:"date"`
	Status string `form:"status"`
	// Ordering is "date" or "-date"; time breaks ties in the same direction.
	Ordering string `form:"ordering"`
}

type MedicalNote struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	Notes         string    `json:"notes" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type CreateNoteRequest struct {
	Notes string `json:"notes" validate:"required"`
}
