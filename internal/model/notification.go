package model

import (
	"github.com/google/uuid"
)

const (
	EventDoctorStatusChanged  = "doctor.status_changed"
	EventConsentRequested     = "consent.requested"
	EventConsentStatusChanged = "consent.status_changed"
)

type DoctorStatusEvent struct {
	DoctorID uuid.UUID    `json:"doctor_id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Status   DoctorStatus `json:"status"`
}

type ConsentEvent struct {
	ConsentID uuid.UUID     `json:"consent_id"`
	DoctorID  uuid.UUID     `json:"doctor_id"`
	PatientID uuid.UUID     `json:"patient_id"`
	Status    ConsentStatus `json:"status"`
}
