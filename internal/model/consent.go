package model

import (
	"github.com/google/uuid"
)

type ConsentStatus string

const (
	ConsentStatusPending ConsentStatus = "pending"
	ConsentStatusGranted ConsentStatus = "granted"
	ConsentStatusDenied  ConsentStatus = "denied"
)

// consentTransitions lists the legal next states. Repeating granted or
// denied is a no-op; granted -> denied is revocation; nothing returns to
// pending.
var consentTransitions = map[ConsentStatus][]ConsentStatus{
	ConsentStatusPending: {ConsentStatusGranted, ConsentStatusDenied},
	ConsentStatusGranted: {ConsentStatusGranted, ConsentStatusDenied},
	ConsentStatusDenied:  {ConsentStatusDenied},
}

func (s ConsentStatus) Valid() bool {
	_, ok := consentTransitions[s]
	return ok
}

func (s ConsentStatus) CanTransition(next ConsentStatus) bool {
	for _, allowed := range consentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Consent struct {
	Base
	DoctorID  uuid.UUID     `json:"doctor_id" db:"doctor_id"`
	PatientID uuid.UUID     `json:"patient_id" db:"patient_id"`
	Status    ConsentStatus `json:"status" db:"status"`
}

type ConsentRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
}

type ConsentResolveRequest struct {
	Status ConsentStatus `json:"status" validate:"required"`
}
