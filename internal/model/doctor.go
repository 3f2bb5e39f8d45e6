package model

import (
	"github.com/google/uuid"
)

type DoctorStatus string

const (
	DoctorStatusPending  DoctorStatus = "pending"
	DoctorStatusApproved DoctorStatus = "approved"
	DoctorStatusRejected DoctorStatus = "rejected"
)

var doctorTransitions = map[DoctorStatus][]DoctorStatus{
	DoctorStatusPending: {DoctorStatusApproved, DoctorStatusRejected},
}

func (s DoctorStatus) Valid() bool {
	switch s {
	case DoctorStatusPending, DoctorStatusApproved, DoctorStatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether an administrator may move a doctor from s
// to next. Approved and rejected are terminal.
func (s DoctorStatus) CanTransition(next DoctorStatus) bool {
	for _, allowed := range doctorTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Doctor struct {
	Base
	UserID                 uuid.UUID    `json:"user_id" db:"user_id"`
	Name                   string       `json:"name" db:"name"`
	Email                  string       `json:"email" db:"email"`
	Mobile                 string       `json:"mobile" db:"mobile"`
	Specialty              string       `json:"specialty" db:"specialty"`
	ClinicAddress          *string      `json:"clinic_address,omitempty" db:"clinic_address"`
	RegID                  string       `json:"reg_id" db:"reg_id"`
	GovtIDPath             string       `json:"govt_id" db:"govt_id_path"`
	MedicalCertificatePath string       `json:"medical_certificate" db:"medical_certificate_path"`
	Status                 DoctorStatus `json:"status" db:"status"`
}

func (d *Doctor) IsApproved() bool {
	return d != nil && d.Status == DoctorStatusApproved
}

// OnboardRequest carries the text fields of the multipart onboarding form.
type OnboardRequest struct {
	Username      string `form:"username" json:"username" validate:"required,max=150"`
	Password      string `form:"password" json:"password" validate:"required,min=8"`
	Name          string `form:"name" json:"name" validate:"required,max=100"`
	Email         string `form:"email" json:"email" validate:"required,email"`
	Mobile        string `form:"mobile" json:"mobile" validate:"required,max=15"`
	Specialty     string `form:"specialty" json:"specialty" validate:"required,max=100"`
	ClinicAddress string `form:"clinic_address" json:"clinic_address"`
	RegID         string `form:"reg_id" json:"reg_id" validate:"required,max=50"`
}

type OnboardResponse struct {
	DoctorID uuid.UUID    `json:"doctor_id"`
	Status   DoctorStatus `json:"status"`
}

type ReviewRequest struct {
	Status DoctorStatus `json:"status" validate:"required"`
}

// DoctorPreview is the public card of an approved doctor.
type DoctorPreview struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Specialty     string       `json:"specialty"`
	ClinicAddress *string      `json:"clinic_address,omitempty"`
	Profile       *ProfileView `json:"profile,omitempty"`
}
