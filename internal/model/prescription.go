package model

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionUpload struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DoctorID      uuid.UUID `json:"doctor_id" db:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id" db:"patient_id"`
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	FilePath      string    `json:"file_path" db:"file_path"`
	FileURL       string    `json:"file_url" db:"-"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
}

type PrescriptionUploadRequest struct {
	AppointmentID string `json:"appointment_id" form:"appointment_id" validate:"required,uuid"`
	PatientID     string `json:"patient_id" form:"patient_id" validate:"required,uuid"`
}

type PrescriptionUploadResponse struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	FileURL        string    `json:"file_url"`
}
