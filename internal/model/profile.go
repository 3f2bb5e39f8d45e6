package model

import (
	"database/sql/driver"
	"encoding/json"
	"math"

	"github.com/google/uuid"
)

type Certification struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type Certifications []Certification

func (c Certifications) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *Certifications) Scan(src interface{}) error {
	return scanJSON(src, c)
}

type DoctorProfile struct {
	Base
	DoctorID       uuid.UUID      `json:"doctor_id" db:"doctor_id"`
	Bio            *string        `json:"bio" db:"bio"`
	Specialties    StringList     `json:"specialties" db:"specialties"`
	Certifications Certifications `json:"certifications" db:"certifications"`
	ClinicTimings  JSONMap        `json:"clinic_timings" db:"clinic_timings"`
	Languages      StringList     `json:"languages" db:"languages"`
	Fees           *float64       `json:"fees" db:"fees"`
}

const profileFieldCount = 6

// Completeness is the share of the six optional profile fields that carry a
// value, as a percentage rounded to two decimals.
func (p *DoctorProfile) Completeness() float64 {
	if p == nil {
		return 0
	}
	filled := 0
	if p.Bio != nil && *p.Bio != "" {
		filled++
	}
	if len(p.Specialties) > 0 {
		filled++
	}
	if len(p.Certifications) > 0 {
		filled++
	}
	if len(p.ClinicTimings) > 0 {
		filled++
	}
	if len(p.Languages) > 0 {
		filled++
	}
	if p.Fees != nil {
		filled++
	}
	pct := float64(filled) / profileFieldCount * 100
	return math.Round(pct*100) / 100
}

// Apply copies every non-nil field of req onto p.
func (p *DoctorProfile) Apply(req *ProfileUpdateRequest) {
	if req.Bio != nil {
		p.Bio = req.Bio
	}
	if req.Specialties != nil {
		p.Specialties = *req.Specialties
	}
	if req.Certifications != nil {
		p.Certifications = *req.Certifications
	}
	if req.ClinicTimings != nil {
		p.ClinicTimings = *req.ClinicTimings
	}
	if req.Languages != nil {
		p.Languages = *req.Languages
	}
	if req.Fees != nil {
		p.Fees = req.Fees
	}
}

// ProfileUpdateRequest is a partial update; absent fields are left alone.
type ProfileUpdateRequest struct {
	Bio            *string         `json:"bio"`
	Specialties    *StringList     `json:"specialties"`
	Certifications *Certifications `json:"certifications"`
	ClinicTimings  *JSONMap        `json:"clinic_timings"`
	Languages      *StringList     `json:"languages"`
	Fees           *float64        `json:"fees" validate:"omitempty,gte=0"`
}

type ProfileView struct {
	Bio                    *string        `json:"bio"`
	Specialties            StringList     `json:"specialties"`
	Certifications         Certifications `json:"certifications"`
	ClinicTimings          JSONMap        `json:"clinic_timings"`
	Languages              StringList     `json:"languages"`
	Fees                   *float64       `json:"fees"`
	CompletenessPercentage float64        `json:"completeness_percentage"`
}

func NewProfileView(p *DoctorProfile) *ProfileView {
	if p == nil {
		return nil
	}
	return &ProfileView{
		Bio:                    p.Bio,
		Specialties:            p.Specialties,
		Certifications:         p.Certifications,
		ClinicTimings:          p.ClinicTimings,
		Languages:              p.Languages,
		Fees:                   p.Fees,
		CompletenessPercentage: p.Completeness(),
	}
}
