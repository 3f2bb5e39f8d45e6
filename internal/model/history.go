package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const AccessActionViewed = "viewed"

// criticalConditions are the flags.conditions entries counted as alerts.
var criticalConditions = map[string]bool{
	"diabetes":     true,
	"hypertension": true,
	"cancer":       true,
}

// PatientHistory is written by an external clinical system and only read here.
type PatientHistory struct {
	Base
	PatientID     uuid.UUID `json:"patient_id" db:"patient_id"`
	Reports       JSONList  `json:"reports" db:"reports"`
	Vitals        JSONMap   `json:"vitals" db:"vitals"`
	Prescriptions JSONList  `json:"prescriptions" db:"prescriptions"`
	Visits        JSONList  `json:"visits" db:"visits"`
	Flags         JSONMap   `json:"flags" db:"flags"`
}

type HistorySummary struct {
	ReportCount       int `json:"report_count"`
	VitalCount        int `json:"vital_count"`
	PrescriptionCount int `json:"prescription_count"`
	VisitCount        int `json:"visit_count"`
	CriticalAlerts    int `json:"critical_alerts"`
}

type HistoryView struct {
	*PatientHistory
	Summary HistorySummary `json:"summary"`
}

func (h *PatientHistory) Summary() HistorySummary {
	return HistorySummary{
		ReportCount:       len(h.Reports),
		VitalCount:        len(h.Vitals),
		PrescriptionCount: len(h.Prescriptions),
		VisitCount:        len(h.Visits),
		CriticalAlerts:    h.criticalAlerts(),
	}
}

func (h *PatientHistory) criticalAlerts() int {
	conditions, ok := h.Flags["conditions"].([]interface{})
	if !ok {
		return 0
	}
	n := 0
	for _, c := range conditions {
		if criticalConditions[strings.ToLower(fmt.Sprint(c))] {
			n++
		}
	}
	return n
}

// AccessLog is one append-only audit row per successful history view.
type AccessLog struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	PatientID  uuid.UUID `json:"patient_id" db:"patient_id"`
	Action     string    `json:"action" db:"action"`
	AccessedAt time.Time `json:"accessed_at" db:"accessed_at"`
}

type AccessLogFilter struct {
	PatientID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
}
