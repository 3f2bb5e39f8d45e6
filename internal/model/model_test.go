package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsentTransitions(t *testing.T) {
	tests := []struct {
		from, to ConsentStatus
		want     bool
	}{
		{ConsentStatusPending, ConsentStatusGranted, true},
		{ConsentStatusPending, ConsentStatusDenied, true},
		{ConsentStatusPending, ConsentStatusPending, false},
		{ConsentStatusGranted, ConsentStatusGranted, true},
		{ConsentStatusGranted, ConsentStatusDenied, true},
		{ConsentStatusGranted, ConsentStatusPending, false},
		{ConsentStatusDenied, ConsentStatusDenied, true},
		{ConsentStatusDenied, ConsentStatusPending, false},
		{ConsentStatusDenied, ConsentStatusGranted, false},
		{ConsentStatusPending, "revoked", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDoctorTransitions(t *testing.T) {
	assert.True(t, DoctorStatusPending.CanTransition(DoctorStatusApproved))
	assert.True(t, DoctorStatusPending.CanTransition(DoctorStatusRejected))
	assert.False(t, DoctorStatusPending.CanTransition(DoctorStatusPending))
	assert.False(t, DoctorStatusApproved.CanTransition(DoctorStatusRejected))
	assert.False(t, DoctorStatusApproved.CanTransition(DoctorStatusPending))
	assert.False(t, DoctorStatusRejected.CanTransition(DoctorStatusApproved))
}

func TestProfileCompleteness(t *testing.T) {
	var empty *DoctorProfile
	assert.Equal(t, 0.0, empty.Completeness())

	bio := "Cardiologist"
	fees := 0.0
	p := &DoctorProfile{
		Bio:         &bio,
		Specialties: StringList{"cardiology"},
		Fees:        &fees,
		Languages:   StringList{},
	}
	assert.Equal(t, 50.0, p.Completeness())

	p.Certifications = Certifications{{Name: "FACC", Date: "2019-01-01"}}
	assert.Equal(t, 66.67, p.Completeness())

	blank := ""
	p.Bio = &blank
	assert.Equal(t, 50.0, p.Completeness())
}

func TestProfileApplyIsPartial(t *testing.T) {
	bio := "old"
	p := &DoctorProfile{Bio: &bio, Languages: StringList{"en"}}

	langs := StringList{"en", "hi"}
	p.Apply(&ProfileUpdateRequest{Languages: &langs})

	assert.Equal(t, "old", *p.Bio)
	assert.Equal(t, StringList{"en", "hi"}, p.Languages)
}

func TestHistorySummary(t *testing.T) {
	var flags JSONMap
	require.NoError(t, json.Unmarshal([]byte(`{"conditions":["Diabetes","asthma","CANCER","hypertension"]}`), &flags))

	h := &PatientHistory{
		Reports:       JSONList{"r1", "r2"},
		Vitals:        JSONMap{"bp": "120/80"},
		Prescriptions: JSONList{},
		Visits:        JSONList{"v1"},
		Flags:         flags,
	}

	assert.Equal(t, HistorySummary{
		ReportCount:       2,
		VitalCount:        1,
		PrescriptionCount: 0,
		VisitCount:        1,
		CriticalAlerts:    3,
	}, h.Summary())
}

func TestHistorySummaryWithoutConditions(t *testing.T) {
	h := &PatientHistory{Flags: JSONMap{"allergies": []interface{}{"peanut"}}}
	assert.Equal(t, 0, h.Summary().CriticalAlerts)
}

func TestJSONColumnsScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"mon":"9-5"}`)))
	assert.Equal(t, "9-5", m["mon"])

	var certs Certifications
	require.NoError(t, certs.Scan(`[{"name":"MBBS","date":"2010-06-01"}]`))
	assert.Equal(t, "MBBS", certs[0].Name)

	var l StringList
	assert.Error(t, l.Scan(42))

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}
