package consent

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/middleware"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository/mocks"
	consentsvc "github.com/jwalitptl/doctor-api/internal/service/consent"
	"github.com/jwalitptl/doctor-api/internal/service/notification"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type env struct {
	router   *gin.Engine
	consents *mocks.ConsentRepository
	doctor   *model.Doctor
}

func newEnv() *env {
	gin.SetMode(gin.TestMode)

	caller := model.Principal{UserID: uuid.New()}
	e := &env{consents: &mocks.ConsentRepository{}}
	e.doctor = &model.Doctor{UserID: caller.UserID, Status: model.DoctorStatusApproved}
	e.doctor.ID = uuid.New()

	doctors := &mocks.DoctorRepository{}
	doctors.On("GetByUserID", mock.Anything, caller.UserID).Return(e.doctor, nil)

	svc := consentsvc.NewService(e.consents, access.NewResolver(doctors),
		notification.NewLogNotifier(zerolog.Nop()), metrics.NewNop(), zerolog.Nop())

	e.router = gin.New()
	api := e.router.Group("/api/v1/doctor")
	api.Use(func(c *gin.Context) { c.Set(middleware.ContextPrincipal, caller) })
	NewHandler(svc).RegisterRoutes(api)
	return e
}

func (e *env) send(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRequestConsent(t *testing.T) {
	e := newEnv()
	patientID := uuid.New()
	e.consents.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Consent) bool {
		return c.PatientID == patientID && c.DoctorID == e.doctor.ID
	})).Return(nil).Once()
	e.consents.On("Create", mock.Anything, mock.Anything).
		Return(errors.NewConflict("consent already requested for this patient", nil))

	w := e.send(http.MethodPost, "/api/v1/doctor/consents/", `{"patient_id":"`+patientID.String()+`"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.send(http.MethodPost, "/api/v1/doctor/consents/", `{"patient_id":"`+patientID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.send(http.MethodPost, "/api/v1/doctor/consents/", `{"patient_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveConsent(t *testing.T) {
	tests := []struct {
		name   string
		method string
		stored model.ConsentStatus
		body   string
		want   int
	}{
		{"grant pending", http.MethodPatch, model.ConsentStatusPending, `{"status":"granted"}`, http.StatusOK},
		{"deny via put", http.MethodPut, model.ConsentStatusPending, `{"status":"denied"}`, http.StatusOK},
		{"revoke grant", http.MethodPatch, model.ConsentStatusGranted, `{"status":"denied"}`, http.StatusOK},
		{"regrant denied", http.MethodPatch, model.ConsentStatusDenied, `{"status":"granted"}`, http.StatusBadRequest},
		{"back to pending", http.MethodPatch, model.ConsentStatusGranted, `{"status":"pending"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			stored := &model.Consent{DoctorID: e.doctor.ID, PatientID: uuid.New(), Status: tt.stored}
			stored.ID = uuid.New()
			e.consents.On("Transition", mock.Anything, stored.ID).Return(stored, nil)

			w := e.send(tt.method, "/api/v1/doctor/consents/"+stored.ID.String()+"/", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestResolveUnknownConsent(t *testing.T) {
	e := newEnv()
	id := uuid.New()
	e.consents.On("Transition", mock.Anything, id).Return(nil, errors.NewNotFound("consent", nil))

	w := e.send(http.MethodPatch, "/api/v1/doctor/consents/"+id.String()+"/", `{"status":"granted"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
