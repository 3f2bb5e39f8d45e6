package history

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/middleware"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository/mocks"
	historysvc "github.com/jwalitptl/doctor-api/internal/service/history"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type env struct {
	router    *gin.Engine
	histories *mocks.HistoryRepository
	metrics   *metrics.Metrics
	doctor    *model.Doctor
}

func newEnv(status model.DoctorStatus) *env {
	gin.SetMode(gin.TestMode)

	caller := model.Principal{UserID: uuid.New()}
	e := &env{histories: &mocks.HistoryRepository{}, metrics: metrics.NewNop()}
	e.doctor = &model.Doctor{UserID: caller.UserID, Status: status}
	e.doctor.ID = uuid.New()

	doctors := &mocks.DoctorRepository{}
	doctors.On("GetByUserID", mock.Anything, caller.UserID).Return(e.doctor, nil)

	svc := historysvc.NewService(e.histories, access.NewResolver(doctors), e.metrics, zerolog.Nop())

	e.router = gin.New()
	api := e.router.Group("/api/v1/doctor")
	api.Use(func(c *gin.Context) { c.Set(middleware.ContextPrincipal, caller) })
	NewHandler(svc).RegisterRoutes(api)
	return e
}

func (e *env) get(patientID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/doctor/history/"+patientID+"/", nil))
	return w
}

func TestGetHistoryWithConsent(t *testing.T) {
	e := newEnv(model.DoctorStatusApproved)
	patientID := uuid.New()
	history := &model.PatientHistory{
		PatientID: patientID,
		Reports:   model.JSONList{"xray"},
		Flags:     model.JSONMap{"allergy": "critical"},
	}
	e.histories.On("ReadAudited", mock.Anything, e.doctor.ID, patientID, mock.AnythingOfType("*model.AccessLog")).
		Return(true, history, nil)

	w := e.get(patientID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"report_count":1`)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.AuditWrites))
}

func TestGetHistoryWithoutConsent(t *testing.T) {
	e := newEnv(model.DoctorStatusApproved)
	patientID := uuid.New()
	e.histories.On("ReadAudited", mock.Anything, e.doctor.ID, patientID, mock.Anything).Return(false, nil, nil)

	w := e.get(patientID.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "reports")
	assert.Equal(t, 0.0, testutil.ToFloat64(e.metrics.AuditWrites))
}

func TestGetHistoryUnknownPatient(t *testing.T) {
	e := newEnv(model.DoctorStatusApproved)
	patientID := uuid.New()
	e.histories.On("ReadAudited", mock.Anything, e.doctor.ID, patientID, mock.Anything).
		Return(true, nil, errors.NewNotFound("patient history", nil))

	assert.Equal(t, http.StatusNotFound, e.get(patientID.String()).Code)
	assert.Equal(t, http.StatusNotFound, e.get("12345").Code)
}

func TestGetHistoryRejectedDoctor(t *testing.T) {
	e := newEnv(model.DoctorStatusRejected)

	assert.Equal(t, http.StatusForbidden, e.get(uuid.NewString()).Code)
	e.histories.AssertNotCalled(t, "ReadAudited", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
