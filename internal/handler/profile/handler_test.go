package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/doctor-api/internal/middleware"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

type fakeService struct {
	approved map[uuid.UUID]*model.DoctorPreview
	updated  *model.ProfileUpdateRequest
}

func (f *fakeService) Get(context.Context, model.Principal) (*model.ProfileView, error) {
	return &model.ProfileView{CompletenessPercentage: 0}, nil
}

func (f *fakeService) Upsert(_ context.Context, _ model.Principal, req *model.ProfileUpdateRequest) (*model.ProfileView, error) {
	if req.Fees != nil && *req.Fees < 0 {
		return nil, errors.NewValidation("fees must be greater than or equal to 0", nil)
	}
	f.updated = req
	return &model.ProfileView{Bio: req.Bio, CompletenessPercentage: 100.0 / 6}, nil
}

func (f *fakeService) ListPublic(context.Context) ([]*model.DoctorPreview, error) {
	var out []*model.DoctorPreview
	for _, p := range f.approved {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeService) GetPublic(_ context.Context, id uuid.UUID) (*model.DoctorPreview, error) {
	if p, ok := f.approved[id]; ok {
		return p, nil
	}
	return nil, errors.NewNotFound("doctor", nil)
}

func setup(svc Service, authed bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1/doctor")
	h := NewHandler(svc)
	h.RegisterPublicRoutes(api)

	group := api.Group("")
	if authed {
		group.Use(func(c *gin.Context) { c.Set(middleware.ContextPrincipal, model.Principal{UserID: uuid.New()}) })
	}
	h.RegisterRoutes(group)
	return r
}

func TestPublicPreviews(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{approved: map[uuid.UUID]*model.DoctorPreview{id: {ID: id, Name: "Grey", Specialty: "Surgery"}}}
	r := setup(svc, false)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"list", "/api/v1/doctor/public/", http.StatusOK},
		{"approved doctor", "/api/v1/doctor/public/" + id.String() + "/", http.StatusOK},
		{"unknown doctor", "/api/v1/doctor/public/" + uuid.NewString() + "/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"name":"Grey"`)
			}
		})
	}
}

func TestProfileRequiresPrincipal(t *testing.T) {
	w := httptest.NewRecorder()
	setup(&fakeService{}, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/doctor/profile/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc, true)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/doctor/profile/", strings.NewReader(`{"bio":"Cardiologist"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bio":"Cardiologist"`)
	if assert.NotNil(t, svc.updated) {
		assert.Nil(t, svc.updated.Specialties)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/doctor/profile/", strings.NewReader(`{"fees":-1}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
