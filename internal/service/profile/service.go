package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/validator"
)

const publicListKey = "public:list"

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Service struct {
	profiles  repository.ProfileRepository
	doctors   repository.DoctorRepository
	resolver  *access.Resolver
	validator validator.Validator
	previews  *cache.Cache
	logger    zerolog.Logger
}

func NewService(
	profiles repository.ProfileRepository,
	doctors repository.DoctorRepository,
	resolver *access.Resolver,
	v validator.Validator,
	cfg CacheConfig,
	logger zerolog.Logger,
) *Service {
	return &Service{
		profiles:  profiles,
		doctors:   doctors,
		resolver:  resolver,
		validator: v,
		previews:  cache.New(cfg.TTL, cfg.CleanupInterval),
		logger:    logger.With().Str("service", "profile").Logger(),
	}
}

func previewKey(id uuid.UUID) string {
	return "public:" + id.String()
}

// Get returns the caller's profile. A doctor without one sees an empty
// profile; nothing is stored until the first update.
func (s *Service) Get(ctx context.Context, p model.Principal) (*model.ProfileView, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	profile, err := s.load(ctx, doctor.ID)
	if err != nil {
		return nil, err
	}
	return model.NewProfileView(profile), nil
}

// Upsert applies a partial update to the caller's profile, creating it on
// first use.
func (s *Service) Upsert(ctx context.Context, p model.Principal, req *model.ProfileUpdateRequest) (*model.ProfileView, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateCertifications(req.Certifications); err != nil {
		return nil, err
	}

	profile, err := s.load(ctx, doctor.ID)
	if err != nil {
		return nil, err
	}
	profile.Apply(req)

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.previews.Delete(previewKey(doctor.ID))
	s.previews.Delete(publicListKey)

	s.logger.Debug().
		Str("doctor_id", doctor.ID.String()).
		Float64("completeness", profile.Completeness()).
		Msg("profile updated")

	return model.NewProfileView(profile), nil
}

func validateCertifications(certs *model.Certifications) error {
	if certs == nil {
		return nil
	}
	for i, c := range *certs {
		if c.Name == "" || c.Date == "" {
			return errors.NewValidation(fmt.Sprintf("certification %d must have 'name' and 'date'", i), nil)
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, doctorID uuid.UUID) (*model.DoctorProfile, error) {
	profile, err := s.profiles.GetByDoctorID(ctx, doctorID)
	if err != nil {
		if errors.IsNotFound(err) {
			return &model.DoctorProfile{DoctorID: doctorID}, nil
		}
		return nil, err
	}
	return profile, nil
}

// ListPublic returns the preview card of every approved doctor.
func (s *Service) ListPublic(ctx context.Context) ([]*model.DoctorPreview, error) {
	if cached, ok := s.previews.Get(publicListKey); ok {
		return cached.([]*model.DoctorPreview), nil
	}

	doctors, err := s.doctors.ListByStatus(ctx, model.DoctorStatusApproved)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}
	profiles, err := s.profiles.ListByDoctorIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	previews := make([]*model.DoctorPreview, 0, len(doctors))
	for _, d := range doctors {
		previews = append(previews, preview(d, profiles[d.ID]))
	}

	s.previews.SetDefault(publicListKey, previews)
	return previews, nil
}

// GetPublic returns NotFound unless the doctor exists and is approved.
func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (*model.DoctorPreview, error) {
	if cached, ok := s.previews.Get(previewKey(id)); ok {
		return cached.(*model.DoctorPreview), nil
	}

	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doctor.IsApproved() {
		return nil, errors.NewNotFound("doctor", nil)
	}

	profile, err := s.profiles.GetByDoctorID(ctx, id)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	p := preview(doctor, profile)
	s.previews.SetDefault(previewKey(id), p)
	return p, nil
}

func preview(d *model.Doctor, profile *model.DoctorProfile) *model.DoctorPreview {
	return &model.DoctorPreview{
		ID:            d.ID,
		Name:          d.Name,
		Specialty:     d.Specialty,
		ClinicAddress: d.ClinicAddress,
		Profile:       model.NewProfileView(profile),
	}
}
