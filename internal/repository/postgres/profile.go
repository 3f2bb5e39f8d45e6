package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
)

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) repository.ProfileRepository {
	return &profileRepository{base}
}

const profileColumns = `
	id, doctor_id, bio, specialties, certifications, clinic_timings,
	languages, fees, created_at, updated_at
`

func (r *profileRepository) GetByDoctorID(ctx context.Context, doctorID uuid.UUID) (*model.DoctorProfile, error) {
	var profile model.DoctorProfile
	query := "SELECT " + profileColumns + " FROM doctor_profiles WHERE doctor_id = $1"
	if err := r.db.GetContext(ctx, &profile, query, doctorID); err != nil {
		return nil, notFoundOr(err, "profile", "get profile")
	}
	return &profile, nil
}

func (r *profileRepository) ListByDoctorIDs(ctx context.Context, doctorIDs []uuid.UUID) (map[uuid.UUID]*model.DoctorProfile, error) {
	result := make(map[uuid.UUID]*model.DoctorProfile, len(doctorIDs))
	if len(doctorIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(doctorIDs))
	for i, id := range doctorIDs {
		ids[i] = id.String()
	}

	var profiles []*model.DoctorProfile
	query := "SELECT " + profileColumns + " FROM doctor_profiles WHERE doctor_id = ANY($1::uuid[])"
	if err := r.db.SelectContext(ctx, &profiles, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	for _, p := range profiles {
		result[p.DoctorID] = p
	}
	return result, nil
}

// Upsert creates the profile on first write and overwrites it afterwards.
func (r *profileRepository) Upsert(ctx context.Context, profile *model.DoctorProfile) error {
	query := `
		INSERT INTO doctor_profiles (
			id, doctor_id, bio, specialties, certifications, clinic_timings,
			languages, fees, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (doctor_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			specialties = EXCLUDED.specialties,
			certifications = EXCLUDED.certifications,
			clinic_timings = EXCLUDED.clinic_timings,
			languages = EXCLUDED.languages,
			fees = EXCLUDED.fees,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	row := r.db.QueryRowxContext(ctx, query,
		profile.ID,
		profile.DoctorID,
		profile.Bio,
		profile.Specialties,
		profile.Certifications,
		profile.ClinicTimings,
		profile.Languages,
		profile.Fees,
		time.Now().UTC(),
	)
	if err := row.Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
