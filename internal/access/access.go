// Package access decides whether a caller may act on a record. The checks
// run in a fixed order and stop at the first failure: the caller must be a
// doctor, the doctor must be approved, and then the resource rule applies.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

type Kind int

const (
	Allow Kind = iota
	DenyForbidden
	DenyNotFound
	DenyValidation
)

const (
	ReasonNotDoctor       = "not a doctor"
	ReasonNotApproved     = "not approved"
	ReasonNoConsent       = "no granted consent"
	ReasonNotAdmin        = "admin access required"
	ReasonPatientMismatch = "patient_id does not match the appointment's patient"
	ReasonForeignAppt     = "appointment does not belong to this doctor"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Kind    Kind
	Reason  string
	// Resource names what was missing when Kind is DenyNotFound.
	Resource string
}

func allow() Decision { return Decision{Allowed: true, Kind: Allow} }

func forbid(reason string) Decision {
	return Decision{Kind: DenyForbidden, Reason: reason}
}

func notFound(resource string) Decision {
	return Decision{Kind: DenyNotFound, Resource: resource}
}

func invalid(reason string) Decision {
	return Decision{Kind: DenyValidation, Reason: reason}
}

// Err converts a denial into the matching AppError; nil when allowed.
func (d Decision) Err() error {
	switch d.Kind {
	case Allow:
		return nil
	case DenyForbidden:
		return errors.NewForbidden(d.Reason)
	case DenyNotFound:
		return errors.NewNotFound(d.Resource, nil)
	case DenyValidation:
		return errors.NewValidation(d.Reason, nil)
	default:
		return errors.NewInternal(fmt.Errorf("unknown decision kind %d", d.Kind))
	}
}

// HistoryRead describes a patient history read attempt.
type HistoryRead struct {
	PatientID      uuid.UUID
	ConsentGranted bool
}

// PrescriptionCreate describes a new upload against an appointment.
type PrescriptionCreate struct {
	Appointment *model.Appointment
	PatientID   uuid.UUID
}

// Authorize runs the doctor tiers and then the rule for resource. A nil
// resource checks only the doctor tiers, which is what list and create
// endpoints need.
func Authorize(doctor *model.Doctor, resource interface{}, action Action) Decision {
	if doctor == nil {
		return forbid(ReasonNotDoctor)
	}
	if doctor.Status != model.DoctorStatusApproved {
		return forbid(ReasonNotApproved)
	}

	switch r := resource.(type) {
	case nil:
		return allow()
	case *model.Appointment:
		if r == nil || r.DoctorID != doctor.ID {
			return notFound("appointment")
		}
	case *model.PrescriptionUpload:
		if r == nil || r.DoctorID != doctor.ID {
			return notFound("prescription")
		}
	case HistoryRead:
		if !r.ConsentGranted {
			return forbid(ReasonNoConsent)
		}
	case PrescriptionCreate:
		if r.Appointment == nil || r.Appointment.DoctorID != doctor.ID {
			return invalid(ReasonForeignAppt)
		}
		if r.Appointment.PatientID != r.PatientID {
			return invalid(ReasonPatientMismatch)
		}
	default:
		return Decision{Kind: DenyForbidden, Reason: fmt.Sprintf("no rule for %T", resource)}
	}
	return allow()
}

// DoctorLookup loads the doctor linked to a user. It returns a NotFound
// AppError when the user has none.
type DoctorLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
}

// Resolver maps a principal onto its doctor record. The record is read on
// every call so a status change applies to the very next request.
type Resolver struct {
	doctors DoctorLookup
}

func NewResolver(doctors DoctorLookup) *Resolver {
	return &Resolver{doctors: doctors}
}

// Doctor returns the caller's doctor record, or nil if the caller has none.
func (r *Resolver) Doctor(ctx context.Context, p model.Principal) (*model.Doctor, error) {
	doctor, err := r.doctors.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve doctor: %w", err)
	}
	return doctor, nil
}

// ApprovedDoctor applies the first two tiers and returns the doctor.
func (r *Resolver) ApprovedDoctor(ctx context.Context, p model.Principal) (*model.Doctor, error) {
	doctor, err := r.Doctor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := Authorize(doctor, nil, ActionRead).Err(); err != nil {
		return nil, err
	}
	return doctor, nil
}

// Admin fails with Forbidden unless the caller is an administrator.
func Admin(p model.Principal) error {
	if !p.IsAdmin {
		return errors.NewForbidden(ReasonNotAdmin)
	}
	return nil
}
