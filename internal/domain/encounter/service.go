package encounter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validStatuses = map[string]bool{
	StatusScheduled:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

func (s *Service) CreateEncounter(ctx context.Context, e *Encounter) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.EncounterType == "" {
		return fmt.Errorf("encounter_type is required")
	}
	if e.AppointmentTime.IsZero() {
		return fmt.Errorf("appointment_time is required")
	}
	if e.Status == "" {
		e.Status = StatusScheduled
	}
	if !validStatuses[e.Status] {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) GetEncounter(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateEncounter(ctx context.Context, e *Encounter) error {
	if e.Status != "" && !validStatuses[e.Status] {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	return s.repo.Update(ctx, e)
}

func (s *Service) DeleteEncounter(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListEncounters(ctx context.Context, limit, offset int) ([]*Encounter, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// UpdateSOAPNotes replaces the SOAP sections of an encounter without touching
// scheduling fields. An encounter being documented moves to in_progress unless
// it is already completed.
func (s *Service) UpdateSOAPNotes(ctx context.Context, id uuid.UUID, notes *SOAPNotes) (*Encounter, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Subjective = notes.Subjective
	e.Objective = notes.Objective
	e.Assessment = notes.Assessment
	e.Plan = notes.Plan
	if notes.Transcript != nil {
		e.Transcript = notes.Transcript
	}
	if e.Status == StatusScheduled {
		e.Status = StatusInProgress
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) SetClaimRiskScore(ctx context.Context, id uuid.UUID, score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("claim risk score out of range: %d", score)
	}
	return s.repo.SetClaimRiskScore(ctx, id, score)
}
