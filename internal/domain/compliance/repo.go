package compliance

import (
	"context"

	"github.com/google/uuid"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

// FlagRepository persists compliance flags.
type FlagRepository interface {
	Create(ctx context.Context, f *ComplianceFlag) error
	GetByID(ctx context.Context, id uuid.UUID) (*ComplianceFlag, error)
	ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*ComplianceFlag, error)
	List(ctx context.Context, limit, offset int) ([]*ComplianceFlag, int, error)
	ListSince(ctx context.Context, days int) ([]*ComplianceFlag, error)
	Resolve(ctx context.Context, id uuid.UUID) error
	SetUserAction(ctx context.Context, id uuid.UUID, action string) error
}

// EncounterSource is the slice of the encounter domain the compliance
// engine consumes. The encounter service satisfies it.
type EncounterSource interface {
	GetEncounter(ctx context.Context, id uuid.UUID) (*encounter.Encounter, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*encounter.Encounter, int, error)
	ListEncounters(ctx context.Context, limit, offset int) ([]*encounter.Encounter, int, error)
	SetClaimRiskScore(ctx context.Context, id uuid.UUID, score int) error
}
