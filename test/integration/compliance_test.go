package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/compliance"
	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
	"github.com/RedLynx101/MedCompliance-AI/internal/platform/db"
)

func TestComplianceFlagCRUD(t *testing.T) {
	ctx := context.Background()
	repo := compliance.NewFlagRepoPG(globalDB.Pool)

	newFlag := func(t *testing.T, encounterID uuid.UUID) *compliance.ComplianceFlag {
		t.Helper()
		f := &compliance.ComplianceFlag{
			EncounterID: encounterID,
			FlagType:    "missing_physical_exam",
			Severity:    compliance.SeverityCritical,
			Message:     "No physical examination documented",
			Explanation: "Claims without an exam are routinely denied",
		}
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("create flag: %v", err)
		}
		return f
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		enc := createTestEncounter(t, ctx, uuid.New())
		f := newFlag(t, enc.ID)
		got, err := repo.GetByID(ctx, f.ID)
		if err != nil {
			t.Fatalf("get flag: %v", err)
		}
		if got.FlagType != "missing_physical_exam" || got.IsResolved {
			t.Errorf("unexpected flag state: %+v", got)
		}
	})

	t.Run("ListByEncounter", func(t *testing.T) {
		enc := createTestEncounter(t, ctx, uuid.New())
		newFlag(t, enc.ID)
		newFlag(t, enc.ID)
		items, err := repo.ListByEncounter(ctx, enc.ID)
		if err != nil {
			t.Fatalf("list flags: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("expected 2 flags, got %d", len(items))
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		enc := createTestEncounter(t, ctx, uuid.New())
		f := newFlag(t, enc.ID)
		if err := repo.Resolve(ctx, f.ID); err != nil {
			t.Fatalf("resolve flag: %v", err)
		}
		got, err := repo.GetByID(ctx, f.ID)
		if err != nil {
			t.Fatalf("get flag: %v", err)
		}
		if !got.IsResolved || got.ResolvedAt == nil {
			t.Error("expected resolved flag with timestamp")
		}
	})

	t.Run("SetUserAction", func(t *testing.T) {
		enc := createTestEncounter(t, ctx, uuid.New())
		f := newFlag(t, enc.ID)
		if err := repo.SetUserAction(ctx, f.ID, compliance.ActionAccepted); err != nil {
			t.Fatalf("set action: %v", err)
		}
		got, err := repo.GetByID(ctx, f.ID)
		if err != nil {
			t.Fatalf("get flag: %v", err)
		}
		if got.UserAction == nil || *got.UserAction != compliance.ActionAccepted {
			t.Error("expected accepted action recorded")
		}
	})

	t.Run("CascadeDelete", func(t *testing.T) {
		encRepo := encounter.NewRepoPG(globalDB.Pool)
		enc := createTestEncounter(t, ctx, uuid.New())
		f := newFlag(t, enc.ID)
		if err := encRepo.Delete(ctx, enc.ID); err != nil {
			t.Fatalf("delete encounter: %v", err)
		}
		if _, err := repo.GetByID(ctx, f.ID); err == nil {
			t.Error("expected flag removed with encounter")
		}
	})
}

func TestComplianceServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	encRepo := encounter.NewRepoPG(globalDB.Pool)
	encSvc := encounter.NewService(encRepo)
	flagRepo := compliance.NewFlagRepoPG(globalDB.Pool)
	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, globalDB.Pool, fn)
	}
	svc := compliance.NewService(compliance.DefaultKnowledgeBase(), flagRepo, encSvc, 30, txRunner)

	enc := createTestEncounter(t, ctx, uuid.New())

	result, err := svc.EvaluateCompliance(ctx, enc.ID, "Patient reports lower back pain for six weeks")
	if err != nil {
		t.Fatalf("evaluate compliance: %v", err)
	}
	if len(result.Flags) == 0 {
		t.Fatal("expected flags for undocumented encounter")
	}

	persisted, err := flagRepo.ListByEncounter(ctx, enc.ID)
	if err != nil {
		t.Fatalf("list flags: %v", err)
	}
	if len(persisted) != len(result.Flags) {
		t.Errorf("expected %d persisted flags, got %d", len(result.Flags), len(persisted))
	}

	assessment, err := svc.AssessClaimDenialRisk(ctx, enc.ID)
	if err != nil {
		t.Fatalf("assess risk: %v", err)
	}
	if assessment.OverallRiskScore < 0 || assessment.OverallRiskScore > 100 {
		t.Errorf("overall score out of range: %d", assessment.OverallRiskScore)
	}

	stored, err := encRepo.GetByID(ctx, enc.ID)
	if err != nil {
		t.Fatalf("get encounter: %v", err)
	}
	if stored.ClaimRiskScore == nil || *stored.ClaimRiskScore != assessment.OverallRiskScore {
		t.Error("expected assessment score persisted on encounter")
	}
}
