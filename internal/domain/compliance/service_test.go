package compliance

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

// ── Mocks ──

type mockFlagRepo struct {
	data    map[uuid.UUID]*ComplianceFlag
	order   []uuid.UUID
	creates int
	failOn  int // 1-based Create call that errors, 0 never fails
}

func newMockFlagRepo() *mockFlagRepo {
	return &mockFlagRepo{data: make(map[uuid.UUID]*ComplianceFlag)}
}

func (m *mockFlagRepo) Create(_ context.Context, f *ComplianceFlag) error {
	m.creates++
	if m.failOn > 0 && m.creates == m.failOn {
		return fmt.Errorf("storage unavailable")
	}
	f.ID = uuid.New()
	f.CreatedAt = time.Now()
	m.data[f.ID] = f
	m.order = append(m.order, f.ID)
	return nil
}
func (m *mockFlagRepo) GetByID(_ context.Context, id uuid.UUID) (*ComplianceFlag, error) {
	if f, ok := m.data[id]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockFlagRepo) ListByEncounter(_ context.Context, encounterID uuid.UUID) ([]*ComplianceFlag, error) {
	var out []*ComplianceFlag
	for _, id := range m.order {
		if f := m.data[id]; f.EncounterID == encounterID {
			out = append(out, f)
		}
	}
	return out, nil
}
func (m *mockFlagRepo) List(_ context.Context, limit, offset int) ([]*ComplianceFlag, int, error) {
	var out []*ComplianceFlag
	for _, id := range m.order {
		out = append(out, m.data[id])
	}
	return out, len(out), nil
}
func (m *mockFlagRepo) ListSince(_ context.Context, days int) ([]*ComplianceFlag, error) {
	var out []*ComplianceFlag
	for _, id := range m.order {
		out = append(out, m.data[id])
	}
	return out, nil
}
func (m *mockFlagRepo) Resolve(_ context.Context, id uuid.UUID) error {
	f, ok := m.data[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	now := time.Now()
	f.IsResolved = true
	f.ResolvedAt = &now
	return nil
}
func (m *mockFlagRepo) SetUserAction(_ context.Context, id uuid.UUID, action string) error {
	f, ok := m.data[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	f.UserAction = &action
	return nil
}

type mockEncounterSource struct {
	data        map[uuid.UUID]*encounter.Encounter
	failHistory bool
}

func newMockEncounterSource() *mockEncounterSource {
	return &mockEncounterSource{data: make(map[uuid.UUID]*encounter.Encounter)}
}

func (m *mockEncounterSource) add(e *encounter.Encounter) *encounter.Encounter {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.data[e.ID] = e
	return e
}
func (m *mockEncounterSource) GetEncounter(_ context.Context, id uuid.UUID) (*encounter.Encounter, error) {
	if e, ok := m.data[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockEncounterSource) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*encounter.Encounter, int, error) {
	if m.failHistory {
		return nil, 0, fmt.Errorf("history unavailable")
	}
	var out []*encounter.Encounter
	for _, e := range m.data {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}
func (m *mockEncounterSource) ListEncounters(_ context.Context, limit, offset int) ([]*encounter.Encounter, int, error) {
	var out []*encounter.Encounter
	for _, e := range m.data {
		out = append(out, e)
	}
	return out, len(out), nil
}
func (m *mockEncounterSource) SetClaimRiskScore(_ context.Context, id uuid.UUID, score int) error {
	e, ok := m.data[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	e.ClaimRiskScore = &score
	return nil
}

// mockTxRunner undoes mock-repo writes when fn fails, mirroring a rolled
// back transaction.
func mockTxRunner(flags *mockFlagRepo, encs *mockEncounterSource) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		flagData := make(map[uuid.UUID]*ComplianceFlag, len(flags.data))
		for id, f := range flags.data {
			flagData[id] = f
		}
		flagOrder := append([]uuid.UUID(nil), flags.order...)
		scores := make(map[uuid.UUID]*int, len(encs.data))
		for id, e := range encs.data {
			scores[id] = e.ClaimRiskScore
		}
		if err := fn(ctx); err != nil {
			flags.data = flagData
			flags.order = flagOrder
			for id, score := range scores {
				encs.data[id].ClaimRiskScore = score
			}
			return err
		}
		return nil
	}
}

func newComplianceTestService() (*Service, *mockFlagRepo, *mockEncounterSource) {
	flags := newMockFlagRepo()
	encs := newMockEncounterSource()
	svc := NewService(DefaultKnowledgeBase(), flags, encs, 30, mockTxRunner(flags, encs))
	return svc, flags, encs
}

// ── EvaluateCompliance ──

func TestService_EvaluateCompliance(t *testing.T) {
	svc, flags, encs := newComplianceTestService()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
		ChiefComplaint:  "Back pain",
	})
	result, err := svc.EvaluateCompliance(context.Background(), enc.ID, "Patient reports lower back pain for six weeks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if findSuggestion(result.Suggestions, "M54.5") == nil {
		t.Error("expected M54.5 suggestion")
	}
	if findSuggestion(result.Suggestions, "99213") == nil {
		t.Error("expected 99213 suggestion from encounter type")
	}
	if !hasFlag(result.Flags, "missing_physical_exam") {
		t.Error("expected missing_physical_exam flag")
	}
	if len(flags.data) != len(result.Flags) {
		t.Errorf("expected %d persisted flags, got %d", len(result.Flags), len(flags.data))
	}
	if enc.ClaimRiskScore == nil || *enc.ClaimRiskScore != result.RiskScore {
		t.Error("expected risk score persisted on encounter")
	}
	if result.RiskScore < 0 || result.RiskScore > 100 {
		t.Errorf("risk score out of range: %d", result.RiskScore)
	}
}

func TestService_EvaluateCompliance_RollsBackOnFlagWriteFailure(t *testing.T) {
	svc, flags, encs := newComplianceTestService()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
	})
	// An empty encounter raises more than one flag; failing the second
	// write must leave none behind.
	flags.failOn = 2

	if _, err := svc.EvaluateCompliance(context.Background(), enc.ID, ""); err == nil {
		t.Fatal("expected error when a flag write fails")
	}
	if len(flags.data) != 0 {
		t.Errorf("expected no flags persisted after failed evaluation, got %d", len(flags.data))
	}
	if enc.ClaimRiskScore != nil {
		t.Error("expected claim risk score untouched after failed evaluation")
	}
}

func TestService_EvaluateCompliance_Idempotent(t *testing.T) {
	svc, _, encs := newComplianceTestService()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
	})
	transcript := "Patient reports hurt in the left shoulder"
	first, err := svc.EvaluateCompliance(context.Background(), enc.ID, transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.EvaluateCompliance(context.Background(), enc.ID, transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Flags, second.Flags) {
		t.Error("expected identical flags on repeat evaluation")
	}
	if !reflect.DeepEqual(first.Suggestions, second.Suggestions) {
		t.Error("expected identical suggestions on repeat evaluation")
	}
	if first.RiskScore != second.RiskScore {
		t.Errorf("expected identical scores, got %d and %d", first.RiskScore, second.RiskScore)
	}
}

func TestService_EvaluateCompliance_UsesStoredTranscript(t *testing.T) {
	svc, _, encs := newComplianceTestService()
	stored := "Patient reports lower back pain for six weeks"
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
		Transcript:      &stored,
	})
	result, err := svc.EvaluateCompliance(context.Background(), enc.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if findSuggestion(result.Suggestions, "M54.5") == nil {
		t.Error("expected suggestion from stored transcript")
	}
}

func TestService_EvaluateCompliance_EncounterNotFound(t *testing.T) {
	svc, _, _ := newComplianceTestService()
	if _, err := svc.EvaluateCompliance(context.Background(), uuid.New(), "text"); err == nil {
		t.Error("expected error for unknown encounter")
	}
}

// ── AssessClaimDenialRisk ──

func TestService_AssessClaimDenialRisk_EmptyEncounter(t *testing.T) {
	svc, _, encs := newComplianceTestService()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		Status:          encounter.StatusScheduled,
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now().AddDate(0, 0, -40),
	})
	if _, err := svc.EvaluateCompliance(context.Background(), enc.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := svc.AssessClaimDenialRisk(context.Background(), enc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Documentation.Score < 65 {
		t.Errorf("expected documentation factor >= 65, got %d", a.Documentation.Score)
	}
	if a.Coding.Score != 75 {
		t.Errorf("expected coding factor 75, got %d", a.Coding.Score)
	}
	if a.OverallRiskScore < 55 {
		t.Errorf("expected overall score >= 55, got %d", a.OverallRiskScore)
	}
	if a.RiskLevel != SeverityMedium && a.RiskLevel != SeverityHigh {
		t.Errorf("expected medium or high risk level, got %s", a.RiskLevel)
	}
	if enc.ClaimRiskScore == nil || *enc.ClaimRiskScore != a.OverallRiskScore {
		t.Error("expected overall score persisted on encounter")
	}
}

func TestService_AssessClaimDenialRisk_ScoresInRange(t *testing.T) {
	svc, _, encs := newComplianceTestService()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
	})
	a, err := svc.AssessClaimDenialRisk(context.Background(), enc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range []RiskFactor{a.Documentation, a.Coding, a.Compliance, a.Historical} {
		if f.Score < 0 || f.Score > 100 {
			t.Errorf("factor %s score out of range: %d", f.Category, f.Score)
		}
	}
	if a.OverallRiskScore < 0 || a.OverallRiskScore > 100 {
		t.Errorf("overall score out of range: %d", a.OverallRiskScore)
	}
}

func TestService_AssessClaimDenialRisk_DegradesOnHistoryFailure(t *testing.T) {
	svc, _, encs := newComplianceTestService()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
	})
	encs.failHistory = true
	a, err := svc.AssessClaimDenialRisk(context.Background(), enc.ID)
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}
	if a.Historical.Score != 50 || a.Historical.Severity != SeverityMedium {
		t.Errorf("expected degraded medium-risk historical factor, got score=%d severity=%s",
			a.Historical.Score, a.Historical.Severity)
	}
}

func TestService_AssessClaimDenialRisk_ExcludesSelfFromHistory(t *testing.T) {
	svc, _, encs := newComplianceTestService()
	patientID := uuid.New()
	score := 90
	enc := encs.add(&encounter.Encounter{
		PatientID:       patientID,
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
		ClaimRiskScore:  &score,
	})
	a, err := svc.AssessClaimDenialRisk(context.Background(), enc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Historical.Score != 0 {
		t.Errorf("own encounter must not count as history, got score %d", a.Historical.Score)
	}
}

// ── Flags ──

func TestService_ResolveFlag(t *testing.T) {
	svc, flags, _ := newComplianceTestService()
	f := &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_physical_exam", Severity: SeverityCritical}
	flags.Create(nil, f)
	if err := svc.ResolveFlag(context.Background(), f.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsResolved || f.ResolvedAt == nil {
		t.Error("expected flag resolved with timestamp")
	}
}

func TestService_ResolveFlag_NotFound(t *testing.T) {
	svc, _, _ := newComplianceTestService()
	if err := svc.ResolveFlag(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestService_SetFlagAction(t *testing.T) {
	svc, flags, _ := newComplianceTestService()
	f := &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_pain_scale", Severity: SeverityHigh}
	flags.Create(nil, f)
	if err := svc.SetFlagAction(context.Background(), f.ID, ActionDismissed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.UserAction == nil || *f.UserAction != ActionDismissed {
		t.Error("expected dismissed action recorded")
	}
}

func TestService_SetFlagAction_Invalid(t *testing.T) {
	svc, flags, _ := newComplianceTestService()
	f := &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_pain_scale", Severity: SeverityHigh}
	flags.Create(nil, f)
	if err := svc.SetFlagAction(context.Background(), f.ID, "maybe"); err == nil {
		t.Error("expected error for invalid action")
	}
}

// ── Portfolio ──

func TestService_AnalyzePortfolio(t *testing.T) {
	svc, flags, encs := newComplianceTestService()
	now := time.Now()
	high := 80
	low := 20
	encs.add(&encounter.Encounter{PatientID: uuid.New(), AppointmentTime: now.AddDate(0, 0, -1), ClaimRiskScore: &high})
	encs.add(&encounter.Encounter{PatientID: uuid.New(), AppointmentTime: now.AddDate(0, 0, -2), ClaimRiskScore: &low})
	flags.Create(nil, &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_physical_exam", Severity: SeverityCritical})
	flags.Create(nil, &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_physical_exam", Severity: SeverityCritical})
	flags.Create(nil, &ComplianceFlag{EncounterID: uuid.New(), FlagType: "insufficient_hpi", Severity: SeverityMedium})

	m, err := svc.AnalyzePortfolio(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TotalEncounters != 2 {
		t.Errorf("expected 2 encounters, got %d", m.TotalEncounters)
	}
	if m.WindowDays != 30 {
		t.Errorf("expected default window 30, got %d", m.WindowDays)
	}
	if m.AverageRiskScore != 50 {
		t.Errorf("expected average 50, got %.1f", m.AverageRiskScore)
	}
	if m.HighRiskRate != 0.5 {
		t.Errorf("expected high-risk rate 0.5, got %.2f", m.HighRiskRate)
	}
	if len(m.TopFlagTypes) == 0 || m.TopFlagTypes[0].FlagType != "missing_physical_exam" {
		t.Error("expected missing_physical_exam as top flag type")
	}
}
