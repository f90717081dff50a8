package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// historyFetchLimit bounds how many prior encounters feed the historical
// assessor.
const historyFetchLimit = 100

// portfolioFetchLimit bounds how many encounters a portfolio analysis
// covers. Practices past this size get metrics over their most recent
// encounters only.
const portfolioFetchLimit = 1000

// TxRunner executes fn atomically. A nil runner executes fn directly,
// without a surrounding transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	kb         *KnowledgeBase
	flags      FlagRepository
	encounters EncounterSource
	windowDays int
	tx         TxRunner
	now        func() time.Time
}

func NewService(kb *KnowledgeBase, flags FlagRepository, encounters EncounterSource, windowDays int, tx TxRunner) *Service {
	return &Service{
		kb:         kb,
		flags:      flags,
		encounters: encounters,
		windowDays: windowDays,
		tx:         tx,
		now:        time.Now,
	}
}

func (s *Service) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx(ctx, fn)
}

// severityWeights drive the quick risk score attached to a compliance
// check: each raised flag contributes by severity, higher meaning more
// risk. The full weighted assessment lives in AssessClaimDenialRisk.
var severityWeights = map[string]int{
	SeverityCritical: 30,
	SeverityHigh:     20,
	SeverityMedium:   10,
	SeverityLow:      5,
}

// EvaluateCompliance runs the rule catalog and code suggestion engine
// against one encounter, persists the raised flags, and stores the
// resulting risk score on the encounter.
func (s *Service) EvaluateCompliance(ctx context.Context, encounterID uuid.UUID, transcript string) (*ComplianceResult, error) {
	enc, err := s.encounters.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, fmt.Errorf("load encounter: %w", err)
	}

	if transcript == "" && enc.Transcript != nil {
		transcript = *enc.Transcript
	}

	flags := s.kb.EvaluateRules(enc, transcript)
	suggestions := append(s.kb.SuggestICD10(transcript), s.kb.SuggestCPT(enc, transcript)...)

	score := 0
	for _, f := range flags {
		score += severityWeights[f.Severity]
	}
	score = clampScore(score)

	// Flags and the score land together or not at all.
	err = s.runTx(ctx, func(ctx context.Context) error {
		for _, f := range flags {
			cf := &ComplianceFlag{
				EncounterID: encounterID,
				FlagType:    f.Type,
				Severity:    f.Severity,
				Message:     f.Message,
				Explanation: f.Explanation,
			}
			if err := s.flags.Create(ctx, cf); err != nil {
				return fmt.Errorf("persist flag %s: %w", f.Type, err)
			}
		}
		if err := s.encounters.SetClaimRiskScore(ctx, encounterID, score); err != nil {
			return fmt.Errorf("store risk score: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ComplianceResult{
		EncounterID: encounterID,
		Flags:       flags,
		Suggestions: suggestions,
		RiskScore:   score,
	}, nil
}

// AssessClaimDenialRisk runs the full four-factor assessment for one
// encounter and stores the overall score. A failed history lookup degrades
// to a fixed medium-risk factor instead of failing the assessment.
func (s *Service) AssessClaimDenialRisk(ctx context.Context, encounterID uuid.UUID) (*RiskAssessment, error) {
	enc, err := s.encounters.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, fmt.Errorf("load encounter: %w", err)
	}

	persisted, err := s.flags.ListByEncounter(ctx, encounterID)
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	now := s.now()
	doc := AssessDocumentation(enc, persisted, now)
	coding := AssessCoding(enc)
	comp := AssessCompliance(persisted)

	var hist RiskFactor
	prior, _, err := s.encounters.ListByPatient(ctx, enc.PatientID, historyFetchLimit, 0)
	if err != nil {
		log.Warn().Err(err).Str("encounter_id", encounterID.String()).Msg("patient history unavailable, degrading historical factor")
		hist = DegradedHistoryFactor()
	} else {
		// The encounter under assessment is not part of its own history.
		history := prior[:0:0]
		for _, p := range prior {
			if p.ID != encounterID {
				history = append(history, p)
			}
		}
		hist = AssessHistory(enc.PatientID, history, now)
	}

	assessment := Aggregate(encounterID, doc, coding, comp, hist)

	if err := s.encounters.SetClaimRiskScore(ctx, encounterID, assessment.OverallRiskScore); err != nil {
		return nil, fmt.Errorf("store risk score: %w", err)
	}
	return assessment, nil
}

// AnalyzePortfolio computes practice-wide risk metrics over the trailing
// window configured at startup, or the given override when positive.
func (s *Service) AnalyzePortfolio(ctx context.Context, windowDays int) (*PortfolioMetrics, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	encs, _, err := s.encounters.ListEncounters(ctx, portfolioFetchLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("load encounters: %w", err)
	}
	flags, err := s.flags.ListSince(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}
	return AnalyzePortfolio(encs, flags, windowDays, s.now()), nil
}

// -- Flags --

func (s *Service) ListFlags(ctx context.Context, limit, offset int) ([]*ComplianceFlag, int, error) {
	return s.flags.List(ctx, limit, offset)
}

func (s *Service) ListFlagsByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*ComplianceFlag, error) {
	return s.flags.ListByEncounter(ctx, encounterID)
}

func (s *Service) ResolveFlag(ctx context.Context, id uuid.UUID) error {
	if _, err := s.flags.GetByID(ctx, id); err != nil {
		return err
	}
	return s.flags.Resolve(ctx, id)
}

func (s *Service) SetFlagAction(ctx context.Context, id uuid.UUID, action string) error {
	if action != ActionAccepted && action != ActionDismissed {
		return fmt.Errorf("invalid action: %s", action)
	}
	if _, err := s.flags.GetByID(ctx, id); err != nil {
		return err
	}
	return s.flags.SetUserAction(ctx, id, action)
}

// -- Reference data --

func (s *Service) GetICD10Entry(code string) (*ICD10Entry, bool) {
	return s.kb.GetICD10Entry(code)
}

func (s *Service) GetCPTEntry(code string) (*CPTEntry, bool) {
	return s.kb.GetCPTEntry(code)
}

func (s *Service) ListGuidelines(category string) []Guideline {
	return s.kb.ListGuidelines(category)
}
