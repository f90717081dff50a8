package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

// Severity levels for compliance findings. Higher risk throughout: a
// critical flag always outweighs a high one.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityFromExternal maps the info/warning/error vocabulary used by
// externally sourced flags (LLM suggestions, imported audits) onto the
// canonical four-level scale. Unknown values map to medium.
func SeverityFromExternal(s string) string {
	switch s {
	case "info":
		return SeverityLow
	case "warning":
		return SeverityMedium
	case "error":
		return SeverityHigh
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return s
	default:
		return SeverityMedium
	}
}

// Flag is a transient rule-engine finding, produced by evaluating the rule
// catalog against an encounter and transcript. It has no identity until
// persisted as a ComplianceFlag.
type Flag struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	Explanation string   `json:"explanation"`
	Remediation []string `json:"remediation"`
}

// ComplianceFlag maps to the compliance_flag table.
type ComplianceFlag struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	EncounterID uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	FlagType    string     `db:"flag_type" json:"flag_type"`
	Severity    string     `db:"severity" json:"severity"`
	Message     string     `db:"message" json:"message"`
	Explanation string     `db:"explanation" json:"explanation"`
	IsResolved  bool       `db:"is_resolved" json:"is_resolved"`
	UserAction  *string    `db:"user_action" json:"user_action,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// User actions on a flag.
const (
	ActionAccepted  = "accepted"
	ActionDismissed = "dismissed"
)

// Suggestion is a proposed billing code with the documentation a coder
// still has to supply before submitting the claim.
type Suggestion struct {
	Code                      string   `json:"code"`
	Description               string   `json:"description"`
	Type                      string   `json:"type"` // icd10 or cpt
	Confidence                int      `json:"confidence"`
	DocumentationRequirements []string `json:"documentation_requirements"`
}

// RiskFactor is one assessor's sub-score.
type RiskFactor struct {
	Category string   `json:"category"`
	Score    int      `json:"score"`
	Severity string   `json:"severity"`
	Issues   []string `json:"issues"`
}

// Risk factor categories.
const (
	CategoryDocumentation = "documentation"
	CategoryCoding        = "coding"
	CategoryCompliance    = "compliance"
	CategoryHistorical    = "historical"
)

// Recommendation is an actionable step derived from a risk factor that
// crossed its category threshold.
type Recommendation struct {
	Category        string   `json:"category"`
	Priority        string   `json:"priority"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Actions         []string `json:"actions"`
	EstimatedImpact string   `json:"estimated_impact"`
}

// RiskAssessment is the full claim-denial risk picture for one encounter.
type RiskAssessment struct {
	EncounterID      uuid.UUID        `json:"encounter_id"`
	OverallRiskScore int              `json:"overall_risk_score"`
	RiskLevel        string           `json:"risk_level"`
	Documentation    RiskFactor       `json:"documentation"`
	Coding           RiskFactor       `json:"coding"`
	Compliance       RiskFactor       `json:"compliance"`
	Historical       RiskFactor       `json:"historical"`
	Recommendations  []Recommendation `json:"recommendations"`
}

// ComplianceResult is the combined output of a compliance check.
type ComplianceResult struct {
	EncounterID uuid.UUID    `json:"encounter_id"`
	Flags       []Flag       `json:"flags"`
	Suggestions []Suggestion `json:"suggestions"`
	RiskScore   int          `json:"risk_score"`
}

// Rule is one entry in the compliance rule catalog. Violated reports
// whether the encounter and transcript breach the rule. Rules are
// constructed once and never mutated.
type Rule struct {
	ID          string
	Category    string
	Severity    string
	Message     string
	Explanation string
	Remediation []string
	Violated    func(enc *encounter.Encounter, transcript string) bool
}

// ICD10Entry is static diagnosis-code reference data.
type ICD10Entry struct {
	Code                  string   `json:"code"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	Keywords              []string `json:"keywords"`
	Confidence            int      `json:"confidence"`
	RequiredDocumentation []string `json:"required_documentation"`
}

// CPTEntry is static procedure-code reference data.
type CPTEntry struct {
	Code                      string   `json:"code"`
	Description               string   `json:"description"`
	Category                  string   `json:"category"`
	EncounterTypes            []string `json:"encounter_types"`
	Confidence                int      `json:"confidence"`
	DocumentationRequirements []string `json:"documentation_requirements"`
	Modifiers                 []string `json:"modifiers"`
	TypicalICD10              []string `json:"typical_icd10"`
}

// Guideline is static payer/CMS documentation guidance.
type Guideline struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	References []string `json:"references"`
}

// PortfolioMetrics summarizes risk across a set of encounters.
type PortfolioMetrics struct {
	TotalEncounters  int              `json:"total_encounters"`
	AverageRiskScore float64          `json:"average_risk_score"`
	HighRiskRate     float64          `json:"high_risk_rate"`
	TopFlagTypes     []FlagTypeCount  `json:"top_flag_types"`
	WindowDays       int              `json:"window_days"`
	Recommendations  []Recommendation `json:"recommendations"`
}

// FlagTypeCount is one entry in the top-flag-types ranking.
type FlagTypeCount struct {
	FlagType string `json:"flag_type"`
	Count    int    `json:"count"`
}
