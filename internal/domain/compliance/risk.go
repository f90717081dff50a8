package compliance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

// Aggregation weights. They must sum to 1.
const (
	weightDocumentation = 0.35
	weightCoding        = 0.30
	weightCompliance    = 0.25
	weightHistorical    = 0.10
)

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// factorSeverity buckets a sub-score: >70 high, >40 medium, else low.
func factorSeverity(score int) string {
	switch {
	case score > 70:
		return SeverityHigh
	case score > 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RiskLevel maps an overall score onto a qualitative level.
func RiskLevel(score int) string {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AssessDocumentation scores documentation quality for one encounter.
// Unresolved high and critical flags each add weight; stale incomplete
// encounters are penalized after 30 days.
func AssessDocumentation(enc *encounter.Encounter, flags []*ComplianceFlag, now time.Time) RiskFactor {
	score := 0
	var issues []string

	if !enc.HasSOAPNotes() || len(enc.SOAPText()) < 100 {
		score += 25
		issues = append(issues, "SOAP notes missing or too brief")
	}
	unresolvedHigh := 0
	for _, f := range flags {
		if !f.IsResolved && (f.Severity == SeverityHigh || f.Severity == SeverityCritical) {
			unresolvedHigh++
		}
	}
	if unresolvedHigh > 0 {
		score += 15 * unresolvedHigh
		issues = append(issues, fmt.Sprintf("%d unresolved high-severity compliance flags", unresolvedHigh))
	}
	if strings.TrimSpace(enc.ChiefComplaint) == "" {
		score += 20
		issues = append(issues, "Chief complaint not documented")
	}
	if enc.Status != encounter.StatusCompleted && now.Sub(enc.AppointmentTime) > 30*24*time.Hour {
		score += 30
		issues = append(issues, "Encounter open more than 30 days past appointment")
	}

	score = clampScore(score)
	return RiskFactor{
		Category: CategoryDocumentation,
		Score:    score,
		Severity: factorSeverity(score),
		Issues:   issues,
	}
}

// highLevelEMCodes are E/M codes that require substantial note text.
var highLevelEMCodes = map[string]bool{
	"99214": true, "99215": true, "99204": true, "99205": true,
}

// AssessCoding scores coding accuracy for one encounter.
func AssessCoding(enc *encounter.Encounter) RiskFactor {
	score := 0
	var issues []string

	if len(enc.ICDCodes) == 0 {
		score += 40
		issues = append(issues, "No ICD-10 diagnosis codes assigned")
	} else {
		for _, code := range enc.ICDCodes {
			if strings.Contains(code, ".9") || strings.Contains(strings.ToLower(code), "unspecified") {
				score += 20
				issues = append(issues, "Unspecified diagnosis code in use")
				break
			}
		}
	}

	if len(enc.CPTCodes) == 0 {
		score += 35
		issues = append(issues, "No CPT procedure codes assigned")
	} else {
		for _, code := range enc.CPTCodes {
			if highLevelEMCodes[code] && len(enc.SOAPText()) < 200 {
				score += 30
				issues = append(issues, "High-level E/M code not supported by note length")
				break
			}
		}
	}

	if hasPreventiveCPT(enc.CPTCodes) && hasProblemICD(enc.ICDCodes) {
		score += 25
		issues = append(issues, "Preventive visit billed with problem diagnosis, modifier likely missing")
	}

	score = clampScore(score)
	return RiskFactor{
		Category: CategoryCoding,
		Score:    score,
		Severity: factorSeverity(score),
		Issues:   issues,
	}
}

// Preventive medicine E/M codes span 99381-99387 (new patient) and
// 99391-99397 (established). Other 993xx codes, nursing facility and
// prolonged services among them, are not preventive visits.
func hasPreventiveCPT(codes []string) bool {
	for _, c := range codes {
		n, err := strconv.Atoi(c)
		if err != nil {
			continue
		}
		if (n >= 99381 && n <= 99387) || (n >= 99391 && n <= 99397) {
			return true
		}
	}
	return false
}

func hasProblemICD(codes []string) bool {
	for _, c := range codes {
		if !strings.HasPrefix(strings.ToUpper(c), "Z") {
			return true
		}
	}
	return false
}

// AssessCompliance scores the encounter's flag history. Zero flags is a
// clean record and scores exactly 0.
func AssessCompliance(flags []*ComplianceFlag) RiskFactor {
	if len(flags) == 0 {
		return RiskFactor{
			Category: CategoryCompliance,
			Score:    0,
			Severity: SeverityLow,
			Issues:   []string{"No compliance flags on record"},
		}
	}

	unresolved := 0
	highSeverity := 0
	types := make(map[string]bool)
	for _, f := range flags {
		if !f.IsResolved {
			unresolved++
		}
		if f.Severity == SeverityHigh || f.Severity == SeverityCritical {
			highSeverity++
		}
		types[f.FlagType] = true
	}

	score := int(math.Round(float64(unresolved) / float64(len(flags)) * 50))
	score += 10 * highSeverity

	var issues []string
	if unresolved > 0 {
		issues = append(issues, fmt.Sprintf("%d of %d flags unresolved", unresolved, len(flags)))
	}
	if highSeverity > 0 {
		issues = append(issues, fmt.Sprintf("%d high-severity flags", highSeverity))
	}
	if len(types)*2 < len(flags) {
		score += 15
		issues = append(issues, "Recurring flag types indicate a systematic issue")
	}

	score = clampScore(score)
	return RiskFactor{
		Category: CategoryCompliance,
		Score:    score,
		Severity: factorSeverity(score),
		Issues:   issues,
	}
}

// chronicConditionPrefixes are ICD-10 prefixes that mark chronic disease
// management in the patient's history.
var chronicConditionPrefixes = []string{"E11", "I10", "M79", "F32", "G93"}

// AssessHistory scores patient-level utilization and coding patterns from
// prior encounters. An unknown patient yields a fixed low-risk result.
func AssessHistory(patientID uuid.UUID, prior []*encounter.Encounter, now time.Time) RiskFactor {
	if patientID == uuid.Nil {
		return RiskFactor{
			Category: CategoryHistorical,
			Score:    10,
			Severity: SeverityLow,
			Issues:   []string{"Patient history unavailable, using baseline risk"},
		}
	}

	score := 0
	var issues []string

	if len(prior) > 0 {
		highRisk := 0
		for _, e := range prior {
			if e.ClaimRiskScore != nil && *e.ClaimRiskScore > 70 {
				highRisk++
			}
		}
		score += int(math.Round(float64(highRisk) / float64(len(prior)) * 40))
		if highRisk > 0 {
			issues = append(issues, fmt.Sprintf("%d of %d prior encounters were high risk", highRisk, len(prior)))
		}
	}

	recent := 0
	sixMonthsAgo := now.AddDate(0, -6, 0)
	for _, e := range prior {
		if e.AppointmentTime.After(sixMonthsAgo) {
			recent++
		}
	}
	if recent > 10 {
		score += 20
		issues = append(issues, fmt.Sprintf("%d encounters in the last 6 months suggests over-utilization", recent))
	}

	distinct := make(map[string]bool)
	for _, e := range prior {
		for _, code := range e.ICDCodes {
			distinct[code] = true
		}
	}
	if len(distinct) > 15 {
		score += 15
		issues = append(issues, fmt.Sprintf("%d distinct historical diagnosis codes", len(distinct)))
	}

	for code := range distinct {
		if matchesChronicPrefix(code) {
			score += 5
			issues = append(issues, "Chronic condition history present")
			break
		}
	}

	score = clampScore(score)
	return RiskFactor{
		Category: CategoryHistorical,
		Score:    score,
		Severity: factorSeverity(score),
		Issues:   issues,
	}
}

func matchesChronicPrefix(code string) bool {
	upper := strings.ToUpper(code)
	for _, p := range chronicConditionPrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// DegradedHistoryFactor is returned when the history lookup fails. The
// assessment stays advisory: a storage error must not block the workflow.
func DegradedHistoryFactor() RiskFactor {
	return RiskFactor{
		Category: CategoryHistorical,
		Score:    50,
		Severity: SeverityMedium,
		Issues:   []string{"Patient history could not be loaded, assuming medium risk"},
	}
}

// Aggregate combines the four factors into the overall assessment with
// threshold-driven recommendations.
func Aggregate(encounterID uuid.UUID, doc, coding, comp, hist RiskFactor) *RiskAssessment {
	overall := int(math.Round(
		weightDocumentation*float64(doc.Score) +
			weightCoding*float64(coding.Score) +
			weightCompliance*float64(comp.Score) +
			weightHistorical*float64(hist.Score)))
	overall = clampScore(overall)

	var recs []Recommendation
	if doc.Score > 40 {
		recs = append(recs, Recommendation{
			Category:    CategoryDocumentation,
			Priority:    doc.Severity,
			Title:       "Improve encounter documentation",
			Description: "Documentation gaps are the leading cause of claim denials for this encounter.",
			Actions: []string{
				"Complete all SOAP note sections",
				"Resolve outstanding compliance flags",
				"Document the chief complaint",
				"Finalize notes within 24 hours of the visit",
			},
			EstimatedImpact: "Could reduce denial risk by 20-30%",
		})
	}
	if coding.Score > 40 {
		recs = append(recs, Recommendation{
			Category:    CategoryCoding,
			Priority:    coding.Severity,
			Title:       "Review diagnosis and procedure coding",
			Description: "Coding gaps or mismatches between codes and documentation raise denial risk.",
			Actions: []string{
				"Replace unspecified codes with specific ICD-10 codes",
				"Match the E/M level to documented complexity",
				"Verify medical necessity for each billed service",
				"Apply modifier 25 for preventive visits with problem services",
			},
			EstimatedImpact: "Could reduce denial risk by 15-25%",
		})
	}
	if comp.Score > 30 {
		recs = append(recs, Recommendation{
			Category:    CategoryCompliance,
			Priority:    comp.Severity,
			Title:       "Address outstanding compliance flags",
			Description: "Unresolved and recurring flags indicate process gaps beyond this single encounter.",
			Actions: []string{
				"Resolve high-severity flags before claim submission",
				"Adopt systematic pre-submission compliance checks",
				"Schedule documentation training for recurring issues",
				"Run periodic internal audits",
			},
			EstimatedImpact: "Could reduce denial risk by 10-20%",
		})
	}
	if overall > 70 {
		recs = append(recs, Recommendation{
			Category:    "overall",
			Priority:    SeverityHigh,
			Title:       "Immediate risk reduction needed",
			Description: "The combined risk score puts this claim at high likelihood of denial.",
			Actions: []string{
				"Hold the claim pending documentation review",
				"Escalate to the compliance officer",
				"Complete all remediation steps before submission",
			},
			EstimatedImpact: "Submission without review risks full claim denial",
		})
	}

	return &RiskAssessment{
		EncounterID:      encounterID,
		OverallRiskScore: overall,
		RiskLevel:        RiskLevel(overall),
		Documentation:    doc,
		Coding:           coding,
		Compliance:       comp,
		Historical:       hist,
		Recommendations:  recs,
	}
}
