package compliance

import (
	"regexp"
	"strings"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

// EvaluateRules runs every catalog rule against the encounter and
// transcript and returns a flag per violation, in catalog order. It is a
// pure function of its inputs and the static catalog.
func (kb *KnowledgeBase) EvaluateRules(enc *encounter.Encounter, transcript string) []Flag {
	var flags []Flag
	for _, r := range kb.Rules {
		if r.Violated(enc, transcript) {
			flags = append(flags, Flag{
				Type:        r.ID,
				Severity:    r.Severity,
				Message:     r.Message,
				Explanation: r.Explanation,
				Remediation: r.Remediation,
			})
		}
	}
	return flags
}

var (
	painScalePattern = regexp.MustCompile(`(?i)\b(?:10|[0-9])\s*(?:/\s*10|out of 10)|scale`)
	dosagePattern    = regexp.MustCompile(`(?i)\d+\s*(mg|ml|mcg|units)\b`)

	hpiPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bfor\s+(?:\w+\s+)?(?:second|minute|hour|day|week|month|year)s?\b|\b(?:since|started|began|onset)\b`), // duration
		regexp.MustCompile(`(?i)\b(left|right|bilateral|lower|upper|radiat\w*|located|location)\b`),                                  // location
		regexp.MustCompile(`(?i)\b(sharp|dull|aching|burning|throbbing|stabbing|cramping|pressure)\b`),                               // quality
		regexp.MustCompile(`(?i)\b(mild|moderate|severe|worst|intensity)\b|\d\s*/\s*10`),                                             // severity
		regexp.MustCompile(`(?i)\b(constant|intermittent|comes and goes|worse in|at night|in the morning)\b`),                        // timing
		regexp.MustCompile(`(?i)\b(after|during|while|when\s+\w+ing|lifting|sitting|standing|walking)\b`),                            // context
		regexp.MustCompile(`(?i)\b(better with|worse with|relieved by|aggravated by|improves|worsens)\b`),                            // modifying factors
		regexp.MustCompile(`(?i)\b(associated with|accompanied by|along with|also (?:reports|notes|has)|denies)\b`),                  // associated symptoms
	}
)

func defaultRules() []Rule {
	return []Rule{
		{
			ID:          "missing_physical_exam",
			Category:    "documentation",
			Severity:    SeverityCritical,
			Message:     "No physical examination documented",
			Explanation: "Claims without a documented physical examination are routinely denied. The transcript and objective section show no examination findings.",
			Remediation: []string{
				"Document examination findings in the objective section",
				"Record vital signs for the visit",
				"Amend the note before claim submission",
			},
			Violated: func(enc *encounter.Encounter, transcript string) bool {
				t := strings.ToLower(transcript)
				if strings.Contains(t, "examination") || strings.Contains(t, "physical exam") || strings.Contains(t, "vital signs") {
					return false
				}
				return !strings.Contains(strings.ToLower(enc.ObjectiveText()), "exam")
			},
		},
		{
			ID:          "missing_pain_scale",
			Category:    "documentation",
			Severity:    SeverityHigh,
			Message:     "Pain mentioned without a pain-scale assessment",
			Explanation: "Pain complaints require a numeric scale rating to support medical necessity for treatment and follow-up.",
			Remediation: []string{
				"Record the patient's pain rating on a 0-10 scale",
				"Document pain reassessment after intervention",
			},
			Violated: func(_ *encounter.Encounter, transcript string) bool {
				t := strings.ToLower(transcript)
				if !strings.Contains(t, "pain") && !strings.Contains(t, "hurt") {
					return false
				}
				return !painScalePattern.MatchString(transcript)
			},
		},
		{
			ID:          "insufficient_hpi",
			Category:    "documentation",
			Severity:    SeverityMedium,
			Message:     "History of present illness covers fewer than four elements",
			Explanation: "Payers expect at least four HPI elements (duration, location, quality, severity, timing, context, modifying factors, associated symptoms) for a detailed history.",
			Remediation: []string{
				"Document symptom duration and location",
				"Characterize quality and severity of the complaint",
				"Note timing, context, and modifying factors",
			},
			Violated: func(_ *encounter.Encounter, transcript string) bool {
				matched := 0
				for _, p := range hpiPatterns {
					if p.MatchString(transcript) {
						matched++
					}
				}
				return matched < 4
			},
		},
		{
			ID:          "medication_without_dosage",
			Category:    "documentation",
			Severity:    SeverityMedium,
			Message:     "Medication discussed without dosage documentation",
			Explanation: "Prescribed or reviewed medications must include dose and units to support the billed medication management.",
			Remediation: []string{
				"Document dose, units, and frequency for each medication",
				"Complete medication reconciliation for the visit",
			},
			Violated: func(_ *encounter.Encounter, transcript string) bool {
				t := strings.ToLower(transcript)
				if !strings.Contains(t, "medication") && !strings.Contains(t, "prescri") {
					return false
				}
				return !dosagePattern.MatchString(transcript)
			},
		},
	}
}
