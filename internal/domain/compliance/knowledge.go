package compliance

// KnowledgeBase holds the rule catalog and code reference tables. It is
// built once at startup and shared read-only across all requests, so it
// needs no locking. Tests construct smaller ones for isolation.
type KnowledgeBase struct {
	Rules      []Rule
	ICD10      []ICD10Entry
	CPT        []CPTEntry
	Guidelines []Guideline
}

// DefaultKnowledgeBase returns the built-in catalog: the minimum rule set
// primary-care audits call for, plus a starter ICD-10/CPT reference table.
func DefaultKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		Rules:      defaultRules(),
		ICD10:      defaultICD10(),
		CPT:        defaultCPT(),
		Guidelines: defaultGuidelines(),
	}
}

func defaultICD10() []ICD10Entry {
	return []ICD10Entry{
		{
			Code:        "M54.5",
			Description: "Low back pain",
			Category:    "musculoskeletal",
			Keywords:    []string{"back pain", "lower back"},
			Confidence:  85,
			RequiredDocumentation: []string{
				"Location and laterality of pain",
				"Duration of symptoms",
				"Aggravating and relieving factors",
			},
		},
		{
			Code:        "Z00.00",
			Description: "Encounter for general adult medical examination without abnormal findings",
			Category:    "preventive",
			Keywords:    []string{"annual", "physical", "checkup", "preventive"},
			Confidence:  90,
			RequiredDocumentation: []string{
				"Comprehensive review of systems",
				"Age-appropriate screening discussion",
			},
		},
		{
			Code:        "J06.9",
			Description: "Acute upper respiratory infection, unspecified",
			Category:    "respiratory",
			Keywords:    []string{"cough", "sore throat", "congestion", "upper respiratory"},
			Confidence:  80,
			RequiredDocumentation: []string{
				"Symptom onset and duration",
				"Examination of ears, nose, throat",
			},
		},
		{
			Code:        "I10",
			Description: "Essential (primary) hypertension",
			Category:    "cardiovascular",
			Keywords:    []string{"hypertension", "high blood pressure", "elevated bp"},
			Confidence:  88,
			RequiredDocumentation: []string{
				"Blood pressure readings",
				"Medication review",
			},
		},
		{
			Code:        "E11.9",
			Description: "Type 2 diabetes mellitus without complications",
			Category:    "endocrine",
			Keywords:    []string{"diabetes", "blood sugar", "a1c"},
			Confidence:  87,
			RequiredDocumentation: []string{
				"Most recent A1c value",
				"Glucose monitoring discussion",
				"Foot examination",
			},
		},
		{
			Code:        "R51",
			Description: "Headache",
			Category:    "symptoms",
			Keywords:    []string{"headache", "migraine", "head pain"},
			Confidence:  82,
			RequiredDocumentation: []string{
				"Headache character and location",
				"Associated neurologic symptoms",
			},
		},
	}
}

func defaultCPT() []CPTEntry {
	return []CPTEntry{
		{
			Code:           "99213",
			Description:    "Office or other outpatient visit, established patient, low complexity",
			Category:       "evaluation-management",
			EncounterTypes: []string{"Follow-up", "Office Visit"},
			Confidence:     80,
			DocumentationRequirements: []string{
				"Medically appropriate history and examination",
				"Low level of medical decision making",
			},
			Modifiers:    []string{"25"},
			TypicalICD10: []string{"I10", "E11.9", "M54.5"},
		},
		{
			Code:           "99395",
			Description:    "Periodic comprehensive preventive medicine, established patient, 18-39 years",
			Category:       "preventive",
			EncounterTypes: []string{"Annual Physical", "Preventive"},
			Confidence:     95,
			DocumentationRequirements: []string{
				"Comprehensive history and examination",
				"Counseling and risk factor reduction",
			},
			Modifiers:    []string{"25"},
			TypicalICD10: []string{"Z00.00"},
		},
		{
			Code:           "99203",
			Description:    "Office or other outpatient visit, new patient, low complexity",
			Category:       "evaluation-management",
			EncounterTypes: []string{"New Patient"},
			Confidence:     85,
			DocumentationRequirements: []string{
				"Medically appropriate history and examination",
				"Low level of medical decision making",
			},
			TypicalICD10: []string{"J06.9", "R51"},
		},
		{
			Code:           "99214",
			Description:    "Office or other outpatient visit, established patient, moderate complexity",
			Category:       "evaluation-management",
			EncounterTypes: []string{"Chronic Care"},
			Confidence:     75,
			DocumentationRequirements: []string{
				"Moderate level of medical decision making",
				"Detailed history supporting complexity",
			},
			TypicalICD10: []string{"E11.9", "I10"},
		},
	}
}

func defaultGuidelines() []Guideline {
	return []Guideline{
		{
			ID:       "em-documentation-2021",
			Category: "coding",
			Title:    "E/M office visit documentation (2021 revisions)",
			Summary:  "Office visit E/M level is selected on medical decision making or total time. The note must support the billed level with a medically appropriate history and examination.",
			References: []string{
				"AMA CPT E/M Office Visit Guidelines 2021",
			},
		},
		{
			ID:       "soap-completeness",
			Category: "documentation",
			Title:    "SOAP note completeness",
			Summary:  "Every encounter note needs all four SOAP sections. Missing objective findings are the most common audit failure for denied claims.",
			References: []string{
				"CMS Documentation Guidelines for Evaluation and Management Services",
			},
		},
		{
			ID:       "preventive-problem-split",
			Category: "coding",
			Title:    "Preventive visit with problem-oriented service",
			Summary:  "When a significant separately identifiable problem is addressed during a preventive visit, append modifier 25 to the problem-oriented E/M code and link a non-Z diagnosis.",
			References: []string{
				"CPT Assistant, Modifier 25 guidance",
			},
		},
		{
			ID:       "timely-documentation",
			Category: "documentation",
			Title:    "Timely completion of encounter documentation",
			Summary:  "Notes should be completed within 24 hours of the encounter. Claims for encounters left open past 30 days carry elevated denial risk.",
			References: []string{
				"CMS Claims Processing Manual, Chapter 12",
			},
		},
	}
}
