package encounter

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Encounter statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Encounter maps to the encounter table. It is the unit of documentation the
// compliance engine evaluates: SOAP note sections, billing code lists, and
// the persisted claim risk score all hang off it.
type Encounter struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID      *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	Status          string     `db:"status" json:"status"`
	EncounterType   string     `db:"encounter_type" json:"encounter_type"`
	AppointmentTime time.Time  `db:"appointment_time" json:"appointment_time"`
	ChiefComplaint  string     `db:"chief_complaint" json:"chief_complaint"`
	Subjective      *string    `db:"subjective" json:"subjective,omitempty"`
	Objective       *string    `db:"objective" json:"objective,omitempty"`
	Assessment      *string    `db:"assessment" json:"assessment,omitempty"`
	Plan            *string    `db:"plan" json:"plan,omitempty"`
	ICDCodes        []string   `db:"icd_codes" json:"icd_codes"`
	CPTCodes        []string   `db:"cpt_codes" json:"cpt_codes"`
	Transcript      *string    `db:"transcript" json:"transcript,omitempty"`
	ClaimRiskScore  *int       `db:"claim_risk_score" json:"claim_risk_score,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// SOAPNotes is the request shape for updating note sections. Transcript is
// optional: nil leaves the stored transcript untouched.
type SOAPNotes struct {
	Subjective *string `json:"subjective"`
	Objective  *string `json:"objective"`
	Assessment *string `json:"assessment"`
	Plan       *string `json:"plan"`
	Transcript *string `json:"transcript,omitempty"`
}

// HasSOAPNotes reports whether any SOAP section has content.
func (e *Encounter) HasSOAPNotes() bool {
	for _, s := range []*string{e.Subjective, e.Objective, e.Assessment, e.Plan} {
		if s != nil && strings.TrimSpace(*s) != "" {
			return true
		}
	}
	return false
}

// SOAPText returns all note sections joined into one string, used for
// length checks and text matching.
func (e *Encounter) SOAPText() string {
	var parts []string
	for _, s := range []*string{e.Subjective, e.Objective, e.Assessment, e.Plan} {
		if s != nil && *s != "" {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, "\n")
}

// ObjectiveText returns the objective section or "".
func (e *Encounter) ObjectiveText() string {
	if e.Objective == nil {
		return ""
	}
	return *e.Objective
}
