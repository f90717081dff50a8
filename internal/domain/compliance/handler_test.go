package compliance

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

func newTestHandler() (*Handler, *echo.Echo, *mockFlagRepo, *mockEncounterSource) {
	svc, flags, encs := newComplianceTestService()
	return NewHandler(svc), echo.New(), flags, encs
}

func TestHandler_EvaluateCompliance(t *testing.T) {
	h, e, _, encs := newTestHandler()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
	})
	body := `{"transcript":"Patient reports lower back pain for six weeks"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(enc.ID.String())
	if err := h.EvaluateCompliance(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "M54.5") {
		t.Error("expected M54.5 suggestion in response")
	}
}

func TestHandler_EvaluateCompliance_NotFound(t *testing.T) {
	h, e, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	if err := h.EvaluateCompliance(c); err == nil {
		t.Error("expected error for unknown encounter")
	}
}

func TestHandler_AssessClaimDenialRisk(t *testing.T) {
	h, e, _, encs := newTestHandler()
	enc := encs.add(&encounter.Encounter{
		PatientID:       uuid.New(),
		EncounterType:   "Follow-up",
		AppointmentTime: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(enc.ID.String())
	if err := h.AssessClaimDenialRisk(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "overall_risk_score") {
		t.Error("expected assessment payload in response")
	}
}

func TestHandler_ResolveFlag(t *testing.T) {
	h, e, flags, _ := newTestHandler()
	f := &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_pain_scale", Severity: SeverityHigh}
	flags.Create(nil, f)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.ID.String())
	if err := h.ResolveFlag(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !f.IsResolved {
		t.Error("expected flag resolved")
	}
}

func TestHandler_SetFlagAction_Invalid(t *testing.T) {
	h, e, flags, _ := newTestHandler()
	f := &ComplianceFlag{EncounterID: uuid.New(), FlagType: "missing_pain_scale", Severity: SeverityHigh}
	flags.Create(nil, f)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"maybe"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.ID.String())
	if err := h.SetFlagAction(c); err == nil {
		t.Error("expected error for invalid action")
	}
}

func TestHandler_GetICD10Entry(t *testing.T) {
	h, e, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues("M54.5")
	if err := h.GetICD10Entry(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Low back pain") {
		t.Error("expected entry description in response")
	}
}

func TestHandler_GetCPTEntry_NotFound(t *testing.T) {
	h, e, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues("00000")
	if err := h.GetCPTEntry(c); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestHandler_ListGuidelines(t *testing.T) {
	h, e, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?category=documentation", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListGuidelines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "SOAP") {
		t.Error("expected documentation guidelines in response")
	}
}

func TestHandler_Portfolio_InvalidDays(t *testing.T) {
	h, e, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?days=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Portfolio(c); err == nil {
		t.Error("expected error for invalid days")
	}
}

func TestHandler_Portfolio(t *testing.T) {
	h, e, _, encs := newTestHandler()
	score := 40
	encs.add(&encounter.Encounter{PatientID: uuid.New(), AppointmentTime: time.Now(), ClaimRiskScore: &score})
	req := httptest.NewRequest(http.MethodGet, "/?days=7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Portfolio(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"window_days":7`) {
		t.Errorf("expected window 7 in response, got %s", rec.Body.String())
	}
}
