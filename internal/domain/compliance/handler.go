package compliance

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/RedLynx101/MedCompliance-AI/internal/platform/auth"
	"github.com/RedLynx101/MedCompliance-AI/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, physician, coder
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "coder"))
	readGroup.GET("/compliance-flags", h.ListFlags)
	readGroup.GET("/encounters/:id/compliance-flags", h.ListFlagsByEncounter)
	readGroup.GET("/reference/icd10/:code", h.GetICD10Entry)
	readGroup.GET("/reference/cpt/:code", h.GetCPTEntry)
	readGroup.GET("/guidelines", h.ListGuidelines)
	readGroup.GET("/compliance/portfolio", h.Portfolio)

	// Write endpoints – admin, physician
	writeGroup := api.Group("", auth.RequireRole("admin", "physician"))
	writeGroup.POST("/encounters/:id/compliance-check", h.EvaluateCompliance)
	writeGroup.POST("/encounters/:id/risk-assessment", h.AssessClaimDenialRisk)
	writeGroup.POST("/compliance-flags/:id/resolve", h.ResolveFlag)
	writeGroup.POST("/compliance-flags/:id/action", h.SetFlagAction)
}

type complianceCheckRequest struct {
	Transcript string `json:"transcript"`
}

func (h *Handler) EvaluateCompliance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req complianceCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.EvaluateCompliance(c.Request().Context(), id, req.Transcript)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "encounter not found")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) AssessClaimDenialRisk(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	assessment, err := h.svc.AssessClaimDenialRisk(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "encounter not found")
	}
	return c.JSON(http.StatusOK, assessment)
}

func (h *Handler) ListFlags(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListFlags(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListFlagsByEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListFlagsByEncounter(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ResolveFlag(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.ResolveFlag(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "flag not found")
	}
	return c.NoContent(http.StatusNoContent)
}

type flagActionRequest struct {
	Action string `json:"action"`
}

func (h *Handler) SetFlagAction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req flagActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetFlagAction(c.Request().Context(), id, req.Action); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetICD10Entry(c echo.Context) error {
	entry, ok := h.svc.GetICD10Entry(c.Param("code"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "code not found")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) GetCPTEntry(c echo.Context) error {
	entry, ok := h.svc.GetCPTEntry(c.Param("code"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "code not found")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListGuidelines(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListGuidelines(c.QueryParam("category")))
}

func (h *Handler) Portfolio(c echo.Context) error {
	days := 0
	if v := c.QueryParam("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = d
	}
	metrics, err := h.svc.AnalyzePortfolio(c.Request().Context(), days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, metrics)
}
