package terminology

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/termbridge/termbridge/internal/platform/auth"
	"github.com/termbridge/termbridge/internal/platform/fhir"
)

// Handler provides the REST and FHIR endpoints for the terminology bridge.
type Handler struct {
	svc *Service
}

// NewHandler creates a new terminology handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers terminology routes on the API and FHIR groups.
func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	termGroup := api.Group("/terminology", auth.RequireRole("admin", "physician", "terminologist"))
	termGroup.GET("/search", h.Search)
	termGroup.POST("/codes/upload", h.UploadCodes, auth.RequireRole("admin", "terminologist"))

	api.POST("/problem-list/$export", h.ExportProblemList, auth.RequireRole("admin", "physician"))

	fhirTerm := fhirGroup.Group("", auth.RequireRole("admin", "physician", "terminologist"))
	fhirTerm.GET("/ValueSet/$expand", h.ExpandValueSet)
	fhirTerm.POST("/ValueSet/$expand", h.ExpandValueSet)
	fhirTerm.GET("/ConceptMap/$translate", h.Translate)
	fhirTerm.POST("/ConceptMap/$translate", h.TranslatePost)
	fhirTerm.POST("/Bundle/$validate", h.ValidateBundle)
}

func getLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("_count"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

// systemsFilter resolves repeated ?system= parameters, accepting both full
// URIs and the short tags used by the dashboard.
func systemsFilter(c echo.Context) []string {
	var systems []string
	for _, s := range c.QueryParams()["system"] {
		switch strings.ToUpper(s) {
		case "NAMASTE":
			systems = append(systems, SystemNAMASTE)
		case "ICD11-TM2", "TM2":
			systems = append(systems, SystemICD11TM2)
		case "ICD11", "ICD11-BIO", "BIOMEDICINE":
			systems = append(systems, SystemICD11Bio)
		default:
			if s != "" {
				systems = append(systems, s)
			}
		}
	}
	return systems
}

// Search handles GET /api/v1/terminology/search?q=...&system=...&suggestions=true
func (h *Handler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if len(query) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' must be at least 2 characters")
	}
	includeSuggestions := c.QueryParam("suggestions") == "true"

	results, err := h.svc.Search(c.Request().Context(), query, systemsFilter(c), includeSuggestions, getLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if results == nil {
		results = []SearchResult{}
	}
	return c.JSON(http.StatusOK, results)
}

// ExpandValueSet handles GET/POST /fhir/ValueSet/$expand
func (h *Handler) ExpandValueSet(c echo.Context) error {
	url := c.QueryParam("url")
	filter := c.QueryParam("filter")

	count := 100
	if v, err := strconv.Atoi(c.QueryParam("count")); err == nil && v > 0 {
		count = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		offset = v
	}

	// Map well-known ValueSet URLs to a code-system restriction.
	var systems []string
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "namaste"):
		systems = []string{SystemNAMASTE}
	case strings.Contains(lower, "tm2"):
		systems = []string{SystemICD11TM2}
	case strings.Contains(lower, "icd"), strings.Contains(lower, "biomedicine"):
		systems = []string{SystemICD11Bio}
	}

	vs, err := h.svc.Expand(c.Request().Context(), url, filter, systems, count, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, vs)
}

// Translate handles GET /fhir/ConceptMap/$translate with query parameters.
func (h *Handler) Translate(c echo.Context) error {
	code := c.QueryParam("code")
	system := c.QueryParam("system")
	targetSystem := c.QueryParam("targetsystem")

	return h.doTranslate(c, code, system, targetSystem)
}

// TranslatePost handles POST /fhir/ConceptMap/$translate with a Parameters
// resource body.
func (h *Handler) TranslatePost(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeStructure, "Failed to read request body"))
	}

	var params struct {
		ResourceType string `json:"resourceType"`
		Parameter    []struct {
			Name        string `json:"name"`
			ValueCode   string `json:"valueCode,omitempty"`
			ValueUri    string `json:"valueUri,omitempty"`
			ValueString string `json:"valueString,omitempty"`
		} `json:"parameter"`
	}
	if err := json.Unmarshal(body, &params); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeStructure, "Invalid JSON: "+err.Error()))
	}

	var code, system, targetSystem string
	for _, p := range params.Parameter {
		value := p.ValueCode
		if value == "" {
			value = p.ValueUri
		}
		if value == "" {
			value = p.ValueString
		}
		switch p.Name {
		case "code":
			code = value
		case "system":
			system = value
		case "targetsystem", "target":
			targetSystem = value
		}
	}
	return h.doTranslate(c, code, system, targetSystem)
}

func (h *Handler) doTranslate(c echo.Context, code, system, targetSystem string) error {
	if code == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("code"))
	}
	if system == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("system"))
	}
	if targetSystem == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("targetsystem"))
	}

	matches, err := h.svc.Translate(c.Request().Context(), code, system, targetSystem)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
	}

	fhirMatches := make([]fhir.TranslateMatch, 0, len(matches))
	for _, m := range matches {
		fhirMatches = append(fhirMatches, fhir.TranslateMatch{
			Equivalence: m.Equivalence,
			Code:        m.TargetCode,
			Display:     m.TargetDisplay,
			System:      m.TargetSystem,
		})
	}
	return c.JSON(http.StatusOK, fhir.NewTranslateParameters(fhirMatches))
}

// ValidateBundle handles POST /fhir/Bundle/$validate. The report itself is
// the successful outcome: structurally broken bundles still return 200
// with valid=false.
func (h *Handler) ValidateBundle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeStructure, "Failed to read request body"))
	}

	result := fhir.ValidateDualCodedBundle(body)
	if c.QueryParam("_format") == "operationoutcome" {
		return c.JSON(http.StatusOK, result.ToOperationOutcome())
	}
	return c.JSON(http.StatusOK, result)
}

// ExportProblemList handles POST /api/v1/problem-list/$export
func (h *Handler) ExportProblemList(c echo.Context) error {
	var req struct {
		Entries []ProblemEntry `json:"entries"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Entries) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one problem entry is required")
	}

	bundle, err := h.svc.ExportProblemList(c.Request().Context(), req.Entries)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, bundle)
}

// UploadCodes handles POST /api/v1/terminology/codes/upload. The body is a
// CSV export (code,display,definition,category) ingested into the given
// system; duplicate codes are skipped, not errored.
func (h *Handler) UploadCodes(c echo.Context) error {
	system := c.QueryParam("system")
	if system == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'system' is required")
	}
	if system != SystemNAMASTE && system != SystemICD11TM2 && system != SystemICD11Bio {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown code system: "+system)
	}

	count, err := h.svc.IngestCSV(c.Request().Context(), c.Request().Body, system)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"inserted": count})
}
