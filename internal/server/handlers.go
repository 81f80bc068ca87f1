package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/rshade/netzero-testops/internal/carbon"
	"github.com/rshade/netzero-testops/internal/history"
	"github.com/rshade/netzero-testops/internal/report"
	"github.com/rshade/netzero-testops/internal/scenario"
)

// GridOverride selects the grid intensity for one request. GridIntensity wins
// over Region; an unknown region is rejected.
type GridOverride struct {
	Region        string   `json:"region,omitempty"`
	GridIntensity *float64 `json:"grid_intensity_g_co2_kwh,omitempty"`
}

// EstimateRequest is the body of POST /v1/estimate.
type EstimateRequest struct {
	Sample carbon.UtilizationSample `json:"sample"`
	GridOverride
}

// CompareRequest is the body of POST /v1/compare.
type CompareRequest struct {
	Baseline  carbon.UtilizationSample `json:"baseline"`
	Optimized carbon.UtilizationSample `json:"optimized"`
	GridOverride
}

// ProjectRequest is the body of POST /v1/project. Omitted parameters use the
// server configuration.
type ProjectRequest struct {
	carbon.Savings
	DailyTests  *int              `json:"daily_tests,omitempty"`
	HorizonDays *int              `json:"horizon_days,omitempty"`
	Economics   *carbon.Economics `json:"economics,omitempty"`
}

// ReportRequest is the body of POST /v1/reports.
type ReportRequest struct {
	Scenarios   []scenario.Entry `json:"scenarios"`
	DailyTests  *int             `json:"daily_tests,omitempty"`
	HorizonDays *int             `json:"horizon_days,omitempty"`
	GridOverride
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) estimate(c *gin.Context) {
	var req EstimateRequest
	if !bindJSON(c, &req) {
		return
	}
	coeffs, err := s.coefficients(req.GridOverride)
	if err != nil {
		writeError(c, err)
		return
	}
	a, err := carbon.Assess(req.Sample, coeffs)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, a)
}

func (s *Server) compare(c *gin.Context) {
	var req CompareRequest
	if !bindJSON(c, &req) {
		return
	}
	coeffs, err := s.coefficients(req.GridOverride)
	if err != nil {
		writeError(c, err)
		return
	}
	result, err := carbon.Compare(req.Baseline, req.Optimized, coeffs)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, result)
}

func (s *Server) project(c *gin.Context) {
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg := s.opts.Config
	dailyTests, horizonDays, economics := cfg.DailyTests, cfg.HorizonDays, cfg.Coefficients.Economics
	if req.DailyTests != nil {
		dailyTests = *req.DailyTests
	}
	if req.HorizonDays != nil {
		horizonDays = *req.HorizonDays
	}
	if req.Economics != nil {
		economics = *req.Economics
	}

	p, err := carbon.ProjectSavings(req.Savings, dailyTests, horizonDays, economics)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (s *Server) createReport(c *gin.Context) {
	var req ReportRequest
	if !bindJSON(c, &req) {
		return
	}
	scenarios, err := scenario.FromEntries(req.Scenarios)
	if err != nil {
		writeError(c, err)
		return
	}
	coeffs, err := s.coefficients(req.GridOverride)
	if err != nil {
		writeError(c, err)
		return
	}

	opts := report.Options{
		Coefficients: coeffs,
		DailyTests:   s.opts.Config.DailyTests,
		HorizonDays:  s.opts.Config.HorizonDays,
		GeneratedAt:  s.opts.Now().UTC(),
		ReportID:     s.opts.NewID(),
	}
	if req.DailyTests != nil {
		opts.DailyTests = *req.DailyTests
	}
	if req.HorizonDays != nil {
		opts.HorizonDays = *req.HorizonDays
	}

	r, err := report.Build(scenarios, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.Save(c.Request.Context(), r); err != nil {
			writeError(c, err)
			return
		}
	}
	if s.opts.Observer != nil {
		s.opts.Observer.Observe(r)
	}

	s.opts.Logger.Info().
		Str("report_id", r.Metadata.ReportID).
		Int("scenarios", r.Metadata.ScenariosAnalyzed).
		Int("undefined", r.Summary.ScenariosUndefined).
		Msg("report generated")

	c.Header("Location", "/v1/reports/"+r.Metadata.ReportID)
	writeJSON(c, http.StatusCreated, r)
}

func (s *Server) listReports(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(c, fmt.Errorf("%w: limit must be a non-negative integer", carbon.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	entries, err := s.opts.Store.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"reports": entries, "count": len(entries)})
}

func (s *Server) getReport(c *gin.Context) {
	r, err := s.opts.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

// coefficients applies a per-request grid override to the configured set.
func (s *Server) coefficients(o GridOverride) (carbon.Coefficients, error) {
	coeffs := s.opts.Config.Coefficients
	switch {
	case o.GridIntensity != nil:
		coeffs = coeffs.WithGridIntensity(*o.GridIntensity)
	case o.Region != "":
		intensity, ok := carbon.GetGridIntensity(o.Region)
		if !ok {
			return carbon.Coefficients{}, fmt.Errorf("%w: unknown region %q", carbon.ErrInvalidInput, o.Region)
		}
		coeffs = coeffs.WithGridIntensity(intensity)
	}
	return coeffs, nil
}

// bindJSON decodes the request body into v, writing a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(c, fmt.Errorf("%w: decoding request body: %v", carbon.ErrInvalidInput, err))
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, carbon.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	case errors.Is(err, carbon.ErrInvalidInput), errors.Is(err, carbon.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	writeJSON(c, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
