// Package handler exposes the verification engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dossard/internal/audit"
	"dossard/internal/verify/eligibility"
	"dossard/internal/verify/identifier"
	"dossard/internal/verify/metrics"
	"dossard/internal/verify/models"
	dErrors "dossard/pkg/domain-errors"
	"dossard/pkg/platform/httputil"
)

// VerificationService is the engine surface the handler depends on.
type VerificationService interface {
	Verify(ctx context.Context, req models.VerificationRequest, forceRefresh bool) (models.VerificationOutcome, error)
	Purge(ctx context.Context, relationID string) error
}

// AuditReader lists recorded audit events for the admin surface.
type AuditReader interface {
	List(ctx context.Context, relationID string) ([]audit.Event, error)
}

// Handler handles HTTP requests for verification operations.
type Handler struct {
	service VerificationService
	reader  AuditReader
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithMetrics sets the metrics for the handler.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithAuditReader enables the admin audit listing endpoint.
func WithAuditReader(r AuditReader) HandlerOption {
	return func(h *Handler) {
		h.reader = r
	}
}

// New creates a verification handler.
func New(service VerificationService, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the organizer-facing routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Post("/identifier/classify", h.HandleClassify)
	r.Post("/eligibility/check", h.HandleEligibility)
}

// RegisterAdmin mounts the admin routes (cache purge, audit listing).
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/cache/{identifier}", h.HandlePurge)
	if h.reader != nil {
		r.Get("/audit/{identifier}", h.HandleAuditList)
	}
}

// VerifyRequest is the request body for POST /verify.
type VerifyRequest struct {
	Identifier      string `json:"identifier"`
	LastName        string `json:"last_name,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	Sex             string `json:"sex,omitempty"`
	BirthDate       string `json:"birth_date,omitempty"`
	CompetitionCode string `json:"competition_code,omitempty"`
	CompetitionDate string `json:"competition_date,omitempty"`
	ConsentShare    bool   `json:"consent_share,omitempty"`
	ForceRefresh    bool   `json:"force_refresh,omitempty"`
}

// AthleteResponse is the athlete payload inside a successful verification.
type AthleteResponse struct {
	RelationID     string `json:"relation_id"`
	LastName       string `json:"last_name"`
	FirstName      string `json:"first_name"`
	Sex            string `json:"sex,omitempty"`
	BirthDate      string `json:"birth_date,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	RelationType   string `json:"relation_type,omitempty"`
	RelationExpiry string `json:"relation_expiry,omitempty"`
	Category       string `json:"category,omitempty"`
	Club           string `json:"club,omitempty"`
	ClubCode       string `json:"club_code,omitempty"`
	Department     string `json:"department,omitempty"`
	League         string `json:"league,omitempty"`
	Tier           string `json:"tier"`
	Suspended      bool   `json:"suspended"`
	HealthPass     bool   `json:"health_pass"`
}

// VerifyResponse is the response body for POST /verify.
type VerifyResponse struct {
	Connected     bool             `json:"connected"`
	StatusMessage string           `json:"status_message,omitempty"`
	ErrorCode     string           `json:"error_code,omitempty"`
	Hint          string           `json:"hint,omitempty"`
	Athlete       *AthleteResponse `json:"athlete,omitempty"`
	CheckedAt     string           `json:"checked_at,omitempty"`
}

// HandleVerify handles POST /verify. Force refresh is accepted both as a
// body field and as the ?force=true query flag.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	forceRefresh := req.ForceRefresh || r.URL.Query().Get("force") == "true"

	outcome, err := h.service.Verify(r.Context(), models.VerificationRequest{
		RelationID:      req.Identifier,
		LastName:        req.LastName,
		FirstName:       req.FirstName,
		Sex:             req.Sex,
		BirthDate:       req.BirthDate,
		CompetitionCode: req.CompetitionCode,
		CompetitionDate: req.CompetitionDate,
		ConsentShare:    req.ConsentShare,
	}, forceRefresh)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toVerifyResponse(outcome))
}

// ClassifyRequest is the request body for POST /identifier/classify.
type ClassifyRequest struct {
	Identifier string `json:"identifier"`
}

// ClassifyResponse is the response body for POST /identifier/classify.
type ClassifyResponse struct {
	Identifier  string `json:"identifier"`
	Valid       bool   `json:"valid"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// HandleClassify handles POST /identifier/classify.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[ClassifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	c := identifier.Classify(req.Identifier)
	if h.metrics != nil {
		h.metrics.IdentifierLookupsTotal.WithLabelValues(string(c.Kind)).Inc()
	}

	httputil.WriteJSON(w, http.StatusOK, ClassifyResponse{
		Identifier:  c.Raw,
		Valid:       c.Valid,
		Kind:        string(c.Kind),
		Description: c.Description,
	})
}

// EligibilityRequest is the request body for POST /eligibility/check.
type EligibilityRequest struct {
	Identifier string `json:"identifier"`
	Race       struct {
		Code               string `json:"code"`
		Date               string `json:"date"` // dd/mm/yyyy
		MinimumTier        string `json:"minimum_tier,omitempty"`
		HealthPassRequired bool   `json:"health_pass_required,omitempty"`
	} `json:"race"`
}

// EligibilityResponse is the response body for POST /eligibility/check.
// Both tiers are echoed so the registration desk can show what was compared.
type EligibilityResponse struct {
	Eligible     bool            `json:"eligible"`
	Reasons      []string        `json:"reasons,omitempty"`
	AthleteTier  string          `json:"athlete_tier,omitempty"`
	RequiredTier string          `json:"required_tier,omitempty"`
	Verification *VerifyResponse `json:"verification"`
}

// HandleEligibility handles POST /eligibility/check. It verifies the
// identifier (hitting the cache when fresh) and applies the race's entry
// rules to the result.
func (h *Handler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[EligibilityRequest](w, r, h.logger)
	if !ok {
		return
	}

	race := models.RaceConfig{
		Code:               req.Race.Code,
		MinimumTier:        models.ParseTier(req.Race.MinimumTier),
		HealthPassRequired: req.Race.HealthPassRequired,
	}
	if req.Race.Date != "" {
		date, err := time.Parse("02/01/2006", req.Race.Date)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "race date must be dd/mm/yyyy"))
			return
		}
		race.Date = date
	}

	outcome, err := h.service.Verify(r.Context(), models.VerificationRequest{
		RelationID:      req.Identifier,
		CompetitionCode: race.Code,
		CompetitionDate: req.Race.Date,
	}, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := EligibilityResponse{Verification: toVerifyResponse(outcome)}
	if outcome.Connected {
		verdict := eligibility.Evaluate(outcome.Athlete, race)
		resp.Eligible = verdict.Eligible
		resp.Reasons = verdict.Reasons
		resp.AthleteTier = verdict.AthleteTier.String()
		resp.RequiredTier = verdict.RequiredTier.String()
	} else {
		resp.Reasons = []string{"verification did not connect: " + outcome.Hint}
	}

	if h.metrics != nil {
		verdict := "ineligible"
		if resp.Eligible {
			verdict = "eligible"
		}
		h.metrics.EligibilityChecksTotal.WithLabelValues(verdict).Inc()
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandlePurge handles DELETE /cache/{identifier}.
func (h *Handler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	relationID := chi.URLParam(r, "identifier")
	if relationID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identifier is required"))
		return
	}

	if err := h.service.Purge(r.Context(), relationID); err != nil {
		h.logger.ErrorContext(r.Context(), "cache purge failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// HandleAuditList handles GET /audit/{identifier}.
func (h *Handler) HandleAuditList(w http.ResponseWriter, r *http.Request) {
	relationID := chi.URLParam(r, "identifier")
	events, err := h.reader.List(r.Context(), relationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func toVerifyResponse(outcome models.VerificationOutcome) *VerifyResponse {
	resp := &VerifyResponse{
		Connected:     outcome.Connected,
		StatusMessage: outcome.StatusMessage,
		ErrorCode:     string(outcome.ErrorCode),
		Hint:          outcome.Hint,
	}
	if !outcome.CheckedAt.IsZero() {
		resp.CheckedAt = outcome.CheckedAt.Format(time.RFC3339)
	}
	if outcome.Athlete != nil {
		a := outcome.Athlete
		resp.Athlete = &AthleteResponse{
			RelationID:     a.RelationID,
			LastName:       a.LastName,
			FirstName:      a.FirstName,
			Sex:            a.Sex,
			BirthDate:      a.BirthDate,
			Nationality:    a.Nationality,
			RelationType:   a.RelationType,
			RelationExpiry: a.RelationExpiry,
			Category:       a.Category,
			Club:           a.Club,
			ClubCode:       a.ClubCode,
			Department:     a.Department,
			League:         a.League,
			Tier:           a.Tier.String(),
			Suspended:      a.Suspended,
			HealthPass:     a.HealthPass,
		}
	}
	return resp
}
