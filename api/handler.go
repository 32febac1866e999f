package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"competitor-radar/metrics"
	"competitor-radar/models"
	"competitor-radar/services"
	"competitor-radar/storage"
	"competitor-radar/utils"
)

// ProposalGenerator runs the opportunity analysis.
type ProposalGenerator interface {
	AnalyzeCategory(ctx context.Context, categoryID string) (*models.Proposal, error)
	RunGlobalAnalysis(ctx context.Context) ([]services.AnalysisOutcome, error)
}

// AlertLister reads recent change alerts.
type AlertLister interface {
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// Handler serves the HTTP API.
type Handler struct {
	extractor services.ProductExtractor
	analyzer  ProposalGenerator
	proposals storage.ProposalStore
	alerts    AlertLister
	metrics   *metrics.Metrics
	logger    *utils.Logger
}

// Deps are the collaborators a Handler needs. Metrics may be nil.
type Deps struct {
	Extractor services.ProductExtractor
	Analyzer  ProposalGenerator
	Proposals storage.ProposalStore
	Alerts    AlertLister
	Metrics   *metrics.Metrics
	Logger    *utils.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		extractor: d.Extractor,
		analyzer:  d.Analyzer,
		proposals: d.Proposals,
		alerts:    d.Alerts,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
}

type extractRequest struct {
	URL string `json:"url"`
}

type generateRequest struct {
	CategoryID string `json:"categoryId"`
}

type analysisOutcomeDTO struct {
	CategoryID  string  `json:"categoryId"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	ProposalID  string  `json:"proposalId,omitempty"`
	ProductName string  `json:"productName,omitempty"`
	Archetype   string  `json:"archetype,omitempty"`
	TargetPrice float64 `json:"targetPrice,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// extract is the connection test: it runs one extraction and returns the
// result as-is. A failed extraction is still a 200; its kind says why.
func (h *Handler) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), middleware.GetReqID(r.Context()))
		return
	}
	url := strings.TrimSpace(req.URL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		writeError(w, http.StatusBadRequest, "invalid_input", "url must be an absolute http(s) URL", middleware.GetReqID(r.Context()))
		return
	}

	res := h.extractor.Extract(r.Context(), url)
	writeSuccess(w, http.StatusOK, "", res)
}

// generateProposals analyzes one category when categoryId is given, otherwise
// every category.
func (h *Handler) generateProposals(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), middleware.GetReqID(r.Context()))
		return
	}

	if id := strings.TrimSpace(req.CategoryID); id != "" {
		p, err := h.analyzer.AnalyzeCategory(r.Context(), id)
		if err != nil {
			status, code := mapDomainError(err)
			writeError(w, status, code, err.Error(), middleware.GetReqID(r.Context()))
			return
		}
		writeSuccess(w, http.StatusCreated, "", p)
		return
	}

	outcomes, err := h.analyzer.RunGlobalAnalysis(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), middleware.GetReqID(r.Context()))
		return
	}
	resp := make([]analysisOutcomeDTO, 0, len(outcomes))
	for _, o := range outcomes {
		resp = append(resp, analysisOutcomeDTO{
			CategoryID:  o.CategoryID,
			Category:    o.Category,
			Status:      o.Status,
			ProposalID:  o.ProposalID,
			ProductName: o.ProductName,
			Archetype:   string(o.Archetype),
			TargetPrice: o.TargetPrice,
			Error:       o.Err,
		})
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (h *Handler) listProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.proposals.ListProposals(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), middleware.GetReqID(r.Context()))
		return
	}
	if proposals == nil {
		proposals = []models.Proposal{}
	}
	writeSuccess(w, http.StatusOK, "", proposals)
}

func (h *Handler) deleteProposal(w http.ResponseWriter, r *http.Request) {
	if err := h.proposals.DeleteProposal(r.Context(), chi.URLParam(r, "id")); err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), middleware.GetReqID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer", middleware.GetReqID(r.Context()))
			return
		}
		limit = n
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), middleware.GetReqID(r.Context()))
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeSuccess(w, http.StatusOK, "", alerts)
}
