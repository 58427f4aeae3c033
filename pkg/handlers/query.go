package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/services"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	PropertyID string `json:"propertyId"`
	Query      string `json:"query"`
}

// QueryHandler routes free-text questions to the analytics agent, the SEO
// agent, or both with a fused summary.
type QueryHandler struct {
	analytics *services.AnalyticsAgent
	seo       *services.SEOAgent
	llm       llm.LLMClient
	logger    *zap.Logger
}

// NewQueryHandler creates a query handler over the given agents.
func NewQueryHandler(analyticsAgent *services.AnalyticsAgent, seoAgent *services.SEOAgent, llmClient llm.LLMClient, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		analytics: analyticsAgent,
		seo:       seoAgent,
		llm:       llmClient,
		logger:    logger,
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/query", h.Query)
}

// Query handles POST /query requests.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	ctx := r.Context()
	intent := services.Classify(query)

	h.logger.Debug("classified query",
		zap.String("intent", string(intent)),
		zap.Bool("has_property_id", req.PropertyID != ""))

	if (intent == services.IntentAnalyticsOnly || intent == services.IntentMulti) && req.PropertyID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", apperrors.ErrPropertyRequired.Error())
		return
	}

	var payload any
	switch intent {
	case services.IntentSEOOnly:
		payload = h.seo.HandleQuery(ctx, query)
	case services.IntentAnalyticsOnly:
		payload = h.analytics.HandleQuery(ctx, query, req.PropertyID)
	case services.IntentMulti:
		ga := h.analytics.StructuredQuery(ctx, query, req.PropertyID)
		seo := h.seo.HandleQuery(ctx, query)
		payload = map[string]any{
			"query":  query,
			"ga4":    ga,
			"seo":    seo,
			"fusion": services.Fuse(ctx, h.llm, query, ga, seo),
		}
	default:
		// Unknown intent: try analytics when a property is given, else SEO.
		if req.PropertyID != "" {
			payload = h.analytics.HandleQuery(ctx, query, req.PropertyID)
		} else {
			payload = h.seo.HandleQuery(ctx, query)
		}
	}

	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}
