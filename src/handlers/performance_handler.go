package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/security/validation"
	"github.com/username/strperformance/backend/src/services"
	"github.com/username/strperformance/backend/src/utils"
)

const maxCommentBodyBytes = 16 << 10

type PerformanceHandler struct {
	performanceService services.PerformanceService
}

func NewPerformanceHandler(service services.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performanceService: service}
}

type updateCommentsRequest struct {
	Comments string `json:"comments"`
}

func (h *PerformanceHandler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	log := logger.FromContext(r.Context())

	data, err := h.performanceService.GetPerformance(r.Context(), sessionID)
	if err != nil {
		log.Error("Error retrieving performance data", "error", err)
		utils.SendJSONError(w, "Error retrieving performance data", http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		log.Error("Failed to generate ETag for performance data", "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match for performance data", "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	utils.SendJSON(w, data, http.StatusOK)
}

func (h *PerformanceHandler) HandleGetTotals(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	totals, err := h.performanceService.GetTotals(r.Context(), sessionID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error computing portfolio totals", "error", err)
		utils.SendJSONError(w, "Error computing portfolio totals", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, totals, http.StatusOK)
}

func (h *PerformanceHandler) HandleSearchUnits(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	query := r.URL.Query().Get("q")
	if err := validation.ValidateStringMaxLength(query, validation.DefaultMaxStringLength, "q"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	units, err := h.performanceService.SearchUnits(r.Context(), sessionID, query)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error searching units", "query", query, "error", err)
		utils.SendJSONError(w, "Error searching units", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, units, http.StatusOK)
}

func (h *PerformanceHandler) HandleGetUnitInsights(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	unitID := chi.URLParam(r, "unitID")

	insights, err := h.performanceService.GetUnitInsights(r.Context(), sessionID, unitID)
	if err != nil {
		if errors.Is(err, services.ErrUnitNotFound) {
			utils.SendJSONError(w, "Unit not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Error generating insights", "unitID", unitID, "error", err)
		utils.SendJSONError(w, "Error generating insights", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, insights, http.StatusOK)
}

func (h *PerformanceHandler) HandleUpdateUnitComments(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	unitID := chi.URLParam(r, "unitID")

	var req updateCommentsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxCommentBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	unit, err := h.performanceService.UpdateUnitComments(r.Context(), sessionID, unitID, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnitNotFound):
			utils.SendJSONError(w, "Unit not found", http.StatusNotFound)
		case errors.Is(err, validation.ErrValidationFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromContext(r.Context()).Error("Error updating unit comments", "unitID", unitID, "error", err)
			utils.SendJSONError(w, "Error updating unit comments", http.StatusInternalServerError)
		}
		return
	}
	utils.SendJSON(w, unit, http.StatusOK)
}

// HandleReset discards the session's uploaded figures and returns the seed view.
func (h *PerformanceHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	h.performanceService.ResetSession(sessionID)

	data, err := h.performanceService.GetPerformance(r.Context(), sessionID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error reloading performance data after reset", "error", err)
		utils.SendJSONError(w, "Error retrieving performance data", http.StatusInternalServerError)
		return
	}
	logger.FromContext(r.Context()).Info("Session roster reset to seed")
	utils.SendJSON(w, data, http.StatusOK)
}
