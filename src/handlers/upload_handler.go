package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/security/validation"
	"github.com/username/strperformance/backend/src/services"
	"github.com/username/strperformance/backend/src/utils"
)

type UploadHandler struct {
	performanceService services.PerformanceService
	maxUploadSizeBytes int64
}

func NewUploadHandler(service services.PerformanceService, maxUploadSizeBytes int64) *UploadHandler {
	return &UploadHandler{
		performanceService: service,
		maxUploadSizeBytes: maxUploadSizeBytes,
	}
}

// HandleUpload ingests a booking export sent as the multipart field "file".
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	log := logger.FromContext(r.Context())
	limitMB := h.maxUploadSizeBytes / (1024 * 1024)

	// Multipart framing needs headroom above the file limit itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSizeBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file is too large (max %d MB)", limitMB), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSizeBytes {
		log.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", limitMB), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateCSVContent(file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing booking export", "filename", fileHeader.Filename, "size", fileHeader.Size,
		"clientType", clientContentType, "detectedType", detectedContentType)

	outcome, err := h.performanceService.IngestBookings(r.Context(), sessionID, file)
	if err != nil {
		if errors.Is(err, services.ErrIngestionRejected) && outcome != nil {
			utils.SendJSON(w, outcome, http.StatusUnprocessableEntity)
			return
		}
		log.Error("Error ingesting booking export", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Error processing booking export", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, outcome, http.StatusOK)
}
