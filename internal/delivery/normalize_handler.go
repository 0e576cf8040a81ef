package delivery

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
)

const maxNormalizeBody = 4 << 10

type NormalizeHandler struct {
	normalizer ports.ImageNormalizer
	defaults   models.NormalizeRequest
	log        *logger.ZapLogger
}

func NewNormalizeHandler(
	normalizer ports.ImageNormalizer,
	collection, column string,
	log *logger.ZapLogger,
) *NormalizeHandler {
	return &NormalizeHandler{
		normalizer: normalizer,
		defaults:   models.NormalizeRequest{Collection: collection, Column: column},
		log:        log,
	}
}

type normalizeResponse struct {
	Success      bool                 `json:"success"`
	TotalImages  int                  `json:"totalImages"`
	UpdatedCount int                  `json:"updatedCount"`
	SkippedCount int                  `json:"skippedCount"`
	DryRun       bool                 `json:"dryRun"`
	Errors       []models.RecordError `json:"errors,omitempty"`
}

// POST /api/admin/update-image-urls
//
// The body is optional. Missing collection or column fall back to the configured target.
func (h *NormalizeHandler) UpdateImageURLs(w http.ResponseWriter, r *http.Request) {
	var body models.NormalizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxNormalizeBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	req := h.defaults
	if body.Collection != "" {
		req.Collection = body.Collection
	}
	if body.Column != "" {
		req.Column = body.Column
	}
	req.DryRun = body.DryRun

	report, err := h.normalizer.NormalizeAll(r.Context(), req)
	if err != nil {
		h.writeNormalizeError(w, req, err)
		return
	}

	writeJSON(w, http.StatusOK, normalizeResponse{
		Success:      true,
		TotalImages:  report.Total,
		UpdatedCount: report.Updated,
		SkippedCount: report.Skipped,
		DryRun:       report.DryRun,
		Errors:       report.Errors,
	})
}

func (h *NormalizeHandler) writeNormalizeError(w http.ResponseWriter, req models.NormalizeRequest, err error) {
	var fe *ports.FetchError
	switch {
	case errors.As(err, &fe):
		writeError(w, http.StatusInternalServerError, "Failed to fetch images", fe.Err.Error())
	case errors.Is(err, ports.ErrInvalidTarget), errors.Is(err, ports.ErrTargetNotAllowed):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ports.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error(), "")
	default:
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "image normalize request failed",
			Error:   err,
			Fields:  map[string]any{"target": req.Target()},
		})
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred", err.Error())
	}
}
