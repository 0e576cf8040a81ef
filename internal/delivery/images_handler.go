package delivery

import (
	"errors"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/go-chi/chi/v5"
)

// multipart framing on top of the file itself
const multipartOverhead = 64 << 10

type ImagesHandler struct {
	images   ports.ProjectImageService
	maxBytes int64
	log      *logger.ZapLogger
}

func NewImagesHandler(images ports.ProjectImageService, maxBytes int64, log *logger.ZapLogger) *ImagesHandler {
	return &ImagesHandler{images: images, maxBytes: maxBytes, log: log}
}

// GET /api/projects/{id}/images
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	images, err := h.images.List(r.Context(), projectID)
	if err != nil {
		h.fail(w, "list project images", projectID, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// POST /api/projects/{id}/images  (multipart, field "file")
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, ports.ErrImageTooLarge.Error(), "")
			return
		}
		writeError(w, http.StatusBadRequest, "file field required", err.Error())
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload", err.Error())
		return
	}

	img, err := h.images.Upload(r.Context(), projectID, header.Filename, body)
	if err != nil {
		h.fail(w, "upload project image", projectID, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// PUT /api/projects/{id}/images/{imageID}/featured
func (h *ImagesHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	imageID := chi.URLParam(r, "imageID")

	if err := h.images.SetFeatured(r.Context(), projectID, imageID); err != nil {
		h.fail(w, "set featured image", projectID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/projects/{id}/images/{imageID}
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	imageID := chi.URLParam(r, "imageID")

	if err := h.images.Delete(r.Context(), projectID, imageID); err != nil {
		h.fail(w, "delete project image", projectID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImagesHandler) fail(w http.ResponseWriter, op, projectID string, err error) {
	switch {
	case errors.Is(err, ports.ErrImageNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, ports.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error(), "")
	case errors.Is(err, ports.ErrNotAnImage), errors.Is(err, ports.ErrEmptyUpload):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	default:
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: op + " failed",
			Error:   err,
			Fields:  map[string]any{"projectID": projectID},
		})
		writeError(w, http.StatusInternalServerError, op+" failed", "")
	}
}
