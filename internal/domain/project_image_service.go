package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const DefaultMaxUploadBytes = 10 << 20

type ProjectImageService struct {
	repo     ports.ProjectImageRepository
	storage  ports.ImageStorage
	maxBytes int64
	log      *logger.ZapLogger
}

var _ ports.ProjectImageService = (*ProjectImageService)(nil)

func NewProjectImageService(
	repo ports.ProjectImageRepository,
	storage ports.ImageStorage,
	maxBytes int64,
	log *logger.ZapLogger,
) *ProjectImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ProjectImageService{repo: repo, storage: storage, maxBytes: maxBytes, log: log}
}

func (s *ProjectImageService) List(ctx context.Context, projectID string) ([]models.ProjectImage, error) {
	images, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].PublicURL = s.storage.PublicURL(images[i].ImageURL)
	}
	return images, nil
}

// Upload stores body in the bucket under a random name and appends it to the
// project's gallery. The original file name is kept as alt text.
func (s *ProjectImageService) Upload(ctx context.Context, projectID, fileName string, body []byte) (*models.ProjectImage, error) {
	if len(body) == 0 {
		return nil, ports.ErrEmptyUpload
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ports.ErrImageTooLarge, len(body))
	}

	mt := mimetype.Detect(body)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotAnImage, mt.String())
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = mt.Extension()
	}
	objectName := uuid.NewString() + ext

	if err := s.storage.Upload(ctx, objectName, mt.String(), body); err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectName, err)
	}

	img, err := s.repo.Insert(ctx, projectID, objectName, fileName)
	if err != nil {
		if rmErr := s.storage.Remove(ctx, objectName); rmErr != nil {
			s.log.Log(logger.LogEntry{
				Level:   "error",
				Message: "orphaned project image object",
				Error:   rmErr,
				Fields:  map[string]any{"projectID": projectID, "object": objectName},
			})
		}
		return nil, err
	}
	img.PublicURL = s.storage.PublicURL(objectName)

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "project image uploaded",
		Fields: map[string]any{
			"projectID": projectID,
			"imageID":   img.ID,
			"object":    objectName,
			"bytes":     len(body),
			"featured":  img.IsFeatured,
		},
	})

	return img, nil
}

func (s *ProjectImageService) SetFeatured(ctx context.Context, projectID, imageID string) error {
	if err := s.repo.SetFeatured(ctx, projectID, imageID); err != nil {
		return err
	}
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "featured image changed",
		Fields:  map[string]any{"projectID": projectID, "imageID": imageID},
	})
	return nil
}

func (s *ProjectImageService) Delete(ctx context.Context, projectID, imageID string) error {
	if err := s.repo.Delete(ctx, projectID, imageID); err != nil {
		return err
	}
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "project image deleted",
		Fields:  map[string]any{"projectID": projectID, "imageID": imageID},
	})
	return nil
}
