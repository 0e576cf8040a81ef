package ports

import (
	"context"
	"errors"

	"github.com/Vovarama1992/portfolio-admin/internal/models"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrNotAnImage    = errors.New("file is not an image")
	ErrImageTooLarge = errors.New("image exceeds upload limit")
	ErrEmptyUpload   = errors.New("empty upload")
)

type ProjectImageRepository interface {
	ListByProject(ctx context.Context, projectID string) ([]models.ProjectImage, error)
	// Insert appends the image to the project; the first image of a project becomes featured.
	Insert(ctx context.Context, projectID, objectName, altText string) (*models.ProjectImage, error)
	SetFeatured(ctx context.Context, projectID, imageID string) error
	Delete(ctx context.Context, projectID, imageID string) error
}

type ImageStorage interface {
	Upload(ctx context.Context, objectName, contentType string, body []byte) error
	Remove(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
}

type ProjectImageService interface {
	List(ctx context.Context, projectID string) ([]models.ProjectImage, error)
	Upload(ctx context.Context, projectID, fileName string, body []byte) (*models.ProjectImage, error)
	SetFeatured(ctx context.Context, projectID, imageID string) error
	Delete(ctx context.Context, projectID, imageID string) error
}
