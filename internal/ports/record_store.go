package ports

import (
	"context"
	"errors"

	"github.com/Vovarama1992/portfolio-admin/internal/models"
)

// ErrRecordNotFound is returned by UpdateByID when no record carries the identifier.
var ErrRecordNotFound = errors.New("record not found")

type RecordStore interface {
	SelectWhereNotNull(ctx context.Context, collection, field string) ([]models.ImageRecord, error)
	UpdateByID(ctx context.Context, collection, id, field, value string) error
}
