package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/portfolio-admin/internal/models"
)

var (
	ErrInvalidTarget    = errors.New("collection and column are required")
	ErrTargetNotAllowed = errors.New("normalize target not allowed")
	ErrRunInProgress    = errors.New("normalization already running")
)

// FetchError means the initial read failed and no record was touched.
type FetchError struct {
	Collection string
	Column     string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s.%s: %v", e.Collection, e.Column, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type NormalizeEventKind string

const (
	EventUpdated NormalizeEventKind = "updated"
	EventFailed  NormalizeEventKind = "failed"
	EventDone    NormalizeEventKind = "done"
)

type NormalizeEvent struct {
	Kind       NormalizeEventKind
	Collection string
	Column     string
	RecordID   string
	From       string
	To         string
	Error      string
	Report     *models.NormalizeReport // set on EventDone
}

type ImageNormalizer interface {
	NormalizeAll(ctx context.Context, req models.NormalizeRequest) (*models.NormalizeReport, error)
	Events() <-chan NormalizeEvent
}
