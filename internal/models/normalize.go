package models

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// NormalizeRequest names the collection and path column a run works on.
type NormalizeRequest struct {
	Collection string `json:"collection"`
	Column     string `json:"column"`
	DryRun     bool   `json:"dryRun"`
}

// Target returns the "collection.column" form used by allow-lists.
func (r NormalizeRequest) Target() string {
	return r.Collection + "." + r.Column
}

type RecordError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// NormalizeReport is the outcome of one batch run.
type NormalizeReport struct {
	Collection string        `json:"collection"`
	Column     string        `json:"column"`
	Total      int           `json:"totalImages"`
	Updated    int           `json:"updatedCount"`
	Skipped    int           `json:"skippedCount"`
	DryRun     bool          `json:"dryRun"`
	Errors     []RecordError `json:"errors"`
	Duration   time.Duration `json:"-"`
}

// Err combines the per-record failures into one error, nil when there are none.
func (r *NormalizeReport) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, fmt.Errorf("record %s: %s", e.ID, e.Error))
	}
	return err
}

// RenameReport is the outcome of renaming legacy files in a local directory.
type RenameReport struct {
	Dir     string            `json:"dir"`
	Renamed map[string]string `json:"renamed"` // old name -> new name
	Skipped []string          `json:"skipped"`
	Errors  []RecordError     `json:"errors"`
}
