package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/domain/imagepath"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// FileRenamer renames legacy "[prj<n>]name.ext" files of a local folder,
// typically a download of the storage bucket, to the canonical names.
type FileRenamer struct {
	rewriter   *imagepath.Rewriter
	imagesOnly bool
	log        *logger.ZapLogger
}

func NewFileRenamer(rewriter *imagepath.Rewriter, imagesOnly bool, log *logger.ZapLogger) *FileRenamer {
	return &FileRenamer{rewriter: rewriter, imagesOnly: imagesOnly, log: log}
}

// RenameDir renames matching regular files in dir (not recursive). A target
// that already exists is never overwritten.
func (r *FileRenamer) RenameDir(dir string) (*models.RenameReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	report := &models.RenameReport{
		Dir:     dir,
		Renamed: make(map[string]string),
		Skipped: []string{},
		Errors:  []models.RecordError{},
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		newName := r.rewriter.Rewrite(name)
		if newName == name || strings.ContainsRune(newName, filepath.Separator) {
			continue
		}

		oldPath := filepath.Join(dir, name)
		newPath := filepath.Join(dir, newName)

		if r.imagesOnly {
			mt, err := mimetype.DetectFile(oldPath)
			if err != nil {
				report.Errors = append(report.Errors, models.RecordError{ID: name, Error: err.Error()})
				continue
			}
			if !strings.HasPrefix(mt.String(), "image/") {
				continue
			}
		}

		if _, err := os.Lstat(newPath); err == nil {
			report.Skipped = append(report.Skipped, name)
			r.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "rename skipped, target exists",
				Fields:  map[string]any{"file": name, "target": newName},
			})
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			report.Errors = append(report.Errors, models.RecordError{ID: name, Error: err.Error()})
			continue
		}

		if err := os.Rename(oldPath, newPath); err != nil {
			report.Errors = append(report.Errors, models.RecordError{ID: name, Error: err.Error()})
			r.log.Log(logger.LogEntry{
				Level:   "error",
				Message: "rename failed",
				Error:   err,
				Fields:  map[string]any{"file": name},
			})
			continue
		}

		report.Renamed[name] = newName
		r.log.Log(logger.LogEntry{
			Level:   "info",
			Message: "file renamed",
			Fields:  map[string]any{"from": name, "to": newName},
		})
	}

	return report, nil
}
