package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/domain/imagepath"
	"github.com/Vovarama1992/portfolio-admin/internal/metrics"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"golang.org/x/sync/errgroup"
)

type NormalizerConfig struct {
	Workers       int
	UpdateTimeout time.Duration
	// AllowedTargets lists "collection.column" pairs a run may touch. Empty allows any.
	AllowedTargets []string
	EventBuffer    int
	// BlockingEvents makes the run wait for a reader instead of dropping
	// events on a full buffer. Set it only when something always drains Events().
	BlockingEvents bool
}

type NormalizerService struct {
	store    ports.RecordStore
	rewriter *imagepath.Rewriter
	metrics  *metrics.NormalizerMetrics
	log      *logger.ZapLogger

	workers       int
	updateTimeout time.Duration
	allowed       map[string]bool
	blocking      bool

	running sync.Mutex
	events  chan ports.NormalizeEvent
}

var _ ports.ImageNormalizer = (*NormalizerService)(nil)

func NewNormalizerService(
	store ports.RecordStore,
	rewriter *imagepath.Rewriter,
	cfg NormalizerConfig,
	m *metrics.NormalizerMetrics,
	log *logger.ZapLogger,
) *NormalizerService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = 256
	}

	var allowed map[string]bool
	if len(cfg.AllowedTargets) > 0 {
		allowed = make(map[string]bool, len(cfg.AllowedTargets))
		for _, t := range cfg.AllowedTargets {
			allowed[t] = true
		}
	}

	return &NormalizerService{
		store:         store,
		rewriter:      rewriter,
		metrics:       m,
		log:           log,
		workers:       workers,
		updateTimeout: cfg.UpdateTimeout,
		allowed:       allowed,
		blocking:      cfg.BlockingEvents,
		events:        make(chan ports.NormalizeEvent, buf),
	}
}

// Events streams progress of every run. Unless BlockingEvents is set, slow
// readers miss events and the batch never waits.
func (s *NormalizerService) Events() <-chan ports.NormalizeEvent { return s.events }

type recordOutcome struct {
	changed bool
	err     error
}

// NormalizeAll rewrites every legacy path of req.Column in req.Collection.
//
// A failed fetch aborts the run with a *FetchError before any write. A failed
// update is recorded in the report and the batch goes on.
func (s *NormalizerService) NormalizeAll(ctx context.Context, req models.NormalizeRequest) (*models.NormalizeReport, error) {
	if req.Collection == "" || req.Column == "" {
		return nil, ports.ErrInvalidTarget
	}
	if s.allowed != nil && !s.allowed[req.Target()] {
		return nil, fmt.Errorf("%w: %s", ports.ErrTargetNotAllowed, req.Target())
	}
	if !s.running.TryLock() {
		return nil, ports.ErrRunInProgress
	}
	defer s.running.Unlock()

	start := time.Now()

	records, err := s.store.SelectWhereNotNull(ctx, req.Collection, req.Column)
	if err != nil {
		fe := &ports.FetchError{Collection: req.Collection, Column: req.Column, Err: err}
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "image normalize fetch failed",
			Error:   fe,
			Fields:  map[string]any{"collection": req.Collection, "column": req.Column},
		})
		s.metrics.ObserveRun(req.Collection, "failed", 0, 0, 0, time.Since(start))
		return nil, fe
	}

	outcomes := make([]recordOutcome, len(records))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, rec := range records {
		if rec.Path == nil {
			continue
		}
		from := *rec.Path
		to := s.rewriter.Rewrite(from)
		if to == from {
			continue
		}
		outcomes[i].changed = true

		if req.DryRun {
			s.logChange(ctx, req, rec.ID, from, to, true)
			continue
		}

		g.Go(func() error {
			err := s.update(ctx, req, rec.ID, to)
			outcomes[i].err = err
			if err != nil {
				s.logFailure(ctx, req, rec.ID, from, to, err)
				return nil
			}
			s.logChange(ctx, req, rec.ID, from, to, false)
			return nil
		})
	}
	_ = g.Wait()

	report := &models.NormalizeReport{
		Collection: req.Collection,
		Column:     req.Column,
		Total:      len(records),
		DryRun:     req.DryRun,
		Errors:     []models.RecordError{},
	}
	for i, o := range outcomes {
		switch {
		case !o.changed:
			report.Skipped++
		case o.err != nil:
			report.Errors = append(report.Errors, models.RecordError{
				ID:    records[i].ID,
				Error: o.err.Error(),
			})
		default:
			report.Updated++
		}
	}
	report.Duration = time.Since(start)

	outcome := "ok"
	if len(report.Errors) > 0 {
		outcome = "partial"
	}
	s.metrics.ObserveRun(req.Collection, outcome, report.Total, report.Updated, len(report.Errors), report.Duration)

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "image normalize complete",
		Fields: map[string]any{
			"collection": req.Collection,
			"column":     req.Column,
			"total":      report.Total,
			"updated":    report.Updated,
			"skipped":    report.Skipped,
			"errors":     len(report.Errors),
			"dryRun":     req.DryRun,
			"took":       report.Duration.String(),
		},
	})

	s.emit(ctx, ports.NormalizeEvent{
		Kind:       ports.EventDone,
		Collection: req.Collection,
		Column:     req.Column,
		Report:     report,
	})

	return report, nil
}

func (s *NormalizerService) update(ctx context.Context, req models.NormalizeRequest, id, value string) error {
	if s.updateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.updateTimeout)
		defer cancel()
	}
	return s.store.UpdateByID(ctx, req.Collection, id, req.Column, value)
}

func (s *NormalizerService) logChange(ctx context.Context, req models.NormalizeRequest, id, from, to string, dryRun bool) {
	msg := "image path updated"
	if dryRun {
		msg = "image path would be updated"
	}
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: msg,
		Fields: map[string]any{
			"collection": req.Collection,
			"id":         id,
			"from":       from,
			"to":         to,
		},
	})
	s.emit(ctx, ports.NormalizeEvent{
		Kind:       ports.EventUpdated,
		Collection: req.Collection,
		Column:     req.Column,
		RecordID:   id,
		From:       from,
		To:         to,
	})
}

func (s *NormalizerService) logFailure(ctx context.Context, req models.NormalizeRequest, id, from, to string, err error) {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: "image path update failed",
		Error:   err,
		Fields: map[string]any{
			"collection": req.Collection,
			"id":         id,
			"from":       from,
			"to":         to,
		},
	})
	s.emit(ctx, ports.NormalizeEvent{
		Kind:       ports.EventFailed,
		Collection: req.Collection,
		Column:     req.Column,
		RecordID:   id,
		From:       from,
		To:         to,
		Error:      err.Error(),
	})
}

func (s *NormalizerService) emit(ctx context.Context, ev ports.NormalizeEvent) {
	if s.blocking {
		select {
		case s.events <- ev:
		case <-ctx.Done():
		}
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
