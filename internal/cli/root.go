// Package cli implements the imagectl command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/config"
	"github.com/Vovarama1992/portfolio-admin/internal/domain"
	"github.com/Vovarama1992/portfolio-admin/internal/domain/imagepath"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/spf13/cobra"
)

// Options carries what the commands need from the outside world.
type Options struct {
	Log        *logger.ZapLogger
	LoadConfig func() (*config.Config, error)
	OpenStore  func(ctx context.Context, cfg *config.Config) (ports.RecordStore, func(), error)
}

type normalizeFlags struct {
	collection string
	column     string
	dryRun     bool
	workers    int
	strict     bool
}

// NewRootCmd returns imagectl. Without a subcommand it normalizes the
// configured collection and column.
func NewRootCmd(opts Options) *cobra.Command {
	var f normalizeFlags

	root := &cobra.Command{
		Use:           "imagectl",
		Short:         "Rewrite legacy [prjN]name image paths to prjN-name",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, opts, f, "", "")
		},
	}

	root.Flags().StringVar(&f.collection, "collection", "", "collection to scan (default IMAGE_COLLECTION)")
	root.Flags().StringVar(&f.column, "column", "", "path column (default IMAGE_COLUMN)")
	root.PersistentFlags().BoolVar(&f.dryRun, "dry-run", false, "report changes without writing")
	root.PersistentFlags().IntVar(&f.workers, "workers", 0, "concurrent updates (default NORMALIZE_WORKERS)")
	root.PersistentFlags().BoolVar(&f.strict, "strict", false, "exit non-zero when any record fails")

	root.AddCommand(
		&cobra.Command{
			Use:   "featured",
			Short: "Normalize projects.featured_image_url",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runNormalize(cmd, opts, f, "projects", "featured_image_url")
			},
		},
		newRenameFilesCmd(opts, &f.strict),
	)

	return root
}

func runNormalize(cmd *cobra.Command, opts Options, f normalizeFlags, collection, column string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}

	req := models.NormalizeRequest{
		Collection: firstNonEmpty(collection, f.collection, cfg.ImageCollection),
		Column:     firstNonEmpty(column, f.column, cfg.ImageColumn),
		DryRun:     f.dryRun,
	}
	workers := cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	rewriter, err := imagepath.NewRewriter(cfg.ImagePrefixes...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeStore, err := opts.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := domain.NewNormalizerService(store, rewriter, domain.NormalizerConfig{
		Workers:        workers,
		UpdateTimeout:  cfg.UpdateTimeout,
		EventBuffer:    64,
		BlockingEvents: true,
	}, nil, opts.Log)

	out := cmd.OutOrStdout()
	finished := make(chan struct{})
	printed := printEvents(out, svc.Events(), finished, req.DryRun)

	report, err := svc.NormalizeAll(ctx, req)
	close(finished)
	<-printed
	if err != nil {
		return err
	}

	printSummary(out, report)

	if f.strict {
		if err := report.Err(); err != nil {
			return fmt.Errorf("%d of %d records failed: %w", len(report.Errors), report.Total, err)
		}
	}
	return nil
}

// printEvents prints progress until finished is closed and the buffer is
// drained. It keeps reading for the whole run so blocking delivery never stalls.
func printEvents(out io.Writer, events <-chan ports.NormalizeEvent, finished <-chan struct{}, dryRun bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev := <-events:
				printEvent(out, ev, dryRun)
			case <-finished:
				for {
					select {
					case ev := <-events:
						printEvent(out, ev, dryRun)
					default:
						return
					}
				}
			}
		}
	}()
	return done
}

func printEvent(out io.Writer, ev ports.NormalizeEvent, dryRun bool) {
	switch ev.Kind {
	case ports.EventUpdated:
		verb := "updated"
		if dryRun {
			verb = "would update"
		}
		fmt.Fprintf(out, "%s %s: %s -> %s\n", verb, ev.RecordID, ev.From, ev.To)
	case ports.EventFailed:
		fmt.Fprintf(out, "failed %s: %s\n", ev.RecordID, ev.Error)
	}
}

func printSummary(out io.Writer, r *models.NormalizeReport) {
	fmt.Fprintf(out, "\n%s.%s", r.Collection, r.Column)
	if r.DryRun {
		fmt.Fprint(out, " (dry run)")
	}
	fmt.Fprintf(out, "\n  total:   %d\n  updated: %d\n  skipped: %d\n  errors:  %d\n",
		r.Total, r.Updated, r.Skipped, len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(out, "    - %s: %s\n", e.ID, e.Error)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
