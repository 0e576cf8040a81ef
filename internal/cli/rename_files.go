package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Vovarama1992/portfolio-admin/internal/domain"
	"github.com/Vovarama1992/portfolio-admin/internal/domain/imagepath"
	"github.com/spf13/cobra"
)

func defaultImageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "project_images"
	}
	return filepath.Join(home, "Downloads", "project_images")
}

func newRenameFilesCmd(opts Options, strict *bool) *cobra.Command {
	var imagesOnly bool

	cmd := &cobra.Command{
		Use:   "rename-files [dir]",
		Short: "Rename legacy [prjN]name files in a local folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := defaultImageDir()
			if len(args) == 1 {
				dir = args[0]
			}

			renamer := domain.NewFileRenamer(imagepath.MustRewriter(imagepath.DefaultPrefixes...), imagesOnly, opts.Log)
			report, err := renamer.RenameDir(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			olds := make([]string, 0, len(report.Renamed))
			for old := range report.Renamed {
				olds = append(olds, old)
			}
			sort.Strings(olds)
			for _, old := range olds {
				fmt.Fprintf(out, "renamed %s -> %s\n", old, report.Renamed[old])
			}
			for _, s := range report.Skipped {
				fmt.Fprintf(out, "skipped %s\n", s)
			}
			for _, e := range report.Errors {
				fmt.Fprintf(out, "failed %s: %s\n", e.ID, e.Error)
			}
			fmt.Fprintf(out, "\n%s: %d renamed, %d skipped, %d errors\n",
				report.Dir, len(report.Renamed), len(report.Skipped), len(report.Errors))

			if *strict && len(report.Errors) > 0 {
				return fmt.Errorf("%d files failed to rename", len(report.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&imagesOnly, "images-only", false, "only rename files whose content is an image")
	return cmd
}
