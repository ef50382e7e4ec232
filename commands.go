package main

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/mintyvpk/internal/archive"
)

var infoCmd = &cobra.Command{
	Use:   "info <archive_dir.vpk>",
	Short: "Print the header of a VPK directory file",
	Args:  cobra.ExactArgs(1),
	RunE:  info,
}

var listCmd = &cobra.Command{
	Use:   "list <archive_dir.vpk>",
	Short: "List the files in a VPK archive",
	Args:  cobra.ExactArgs(1),
	RunE:  list,
}

var extractCmd = &cobra.Command{
	Use:   "extract <archive_dir.vpk>",
	Short: "Extract every file of a VPK archive",
	Args:  cobra.ExactArgs(1),
	RunE:  extract,
}

var createCmd = &cobra.Command{
	Use:   "create <source_dir>",
	Short: "Create a version 1 VPK archive from a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  create,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <archive_dir.vpk>",
	Short: "Check the checksum of every file in a VPK archive",
	Args:  cobra.ExactArgs(1),
	RunE:  verify,
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "directory to extract to (required)")
	extractCmd.Flags().Bool("dry-run", false, "verify the archive without writing files")
	extractCmd.MarkFlagRequired("output")

	createCmd.Flags().StringP("output", "o", "", "path of the directory file to write, e.g. pak01_dir.vpk (required)")
	createCmd.Flags().Uint32("format-version", 1, "VPK format version to write (only 1 is supported)")
	createCmd.Flags().Bool("dry-run", false, "lay out the archive without writing it")
	createCmd.MarkFlagRequired("output")

	verifyCmd.Flags().Int("workers", runtime.NumCPU(), "number of files checked concurrently")
}

// osFs is the storage every command works against.
var osFs = afero.NewOsFs()

func loadArchive() (*archive.Loaded, error) {
	a := archive.New(osFs, cfg.Input)
	if !a.IsValid() {
		return nil, fmt.Errorf("%s is not a VPK directory file", cfg.Input)
	}
	return a.Load()
}

func info(cmd *cobra.Command, args []string) error {
	l, err := loadArchive()
	if err != nil {
		return err
	}

	h := l.Header()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "path\t%s\n", l.Path())
	fmt.Fprintf(w, "signature\t0x%08X\n", h.Signature)
	fmt.Fprintf(w, "version\t%d\n", h.Version)
	fmt.Fprintf(w, "tree length\t%d\n", h.TreeLength)
	if h.Version == 2 {
		fmt.Fprintf(w, "footer length\t%d\n", h.FooterLength)
	}
	fmt.Fprintf(w, "files\t%d\n", len(l.Files()))
	return w.Flush()
}

func list(cmd *cobra.Command, args []string) error {
	l, err := loadArchive()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, path := range l.Files() {
		e, _ := l.Entry(path)
		location := "dir"
		if !e.InDirectory() {
			location = fmt.Sprintf("%03d", e.ArchiveIndex)
		}
		fmt.Fprintf(w, "%d\t%s\t\t%s\n", e.Size(), location, path)
	}
	return w.Flush()
}

func extract(cmd *cobra.Command, args []string) error {
	l, err := loadArchive()
	if err != nil {
		return err
	}

	if cfg.DryRun {
		return verifyLoaded(cmd, l, 1)
	}

	if err := l.Extract(cmd.Context(), cfg.Output); err != nil {
		var extractErr *archive.ExtractError
		if errors.As(err, &extractErr) {
			for _, e := range extractErr.Errs {
				slog.Error("could not write file", "error", e)
			}
		}
		return err
	}
	return nil
}

func create(cmd *cobra.Command, args []string) error {
	w := archive.NewWriter(osFs, cfg.Input)
	if !w.IsValid() {
		return fmt.Errorf("%s: %w", cfg.Input, archive.ErrNotDirectory)
	}

	version := cfg.FormatVersion
	if version == 0 {
		version = 1
	}

	layout, err := w.Load(version)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d files, tree %d bytes, data %d bytes\n",
			len(layout.Records()), layout.Header().TreeLength, layout.DataLength())
		return nil
	}

	if exists, _ := afero.Exists(osFs, cfg.Output); exists {
		slog.Warn("overwriting existing archive", "output", cfg.Output)
	}
	return layout.Save(cfg.Output)
}

func verify(cmd *cobra.Command, args []string) error {
	l, err := loadArchive()
	if err != nil {
		return err
	}
	return verifyLoaded(cmd, l, cfg.Workers)
}

func verifyLoaded(cmd *cobra.Command, l *archive.Loaded, workers int) error {
	report, err := l.Verify(cmd.Context(), workers)
	if err != nil {
		return err
	}

	for _, path := range report.FailedPaths() {
		slog.Error("file failed verification", "path", path, "error", report.Failed[path])
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d files failed verification", len(report.Failed), report.Checked)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d files OK\n", report.Checked)
	return nil
}
