package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/history"
	"github.com/Ning0612/jutil/internal/local"
	"github.com/Ning0612/jutil/internal/lock"
	"github.com/Ning0612/jutil/internal/logger"
	"github.com/Ning0612/jutil/internal/mirror"
	"github.com/Ning0612/jutil/internal/progress"
	"github.com/Ning0612/jutil/internal/remote"
	"github.com/Ning0612/jutil/internal/remote/gdrive"
	"github.com/Ning0612/jutil/internal/remote/memstore"
)

var (
	destName   string
	uploadPath []string
	dryRun     bool
	noProgress bool

	uploadCmd = &cobra.Command{
		Use:   "upload [path...]",
		Short: "Mirror local files and directories into a Drive folder",
		Long: `Upload ensures a folder named by --dest-dir-name exists at the root of
Google Drive and mirrors every given path into it. Directories are recreated
as folders; files are uploaded alongside. Existing folders are reused, files
are always uploaded again.`,
		RunE: runUpload,
	}
)

func init() {
	uploadCmd.Flags().StringVarP(&destName, "dest-dir-name", "n", "", "destination folder under the Drive root")
	uploadCmd.Flags().StringArrayVarP(&uploadPath, "paths", "p", nil, "file or directory to upload (repeatable, taken verbatim)")
	uploadCmd.Flags().BoolVar(&dryRun, "dry-run", false, "mirror into an in-memory store and print the resulting tree")
	uploadCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress display")
	_ = uploadCmd.MarkFlagRequired("dest-dir-name")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	paths := append(append([]string(nil), uploadPath...), args...)
	if len(paths) == 0 {
		return fmt.Errorf("at least one path is required (-p or positional)")
	}

	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	renderer := progress.NewRenderer(os.Stderr, interactive)
	log, err := initLogger(renderer.Writer(os.Stderr))
	if err != nil {
		return err
	}
	log = log.With("component", "upload", "dest", destName)

	var reporter progress.Reporter = progress.NullReporter{}
	if !noProgress && !quiet {
		reporter = progress.NewCallbackReporter(renderer.Handle)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fl, err := lock.NewFileLock(cfg.LockPath())
	if err != nil {
		return err
	}
	if err := fl.Acquire(destName); err != nil {
		if errors.Is(err, domain.ErrUploadInProgress) {
			log.Error("another upload is running", "lock", fl.Path(), "error", err)
		}
		return err
	}
	defer func() {
		if err := fl.Release(); err != nil {
			log.Warn("failed to release lock", "path", fl.Path(), "error", err)
		}
	}()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.NewRun(destName, paths)
	run.DryRun = dryRun

	m := mirror.New(store, local.New(), reporter, log)
	stats, runErr := m.Run(ctx, destName, paths)
	run.Finish(stats, runErr)

	recordRun(ctx, log, run)
	logStats(log, run)

	if mem, ok := store.(*memstore.Store); ok {
		fmt.Print(mem.Tree())
	}

	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("upload interrupted: %w", runErr)
	}
	return runErr
}

func openStore(ctx context.Context) (remote.Store, error) {
	if dryRun {
		return memstore.New(), nil
	}
	if err := cfg.RequireGDrive(); err != nil {
		return nil, err
	}
	return gdrive.New(ctx, gdrive.Options{
		ClientID:     cfg.GDrive.ClientID,
		ClientSecret: cfg.GDrive.ClientSecret,
		TokenPath:    cfg.GDrive.TokenPath,
	})
}

// recordRun stores the run in the history ledger. The ledger is an
// add-on, so failures are logged and do not fail the upload.
func recordRun(ctx context.Context, log logger.Logger, run history.Run) {
	ledger, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Warn("history unavailable", "error", err)
		return
	}
	defer ledger.Close()

	// the run context may already be cancelled
	if err := ledger.Record(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record run", "id", run.ID, "error", err)
	}
}

func logStats(log logger.Logger, run history.Run) {
	s := run.Stats
	args := []any{
		"id", run.ID,
		"status", run.Status,
		"files", s.FilesUploaded,
		"bytes", humanize.IBytes(uint64(s.BytesUploaded)),
		"folders_created", s.FoldersCreated,
		"folders_reused", s.FoldersReused,
		"duration", run.Duration().Round(time.Millisecond).String(),
	}
	if s.SkippedCycles > 0 {
		args = append(args, "skipped_cycles", s.SkippedCycles)
	}

	if run.Status == history.StatusSuccess {
		log.Info("upload finished", args...)
		return
	}
	log.Error("upload stopped", append(args, "error", run.Error)...)
}
