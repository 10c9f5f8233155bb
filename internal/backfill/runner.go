package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/oracle/internal/ingest"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

// Config holds the backfill command configuration.
type Config struct {
	Dir        string    // directory to scan for transcripts and chat exports
	Since      time.Time // skip sources dated before this
	Until      time.Time // skip sources dated after this
	DryRun     bool      // parse and segment, but write nothing
	SingleFile string    // process a single file only
	SourceType string    // source type label (default: "meeting")
	StatePath  string    // override the state file location

	Segment segment.Config // segmentation bounds for dry runs
}

// Runner walks a directory of transcript files and feeds each one through the
// ingestion pipeline, with resumable progress tracking.
type Runner struct {
	cfg    Config
	proc   *ingest.Processor
	logger *slog.Logger
}

func NewRunner(cfg Config, proc *ingest.Processor, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, proc: proc, logger: logger}
}

func (r *Runner) sourceType() string {
	if r.cfg.SourceType != "" {
		return r.cfg.SourceType
	}
	return "meeting"
}

// Run executes the backfill.
func (r *Runner) Run(ctx context.Context) error {
	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "count", len(files))

	var pending []string
	for _, path := range files {
		if state.IsProcessed(path) {
			continue
		}
		date := fileDate(path)
		if !r.cfg.Since.IsZero() && date.Before(r.cfg.Since) {
			continue
		}
		if !r.cfg.Until.IsZero() && date.After(r.cfg.Until) {
			continue
		}
		pending = append(pending, path)
	}
	state.FilesRemaining = len(pending)

	for i, path := range pending {
		select {
		case <-ctx.Done():
			if serr := state.Save(); serr != nil {
				r.logger.Warn("failed to save state", "error", serr)
			}
			return ctx.Err()
		default:
		}

		if err := r.processFile(ctx, path, state); err != nil {
			r.logger.Warn("file failed", "path", path, "error", err)
			state.AddError(fmt.Sprintf("%s: %v", path, err))
		}
		state.MarkProcessed(path)
		state.FilesRemaining = len(pending) - i - 1

		if !r.cfg.DryRun {
			if err := state.Save(); err != nil {
				r.logger.Warn("failed to save state", "error", err)
			}
		}
	}

	r.logger.Info("backfill complete",
		"files", len(pending),
		"chunks", state.ChunksCreated,
		"skipped", state.SourcesSkipped,
		"errors", len(state.Errors),
	)
	return nil
}

func (r *Runner) processFile(ctx context.Context, path string, state *State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	date := fileDate(path)
	var utts []turns.Utterance
	if strings.HasSuffix(path, ".jsonl") {
		utts, err = turns.ParseChatJSONL(strings.NewReader(string(data)))
		if err != nil {
			return fmt.Errorf("parse chat jsonl: %w", err)
		}
	} else {
		utts = turns.ParseTranscript(string(data), date)
	}
	if len(utts) == 0 {
		state.SourcesSkipped++
		return nil
	}

	meta := segment.SourceMeta{
		// Derived from the path so reruns target the same source row.
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("oracle-backfill:"+path)),
		Type:  r.sourceType(),
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Date:  date,
	}

	if r.cfg.DryRun {
		chunks := segment.Segment(utts, meta, r.cfg.Segment)
		r.logger.Info("dry run", "path", path, "utterances", len(utts), "chunks", len(chunks))
		return nil
	}

	chunkIDs, err := r.proc.IngestSource(ctx, utts, meta)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if len(chunkIDs) == 0 {
		state.SourcesSkipped++
		return nil
	}
	state.ChunksCreated += len(chunkIDs)

	r.logger.Info("file ingested", "path", path, "chunks", len(chunkIDs))
	return nil
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		return []string{r.cfg.SingleFile}, nil
	}

	var files []string
	err := filepath.WalkDir(r.cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".txt", ".md", ".jsonl":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

var reFileDate = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// fileDate extracts the source date from a filename like
// "2026-03-14-standup.txt", falling back to the file's modification time.
func fileDate(path string) time.Time {
	if m := reFileDate.FindString(filepath.Base(path)); m != "" {
		if d, err := time.Parse("2006-01-02", m); err == nil {
			return d
		}
	}
	if fi, err := os.Stat(path); err == nil {
		t := fi.ModTime().UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
