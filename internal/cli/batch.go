package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aryankumar/mermaidfleet/internal/config"
	"github.com/aryankumar/mermaidfleet/internal/executor"
	"github.com/aryankumar/mermaidfleet/internal/output"
	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

// settings returns the configuration resolved by the root command
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return cfg, nil
}

// newFormatter builds the formatter selected by the output settings
func newFormatter(cfg *config.Config) output.Formatter {
	return output.NewFormatter(
		output.Format(cfg.Output.Format),
		output.WithNoColor(cfg.Output.NoColor),
		output.WithWide(cfg.Output.Wide),
	)
}

// newPool creates an executor pool rendering through mmdc
func newPool(cfg render.Config, logger *slog.Logger) (*executor.Pool, error) {
	pool, err := executor.NewPool(cfg, render.NewExecutor(cfg, logger), logger)
	if err != nil {
		return nil, err
	}

	pool.OnFailure(func(r executor.Result) {
		logger.Error("diagram failed", "id", r.ID, "reason", util.FriendlyError(r.Error))
	})

	return pool, nil
}

// execute runs the pool, logging progress at debug level
func execute(ctx context.Context, pool *executor.Pool, logger *slog.Logger) []executor.Result {
	return pool.ExecuteWithProgress(ctx, func(completed, total int) {
		logger.Debug("progress", "completed", completed, "total", total)
	})
}

// pendingWrite is a file to write once the batch has finished
type pendingWrite struct {
	id   string
	path string
	data []byte
}

// writeFiles writes files concurrently, at most limit at a time.
// Every write is attempted; failures are returned tagged with their item ID.
func writeFiles(writes []pendingWrite, limit int, logger *slog.Logger) []error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(limit)

	for _, w := range writes {
		w := w // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := writeFile(w.path, w.data); err != nil {
				mu.Lock()
				errs = append(errs, util.WrapItemError(w.id, err))
				mu.Unlock()
				logger.Error("failed to write output", "id", w.id, "path", w.path, "error", err)
				return nil
			}
			logger.Debug("wrote output", "id", w.id, "path", w.path, "bytes", len(w.data))
			return nil
		})
	}

	// Workers never return an error; failures are collected above
	_ = g.Wait()

	return errs
}

// writeFile writes data atomically by renaming a temporary sibling into place
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// report prints the batch and returns an error naming every failed item
func report(w io.Writer, cfg *config.Config, results []executor.Result, extra []error) error {
	if err := newFormatter(cfg).FormatBatch(w, results); err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	errs := executor.GetErrors(results)
	errs = append(errs, extra...)
	return util.CombineErrors(errs...)
}

// checkCollisions rejects batches in which two items would write the same file
func checkCollisions(writes map[string]string) error {
	owners := make(map[string]string, len(writes))
	for id, path := range writes {
		if other, ok := owners[path]; ok {
			if other > id {
				other, id = id, other
			}
			return fmt.Errorf("%s and %s would both write %s", other, id, path)
		}
		owners[path] = id
	}
	return nil
}
