package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// outputFileName is the artifact name inside the per-invocation directory
	outputFileName = "diagram.svg"

	// waitDelay bounds how long Wait keeps draining pipes after the process was killed
	waitDelay = 5 * time.Second

	// maxStderrTail is how much of mmdc's stderr is kept in NonZeroExit messages
	maxStderrTail = 512
)

// errRenderTimeout is the cancellation cause of the per-invocation timeout
var errRenderTimeout = errors.New("render timeout elapsed")

// Executor runs the Mermaid CLI once per Render call.
// It holds no per-call state and is safe for concurrent use.
type Executor struct {
	cfg    Config
	logger *slog.Logger
}

// NewExecutor creates an executor for the given configuration
func NewExecutor(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		cfg:    cfg,
		logger: logger,
	}
}

// Config returns the executor's configuration
func (e *Executor) Config() Config {
	return e.cfg
}

// Args returns the mmdc arguments for rendering stdin to outputPath
func (e *Executor) Args(outputPath string) []string {
	args := []string{"--quiet", "--input", "-", "--outputFormat", "svg", "--output", outputPath}

	if e.cfg.Theme != "" {
		args = append(args, "--theme", e.cfg.Theme)
	}
	if e.cfg.BackgroundColor != "" {
		args = append(args, "--backgroundColor", e.cfg.BackgroundColor)
	}
	if e.cfg.ConfigFile != "" {
		args = append(args, "--configFile", e.cfg.ConfigFile)
	}
	if e.cfg.PuppeteerConfigFile != "" {
		args = append(args, "--puppeteerConfigFile", e.cfg.PuppeteerConfigFile)
	}

	return args
}

// Render runs one mmdc invocation for req and returns the SVG it produced.
// The invocation ends at the earlier of the configured timeout and ctx's cancellation;
// either way the process is killed and reaped before Render returns.
// Every error returned is a *Error.
func (e *Executor) Render(ctx context.Context, req Request) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindCancelled, "cancelled before start", context.Cause(ctx))
	}

	outDir, err := os.MkdirTemp(e.cfg.TempDir, "mermaidfleet-*")
	if err != nil {
		return nil, newError(KindIO, "failed to create output directory", err)
	}
	defer func() {
		if err := os.RemoveAll(outDir); err != nil {
			e.logger.Warn("failed to remove output directory", "id", req.ID, "dir", outDir, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeoutCause(ctx, e.cfg.Timeout, errRenderTimeout)
	defer cancel()

	outputPath := filepath.Join(outDir, outputFileName)
	start := time.Now()

	if err := e.run(runCtx, req, outputPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, newError(KindIO, "failed to read rendered output", err)
	}

	e.logger.Debug("rendered diagram", "id", req.ID, "bytes", len(data), "duration", time.Since(start))

	return &Artifact{
		Content:     string(data),
		ContentType: ContentTypeSVG,
	}, nil
}

// run spawns mmdc, streams the definition into it and waits for it to exit
func (e *Executor) run(ctx context.Context, req Request, outputPath string) error {
	cmd := exec.CommandContext(ctx, e.cfg.Executable, e.Args(outputPath)...)
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return newError(KindStart, "failed to create stdin pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return newError(KindStart, fmt.Sprintf("failed to start %s", e.cfg.Executable), err)
	}

	e.logger.Debug("started renderer", "id", req.ID, "pid", cmd.Process.Pid)

	var copyErr error
	if req.Input != nil {
		_, copyErr = io.Copy(stdin, req.Input)
	}
	closeErr := stdin.Close()

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return deadlineError(ctx, e.cfg.Timeout)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &Error{
				Kind:     KindNonZeroExit,
				ExitCode: exitErr.ExitCode(),
				Message:  exitMessage(exitErr.ExitCode(), stderr.String()),
			}
		}
		return newError(KindIO, "failed waiting for renderer", waitErr)
	}

	if copyErr != nil {
		return newError(KindIO, "failed to write definition to renderer", copyErr)
	}
	if closeErr != nil {
		return newError(KindIO, "failed to close renderer input", closeErr)
	}

	return nil
}

// deadlineError reports which of the two deadlines ended the invocation
func deadlineError(ctx context.Context, timeout time.Duration) *Error {
	cause := context.Cause(ctx)
	if errors.Is(cause, errRenderTimeout) {
		return newError(KindTimeout, fmt.Sprintf("renderer did not finish within %s", timeout), cause)
	}
	return newError(KindCancelled, "render cancelled", cause)
}

func exitMessage(code int, stderr string) string {
	msg := fmt.Sprintf("renderer exited with code %d", code)

	tail := strings.TrimSpace(stderr)
	if len(tail) > maxStderrTail {
		tail = "..." + tail[len(tail)-maxStderrTail:]
	}
	if tail != "" {
		msg += ": " + tail
	}
	return msg
}
