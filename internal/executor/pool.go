package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aryankumar/mermaidfleet/internal/render"
)

// Renderer renders a single request
type Renderer interface {
	Render(ctx context.Context, req render.Request) (*render.Artifact, error)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(ctx context.Context, req render.Request) (*render.Artifact, error)

// Render calls f(ctx, req)
func (f RendererFunc) Render(ctx context.Context, req render.Request) (*render.Artifact, error) {
	return f(ctx, req)
}

// Result represents the outcome of rendering one request
type Result struct {
	// ID echoes the request ID
	ID string

	// Artifact is the rendered diagram (nil if an error occurred)
	Artifact *render.Artifact

	// Error is the failure (nil if successful), normally a *render.Error
	Error error

	// Duration is how long the render took, excluding time spent waiting for admission
	Duration time.Duration
}

// Pool renders a batch of requests with at most Config.Concurrency() renders in flight.
// A failed request never stops its siblings.
type Pool struct {
	cfg      render.Config
	renderer Renderer

	// tasks is the queue of requests to render
	tasks []render.Request
	ids   map[string]bool

	// mu protects tasks, ids, gate and onFailure
	mu sync.Mutex

	// gate is the admission gate of the current or last run
	gate *Gate

	onFailure func(Result)

	// reportMu serializes failure and progress callbacks
	reportMu sync.Mutex

	logger *slog.Logger

	running atomic.Bool
}

// NewPool creates a pool for the given configuration.
// An invalid configuration is rejected before anything is admitted.
func NewPool(cfg render.Config, renderer Renderer, logger *slog.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render configuration: %w", err)
	}
	if renderer == nil {
		return nil, fmt.Errorf("pool requires a renderer")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		cfg:      cfg,
		renderer: renderer,
		tasks:    make([]render.Request, 0),
		ids:      make(map[string]bool),
		logger:   logger,
	}, nil
}

// OnFailure registers a callback invoked once for every failed request, including
// requests cancelled before they were admitted. Calls are serialized.
func (p *Pool) OnFailure(fn func(Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFailure = fn
}

// Submit adds a request to the pool's queue
// Returns an error if the pool is running or the request is malformed
func (p *Pool) Submit(req render.Request) error {
	if p.running.Load() {
		return fmt.Errorf("pool is running, cannot submit new requests")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.ID == "" {
		return fmt.Errorf("request must have an id")
	}

	if req.Input == nil {
		return fmt.Errorf("request %q must have an input", req.ID)
	}

	if p.ids[req.ID] {
		return fmt.Errorf("duplicate request id %q", req.ID)
	}

	p.ids[req.ID] = true
	p.tasks = append(p.tasks, req)
	p.logger.Debug("request submitted", "id", req.ID, "total_requests", len(p.tasks))

	return nil
}

// Execute renders all submitted requests and empties the queue.
// Returns one result per request, in submission order.
func (p *Pool) Execute(ctx context.Context) []Result {
	return p.ExecuteWithProgress(ctx, nil)
}

// ExecuteWithProgress renders all requests with progress reporting.
// The progressFn callback is called after each request resolves with (completed, total) counts.
//
// Each request waits for a permit from a fresh admission gate before its renderer starts.
// When ctx is cancelled, the request waiting for admission and every request behind it
// resolve as Cancelled without being started, and in-flight renders see the cancellation
// through their context. ExecuteWithProgress returns only after every admitted render ended.
func (p *Pool) ExecuteWithProgress(ctx context.Context, progressFn func(completed, total int)) []Result {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		return []Result{}
	}
	defer p.running.Store(false)

	// Request inputs are read once, so a run takes the queue with it
	p.mu.Lock()
	tasksCopy := p.tasks
	p.tasks = make([]render.Request, 0)
	p.ids = make(map[string]bool)
	taskCount := len(tasksCopy)
	if taskCount == 0 {
		p.mu.Unlock()
		p.logger.Debug("no requests to render")
		return []Result{}
	}

	// Concurrency was validated in NewPool
	gate, _ := NewGate(p.cfg.Concurrency())
	p.gate = gate
	onFailure := p.onFailure
	p.mu.Unlock()

	runID := uuid.NewString()
	logger := p.logger.With("run", runID)

	logger.Info("starting batch",
		"concurrency", gate.Capacity(),
		"requests", taskCount,
		"timeout", p.cfg.Timeout)

	startTime := time.Now()

	results := make([]Result, taskCount)
	var completed atomic.Int32
	var wg sync.WaitGroup

	report := func(result Result) {
		p.reportMu.Lock()
		defer p.reportMu.Unlock()

		if result.Error != nil && onFailure != nil {
			onFailure(result)
		}

		completedCount := int(completed.Add(1))
		if progressFn != nil {
			progressFn(completedCount, taskCount)
		}
	}

	for i, task := range tasksCopy {
		if err := gate.Acquire(ctx); err != nil {
			logger.Warn("batch cancelled while waiting for admission",
				"pending", taskCount-i,
				"error", err)

			for j := i; j < taskCount; j++ {
				results[j] = notAdmitted(ctx, tasksCopy[j])
				logger.Warn("render failed",
					"id", results[j].ID,
					"kind", render.KindCancelled,
					"error", results[j].Error)
				report(results[j])
			}
			break
		}

		wg.Add(1)
		go func(index int, task render.Request) {
			defer wg.Done()
			defer gate.Release()

			results[index] = p.executeTask(ctx, logger, task)
			report(results[index])
		}(i, task)
	}

	wg.Wait()

	totalDuration := time.Since(startTime)
	successCount := CountSuccessful(results)

	logger.Info("batch completed",
		"total", taskCount,
		"successful", successCount,
		"failed", taskCount-successCount,
		"peak_concurrency", gate.Peak(),
		"duration", totalDuration)

	return results
}

// executeTask renders a single admitted request and returns the result
func (p *Pool) executeTask(ctx context.Context, logger *slog.Logger, task render.Request) Result {
	startTime := time.Now()

	logger.Debug("rendering", "id", task.ID)

	if ctx.Err() != nil {
		return notAdmitted(ctx, task)
	}

	artifact, err := p.renderer.Render(ctx, task)
	duration := time.Since(startTime)

	result := Result{
		ID:       task.ID,
		Duration: duration,
	}

	if err != nil {
		result.Error = err
		kind, _ := render.KindOf(err)
		logger.Warn("render failed",
			"id", task.ID,
			"kind", kind,
			"error", err,
			"duration", duration)
		return result
	}

	if artifact == nil {
		result.Error = &render.Error{Kind: render.KindIO, Message: "renderer returned no artifact"}
		logger.Warn("render failed", "id", task.ID, "kind", render.KindIO, "error", result.Error)
		return result
	}

	result.Artifact = artifact
	logger.Debug("render succeeded", "id", task.ID, "duration", duration)

	return result
}

// notAdmitted builds the result of a request that never got to start
func notAdmitted(ctx context.Context, task render.Request) Result {
	return Result{
		ID: task.ID,
		Error: &render.Error{
			Kind:    render.KindCancelled,
			Message: "batch cancelled before the render started",
			Err:     context.Cause(ctx),
		},
	}
}

// IsRunning returns true if the pool is currently executing
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// TaskCount returns the number of requests currently queued
func (p *Pool) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// Capacity returns the number of renders allowed in flight
func (p *Pool) Capacity() int {
	return p.cfg.Concurrency()
}

// PeakConcurrency returns the highest number of renders in flight during the last run
func (p *Pool) PeakConcurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate == nil {
		return 0
	}
	return p.gate.Peak()
}
