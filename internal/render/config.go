package render

import (
	"io"
	"runtime"
	"time"

	"github.com/aryankumar/mermaidfleet/internal/util"
)

// ContentTypeSVG is the content type of every artifact
const ContentTypeSVG = "image/svg+xml"

// DefaultTimeout bounds a single mmdc invocation
const DefaultTimeout = 120 * time.Second

// Request is one diagram definition to render.
// Input is read once, front to back, by exactly one invocation.
type Request struct {
	// ID identifies the request within its batch
	ID string

	// Input is the UTF-8 diagram definition
	Input io.Reader
}

// Artifact is a rendered diagram
type Artifact struct {
	Content     string `json:"content" yaml:"content"`
	ContentType string `json:"contentType" yaml:"contentType"`
}

// Config is the resolved renderer configuration for one batch
type Config struct {
	// Executable is the path or name of the Mermaid CLI
	Executable string

	// Timeout bounds each invocation, measured from its start
	Timeout time.Duration

	// MaxConcurrency is the number of mmdc processes allowed to run at once
	MaxConcurrency int

	// Serial forces one process at a time
	Serial bool

	// TempDir is where per-invocation output directories are created (os.TempDir when empty)
	TempDir string

	// Optional mmdc settings
	Theme               string
	BackgroundColor     string
	ConfigFile          string
	PuppeteerConfigFile string
}

// DefaultExecutable returns the platform's Mermaid CLI name
func DefaultExecutable() string {
	if runtime.GOOS == "windows" {
		return "mmdc.cmd"
	}
	return "mmdc"
}

// DefaultConcurrency is the host's available parallelism
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// DefaultConfig returns a Config with every field at its default
func DefaultConfig() Config {
	return Config{
		Executable:     DefaultExecutable(),
		Timeout:        DefaultTimeout,
		MaxConcurrency: DefaultConcurrency(),
	}
}

// Validate checks the configuration contract
func (c Config) Validate() error {
	if c.Executable == "" {
		return util.NewValidationError("executable", nil, "must not be empty")
	}
	if c.Timeout <= 0 {
		return util.NewValidationError("timeout", c.Timeout, "must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return util.NewValidationError("maxConcurrency", c.MaxConcurrency, "must be positive")
	}
	return nil
}

// Concurrency returns the effective number of concurrent invocations
func (c Config) Concurrency() int {
	if c.Serial {
		return 1
	}
	return c.MaxConcurrency
}
