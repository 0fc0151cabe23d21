package output

import (
	"io"

	"github.com/aryankumar/mermaidfleet/internal/executor"
	"github.com/aryankumar/mermaidfleet/internal/render"
)

// Format names an output encoding selected with -o
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Status values of a batch item
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Formatter writes single values (Format) and whole render batches (FormatBatch)
type Formatter interface {
	Format(w io.Writer, data interface{}) error
	FormatBatch(w io.Writer, results []executor.Result) error
}

// BatchItem is the reported form of one render result
type BatchItem struct {
	ID       string `json:"id" yaml:"id"`
	Status   string `json:"status" yaml:"status"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty" yaml:"exitCode,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Bytes    int    `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Duration string `json:"duration" yaml:"duration"`
}

// NewBatchItem converts a result into its reported form
func NewBatchItem(result executor.Result) BatchItem {
	item := BatchItem{
		ID:       result.ID,
		Status:   StatusSuccess,
		Duration: result.Duration.String(),
	}

	if result.Error != nil {
		item.Status = StatusFailed
		item.Error = result.Error.Error()
		if kind, ok := render.KindOf(result.Error); ok {
			item.Kind = string(kind)
		}
		if code, ok := render.ExitCode(result.Error); ok {
			item.ExitCode = &code
		}
		return item
	}

	if result.Artifact != nil {
		item.Bytes = len(result.Artifact.Content)
	}
	return item
}

// NewBatchItems converts results into their reported form, preserving order
func NewBatchItems(results []executor.Result) []BatchItem {
	items := make([]BatchItem, len(results))
	for i, result := range results {
		items[i] = NewBatchItem(result)
	}
	return items
}

// Options tune a formatter. Only the table formatter reads them.
type Options struct {
	NoColor   bool
	NoHeaders bool
	// Wide adds the EXIT, BYTES and ERROR columns
	Wide bool
}

type Option func(*Options)

func WithNoColor(noColor bool) Option {
	return func(o *Options) { o.NoColor = noColor }
}

func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) { o.NoHeaders = noHeaders }
}

func WithWide(wide bool) Option {
	return func(o *Options) { o.Wide = wide }
}

// NewFormatter returns the formatter for format. Unknown formats fall back to a table.
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
