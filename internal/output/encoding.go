package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/mermaidfleet/internal/executor"
)

// JSONFormatter writes indented JSON. Batches become an array of BatchItem.
type JSONFormatter struct {
	options *Options
}

// YAMLFormatter writes YAML with two-space indentation. Batches become a sequence of BatchItem.
type YAMLFormatter struct {
	options *Options
}

func defaultOptions(opts *Options) *Options {
	if opts == nil {
		return &Options{}
	}
	return opts
}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	return &JSONFormatter{options: defaultOptions(opts)}
}

// NewYAMLFormatter creates a YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	return &YAMLFormatter{options: defaultOptions(opts)}
}

// Format writes data as one JSON document
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// FormatBatch writes one JSON object per request, in submission order
func (f *JSONFormatter) FormatBatch(w io.Writer, results []executor.Result) error {
	return f.Format(w, NewBatchItems(results))
}

// Format writes data as one YAML document
func (f *YAMLFormatter) Format(w io.Writer, data interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(data); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// FormatBatch writes one YAML mapping per request, in submission order
func (f *YAMLFormatter) FormatBatch(w io.Writer, results []executor.Result) error {
	return f.Format(w, NewBatchItems(results))
}
