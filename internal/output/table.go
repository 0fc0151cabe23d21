package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/aryankumar/mermaidfleet/internal/executor"
	"github.com/aryankumar/mermaidfleet/internal/render"
)

// maxErrorWidth truncates the ERROR column in wide mode
const maxErrorWidth = 80

// TableFormatter renders batch results and values as aligned columns
type TableFormatter struct {
	options *Options
}

// NewTableFormatter returns a table formatter; nil opts means defaults
func NewTableFormatter(opts *Options) *TableFormatter {
	return &TableFormatter{options: defaultOptions(opts)}
}

// Format prints a map as KEY/VALUE rows and a slice of maps with one
// column per key. Anything else is printed with fmt.
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(f.createTable(w), v)
	case []map[string]interface{}:
		return f.formatMapSlice(f.createTable(w), v)
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

// FormatBatch writes one row per request followed by a summary line.
// Wide mode adds the exit code, artifact size and error message.
func (f *TableFormatter) FormatBatch(w io.Writer, results []executor.Result) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	if !f.options.NoHeaders {
		headers := []string{"ID", "STATUS", "KIND", "DURATION"}
		if f.options.Wide {
			headers = append(headers, "EXIT", "BYTES", "ERROR")
		}
		for i, h := range headers {
			headers[i] = colors.Header(h)
		}
		table.SetHeader(headers)
	}

	for _, result := range results {
		table.Append(f.resultRow(NewBatchItem(result), result.Duration, colors))
	}
	table.Render()

	f.printSummary(w, results, colors)
	return nil
}

// resultRow renders one batch item; painters are no-ops when colors are disabled
func (f *TableFormatter) resultRow(item BatchItem, duration time.Duration, colors *ColorScheme) []string {
	failed := item.Status == StatusFailed

	status := "Success"
	if failed {
		status = "Failed"
	}

	kind := "-"
	if item.Kind != "" {
		kind = colors.KindColor(render.Kind(item.Kind))(item.Kind)
	}

	row := []string{
		colors.ID("%s", item.ID),
		colors.StatusColor(failed)(status),
		kind,
		colors.Duration(duration.Round(time.Millisecond).String()),
	}
	if !f.options.Wide {
		return row
	}

	exitCode, size := "-", "-"
	if item.ExitCode != nil {
		exitCode = strconv.Itoa(*item.ExitCode)
	}
	if !failed {
		size = strconv.Itoa(item.Bytes)
	}

	return append(row, exitCode, size, truncate(strings.ReplaceAll(item.Error, "\n", " "), maxErrorWidth))
}

// truncate shortens s to at most width bytes, marking the cut with "..."
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// formatMap prints one KEY/VALUE row per entry
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	for _, k := range sortedKeys(data) {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	// Columns come from the first map's keys
	keys := sortedKeys(data[0])

	if !f.options.NoHeaders {
		headers := make([]string, len(keys))
		for i, k := range keys {
			headers[i] = strings.ToUpper(k)
		}
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = fmt.Sprintf("%v", item[k])
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a borderless table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints counts, the failure kinds and render times
func (f *TableFormatter) printSummary(w io.Writer, results []executor.Result, colors *ColorScheme) {
	summary := executor.Summarize(results)

	failed := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failed = colors.Error("%s (%s)", failed, formatKinds(summary.ByKind))
	}

	fmt.Fprintf(w, "\nSummary: %s, %s, %s\n",
		colors.Success("%d successful", summary.Successful),
		failed,
		colors.Duration("avg=%s max=%s", summary.AvgDuration.Round(time.Millisecond), summary.MaxDuration.Round(time.Millisecond)))
}

// formatKinds renders failure counts per kind in a stable order, e.g. "1 StartFailure, 3 Timeout"
func formatKinds(byKind map[render.Kind]int) string {
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		label := kind
		if label == "" {
			label = "Other"
		}
		parts = append(parts, fmt.Sprintf("%d %s", byKind[render.Kind(kind)], label))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
