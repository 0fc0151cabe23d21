// Package output prints render batches and configuration values as a table,
// JSON or YAML.
//
//	f := output.NewFormatter(output.FormatTable, output.WithWide(true))
//	f.FormatBatch(os.Stdout, pool.Execute(ctx))
//
// The table has one row per request (ID, status, failure kind, duration) and
// ends with a summary line that counts failures by kind. Wide mode adds the
// exit code, artifact size and a truncated error message.
//
// JSON and YAML emit one BatchItem per request in submission order.
//
// Colors are used only when the writer is a terminal. Timeouts and
// cancellations are yellow, other failures red.
package output
