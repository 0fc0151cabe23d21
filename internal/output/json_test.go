package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aryankumar/mermaidfleet/internal/executor"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(nil)
	if f == nil || f.options == nil {
		t.Fatal("expected formatter with default options")
	}

	opts := &Options{Wide: true}
	if NewJSONFormatter(opts).options != opts {
		t.Error("expected the provided options to be used")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		data     interface{}
		expected string
	}{
		{name: "string", data: "hello", expected: `"hello"`},
		{name: "map", data: map[string]interface{}{"key": "value"}, expected: `"key": "value"`},
		{name: "slice", data: []int{1, 2}, expected: "1,\n  2"},
		{name: "nil", data: nil, expected: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewJSONFormatter(nil).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format failed: %v", err)
			}
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.expected)
			}
		})
	}
}

func TestJSONFormatter_FormatBatch(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatBatch(&buf, sampleResults()); err != nil {
		t.Fatalf("FormatBatch failed: %v", err)
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	tests := []struct {
		index    int
		id       string
		status   string
		kind     interface{}
		exitCode interface{}
	}{
		{0, "docs/flow.mmd", "success", nil, nil},
		{1, "docs/broken.mmd", "failed", "NonZeroExit", float64(3)},
		{2, "docs/slow.mmd", "failed", "Timeout", nil},
	}

	for _, tt := range tests {
		item := items[tt.index]
		if item["id"] != tt.id {
			t.Errorf("item %d: got id %v, want %s", tt.index, item["id"], tt.id)
		}
		if item["status"] != tt.status {
			t.Errorf("item %d: got status %v, want %s", tt.index, item["status"], tt.status)
		}
		if item["kind"] != tt.kind {
			t.Errorf("item %d: got kind %v, want %v", tt.index, item["kind"], tt.kind)
		}
		if item["exitCode"] != tt.exitCode {
			t.Errorf("item %d: got exitCode %v, want %v", tt.index, item["exitCode"], tt.exitCode)
		}
	}

	if items[0]["bytes"] != float64(len("<svg>flow</svg>")) {
		t.Errorf("got bytes %v for the success item", items[0]["bytes"])
	}
	if _, ok := items[0]["error"]; ok {
		t.Error("success item should omit error")
	}
	if !strings.Contains(items[1]["error"].(string), "Parse error on line 2") {
		t.Errorf("error should carry the stderr tail, got %v", items[1]["error"])
	}
}

func TestJSONFormatter_FormatBatchEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatBatch(&buf, []executor.Result{}); err != nil {
		t.Fatalf("FormatBatch failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("got %q, want []", buf.String())
	}
}

func TestJSONFormatter_Indentation(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]interface{}{"outer": map[string]interface{}{"inner": 1}}
	if err := NewJSONFormatter(nil).Format(&buf, data); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if !strings.Contains(buf.String(), "\n    \"inner\": 1") {
		t.Errorf("expected two-space indentation, got:\n%s", buf.String())
	}
}
