package cli

import (
	"strings"
	"testing"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	if root.Use != "mermaidfleet" {
		t.Errorf("Use = %q, want mermaidfleet", root.Use)
	}
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Error("errors are reported by main, so usage and errors should be silenced")
	}

	for _, name := range []string{"version", "completion", "config", "render", "embed", "hierarchy"} {
		sub, _, err := root.Find([]string{name})
		if err != nil || sub == root {
			t.Errorf("subcommand %q is not registered", name)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	out, err := runRoot(t, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Mermaid", "render", "embed", "hierarchy", "--parallel", "--timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("help should mention %q", want)
		}
	}
}

// Zero defaults defer to the config file and built-in defaults
func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{name: "config", def: ""},
		{name: "executable", def: ""},
		{name: "timeout", def: "0s"},
		{name: "parallel", shorthand: "p", def: "0"},
		{name: "serial", def: "false"},
		{name: "temp-dir", def: ""},
		{name: "theme", def: ""},
		{name: "background-color", def: ""},
		{name: "mermaid-config", def: ""},
		{name: "puppeteer-config", def: ""},
		{name: "output", shorthand: "o", def: ""},
		{name: "wide", def: "false"},
		{name: "verbose", shorthand: "v", def: "false"},
		{name: "no-color", def: "false"},
	}

	flags := newRootCmd().PersistentFlags()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag --%s not found", tt.name)
			}
			if flag.DefValue != tt.def {
				t.Errorf("default = %q, want %q", flag.DefValue, tt.def)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("shorthand = %q, want %q", flag.Shorthand, tt.shorthand)
			}
		})
	}
}

func TestCheckCollisions(t *testing.T) {
	if err := checkCollisions(map[string]string{"a/x.mmd": "out/x.svg", "b/y.mmd": "out/y.svg"}); err != nil {
		t.Errorf("unexpected collision: %v", err)
	}

	err := checkCollisions(map[string]string{"a/x.mmd": "out/x.svg", "b/x.mmd": "out/x.svg"})
	if err == nil {
		t.Fatal("expected collision error")
	}
	if !strings.Contains(err.Error(), "a/x.mmd and b/x.mmd would both write out/x.svg") {
		t.Errorf("unexpected error message: %v", err)
	}
}
