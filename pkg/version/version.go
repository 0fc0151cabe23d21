// Package version reports build metadata for the mermaidfleet binary.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Overridden at build time with -ldflags "-X github.com/aryankumar/mermaidfleet/pkg/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info describes the running binary and, when reachable, the Mermaid CLI behind it
type Info struct {
	Version    string `json:"version" yaml:"version"`
	Commit     string `json:"commit" yaml:"commit"`
	BuildTime  string `json:"buildTime" yaml:"buildTime"`
	GoVersion  string `json:"goVersion" yaml:"goVersion"`
	Platform   string `json:"platform" yaml:"platform"`
	MermaidCLI string `json:"mermaidCli,omitempty" yaml:"mermaidCli,omitempty"`
}

// Get collects version information. Commit and build time fall back to the
// VCS stamp embedded by the go command when they were not set via ldflags.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildSettings(&info, bi.Settings)
	}
	return info
}

func fillFromBuildSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		}
	}
}

// String renders the human-readable form printed by "mermaidfleet version"
func (i Info) String() string {
	mermaid := i.MermaidCLI
	if mermaid == "" {
		mermaid = "unavailable"
	}

	rows := [][2]string{
		{"Version", i.Version},
		{"Commit", i.Commit},
		{"Build Time", i.BuildTime},
		{"Go Version", i.GoVersion},
		{"Platform", i.Platform},
		{"Mermaid CLI", mermaid},
	}

	var sb strings.Builder
	sb.WriteString("mermaidfleet")
	for _, row := range rows {
		fmt.Fprintf(&sb, "\n  %-12s %s", row[0]+":", row[1])
	}
	return sb.String()
}

// JSON returns the indented JSON form
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	return string(data), err
}
