package config

import (
	"time"

	"github.com/aryankumar/mermaidfleet/internal/render"
)

// Config represents the mermaidfleet configuration file structure
type Config struct {
	// Renderer controls how the Mermaid CLI is invoked
	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer" json:"renderer"`

	// Output controls how results are reported
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// RendererConfig contains the settings of the render executor
type RendererConfig struct {
	// Executable is the Mermaid CLI to run (mmdc by default)
	Executable string `mapstructure:"executable" yaml:"executable,omitempty" json:"executable,omitempty"`

	// Timeout bounds a single render invocation
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// TimeoutSec is the older integer form of Timeout, used only when Timeout is unset
	TimeoutSec int `mapstructure:"timeoutSec" yaml:"timeoutSec,omitempty" json:"timeoutSec,omitempty"`

	// Parallel is the maximum number of renders in flight
	Parallel int `mapstructure:"parallel" yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// Serial forces one render at a time
	Serial bool `mapstructure:"serial" yaml:"serial,omitempty" json:"serial,omitempty"`

	// TempDir is where per-render output directories are created (system default if empty)
	TempDir string `mapstructure:"tempDir" yaml:"tempDir,omitempty" json:"tempDir,omitempty"`

	Theme           string `mapstructure:"theme" yaml:"theme,omitempty" json:"theme,omitempty"`
	BackgroundColor string `mapstructure:"backgroundColor" yaml:"backgroundColor,omitempty" json:"backgroundColor,omitempty"`

	// MermaidConfig is a Mermaid JSON config file passed through to the CLI
	MermaidConfig string `mapstructure:"mermaidConfig" yaml:"mermaidConfig,omitempty" json:"mermaidConfig,omitempty"`

	// PuppeteerConfig is a Puppeteer JSON config file passed through to the CLI
	PuppeteerConfig string `mapstructure:"puppeteerConfig" yaml:"puppeteerConfig,omitempty" json:"puppeteerConfig,omitempty"`
}

// OutputConfig contains default settings for reporting
type OutputConfig struct {
	// Format is the default output format (table, json, yaml)
	Format string `mapstructure:"format" yaml:"format,omitempty" json:"format,omitempty"`

	// Wide adds the error and size columns to table output
	Wide bool `mapstructure:"wide" yaml:"wide,omitempty" json:"wide,omitempty"`

	// NoColor disables colored output
	NoColor bool `mapstructure:"noColor" yaml:"noColor,omitempty" json:"noColor,omitempty"`

	// Verbose enables debug logging
	Verbose bool `mapstructure:"verbose" yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

// RenderConfig converts the renderer settings into a render.Config
func (r RendererConfig) RenderConfig() render.Config {
	return render.Config{
		Executable:          r.Executable,
		Timeout:             r.Timeout,
		MaxConcurrency:      r.Parallel,
		Serial:              r.Serial,
		TempDir:             r.TempDir,
		Theme:               r.Theme,
		BackgroundColor:     r.BackgroundColor,
		ConfigFile:          r.MermaidConfig,
		PuppeteerConfigFile: r.PuppeteerConfig,
	}
}
