package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

const (
	defaultConfigName = ".mermaidfleet"
	defaultConfigDir  = ".mermaidfleet"
	envPrefix         = "MERMAIDFLEET"
)

// Output formats understood by the output package
var validFormats = []string{"table", "json", "yaml"}

// flagKeys maps global flag names to their configuration keys
var flagKeys = map[string]string{
	"executable":       "renderer.executable",
	"timeout":          "renderer.timeout",
	"parallel":         "renderer.parallel",
	"serial":           "renderer.serial",
	"temp-dir":         "renderer.tempDir",
	"theme":            "renderer.theme",
	"background-color": "renderer.backgroundColor",
	"mermaid-config":   "renderer.mermaidConfig",
	"puppeteer-config": "renderer.puppeteerConfig",
	"output":           "output.format",
	"wide":             "output.wide",
	"no-color":         "output.noColor",
	"verbose":          "output.verbose",
}

// envKeys maps the short environment variables to their configuration keys.
// Every other key is reachable as MERMAIDFLEET_<SECTION>_<KEY>.
var envKeys = map[string]string{
	"renderer.executable": envPrefix + "_EXECUTABLE",
	"renderer.timeout":    envPrefix + "_TIMEOUT",
	"renderer.parallel":   envPrefix + "_PARALLEL",
	"renderer.serial":     envPrefix + "_SERIAL",
}

// Manager handles mermaidfleet configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
}

// BindFlags binds the global command-line flags present in fs.
// Flags only override file and environment values when set explicitly.
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := m.viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load loads the configuration from file, environment and bound flags
func (m *Manager) Load() (*Config, error) {
	// Set up config file path
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Check ~/.mermaidfleet/config.yaml, then ~/.mermaidfleet.yaml
		dirConfig := filepath.Join(home, defaultConfigDir, "config.yaml")
		if _, err := os.Stat(dirConfig); err == nil {
			m.viper.SetConfigFile(dirConfig)
		} else {
			m.viper.AddConfigPath(home)
			m.viper.SetConfigName(defaultConfigName)
			m.viper.SetConfigType("yaml")
		}
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
	for key, env := range envKeys {
		if err := m.viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	m.config = &Config{}

	if err := m.viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// ConfigFileUsed returns the file the configuration was read from, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// Save writes the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		path, err := DefaultPath()
		if err != nil {
			return err
		}
		m.configPath = path
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultPath returns $HOME/.mermaidfleet/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigDir, "config.yaml"), nil
}

// Path returns the configuration file path used by Save
func (m *Manager) Path() string {
	return m.configPath
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// applyDefaults sets default values for configuration
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	r := &m.config.Renderer

	if r.Executable == "" {
		r.Executable = render.DefaultExecutable()
	}

	if r.Timeout == 0 && r.TimeoutSec > 0 {
		r.Timeout = time.Duration(r.TimeoutSec) * time.Second
	}
	if r.Timeout == 0 {
		r.Timeout = render.DefaultTimeout
	}

	if r.Parallel == 0 {
		r.Parallel = render.DefaultConcurrency()
	}

	if m.config.Output.Format == "" {
		m.config.Output.Format = "table"
	}
}

// Validate checks values that would otherwise fail much later
func (c *Config) Validate() error {
	if err := c.Renderer.RenderConfig().Validate(); err != nil {
		return err
	}

	for _, f := range validFormats {
		if c.Output.Format == f {
			return nil
		}
	}
	return util.NewValidationError("output.format", c.Output.Format,
		fmt.Sprintf("must be one of %s", strings.Join(validFormats, ", ")))
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying cfg
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the configuration stored in ctx by NewContext
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(contextKey{}).(*Config)
	return cfg, ok && cfg != nil
}
