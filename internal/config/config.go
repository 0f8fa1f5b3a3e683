package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy defaults. These mirror the documented safety constants but remain
// configurable; nothing in the engine hard-codes them.
const (
	DefaultModifyMaxLines = 500
	DefaultModifyMaxRatio = 0.5
	DefaultTreeMaxDepth   = 12
)

// DefaultDenyList blocks the usual credential, VCS and tooling directories.
// Matched case-sensitively against every path component.
var DefaultDenyList = []string{
	".env",
	".git",
	"venv",
	".venv",
	"__pycache__",
	"node_modules",
	".idea",
	".vscode",
	".filewright",
}

// Config captures the tunable runtime settings for the engine.
type Config struct {
	WorkspaceRoot  string   `yaml:"workspace_root"`
	DenyList       []string `yaml:"deny_list"`
	ModifyMaxLines int      `yaml:"modify_max_lines"`
	ModifyMaxRatio float64  `yaml:"modify_max_ratio"`
	TreeMaxDepth   int      `yaml:"tree_max_depth"`
	HaltOnDenial   bool     `yaml:"halt_on_denial"`
	SessionDir     string   `yaml:"session_dir"`
	StorePath      string   `yaml:"store_path"`
	LogPath        string   `yaml:"log_path"`
	LogMaxSizeMB   int      `yaml:"log_max_size_mb"`
	LogMaxBackups  int      `yaml:"log_max_backups"`
	LogMaxAgeDays  int      `yaml:"log_max_age_days"`
	LogCompress    bool     `yaml:"log_compress"`
	JSONLogs       bool     `yaml:"json_logs"`
}

// EnsureDefaultConfig creates config.yaml with defaults if it doesn't exist.
func EnsureDefaultConfig() error {
	configDir := GetConfigDir()
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	cfg := Config{}
	cfg.applyDefaults()

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadUserConfig loads configuration from ~/.filewright/config.yaml.
// Checks FILEWRIGHT_CONFIG_PATH environment variable first.
// If the file doesn't exist, returns defaults.
func LoadUserConfig() (Config, error) {
	configPath := os.Getenv("FILEWRIGHT_CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := Config{}
		cfg.applyDefaults()
		return cfg, nil
	}

	return Load(configPath)
}

// Load reads the YAML configuration from disk and injects sane defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyDefaults fills in optional values to keep the YAML file concise.
func (c *Config) applyDefaults() {
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = "."
	}
	// An absent deny_list gets the defaults; an explicit empty list
	// (deny_list: []) stays empty so a deployment can opt out.
	if c.DenyList == nil {
		c.DenyList = append([]string{}, DefaultDenyList...)
	}
	if c.ModifyMaxLines <= 0 {
		c.ModifyMaxLines = DefaultModifyMaxLines
	}
	if c.ModifyMaxRatio <= 0 {
		c.ModifyMaxRatio = DefaultModifyMaxRatio
	}
	if c.TreeMaxDepth <= 0 {
		c.TreeMaxDepth = DefaultTreeMaxDepth
	}
	if c.SessionDir == "" {
		c.SessionDir = filepath.Join(c.WorkspaceRoot, ".filewright", "sessions")
	}
	if c.StorePath == "" {
		c.StorePath = filepath.Join(c.WorkspaceRoot, ".filewright", "runs.db")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.WorkspaceRoot, ".filewright", "engine.log")
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = 10
	}
	if c.LogMaxBackups < 0 {
		c.LogMaxBackups = 0
	}
	if c.LogMaxAgeDays < 0 {
		c.LogMaxAgeDays = 0
	}
}

func (c Config) validate() error {
	if c.ModifyMaxRatio <= 0 || c.ModifyMaxRatio > 1.0 {
		return fmt.Errorf("modify_max_ratio must be between 0 and 1.0 (got %f)", c.ModifyMaxRatio)
	}
	if c.ModifyMaxLines < 1 {
		return fmt.Errorf("modify_max_lines must be >= 1 (got %d)", c.ModifyMaxLines)
	}
	if c.TreeMaxDepth < 1 || c.TreeMaxDepth > 64 {
		return fmt.Errorf("tree_max_depth must be between 1 and 64 (got %d)", c.TreeMaxDepth)
	}
	for _, entry := range c.DenyList {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("deny_list entries must not be empty")
		}
		if strings.ContainsAny(entry, "/\\") {
			return fmt.Errorf("deny_list entry %q must be a single path component", entry)
		}
	}
	if strings.TrimSpace(c.SessionDir) == "" {
		return fmt.Errorf("session_dir must be set")
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return fmt.Errorf("store_path must be set")
	}
	return nil
}

// OverrideWorkspaceRoot swaps the workspace root at runtime and rebases
// dependent paths that lived under the old root.
func (c *Config) OverrideWorkspaceRoot(root string) {
	if c == nil {
		return
	}
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return
	}
	oldRoot := c.WorkspaceRoot
	c.WorkspaceRoot = trimmed
	c.rebasePath(&c.SessionDir, oldRoot, trimmed)
	c.rebasePath(&c.StorePath, oldRoot, trimmed)
	c.rebasePath(&c.LogPath, oldRoot, trimmed)
}

func (c *Config) rebasePath(target *string, oldRoot, newRoot string) {
	if target == nil {
		return
	}
	val := strings.TrimSpace(*target)
	if val == "" {
		return
	}
	oldAbs := absPath(oldRoot)
	newAbs := absPath(newRoot)
	pathVal := val
	if filepath.IsAbs(pathVal) {
		if oldAbs == "" {
			return
		}
		rel, err := filepath.Rel(oldAbs, pathVal)
		if err != nil || strings.HasPrefix(rel, "..") {
			return
		}
		pathVal = rel
	} else {
		rel, err := filepath.Rel(oldRoot, pathVal)
		if err != nil || strings.HasPrefix(rel, "..") {
			return
		}
		pathVal = rel
	}
	if newAbs == "" {
		newAbs = "."
	}
	*target = filepath.Join(newAbs, pathVal)
}

func absPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Save writes the config to the user's config file.
func Save(c Config) error {
	configPath := os.Getenv("FILEWRIGHT_CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func GetConfigDir() string {
	if configDir := os.Getenv("FILEWRIGHT_CONFIG_DIR"); configDir != "" {
		return configDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filewright"
	}
	return filepath.Join(home, ".filewright")
}
