// Package setup registers the MCP server with desktop MCP clients that read
// an "mcpServers" JSON config file.
package setup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/goccy/go-json"

	"github.com/congenital-syphilis-mcp-server/internal/config"
	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// ServerKey is the entry name written under mcpServers.
const ServerKey = "congenital-syphilis"

// BinaryName is the MCP server executable looked up when no path is given.
const BinaryName = "mcp-server-lite"

// ClientConfig is the client configuration file. Unknown top-level keys are
// preserved on save.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// ServerEntry launches one MCP server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls registration.
type Options struct {
	ConfigPath    string // client config file; DefaultClientConfigPath when empty
	BinaryPath    string
	DataDir       string
	DatasetSource string
	DatasetPath   string
	DatasetURL    string
}

// DefaultClientConfigPath returns the per-OS location of the desktop client
// config file.
func DefaultClientConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClientConfig reads the client config. A missing file yields an empty
// config.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: make(map[string]ServerEntry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.extra); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if raw, ok := cfg.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.extra, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]ServerEntry)
	}

	return cfg, nil
}

// SaveClientConfig writes the client config, creating its directory.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]interface{}, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	return nil
}

// Register adds or replaces the server entry and returns the config path
// written.
func Register(opts Options) (string, error) {
	path, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return "", err
	}

	cfg, err := LoadClientConfig(path)
	if err != nil {
		return "", err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		if binaryPath, err = findBinary(); err != nil {
			return "", fmt.Errorf("could not find server binary: %w", err)
		}
	}

	cfg.MCPServers[ServerKey] = ServerEntry{
		Command: binaryPath,
		Env:     entryEnv(opts),
	}

	if err := SaveClientConfig(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}

// entryEnv maps options onto the variables read by config.LoadLiteConfig.
func entryEnv(opts Options) map[string]string {
	env := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			env[key] = value
		}
	}
	set("CSCALC_DATA_DIR", opts.DataDir)
	set("CSCALC_DATASET_SOURCE", opts.DatasetSource)
	set("CSCALC_DATASET_PATH", opts.DatasetPath)
	set("CSCALC_DATASET_URL", opts.DatasetURL)
	if len(env) == 0 {
		return nil
	}
	return env
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultClientConfigPath()
}

// findBinary looks for the server binary on PATH and in common locations.
func findBinary() (string, error) {
	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + BinaryName,
		"./build/" + BinaryName,
		filepath.Join(home, ".local", "bin", BinaryName),
		"/usr/local/bin/" + BinaryName,
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", BinaryName)
}

// Status is the registration state of the server.
type Status struct {
	ConfigPath    string   `json:"config_path"`
	Registered    bool     `json:"registered"`
	BinaryPath    string   `json:"binary_path,omitempty"`
	BinaryFound   bool     `json:"binary_found"`
	DataDir       string   `json:"data_dir"`
	DatasetSource string   `json:"dataset_source"`
	SQLiteReady   bool     `json:"sqlite_ready"`
	Issues        []string `json:"issues,omitempty"`
}

// GetStatus reports how the server is registered and whether its binary and
// SQLite dataset are in place.
func GetStatus(configPath string) (*Status, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	defaults := config.DefaultLiteConfig()
	status := &Status{
		ConfigPath:    path,
		DataDir:       defaults.DataDir,
		DatasetSource: defaults.DatasetSource,
	}

	cfg, err := LoadClientConfig(path)
	if err != nil {
		status.Issues = append(status.Issues, err.Error())
		return status, nil
	}

	entry, ok := cfg.MCPServers[ServerKey]
	if !ok {
		status.Issues = append(status.Issues, "server is not registered with the client")
		return status, nil
	}

	status.Registered = true
	status.BinaryPath = entry.Command
	if _, err := os.Stat(entry.Command); err == nil {
		status.BinaryFound = true
	} else {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	}

	if dir := entry.Env["CSCALC_DATA_DIR"]; dir != "" {
		status.DataDir = dir
	}
	if source := entry.Env["CSCALC_DATASET_SOURCE"]; source != "" {
		status.DatasetSource = source
	}

	if status.DatasetSource == domain.DatasetSourceSQLite {
		dbPath := entry.Env["CSCALC_DATASET_PATH"]
		if dbPath == "" {
			dbPath = filepath.Join(status.DataDir, "categories.db")
		}
		if _, err := os.Stat(dbPath); err == nil {
			status.SQLiteReady = true
		} else {
			status.Issues = append(status.Issues, fmt.Sprintf("SQLite dataset missing: %s (run cscalc categories import)", dbPath))
		}
	}

	return status, nil
}
