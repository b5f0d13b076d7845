package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigFileName is the configuration file looked up when no
	// path is given.
	DefaultConfigFileName = "nutriplan.toml"

	// XDGConfigSubdir names the application directory under the XDG
	// config and data homes.
	XDGConfigSubdir = "nutriplan"
)

const defaultHeader = `# NutriPlan configuration
#
# Written on first run. Point [api].base_url at the planning backend
# before signing in.

`

// LoadError wraps a failure to read, parse or validate one file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the configuration. An explicit path is the only candidate
// when given. Otherwise the XDG config file wins over ./nutriplan.toml.
// With neither present and createDefault set, the defaults are written to
// the first writable candidate and returned; the returned path is empty
// when nothing could be written.
func Load(explicitPath string, createDefault bool) (*Config, string, error) {
	candidates := []string{explicitPath}
	if explicitPath == "" {
		candidates = searchPaths()
	}

	for _, p := range candidates {
		if explicitPath == "" && !isFile(p) {
			continue
		}
		cfg, err := readFile(p)
		if err != nil {
			return nil, "", &LoadError{Path: p, Err: err}
		}
		return cfg, p, nil
	}

	if !createDefault {
		return nil, "", fmt.Errorf("no configuration file found in %v", candidates)
	}

	cfg := Default()
	for _, p := range candidates {
		if err := Save(cfg, p); err == nil {
			return cfg, p, nil
		}
	}
	return cfg, "", nil
}

// searchPaths lists the implicit config locations, XDG first.
func searchPaths() []string {
	var paths []string
	if dir, err := xdgHome("XDG_CONFIG_HOME", ".config"); err == nil {
		paths = append(paths, filepath.Join(dir, XDGConfigSubdir, DefaultConfigFileName))
	}
	return append(paths, filepath.Join(".", DefaultConfigFileName))
}

// readFile decodes path over the defaults and validates the result.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML under a short header, creating its directory.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(defaultHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}
	if err := mkdirFor(path); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0640)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// xdgHome returns $env, or $HOME/fallback when it is unset.
func xdgHome(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback), nil
}

func mkdirFor(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0750)
}

// dataPath places a relative name under the application data directory.
// Absolute names are kept. Without a usable data home the name stays
// relative to the working directory.
func dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	home, err := xdgHome("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return name
	}
	dir := filepath.Join(home, XDGConfigSubdir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// EnsureDataDir returns the local store path with its directory created.
func EnsureDataDir(cfg *Config) (string, error) {
	p := dataPath(cfg.Database.Path)
	if err := mkdirFor(p); err != nil {
		return "", fmt.Errorf("creating database directory: %w", err)
	}
	return p, nil
}

// EnsureLogDir returns the log file path with its directory created. An
// empty path disables file logging.
func EnsureLogDir(cfg *Config) (string, error) {
	if cfg.Logging.File == "" {
		return "", nil
	}
	if err := mkdirFor(cfg.Logging.File); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	return cfg.Logging.File, nil
}

// ReportsDir creates the directory exported documents are written to.
// Relative paths resolve under the data directory, like the local store.
func ReportsDir(cfg *Config) (string, error) {
	dir := cfg.Reports.OutputDir
	if dir == "" {
		dir = "reportes"
	}
	dir = dataPath(dir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	return dir, nil
}
