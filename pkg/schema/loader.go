package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileNames are the file names probed during discovery, in order.
var ConfigFileNames = []string{"crank.yaml", "crank.yml", ".crank.yaml", ".crank.yml"}

// ConfigurationError reports a configuration that could not be read or
// parsed. It aborts the run before any command resolution happens.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LoadFile reads and parses a configuration file. Unknown keys, misspelled
// aliases, and malformed shorthands are rejected by the decoders.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Path = path
			return nil, ce
		}
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	return cfg, nil
}

// Load parses a configuration document from r.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigurationError{Err: errors.New("empty document")}
		}
		return nil, &ConfigurationError{Err: err}
	}
	return &cfg, nil
}

// FindConfigFile searches dir and its parents for a configuration file,
// returning the first hit. The search stops at the filesystem root.
func FindConfigFile(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &ConfigurationError{Err: err}
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(abs, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			break
		}
		abs = parent
	}
	return "", &ConfigurationError{
		Err: fmt.Errorf("no %s found (searched from %s upward)", ConfigFileNames[0], dir),
	}
}
