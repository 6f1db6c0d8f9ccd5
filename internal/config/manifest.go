// Package config loads the application manifest: identity, window layout,
// capability scopes and logging. A default manifest is compiled into the
// binary; ZEN_MANIFEST points at a replacement file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvManifest = "ZEN_MANIFEST"
	EnvLogLevel = "ZEN_LOG_LEVEL"
	EnvJSONLogs = "ZEN_JSON_LOGS"
)

//go:embed zen-manager.yaml
var defaultManifest []byte

var ErrInvalidManifest = errors.New("invalid manifest")

type Manifest struct {
	ProductName string  `yaml:"productName"`
	Identifier  string  `yaml:"identifier"`
	Version     string  `yaml:"version"`
	App         App     `yaml:"app"`
	Plugins     Plugins `yaml:"plugins"`
	Logging     Logging `yaml:"logging"`
}

type App struct {
	Windows []Window `yaml:"windows"`
}

type Window struct {
	Title     string  `yaml:"title"`
	Width     float32 `yaml:"width"`
	Height    float32 `yaml:"height"`
	Resizable bool    `yaml:"resizable"`
}

type Plugins struct {
	FS           FSConfig           `yaml:"fs"`
	Notification NotificationConfig `yaml:"notification"`
	HTTP         HTTPConfig         `yaml:"http"`
}

type FSConfig struct {
	// Scope lists the base directories the front-end may touch
	Scope []string `yaml:"scope"`
}

type NotificationConfig struct {
	Enabled bool `yaml:"enabled"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Allow   []string      `yaml:"allow"`
	Deny    []string      `yaml:"deny"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the embedded manifest
func Default() (Manifest, error) {
	return Parse(defaultManifest)
}

// Load resolves the manifest for this process: the file named by
// ZEN_MANIFEST if set, the embedded default otherwise, followed by
// environment overrides and validation.
func Load() (Manifest, error) {
	var (
		m   Manifest
		err error
	)

	if path := os.Getenv(EnvManifest); path != "" {
		m, err = LoadFile(path)
	} else {
		m, err = Default()
	}
	if err != nil {
		return Manifest{}, err
	}

	applyEnv(&m)

	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func LoadFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return m, nil
}

func applyEnv(m *Manifest) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		m.Logging.Level = level
	}
	if os.Getenv(EnvJSONLogs) == "true" {
		m.Logging.JSON = true
	}
}

// MainWindow is the first configured window
func (m Manifest) MainWindow() Window {
	if len(m.App.Windows) == 0 {
		return Window{}
	}
	return m.App.Windows[0]
}

func (m Manifest) Validate() error {
	var problems []string

	if strings.TrimSpace(m.ProductName) == "" {
		problems = append(problems, "productName is required")
	}
	if !validIdentifier(m.Identifier) {
		problems = append(problems, fmt.Sprintf("identifier %q must be reverse-DNS, e.g. com.example.app", m.Identifier))
	}

	if len(m.App.Windows) == 0 {
		problems = append(problems, "at least one window is required")
	}
	for i, w := range m.App.Windows {
		if w.Width <= 0 || w.Height <= 0 {
			problems = append(problems, fmt.Sprintf("window %d: width and height must be positive", i))
		}
	}

	for _, name := range m.Plugins.FS.Scope {
		if !knownBaseDirectory(name) {
			problems = append(problems, fmt.Sprintf("fs scope: unknown base directory %q", name))
		}
	}

	if m.Plugins.HTTP.Timeout < 0 {
		problems = append(problems, "http timeout must not be negative")
	}
	for _, pattern := range append(append([]string{}, m.Plugins.HTTP.Allow...), m.Plugins.HTTP.Deny...) {
		if err := validURLPattern(pattern); err != nil {
			problems = append(problems, fmt.Sprintf("http scope %q: %v", pattern, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(problems, "; "))
	}
	return nil
}

func validIdentifier(id string) bool {
	parts := strings.Split(id, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if !(r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
	}
	return true
}

// kept in sync with fs.BaseDirectory names
var baseDirectoryNames = map[string]struct{}{
	"appData":      {},
	"appLocalData": {},
	"appConfig":    {},
	"appCache":     {},
	"appLog":       {},
	"temp":         {},
	"home":         {},
}

func knownBaseDirectory(name string) bool {
	_, ok := baseDirectoryNames[name]
	return ok
}

func validURLPattern(pattern string) error {
	u, err := url.Parse(strings.ReplaceAll(pattern, "*", "x"))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
