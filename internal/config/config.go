package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/vbind/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vbind.json"

	// DefaultPort is the default live server port.
	DefaultPort = 3000

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultResumeWindow is how long a disconnected session can resume.
	DefaultResumeWindow = "10m"

	// DefaultStoreDriver keeps session snapshots in memory.
	DefaultStoreDriver = "memory"
)

// Config represents the complete vbind.json configuration.
type Config struct {
	// Template is the page to bind: a path, file:// or s3:// URL.
	Template string `json:"template"`

	// Model is the initial model document, JSON or YAML. Optional.
	Model string `json:"model,omitempty"`

	// Mount is the id of the element to compile. Empty mounts the body.
	Mount string `json:"mount,omitempty"`

	// Title overrides the template title.
	Title string `json:"title,omitempty"`

	// IgnorePrefixes are model paths kept out of change detection.
	IgnorePrefixes []string `json:"ignorePrefixes,omitempty"`

	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Session contains session configuration.
	Session SessionConfig `json:"session,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// S3 configures s3:// sources.
	S3 S3Config `json:"s3,omitempty"`

	// Log configures the process logger.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// TrustProxy takes client addresses from forwarding headers.
	TrustProxy bool `json:"trustProxy,omitempty"`

	// ReadTimeout closes silent connections (e.g., "60s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// Heartbeat is the ping interval (e.g., "25s").
	Heartbeat string `json:"heartbeat,omitempty"`

	// MaxMessageSize limits client frames in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`
}

// SessionConfig contains session configuration.
type SessionConfig struct {
	// ResumeWindow is the duration for session resumption (e.g., "10m").
	ResumeWindow string `json:"resumeWindow,omitempty"`

	// MaxDetached caps disconnected sessions held in memory.
	MaxDetached int `json:"maxDetached,omitempty"`

	// MaxPerIP caps sessions per client address. 0 disables the limit.
	MaxPerIP int `json:"maxPerIP,omitempty"`

	// Store selects where snapshots are written.
	Store StoreConfig `json:"store,omitempty"`
}

// StoreConfig selects the session snapshot store.
type StoreConfig struct {
	// Driver is "memory" or "bolt".
	Driver string `json:"driver,omitempty"`

	// Path is the bolt database file.
	Path string `json:"path,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics on the live server.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// S3Config configures the S3 client used for s3:// sources.
type S3Config struct {
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Session: SessionConfig{
			ResumeWindow: DefaultResumeWindow,
			Store:        StoreConfig{Driver: DefaultStoreDriver},
		},
		Metrics: MetricsConfig{Namespace: "vbind"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from the specified directory.
// It looks for vbind.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E401").
				WithDetail("No vbind.json found in " + filepath.Dir(path)).
				WithSuggestion("Create vbind.json with at least a \"template\" entry")
		}
		return nil, errors.New("E400").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E400").
			WithDetail("Failed to parse vbind.json: " + err.Error()).
			WithSuggestion("Check that vbind.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E400").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E400").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Session.ResumeWindow == "" {
		c.Session.ResumeWindow = DefaultResumeWindow
	}
	if c.Session.Store.Driver == "" {
		c.Session.Store.Driver = DefaultStoreDriver
	}
	if c.Session.Store.Driver == "bolt" && c.Session.Store.Path == "" {
		c.Session.Store.Path = "sessions.db"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "vbind"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Template == "" {
		return errors.New("E400").
			WithDetail("\"template\" is required").
			WithSuggestion("Point \"template\" at an HTML file, e.g. \"index.html\"")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E400").
			WithDetail("Port must be between 0 and 65535")
	}
	for name, d := range map[string]string{
		"session.resumeWindow": c.Session.ResumeWindow,
		"server.readTimeout":   c.Server.ReadTimeout,
		"server.heartbeat":     c.Server.Heartbeat,
	} {
		if d == "" {
			continue
		}
		if v, err := time.ParseDuration(d); err != nil || v < 0 {
			return errors.New("E400").
				WithDetail(name + " is not a valid duration: " + strconv.Quote(d))
		}
	}
	switch c.Session.Store.Driver {
	case "memory", "bolt":
	default:
		return errors.New("E400").
			WithDetail("Unknown session store driver " + strconv.Quote(c.Session.Store.Driver)).
			WithSuggestion("Use \"memory\" or \"bolt\"")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E400").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E400").
			WithDetail("Unknown log format " + strconv.Quote(c.Log.Format))
	}
	return nil
}

// Address returns the listen address of the live server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the base URL of the live server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// ResumeWindow returns the session resume window.
func (c *Config) ResumeWindow() time.Duration {
	return duration(c.Session.ResumeWindow)
}

// ReadTimeout returns the connection read timeout, or 0 for the default.
func (c *Config) ReadTimeout() time.Duration {
	return duration(c.Server.ReadTimeout)
}

// Heartbeat returns the ping interval, or 0 for the default.
func (c *Config) Heartbeat() time.Duration {
	return duration(c.Server.Heartbeat)
}

// Resolve returns loc relative to the config directory. URLs and absolute
// paths are returned unchanged.
func (c *Config) Resolve(loc string) string {
	if loc == "" || strings.Contains(loc, "://") || filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(c.Dir(), loc)
}

// TemplatePath returns the resolved template location.
func (c *Config) TemplatePath() string {
	return c.Resolve(c.Template)
}

// ModelPath returns the resolved model location, or "" when unset.
func (c *Config) ModelPath() string {
	return c.Resolve(c.Model)
}

// StorePath returns the resolved bolt database path.
func (c *Config) StorePath() string {
	return c.Resolve(c.Session.Store.Path)
}

// UsesS3 reports whether any source is read from S3.
func (c *Config) UsesS3() bool {
	return strings.HasPrefix(c.Template, "s3://") || strings.HasPrefix(c.Model, "s3://")
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing vbind.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E401").
				WithDetail("No vbind.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

func duration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
