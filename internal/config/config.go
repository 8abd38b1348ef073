package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMaxFileSize      = 10 * 1024 * 1024 // 10MB
	DefaultBackendTimeout   = 30 * time.Second
	DefaultReminderInterval = time.Minute
	DefaultBucket           = "sensitive-scan"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "SENSITIVE_SCAN"
)

// ErrVersionRequested is returned by Load when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// StorageConfig holds the S3-compatible object store settings. An empty
// Endpoint keeps uploads in memory.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// Config holds all configuration for the sensitive-scan service
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	PDFDirectory string
	MaxFileSize  int64 // Recommended maximum PDF size in bytes

	// Word and order store
	BackendURL     string
	BackendTimeout time.Duration

	// Reminders
	ReminderInterval time.Duration
	AckFile          string
	OrdersFile       string

	Storage StorageConfig

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	ackFile := filepath.Join(currentDir, ".sensitive-scan", "acks.json")
	if configDir, err := os.UserConfigDir(); err == nil {
		ackFile = filepath.Join(configDir, "sensitive-scan", "acks.json")
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		MaxFileSize:      DefaultMaxFileSize,
		BackendTimeout:   DefaultBackendTimeout,
		ReminderInterval: DefaultReminderInterval,
		AckFile:          ackFile,
		Storage: StorageConfig{
			Bucket: DefaultBucket,
		},
		Version:    "1.0.0",
		ServerName: "sensitive-scan",
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds the configuration from args, SENSITIVE_SCAN_* environment
// variables and an optional YAML file named by --config, in that order of
// precedence.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	// Check for version flag before parsing
	if versionRequested(args) {
		return nil, ErrVersionRequested
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet("sensitive-scan", pflag.ContinueOnError)
	defineCommandLineFlags(flags, cfg)
	flags.Usage = usage(flags)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := bindFlagsToViper(v, flags); err != nil {
		return nil, err
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("log-format", cfg.LogFormat)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("backend-url", cfg.BackendURL)
	v.SetDefault("backend-timeout", cfg.BackendTimeout)
	v.SetDefault("reminder-interval", cfg.ReminderInterval)
	v.SetDefault("ack-file", cfg.AckFile)
	v.SetDefault("orders-file", cfg.OrdersFile)
	v.SetDefault("storage.endpoint", cfg.Storage.Endpoint)
	v.SetDefault("storage.access-key", cfg.Storage.AccessKey)
	v.SetDefault("storage.secret-key", cfg.Storage.SecretKey)
	v.SetDefault("storage.bucket", cfg.Storage.Bucket)
	v.SetDefault("storage.use-ssl", cfg.Storage.UseSSL)
	v.SetDefault("storage.region", cfg.Storage.Region)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("config", "", "Optional YAML configuration file")
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	flags.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", cfg.LogFormat, "Log format (text, json)")
	flags.Int64("max-file-size", cfg.MaxFileSize, "Recommended maximum PDF file size in bytes")
	flags.String("backend-url", cfg.BackendURL, "Base URL of the word and order store")
	flags.Duration("backend-timeout", cfg.BackendTimeout, "Timeout for word and order store requests")
	flags.Duration("reminder-interval", cfg.ReminderInterval, "How often order reminders are evaluated")
	flags.String("ack-file", cfg.AckFile, "File holding acknowledged reminders")
	flags.String("orders-file", cfg.OrdersFile, "Optional JSON or YAML order list to watch")
	flags.String("storage-endpoint", cfg.Storage.Endpoint, "S3-compatible object store endpoint (host:port)")
	flags.String("storage-access-key", cfg.Storage.AccessKey, "Object store access key")
	flags.String("storage-secret-key", cfg.Storage.SecretKey, "Object store secret key")
	flags.String("storage-bucket", cfg.Storage.Bucket, "Object store bucket for uploaded documents")
	flags.Bool("storage-use-ssl", cfg.Storage.UseSSL, "Use TLS for the object store")
	flags.String("storage-region", cfg.Storage.Region, "Object store region")
	flags.BoolP("version", "v", false, "Print version and exit")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"mode":               "mode",
		"host":               "host",
		"port":               "port",
		"dir":                "dir",
		"log-level":          "log-level",
		"log-format":         "log-format",
		"max-file-size":      "max-file-size",
		"backend-url":        "backend-url",
		"backend-timeout":    "backend-timeout",
		"reminder-interval":  "reminder-interval",
		"ack-file":           "ack-file",
		"orders-file":        "orders-file",
		"storage.endpoint":   "storage-endpoint",
		"storage.access-key": "storage-access-key",
		"storage.secret-key": "storage-secret-key",
		"storage.bucket":     "storage-bucket",
		"storage.use-ssl":    "storage-use-ssl",
		"storage.region":     "storage-region",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// usage returns the custom usage message
func usage(flags *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage of sensitive-scan:\n")
		fmt.Fprintf(os.Stderr, "\nsensitive-scan - scans PDF documents for sensitive words and tracks order reminders\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sensitive-scan --dir=/path/to/pdfs --backend-url=http://localhost:5000\n")
		fmt.Fprintf(os.Stderr, "  sensitive-scan --mode=server --port=8081 --storage-endpoint=localhost:9000\n")
		fmt.Fprintf(os.Stderr, "\nEvery option can also be set as %s_<OPTION>, e.g. %s_BACKEND_URL.\n",
			envPrefix, envPrefix)
	}
}

func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.LogLevel = v.GetString("log-level")
	cfg.LogFormat = v.GetString("log-format")
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.BackendURL = strings.TrimRight(v.GetString("backend-url"), "/")
	cfg.BackendTimeout = v.GetDuration("backend-timeout")
	cfg.ReminderInterval = v.GetDuration("reminder-interval")
	cfg.AckFile = v.GetString("ack-file")
	cfg.OrdersFile = v.GetString("orders-file")
	cfg.Storage = StorageConfig{
		Endpoint:  v.GetString("storage.endpoint"),
		AccessKey: v.GetString("storage.access-key"),
		SecretKey: v.GetString("storage.secret-key"),
		Bucket:    v.GetString("storage.bucket"),
		UseSSL:    v.GetBool("storage.use-ssl"),
		Region:    v.GetString("storage.region"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	if c.BackendTimeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if c.ReminderInterval <= 0 {
		return errors.New("reminder interval must be positive")
	}
	if c.AckFile == "" {
		return errors.New("acknowledgment file cannot be empty")
	}

	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		return errors.New("storage bucket cannot be empty when an endpoint is set")
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration with secrets masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, LogFormat: %s, "+
		"MaxFileSize: %d, BackendURL: %s, ReminderInterval: %s, AckFile: %s, OrdersFile: %s, "+
		"Storage: {Endpoint: %s, Bucket: %s, AccessKey: %s, SecretKey: %s}}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.LogFormat,
		c.MaxFileSize, c.BackendURL, c.ReminderInterval, c.AckFile, c.OrdersFile,
		c.Storage.Endpoint, c.Storage.Bucket, mask(c.Storage.AccessKey), mask(c.Storage.SecretKey))
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// IsServerMode returns true if the service is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the service is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// BackendConfigured reports whether a word and order store URL is set
func (c *Config) BackendConfigured() bool {
	return c.BackendURL != ""
}

// StorageConfigured reports whether an object store endpoint is set
func (c *Config) StorageConfigured() bool {
	return c.Storage.Endpoint != ""
}
