package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-shiplabel/internal/label"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 20 * 1024 * 1024 // 20MB
	DefaultScale       = 3
	MaxScale           = 8
	DefaultCacheSize   = 16

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "SHIPLABEL"
)

// Config holds all configuration for the shipping label server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Directories: uploads are read from InputDirectory, exports written to
	// OutputDirectory.
	InputDirectory  string
	OutputDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	Scale       int   // Raster pixels per base pixel
	CacheSize   int   // Parse results kept per document digest; 0 disables
	ConfigFile  string

	// Carrier tables, overridable from the config file
	Vocabulary label.Vocabulary
	Template   label.Template
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		InputDirectory:  currentDir,
		OutputDirectory: currentDir,
		Version:         "1.0.0",
		ServerName:      "mcp-shiplabel",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
		Scale:           DefaultScale,
		CacheSize:       DefaultCacheSize,
		Vocabulary:      label.DefaultVocabulary(),
		Template:        label.DefaultTemplate(),
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(viper.GetString("config")); err != nil {
		return nil, err
	}
	if err := populateConfigFromViper(cfg); err != nil {
		return nil, err
	}

	cfg.InputDirectory = absPath(cfg.InputDirectory)
	cfg.OutputDirectory = absPath(cfg.OutputDirectory)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	if expanded, err := filepath.Abs(p); err == nil {
		return expanded
	}
	return p
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.InputDirectory)
	viper.SetDefault("outdir", "")
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("scale", cfg.Scale)
	viper.SetDefault("cachesize", cfg.CacheSize)
	viper.SetDefault("config", "")
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.InputDirectory, "Directory containing shipment PDFs")
	pflag.String("outdir", "", "Directory for exported labels (defaults to --dir)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("scale", cfg.Scale, "Raster scale factor for exported labels")
	pflag.Int("cachesize", cfg.CacheSize, "Number of parsed documents to cache (0 disables)")
	pflag.String("config", "", "Config file with template and vocabulary overrides (yaml, toml or json)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{"mode", "host", "port", "dir", "outdir", "loglevel", "maxfilesize", "scale", "cachesize", "config"} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Shiplabel - reads carrier shipment PDFs and regenerates printable labels\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --outdir=/tmp/labels "+
			"# stdio mode with custom directories\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs        # HTTP server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config=carrier.yaml                    # custom vocabulary\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_MODE        Server mode\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_DIR         Input directory\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_OUTDIR      Export directory\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_MAXFILESIZE Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_SCALE       Raster scale factor\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_CACHESIZE   Parsed document cache size\n")
		fmt.Fprintf(os.Stderr, "  SHIPLABEL_CONFIG      Config file\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// readConfigFile merges an optional config file into viper.
func readConfigFile(path string) error {
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) error {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.InputDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("outdir")
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = cfg.InputDirectory
	}
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Scale = viper.GetInt("scale")
	cfg.CacheSize = viper.GetInt("cachesize")
	cfg.ConfigFile = viper.GetString("config")

	return populateTables(viper.GetViper(), cfg)
}

// populateTables reads the vocabulary and template sections. Missing tables
// keep their defaults.
func populateTables(v *viper.Viper, cfg *Config) error {
	var vocab label.Vocabulary
	if err := v.UnmarshalKey("vocabulary", &vocab); err != nil {
		return fmt.Errorf("invalid vocabulary section: %w", err)
	}
	var tmpl label.Template
	if err := v.UnmarshalKey("template", &tmpl); err != nil {
		return fmt.Errorf("invalid template section: %w", err)
	}
	cfg.Vocabulary = vocab.Merge(label.DefaultVocabulary())
	cfg.Template = tmpl.Merge(label.DefaultTemplate())
	return nil
}

// LoadTables reads only the vocabulary and template sections of a config
// file. An empty path returns the defaults.
func LoadTables(path string) (label.Vocabulary, label.Template, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg.Vocabulary, cfg.Template, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return label.Vocabulary{}, label.Template{}, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	if err := populateTables(v, cfg); err != nil {
		return label.Vocabulary{}, label.Template{}, err
	}
	return cfg.Vocabulary, cfg.Template, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.InputDirectory == "" {
		return errors.New("input directory cannot be empty")
	}
	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	// Create missing directories
	for _, dir := range []string{c.InputDirectory, c.OutputDirectory} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", dir, err)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Scale < 1 || c.Scale > MaxScale {
		return fmt.Errorf("scale must be between 1 and %d", MaxScale)
	}

	if c.CacheSize < 0 {
		return errors.New("cache size cannot be negative")
	}

	if c.Template.ColumnBoundary <= 0 {
		return errors.New("template column boundary must be positive")
	}
	if c.Template.GeometryPage < 1 {
		return errors.New("template geometry page must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
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

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, InputDirectory: %s, OutputDirectory: %s, LogLevel: %s, MaxFileSize: %d, Scale: %d, CacheSize: %d}",
		c.Mode, c.Host, c.Port, c.InputDirectory, c.OutputDirectory, c.LogLevel, c.MaxFileSize, c.Scale, c.CacheSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
