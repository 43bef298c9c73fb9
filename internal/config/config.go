package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultOutputFile   = "PLANTILLA_PAGOS_REDIRECCIONAMIENTO.xlsx"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultMaxPages     = 10
	DefaultMinTextChars = 50
	DefaultFetchTimeout = 10 * time.Second

	// Canonical reference dataset file names
	FileRedireccionamiento = "DETALLE AFILIADOS REDIRECCIONAMIENTO.xlsx"
	FilePresunta           = "DETALLE AFILIADOS PRESUNTA.xlsx"
)

// Config holds all configuration for the planilla reader
type Config struct {
	// Input/output configuration
	InputDir   string
	OutputFile string

	// Reference dataset configuration
	RediPath     string
	PresPath     string
	RediURL      string
	PresURL      string
	FetchTimeout time.Duration

	// Text acquisition configuration
	MaxPages     int
	MinTextChars int
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// Optional external text extractor (pdftotext-compatible binary)
	PdftotextPath string

	// Application configuration
	Version  string
	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		InputDir:     currentDir,
		OutputFile:   DefaultOutputFile,
		RediPath:     filepath.Join(currentDir, FileRedireccionamiento),
		PresPath:     filepath.Join(currentDir, FilePresunta),
		FetchTimeout: DefaultFetchTimeout,
		MaxPages:     DefaultMaxPages,
		MinTextChars: DefaultMinTextChars,
		MaxFileSize:  DefaultMaxFileSize,
		Version:      "1.0.0",
		LogLevel:     DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.InputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.InputDir); err == nil {
			cfg.InputDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("PLANILLA")
	viper.AutomaticEnv()

	viper.SetDefault("dir", cfg.InputDir)
	viper.SetDefault("out", cfg.OutputFile)
	viper.SetDefault("redi", cfg.RediPath)
	viper.SetDefault("presunta", cfg.PresPath)
	viper.SetDefault("rediurl", cfg.RediURL)
	viper.SetDefault("presuntaurl", cfg.PresURL)
	viper.SetDefault("fetchtimeout", cfg.FetchTimeout)
	viper.SetDefault("maxpages", cfg.MaxPages)
	viper.SetDefault("mintextchars", cfg.MinTextChars)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("pdftotext", cfg.PdftotextPath)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("dir", cfg.InputDir, "Directory containing planilla PDF files")
	pflag.String("out", cfg.OutputFile, "Output XLSX file path")
	pflag.String("redi", cfg.RediPath, "Local path of the REDIRECCIONAMIENTO dataset")
	pflag.String("presunta", cfg.PresPath, "Local path of the PRESUNTA dataset")
	pflag.String("rediurl", cfg.RediURL, "Remote URL of the REDIRECCIONAMIENTO dataset")
	pflag.String("presuntaurl", cfg.PresURL, "Remote URL of the PRESUNTA dataset")
	pflag.Duration("fetchtimeout", cfg.FetchTimeout, "Timeout for remote dataset fetches")
	pflag.Int("maxpages", cfg.MaxPages, "Maximum PDF pages scanned per document")
	pflag.Int("mintextchars", cfg.MinTextChars, "Minimum non-whitespace characters for a usable extraction")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("pdftotext", cfg.PdftotextPath, "Path to a pdftotext binary used as last-resort extractor")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("redi", pflag.Lookup("redi"))
	_ = viper.BindPFlag("presunta", pflag.Lookup("presunta"))
	_ = viper.BindPFlag("rediurl", pflag.Lookup("rediurl"))
	_ = viper.BindPFlag("presuntaurl", pflag.Lookup("presuntaurl"))
	_ = viper.BindPFlag("fetchtimeout", pflag.Lookup("fetchtimeout"))
	_ = viper.BindPFlag("maxpages", pflag.Lookup("maxpages"))
	_ = viper.BindPFlag("mintextchars", pflag.Lookup("mintextchars"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("pdftotext", pflag.Lookup("pdftotext"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPlanilla Reader - extracts payroll declaration data from PDF planillas\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/planillas\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/planillas --out=resultado.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --redi=bases/redi.xlsx --presunta=bases/presunta.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_DIR           Input PDF directory\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_OUT           Output XLSX path\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_REDI          REDIRECCIONAMIENTO dataset path\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_PRESUNTA      PRESUNTA dataset path\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_REDIURL       REDIRECCIONAMIENTO dataset URL\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_PRESUNTAURL   PRESUNTA dataset URL\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_PDFTOTEXT     pdftotext binary path\n")
		fmt.Fprintf(os.Stderr, "  PLANILLA_LOGLEVEL      Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.InputDir = viper.GetString("dir")
	cfg.OutputFile = viper.GetString("out")
	cfg.RediPath = viper.GetString("redi")
	cfg.PresPath = viper.GetString("presunta")
	cfg.RediURL = viper.GetString("rediurl")
	cfg.PresURL = viper.GetString("presuntaurl")
	cfg.FetchTimeout = viper.GetDuration("fetchtimeout")
	cfg.MaxPages = viper.GetInt("maxpages")
	cfg.MinTextChars = viper.GetInt("mintextchars")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.PdftotextPath = viper.GetString("pdftotext")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory cannot be empty")
	}

	info, err := os.Stat(c.InputDir)
	if err != nil {
		return fmt.Errorf("cannot access input directory %s: %w", c.InputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", c.InputDir)
	}

	if c.OutputFile == "" {
		return errors.New("output file cannot be empty")
	}

	if c.MaxPages <= 0 {
		return errors.New("maximum page count must be positive")
	}

	if c.MinTextChars < 0 {
		return errors.New("minimum text length cannot be negative")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
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

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// HasRemoteSources reports whether any reference dataset URL is configured
func (c *Config) HasRemoteSources() bool {
	return c.RediURL != "" || c.PresURL != ""
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{InputDir: %s, OutputFile: %s, RediPath: %s, PresPath: %s, MaxPages: %d, LogLevel: %s}",
		c.InputDir, c.OutputFile, c.RediPath, c.PresPath, c.MaxPages, c.LogLevel)
}
