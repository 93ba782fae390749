// Package config loads the jvmget TOML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"

	"jvmget/logging"
	"jvmget/repository"
)

const (
	// EnvConfigPath overrides the default configuration file location
	EnvConfigPath = "JVMGET_CONFIG_PATH"
	// DefaultConfigFile is read from the working directory when nothing else is set
	DefaultConfigFile = "jvmget.toml"
	// DefaultCacertsPassword is the password JDK distributions ship their cacerts with
	DefaultCacertsPassword = "changeit"
	DefaultTimeoutSeconds  = 300
)

// GeneralConfig holds general configuration parameters
type GeneralConfig struct {
	LogLevel     string `toml:"log_level"`
	LogPath      string `toml:"log_path"`
	InstallRoot  string `toml:"install_root"`
	DownloadRoot string `toml:"download_root"`
	KeepArchives bool   `toml:"keep_archives"`
}

// CatalogConfig describes the release API to query
type CatalogConfig struct {
	APIURL         string `toml:"api_url"`
	JVMImpl        string `toml:"jvm_impl"`
	ImageType      string `toml:"image_type"`
	ArchiveFormat  string `toml:"archive_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Username       string `toml:"username,omitempty"` // Optional: for authenticated mirrors
	Password       string `toml:"password,omitempty"`
}

// PlatformConfig overrides the detected OS and architecture
type PlatformConfig struct {
	OS   string `toml:"os"`
	Arch string `toml:"arch"`
}

// CacertsConfig controls the keystore certificates are injected into
type CacertsConfig struct {
	Password string `toml:"password"`
	Path     string `toml:"path"` // relative to the runtime root, detected when empty
}

// CertificateEntry is a PEM certificate added to every fresh installation
type CertificateEntry struct {
	Path  string `toml:"path"`
	Alias string `toml:"alias"`
}

// Config represents the main configuration structure
type Config struct {
	General      GeneralConfig      `toml:"general"`
	Catalog      CatalogConfig      `toml:"catalog"`
	Platform     PlatformConfig     `toml:"platform"`
	Cacerts      CacertsConfig      `toml:"cacerts"`
	Certificates []CertificateEntry `toml:"certificates"`
}

// ExpandTilde expands ~ to the user's home directory
func ExpandTilde(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ResolvePath returns the configuration file to read.
// Priority: cliPath > JVMGET_CONFIG_PATH env var > ./jvmget.toml
func ResolvePath(cliPath string) string {
	if cliPath != "" {
		return cliPath
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}
	return DefaultConfigFile
}

// LoadConfig loads and parses the configuration file. A .env file in the
// working directory is loaded first so it can set JVMGET_CONFIG_PATH.
func LoadConfig(cliPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.PreLog("WARN", "⚠️  Failed to load .env file: %v", err)
	}

	configPath := ResolvePath(cliPath)
	logging.PreLog("DEBUG", "📂 Loading configuration from: %s", configPath)

	file, err := os.ReadFile(configPath)
	if err != nil {
		logging.PreLog("ERROR", "❌ Failed to read config file: %v", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(file)
	if err != nil {
		logging.PreLog("ERROR", "❌ %v", err)
		return nil, err
	}

	logging.SetPreLogLevel(cfg.General.LogLevel)
	logging.PreLog("DEBUG", "✅ Configuration successfully loaded and validated.")
	return cfg, nil
}

// Parse decodes a TOML document, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "already defined") {
			return nil, fmt.Errorf("failed to parse config file (duplicate keys): %w", err)
		}
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	logging.PreLog("DEBUG", "🔍 Decoded Config: %+v", cfg.redacted())

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.Catalog.APIURL == "" {
		c.Catalog.APIURL = repository.DefaultAPIURL
	}
	if c.Catalog.JVMImpl == "" {
		c.Catalog.JVMImpl = repository.DefaultJVMImpl
	}
	if c.Catalog.ImageType == "" {
		c.Catalog.ImageType = repository.DefaultImageType
	}
	if c.Catalog.ArchiveFormat == "" {
		c.Catalog.ArchiveFormat = repository.DefaultArchiveType
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Cacerts.Password == "" {
		c.Cacerts.Password = DefaultCacertsPassword
	}
}

func (c Config) redacted() Config {
	if c.Catalog.Password != "" {
		c.Catalog.Password = "********"
	}
	if c.Cacerts.Password != "" {
		c.Cacerts.Password = "********"
	}
	return c
}

// ResolvedPlatform returns the platform releases are selected for, applying
// the [platform] overrides to the detected one
func (c *Config) ResolvedPlatform() repository.Platform {
	p := repository.CurrentPlatform()
	if c.Platform.OS != "" {
		p.OS = repository.NormalizeOS(c.Platform.OS)
	}
	if c.Platform.Arch != "" {
		p.Arch = repository.NormalizeArch(c.Platform.Arch)
	}
	return p
}

// EnsureDirectoriesExist checks and creates required directories
func EnsureDirectoriesExist(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil, cannot ensure directories")
	}

	paths := []string{cfg.General.InstallRoot, cfg.General.DownloadRoot}
	if cfg.General.LogPath != "" {
		paths = append(paths, cfg.General.LogPath)
	}

	for _, path := range paths {
		logging.LogDebug("📂 Ensuring directory exists: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the configuration validity and expands ~ in paths
func (c *Config) Validate() error {
	if c.General.InstallRoot == "" {
		return fmt.Errorf("install_root must be set")
	}
	if c.General.DownloadRoot == "" {
		return fmt.Errorf("download_root must be set")
	}

	for _, p := range []*string{&c.General.InstallRoot, &c.General.DownloadRoot, &c.General.LogPath} {
		expanded, err := ExpandTilde(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	u, err := url.Parse(c.Catalog.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog api_url must be an http(s) URL: %q", c.Catalog.APIURL)
	}

	switch c.Catalog.ArchiveFormat {
	case "zip", "tar.gz", "tar.xz":
	default:
		return fmt.Errorf("unsupported archive_format %q", c.Catalog.ArchiveFormat)
	}

	for i := range c.Certificates {
		cert := &c.Certificates[i]
		if cert.Path == "" || cert.Alias == "" {
			return fmt.Errorf("certificate #%d needs both path and alias", i+1)
		}
		expanded, err := ExpandTilde(cert.Path)
		if err != nil {
			return err
		}
		cert.Path = expanded
	}
	return nil
}
