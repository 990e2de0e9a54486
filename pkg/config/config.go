// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all DataScope configuration.
type Config struct {
	Version int `yaml:"version"`

	Engine    EngineConfig    `yaml:"engine"`
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig controls the ingestion engine.
type EngineConfig struct {
	Default string `yaml:"default"` // native | duckdb
}

// ServerConfig for the HTTP server.
type ServerConfig struct {
	Port              int    `yaml:"port"`
	Host              string `yaml:"host"`
	UploadDir         string `yaml:"upload_dir"`
	ReportsDir        string `yaml:"reports_dir"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes"`
	MaxConcurrentRuns int    `yaml:"max_concurrent_runs"`
}

// LLMConfig for the reasoning client. APIKeyEnv names the environment
// variable holding the key; the key itself never lives in config files.
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// ArchiveConfig for report persistence.
type ArchiveConfig struct {
	Backend string `yaml:"backend"` // local | redis | s3

	Dir string `yaml:"dir"` // local backend

	Redis RedisArchiveConfig `yaml:"redis"`
	S3    S3ArchiveConfig    `yaml:"s3"`
}

// RedisArchiveConfig for the Redis archive backend.
type RedisArchiveConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// S3ArchiveConfig for the S3 archive backend.
type S3ArchiveConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".datascope")

	return &Config{
		Version: 1,
		Engine: EngineConfig{
			Default: "native",
		},
		Server: ServerConfig{
			Port:              8000,
			Host:              "localhost",
			UploadDir:         filepath.Join(baseDir, "uploads"),
			ReportsDir:        filepath.Join(baseDir, "reports"),
			MaxUploadBytes:    200 << 20,
			MaxConcurrentRuns: 2,
		},
		LLM: LLMConfig{
			Enabled:     true,
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4.1-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			MaxRetries:  3,
		},
		Archive: ArchiveConfig{
			Backend: "local",
			Dir:     filepath.Join(baseDir, "archive"),
			Redis: RedisArchiveConfig{
				Prefix: "datascope:reports:",
				TTL:    7 * 24 * time.Hour,
			},
			S3: S3ArchiveConfig{
				Prefix: "reports/",
			},
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	for _, path := range m.configPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()
	m.ensureDirs()
	return nil
}

// configPaths returns config file paths in priority order.
func (m *Manager) configPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/datascope/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".datascope", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".datascope.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Engine.Default != "" {
		m.config.Engine.Default = src.Engine.Default
	}

	if src.Server.Port != 0 {
		m.config.Server.Port = src.Server.Port
	}
	if src.Server.Host != "" {
		m.config.Server.Host = src.Server.Host
	}
	if src.Server.UploadDir != "" {
		m.config.Server.UploadDir = src.Server.UploadDir
	}
	if src.Server.ReportsDir != "" {
		m.config.Server.ReportsDir = src.Server.ReportsDir
	}
	if src.Server.MaxUploadBytes != 0 {
		m.config.Server.MaxUploadBytes = src.Server.MaxUploadBytes
	}
	if src.Server.MaxConcurrentRuns != 0 {
		m.config.Server.MaxConcurrentRuns = src.Server.MaxConcurrentRuns
	}

	if src.LLM.BaseURL != "" {
		m.config.LLM.BaseURL = src.LLM.BaseURL
	}
	if src.LLM.Model != "" {
		m.config.LLM.Model = src.LLM.Model
	}
	if src.LLM.APIKeyEnv != "" {
		m.config.LLM.APIKeyEnv = src.LLM.APIKeyEnv
	}
	if src.LLM.Temperature != 0 {
		m.config.LLM.Temperature = src.LLM.Temperature
	}
	if src.LLM.Timeout != 0 {
		m.config.LLM.Timeout = src.LLM.Timeout
	}
	if src.LLM.MaxRetries != 0 {
		m.config.LLM.MaxRetries = src.LLM.MaxRetries
	}

	if src.Archive.Backend != "" {
		m.config.Archive.Backend = src.Archive.Backend
	}
	if src.Archive.Dir != "" {
		m.config.Archive.Dir = src.Archive.Dir
	}
	if src.Archive.Redis.Address != "" {
		m.config.Archive.Redis.Address = src.Archive.Redis.Address
	}
	if src.Archive.Redis.Password != "" {
		m.config.Archive.Redis.Password = src.Archive.Redis.Password
	}
	if src.Archive.Redis.Database != 0 {
		m.config.Archive.Redis.Database = src.Archive.Redis.Database
	}
	if src.Archive.Redis.Prefix != "" {
		m.config.Archive.Redis.Prefix = src.Archive.Redis.Prefix
	}
	if src.Archive.Redis.TTL != 0 {
		m.config.Archive.Redis.TTL = src.Archive.Redis.TTL
	}
	if src.Archive.S3.Bucket != "" {
		m.config.Archive.S3.Bucket = src.Archive.S3.Bucket
	}
	if src.Archive.S3.Prefix != "" {
		m.config.Archive.S3.Prefix = src.Archive.S3.Prefix
	}
	if src.Archive.S3.Region != "" {
		m.config.Archive.S3.Region = src.Archive.S3.Region
	}
	if src.Archive.S3.Endpoint != "" {
		m.config.Archive.S3.Endpoint = src.Archive.S3.Endpoint
	}
	if src.Archive.S3.UsePathStyle {
		m.config.Archive.S3.UsePathStyle = true
	}

	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("DATASCOPE_ENGINE"); v != "" {
		m.config.Engine.Default = v
	}
	if v := os.Getenv("DATASCOPE_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			m.config.Server.Port = port
		}
	}
	if v := os.Getenv("DATASCOPE_LLM_MODEL"); v != "" {
		m.config.LLM.Model = v
	}
	if v := os.Getenv("DATASCOPE_LLM_BASE_URL"); v != "" {
		m.config.LLM.BaseURL = v
	}
	if v := os.Getenv("DATASCOPE_ARCHIVE"); v != "" {
		m.config.Archive.Backend = v
	}
	if v := os.Getenv("DATASCOPE_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// APIKey resolves the LLM API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// ensureDirs creates necessary directories.
func (m *Manager) ensureDirs() {
	dirs := []string{
		m.config.Server.UploadDir,
		m.config.Server.ReportsDir,
	}
	if m.config.Archive.Backend == "local" {
		dirs = append(dirs, m.config.Archive.Dir)
	}

	for _, dir := range dirs {
		os.MkdirAll(dir, 0755)
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".datascope")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}
