// Package config manages application configuration: a JSON config file with
// environment overrides for credentials, and a defaulting pass so zero
// values never reach the pipeline. The loaded value is threaded explicitly
// into the components that need it; there is no process-wide mutable state.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	"doctrans/internal/logger"
	"doctrans/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "doctrans-config.json"
	// EnvAPIKey is the environment variable name for the translator API key
	EnvAPIKey = "OPENAI_API_KEY"
	// EnvBaseURL is the environment variable name for the API base URL
	EnvBaseURL = "OPENAI_BASE_URL"
	// DefaultBaseURL is the default API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default translation model
	DefaultModel = "gpt-4o"
	// DefaultMaxBatchChars bounds the joined size of one translation batch
	DefaultMaxBatchChars = 4000
	// DefaultMaxSegmentChars bounds the size of one segment
	DefaultMaxSegmentChars = 4000
	// DefaultMaxRetries is the retry budget per batch
	DefaultMaxRetries = 3
	// DefaultRetryDelaySeconds is the base backoff delay between attempts
	DefaultRetryDelaySeconds = 2
	// DefaultConcurrency is the number of concurrently translated languages
	DefaultConcurrency = 3
	// DefaultSourceLang is the assumed source language
	DefaultSourceLang = "en"
)

// Config is the application configuration value.
type Config struct {
	APIKey            string   `json:"api_key"`
	BaseURL           string   `json:"base_url"`
	Model             string   `json:"model"`
	SourceLang        string   `json:"source_lang"`
	TargetLangs       []string `json:"target_langs"`
	Domain            string   `json:"domain"`
	GlossaryDir       string   `json:"glossary_dir"`
	MaxBatchChars     int      `json:"max_batch_chars"`
	MaxSegmentChars   int      `json:"max_segment_chars"`
	MaxRetries        int      `json:"max_retries"`
	RetryDelaySeconds int      `json:"retry_delay_seconds"`
	Concurrency       int      `json:"concurrency"`
	InputTokenRate    float64  `json:"input_token_rate"`
	OutputTokenRate   float64  `json:"output_token_rate"`
	CachePath         string   `json:"cache_path"`
	OutputDir         string   `json:"output_dir"`
	LogLevel          string   `json:"log_level"`
}

// Manager loads and persists the configuration file.
type Manager struct {
	configPath string
	config     *Config
}

// NewManager creates a Manager for the given config path; empty means the
// default location under the user's config directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "doctrans", DefaultConfigFileName)
	}

	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Model:           DefaultModel,
		SourceLang:      DefaultSourceLang,
		MaxBatchChars:   DefaultMaxBatchChars,
		MaxSegmentChars: DefaultMaxSegmentChars,
		MaxRetries:      DefaultMaxRetries,
		Concurrency:     DefaultConcurrency,
		LogLevel:        "info",
	}
}

// Load reads the config file, falling back to defaults when it is absent or
// malformed, then applies environment overrides and the defaulting pass.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			m.config = config
		}
	}

	m.applyEnvOverrides()
	m.applyDefaults()

	return m.Validate()
}

// Save writes the current configuration to the config file.
func (m *Manager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}
	return nil
}

// Get returns the loaded configuration value.
func (m *Manager) Get() *Config {
	return m.config
}

func (m *Manager) applyEnvOverrides() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		m.config.APIKey = key
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		m.config.BaseURL = url
	}
}

func (m *Manager) applyDefaults() {
	c := m.config
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.SourceLang == "" {
		c.SourceLang = DefaultSourceLang
	}
	if c.MaxBatchChars <= 0 {
		c.MaxBatchChars = DefaultMaxBatchChars
	}
	if c.MaxSegmentChars <= 0 {
		c.MaxSegmentChars = DefaultMaxSegmentChars
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelaySeconds <= 0 {
		c.RetryDelaySeconds = DefaultRetryDelaySeconds
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the language tags; other fields are covered by the
// defaulting pass.
func (m *Manager) Validate() error {
	if _, err := language.Parse(m.config.SourceLang); err != nil {
		return types.NewAppErrorWithDetails(types.ErrConfig, "invalid source language tag", m.config.SourceLang, err)
	}
	for _, lang := range m.config.TargetLangs {
		if _, err := language.Parse(lang); err != nil {
			return types.NewAppErrorWithDetails(types.ErrConfig, "invalid target language tag", lang, err)
		}
	}
	return nil
}
