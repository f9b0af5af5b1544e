package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWSREEL_CONFIG"
	portEnv           = "NEWSREEL_PORT"
	dbPathEnv         = "NEWSREEL_DB_PATH"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	didAPIKeyEnv      = "DID_API_KEY"
	didPresenterEnv   = "DID_PRESENTER_ID"
	didVoiceEnv       = "DID_VOICE_ID"
	debugEnv          = "DEBUG"
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultPresenter  = "amy-jcwCkr1grs"
	defaultVoice      = "en-US-JennyNeural"
	defaultModel      = "gpt-4o-mini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	DID     DIDConfig     `yaml:"did"`
	Scraper ScraperConfig `yaml:"scraper"`
	Video   VideoConfig   `yaml:"video"`
	Storage StorageConfig `yaml:"storage"`
	Debug   bool          `yaml:"debug"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// OpenAIConfig defines how to contact the summarization API.
type OpenAIConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// DIDConfig defines how to contact the avatar video API.
type DIDConfig struct {
	BaseURL     string `yaml:"baseUrl"`
	APIKey      string `yaml:"apiKey"`
	PresenterID string `yaml:"presenterId"`
	VoiceID     string `yaml:"voiceId"`
}

// SourceConfig describes a single news site to scrape. Scanner selects the
// extraction strategy; empty means the generic homepage scanner.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Scanner string `yaml:"scanner"`
}

// ScraperConfig groups settings for article collection.
type ScraperConfig struct {
	Sources           []SourceConfig `yaml:"sources"`
	UserAgent         string         `yaml:"userAgent"`
	RequestTimeoutSec int            `yaml:"requestTimeoutSec"`
	TargetArticles    int            `yaml:"targetArticles"`
	MaxLinksPerSource int            `yaml:"maxLinksPerSource"`
}

// RequestTimeout resolves the scrape timeout as a duration.
func (s ScraperConfig) RequestTimeout() time.Duration {
	if s.RequestTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

// VideoConfig bounds the render poll loop.
type VideoConfig struct {
	PollIntervalSec int `yaml:"pollIntervalSec"`
	TimeoutSec      int `yaml:"timeoutSec"`
}

// PollInterval resolves the poll cadence as a duration.
func (v VideoConfig) PollInterval() time.Duration {
	if v.PollIntervalSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(v.PollIntervalSec) * time.Second
}

// Timeout resolves the render ceiling as a duration.
func (v VideoConfig) Timeout() time.Duration {
	if v.TimeoutSec <= 0 {
		return 300 * time.Second
	}
	return time.Duration(v.TimeoutSec) * time.Second
}

// StorageConfig describes the run-history database location. An empty path
// disables persistence.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Scraper.Sources) == 0 {
		cfg.Scraper.Sources = defaultConfig().Scraper.Sources
	}

	return cfg
}

// Validate fails fast when a required credential is absent so the pipeline
// never proceeds with an empty key.
func (c Config) Validate() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, openAIAPIKeyEnv)
	}
	if c.DID.APIKey == "" {
		missing = append(missing, didAPIKeyEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("configuration missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv(dbPathEnv); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(didAPIKeyEnv); v != "" {
		c.DID.APIKey = v
	}

	if v := os.Getenv(didPresenterEnv); v != "" {
		c.DID.PresenterID = v
	}

	if v := os.Getenv(didVoiceEnv); v != "" {
		c.DID.VoiceID = v
	}

	if v := os.Getenv(debugEnv); v != "" {
		c.Debug = strings.EqualFold(strings.TrimSpace(v), "true")
		if c.Debug {
			c.Logging.Level = "debug"
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != 0 {
		base.Server.Port = override.Server.Port
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.SystemPrompt != "" {
		base.OpenAI.SystemPrompt = override.OpenAI.SystemPrompt
	}

	if override.DID.BaseURL != "" {
		base.DID.BaseURL = override.DID.BaseURL
	}
	if override.DID.APIKey != "" {
		base.DID.APIKey = override.DID.APIKey
	}
	if override.DID.PresenterID != "" {
		base.DID.PresenterID = override.DID.PresenterID
	}
	if override.DID.VoiceID != "" {
		base.DID.VoiceID = override.DID.VoiceID
	}

	if len(override.Scraper.Sources) > 0 {
		base.Scraper.Sources = override.Scraper.Sources
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.RequestTimeoutSec != 0 {
		base.Scraper.RequestTimeoutSec = override.Scraper.RequestTimeoutSec
	}
	if override.Scraper.TargetArticles != 0 {
		base.Scraper.TargetArticles = override.Scraper.TargetArticles
	}
	if override.Scraper.MaxLinksPerSource != 0 {
		base.Scraper.MaxLinksPerSource = override.Scraper.MaxLinksPerSource
	}

	if override.Video.PollIntervalSec != 0 {
		base.Video.PollIntervalSec = override.Video.PollIntervalSec
	}
	if override.Video.TimeoutSec != 0 {
		base.Video.TimeoutSec = override.Video.TimeoutSec
	}

	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}

	if override.Debug {
		base.Debug = true
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Port: 8000},
		Logging: LoggingConfig{Level: "info"},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    defaultModel,
			APIKey:   "",
			SystemPrompt: "You are a professional news editor. Create concise, factual summaries " +
				"of news articles. Keep summaries to 3-4 sentences. Use neutral, objective tone. " +
				"Focus on key facts and main points.",
		},
		DID: DIDConfig{
			BaseURL:     "https://api.d-id.com",
			APIKey:      "",
			PresenterID: defaultPresenter,
			VoiceID:     defaultVoice,
		},
		Scraper: ScraperConfig{
			Sources: []SourceConfig{
				{Name: "bbc", URL: "https://www.bbc.com/news"},
				{Name: "reuters", URL: "https://www.reuters.com"},
				{Name: "apnews", URL: "https://apnews.com"},
				{Name: "npr", URL: "https://www.npr.org/sections/news"},
				{Name: "guardian", URL: "https://www.theguardian.com/world"},
			},
			UserAgent:         defaultUserAgent,
			RequestTimeoutSec: 30,
			TargetArticles:    5,
			MaxLinksPerSource: 10,
		},
		Video:   VideoConfig{PollIntervalSec: 5, TimeoutSec: 300},
		Storage: StorageConfig{Path: ""},
		Debug:   false,
	}
}
