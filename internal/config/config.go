// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"conversation-agent/internal/domain/model"
)

// Defaults mirror the setup form of the assistant entry.
const (
	DefaultName        = "AI Assistant"
	DefaultModel       = "mistral:7b"
	DefaultProvider    = "openai_compat"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7

	MinMaxTokens   = 1
	MaxMaxTokens   = 4000
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	JWTSecret      string        `yaml:"jwt_secret"` // empty disables auth
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL       string        `yaml:"url"` // empty disables rate limiting
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	RateLimit int           `yaml:"rate_limit"` // utterances per window per user
	Window    time.Duration `yaml:"window"`
}

type HassConfig struct {
	BaseURL string `yaml:"base_url"` // empty serves StaticStates instead
	Token   string `yaml:"token"`
	// StaticStates maps entity id to state for local development.
	StaticStates map[string]string `yaml:"static_states"`
}

type WorkerConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// HistoryConfig controls the idle sweep; IdleTTL 0 keeps transcripts for the
// lifetime of the session.
type HistoryConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type I18nConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

// EntryOptions are the fields editable after setup. Nil means "not set".
type EntryOptions struct {
	SystemPrompt *string  `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	MaxTokens    *int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

// EntryConfig is one configured assistant.
type EntryConfig struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	APIKey       string       `yaml:"api_key"`
	BaseURL      string       `yaml:"base_url"`
	Model        string       `yaml:"model"`
	Provider     string       `yaml:"provider"` // openai_compat | openai_sdk | noop
	MaxTokens    int          `yaml:"max_tokens"`
	Temperature  *float64     `yaml:"temperature"`
	SystemPrompt string       `yaml:"system_prompt"`
	Options      EntryOptions `yaml:"options"`
}

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Redis   RedisConfig   `yaml:"redis"`
	Hass    HassConfig    `yaml:"hass"`
	Worker  WorkerConfig  `yaml:"worker"`
	History HistoryConfig `yaml:"history"`
	I18n    I18nConfig    `yaml:"i18n"`
	Entries []EntryConfig `yaml:"entries"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes, defaults and validates a YAML document.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8085
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 8
	}
	if cfg.Worker.QueueSize <= 0 {
		cfg.Worker.QueueSize = cfg.Worker.Workers * 4
	}
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = "de"
	}
	if cfg.Redis.RateLimit <= 0 {
		cfg.Redis.RateLimit = 30
	}
	cfg.Redis.Window = normalizeWindow(cfg.Redis.Window)
	if cfg.History.IdleTTL > 0 && cfg.History.SweepInterval <= 0 {
		cfg.History.SweepInterval = 10 * time.Minute
	}

	seen := make(map[string]struct{}, len(cfg.Entries))
	for i := range cfg.Entries {
		e := &cfg.Entries[i]
		e.applyDefaults()
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("entries[%d]: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if len(cfg.Entries) == 0 {
		return nil, errors.New("at least one entry is required")
	}
	return &cfg, nil
}

func (e *EntryConfig) applyDefaults() {
	e.ID = strings.TrimSpace(e.ID)
	if e.Name == "" {
		e.Name = DefaultName
	}
	if e.ID == "" {
		e.ID = slug(e.Name)
	}
	if e.Model == "" {
		e.Model = DefaultModel
	}
	if e.Provider == "" {
		e.Provider = DefaultProvider
	}
	if e.MaxTokens == 0 {
		e.MaxTokens = DefaultMaxTokens
	}
	if e.Temperature == nil {
		t := DefaultTemperature
		e.Temperature = &t
	}
}

// Validate applies the setup-form rules to the entry data and its options.
func (e *EntryConfig) Validate() error {
	switch e.Provider {
	case "openai_compat", "openai_sdk":
		if strings.TrimSpace(e.APIKey) == "" {
			return errors.New("api_key is required")
		}
		if strings.TrimSpace(e.BaseURL) == "" {
			return errors.New("base_url is required")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown provider %q", e.Provider)
	}
	if strings.TrimSpace(e.Model) == "" {
		return errors.New("model is required")
	}
	if err := validateMaxTokens(e.MaxTokens); err != nil {
		return err
	}
	if e.Temperature != nil {
		if err := validateTemperature(*e.Temperature); err != nil {
			return err
		}
	}
	return e.Options.Validate()
}

func (o EntryOptions) Validate() error {
	if o.MaxTokens != nil {
		if err := validateMaxTokens(*o.MaxTokens); err != nil {
			return err
		}
	}
	if o.Temperature != nil {
		if err := validateTemperature(*o.Temperature); err != nil {
			return err
		}
	}
	return nil
}

// Settings merges options over the entry data. An empty options system prompt
// falls back to the one given at setup.
func (e EntryConfig) Settings() model.Settings {
	s := model.Settings{
		EntryID:      e.ID,
		Name:         e.Name,
		Provider:     e.Provider,
		BaseURL:      strings.TrimRight(e.BaseURL, "/"),
		APIKey:       e.APIKey,
		Model:        e.Model,
		MaxTokens:    e.MaxTokens,
		Temperature:  DefaultTemperature,
		SystemPrompt: e.SystemPrompt,
	}
	if e.Temperature != nil {
		s.Temperature = *e.Temperature
	}
	if o := e.Options.SystemPrompt; o != nil && *o != "" {
		s.SystemPrompt = *o
	}
	if o := e.Options.MaxTokens; o != nil {
		s.MaxTokens = *o
	}
	if o := e.Options.Temperature; o != nil {
		s.Temperature = *o
	}
	return s
}

func validateMaxTokens(n int) error {
	if n < MinMaxTokens || n > MaxMaxTokens {
		return fmt.Errorf("max_tokens must be between %d and %d, got %d", MinMaxTokens, MaxMaxTokens, n)
	}
	return nil
}

func validateTemperature(t float64) error {
	if t < MinTemperature || t > MaxTemperature {
		return fmt.Errorf("temperature must be between %.1f and %.1f, got %g", MinTemperature, MaxTemperature, t)
	}
	return nil
}

func normalizeWindow(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}
