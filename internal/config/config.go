package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "config/config.toml"

// Duration decodes TOML strings such as "20s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	Mode        string   `toml:"mode"`
	CORSOrigins []string `toml:"cors_origins"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ClassifierConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

type DetectionConfig struct {
	Threshold    float64 `toml:"threshold"`
	CleanLabel   string  `toml:"clean_label"`
	AbusiveLabel string  `toml:"abusive_label"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type RefinementPrompts struct {
	System string `toml:"system_prompt"`
	User   string `toml:"user_prompt"`
}

type RefinementConfig struct {
	Prompts           RefinementPrompts `toml:"prompts"`
	CallTimeout       Duration          `toml:"call_timeout"`
	RateLimitBackoff  Duration          `toml:"rate_limit_backoff"`
	RetryAfterBackoff bool              `toml:"retry_after_backoff"`
	Concurrency       int               `toml:"concurrency"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Classifier ClassifierConfig `toml:"classifier"`
	Detection  DetectionConfig  `toml:"detection"`
	LLM        LLMConfig        `toml:"llm"`
	Refinement RefinementConfig `toml:"refinement"`
}

const defaultSystemPrompt = `당신은 온라인 상의 공격적인 표현을 부드럽게 바꾸는 전문가입니다.
사용자의 문장에서 혐오 표현으로 의심되는 부분을 순화하여, 의미는 유지하되 감정적으로 자극적이지 않게 고쳐주세요.
최종 응답은 반드시 순화된 문장만 출력해주세요. 다른 설명이나 문장 없이, 순화된 문장 하나만 주셔야 합니다.`

// The first %s is the original sentence, the second the comma-joined labels.
const defaultUserPrompt = `다음은 혐오 표현을 포함한 문장입니다:

[원문]: %s
[혐오 라벨]: %s

이 문장을 의미를 유지하면서 부드럽게 순화해 주세요.`

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Classifier: ClassifierConfig{
			BaseURL: "http://localhost:8000",
			Timeout: Duration{10 * time.Second},
		},
		Detection: DetectionConfig{
			Threshold:    0.5,
			CleanLabel:   "clean",
			AbusiveLabel: "악플/욕설",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Refinement: RefinementConfig{
			Prompts: RefinementPrompts{
				System: defaultSystemPrompt,
				User:   defaultUserPrompt,
			},
			CallTimeout:      Duration{30 * time.Second},
			RateLimitBackoff: Duration{20 * time.Second},
			Concurrency:      4,
		},
	}
}

// Load reads a TOML file on top of Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// Resolve picks the config source: an explicit path must exist, while a
// missing default file falls back to Default. Environment overrides are
// applied last.
func Resolve(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	cfg, err := Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("CLASSIFIER_URL"); v != "" {
		c.Classifier.BaseURL = v
	}
	if v := os.Getenv("DETECTION_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DETECTION_THRESHOLD %q: %w", v, err)
		}
		c.Detection.Threshold = threshold
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	return nil
}

var providers = map[string]bool{
	"openai": true,
	"ollama": true,
	"claude": true,
	"gemini": true,
}

func (c *Config) Validate() error {
	var errs []error
	if c.Detection.Threshold < 0 || c.Detection.Threshold > 1 {
		errs = append(errs, fmt.Errorf("detection.threshold must be within [0,1], got %v", c.Detection.Threshold))
	}
	if c.Detection.CleanLabel == "" {
		errs = append(errs, errors.New("detection.clean_label must not be empty"))
	}
	if c.Detection.AbusiveLabel == "" {
		errs = append(errs, errors.New("detection.abusive_label must not be empty"))
	}
	if n := strings.Count(c.Refinement.Prompts.User, "%s"); n != 2 {
		errs = append(errs, fmt.Errorf("refinement.prompts.user_prompt needs two %%s verbs (text, labels), found %d", n))
	}
	if c.Refinement.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("refinement.concurrency must be positive, got %d", c.Refinement.Concurrency))
	}
	if c.Refinement.CallTimeout.Duration < 0 || c.Refinement.RateLimitBackoff.Duration < 0 || c.Classifier.Timeout.Duration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if !providers[strings.ToLower(c.LLM.Provider)] {
		errs = append(errs, fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider))
	}
	return errors.Join(errs...)
}
