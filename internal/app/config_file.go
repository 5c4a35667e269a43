package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/gosimplify/internal/gateway"
	"github.com/hyperifyio/gosimplify/internal/simplify"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Input     string `yaml:"input" json:"input"`
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
	Language  string `yaml:"language" json:"language"`
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	LogJSON   bool   `yaml:"logJSON" json:"logJSON"`

	Gateway struct {
		Backend      string `yaml:"backend" json:"backend"`
		SystemPrompt string `yaml:"systemPrompt" json:"systemPrompt"`
		SSLVerify    *bool  `yaml:"sslVerify" json:"sslVerify"`
	} `yaml:"gateway" json:"gateway"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	HF struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"hf" json:"hf"`

	Echo struct {
		Prefix string `yaml:"prefix" json:"prefix"`
	} `yaml:"echo" json:"echo"`

	Keywords struct {
		MinLength int `yaml:"minLength" json:"minLength"`
		MaxCount  int `yaml:"maxCount" json:"maxCount"`
	} `yaml:"keywords" json:"keywords"`

	Highlight struct {
		Default string `yaml:"default" json:"default"`
	} `yaml:"highlight" json:"highlight"`

	CORS struct {
		Origins []string `yaml:"origins" json:"origins"`
	} `yaml:"cors" json:"cors"`

	Server struct {
		MaxBodyBytes   int64         `yaml:"maxBodyBytes" json:"maxBodyBytes"`
		RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
	} `yaml:"server" json:"server"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are unset
// or still hold their flag default, so explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, def, v string) {
		if (*dst == "" || *dst == def) && v != "" {
			*dst = v
		}
	}
	num := func(dst *int, def, v int) {
		if (*dst == 0 || *dst == def) && v > 0 {
			*dst = v
		}
	}
	flag := func(dst *bool, v bool) {
		if !*dst && v {
			*dst = true
		}
	}

	str(&cfg.Addr, DefaultAddr, fc.Addr)
	str(&cfg.InputPath, "", fc.Input)
	str(&cfg.OutputPath, DefaultOutputPath, fc.Output)
	str(&cfg.OutputPDFPath, "", fc.OutputPDF)
	str(&cfg.LanguageHint, "", fc.Language)
	flag(&cfg.Verbose, fc.Verbose)
	flag(&cfg.LogJSON, fc.LogJSON)

	str(&cfg.Backend, DefaultBackend, fc.Gateway.Backend)
	str(&cfg.SystemPrompt, "", fc.Gateway.SystemPrompt)
	if fc.Gateway.SSLVerify != nil {
		cfg.SSLVerify = *fc.Gateway.SSLVerify
	}
	str(&cfg.LLMBaseURL, "", fc.LLM.BaseURL)
	str(&cfg.LLMModel, "", fc.LLM.Model)
	str(&cfg.LLMAPIKey, "", fc.LLM.APIKey)
	str(&cfg.HFBaseURL, "", fc.HF.BaseURL)
	str(&cfg.HFModel, "", fc.HF.Model)
	str(&cfg.HFAPIKey, "", fc.HF.APIKey)
	str(&cfg.EchoPrefix, "", fc.Echo.Prefix)

	num(&cfg.MinLength, DefaultMinLength, fc.Keywords.MinLength)
	num(&cfg.MaxKeywords, DefaultMaxKeywords, fc.Keywords.MaxCount)
	str(&cfg.HighlightDefault, DefaultHighlight, fc.Highlight.Default)

	if len(cfg.AllowedOrigins) == 0 && len(fc.CORS.Origins) > 0 {
		cfg.AllowedOrigins = append([]string{}, fc.CORS.Origins...)
	}
	if (cfg.MaxBodyBytes == 0 || cfg.MaxBodyBytes == DefaultMaxBodyBytes) && fc.Server.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.Server.MaxBodyBytes
	}
	if (cfg.RequestTimeout == 0 || cfg.RequestTimeout == DefaultRequestTimeout) && fc.Server.RequestTimeout > 0 {
		cfg.RequestTimeout = fc.Server.RequestTimeout
	}

	str(&cfg.CacheDir, "", fc.Cache.Dir)
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	num(&cfg.CacheMaxEntries, 0, fc.Cache.MaxEntries)
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	flag(&cfg.CacheClear, fc.Cache.Clear)
	flag(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
}

// ValidateConfig rejects settings the app cannot start with.
func ValidateConfig(cfg Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend != "" && !slices.Contains(gateway.Backends, backend) {
		return fmt.Errorf("config: gateway.backend %q is not one of %s", cfg.Backend, strings.Join(gateway.Backends, ", "))
	}
	if (backend == "" || backend == gateway.BackendOpenAI) && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required for the openai backend (or set LLM_MODEL)")
	}
	if cfg.MaxBodyBytes < 0 || cfg.CacheMaxEntries < 0 || cfg.CacheMaxBytes < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	// Zero would silently fall back to the keyword defaults.
	if cfg.MinLength < 1 {
		return fmt.Errorf("config: keywords.minLength must be at least 1, got %d", cfg.MinLength)
	}
	if cfg.MaxKeywords < 1 {
		return fmt.Errorf("config: keywords.maxCount must be at least 1, got %d", cfg.MaxKeywords)
	}
	if _, err := simplify.ParseTarget(cfg.HighlightDefault, simplify.TargetSimplified); err != nil {
		return fmt.Errorf("config: highlight.default: %w", err)
	}
	if _, err := simplify.ParseLanguage(cfg.LanguageHint); err != nil {
		return fmt.Errorf("config: language: %w", err)
	}
	return nil
}
