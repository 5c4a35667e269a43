package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// envAddr resolves the listen address from ADDR or, failing that, PORT.
func envAddr() string {
	if v := strings.TrimSpace(os.Getenv("ADDR")); v != "" {
		return v
	}
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		return ":" + p
	}
	return ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// that are set. Used so env beats the config file while flags stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := envAddr(); v != "" {
		cfg.Addr = v
	}
	override(&cfg.Backend, "GATEWAY_BACKEND")
	override(&cfg.LLMBaseURL, "LLM_BASE_URL")
	override(&cfg.LLMModel, "LLM_MODEL")
	override(&cfg.LLMAPIKey, "LLM_API_KEY")
	override(&cfg.HFBaseURL, "HF_BASE_URL")
	override(&cfg.HFModel, "HF_MODEL")
	override(&cfg.HFAPIKey, "HF_API_KEY")
	override(&cfg.CacheDir, "CACHE_DIR")
	override(&cfg.LanguageHint, "LANGUAGE")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if d, err := time.ParseDuration(os.Getenv("CACHE_MAX_AGE")); err == nil {
		cfg.CacheMaxAge = d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_KEYWORDS"))); err == nil && n > 0 {
		cfg.MaxKeywords = n
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CACHE_MAX_BYTES")), 10, 64); err == nil && n >= 0 {
		cfg.CacheMaxBytes = n
	}
	setBool := func(dst *bool, key string) {
		if v, ok := parseBool(os.Getenv(key)); ok {
			*dst = v
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.SSLVerify, "SSL_VERIFY")
}
