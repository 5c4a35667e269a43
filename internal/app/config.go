package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Server
	Addr           string
	AllowedOrigins []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration

	// Gateway
	Backend      string
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	SystemPrompt string
	HFBaseURL    string
	HFModel      string
	HFAPIKey     string
	EchoPrefix   string
	// SSLVerify=false accepts self-signed upstream certificates.
	SSLVerify bool

	// Keywords and highlighting
	MinLength        int
	MaxKeywords      int
	HighlightDefault string
	LanguageHint     string

	// One-shot mode: when InputPath is set the app processes the file and exits.
	InputPath     string
	OutputPath    string
	OutputPDFPath string

	// Summary cache; disabled when CacheDir is empty.
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxEntries  int
	CacheMaxBytes    int64
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
	LogJSON bool
}

// Defaults shared by flag parsing and file config overlay.
const (
	DefaultAddr           = ":8000"
	DefaultBackend        = "openai"
	DefaultMinLength      = 4
	DefaultMaxKeywords    = 5
	DefaultHighlight      = "simplified"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRequestTimeout = 90 * time.Second
	DefaultOutputPath     = "-"
)
