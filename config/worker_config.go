// Package config loads the worker configuration.
//
// Values resolve in this order: environment-scoped key ("prod.SHEET_ID" in the
// YAML file or PROD_SHEET_ID in the environment), plain key (SHEET_ID), then the
// committed default. The scope is the value of ENV.
package config

import (
	"fmt"
	"strings"
	"time"

	"draft_worker/pkg/apperr"

	"github.com/spf13/viper"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// State backends for the seen set.
const (
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendPgx      = "pgx"
)

// defaults are safe fallbacks only. Deployments set real values per environment.
var defaults = map[string]any{
	"ENV": EnvDev,

	"SHEET_ID":              "dev-sheet-id-here",
	"SHEET_TAB":             "Sheet1",
	"OUTPUT_ROOT_FOLDER_ID": "dev-folder-id-here",
	"SLIDES_TEMPLATE_ID":    "dev-slides-template-id",
	"DOC_TEMPLATE_ID":       "dev-doc-template-id",

	"INBOX_LABEL":         "MEM",
	"PROCESSED_LABEL":     "MEM/Closed",
	"LOOKBACK_HOURS":      720,
	"MAX_THREADS_PER_RUN": 30,
	"RETRY_ATTEMPTS":      8,

	"STATE_KEY":             "DRAFTS_SEEN_URL_HASHES_V1",
	"STATE_BACKEND":         BackendSQLite,
	"DATABASE_URL":          "file:draft_worker.db",
	"PROPERTY_TABLE":        "script_properties",
	"REDIS_URL":             "redis://localhost:6379/0",
	"DEDUPE_RETENTION_DAYS": 30,

	"MONGODB_NAME":          "draft_worker",
	"REPORT_RETENTION_DAYS": 90,

	"LLM_MODEL":       "gpt-4o-mini",
	"LLM_MAX_TOKENS":  1024,
	"LLM_TEMPERATURE": 0.7,
	"DRAFT_AI_ALL":    false,

	"STREAM_ENABLED": false,
	"STREAM_NAME":    "drafts:ready",
	"STREAM_MAX_LEN": 1000,

	"PORT":        "8080",
	"SCHEDULE":    "@every 15m",
	"RUN_TIMEOUT": "10m",
	"LOG_LEVEL":   "info",
	"DEBUG":       true,
}

// requiredKeys must resolve to a non-empty value. In prod they must also differ
// from the committed default.
var requiredKeys = []string{
	"SHEET_ID",
	"OUTPUT_ROOT_FOLDER_ID",
	"SLIDES_TEMPLATE_ID",
	"DOC_TEMPLATE_ID",
}

type Config struct {
	Env      string
	Port     string
	LogLevel string
	Debug    bool

	// Google OAuth (installed-app refresh token)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	// Drive resources
	SheetID            string
	SheetTab           string
	OutputRootFolderID string
	SlidesTemplateID   string
	DocTemplateID      string

	// Intake
	InboxLabel       string
	ProcessedLabel   string
	LookbackHours    int
	MaxThreadsPerRun int
	RetryAttempts    int

	// Seen-set state
	StateKey        string
	StateBackend    string
	DatabaseURL     string
	PropertyTable   string
	RedisURL        string
	DedupeRetention time.Duration

	// Run reports
	MongoDBURL      string
	MongoDBName     string
	ReportRetention time.Duration

	// OpenAI
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	DraftAIAll     bool

	// Notification
	NotifyEmail      string
	TelegramBotToken string
	TelegramChatID   int64
	StreamEnabled    bool
	StreamName       string
	StreamMaxLen     int64

	// API / scheduling
	JWTSecret  string
	Schedule   string
	RunTimeout time.Duration
}

// Load reads the optional YAML file at path (empty skips it) and the environment.
// It does not validate; call Validate before touching external resources.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.ConfigError(fmt.Sprintf("reading %s: %v", path, err))
		}
	}

	r := resolver{v: v, env: strings.ToLower(strings.TrimSpace(v.GetString("ENV")))}
	if r.env == "" {
		r.env = EnvDev
	}

	runTimeout, err := time.ParseDuration(r.getString("RUN_TIMEOUT"))
	if err != nil {
		return nil, apperr.ConfigError(fmt.Sprintf("RUN_TIMEOUT: %v", err))
	}

	cfg := &Config{
		Env:      r.env,
		Port:     r.getString("PORT"),
		LogLevel: r.getString("LOG_LEVEL"),
		Debug:    r.getBool("DEBUG"),

		GoogleClientID:     r.getString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: r.getString("GOOGLE_CLIENT_SECRET"),
		GoogleRefreshToken: r.getString("GOOGLE_REFRESH_TOKEN"),

		SheetID:            r.getString("SHEET_ID"),
		SheetTab:           r.getString("SHEET_TAB"),
		OutputRootFolderID: r.getString("OUTPUT_ROOT_FOLDER_ID"),
		SlidesTemplateID:   r.getString("SLIDES_TEMPLATE_ID"),
		DocTemplateID:      r.getString("DOC_TEMPLATE_ID"),

		InboxLabel:       r.getString("INBOX_LABEL"),
		ProcessedLabel:   r.getString("PROCESSED_LABEL"),
		LookbackHours:    r.getInt("LOOKBACK_HOURS"),
		MaxThreadsPerRun: r.getInt("MAX_THREADS_PER_RUN"),
		RetryAttempts:    r.getInt("RETRY_ATTEMPTS"),

		StateKey:        r.getString("STATE_KEY"),
		StateBackend:    strings.ToLower(r.getString("STATE_BACKEND")),
		DatabaseURL:     r.getString("DATABASE_URL"),
		PropertyTable:   r.getString("PROPERTY_TABLE"),
		RedisURL:        r.getString("REDIS_URL"),
		DedupeRetention: days(r.getInt("DEDUPE_RETENTION_DAYS")),

		MongoDBURL:      r.getString("MONGODB_URL"),
		MongoDBName:     r.getString("MONGODB_NAME"),
		ReportRetention: days(r.getInt("REPORT_RETENTION_DAYS")),

		OpenAIAPIKey:   r.getString("OPENAI_API_KEY"),
		OpenAIBaseURL:  r.getString("OPENAI_BASE_URL"),
		LLMModel:       r.getString("LLM_MODEL"),
		LLMMaxTokens:   r.getInt("LLM_MAX_TOKENS"),
		LLMTemperature: r.getFloat("LLM_TEMPERATURE"),
		DraftAIAll:     r.getBool("DRAFT_AI_ALL"),

		NotifyEmail:      r.getString("NOTIFY_EMAIL"),
		TelegramBotToken: r.getString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   r.getInt64("TELEGRAM_CHAT_ID"),
		StreamEnabled:    r.getBool("STREAM_ENABLED"),
		StreamName:       r.getString("STREAM_NAME"),
		StreamMaxLen:     r.getInt64("STREAM_MAX_LEN"),

		JWTSecret:  r.getString("API_JWT_SECRET"),
		Schedule:   r.getString("SCHEDULE"),
		RunTimeout: runTimeout,
	}
	return cfg, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	values := map[string]string{
		"SHEET_ID":              c.SheetID,
		"OUTPUT_ROOT_FOLDER_ID": c.OutputRootFolderID,
		"SLIDES_TEMPLATE_ID":    c.SlidesTemplateID,
		"DOC_TEMPLATE_ID":       c.DocTemplateID,
	}
	for _, key := range requiredKeys {
		val := values[key]
		if val == "" {
			return apperr.ConfigError(fmt.Sprintf("missing config for %s: %s", c.Env, key))
		}
		if c.IsProduction() && val == defaults[key] {
			return apperr.ConfigError(fmt.Sprintf("%s is using the default value for %s; set %s.%s", c.Env, key, c.Env, key))
		}
	}

	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRefreshToken == "" {
		return apperr.ConfigError("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN are required")
	}
	if c.InboxLabel == "" || c.ProcessedLabel == "" {
		return apperr.ConfigError("INBOX_LABEL and PROCESSED_LABEL are required")
	}
	if c.LookbackHours <= 0 || c.MaxThreadsPerRun <= 0 {
		return apperr.ConfigError("LOOKBACK_HOURS and MAX_THREADS_PER_RUN must be positive")
	}

	switch c.StateBackend {
	case BackendRedis:
		if c.RedisURL == "" {
			return apperr.ConfigError("REDIS_URL is required for the redis state backend")
		}
	case BackendSQLite, BackendPostgres, BackendPgx:
		if c.DatabaseURL == "" {
			return apperr.ConfigError("DATABASE_URL is required for the " + c.StateBackend + " state backend")
		}
	default:
		return apperr.ConfigError("unknown STATE_BACKEND: " + c.StateBackend)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDev
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// LLMEnabled reports whether the generative caption path can be used.
func (c *Config) LLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// NeedsRedis reports whether a Redis connection is required.
func (c *Config) NeedsRedis() bool {
	return c.StateBackend == BackendRedis || c.StreamEnabled
}

// NeedsSQL reports whether the state backend is a SQL database.
func (c *Config) NeedsSQL() bool {
	switch c.StateBackend {
	case BackendSQLite, BackendPostgres, BackendPgx:
		return true
	}
	return false
}

// resolver applies the environment scope to every lookup.
type resolver struct {
	v   *viper.Viper
	env string
}

func (r resolver) key(key string) string {
	scoped := r.env + "." + key
	if r.v.IsSet(scoped) {
		return scoped
	}
	return key
}

func (r resolver) getString(key string) string {
	return strings.TrimSpace(r.v.GetString(r.key(key)))
}

func (r resolver) getInt(key string) int {
	return r.v.GetInt(r.key(key))
}

func (r resolver) getInt64(key string) int64 {
	return r.v.GetInt64(r.key(key))
}

func (r resolver) getFloat(key string) float64 {
	return r.v.GetFloat64(r.key(key))
}

func (r resolver) getBool(key string) bool {
	return r.v.GetBool(r.key(key))
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
