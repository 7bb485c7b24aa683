package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Tracing    TracingConfig
	Timeline   TimelineConfig
	Export     ExportConfig
	Dictionary DictionaryCacheConfig
	Runs       RunsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify operator tokens.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TracingConfig toggles the OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	SamplerRatio float64
}

// TimelineConfig carries the engine constants.
type TimelineConfig struct {
	CurrentPeriod       int
	UpcomingPeriods     []int
	SummerMarker        int
	CarryForwardWindow  int
	FullTimeHours       decimal.Decimal
	TermSuffixes        map[string]int
	ExcludedPrefixes    []string
	VocationalMajor     string
	NonDegreeAdultMajor string
	DefaultCollege      string
	DefaultDegree       string
	DefaultProgram      string
}

// Column is a constant NAME=VALUE pair appended to every exported row.
type Column struct {
	Name  string
	Value string
}

// ExportConfig controls where run output is written and how it is shared.
type ExportConfig struct {
	StorageDir      string
	Filename        string
	SummaryPDF      bool
	ConstantColumns []Column
	SignedURLSecret string
	SignedURLTTL    time.Duration
	// Retention prunes artifacts older than this after a successful run; zero keeps everything.
	Retention       time.Duration
}

// DictionaryCacheConfig governs caching of the program dictionaries in Redis.
type DictionaryCacheConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// RunsConfig configures API-triggered background runs.
type RunsConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	History           int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Tracing = TracingConfig{
		Enabled:      v.GetBool("OTEL_ENABLED"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		SamplerRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
	}

	upcoming, err := parseInts(v.GetString("TIMELINE_UPCOMING_PERIODS"))
	if err != nil {
		return nil, fmt.Errorf("TIMELINE_UPCOMING_PERIODS: %w", err)
	}
	suffixes, err := parseSuffixes(v.GetString("TIMELINE_TERM_SUFFIXES"))
	if err != nil {
		return nil, fmt.Errorf("TIMELINE_TERM_SUFFIXES: %w", err)
	}
	fullTime, err := decimal.NewFromString(v.GetString("TIMELINE_FULL_TIME_HOURS"))
	if err != nil {
		return nil, fmt.Errorf("TIMELINE_FULL_TIME_HOURS: %w", err)
	}
	cfg.Timeline = TimelineConfig{
		CurrentPeriod:       v.GetInt("TIMELINE_CURRENT_PERIOD"),
		UpcomingPeriods:     upcoming,
		SummerMarker:        v.GetInt("TIMELINE_SUMMER_MARKER"),
		CarryForwardWindow:  v.GetInt("TIMELINE_CARRY_FORWARD_WINDOW"),
		FullTimeHours:       fullTime,
		TermSuffixes:        suffixes,
		ExcludedPrefixes:    splitAndTrim(v.GetString("TIMELINE_EXCLUDED_CALENDAR_PREFIXES")),
		VocationalMajor:     v.GetString("TIMELINE_VOCATIONAL_MAJOR"),
		NonDegreeAdultMajor: v.GetString("TIMELINE_NON_DEGREE_ADULT_MAJOR"),
		DefaultCollege:      v.GetString("TIMELINE_DEFAULT_COLLEGE"),
		DefaultDegree:       v.GetString("TIMELINE_DEFAULT_DEGREE"),
		DefaultProgram:      v.GetString("TIMELINE_DEFAULT_PROGRAM"),
	}

	columns, err := parseColumns(v.GetString("EXPORT_CONSTANT_COLUMNS"))
	if err != nil {
		return nil, fmt.Errorf("EXPORT_CONSTANT_COLUMNS: %w", err)
	}
	cfg.Export = ExportConfig{
		StorageDir:      v.GetString("EXPORT_STORAGE_DIR"),
		Filename:        v.GetString("EXPORT_FILENAME"),
		SummaryPDF:      v.GetBool("EXPORT_SUMMARY_PDF"),
		ConstantColumns: columns,
		SignedURLSecret: v.GetString("EXPORT_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORT_SIGNED_URL_TTL"), 24*time.Hour),
		Retention:       parseDuration(v.GetString("EXPORT_RETENTION"), 0),
	}

	cfg.Dictionary = DictionaryCacheConfig{
		Enabled:  v.GetBool("ENABLE_DICTIONARY_CACHE"),
		CacheTTL: parseDuration(v.GetString("DICTIONARY_CACHE_TTL"), time.Hour),
	}

	cfg.Runs = RunsConfig{
		WorkerConcurrency: v.GetInt("RUNS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("RUNS_WORKER_RETRIES"),
		History:           v.GetInt("RUNS_HISTORY"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "registrar")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "term-timeline")
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)

	v.SetDefault("TIMELINE_CURRENT_PERIOD", 0)
	v.SetDefault("TIMELINE_UPCOMING_PERIODS", "")
	v.SetDefault("TIMELINE_SUMMER_MARKER", 6)
	v.SetDefault("TIMELINE_CARRY_FORWARD_WINDOW", 6)
	v.SetDefault("TIMELINE_FULL_TIME_HOURS", "12")
	v.SetDefault("TIMELINE_TERM_SUFFIXES", "SP=1,S1=5,S2=6,FA=9")
	v.SetDefault("TIMELINE_EXCLUDED_CALENDAR_PREFIXES", "9999")
	v.SetDefault("TIMELINE_VOCATIONAL_MAJOR", "VOC")
	v.SetDefault("TIMELINE_NON_DEGREE_ADULT_MAJOR", "NDA")
	v.SetDefault("TIMELINE_DEFAULT_COLLEGE", "00")
	v.SetDefault("TIMELINE_DEFAULT_DEGREE", "ND")
	v.SetDefault("TIMELINE_DEFAULT_PROGRAM", "ND-000")

	v.SetDefault("EXPORT_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORT_FILENAME", "term_timeline.csv")
	v.SetDefault("EXPORT_SUMMARY_PDF", false)
	v.SetDefault("EXPORT_CONSTANT_COLUMNS", "")
	v.SetDefault("EXPORT_SIGNED_URL_SECRET", "dev_export_secret")
	v.SetDefault("EXPORT_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORT_RETENTION", "")

	v.SetDefault("ENABLE_DICTIONARY_CACHE", false)
	v.SetDefault("DICTIONARY_CACHE_TTL", "1h")

	v.SetDefault("RUNS_WORKER_CONCURRENCY", 1)
	v.SetDefault("RUNS_WORKER_RETRIES", 0)
	v.SetDefault("RUNS_HISTORY", 20)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseInts(raw string) ([]int, error) {
	parts := splitAndTrim(raw)
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		result = append(result, n)
	}
	return result, nil
}

func splitPair(part string) (string, string, error) {
	name, value, ok := strings.Cut(part, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected NAME=VALUE, got %q", part)
	}
	return name, strings.TrimSpace(value), nil
}

func parseSuffixes(raw string) (map[string]int, error) {
	result := make(map[string]int)
	for _, part := range splitAndTrim(raw) {
		label, value, err := splitPair(part)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 99 {
			return nil, fmt.Errorf("suffix for %s must be 1..99, got %q", label, value)
		}
		result[strings.ToUpper(label)] = n
	}
	return result, nil
}

func parseColumns(raw string) ([]Column, error) {
	parts := splitAndTrim(raw)
	result := make([]Column, 0, len(parts))
	for _, part := range parts {
		name, value, err := splitPair(part)
		if err != nil {
			return nil, err
		}
		result = append(result, Column{Name: name, Value: value})
	}
	return result, nil
}
