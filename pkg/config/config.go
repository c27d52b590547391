// Package config loads newsreader settings from a YAML file and the
// environment.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Article  ArticleConfig  `yaml:"article"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig holds the backend service settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"API_BASE_URL"        env-default:"http://localhost:8000" validate:"required,url"`
	NewsTimeout    time.Duration `yaml:"news_timeout"    env:"API_NEWS_TIMEOUT"    env-default:"60s"                   validate:"gt=0"`
	ArticleTimeout time.Duration `yaml:"article_timeout" env:"API_ARTICLE_TIMEOUT" env-default:"60s"                   validate:"gt=0"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout"  env:"API_LOOKUP_TIMEOUT"  env-default:"10s"                   validate:"gt=0"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker around word analysis.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"      env:"API_BREAKER_MAX_REQUESTS"      env-default:"1"   validate:"gte=1"`
	Interval         time.Duration `yaml:"interval"          env:"API_BREAKER_INTERVAL"          env-default:"30s" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout"           env:"API_BREAKER_TIMEOUT"           env-default:"30s" validate:"gt=0"`
	FailureThreshold float64       `yaml:"failure_threshold" env:"API_BREAKER_FAILURE_THRESHOLD" env-default:"0.8" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests"      env:"API_BREAKER_MIN_REQUESTS"      env-default:"5"   validate:"gte=1"`
}

// StorageConfig selects where the vocabulary list is persisted.
type StorageConfig struct {
	Driver      string        `yaml:"driver"       env:"STORAGE_DRIVER"       env-default:"sqlite"                  validate:"oneof=sqlite redis memory"`
	SQLitePath  string        `yaml:"sqlite_path"  env:"STORAGE_SQLITE_PATH"  env-default:"newsreader.db"`
	RedisURL    string        `yaml:"redis_url"    env:"STORAGE_REDIS_URL"    env-default:"redis://localhost:6379/0"`
	RedisPrefix string        `yaml:"redis_prefix" env:"STORAGE_REDIS_PREFIX" env-default:"newsreader:"`
	Key         string        `yaml:"key"          env:"STORAGE_KEY"          env-default:"vocabulary"              validate:"required"`
	Debounce    time.Duration `yaml:"debounce"     env:"STORAGE_DEBOUNCE"     env-default:"300ms"                   validate:"gt=0"`
}

// AnalyzerConfig selects the word analysis backend.
type AnalyzerConfig struct {
	Mode           string `yaml:"mode"            env:"ANALYZER_MODE"            env-default:"remote" validate:"oneof=remote offline"`
	DictionaryPath string `yaml:"dictionary_path" env:"ANALYZER_DICTIONARY_PATH" env-default:"jmdict-eng-common.json"`
	AutoDownload   bool   `yaml:"auto_download"   env:"ANALYZER_AUTO_DOWNLOAD"   env-default:"true"`
}

// ArticleConfig selects where article bodies come from.
type ArticleConfig struct {
	Source    string `yaml:"source"     env:"ARTICLE_SOURCE"     env-default:"remote" validate:"oneof=remote direct"`
	UserAgent string `yaml:"user_agent" env:"ARTICLE_USER_AGENT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}
