package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type envLookupFunc func(string) (string, bool)

// Loader loads configuration with precedence ENV > File > built-in
// defaults. Env lookup is injectable so tests never touch process
// environment directly.
type Loader struct {
	configPath  string
	version     string
	lookupEnvFn envLookupFunc
}

// NewLoader creates a Loader reading the real process environment.
func NewLoader(configPath, version string) *Loader {
	return NewLoaderWithEnv(configPath, version, os.LookupEnv)
}

// NewLoaderWithEnv creates a Loader with an injected environment lookup,
// used by tests to exercise precedence without process environment.
func NewLoaderWithEnv(configPath, version string, lookup envLookupFunc) *Loader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Loader{configPath: configPath, version: version, lookupEnvFn: lookup}
}

// Load reads the optional YAML file at configPath, overlays environment
// variables, fills defaults, validates, and returns the final snapshot.
func (l *Loader) Load() (Config, error) {
	var cfg Config

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("%w: read config file: %v", ErrInvalidConfig, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse config file: %v", ErrInvalidConfig, err)
		}
	}

	l.applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) {
	l.envString("MMSEARCH_INDEX_HOST", &cfg.Index.Host)
	l.envInt("MMSEARCH_INDEX_PORT", &cfg.Index.Port)
	l.envString("MMSEARCH_INDEX_SCHEME", &cfg.Index.Scheme)
	l.envString("MMSEARCH_INDEX_NAME", &cfg.Index.IndexName)
	l.envString("MMSEARCH_INDEX_USER", &cfg.Index.User)
	l.envString("MMSEARCH_INDEX_PASSWORD", &cfg.Index.Password)
	l.envDuration("MMSEARCH_INDEX_TIMEOUT", &cfg.Index.Timeout)
	l.envInt("MMSEARCH_INDEX_MAX_RETRIES", &cfg.Index.MaxRetries)
	l.envInt("MMSEARCH_INDEX_BATCH_SIZE", &cfg.Index.BatchSize)
	l.envString("MMSEARCH_INDEX_REFRESH_POLICY", &cfg.Index.RefreshPolicy)

	l.envString("MMSEARCH_TASKSTORE_HOST", &cfg.TaskStore.Host)
	l.envInt("MMSEARCH_TASKSTORE_PORT", &cfg.TaskStore.Port)
	l.envInt("MMSEARCH_TASKSTORE_DB", &cfg.TaskStore.DB)
	l.envString("MMSEARCH_TASKSTORE_PASSWORD", &cfg.TaskStore.Password)

	l.applyAdapterEnv("TEXT_EMBED", &cfg.Adapters.TextEmbed)
	l.applyAdapterEnv("IMAGE_EMBED", &cfg.Adapters.ImageEmbed)
	l.applyAdapterEnv("VIDEO_EMBED", &cfg.Adapters.VideoEmbed)
	l.applyAdapterEnv("CAPTION", &cfg.Adapters.Caption)
	l.applyAdapterEnv("TRANSCRIBE", &cfg.Adapters.Transcribe)
	l.applyAdapterEnv("AUDIO_EXTRACT_UPLOAD", &cfg.Adapters.AudioExtractUpload)

	l.envString("MMSEARCH_AUDIO_OBJECTSTORE_ACCESS_KEY_ID", &cfg.Adapters.AudioExtractUpload.ObjectStore.AccessKeyID)
	l.envString("MMSEARCH_AUDIO_OBJECTSTORE_SECRET_ACCESS_KEY", &cfg.Adapters.AudioExtractUpload.ObjectStore.SecretAccessKey)
	l.envString("MMSEARCH_AUDIO_OBJECTSTORE_ENDPOINT", &cfg.Adapters.AudioExtractUpload.ObjectStore.Endpoint)
	l.envString("MMSEARCH_AUDIO_OBJECTSTORE_BUCKET", &cfg.Adapters.AudioExtractUpload.ObjectStore.Bucket)
	l.envString("MMSEARCH_AUDIO_OBJECTSTORE_PREFIX", &cfg.Adapters.AudioExtractUpload.ObjectStore.Prefix)
	l.envString("MMSEARCH_AUDIO_OBJECTSTORE_REGION", &cfg.Adapters.AudioExtractUpload.ObjectStore.Region)
	l.envString("MMSEARCH_CAPTION_PROMPT_FILE", &cfg.Adapters.Caption.PromptFile)

	l.envDuration("MMSEARCH_WORKER_CHECK_INTERVAL", &cfg.Worker.CheckInterval)
	l.envInt("MMSEARCH_WORKER_MAX_CONCURRENT_TASKS", &cfg.Worker.MaxConcurrentTasks)

	l.envString("MMSEARCH_HTTP_ADDR", &cfg.HTTP.Addr)
	l.envInt("MMSEARCH_HTTP_RATE_LIMIT_PER_MIN", &cfg.HTTP.RateLimitPerMin)
	l.envDuration("MMSEARCH_HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)

	l.envString("MMSEARCH_LOG_LEVEL", &cfg.LogLevel)
}

func (l *Loader) applyAdapterEnv(prefix string, a *AdapterConfig) {
	l.envString("MMSEARCH_ADAPTER_"+prefix+"_IMPL", &a.Impl)
	l.envString("MMSEARCH_ADAPTER_"+prefix+"_ENDPOINT", &a.Endpoint)
	l.envString("MMSEARCH_ADAPTER_"+prefix+"_API_KEY", &a.APIKey)
	l.envString("MMSEARCH_ADAPTER_"+prefix+"_MODEL_ID", &a.ModelID)
	l.envInt("MMSEARCH_ADAPTER_"+prefix+"_DIMENSION", &a.Dimension)
	l.envDuration("MMSEARCH_ADAPTER_"+prefix+"_TIMEOUT", &a.Timeout)
	l.envFloat("MMSEARCH_ADAPTER_"+prefix+"_RATE_LIMIT", &a.RateLimit)
}

func (l *Loader) envString(key string, dst *string) {
	if v, ok := l.lookupEnvFn(key); ok && v != "" {
		*dst = v
	}
}

func (l *Loader) envInt(key string, dst *int) {
	v, ok := l.lookupEnvFn(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

func (l *Loader) envFloat(key string, dst *float64) {
	v, ok := l.lookupEnvFn(key)
	if !ok || v == "" {
		return
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		*dst = f
	}
}

func (l *Loader) envDuration(key string, dst *time.Duration) {
	v, ok := l.lookupEnvFn(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
		*dst = d
	}
}
