// Package config loads the service's startup configuration once, merging
// YAML file defaults with environment-variable overrides (env wins over
// file wins over built-in default), per spec.md §6.
package config

import "time"

// IndexConfig configures the backing hybrid lexical/dense-vector store.
type IndexConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Scheme        string        `yaml:"scheme"`
	IndexName     string        `yaml:"index_name"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	VectorDims    VectorDims    `yaml:"vector_dims"`
	BatchSize     int           `yaml:"batch_size"`
	RefreshPolicy string        `yaml:"refresh_policy"` // wait_for | true | false
}

// VectorDims carries per-field vector dimensions. Zero means "use the
// default" (1024) for that field.
type VectorDims struct {
	Text            int `yaml:"text"`
	Image           int `yaml:"image"`
	Video           int `yaml:"video"`
	ImageCaption    int `yaml:"image_caption"`
	VideoTranscript int `yaml:"video_transcript"`
}

// TaskStoreConfig configures the Redis-backed task store.
type TaskStoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
}

// ObjectStoreConfig configures the S3-compatible object store used by the
// audio-extract-and-upload adapter. Only the handshake contract is
// implemented here — upload implementation detail is an external
// collaborator per spec.md §1.
type ObjectStoreConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
}

// AdapterConfig configures one model adapter kind.
type AdapterConfig struct {
	Impl      string        `yaml:"impl"` // vendor tag
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"api_key"`
	ModelID   string        `yaml:"model_id"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests/sec, 0 = unbounded

	// PromptFile is the path to the caption prompt text file, read once at
	// startup. Only meaningful for the VLM captioner adapter.
	PromptFile string `yaml:"prompt_file"`

	// ObjectStore is only meaningful for the audio-extract-and-upload
	// adapter.
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
}

// AdaptersConfig configures every model adapter kind named in spec.md §4.1.
type AdaptersConfig struct {
	TextEmbed  AdapterConfig `yaml:"text_embed"`
	ImageEmbed AdapterConfig `yaml:"image_embed"`
	VideoEmbed AdapterConfig `yaml:"video_embed"`
	Caption    AdapterConfig `yaml:"caption"`
	Transcribe AdapterConfig `yaml:"transcribe"`
	AudioExtractUpload AdapterConfig `yaml:"audio_extract_upload"`
}

// WorkerConfig configures the background dispatch loop.
type WorkerConfig struct {
	CheckInterval      time.Duration `yaml:"check_interval"`
	MaxConcurrentTasks int           `yaml:"max_concurrent_tasks"` // 0 = unbounded
}

// HTTPConfig configures the ambient HTTP entrypoint.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Config is the full configuration snapshot, loaded once at process start.
type Config struct {
	Index      IndexConfig     `yaml:"index"`
	TaskStore  TaskStoreConfig `yaml:"task_store"`
	Adapters   AdaptersConfig  `yaml:"adapters"`
	Worker     WorkerConfig    `yaml:"worker"`
	HTTP       HTTPConfig      `yaml:"http"`
	LogLevel   string          `yaml:"log_level"`
	Version    string          `yaml:"-"`
}

const defaultVectorDim = 1024

// applyDefaults fills zero-valued fields with the service's built-in
// defaults, mirroring spec.md §4.1/§4.3/§4.6 defaults.
func applyDefaults(cfg *Config) {
	if cfg.Index.Scheme == "" {
		cfg.Index.Scheme = "https"
	}
	if cfg.Index.IndexName == "" {
		cfg.Index.IndexName = "mmsearch"
	}
	if cfg.Index.Timeout == 0 {
		cfg.Index.Timeout = 30 * time.Second
	}
	if cfg.Index.MaxRetries == 0 {
		cfg.Index.MaxRetries = 3
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 100
	}
	if cfg.Index.RefreshPolicy == "" {
		cfg.Index.RefreshPolicy = "wait_for"
	}
	applyVectorDimDefault(&cfg.Index.VectorDims.Text)
	applyVectorDimDefault(&cfg.Index.VectorDims.Image)
	applyVectorDimDefault(&cfg.Index.VectorDims.Video)
	applyVectorDimDefault(&cfg.Index.VectorDims.ImageCaption)
	applyVectorDimDefault(&cfg.Index.VectorDims.VideoTranscript)

	if cfg.TaskStore.Port == 0 {
		cfg.TaskStore.Port = 6379
	}

	for _, a := range []*AdapterConfig{
		&cfg.Adapters.TextEmbed, &cfg.Adapters.ImageEmbed, &cfg.Adapters.VideoEmbed,
		&cfg.Adapters.Caption, &cfg.Adapters.Transcribe, &cfg.Adapters.AudioExtractUpload,
	} {
		if a.Timeout == 0 {
			a.Timeout = 30 * time.Second
		}
	}

	if cfg.Worker.CheckInterval == 0 {
		cfg.Worker.CheckInterval = 5 * time.Second
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyVectorDimDefault(dim *int) {
	if *dim == 0 {
		*dim = defaultVectorDim
	}
}
