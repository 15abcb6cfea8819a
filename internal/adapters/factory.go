package adapters

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
)

// Bundle holds one constructed implementation per adapter kind, the set
// the enrichment pipeline depends on.
type Bundle struct {
	TextEmbedder         TextEmbedder
	ImageEmbedder        ImageEmbedder
	VideoEmbedder        VideoEmbedder
	Captioner            Captioner
	Transcriber          AudioTranscriber
	AudioExtractUploader AudioExtractUploader
}

// NewBundle builds the configured implementation of every adapter kind.
// Selection is a tagged-variant switch on each AdapterConfig.Impl field,
// not a runtime registry — adding a vendor means adding a case, per
// spec.md §4.1's "no reflection" design note.
func NewBundle(cfg config.AdaptersConfig, logger zerolog.Logger) (*Bundle, error) {
	textEmbedder, err := newTextEmbedder(cfg.TextEmbed)
	if err != nil {
		return nil, err
	}
	imageEmbedder, err := newImageEmbedder(cfg.ImageEmbed)
	if err != nil {
		return nil, err
	}
	videoEmbedder, err := newVideoEmbedder(cfg.VideoEmbed)
	if err != nil {
		return nil, err
	}
	captioner, err := newCaptioner(cfg.Caption)
	if err != nil {
		return nil, err
	}
	transcriber, err := newTranscriber(cfg.Transcribe)
	if err != nil {
		return nil, err
	}
	extractUploader, err := newAudioExtractUploader(cfg.AudioExtractUpload, logger)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		TextEmbedder:         textEmbedder,
		ImageEmbedder:        imageEmbedder,
		VideoEmbedder:        videoEmbedder,
		Captioner:            captioner,
		Transcriber:          transcriber,
		AudioExtractUploader: extractUploader,
	}, nil
}

func implOf(cfg config.AdapterConfig) string {
	if cfg.Impl == "" {
		return "http"
	}
	return cfg.Impl
}

func newTextEmbedder(cfg config.AdapterConfig) (TextEmbedder, error) {
	switch implOf(cfg) {
	case "http":
		return NewHTTPTextEmbedder(cfg)
	default:
		return nil, apierr.New(apierr.Service, fmt.Sprintf("unknown text embed adapter impl %q", cfg.Impl))
	}
}

func newImageEmbedder(cfg config.AdapterConfig) (ImageEmbedder, error) {
	switch implOf(cfg) {
	case "http":
		return NewHTTPImageEmbedder(cfg)
	default:
		return nil, apierr.New(apierr.Service, fmt.Sprintf("unknown image embed adapter impl %q", cfg.Impl))
	}
}

func newVideoEmbedder(cfg config.AdapterConfig) (VideoEmbedder, error) {
	switch implOf(cfg) {
	case "http":
		return NewHTTPVideoEmbedder(cfg)
	default:
		return nil, apierr.New(apierr.Service, fmt.Sprintf("unknown video embed adapter impl %q", cfg.Impl))
	}
}

func newCaptioner(cfg config.AdapterConfig) (Captioner, error) {
	switch implOf(cfg) {
	case "http":
		return NewHTTPCaptioner(cfg)
	default:
		return nil, apierr.New(apierr.Service, fmt.Sprintf("unknown caption adapter impl %q", cfg.Impl))
	}
}

func newTranscriber(cfg config.AdapterConfig) (AudioTranscriber, error) {
	switch implOf(cfg) {
	case "http":
		return NewHTTPTranscriber(cfg)
	default:
		return nil, apierr.New(apierr.Service, fmt.Sprintf("unknown transcribe adapter impl %q", cfg.Impl))
	}
}

func newAudioExtractUploader(cfg config.AdapterConfig, logger zerolog.Logger) (AudioExtractUploader, error) {
	impl := cfg.Impl
	if impl == "" {
		impl = "ffmpeg"
	}
	switch impl {
	case "ffmpeg":
		return NewFFmpegAudioExtractUploader(cfg, logger)
	default:
		return nil, apierr.New(apierr.Service, fmt.Sprintf("unknown audio extract/upload adapter impl %q", cfg.Impl))
	}
}
