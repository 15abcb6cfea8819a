// Package adapters implements the model adapter layer (C1): the interfaces
// the enrichment pipeline depends on, and HTTP-based reference
// implementations selected per config at startup.
package adapters

import (
	"context"

	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// TextEmbedder embeds a text string into a fixed-dimension vector.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) (model.Embedding, error)
}

// ImageEmbedder embeds an image, fetched from imageURL, into a
// fixed-dimension vector.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, imageURL string) (model.Embedding, error)
}

// VideoEmbedder embeds a video, fetched from videoURL, into a
// fixed-dimension vector.
type VideoEmbedder interface {
	EmbedVideo(ctx context.Context, videoURL string) (model.Embedding, error)
}

// Captioner produces a natural-language caption for an image. An empty
// caption is a valid result and must not be treated as an error.
type Captioner interface {
	Caption(ctx context.Context, imageURL string) (string, error)
}

// AudioTranscriber transcribes speech from an audio resource reachable at
// audioURL. An empty transcript is a valid result.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// AudioExtractUploader extracts the audio track from a video, uploads it to
// object storage, and returns the object's public URL for downstream
// transcription.
type AudioExtractUploader interface {
	ExtractAndUpload(ctx context.Context, videoURL string) (audioURL string, err error)
}
