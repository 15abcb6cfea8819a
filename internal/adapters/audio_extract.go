package adapters

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/objectstore"
	"github.com/mmsearch-dev/mmsearch/internal/telemetry"
)

const adapterAudioExtractUpload = "audio_extract_upload"

// uploader is the subset of objectstore.Uploader the extraction adapter
// depends on, so tests can substitute a fake.
type uploader interface {
	UploadFile(localPath, key string) (string, error)
}

// FFmpegAudioExtractUploader downloads a video, transcodes its audio track
// to 16 kHz mono WAV via ffmpeg, uploads the result, and returns its public
// URL. Every exit path — success or failure — removes the temp files it
// created.
type FFmpegAudioExtractUploader struct {
	binPath string
	timeout time.Duration
	upload  uploader
	logger  zerolog.Logger
}

// NewFFmpegAudioExtractUploader builds the adapter from config, wiring an
// object store uploader built from cfg.ObjectStore.
func NewFFmpegAudioExtractUploader(cfg config.AdapterConfig, logger zerolog.Logger) (*FFmpegAudioExtractUploader, error) {
	up, err := objectstore.New(cfg.ObjectStore)
	if err != nil {
		return nil, err
	}
	return &FFmpegAudioExtractUploader{
		binPath: "ffmpeg",
		timeout: cfg.Timeout,
		upload:  up,
		logger:  logger,
	}, nil
}

// ExtractAndUpload implements AudioExtractUploader.
func (a *FFmpegAudioExtractUploader) ExtractAndUpload(ctx context.Context, videoURL string) (string, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.adapters")
	ctx, span := tracer.Start(ctx, "adapter.extract_and_upload_audio")
	defer span.End()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	tmpDir, err := os.MkdirTemp("", "mmsearch-audio-*")
	if err != nil {
		err = apierr.Wrap(apierr.MediaProcessing, "failed to create temp directory", err)
		metrics.ObserveAdapterCall(adapterAudioExtractUpload, err, string(apierr.KindOf(err)), time.Since(start))
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	id := uuid.New().String()
	outPath := filepath.Join(tmpDir, id+".wav")

	ring := newLineRing(64)
	cmd := exec.CommandContext(ctx, a.binPath,
		"-y",
		"-i", videoURL,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		outPath,
	)
	cmd.Stderr = ring

	if err := cmd.Run(); err != nil {
		wrapped := apierr.Wrap(apierr.MediaProcessing, fmt.Sprintf("ffmpeg audio extraction failed: %s", strings.Join(ring.lastN(10), " | ")), err)
		a.logger.Warn().Err(err).Str("video_url", videoURL).Strs("ffmpeg_stderr", ring.lastN(10)).Msg("audio extraction failed")
		metrics.ObserveAdapterCall(adapterAudioExtractUpload, wrapped, string(apierr.KindOf(wrapped)), time.Since(start))
		return "", wrapped
	}

	url, err := a.upload.UploadFile(outPath, id+".wav")
	if err != nil {
		metrics.ObserveAdapterCall(adapterAudioExtractUpload, err, string(apierr.KindOf(err)), time.Since(start))
		return "", err
	}

	metrics.ObserveAdapterCall(adapterAudioExtractUpload, nil, "", time.Since(start))
	return url, nil
}
