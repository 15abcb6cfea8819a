// Package apierr defines the error taxonomy shared by model adapters, the
// enrichment pipeline, and the search facade, plus the mapping from taxonomy
// kind to HTTP status used by the ambient HTTP layer.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error by cause, independent of which component raised
// it. Components surface a *Error carrying one of these kinds rather than
// an opaque error, so callers can branch on cause without string matching.
type Kind string

const (
	// Validation means caller-supplied input violated a rule (no modality
	// present, top_k out of range, malformed request body).
	Validation Kind = "validation"
	// InvalidMedia means an image/video URL returned malformed or
	// unrecognized content that a vendor could not decode.
	InvalidMedia Kind = "invalid_media"
	// MediaDownload means an image/video URL was unreachable or the
	// transport to it failed.
	MediaDownload Kind = "media_download"
	// MediaProcessing means a vendor model rejected media, or a
	// processing step (transcode, upload) failed after a successful
	// download.
	MediaProcessing Kind = "media_processing"
	// NotFound means a referenced entity (task id, API key) does not
	// exist.
	NotFound Kind = "not_found"
	// Service means any other internal failure: index unavailable,
	// Redis down, an unexpected exception.
	Service Kind = "service"
)

// Error is the typed error every adapter, pipeline stage, and facade
// operation should prefer over a bare error.
type Error struct {
	Kind       Kind
	Message    string
	VendorCode string
	Err        error
}

func (e *Error) Error() string {
	if e.VendorCode != "" {
		return fmt.Sprintf("%s: %s (vendor_code=%s)", e.Kind, e.Message, e.VendorCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a kinded error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a kinded error that wraps an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithVendorCode attaches a vendor-specific error code to e and returns e.
func (e *Error) WithVendorCode(code string) *Error {
	e.VendorCode = code
	return e
}

// As reports whether err (or one it wraps) is an *Error, returning it.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, otherwise
// Service.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Service
}

// HTTPStatus maps a taxonomy Kind to the HTTP status class the ambient
// layer surfaces it as.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation, InvalidMedia, MediaDownload, MediaProcessing:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case Service:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// FromLegacyMessage classifies a plain, untyped error by sniffing its
// message for known substrings. This exists solely as a fallback for
// adapters that have not been updated to return *Error directly; new code
// should never rely on it. Kept narrow and explicit per the design note
// that string-sniffing is a re-architecture hazard.
func FromLegacyMessage(err error) *Error {
	if err == nil {
		return nil
	}
	if existing, ok := As(err); ok {
		return existing
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return Wrap(NotFound, err.Error(), err)
	case strings.Contains(msg, "invalid media"), strings.Contains(msg, "unrecognized content"), strings.Contains(msg, "cannot be decoded"), strings.Contains(msg, "could not be decoded"):
		return Wrap(InvalidMedia, err.Error(), err)
	case strings.Contains(msg, "unreachable"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "download"):
		return Wrap(MediaDownload, err.Error(), err)
	case strings.Contains(msg, "transcode"), strings.Contains(msg, "processing failed"), strings.Contains(msg, "upload"):
		return Wrap(MediaProcessing, err.Error(), err)
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid input"), strings.Contains(msg, "required"):
		return Wrap(Validation, err.Error(), err)
	default:
		return Wrap(Service, err.Error(), err)
	}
}
