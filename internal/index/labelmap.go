package index

import "strings"

// Field names in the index schema, wire-stable per spec.md §6.
const (
	FieldText                  = "text_embedding"
	FieldImage                 = "image_embedding"
	FieldVideo                 = "video_embedding"
	FieldImageCaptionEmbedding = "image_caption_embedding"
	FieldVideoTranscriptEmbed  = "video_transcript_embedding"
)

// MapLabel routes a free-form embedding label to one of the five dense
// vector fields. Rules are evaluated in order; the first match wins. This
// order matters: "image_text_embedding" must match rule 1, not rule 3,
// which is why the compound rules run before the single-word ones.
func MapLabel(label string) string {
	l := strings.ToLower(label)

	switch {
	case strings.Contains(l, "image_text"), strings.Contains(l, "img_text"):
		return FieldImageCaptionEmbedding
	case strings.Contains(l, "video_text"), strings.Contains(l, "vid_text"):
		return FieldVideoTranscriptEmbed
	case strings.Contains(l, "text"), strings.Contains(l, "tembed"):
		return FieldText
	case strings.Contains(l, "image"), strings.Contains(l, "img"), strings.Contains(l, "iembed"):
		return FieldImage
	case strings.Contains(l, "video"), strings.Contains(l, "vid"), strings.Contains(l, "vembed"):
		return FieldVideo
	default:
		return FieldText
	}
}
