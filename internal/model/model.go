// Package model holds the data types shared across the enrichment pipeline,
// index engine, task system, and search facade: raw items, enrichment
// records, indexed documents, queries, and task records.
package model

import "time"

// RawItem is the input to enrichment: any combination of a text body, an
// image URL, and a video URL. At least one field must be present; callers
// should validate with HasModality before enrichment.
type RawItem struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// HasModality reports whether at least one of text, image, or video is
// present on the item.
func (r RawItem) HasModality() bool {
	return r.Text != "" || r.ImageURL != "" || r.VideoURL != ""
}

// Embedding is a fixed-dimension vector produced by a model adapter, tagged
// with a free-form label used to route it to an index field (see
// internal/index's label-mapping rule table).
type Embedding struct {
	Label  string
	Vector []float32
}

// TextRecord is the text sub-record of an EnrichmentRecord.
type TextRecord struct {
	Embeddings []Embedding
}

// ImageRecord is the image sub-record of an EnrichmentRecord. Caption and
// CaptionEmbedding are absent (zero value) when the caption step produced
// no text, per the skip-on-empty-caption rule.
type ImageRecord struct {
	Embedding        *Embedding
	Caption          string
	CaptionEmbedding *Embedding
}

// VideoRecord is the video sub-record of an EnrichmentRecord. Transcript and
// TranscriptEmbedding are absent when ASR produced no text.
type VideoRecord struct {
	Embedding           *Embedding
	Transcript          string
	TranscriptEmbedding *Embedding
}

// EnrichmentRecord is the output of the enrichment pipeline for one raw
// item. Sub-records for absent modalities are nil.
type EnrichmentRecord struct {
	Text  *TextRecord
	Image *ImageRecord
	Video *VideoRecord
}

// IndexedDocument is a document as stored by the index engine: one
// identifier, the lexical fields, and up to five dense vectors. Vectors are
// nil when not provided for that document.
type IndexedDocument struct {
	ID                       string    `json:"id"`
	Text                     string    `json:"text,omitempty"`
	ImageURL                 string    `json:"image_url,omitempty"`
	VideoURL                 string    `json:"video_url,omitempty"`
	ImageCaption             string    `json:"image_caption,omitempty"`
	VideoTranscript          string    `json:"video_transcript,omitempty"`
	TextEmbedding            []float32 `json:"text_embedding,omitempty"`
	ImageEmbedding           []float32 `json:"image_embedding,omitempty"`
	VideoEmbedding           []float32 `json:"video_embedding,omitempty"`
	ImageCaptionEmbedding    []float32 `json:"image_caption_embedding,omitempty"`
	VideoTranscriptEmbedding []float32 `json:"video_transcript_embedding,omitempty"`
}

// SearchHit is one ranked result returned by the index engine.
type SearchHit struct {
	DocumentID      string  `json:"document_id"`
	Text            string  `json:"text,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
	VideoURL        string  `json:"video_url,omitempty"`
	ImageCaption    string  `json:"image_caption,omitempty"`
	VideoTranscript string  `json:"video_transcript,omitempty"`
	Score           float64 `json:"score"`
}

// Query is the input to a search: optional text, zero or more labeled
// embeddings, and a result-count bound.
type Query struct {
	Text       string
	Embeddings []Embedding
	TopK       int
}

// TaskKind distinguishes the background work units the worker loop processes.
type TaskKind string

const (
	TaskSingleInsert TaskKind = "single-insert"
	TaskBatchInsert  TaskKind = "batch-insert"
)

// TaskStatus is the lifecycle state of a task record. Valid transitions are
// pending -> processing -> {completed, failed}; enforced by
// internal/taskmanager's state machine, not by this type.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// TaskResult is the outcome payload attached to a task once it reaches
// TaskCompleted. Present iff Status == TaskCompleted.
type TaskResult struct {
	Inserted    int     `json:"inserted"`
	Total       int     `json:"total,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty"`
	Data        any     `json:"data,omitempty"`
}

// TaskRecord is the durable unit of background work tracked by the task
// store and mutated exclusively by the task manager.
type TaskRecord struct {
	ID          string      `json:"task_id"`
	Kind        TaskKind    `json:"task_type"`
	Status      TaskStatus  `json:"status"`
	Progress    float64     `json:"progress"`
	Message     string      `json:"message"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Result      *TaskResult `json:"result,omitempty"`
	Payload     any         `json:"payload"`
}

// Statistics summarizes task counts by status, as returned by the task
// manager's statistics operation.
type Statistics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
