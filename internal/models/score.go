package models

import "time"

// ScoreEntry represents one recorded assessment result.
type ScoreEntry struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"-"`
	Subject      string    `db:"subject" json:"subject"`
	ExamType     string    `db:"exam_type" json:"exam_type"`
	Score        float64   `db:"score" json:"score"`
	MaxScore     float64   `db:"max_score" json:"max_score"`
	Timestamp    int64     `db:"timestamp" json:"timestamp"`
	OriginalText string    `db:"original_text" json:"original_text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Time returns the entry timestamp as local time.
func (e ScoreEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ScoreUpdate carries partial edits for an entry. Nil fields are left untouched.
type ScoreUpdate struct {
	Subject   *string  `json:"subject"`
	ExamType  *string  `json:"exam_type"`
	Score     *float64 `json:"score"`
	MaxScore  *float64 `json:"max_score"`
	Timestamp *int64   `json:"timestamp"`
}

// ScoreCreateRequest records a manually entered score.
type ScoreCreateRequest struct {
	Subject      string  `json:"subject" validate:"required"`
	ExamType     string  `json:"exam_type" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
	MaxScore     float64 `json:"max_score" validate:"gt=0"`
	Timestamp    int64   `json:"timestamp"`
	OriginalText string  `json:"original_text"`
}

// ScoreBatchDeleteRequest selects entries for deletion.
type ScoreBatchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// ExtractRequest carries free text for score extraction.
type ExtractRequest struct {
	Text string `json:"text" validate:"required"`
}

// ExtractImageRequest carries a base64 image for score extraction.
type ExtractImageRequest struct {
	Data     string `json:"data" validate:"required"`
	MIMEType string `json:"mime_type" validate:"required"`
}

// ImageOriginalText is the provenance placeholder for image-derived entries.
const ImageOriginalText = "[image]"
