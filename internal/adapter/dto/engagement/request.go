package engagement

import (
	"time"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

// EventRequest is the ingestion payload. The wire shape is deliberately
// loose: sensors of different vintages send attention under different
// names, and unknown types must be accepted, not rejected.
type EventRequest struct {
	Type        string `json:"type" validate:"required"`
	MeetingID   string `json:"meetingId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Ts          *int64 `json:"ts"` // epoch millis; defaults to now

	Text    string `json:"text"`
	Speaker string `json:"speaker"`

	QuestionID     string `json:"questionId"`
	IsCorrect      *bool  `json:"isCorrect"`
	ResponseTimeMs *int   `json:"responseTimeMs"`

	// Attention aliases sent by different sensor builds; coalesced into
	// one signal, never double counted.
	AttentionScore   *float64 `json:"attentionScore"`
	CVAttentionScore *float64 `json:"cv_attention_score"`
	GazeScore        *float64 `json:"gazeScore"`
	AvgGaze          *float64 `json:"avgGaze"`

	Value   string `json:"value"`
	VideoOn *bool  `json:"video_on"`
}

// ToEntity converts the wire payload into a domain event. raw carries the
// original body and is retained only for unknown types.
func (r *EventRequest) ToEntity(raw map[string]interface{}) entities.Event {
	kind, known := entities.ParseEventType(r.Type)

	e := entities.Event{
		Type:           kind,
		MeetingID:      r.MeetingID,
		UserID:         r.UserID,
		DisplayName:    r.DisplayName,
		Text:           r.Text,
		Speaker:        r.Speaker,
		QuestionID:     r.QuestionID,
		IsCorrect:      r.IsCorrect,
		ResponseTimeMs: r.ResponseTimeMs,
		Value:          r.Value,
		VideoOn:        r.VideoOn,
	}
	if r.Ts != nil {
		e.Ts = time.UnixMilli(*r.Ts)
	}
	// First alias present wins; explicit score beats raw gaze ratios.
	switch {
	case r.AttentionScore != nil:
		e.AttentionScore = r.AttentionScore
	case r.CVAttentionScore != nil:
		e.AttentionScore = r.CVAttentionScore
	case r.GazeScore != nil:
		e.AttentionScore = r.GazeScore
	case r.AvgGaze != nil:
		e.AttentionScore = r.AvgGaze
	}
	if !known {
		e.Raw = raw
	}
	return e
}

// TopicRequest sets the lesson topic.
type TopicRequest struct {
	Topic string `json:"topic" validate:"required"`
}

// MaterialRequest uploads lecture text for quiz generation.
type MaterialRequest struct {
	Text string `json:"text" validate:"required"`
}

// NotesChatRequest asks the notes agent to refine stored notes.
type NotesChatRequest struct {
	Query string `json:"query" validate:"required"`
}

// PanelTokenRequest mints a push-channel token.
type PanelTokenRequest struct {
	UserID      string `json:"userId" validate:"required"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role" validate:"omitempty,oneof=instructor participant"`
	PreviewAs   string `json:"previewAs"`
}
