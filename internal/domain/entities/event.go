package entities

import (
	"time"
)

// EventType discriminates the closed set of event kinds the ingestion
// boundary understands. Unrecognized types are kept as EventTypeUnknown so
// future producers are accepted rather than rejected.
type EventType string

const (
	EventTypeQuizAnswer        EventType = "QUIZ_ANSWER"
	EventTypePollMissed        EventType = "POLL_MISSED"
	EventTypeChatMessage       EventType = "CHAT_MESSAGE"
	EventTypeQuestion          EventType = "QUESTION"
	EventTypeAttentionScore    EventType = "ATTENTION_SCORE"
	EventTypeGaze              EventType = "GAZE"
	EventTypeSelfReport        EventType = "SELF_REPORT"
	EventTypeTranscriptUpdate  EventType = "TRANSCRIPT_UPDATE"
	EventTypeLookAway          EventType = "LOOK_AWAY"
	EventTypeParticipantJoined EventType = "PARTICIPANT_JOINED"
	EventTypeParticipantLeft   EventType = "PARTICIPANT_LEFT"
	EventTypeVideoState        EventType = "VIDEO_STATE"
	EventTypeUnknown           EventType = "UNKNOWN"
)

// AnonymousUserID is the bucket events without a userId aggregate under.
// They still contribute to class-level signals but are never nudged.
const AnonymousUserID = "anonymous"

// knownTypes maps inbound type strings (including legacy aliases sent by
// older panel builds) onto the closed enum.
var knownTypes = map[string]EventType{
	"QUIZ_ANSWER":        EventTypeQuizAnswer,
	"QUIZ_RESPONSE":      EventTypeQuizAnswer,
	"POLL_ANSWER":        EventTypeQuizAnswer,
	"POLL_MISSED":        EventTypePollMissed,
	"CHAT_MESSAGE":       EventTypeChatMessage,
	"CHAT":               EventTypeChatMessage,
	"QUESTION":           EventTypeQuestion,
	"ATTENTION_SCORE":    EventTypeAttentionScore,
	"CV_ATTENTION":       EventTypeAttentionScore,
	"GAZE":               EventTypeGaze,
	"SELF_REPORT":        EventTypeSelfReport,
	"TRANSCRIPT_UPDATE":  EventTypeTranscriptUpdate,
	"TRANSCRIPT":         EventTypeTranscriptUpdate,
	"LOOK_AWAY":          EventTypeLookAway,
	"PARTICIPANT_JOINED": EventTypeParticipantJoined,
	"JOIN":               EventTypeParticipantJoined,
	"PARTICIPANT_LEFT":   EventTypeParticipantLeft,
	"LEAVE":              EventTypeParticipantLeft,
	"VIDEO_STATE":        EventTypeVideoState,
	"VIDEO_ON":           EventTypeVideoState,
}

// ParseEventType normalizes an inbound type string. The second return is
// false when the type is not part of the closed set.
func ParseEventType(s string) (EventType, bool) {
	if t, ok := knownTypes[s]; ok {
		return t, true
	}
	return EventTypeUnknown, false
}

// Event is an immutable fact about one meeting. Only the fields relevant to
// the event's type are populated; Raw carries the original payload for
// unknown types.
type Event struct {
	Type        EventType `json:"type"`
	MeetingID   string    `json:"meetingId"`
	UserID      string    `json:"userId,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Ts          time.Time `json:"ts"`

	// Chat / question / transcript
	Text    string `json:"text,omitempty"`
	Speaker string `json:"speaker,omitempty"`

	// Quiz answers
	QuestionID     string `json:"questionId,omitempty"`
	IsCorrect      *bool  `json:"isCorrect,omitempty"`
	ResponseTimeMs *int   `json:"responseTimeMs,omitempty"`

	// Attention samples (explicit score and raw gaze ratio are coalesced
	// into this single field at ingestion so they are never double counted)
	AttentionScore *float64 `json:"attentionScore,omitempty"`

	// Self report
	Value string `json:"value,omitempty"`

	// Video state
	VideoOn *bool `json:"videoOn,omitempty"`

	// Raw holds the original fields of an unknown event type.
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// Normalize applies ingestion defaults: a missing timestamp is coerced to
// now (a timestamp-less event must never be permanently in or out of the
// window) and a missing userId falls into the anonymous bucket.
func (e *Event) Normalize(now time.Time) {
	if e.Ts.IsZero() {
		e.Ts = now
	}
	if e.UserID == "" {
		e.UserID = AnonymousUserID
	}
	if e.DisplayName == "" {
		e.DisplayName = e.UserID
	}
}

// HasAttention reports whether the event carries an attention sample.
func (e *Event) HasAttention() bool {
	return (e.Type == EventTypeAttentionScore || e.Type == EventTypeGaze) && e.AttentionScore != nil
}

// IsEngagementSignal reports whether the event counts as active engagement
// from the participant; any such event resets their look-away streak.
func (e *Event) IsEngagementSignal() bool {
	switch e.Type {
	case EventTypeQuizAnswer, EventTypeChatMessage, EventTypeQuestion, EventTypeSelfReport:
		return true
	}
	return false
}
