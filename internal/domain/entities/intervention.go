package entities

import (
	"time"

	"github.com/google/uuid"
)

// Nudge is the supportive message generated for one participant.
type Nudge struct {
	UserID                string `json:"userId"`
	DisplayName           string `json:"displayName"`
	Message               string `json:"message"`
	Reason                string `json:"reason,omitempty"`
	NeedsQuiz             bool   `json:"needsQuiz,omitempty"`
	RecommendedDifficulty int    `json:"recommendedDifficulty,omitempty"`
}

// NudgeRecord is a sent nudge with its cooldown timestamp.
type NudgeRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Message     string    `json:"message"`
	Reason      string    `json:"reason,omitempty"`
	SentAt      time.Time `json:"sentAt"`
}

// NewNudgeRecord stamps a generated nudge as sent.
func NewNudgeRecord(n Nudge, sentAt time.Time) NudgeRecord {
	return NudgeRecord{
		ID:          uuid.NewString(),
		UserID:      n.UserID,
		DisplayName: n.DisplayName,
		Message:     n.Message,
		Reason:      n.Reason,
		SentAt:      sentAt,
	}
}

// Question types
const (
	QuestionTypeMCQ  = "mcq"
	QuestionTypeOpen = "open"
)

// QuizQuestion is one generated question. Options and CorrectIndex are only
// set for mcq questions.
type QuizQuestion struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Question     string   `json:"question"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

// Quiz is a generated question set. An empty Questions slice is the
// explicit "insufficient material" result; questions are never fabricated
// from no material.
type Quiz struct {
	ID         string         `json:"id"`
	Topic      string         `json:"topic"`
	Difficulty int            `json:"difficulty,omitempty"`
	ForUserID  string         `json:"forUserId,omitempty"`
	Questions  []QuizQuestion `json:"questions"`
	Hint       string         `json:"hint,omitempty"`
}

// Empty reports whether the quiz carries no questions.
func (q *Quiz) Empty() bool {
	return len(q.Questions) == 0
}

// Coordinator actions
const (
	ActionNone                  = "NONE"
	ActionGeneratePoll          = "GENERATE_POLL"
	ActionPromptInstructor      = "PROMPT_INSTRUCTOR"
	ActionHighlightColdStudents = "HIGHLIGHT_COLD_STUDENTS"
)

// Decision is the coordinator port's output: the action chosen for the
// instructor and why.
type Decision struct {
	Action      string    `json:"action"`
	TargetTopic string    `json:"target_topic,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	DecidedAt   time.Time `json:"decidedAt"`
}

// NoActionDecision is the neutral decision broadcast when no escalation is
// warranted or the coordinator is unavailable.
func NoActionDecision(reason string, now time.Time) Decision {
	return Decision{
		Action:    ActionNone,
		Reason:    reason,
		Priority:  "low",
		DecidedAt: now,
	}
}
