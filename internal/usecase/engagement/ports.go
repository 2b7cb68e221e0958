package engagement

import (
	"context"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

// The reasoning ports are external collaborators (network calls to an LLM
// service). Every call is bounded by the client's timeout and every failure
// is recovered locally; the policy never blocks or crashes on a port.

// Summarizer classifies a windowed snapshot into an engagement summary.
type Summarizer interface {
	Summarize(ctx context.Context, snap entities.Snapshot) (entities.EngagementSummary, error)
}

// NudgeContext is the input to nudge generation: one participant's signals
// plus class-level context.
type NudgeContext struct {
	MeetingID       string                `json:"meetingId"`
	MeetingType     string                `json:"meetingType"` // education | professional
	Topic           string                `json:"topic,omitempty"`
	ClassEngagement int                   `json:"classEngagement"`
	Participant     entities.SignalRecord `json:"participant"`
	Reason          string                `json:"reason,omitempty"`
}

// NudgeGenerator produces a supportive message for one participant.
type NudgeGenerator interface {
	GenerateNudge(ctx context.Context, nc NudgeContext) (entities.Nudge, error)
}

// QuizRequest is the input to quiz generation. SourceMaterial is the only
// text questions may be built from; when it is empty the generator must
// return an empty question list, never fabricate.
type QuizRequest struct {
	MeetingID      string `json:"meetingId"`
	Topic          string `json:"topic"`
	Difficulty     int    `json:"difficulty"`
	ForUserID      string `json:"forUserId,omitempty"`
	SourceMaterial string `json:"sourceMaterial"`
}

// QuizGenerator produces a question set from allowed source material.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, qr QuizRequest) (entities.Quiz, error)
}

// DecisionContext is the full context handed to the coordinator once the
// nudge threshold is reached.
type DecisionContext struct {
	MeetingID        string                     `json:"meetingId"`
	Topic            string                     `json:"topic,omitempty"`
	Summary          entities.EngagementSummary `json:"summary"`
	RecentPolls      []entities.Event           `json:"recentPolls"`
	RecentQuestions  []entities.Event           `json:"recentQuestions"`
	RecentTranscript []string                   `json:"recentTranscriptSnippets"`
}

// Coordinator decides the instructor-facing action.
type Coordinator interface {
	Decide(ctx context.Context, dc DecisionContext) (entities.Decision, error)
}
