package entities

import (
	"time"
)

// ParticipantSignals are the derived per-participant counters for the
// current window. Rebuilt from the event log on every aggregation pass,
// never incrementally mutated, so they always reflect exactly the window.
type ParticipantSignals struct {
	PollsAnswered        int      `json:"polls_answered"`
	PollsMissed          int      `json:"polls_missed"`
	ChatMessages         int      `json:"chat_messages"`
	QuestionsAsked       int      `json:"questions_asked"`
	AvgResponseLatencyMs float64  `json:"avg_response_latency_ms"`
	AttentionScore       *float64 `json:"attention_score"`
	SelfReport           string   `json:"self_report,omitempty"`
	VideoOn              bool     `json:"video_on"`
}

// SignalRecord pairs a participant with their windowed signals.
type SignalRecord struct {
	UserID      string             `json:"userId"`
	DisplayName string             `json:"displayName"`
	Signals     ParticipantSignals `json:"signals"`
}

// Snapshot is the normalized windowed view of one meeting handed to the
// summarizer and the escalation policy.
type Snapshot struct {
	MeetingID        string         `json:"meetingId"`
	TakenAt          time.Time      `json:"takenAt"`
	WindowSeconds    int            `json:"windowSeconds"`
	Users            []SignalRecord `json:"users"`
	RecentTranscript []string       `json:"recentTranscriptSnippets"`
	RecentPolls      []Event        `json:"recentPolls"`
	RecentQuestions  []Event        `json:"recentQuestions"`
	EventCount       int            `json:"eventCount"`
}

// User returns the signal record for userID, or nil when the participant
// has no event in the window.
func (s *Snapshot) User(userID string) *SignalRecord {
	for i := range s.Users {
		if s.Users[i].UserID == userID {
			return &s.Users[i]
		}
	}
	return nil
}

// Engagement levels used by the summarizer and the policy.
const (
	EngagementLow    = 1
	EngagementMedium = 2
	EngagementHigh   = 3
)

// ParticipantEngagement is one participant's classification inside an
// engagement summary.
type ParticipantEngagement struct {
	UserID     string `json:"userId"`
	Engagement int    `json:"engagement"`
	Reason     string `json:"reason,omitempty"`
}

// EngagementSummary is the summarizer port's output. It is treated as
// opaque and untrusted: consumers must tolerate missing fields.
type EngagementSummary struct {
	ClassEngagement   int                     `json:"class_engagement"`
	PerParticipant    []ParticipantEngagement `json:"per_user"`
	ColdParticipants  []string                `json:"cold_students"`
	NarrativeSummary  string                  `json:"summary"`
	NeedsIntervention bool                    `json:"needs_intervention"`
	Fallback          bool                    `json:"fallback,omitempty"`
	GeneratedAt       time.Time               `json:"generatedAt"`
}

// Clamp forces out-of-range fields from an untrusted summary into valid
// bounds and initializes nil slices.
func (s *EngagementSummary) Clamp() {
	if s.ClassEngagement < EngagementLow || s.ClassEngagement > EngagementHigh {
		s.ClassEngagement = EngagementMedium
	}
	if s.PerParticipant == nil {
		s.PerParticipant = []ParticipantEngagement{}
	}
	for i := range s.PerParticipant {
		if s.PerParticipant[i].Engagement < EngagementLow || s.PerParticipant[i].Engagement > EngagementHigh {
			s.PerParticipant[i].Engagement = EngagementMedium
		}
	}
	if s.ColdParticipants == nil {
		s.ColdParticipants = []string{}
	}
}

// FallbackSummary is the deterministic neutral summary used when the
// summarizer port is unavailable; the policy must keep making progress.
func FallbackSummary(now time.Time, reason string) EngagementSummary {
	return EngagementSummary{
		ClassEngagement:  EngagementMedium,
		PerParticipant:   []ParticipantEngagement{},
		ColdParticipants: []string{},
		NarrativeSummary: reason,
		Fallback:         true,
		GeneratedAt:      now,
	}
}
