package engagement

import (
	"time"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

// ReportResponse is the pull-based instructor report. It intentionally
// carries no nudge records: those are delivered push-only, scoped to the
// participant they concern.
type ReportResponse struct {
	MeetingID        string                       `json:"meetingId"`
	EventCount       int                          `json:"eventCount"`
	LastSummary      *entities.EngagementSummary  `json:"lastSummary"`
	LastDecision     *entities.Decision           `json:"lastDecision,omitempty"`
	History          []entities.HistoryEntry      `json:"history"`
	RecentTranscript []entities.TranscriptSnippet `json:"recentTranscript"`
	Topic            string                       `json:"topic,omitempty"`
	CreatedAt        time.Time                    `json:"createdAt"`
	EndedAt          *time.Time                   `json:"endedAt,omitempty"`
}

// PanelTokenResponse carries a minted push-channel token.
type PanelTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}
