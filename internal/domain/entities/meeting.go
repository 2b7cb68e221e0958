package entities

import (
	"time"
)

// TranscriptSnippet is one captured caption line.
type TranscriptSnippet struct {
	Text      string    `json:"text"`
	Speaker   string    `json:"speaker,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry records one engagement evaluation, whether or not any
// nudge or escalation fired.
type HistoryEntry struct {
	At               time.Time `json:"at"`
	ClassEngagement  int       `json:"classEngagement"`
	ColdParticipants []string  `json:"coldParticipants"`
	NarrativeSummary string    `json:"narrativeSummary"`
}

// MeetingState holds everything the server knows about one meeting. It is
// created lazily on the first event and lives for the process lifetime.
// All mutation goes through the registry, which serializes access per
// meeting; MeetingState itself carries no lock.
type MeetingState struct {
	MeetingID string
	CreatedAt time.Time

	// Events is the raw log, trimmed to the keep window on every append.
	Events []Event

	// Transcript is a bounded ring of recent caption lines.
	Transcript []TranscriptSnippet

	// History is a bounded ring of engagement evaluations.
	History []HistoryEntry

	// RecentNudges is a bounded ring of nudges sent for this meeting.
	// Excluded from the instructor report by design.
	RecentNudges []NudgeRecord

	LastSummary  *EngagementSummary
	LastDecision *Decision

	Topic string
	Notes *MeetingNotes

	Escalation EscalationState

	// EndedAt, once set, is terminal: no tick or append mutates the
	// meeting afterwards.
	EndedAt *time.Time
}

// NewMeetingState creates an empty meeting record.
func NewMeetingState(meetingID string, now time.Time) *MeetingState {
	return &MeetingState{
		MeetingID:  meetingID,
		CreatedAt:  now,
		Escalation: NewEscalationState(),
	}
}

// Ended reports whether the meeting has been explicitly ended.
func (m *MeetingState) Ended() bool {
	return m.EndedAt != nil
}

// AppendEvent adds an event and trims the log to keep. The caller must
// have normalized the event first.
func (m *MeetingState) AppendEvent(e Event, keep time.Duration, now time.Time) {
	m.Events = append(m.Events, e)
	since := now.Add(-keep)
	// Events arrive roughly in order; find the first one still inside the
	// keep window and drop everything before it.
	idx := 0
	for idx < len(m.Events) && m.Events[idx].Ts.Before(since) {
		idx++
	}
	if idx > 0 {
		m.Events = append(m.Events[:0:0], m.Events[idx:]...)
	}
}

// AppendTranscript adds a caption line to the bounded transcript ring.
func (m *MeetingState) AppendTranscript(s TranscriptSnippet, limit int) {
	m.Transcript = append(m.Transcript, s)
	if limit > 0 && len(m.Transcript) > limit {
		m.Transcript = append(m.Transcript[:0:0], m.Transcript[len(m.Transcript)-limit:]...)
	}
}

// AppendHistory adds an evaluation to the bounded history ring.
func (m *MeetingState) AppendHistory(h HistoryEntry, limit int) {
	m.History = append(m.History, h)
	if limit > 0 && len(m.History) > limit {
		m.History = append(m.History[:0:0], m.History[len(m.History)-limit:]...)
	}
}

// AppendNudge adds a sent nudge to the bounded nudge ring.
func (m *MeetingState) AppendNudge(n NudgeRecord, limit int) {
	m.RecentNudges = append(m.RecentNudges, n)
	if limit > 0 && len(m.RecentNudges) > limit {
		m.RecentNudges = append(m.RecentNudges[:0:0], m.RecentNudges[len(m.RecentNudges)-limit:]...)
	}
}

// TranscriptText joins the transcript ring into one speaker-attributed
// block, capped at maxChars (most recent lines win).
func (m *MeetingState) TranscriptText(maxChars int) string {
	if len(m.Transcript) == 0 {
		return ""
	}
	total := 0
	start := len(m.Transcript)
	for i := len(m.Transcript) - 1; i >= 0; i-- {
		line := len(m.Transcript[i].Text) + len(m.Transcript[i].Speaker) + 5
		if maxChars > 0 && total+line > maxChars {
			break
		}
		total += line
		start = i
	}
	out := ""
	for i := start; i < len(m.Transcript); i++ {
		s := m.Transcript[i]
		if out != "" {
			out += "\n"
		}
		if s.Speaker != "" {
			out += "[" + s.Speaker + "]: " + s.Text
		} else {
			out += s.Text
		}
	}
	return out
}

// MeetingNotes is the structured notes document generated from the
// transcript on demand.
type MeetingNotes struct {
	Title       string    `json:"title,omitempty"`
	KeyPoints   []string  `json:"keyPoints"`
	ActionItems []string  `json:"actionItems"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Merge folds a refinement into the notes: populated fields of update win,
// empty ones keep the current value. GeneratedAt is preserved and the
// revision is stamped with now.
func (n *MeetingNotes) Merge(update MeetingNotes, now time.Time) {
	if update.Title != "" {
		n.Title = update.Title
	}
	if len(update.KeyPoints) > 0 {
		n.KeyPoints = update.KeyPoints
	}
	if len(update.ActionItems) > 0 {
		n.ActionItems = update.ActionItems
	}
	if update.Summary != "" {
		n.Summary = update.Summary
	}
	n.UpdatedAt = now
}
