package entities

import (
	"strings"
	"testing"
	"time"
)

func TestAppendEvent_TrimsKeepWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m := NewMeetingState("m1", now)
	keep := 15 * time.Minute

	m.AppendEvent(Event{Type: EventTypeChatMessage, Ts: now.Add(-20 * time.Minute)}, keep, now)
	m.AppendEvent(Event{Type: EventTypeChatMessage, Ts: now.Add(-10 * time.Minute)}, keep, now)
	m.AppendEvent(Event{Type: EventTypeChatMessage, Ts: now}, keep, now)

	if len(m.Events) != 2 {
		t.Fatalf("events = %d, want 2 after trim", len(m.Events))
	}
	if m.Events[0].Ts.Before(now.Add(-keep)) {
		t.Fatalf("stale event survived trim")
	}
}

func TestBoundedRings(t *testing.T) {
	m := NewMeetingState("m1", time.Now())

	for i := 0; i < 5; i++ {
		m.AppendHistory(HistoryEntry{ClassEngagement: i}, 3)
	}
	if len(m.History) != 3 || m.History[0].ClassEngagement != 2 {
		t.Fatalf("history ring wrong: %+v", m.History)
	}

	for i := 0; i < 4; i++ {
		m.AppendNudge(NudgeRecord{ID: "n"}, 2)
	}
	if len(m.RecentNudges) != 2 {
		t.Fatalf("nudge ring = %d, want 2", len(m.RecentNudges))
	}
}

func TestTranscriptText(t *testing.T) {
	m := NewMeetingState("m1", time.Now())
	if m.TranscriptText(0) != "" {
		t.Fatalf("empty transcript should render empty")
	}

	m.AppendTranscript(TranscriptSnippet{Speaker: "host", Text: "welcome everyone"}, 100)
	m.AppendTranscript(TranscriptSnippet{Text: "unattributed line"}, 100)

	got := m.TranscriptText(0)
	want := "[host]: welcome everyone\nunattributed line"
	if got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
}

func TestTranscriptText_CapKeepsNewest(t *testing.T) {
	m := NewMeetingState("m1", time.Now())
	m.AppendTranscript(TranscriptSnippet{Text: strings.Repeat("a", 100)}, 100)
	m.AppendTranscript(TranscriptSnippet{Text: "the newest line"}, 100)

	got := m.TranscriptText(30)
	if strings.Contains(got, "aaa") {
		t.Fatalf("cap kept the oldest line: %q", got)
	}
	if !strings.Contains(got, "the newest line") {
		t.Fatalf("cap dropped the newest line: %q", got)
	}
}

func TestNotesMerge(t *testing.T) {
	generated := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	revised := generated.Add(10 * time.Minute)

	n := MeetingNotes{
		Title:       "Lecture 4",
		KeyPoints:   []string{"base cases"},
		Summary:     "covered recursion",
		GeneratedAt: generated,
	}
	n.Merge(MeetingNotes{Summary: "a tighter summary"}, revised)

	if n.Summary != "a tighter summary" {
		t.Fatalf("summary not updated: %q", n.Summary)
	}
	if n.Title != "Lecture 4" || len(n.KeyPoints) != 1 {
		t.Fatalf("untouched fields lost: %+v", n)
	}
	if !n.GeneratedAt.Equal(generated) {
		t.Fatalf("generatedAt moved: %v", n.GeneratedAt)
	}
	if !n.UpdatedAt.Equal(revised) {
		t.Fatalf("updatedAt = %v, want %v", n.UpdatedAt, revised)
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	e := Event{Type: EventTypeChatMessage}
	e.Normalize(now)
	if e.UserID != AnonymousUserID || e.DisplayName != AnonymousUserID {
		t.Fatalf("anonymous defaults not applied: %+v", e)
	}
	if !e.Ts.Equal(now) {
		t.Fatalf("missing ts not coerced")
	}

	e2 := Event{Type: EventTypeChatMessage, UserID: "alice", Ts: now.Add(-time.Minute)}
	e2.Normalize(now)
	if e2.DisplayName != "alice" {
		t.Fatalf("displayName should default to userId")
	}
	if !e2.Ts.Equal(now.Add(-time.Minute)) {
		t.Fatalf("explicit ts overwritten")
	}
}
