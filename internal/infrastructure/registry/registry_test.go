package registry

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/pkg/config"
)

func testConfig() config.EngagementConfig {
	return config.EngagementConfig{
		WindowSeconds:   300,
		KeepWindow:      15 * time.Minute,
		TranscriptLimit: 3,
		HistoryLimit:    50,
		NudgeLogLimit:   20,
	}
}

func newTestRegistry() (*Registry, *time.Time) {
	r := New(testConfig(), zap.NewNop())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return now })
	return r, &now
}

func TestAppend_MissingMeetingID(t *testing.T) {
	r, _ := newTestRegistry()
	if _, err := r.Append(entities.Event{Type: entities.EventTypeChatMessage}); err == nil {
		t.Fatalf("expected error for missing meetingId")
	}
}

func TestAppend_CreatesMeetingLazilyAndNormalizes(t *testing.T) {
	r, now := newTestRegistry()

	e, err := r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if e.UserID != entities.AnonymousUserID {
		t.Fatalf("userId = %q, want anonymous bucket", e.UserID)
	}
	if !e.Ts.Equal(*now) {
		t.Fatalf("missing ts not coerced to now: %v", e.Ts)
	}
	if !r.Exists("m1") {
		t.Fatalf("meeting not created")
	}
}

func TestAppend_TrimsToKeepWindow(t *testing.T) {
	r, now := newTestRegistry()

	old := now.Add(-20 * time.Minute)
	if _, err := r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: old}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: *now}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	var count int
	_ = r.View("m1", func(m *entities.MeetingState) { count = len(m.Events) })
	if count != 1 {
		t.Fatalf("events after trim = %d, want 1", count)
	}
}

func TestAppend_TranscriptRingBounded(t *testing.T) {
	r, now := newTestRegistry()

	lines := []string{"one", "two", "three", "four"}
	for _, text := range lines {
		if _, err := r.Append(entities.Event{
			Type: entities.EventTypeTranscriptUpdate, MeetingID: "m1", Speaker: "host", Text: text, Ts: *now,
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	var transcript []entities.TranscriptSnippet
	_ = r.View("m1", func(m *entities.MeetingState) {
		transcript = append(transcript, m.Transcript...)
	})
	if len(transcript) != 3 {
		t.Fatalf("transcript ring = %d lines, want 3", len(transcript))
	}
	if transcript[0].Text != "two" || transcript[2].Text != "four" {
		t.Fatalf("ring kept wrong lines: %+v", transcript)
	}
}

func TestEnd_TerminalAndIdempotent(t *testing.T) {
	r, now := newTestRegistry()
	if _, err := r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: *now}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := r.End("m1"); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	var first *time.Time
	_ = r.View("m1", func(m *entities.MeetingState) { first = m.EndedAt })

	// Second end keeps the original timestamp.
	*now = now.Add(time.Minute)
	if err := r.End("m1"); err != nil {
		t.Fatalf("second end failed: %v", err)
	}
	var second *time.Time
	_ = r.View("m1", func(m *entities.MeetingState) { second = m.EndedAt })
	if !first.Equal(*second) {
		t.Fatalf("end timestamp moved: %v -> %v", first, second)
	}

	// Appends after end are rejected.
	if _, err := r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: *now}); err == nil {
		t.Fatalf("append after end must fail")
	}
}

func TestEnd_UnknownMeeting(t *testing.T) {
	r, _ := newTestRegistry()
	if err := r.End("ghost"); err == nil {
		t.Fatalf("expected error ending unknown meeting")
	}
}

func TestUpdate_UnknownMeeting(t *testing.T) {
	r, _ := newTestRegistry()
	if err := r.Update("ghost", func(m *entities.MeetingState) {}); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestUpdateOrCreate_PrecedesFirstEvent(t *testing.T) {
	r, _ := newTestRegistry()

	if err := r.UpdateOrCreate("m1", func(m *entities.MeetingState) { m.Topic = "recursion" }); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var topic string
	if err := r.View("m1", func(m *entities.MeetingState) { topic = m.Topic }); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if topic != "recursion" {
		t.Fatalf("topic = %q, want recursion", topic)
	}
}

func TestUpdateOrCreate_RejectedAfterEnd(t *testing.T) {
	r, now := newTestRegistry()
	_, _ = r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: *now})
	if err := r.End("m1"); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	if err := r.UpdateOrCreate("m1", func(m *entities.MeetingState) { m.Topic = "too late" }); err == nil {
		t.Fatalf("write to ended meeting must fail")
	}

	var topic string
	_ = r.View("m1", func(m *entities.MeetingState) { topic = m.Topic })
	if topic != "" {
		t.Fatalf("ended meeting mutated: topic = %q", topic)
	}
}

func TestActive_ExcludesEnded(t *testing.T) {
	r, now := newTestRegistry()
	_, _ = r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: *now})
	_, _ = r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m2", UserID: "a", Ts: *now})
	_ = r.End("m2")

	active := r.Active()
	if len(active) != 1 || active[0] != "m1" {
		t.Fatalf("active = %v, want [m1]", active)
	}
}

func TestTryBeginTick_SingleFlight(t *testing.T) {
	r, now := newTestRegistry()
	_, _ = r.Append(entities.Event{Type: entities.EventTypeChatMessage, MeetingID: "m1", UserID: "a", Ts: *now})

	release, ok := r.TryBeginTick("m1")
	if !ok {
		t.Fatalf("first reservation failed")
	}
	if _, ok := r.TryBeginTick("m1"); ok {
		t.Fatalf("second reservation must be rejected while in flight")
	}
	release()
	release2, ok := r.TryBeginTick("m1")
	if !ok {
		t.Fatalf("reservation after release failed")
	}
	release2()

	if _, ok := r.TryBeginTick("ghost"); ok {
		t.Fatalf("reservation for unknown meeting must fail")
	}
}

func TestAppend_ConcurrentMeetingsDoNotRace(t *testing.T) {
	r, now := newTestRegistry()

	var wg sync.WaitGroup
	for _, id := range []string{"m1", "m2", "m3"} {
		wg.Add(1)
		go func(meetingID string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := r.Append(entities.Event{
					Type: entities.EventTypeChatMessage, MeetingID: meetingID, UserID: "a", Ts: *now,
				}); err != nil {
					t.Errorf("append failed: %v", err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"m1", "m2", "m3"} {
		var count int
		_ = r.View(id, func(m *entities.MeetingState) { count = len(m.Events) })
		if count != 50 {
			t.Fatalf("%s events = %d, want 50", id, count)
		}
	}
}
