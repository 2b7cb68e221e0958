package engagement

import (
	"testing"
	"time"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

func f64(v float64) *float64 { return &v }

func TestToEntity_EpochMillis(t *testing.T) {
	ts := int64(1748772000000)
	req := EventRequest{Type: "CHAT_MESSAGE", MeetingID: "m1", Ts: &ts}

	e := req.ToEntity(nil)
	if !e.Ts.Equal(time.UnixMilli(ts)) {
		t.Fatalf("ts = %v, want %v", e.Ts, time.UnixMilli(ts))
	}
}

func TestToEntity_MissingTsLeftZero(t *testing.T) {
	req := EventRequest{Type: "CHAT_MESSAGE", MeetingID: "m1"}
	e := req.ToEntity(nil)
	if !e.Ts.IsZero() {
		t.Fatalf("missing ts should stay zero until normalization, got %v", e.Ts)
	}
}

func TestToEntity_AttentionAliasPriority(t *testing.T) {
	req := EventRequest{
		Type:             "ATTENTION_SCORE",
		MeetingID:        "m1",
		CVAttentionScore: f64(0.4),
		GazeScore:        f64(0.6),
	}
	e := req.ToEntity(nil)
	if e.AttentionScore == nil || *e.AttentionScore != 0.4 {
		t.Fatalf("cv score should beat gaze, got %v", e.AttentionScore)
	}

	req.AttentionScore = f64(0.9)
	e = req.ToEntity(nil)
	if *e.AttentionScore != 0.9 {
		t.Fatalf("explicit score should win, got %v", *e.AttentionScore)
	}
}

func TestToEntity_LegacyTypeAliases(t *testing.T) {
	cases := map[string]entities.EventType{
		"QUIZ_RESPONSE": entities.EventTypeQuizAnswer,
		"POLL_ANSWER":   entities.EventTypeQuizAnswer,
		"CHAT":          entities.EventTypeChatMessage,
		"CV_ATTENTION":  entities.EventTypeAttentionScore,
		"TRANSCRIPT":    entities.EventTypeTranscriptUpdate,
	}
	for alias, want := range cases {
		req := EventRequest{Type: alias, MeetingID: "m1"}
		if e := req.ToEntity(nil); e.Type != want {
			t.Fatalf("%s mapped to %s, want %s", alias, e.Type, want)
		}
	}
}

func TestToEntity_UnknownKeepsRaw(t *testing.T) {
	raw := map[string]interface{}{"type": "FUTURE_SENSOR", "reading": 42}
	req := EventRequest{Type: "FUTURE_SENSOR", MeetingID: "m1"}

	e := req.ToEntity(raw)
	if e.Type != entities.EventTypeUnknown {
		t.Fatalf("type = %s, want UNKNOWN", e.Type)
	}
	if e.Raw == nil {
		t.Fatalf("raw payload dropped")
	}

	// Known types never carry the raw body.
	known := EventRequest{Type: "CHAT_MESSAGE", MeetingID: "m1"}
	if e := known.ToEntity(raw); e.Raw != nil {
		t.Fatalf("known type retained raw payload")
	}
}
