package engagement

import (
	"sort"
	"time"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

// Aggregate reduces a meeting's event log into the windowed per-participant
// snapshot. It is a pure function of the log and now: repeated calls with no
// new events yield identical snapshots. The window bound is re-applied on
// every call, so stale events never contribute even if the log still holds
// them. The caller must hold the meeting's lock.
func Aggregate(state *entities.MeetingState, window time.Duration, now time.Time) entities.Snapshot {
	since := now.Add(-window)

	type acc struct {
		record     entities.SignalRecord
		latencies  []int
		attentions []float64
	}

	users := make(map[string]*acc)
	get := func(e entities.Event) *acc {
		a, ok := users[e.UserID]
		if !ok {
			a = &acc{record: entities.SignalRecord{
				UserID:      e.UserID,
				DisplayName: e.DisplayName,
				Signals:     entities.ParticipantSignals{VideoOn: true},
			}}
			users[e.UserID] = a
		}
		return a
	}

	snap := entities.Snapshot{
		MeetingID:     state.MeetingID,
		TakenAt:       now,
		WindowSeconds: int(window / time.Second),
	}

	for i := range state.Events {
		e := state.Events[i]
		// Boundary is inclusive: an event exactly window old is still in.
		if e.Ts.Before(since) {
			continue
		}
		snap.EventCount++
		a := get(e)

		switch e.Type {
		case entities.EventTypeQuizAnswer:
			// Participation, not accuracy: any answer counts.
			a.record.Signals.PollsAnswered++
			if e.ResponseTimeMs != nil {
				a.latencies = append(a.latencies, *e.ResponseTimeMs)
			}
			snap.RecentPolls = append(snap.RecentPolls, e)
		case entities.EventTypePollMissed:
			a.record.Signals.PollsMissed++
		case entities.EventTypeChatMessage:
			a.record.Signals.ChatMessages++
		case entities.EventTypeQuestion:
			a.record.Signals.QuestionsAsked++
			snap.RecentQuestions = append(snap.RecentQuestions, e)
		case entities.EventTypeAttentionScore, entities.EventTypeGaze:
			// Both attention-like kinds feed the same mean.
			if e.AttentionScore != nil {
				a.attentions = append(a.attentions, *e.AttentionScore)
			}
		case entities.EventTypeSelfReport:
			a.record.Signals.SelfReport = e.Value
		case entities.EventTypeTranscriptUpdate:
			if e.Text != "" {
				snap.RecentTranscript = append(snap.RecentTranscript, e.Text)
			}
		case entities.EventTypeVideoState:
			a.record.Signals.VideoOn = e.VideoOn == nil || *e.VideoOn
		case entities.EventTypeLookAway,
			entities.EventTypeParticipantJoined,
			entities.EventTypeParticipantLeft:
			// Presence only.
		case entities.EventTypeUnknown:
			// Accepted at ingestion, ignored here.
		}
	}

	for _, a := range users {
		if n := len(a.latencies); n > 0 {
			sum := 0
			for _, l := range a.latencies {
				sum += l
			}
			a.record.Signals.AvgResponseLatencyMs = float64(sum) / float64(n)
		}
		if n := len(a.attentions); n > 0 {
			sum := 0.0
			for _, s := range a.attentions {
				sum += s
			}
			mean := sum / float64(n)
			a.record.Signals.AttentionScore = &mean
		}
		snap.Users = append(snap.Users, a.record)
	}

	// Deterministic ordering so repeated aggregation is bit-identical.
	sort.Slice(snap.Users, func(i, j int) bool {
		return snap.Users[i].UserID < snap.Users[j].UserID
	})

	return snap
}
