package engagement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/errors"
	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/internal/infrastructure/hub"
	"github.com/classpulse-team/classpulse/pkg/config"
)

// Store is the slice of the meeting registry the policy needs: serialized
// state access and the per-meeting tick guard.
type Store interface {
	Exists(meetingID string) bool
	Update(meetingID string, fn func(*entities.MeetingState)) error
	TryBeginTick(meetingID string) (release func(), ok bool)
}

// Publisher fans durable state changes out to listeners.
type Publisher interface {
	Publish(meetingID string, msg hub.Message)
}

// MaterialSource supplies uploaded lecture text for quiz generation.
type MaterialSource interface {
	Material(meetingID string) string
}

// TickResult is what one policy run produced.
type TickResult struct {
	Summary    entities.EngagementSummary `json:"summary"`
	Decision   *entities.Decision         `json:"decision,omitempty"`
	NudgesSent int                        `json:"nudgesSent"`
	Skipped    bool                       `json:"skipped,omitempty"`
}

// Policy is the per-meeting escalation state machine: it turns windowed
// snapshots into summaries, cooldown-gated nudges and threshold-gated
// quiz/instructor escalations.
type Policy struct {
	store       Store
	materials   MaterialSource
	pub         Publisher
	summarizer  Summarizer
	nudger      NudgeGenerator
	quizzer     QuizGenerator
	coordinator Coordinator

	cfg    config.EngagementConfig
	logger *zap.Logger
	clock  func() time.Time
}

// NewPolicy wires the state machine to its collaborators.
func NewPolicy(
	store Store,
	materials MaterialSource,
	pub Publisher,
	summarizer Summarizer,
	nudger NudgeGenerator,
	quizzer QuizGenerator,
	coordinator Coordinator,
	cfg config.EngagementConfig,
	logger *zap.Logger,
) *Policy {
	return &Policy{
		store:       store,
		materials:   materials,
		pub:         pub,
		summarizer:  summarizer,
		nudger:      nudger,
		quizzer:     quizzer,
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger,
		clock:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (p *Policy) SetClock(now func() time.Time) {
	p.clock = now
}

// RunTick executes one evaluation for the meeting: snapshot, summary,
// nudges, escalation. Ticks for the same meeting never overlap; a redundant
// concurrent trigger is dropped. Port failures degrade to deterministic
// fallbacks and never abort the tick.
func (p *Policy) RunTick(ctx context.Context, meetingID string) (TickResult, error) {
	if !p.store.Exists(meetingID) {
		return TickResult{}, errors.ErrMeetingNotFound(meetingID)
	}
	release, ok := p.store.TryBeginTick(meetingID)
	if !ok {
		p.logger.Debug("policy.tick_in_flight", zap.String("meeting_id", meetingID))
		return TickResult{Skipped: true}, nil
	}
	defer release()

	now := p.clock()

	var (
		snap  entities.Snapshot
		topic string
		mtype string
		ended bool
	)
	if err := p.store.Update(meetingID, func(m *entities.MeetingState) {
		if m.Ended() {
			ended = true
			return
		}
		snap = Aggregate(m, p.cfg.Window(), now)
		topic = m.Topic
		mtype = "education"
	}); err != nil {
		return TickResult{}, err
	}
	if ended {
		// Post-end ticks are no-ops; history stays frozen.
		return TickResult{Skipped: true}, nil
	}

	summary := p.summarize(ctx, snap, now)

	// Durable write before any push: a pull right after the push must see
	// the same summary.
	if err := p.store.Update(meetingID, func(m *entities.MeetingState) {
		m.LastSummary = &summary
		m.AppendHistory(entities.HistoryEntry{
			At:               now,
			ClassEngagement:  summary.ClassEngagement,
			ColdParticipants: summary.ColdParticipants,
			NarrativeSummary: summary.NarrativeSummary,
		}, p.cfg.HistoryLimit)
	}); err != nil {
		return TickResult{}, err
	}
	p.pub.Publish(meetingID, hub.Message{Type: hub.MsgSummaryUpdate, Payload: summary})

	result := TickResult{Summary: summary}
	result.NudgesSent = p.nudgeEligible(ctx, meetingID, mtype, topic, summary, snap, now)

	if decision := p.maybeEscalate(ctx, meetingID, topic, summary, snap, now); decision != nil {
		result.Decision = decision
	}
	return result, nil
}

// summarize calls the summarizer port, falling back to the deterministic
// neutral summary when the port is unavailable or returns garbage.
func (p *Policy) summarize(ctx context.Context, snap entities.Snapshot, now time.Time) entities.EngagementSummary {
	summary, err := p.summarizer.Summarize(ctx, snap)
	if err != nil {
		p.logger.Warn("policy.summarizer_unavailable",
			zap.String("meeting_id", snap.MeetingID),
			zap.Error(err),
		)
		return entities.FallbackSummary(now, "summarizer unavailable; defaulting to neutral engagement")
	}
	summary.Clamp()
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = now
	}
	return summary
}

// nudgeCandidate pairs a participant's window signals with the summary's
// reason for flagging them, which feeds the nudge prompt.
type nudgeCandidate struct {
	rec    entities.SignalRecord
	reason string
}

// eligible derives the participants needing attention: flagged cold or
// classified low, present in the current window, and addressable (the
// anonymous bucket has no one to deliver to).
func eligible(summary entities.EngagementSummary, snap entities.Snapshot) []nudgeCandidate {
	reasons := make(map[string]string)
	seen := make(map[string]bool)
	var ids []string

	for _, cold := range summary.ColdParticipants {
		if !seen[cold] {
			seen[cold] = true
			ids = append(ids, cold)
			reasons[cold] = "flagged cold"
		}
	}
	for _, pe := range summary.PerParticipant {
		if pe.Engagement == entities.EngagementLow && !seen[pe.UserID] {
			seen[pe.UserID] = true
			ids = append(ids, pe.UserID)
			reasons[pe.UserID] = pe.Reason
		}
	}

	var out []nudgeCandidate
	for _, id := range ids {
		if id == entities.AnonymousUserID {
			continue
		}
		// Absent this window means "no data", not "disengaged": skip.
		if rec := snap.User(id); rec != nil {
			out = append(out, nudgeCandidate{rec: *rec, reason: reasons[id]})
		}
	}
	return out
}

// nudgeEligible sends cooldown-gated nudges to the eligible set. A failed
// port call skips the participant this tick; they are retried on the next
// tick, not immediately.
func (p *Policy) nudgeEligible(
	ctx context.Context,
	meetingID, mtype, topic string,
	summary entities.EngagementSummary,
	snap entities.Snapshot,
	now time.Time,
) int {
	sent := 0
	for _, cand := range eligible(summary, snap) {
		rec := cand.rec
		allowed := false
		if err := p.store.Update(meetingID, func(m *entities.MeetingState) {
			allowed = !m.Ended() &&
				!m.Escalation.QuestionRoundActive &&
				!m.Escalation.InGrace(now) &&
				m.Escalation.CooldownOK(rec.UserID, now, p.cfg.NudgeCooldown)
		}); err != nil || !allowed {
			continue
		}

		nudge, err := p.nudger.GenerateNudge(ctx, NudgeContext{
			MeetingID:       meetingID,
			MeetingType:     mtype,
			Topic:           topic,
			ClassEngagement: summary.ClassEngagement,
			Participant:     rec,
			Reason:          cand.reason,
		})
		if err != nil {
			p.logger.Warn("policy.nudge_failed",
				zap.String("meeting_id", meetingID),
				zap.String("user_id", rec.UserID),
				zap.Error(err),
			)
			continue
		}
		nudge.UserID = rec.UserID
		if nudge.DisplayName == "" {
			nudge.DisplayName = rec.DisplayName
		}

		recorded := false
		var record entities.NudgeRecord
		if err := p.store.Update(meetingID, func(m *entities.MeetingState) {
			// Re-check under the lock: the look-away path may have started
			// a round, or a quiz answer may have opened a grace period,
			// while the port call was in flight. Cooldown writes must
			// never race.
			if m.Ended() || m.Escalation.QuestionRoundActive ||
				m.Escalation.InGrace(now) ||
				!m.Escalation.CooldownOK(rec.UserID, now, p.cfg.NudgeCooldown) {
				return
			}
			record = entities.NewNudgeRecord(nudge, now)
			m.Escalation.RecordNudge(rec.UserID, now)
			m.AppendNudge(record, p.cfg.NudgeLogLimit)
			recorded = true
		}); err != nil || !recorded {
			continue
		}

		// Nudges are push-only and scoped to the participant; the pull
		// report never carries them.
		p.pub.Publish(meetingID, hub.Message{
			Type:         hub.MsgNudge,
			Payload:      record,
			TargetUserID: rec.UserID,
		})
		sent++
	}
	return sent
}

// maybeEscalate consults the coordinator once the meeting has accumulated
// enough nudges, and turns a GENERATE_POLL decision into a broadcast quiz.
// The nudge counter resets after every consultation so the next escalation
// requires a fresh round of accumulated nudges.
func (p *Policy) maybeEscalate(
	ctx context.Context,
	meetingID, topic string,
	summary entities.EngagementSummary,
	snap entities.Snapshot,
	now time.Time,
) *entities.Decision {
	consult := false
	if err := p.store.Update(meetingID, func(m *entities.MeetingState) {
		consult = m.Escalation.NudgeCount >= p.cfg.NudgeThreshold &&
			!m.Escalation.QuestionRoundActive &&
			!m.Escalation.InGrace(now)
	}); err != nil || !consult {
		return nil
	}

	decision, err := p.coordinator.Decide(ctx, DecisionContext{
		MeetingID:        meetingID,
		Topic:            topic,
		Summary:          summary,
		RecentPolls:      snap.RecentPolls,
		RecentQuestions:  snap.RecentQuestions,
		RecentTranscript: snap.RecentTranscript,
	})
	if err != nil {
		p.logger.Warn("policy.coordinator_unavailable",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
		decision = entities.NoActionDecision("coordinator unavailable", now)
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = now
	}

	if decision.Action == entities.ActionGeneratePoll {
		quizTopic := decision.TargetTopic
		if quizTopic == "" {
			quizTopic = topic
		}
		if quizTopic == "" {
			quizTopic = "current topic"
		}
		quiz := p.generateQuiz(ctx, meetingID, quizTopic, summary.ClassEngagement, "")

		committed := false
		_ = p.store.Update(meetingID, func(m *entities.MeetingState) {
			m.LastDecision = &decision
			m.Escalation.ResetNudgeCount()
			// Re-check under the lock: the look-away fast path may have
			// started its own round while the coordinator and quiz calls
			// were in flight. One round at a time; the loser stays silent.
			if m.Ended() || m.Escalation.QuestionRoundActive || m.Escalation.InGrace(now) {
				return
			}
			if !quiz.Empty() {
				m.Escalation.BeginQuestionRound()
			}
			committed = true
		})
		if committed {
			p.pub.Publish(meetingID, hub.Message{
				Type: hub.MsgPollSuggestion,
				Payload: map[string]interface{}{
					"poll":   quiz,
					"reason": decision.Reason,
				},
			})
		}
		return &decision
	}

	_ = p.store.Update(meetingID, func(m *entities.MeetingState) {
		m.LastDecision = &decision
		m.Escalation.ResetNudgeCount()
	})
	p.pub.Publish(meetingID, hub.Message{Type: hub.MsgCoordinatorUpdate, Payload: decision})
	return &decision
}

// HandleEvent runs the ingestion-side escalation hooks after an event has
// been appended: engagement signals clear look-away streaks, quiz answers
// complete an active round, and look-aways drive the fast quiz path.
func (p *Policy) HandleEvent(ctx context.Context, e entities.Event) {
	switch {
	case e.Type == entities.EventTypeQuizAnswer:
		now := p.clock()
		_ = p.store.Update(e.MeetingID, func(m *entities.MeetingState) {
			m.Escalation.ResetLookAways(e.UserID)
			if m.Escalation.QuestionRoundActive {
				m.Escalation.ResetOnQuizComplete(now, p.cfg.GracePeriod)
			}
		})
	case e.IsEngagementSignal():
		_ = p.store.Update(e.MeetingID, func(m *entities.MeetingState) {
			m.Escalation.ResetLookAways(e.UserID)
		})
	case e.Type == entities.EventTypeLookAway:
		p.handleLookAway(ctx, e)
	}
}

// handleLookAway is the second, faster escalation path: after the
// configured number of consecutive look-aways the participant gets a
// material-based quiz directly, bypassing the coordinator. The round flag
// is reserved under the lock before generating so the two escalation paths
// never double-trigger.
func (p *Policy) handleLookAway(ctx context.Context, e entities.Event) {
	if e.UserID == entities.AnonymousUserID {
		return
	}
	now := p.clock()

	trigger := false
	var topic string
	difficulty := entities.EngagementMedium
	if err := p.store.Update(e.MeetingID, func(m *entities.MeetingState) {
		if m.Ended() {
			return
		}
		count := m.Escalation.RecordLookAway(e.UserID)
		if count < p.cfg.LookAwayThreshold ||
			m.Escalation.QuestionRoundActive ||
			m.Escalation.InGrace(now) {
			return
		}
		m.Escalation.ResetLookAways(e.UserID)
		m.Escalation.BeginQuestionRound()
		trigger = true
		topic = m.Topic
		if m.LastSummary != nil {
			for _, pe := range m.LastSummary.PerParticipant {
				if pe.UserID == e.UserID {
					difficulty = pe.Engagement
				}
			}
		}
	}); err != nil || !trigger {
		return
	}

	if topic == "" {
		topic = "current topic"
	}
	quiz := p.generateQuiz(ctx, e.MeetingID, topic, difficulty, e.UserID)

	if quiz.Empty() {
		// The client is actively waiting after repeated look-aways; free
		// the round and explain instead of going silent.
		_ = p.store.Update(e.MeetingID, func(m *entities.MeetingState) {
			m.Escalation.QuestionRoundActive = false
		})
		if quiz.Hint == "" {
			quiz.Hint = "No quiz available yet: not enough lecture material or transcript has been captured."
		}
	}
	p.pub.Publish(e.MeetingID, hub.Message{
		Type:         hub.MsgPollSuggestion,
		Payload:      map[string]interface{}{"poll": quiz},
		TargetUserID: e.UserID,
	})
}

// generateQuiz calls the quiz port with the allowed source material
// (uploaded lecture text plus the transcript tail). Failures come back as
// an empty quiz with a hint rather than an error.
func (p *Policy) generateQuiz(ctx context.Context, meetingID, topic string, difficulty int, forUserID string) entities.Quiz {
	material := p.materials.Material(meetingID)
	var transcript string
	_ = p.store.Update(meetingID, func(m *entities.MeetingState) {
		transcript = m.TranscriptText(maxTranscriptChars)
	})
	source := material
	if transcript != "" {
		if source != "" {
			source += "\n\n"
		}
		source += transcript
	}
	if len(source) > maxSourceChars {
		source = source[len(source)-maxSourceChars:]
	}

	quiz, err := p.quizzer.GenerateQuiz(ctx, QuizRequest{
		MeetingID:      meetingID,
		Topic:          topic,
		Difficulty:     difficulty,
		ForUserID:      forUserID,
		SourceMaterial: source,
	})
	if err != nil {
		p.logger.Warn("policy.quiz_failed",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
		return entities.Quiz{
			Topic:     topic,
			ForUserID: forUserID,
			Questions: []entities.QuizQuestion{},
			Hint:      "Quiz generation is temporarily unavailable; please try again shortly.",
		}
	}
	quiz.ForUserID = forUserID
	if quiz.Difficulty == 0 {
		quiz.Difficulty = difficulty
	}
	return quiz
}

const (
	maxTranscriptChars = 4000
	maxSourceChars     = 6000
)
