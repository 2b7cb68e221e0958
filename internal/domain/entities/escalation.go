package entities

import (
	"time"
)

// EscalationState consolidates every counter the escalation policy reads or
// writes for one meeting: per-user nudge cooldowns, per-user look-away
// streaks, the meeting-level nudge counter, the active question round flag
// and the post-quiz grace deadline. It is transitioned only through the
// named operations below so the state machine stays auditable.
type EscalationState struct {
	LastNudgeAt         map[string]time.Time
	LookAways           map[string]int
	NudgeCount          int
	QuestionRoundActive bool
	GraceUntil          time.Time
}

// NewEscalationState returns the idle state.
func NewEscalationState() EscalationState {
	return EscalationState{
		LastNudgeAt: make(map[string]time.Time),
		LookAways:   make(map[string]int),
	}
}

// CooldownOK reports whether a nudge to user is allowed at now given the
// cooldown window. A user never nudged before is always allowed.
func (s *EscalationState) CooldownOK(userID string, now time.Time, cooldown time.Duration) bool {
	last, ok := s.LastNudgeAt[userID]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

// RecordNudge stamps the cooldown and advances the meeting nudge counter.
func (s *EscalationState) RecordNudge(userID string, now time.Time) {
	s.LastNudgeAt[userID] = now
	s.NudgeCount++
}

// ResetNudgeCount clears the accumulated nudge counter after the
// coordinator has been consulted.
func (s *EscalationState) ResetNudgeCount() {
	s.NudgeCount = 0
}

// RecordLookAway advances the user's consecutive look-away streak and
// returns the new count.
func (s *EscalationState) RecordLookAway(userID string) int {
	s.LookAways[userID]++
	return s.LookAways[userID]
}

// ResetLookAways clears the user's streak (any engagement signal does this).
func (s *EscalationState) ResetLookAways(userID string) {
	delete(s.LookAways, userID)
}

// BeginQuestionRound marks a quiz round in progress; new nudges and quiz
// triggers are suppressed until it completes.
func (s *EscalationState) BeginQuestionRound() {
	s.QuestionRoundActive = true
}

// ResetOnQuizComplete ends the round and enters the grace period during
// which nudges stay suppressed.
func (s *EscalationState) ResetOnQuizComplete(now time.Time, grace time.Duration) {
	s.QuestionRoundActive = false
	s.GraceUntil = now.Add(grace)
}

// InGrace reports whether the meeting is inside the post-quiz grace period.
func (s *EscalationState) InGrace(now time.Time) bool {
	return now.Before(s.GraceUntil)
}
