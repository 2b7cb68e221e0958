package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/errors"
	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/internal/usecase/engagement"
)

// LLM is the completion client the agents share.
type LLM interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Agents implements the engagement ports (summarizer, nudge, quiz,
// coordinator) plus notes extraction on top of one LLM client.
type Agents struct {
	llm    LLM
	parser *Parser
	logger *zap.Logger
}

// NewAgents creates the agent set.
func NewAgents(llm LLM, logger *zap.Logger) *Agents {
	return &Agents{llm: llm, parser: NewParser(), logger: logger}
}

const summarizerSystem = `You are an engagement summarizer for a live video class.
You ONLY analyze engagement signals (polls, chat, questions, attention scores).
For each user, assign engagement 1 (low), 2 (medium), or 3 (high).
Return STRICT JSON:
{
  "class_engagement": 1|2|3,
  "per_user": [{"userId": "...", "engagement": 1|2|3, "reason": "short"}],
  "cold_students": ["userId", ...],
  "summary": "1-2 sentences",
  "needs_intervention": true|false
}`

// Summarize implements engagement.Summarizer.
func (a *Agents) Summarize(ctx context.Context, snap entities.Snapshot) (entities.EngagementSummary, error) {
	input, err := json.Marshal(map[string]interface{}{
		"users":                    snap.Users,
		"recentTranscriptSnippets": capStrings(snap.RecentTranscript, 10),
	})
	if err != nil {
		return entities.EngagementSummary{}, err
	}

	raw, err := a.llm.CompleteJSON(ctx, summarizerSystem, string(input))
	if err != nil {
		return entities.EngagementSummary{}, errors.ErrAgentFailed("summarizer", err)
	}
	summary, err := a.parser.ParseSummary(raw)
	if err != nil {
		return entities.EngagementSummary{}, errors.ErrAgentFailed("summarizer", err)
	}
	summary.GeneratedAt = time.Now()
	return summary, nil
}

const nudgeSystem = `You write short, supportive nudges for students losing focus in a live class.
Input: one participant's engagement signals plus class context.
Be warm and encouraging, never shaming. One or two sentences.
Return STRICT JSON:
{
  "message": "...",
  "reason": "short",
  "needsQuiz": true|false,
  "recommendedDifficulty": 1|2|3
}`

// GenerateNudge implements engagement.NudgeGenerator.
func (a *Agents) GenerateNudge(ctx context.Context, nc engagement.NudgeContext) (entities.Nudge, error) {
	input, err := json.Marshal(nc)
	if err != nil {
		return entities.Nudge{}, err
	}

	raw, err := a.llm.CompleteJSON(ctx, nudgeSystem, string(input))
	if err != nil {
		return entities.Nudge{}, errors.ErrAgentFailed("nudge", err)
	}
	nudge, err := a.parser.ParseNudge(raw)
	if err != nil {
		return entities.Nudge{}, errors.ErrAgentFailed("nudge", err)
	}
	nudge.UserID = nc.Participant.UserID
	nudge.DisplayName = nc.Participant.DisplayName
	return nudge, nil
}

const quizSystem = `You are a quiz generator for a live class.
Input: topic, difficulty (1-3), sourceMaterial.
Generate 2-3 short questions that test ONLY the sourceMaterial.
If difficulty=1, keep questions basic.
If the sourceMaterial does not contain enough content to write a question,
return an empty questions list. Never invent facts outside the material.
Return STRICT JSON:
{
  "topic": "...",
  "questions": [
    { "id": "q1", "type": "mcq", "question": "...", "options": ["..."], "correctIndex": 0 },
    { "id": "q2", "type": "open", "question": "..." }
  ]
}
No explanations.`

// GenerateQuiz implements engagement.QuizGenerator. Empty or whitespace-only
// source material short-circuits to an explicit empty result without calling
// the model: questions are never fabricated from no material.
func (a *Agents) GenerateQuiz(ctx context.Context, qr engagement.QuizRequest) (entities.Quiz, error) {
	if strings.TrimSpace(qr.SourceMaterial) == "" {
		return entities.Quiz{
			Topic:     qr.Topic,
			Questions: []entities.QuizQuestion{},
			Hint:      "No lecture material or transcript captured yet, so no quiz can be generated.",
		}, nil
	}

	input, err := json.Marshal(map[string]interface{}{
		"topic":          qr.Topic,
		"difficulty":     qr.Difficulty,
		"sourceMaterial": qr.SourceMaterial,
	})
	if err != nil {
		return entities.Quiz{}, err
	}

	raw, err := a.llm.CompleteJSON(ctx, quizSystem, string(input))
	if err != nil {
		return entities.Quiz{}, errors.ErrQuizGenerationFailed(err)
	}
	quiz, err := a.parser.ParseQuiz(raw)
	if err != nil {
		return entities.Quiz{}, errors.ErrQuizGenerationFailed(err)
	}
	if quiz.Topic == "" {
		quiz.Topic = qr.Topic
	}
	quiz.Difficulty = qr.Difficulty
	return quiz, nil
}

const coordinatorSystem = `You are the meeting coordinator for a live class.
Decide an action based on engagement and recent polls.
Actions:
- "NONE"
- "GENERATE_POLL"
- "PROMPT_INSTRUCTOR"
- "HIGHLIGHT_COLD_STUDENTS"
Pick ONE.
Return STRICT JSON:
{
  "action": "NONE" | "GENERATE_POLL" | "PROMPT_INSTRUCTOR" | "HIGHLIGHT_COLD_STUDENTS",
  "target_topic": "string or null",
  "reason": "short",
  "priority": "low" | "medium" | "high"
}
Give GENERATE_POLL or PROMPT_INSTRUCTOR when class engagement is 1 or there are many cold students.`

// Decide implements engagement.Coordinator.
func (a *Agents) Decide(ctx context.Context, dc engagement.DecisionContext) (entities.Decision, error) {
	input, err := json.Marshal(map[string]interface{}{
		"summary":                  dc.Summary,
		"recentPolls":              capEvents(dc.RecentPolls, 20),
		"recentQuestions":          capEvents(dc.RecentQuestions, 20),
		"recentTranscriptSnippets": capStrings(dc.RecentTranscript, 10),
		"topic":                    dc.Topic,
	})
	if err != nil {
		return entities.Decision{}, err
	}

	raw, err := a.llm.CompleteJSON(ctx, coordinatorSystem, string(input))
	if err != nil {
		return entities.Decision{}, errors.ErrAgentFailed("coordinator", err)
	}
	decision, err := a.parser.ParseDecision(raw)
	if err != nil {
		return entities.Decision{}, errors.ErrAgentFailed("coordinator", err)
	}
	decision.DecidedAt = time.Now()
	return decision, nil
}

const notesSystem = `You extract structured study notes from a class transcript.
Return STRICT JSON:
{
  "title": "...",
  "keyPoints": ["..."],
  "actionItems": ["..."],
  "summary": "2-4 sentences"
}`

// GenerateNotes turns the accumulated transcript into structured notes.
func (a *Agents) GenerateNotes(ctx context.Context, transcript string) (entities.MeetingNotes, error) {
	raw, err := a.llm.CompleteJSON(ctx, notesSystem, transcript)
	if err != nil {
		return entities.MeetingNotes{}, fmt.Errorf("notes agent: %w", err)
	}
	notes, err := a.parser.ParseNotes(raw)
	if err != nil {
		return entities.MeetingNotes{}, fmt.Errorf("notes agent: %w", err)
	}
	notes.GeneratedAt = time.Now()
	return notes, nil
}

const notesChatSystem = `You refine existing study notes based on a user request.
Input: the current notes document plus the user's request.
Apply ONLY the requested change. Return STRICT JSON with the fields you
changed (same shape as the notes document); omit fields you did not touch:
{
  "title": "...",
  "keyPoints": ["..."],
  "actionItems": ["..."],
  "summary": "..."
}`

// RefineNotes applies a conversational request to existing notes and
// returns the changed fields; the caller merges them into the stored
// document.
func (a *Agents) RefineNotes(ctx context.Context, query string, current entities.MeetingNotes) (entities.MeetingNotes, error) {
	input, err := json.Marshal(map[string]interface{}{
		"notes":   current,
		"request": query,
	})
	if err != nil {
		return entities.MeetingNotes{}, err
	}

	raw, err := a.llm.CompleteJSON(ctx, notesChatSystem, string(input))
	if err != nil {
		return entities.MeetingNotes{}, fmt.Errorf("notes chat agent: %w", err)
	}
	update, err := a.parser.ParseNotesUpdate(raw)
	if err != nil {
		return entities.MeetingNotes{}, fmt.Errorf("notes chat agent: %w", err)
	}
	return update, nil
}

func capStrings(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}

func capEvents(in []entities.Event, n int) []entities.Event {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}
