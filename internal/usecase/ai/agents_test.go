package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	apperrors "github.com/classpulse-team/classpulse/errors"
	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/internal/usecase/engagement"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) CompleteJSON(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestGenerateQuiz_NoMaterialNeverCallsModel(t *testing.T) {
	llm := &stubLLM{response: `{"topic": "x", "questions": [{"question": "fabricated"}]}`}
	agents := NewAgents(llm, zap.NewNop())

	quiz, err := agents.GenerateQuiz(context.Background(), engagement.QuizRequest{
		Topic:          "recursion",
		Difficulty:     2,
		SourceMaterial: "   \n  ",
	})
	if err != nil {
		t.Fatalf("expected explicit empty result, got error: %v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("model called with no material: %d calls", llm.calls)
	}
	if !quiz.Empty() || quiz.Hint == "" {
		t.Fatalf("expected empty quiz with hint, got %+v", quiz)
	}
	if quiz.Topic != "recursion" {
		t.Fatalf("topic = %q, want recursion", quiz.Topic)
	}
}

func TestGenerateQuiz_WithMaterial(t *testing.T) {
	llm := &stubLLM{response: `{"questions": [{"type": "open", "question": "define a base case"}]}`}
	agents := NewAgents(llm, zap.NewNop())

	quiz, err := agents.GenerateQuiz(context.Background(), engagement.QuizRequest{
		Topic:          "recursion",
		Difficulty:     1,
		SourceMaterial: "a base case terminates the recursion",
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("model calls = %d, want 1", llm.calls)
	}
	if quiz.Topic != "recursion" {
		t.Fatalf("missing topic not defaulted: %q", quiz.Topic)
	}
	if quiz.Difficulty != 1 {
		t.Fatalf("difficulty = %d, want 1", quiz.Difficulty)
	}
	if len(quiz.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(quiz.Questions))
	}
}

func TestSummarize_PassesThroughParser(t *testing.T) {
	llm := &stubLLM{response: "```json\n{\"class_engagement\": 3, \"summary\": \"lively\"}\n```"}
	agents := NewAgents(llm, zap.NewNop())

	summary, err := agents.Summarize(context.Background(), entities.Snapshot{MeetingID: "m1"})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary.ClassEngagement != entities.EngagementHigh {
		t.Fatalf("class engagement = %d, want 3", summary.ClassEngagement)
	}
	if summary.GeneratedAt.IsZero() {
		t.Fatalf("generatedAt not stamped")
	}
}

func TestGenerateNudge_StampsParticipant(t *testing.T) {
	llm := &stubLLM{response: `{"message": "we miss your questions!", "reason": "quiet"}`}
	agents := NewAgents(llm, zap.NewNop())

	nudge, err := agents.GenerateNudge(context.Background(), engagement.NudgeContext{
		MeetingID: "m1",
		Participant: entities.SignalRecord{
			UserID:      "alice",
			DisplayName: "Alice",
		},
	})
	if err != nil {
		t.Fatalf("nudge failed: %v", err)
	}
	if nudge.UserID != "alice" || nudge.DisplayName != "Alice" {
		t.Fatalf("participant not stamped: %+v", nudge)
	}
}

func TestDecide_ErrorPropagates(t *testing.T) {
	llm := &stubLLM{err: context.DeadlineExceeded}
	agents := NewAgents(llm, zap.NewNop())

	if _, err := agents.Decide(context.Background(), engagement.DecisionContext{MeetingID: "m1"}); err == nil {
		t.Fatalf("expected error from failing model")
	}
}

func TestAgentFailuresAreTyped(t *testing.T) {
	llm := &stubLLM{err: context.DeadlineExceeded}
	agents := NewAgents(llm, zap.NewNop())

	_, err := agents.Summarize(context.Background(), entities.Snapshot{MeetingID: "m1"})
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("summarizer failure not an app error: %v", err)
	}
	if appErr.Code != apperrors.ErrorCode_AGENT_FAILED {
		t.Fatalf("code = %v, want AGENT_FAILED", appErr.Code)
	}

	_, err = agents.GenerateQuiz(context.Background(), engagement.QuizRequest{SourceMaterial: "some material"})
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_QUIZ_GENERATION_FAILED {
		t.Fatalf("quiz failure not typed: %v", err)
	}
}

func TestRefineNotes_PartialUpdate(t *testing.T) {
	llm := &stubLLM{response: `{"actionItems": ["read chapter 2"]}`}
	agents := NewAgents(llm, zap.NewNop())

	update, err := agents.RefineNotes(context.Background(), "add a follow-up item",
		entities.MeetingNotes{Summary: "good session"})
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	if len(update.ActionItems) != 1 || update.ActionItems[0] != "read chapter 2" {
		t.Fatalf("unexpected update: %+v", update)
	}
	if update.Summary != "" {
		t.Fatalf("untouched field came back populated: %q", update.Summary)
	}
}

func TestRefineNotes_EmptyResponseRejected(t *testing.T) {
	llm := &stubLLM{response: `{}`}
	agents := NewAgents(llm, zap.NewNop())

	if _, err := agents.RefineNotes(context.Background(), "do nothing", entities.MeetingNotes{}); err == nil {
		t.Fatalf("expected error for empty update")
	}
}

func TestGenerateNotes(t *testing.T) {
	llm := &stubLLM{response: `{"title": "Lecture 4", "keyPoints": ["recursion"], "summary": "good session"}`}
	agents := NewAgents(llm, zap.NewNop())

	notes, err := agents.GenerateNotes(context.Background(), "[host]: today we cover recursion")
	if err != nil {
		t.Fatalf("notes failed: %v", err)
	}
	if notes.Title != "Lecture 4" || notes.GeneratedAt.IsZero() {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}
