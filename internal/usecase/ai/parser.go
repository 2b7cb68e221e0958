package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

// Parser handles parsing and validation of the agents' JSON responses.
// Model output is untrusted: missing fields get defaults, out-of-range
// values are clamped, and only structurally broken JSON is an error.
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseSummary parses the summarizer agent's response.
func (p *Parser) ParseSummary(jsonString string) (entities.EngagementSummary, error) {
	jsonString = extractJSON(jsonString)

	var summary entities.EngagementSummary
	if err := json.Unmarshal([]byte(jsonString), &summary); err != nil {
		return entities.EngagementSummary{}, fmt.Errorf("failed to parse summary response: %w", err)
	}
	summary.Clamp()
	return summary, nil
}

// ParseDecision parses the coordinator agent's response. An unrecognized
// action collapses to NONE rather than failing.
func (p *Parser) ParseDecision(jsonString string) (entities.Decision, error) {
	jsonString = extractJSON(jsonString)

	var decision entities.Decision
	if err := json.Unmarshal([]byte(jsonString), &decision); err != nil {
		return entities.Decision{}, fmt.Errorf("failed to parse decision response: %w", err)
	}
	switch decision.Action {
	case entities.ActionNone, entities.ActionGeneratePoll,
		entities.ActionPromptInstructor, entities.ActionHighlightColdStudents:
	default:
		decision.Action = entities.ActionNone
	}
	return decision, nil
}

// ParseNudge parses the nudge agent's response. A nudge without a message
// is useless and rejected.
func (p *Parser) ParseNudge(jsonString string) (entities.Nudge, error) {
	jsonString = extractJSON(jsonString)

	var nudge entities.Nudge
	if err := json.Unmarshal([]byte(jsonString), &nudge); err != nil {
		return entities.Nudge{}, fmt.Errorf("failed to parse nudge response: %w", err)
	}
	if nudge.Message == "" {
		return entities.Nudge{}, fmt.Errorf("missing message in nudge response")
	}
	return nudge, nil
}

// ParseQuiz parses the quiz agent's response, assigning ids to questions
// that came back without one and dropping questions with no text.
func (p *Parser) ParseQuiz(jsonString string) (entities.Quiz, error) {
	jsonString = extractJSON(jsonString)

	var quiz entities.Quiz
	if err := json.Unmarshal([]byte(jsonString), &quiz); err != nil {
		return entities.Quiz{}, fmt.Errorf("failed to parse quiz response: %w", err)
	}
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	questions := quiz.Questions[:0]
	for _, q := range quiz.Questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Type != entities.QuestionTypeMCQ && q.Type != entities.QuestionTypeOpen {
			q.Type = entities.QuestionTypeOpen
		}
		questions = append(questions, q)
	}
	quiz.Questions = questions
	if quiz.Questions == nil {
		quiz.Questions = []entities.QuizQuestion{}
	}
	return quiz, nil
}

// ParseNotes parses the notes agent's response.
func (p *Parser) ParseNotes(jsonString string) (entities.MeetingNotes, error) {
	jsonString = extractJSON(jsonString)

	var notes entities.MeetingNotes
	if err := json.Unmarshal([]byte(jsonString), &notes); err != nil {
		return entities.MeetingNotes{}, fmt.Errorf("failed to parse notes response: %w", err)
	}
	if notes.Summary == "" && len(notes.KeyPoints) == 0 {
		return entities.MeetingNotes{}, fmt.Errorf("empty notes response")
	}
	if notes.KeyPoints == nil {
		notes.KeyPoints = []string{}
	}
	if notes.ActionItems == nil {
		notes.ActionItems = []string{}
	}
	return notes, nil
}

// ParseNotesUpdate parses the notes-chat agent's response. Unlike a fresh
// notes document a refinement may touch any subset of fields, so only a
// response with nothing in it at all is rejected.
func (p *Parser) ParseNotesUpdate(jsonString string) (entities.MeetingNotes, error) {
	jsonString = extractJSON(jsonString)

	var update entities.MeetingNotes
	if err := json.Unmarshal([]byte(jsonString), &update); err != nil {
		return entities.MeetingNotes{}, fmt.Errorf("failed to parse notes update response: %w", err)
	}
	if update.Title == "" && update.Summary == "" &&
		len(update.KeyPoints) == 0 && len(update.ActionItems) == 0 {
		return entities.MeetingNotes{}, fmt.Errorf("empty notes update response")
	}
	return update, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
