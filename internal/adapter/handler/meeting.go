package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/errors"
	dto "github.com/classpulse-team/classpulse/internal/adapter/dto/engagement"
	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/internal/infrastructure/cache"
	"github.com/classpulse-team/classpulse/internal/infrastructure/hub"
	"github.com/classpulse-team/classpulse/internal/infrastructure/registry"
	aiuse "github.com/classpulse-team/classpulse/internal/usecase/ai"
	engage "github.com/classpulse-team/classpulse/internal/usecase/engagement"
	"github.com/classpulse-team/classpulse/internal/usecase/leaderboard"
	"github.com/classpulse-team/classpulse/pkg/config"
	pkgjwt "github.com/classpulse-team/classpulse/pkg/jwt"
)

// MeetingController handles meeting-scoped operations: policy ticks,
// reports, lifecycle, topic/material and notes.
type MeetingController struct {
	reg       *registry.Registry
	policy    *engage.Policy
	board     *leaderboard.Service
	materials *cache.MaterialStore
	agents    *aiuse.Agents
	push      *hub.Hub
	tokens    *pkgjwt.Manager
	cfg       *config.Config
	logger    *zap.Logger
}

// NewMeetingController creates a new meeting controller.
func NewMeetingController(
	reg *registry.Registry,
	policy *engage.Policy,
	board *leaderboard.Service,
	materials *cache.MaterialStore,
	agents *aiuse.Agents,
	push *hub.Hub,
	tokens *pkgjwt.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) *MeetingController {
	return &MeetingController{
		reg:       reg,
		policy:    policy,
		board:     board,
		materials: materials,
		agents:    agents,
		push:      push,
		tokens:    tokens,
		cfg:       cfg,
		logger:    logger,
	}
}

// Tick runs one engagement evaluation for the meeting, as triggered from
// the instructor panel. The periodic scheduler drives the same path.
func (mc *MeetingController) Tick(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}

	result, err := mc.policy.RunTick(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(mc.logger, c, err)
	}
	return HandleSuccess(mc.logger, c, result)
}

// Report returns the pull-based view of the meeting: latest summary, last
// decision, counts and bounded history. A known meeting with no data yet
// returns a zero-valued report, not an error; nudges are never included.
func (mc *MeetingController) Report(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}

	var resp dto.ReportResponse
	err := mc.reg.View(meetingID, func(m *entities.MeetingState) {
		resp = dto.ReportResponse{
			MeetingID:        m.MeetingID,
			EventCount:       len(m.Events),
			LastSummary:      m.LastSummary,
			LastDecision:     m.LastDecision,
			History:          append([]entities.HistoryEntry{}, m.History...),
			RecentTranscript: append([]entities.TranscriptSnippet{}, m.Transcript...),
			Topic:            m.Topic,
			CreatedAt:        m.CreatedAt,
			EndedAt:          m.EndedAt,
		}
	})
	if err != nil {
		return HandleError(mc.logger, c, err)
	}
	return HandleSuccess(mc.logger, c, resp)
}

// End marks the meeting ended; the report becomes its final record.
func (mc *MeetingController) End(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}
	if err := mc.reg.End(meetingID); err != nil {
		return HandleError(mc.logger, c, err)
	}
	return HandleSuccess(mc.logger, c, map[string]interface{}{"ended": true})
}

// SetTopic records the lesson topic used by the quiz and nudge agents.
func (mc *MeetingController) SetTopic(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}
	var req dto.TopicRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	if err := mc.reg.UpdateOrCreate(meetingID, func(m *entities.MeetingState) {
		m.Topic = req.Topic
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	return HandleSuccess(mc.logger, c, map[string]interface{}{"topic": req.Topic})
}

// UploadMaterial stores lecture text as allowed quiz source material.
func (mc *MeetingController) UploadMaterial(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}
	var req dto.MaterialRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	// Routed through the registry so material uploads create the meeting
	// like topic updates do and are rejected once it has ended.
	if err := mc.reg.UpdateOrCreate(meetingID, func(*entities.MeetingState) {
		mc.materials.Add(meetingID, req.Text)
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	return HandleSuccess(mc.logger, c, map[string]interface{}{"stored": true})
}

// Leaderboard returns the current ranked list for the meeting.
func (mc *MeetingController) Leaderboard(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}
	return HandleSuccess(mc.logger, c, mc.board.Get(meetingID))
}

// PanelToken mints a push-channel token for one listener. Only instructors
// may request the preview-as override; anyone else gets a forbidden error.
func (mc *MeetingController) PanelToken(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}
	var req dto.PanelTokenRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	role := req.Role
	if role == "" {
		role = hub.RoleParticipant
	}
	if req.PreviewAs != "" && role != hub.RoleInstructor {
		return HandleError(mc.logger, c, errors.ErrForbidden("Only instructors can preview as another participant"))
	}

	token, err := mc.tokens.Issue(meetingID, req.UserID, req.DisplayName, role, req.PreviewAs)
	if err != nil {
		return HandleError(mc.logger, c, errors.ErrInternal(err))
	}
	return HandleSuccess(mc.logger, c, dto.PanelTokenResponse{
		Token:     token,
		ExpiresIn: int(mc.cfg.Panel.TokenExpiry.Seconds()),
	})
}

// GenerateNotes builds structured notes from the accumulated transcript.
func (mc *MeetingController) GenerateNotes(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}

	var transcript string
	if err := mc.reg.View(meetingID, func(m *entities.MeetingState) {
		transcript = m.TranscriptText(0)
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	if transcript == "" {
		return HandleError(mc.logger, c, errors.ErrNoTranscript(meetingID))
	}

	notes, err := mc.agents.GenerateNotes(c.Request().Context(), transcript)
	if err != nil {
		return HandleError(mc.logger, c, errors.ErrNotesFailed(err))
	}

	if err := mc.reg.Update(meetingID, func(m *entities.MeetingState) {
		m.Notes = &notes
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	mc.push.Publish(meetingID, hub.Message{Type: hub.MsgNotesGenerated, Payload: notes})

	return HandleSuccess(mc.logger, c, notes)
}

// RefineNotes applies a conversational request to previously generated
// notes: the agent returns the changed fields, which are merged into the
// stored document and pushed to listeners.
func (mc *MeetingController) RefineNotes(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}
	var req dto.NotesChatRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(mc.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	var current *entities.MeetingNotes
	if err := mc.reg.View(meetingID, func(m *entities.MeetingState) {
		current = m.Notes
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	if current == nil {
		return HandleError(mc.logger, c, errors.ErrNotFound("Notes"))
	}

	update, err := mc.agents.RefineNotes(c.Request().Context(), req.Query, *current)
	if err != nil {
		return HandleError(mc.logger, c, errors.ErrNotesFailed(err))
	}

	var merged entities.MeetingNotes
	if err := mc.reg.Update(meetingID, func(m *entities.MeetingState) {
		if m.Notes == nil {
			m.Notes = &entities.MeetingNotes{}
		}
		m.Notes.Merge(update, time.Now())
		merged = *m.Notes
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	mc.push.Publish(meetingID, hub.Message{Type: hub.MsgNotesUpdated, Payload: merged})

	return HandleSuccess(mc.logger, c, merged)
}

// Notes returns previously generated notes.
func (mc *MeetingController) Notes(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(mc.logger, c, errors.ErrMissingMeetingID())
	}

	var notes *entities.MeetingNotes
	if err := mc.reg.View(meetingID, func(m *entities.MeetingState) {
		notes = m.Notes
	}); err != nil {
		return HandleError(mc.logger, c, err)
	}
	if notes == nil {
		return HandleError(mc.logger, c, errors.ErrNotFound("Notes"))
	}
	return HandleSuccess(mc.logger, c, notes)
}
