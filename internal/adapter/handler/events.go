package handler

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/errors"
	dto "github.com/classpulse-team/classpulse/internal/adapter/dto/engagement"
	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/internal/infrastructure/hub"
	"github.com/classpulse-team/classpulse/internal/infrastructure/registry"
	engage "github.com/classpulse-team/classpulse/internal/usecase/engagement"
	"github.com/classpulse-team/classpulse/internal/usecase/leaderboard"
)

// EventController handles the event ingestion boundary.
type EventController struct {
	reg    *registry.Registry
	policy *engage.Policy
	board  *leaderboard.Service
	push   *hub.Hub
	logger *zap.Logger
}

// NewEventController creates a new event controller.
func NewEventController(
	reg *registry.Registry,
	policy *engage.Policy,
	board *leaderboard.Service,
	push *hub.Hub,
	logger *zap.Logger,
) *EventController {
	return &EventController{reg: reg, policy: policy, board: board, push: push, logger: logger}
}

// Ingest accepts one typed event for a meeting. Unknown event types are
// accepted and stored with their raw payload; missing meetingId is the one
// hard rejection.
func (ec *EventController) Ingest(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(ec.logger, c, errors.ErrInvalidPayload())
	}

	var req dto.EventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(ec.logger, c, errors.ErrInvalidPayload())
	}
	if req.MeetingID == "" {
		return HandleError(ec.logger, c, errors.ErrMissingMeetingID())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(ec.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	var raw map[string]interface{}
	if _, known := entities.ParseEventType(req.Type); !known {
		_ = json.Unmarshal(body, &raw)
	}

	event, appendErr := ec.reg.Append(req.ToEntity(raw))
	if appendErr != nil {
		return HandleError(ec.logger, c, appendErr)
	}

	// Quiz answers feed the leaderboard immediately; the push goes out
	// only after the ledger write.
	if event.Type == entities.EventTypeQuizAnswer && event.UserID != entities.AnonymousUserID {
		ranked := ec.board.Update(event.MeetingID, event)
		ec.push.Publish(event.MeetingID, hub.Message{
			Type:    hub.MsgLeaderboardUpdate,
			Payload: ranked,
		})
	}

	// Ingestion-side escalation hooks (look-away fast path, round
	// completion). May call the quiz port and therefore block briefly;
	// bounded by the agent timeout.
	ec.policy.HandleEvent(c.Request().Context(), event)

	return HandleSuccess(ec.logger, c, map[string]interface{}{"ok": true})
}
