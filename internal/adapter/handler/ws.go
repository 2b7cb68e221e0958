package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/errors"
	"github.com/classpulse-team/classpulse/internal/infrastructure/hub"
	pkgjwt "github.com/classpulse-team/classpulse/pkg/jwt"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamController serves the push channel: one WebSocket per listener,
// authenticated with a panel token and fed from the hub.
type StreamController struct {
	push     *hub.Hub
	tokens   *pkgjwt.Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStreamController creates a new stream controller.
func NewStreamController(push *hub.Hub, tokens *pkgjwt.Manager, logger *zap.Logger) *StreamController {
	return &StreamController{
		push:   push,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The panel token is the access control; origin checks would
			// block the embedded panel iframe.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream upgrades the connection and relays hub messages until the client
// disconnects. The token must match the meeting in the path.
func (sc *StreamController) Stream(c echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return HandleError(sc.logger, c, errors.ErrMissingMeetingID())
	}

	claims, err := sc.tokens.Verify(c.QueryParam("token"))
	if err != nil || claims.MeetingID != meetingID {
		return HandleError(sc.logger, c, errors.ErrInvalidToken())
	}

	conn, err := sc.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sub := sc.push.Subscribe(meetingID, hub.Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		PreviewAs: claims.PreviewAs,
	}, 0)

	sc.logger.Info("ws.connected",
		zap.String("meeting_id", meetingID),
		zap.String("user_id", claims.UserID),
		zap.String("role", claims.Role),
	)

	go sc.readPump(conn, sub)
	sc.writePump(conn, sub, meetingID)
	return nil
}

// readPump drains client frames so close and ping control messages are
// processed; inbound data frames are ignored.
func (sc *StreamController) readPump(conn *websocket.Conn, sub *hub.Subscription) {
	defer sub.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (sc *StreamController) writePump(conn *websocket.Conn, sub *hub.Subscription, meetingID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				sc.logger.Warn("ws.write_failed",
					zap.String("meeting_id", meetingID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
