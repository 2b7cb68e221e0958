package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/classpulse-team/classpulse/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg     *config.Config
	events  *EventController
	meeting *MeetingController
	stream  *StreamController
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, events *EventController, meeting *MeetingController, stream *StreamController) *Router {
	return &Router{
		cfg:     cfg,
		events:  events,
		meeting: meeting,
		stream:  stream,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupEventRoutes(v1)
	rt.setupMeetingRoutes(v1)
}

// setupEventRoutes configures the ingestion boundary
func (rt *Router) setupEventRoutes(g *echo.Group) {
	g.POST("/events", rt.events.Ingest)
}

// setupMeetingRoutes configures meeting-scoped routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings/:id")

	meetings.POST("/tick", rt.meeting.Tick)
	meetings.GET("/report", rt.meeting.Report)
	meetings.POST("/end", rt.meeting.End)
	meetings.POST("/topic", rt.meeting.SetTopic)
	meetings.POST("/material", rt.meeting.UploadMaterial)
	meetings.GET("/leaderboard", rt.meeting.Leaderboard)
	meetings.POST("/panel-token", rt.meeting.PanelToken)
	meetings.POST("/notes", rt.meeting.GenerateNotes)
	meetings.GET("/notes", rt.meeting.Notes)
	meetings.POST("/notes/chat", rt.meeting.RefineNotes)
	meetings.GET("/stream", rt.stream.Stream)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
