package api

import (
	"errors"

	"github.com/example/webrtc-signaling-relay/modules/activity"
	"github.com/example/webrtc-signaling-relay/modules/signaling"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/", m.rootHandler)

	// Health check
	app.Get("/health", m.healthHandler)

	// Room management
	app.Get("/rooms", m.listRooms)
	app.Get("/rooms/:id", m.getRoom)

	// Activity
	app.Get("/stats", m.getStats)
	app.Get("/stats/recent", m.getRecentActivity)
	app.Get("/stats/rooms/:id", m.getRoomStats)

	// WebSocket signaling endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:roomId/:userName", websocket.New(m.handleWebSocket))
}

// rootHandler handles GET /.
func (m *APIModule) rootHandler(c *fiber.Ctx) error {
	return c.JSON(RootResponse{Message: serviceName})
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{
		"module": "api",
	}
	if m.relay != nil {
		details["connections"] = m.relay.Hub().ConnectionCount()
		details["rooms"] = m.relay.Hub().RoomCount()
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: details,
	})
}

// listRooms handles GET /rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.signalingPort.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := RoomListResponse{
		Rooms: make([]RoomListItem, 0, len(rooms)),
	}
	for _, room := range rooms {
		names := room.ParticipantNames
		if names == nil {
			names = []string{}
		}
		response.Rooms = append(response.Rooms, RoomListItem{
			ID:               room.ID,
			Participants:     room.ParticipantCount,
			ParticipantNames: names,
		})
	}

	return c.JSON(response)
}

// getRoom handles GET /rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	roomID := c.Params("id")

	room, err := m.signalingPort.GetRoom(c.UserContext(), roomID)
	if errors.Is(err, signaling.ErrRoomNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Room not found",
		})
	}
	if err != nil {
		m.logger.Error("Failed to get room", "roomID", roomID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "get_failed",
			Message: "Failed to get room",
		})
	}

	response := RoomDetailResponse{
		ID:           room.ID,
		Participants: make([]ParticipantResponse, 0, len(room.Participants)),
	}
	for _, p := range room.Participants {
		response.Participants = append(response.Participants, ParticipantResponse{
			ID:   p.ID,
			Name: p.Name,
		})
	}

	return c.JSON(response)
}

// getStats handles GET /stats.
func (m *APIModule) getStats(c *fiber.Ctx) error {
	summary, err := m.activityPort.GetSummary(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to get activity summary", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get activity summary",
		})
	}
	return c.JSON(summary)
}

// getRecentActivity handles GET /stats/recent.
func (m *APIModule) getRecentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	entries, err := m.activityPort.GetRecent(c.UserContext(), limit)
	if err != nil {
		m.logger.Error("Failed to get recent activity", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get recent activity",
		})
	}
	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}

// getRoomStats handles GET /stats/rooms/:id.
func (m *APIModule) getRoomStats(c *fiber.Ctx) error {
	roomID := c.Params("id")

	stats, err := m.activityPort.GetRoomStats(c.UserContext(), roomID)
	if errors.Is(err, activity.ErrRoomNotTracked) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Room not found",
		})
	}
	if err != nil {
		m.logger.Error("Failed to get room activity", "roomID", roomID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get room activity",
		})
	}
	return c.JSON(stats)
}

// handleWebSocket handles WebSocket connections at /ws/:roomId/:userName.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	roomID := c.Params("roomId")
	userName := c.Params("userName")

	if err := m.relay.Serve(c, roomID, userName); err != nil {
		m.logger.Warn("WebSocket connection ended with error",
			"roomID", roomID,
			"name", userName,
			"error", err)
	}
}
