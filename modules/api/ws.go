package api

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/events"
	"github.com/example/taskboard/modules/broadcast"
)

// upgradeGate authenticates the connection before the websocket upgrade.
// The token comes from the Authorization header or, for browser clients
// that cannot set headers on websocket requests, a token query parameter.
func (h *Handlers) upgradeGate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token, errResp := bearerToken(c)
	if errResp != nil {
		if q := c.Query("token"); q != "" {
			token = q
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(*errResp)
		}
	}

	claims, err := h.auth.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	}

	c.Locals(UserContextKey, claims)
	return c.Next()
}

// HandleWebSocket runs the per-connection loop. Task events are relayed to
// every connected client verbatim; the server never rewrites payloads.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		// The gate always sets claims; a missing value means the
		// upgrade path was bypassed.
		_ = c.Close()
		return
	}

	client := &broadcast.Client{
		ID:       uuid.New().String(),
		UserID:   claims.UserID,
		Username: claims.Username,
		Conn:     c,
	}

	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s (%s)", client.ID, client.Username)
	}()

	log.Printf("[api] WebSocket client connected: %s (%s)", client.ID, client.Username)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", client.ID)
			} else {
				log.Printf("[api] Read error from %s: %v", client.ID, err)
			}
			return
		}

		env, err := events.Decode(data)
		if err != nil {
			h.sendError(c, "Invalid frame format")
			continue
		}

		switch env.Event {
		case events.TaskCreated, events.TaskUpdated, events.TaskDeleted:
			h.hub.Relay(client, env.Event, data)
		case events.PresenceAnnounce:
			userID, err := env.ID()
			if err != nil {
				h.sendError(c, "Invalid presence payload")
				continue
			}
			h.hub.Announce(client, userID)
		default:
			h.sendError(c, "Unsupported event: "+env.Event)
		}
	}
}

func (h *Handlers) sendError(c *websocket.Conn, message string) {
	frame, err := events.Encode(events.Error, message)
	if err != nil {
		return
	}
	_ = c.WriteMessage(websocket.TextMessage, frame)
}
