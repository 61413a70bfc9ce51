package handler

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/service"
)

const eventStreamPingInterval = 30 * time.Second

// EventHandler streams organization activity to connected staff over a websocket.
type EventHandler struct {
	events service.EventService
	logger zerolog.Logger
}

// NewEventHandler constructs the handler.
func NewEventHandler(events service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register binds the websocket route. The router is expected to run the JWT
// middleware first, which accepts the token from the query string.
func (h *EventHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, middleware.RequireRole(middleware.AuthRoleStaff))

	router.Get("/ws", websocket.New(h.stream))
}

func (h *EventHandler) stream(conn *websocket.Conn) {
	orgID, _ := conn.Locals(middleware.LocalOrganizationID).(uint)
	userID, _ := conn.Locals(middleware.LocalUserID).(uint)
	if orgID == 0 || userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "identity missing"))
		_ = conn.Close()
		return
	}

	events, cancel := h.events.Subscribe(orgID)
	closed := make(chan struct{})
	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			close(closed)
			cancel()
			_ = conn.Close()
		})
	}
	defer shutdown()

	logger := h.logger.With().Uint("user_id", userID).Uint("organization_id", orgID).Logger()
	logger.Info().Msg("event stream connected")
	defer logger.Info().Msg("event stream disconnected")

	// drain client frames so close and pong frames are processed
	go func() {
		defer shutdown()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventStreamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("event write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("event ping failed")
				return
			}
		case <-closed:
			return
		}
	}
}
