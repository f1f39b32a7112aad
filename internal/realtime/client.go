package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// EventRefresh is the only event pushed to dashboards.
const EventRefresh = "refresh"

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST surface; dashboards may be served elsewhere
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator func(token string) (uuid.UUID, error)

// EventReader loads an event to find its organization.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// AdminChecker reports whether a user administers an organization.
type AdminChecker interface {
	IsOrgAdmin(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// Client represents a single dashboard connection watching one scope.
type Client struct {
	ID     string
	Scope  Scope
	UserID uuid.UUID
	conn   *websocket.Conn
	send   chan WSMessage
	done   chan struct{}
	logger *zap.Logger
}

// ServeWs upgrades /ws?event_id=|organization_id=&token= and streams refresh
// notifications for that scope. Only organization admins may watch.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenValidator, events EventReader, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			response.Unauthorized(c, "token required")
			return
		}
		userID, err := validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		scope, orgID, ok := resolveScope(c, events)
		if !ok {
			return
		}
		isAdmin, err := admins.IsOrgAdmin(c.Request.Context(), orgID, userID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !isAdmin {
			response.Forbidden(c, "not authorized for this organization")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			Scope:  scope,
			UserID: userID,
			conn:   conn,
			send:   make(chan WSMessage, 256),
			done:   make(chan struct{}),
			logger: logger,
		}
		cancel, err := hub.Subscribe(scope, client.enqueue)
		if err != nil {
			logger.Warn("relay subscribe failed", zap.String("scope", string(scope)), zap.Error(err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "relay unavailable"))
			_ = conn.Close()
			return
		}
		logger.Debug("dashboard connected", zap.String("client_id", client.ID), zap.String("scope", string(scope)))
		go client.writePump()
		client.readPump(cancel)
	}
}

// resolveScope picks the watched scope and the organization that owns it.
func resolveScope(c *gin.Context, events EventReader) (Scope, uuid.UUID, bool) {
	if raw := c.Query("event_id"); raw != "" {
		eventID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return "", uuid.Nil, false
		}
		e, err := events.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			response.Error(c, err)
			return "", uuid.Nil, false
		}
		return EventScope(eventID), e.OrganizationID, true
	}
	if raw := c.Query("organization_id"); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid organization_id")
			return "", uuid.Nil, false
		}
		return OrganizationScope(orgID), orgID, true
	}
	response.BadRequest(c, "event_id or organization_id required")
	return "", uuid.Nil, false
}

// enqueue is the hub callback. A slow dashboard drops notifications; the next one triggers the same re-read.
func (c *Client) enqueue(change models.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- WSMessage{Event: EventRefresh, Data: data}:
	default:
		// buffer full, skip
	}
}

// readPump only drains control frames; dashboards never send commands.
func (c *Client) readPump(unsubscribe func()) {
	defer func() {
		unsubscribe()
		close(c.done)
		_ = c.conn.Close()
		c.logger.Debug("dashboard disconnected", zap.String("client_id", c.ID), zap.String("scope", string(c.Scope)))
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
