// Package gateway pushes summary-stream progress to connected browser
// extensions over socket.io. Clients subscribe to the papers they are
// watching; generation frames are fanned out to the matching room and,
// in a cluster, across instances through Redis.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/paperlens/core/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespacePapers = "/papers"
	namespaceAdmin  = "/admin"
	redisChanPapers = "pl:gateway:papers"
	redisChanAdmin  = "pl:gateway:admin"
	RoomAdmin       = "admin"
)

// Frame event types mirrored from the provider stream.
const (
	EventDelta       = "summary:delta"
	EventUsageInput  = "summary:usage_input"
	EventUsageOutput = "summary:usage_output"
	EventDone        = "summary:done"
	EventError       = "summary:error"
)

// Message is the envelope used by hub broadcasts and Redis fan-out.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StreamFrame is the payload delivered to paper subscribers.
type StreamFrame struct {
	PaperID string      `json:"paper_id"`
	Variant string      `json:"variant,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type roomChange struct {
	sid  string
	room string
	join bool
}

// Hub manages the socket.io namespaces and cluster fan-out.
type Hub struct {
	mu sync.RWMutex

	sidRooms  map[string]map[string]bool
	roomCount map[string]int

	broadcast chan Message
	changes   chan roomChange

	rc             *pkgredis.Client
	logger         *zap.Logger
	sio            *socketio.Server
	tokenValidator func(string) bool
}

func NewHub(rc *pkgredis.Client, logger *zap.Logger, tokenValidator func(string) bool) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		sidRooms:       make(map[string]map[string]bool),
		roomCount:      make(map[string]int),
		broadcast:      make(chan Message, 256),
		changes:        make(chan roomChange, 256),
		rc:             rc,
		logger:         logger,
		sio:            sio,
		tokenValidator: tokenValidator,
	}
	h.registerNamespaces()
	return h
}

func paperRoom(paperID string) string { return "paper:" + paperID }

func (h *Hub) registerNamespaces() {
	papersNS := h.sio.Of(namespacePapers, nil)
	_ = papersNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())
		_ = client.Emit("message", gatewayPayload{Type: "GATEWAY_CONNECT", Data: "WebSocket connected"})

		_ = client.On("subscribe", func(evArgs ...any) {
			paperID, ok := firstString(evArgs)
			if !ok || paperID == "" {
				return
			}
			room := paperRoom(paperID)
			client.Join(socketio.Room(room))
			h.changes <- roomChange{sid: sid, room: room, join: true}
		})

		_ = client.On("unsubscribe", func(evArgs ...any) {
			paperID, ok := firstString(evArgs)
			if !ok || paperID == "" {
				return
			}
			room := paperRoom(paperID)
			client.Leave(socketio.Room(room))
			h.changes <- roomChange{sid: sid, room: room, join: false}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.changes <- roomChange{sid: sid}
		})
	})

	adminNS := h.sio.Of(namespaceAdmin, nil)
	_ = adminNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}

		token := normalizeToken(extractToken(client))
		if token == "" || h.tokenValidator == nil || !h.tokenValidator(token) {
			_ = client.Emit("message", gatewayPayload{Type: "AUTH_FAILED", Data: "auth failed"})
			client.Disconnect(true)
			return
		}

		sid := string(client.Id())
		client.Join(socketio.Room(RoomAdmin))
		h.changes <- roomChange{sid: sid, room: RoomAdmin, join: true}
		_ = client.Emit("message", gatewayPayload{Type: "GATEWAY_CONNECT", Data: "WebSocket connected"})

		_ = client.On("disconnect", func(_ ...any) {
			h.changes <- roomChange{sid: sid}
		})
	})
}

func firstString(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return strings.TrimSpace(s), ok
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := firstValueFromMultiMap(handshake.Query, "token"); token != "" {
		return token
	}
	return firstValueFromMultiMap(handshake.Headers, "authorization")
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Run starts the hub loop and Redis subscriber.
func (h *Hub) Run(ctx context.Context) {
	if h.rc != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case change := <-h.changes:
			h.applyChange(change)

		case msg := <-h.broadcast:
			h.deliver(msg)

			if h.rc != nil {
				channel := redisChanPapers
				if msg.Room == RoomAdmin {
					channel = redisChanAdmin
				}
				data, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if err := h.rc.Publish(ctx, channel, string(data)); err != nil {
					h.logger.Warn("gateway publish failed", zap.String("channel", channel), zap.Error(err))
				}
			}
		}
	}
}

func (h *Hub) applyChange(c roomChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A change without a room is a disconnect: drop every membership.
	if c.room == "" {
		for room := range h.sidRooms[c.sid] {
			if h.roomCount[room] > 0 {
				h.roomCount[room]--
			}
		}
		delete(h.sidRooms, c.sid)
		return
	}

	rooms := h.sidRooms[c.sid]
	if rooms == nil {
		rooms = map[string]bool{}
		h.sidRooms[c.sid] = rooms
	}

	if c.join {
		if !rooms[c.room] {
			rooms[c.room] = true
			h.roomCount[c.room]++
		}
		return
	}
	if rooms[c.room] {
		delete(rooms, c.room)
		if h.roomCount[c.room] > 0 {
			h.roomCount[c.room]--
		}
	}
}

func (h *Hub) deliver(msg Message) {
	payload := gatewayPayload{Type: msg.Event, Data: msg.Payload}
	if msg.Room == RoomAdmin {
		h.sio.Of(namespaceAdmin, nil).To(socketio.Room(RoomAdmin)).Emit("message", payload)
		return
	}
	h.sio.Of(namespacePapers, nil).To(socketio.Room(msg.Room)).Emit("message", payload)
}

// subscribeRedis listens for broadcasts from other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanPapers, redisChanAdmin)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				continue
			}
			h.deliver(msg)
		}
	}
}

// BroadcastFrame pushes one stream frame to the paper's subscribers.
func (h *Hub) BroadcastFrame(event string, frame StreamFrame) {
	h.broadcast <- Message{Event: event, Payload: frame, Room: paperRoom(frame.PaperID)}
}

// BroadcastAdmin pushes an event to the admin room.
func (h *Hub) BroadcastAdmin(event string, payload interface{}) {
	h.broadcast <- Message{Event: event, Payload: payload, Room: RoomAdmin}
}

// ClientCount reports subscriptions for one room, or distinct clients
// overall when room is empty.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room == "" {
		return len(h.sidRooms)
	}
	return h.roomCount[room]
}

// SubscriberCount reports how many clients watch one paper.
func (h *Hub) SubscriberCount(paperID string) int {
	return h.ClientCount(paperRoom(paperID))
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

// RegisterRoutes mounts socket.io and the stats endpoint.
func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	rg.Any("/socket.io", handler)
	rg.Any("/socket.io/*any", handler)

	rg.GET("/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"clients": hub.ClientCount(""),
			"admin":   hub.ClientCount(RoomAdmin),
		})
	})
}
