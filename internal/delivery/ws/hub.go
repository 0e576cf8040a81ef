package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/gorilla/websocket"
)

// Hub groups websocket connections into rooms. Normalize runs use the
// collection name as room id.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
	log   *logger.ZapLogger
}

func NewHub(log *logger.ZapLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
		log:   log,
	}
}

func (h *Hub) Register(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomID][conn] = true

	h.log.Log(logger.LogEntry{
		Level:   "debug",
		Message: "ws register",
		Fields:  map[string]any{"room": roomID, "conns": len(h.rooms[roomID])},
	})
}

func (h *Hub) Unregister(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}

	h.log.Log(logger.LogEntry{
		Level:   "debug",
		Message: "ws unregister",
		Fields:  map[string]any{"room": roomID, "conns": len(conns)},
	})
}

// Move switches conn from one room to another without closing it.
func (h *Hub) Move(from, to string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.rooms[from]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, from)
		}
	}
	if _, ok := h.rooms[to]; !ok {
		h.rooms[to] = make(map[*websocket.Conn]bool)
	}
	h.rooms[to][conn] = true
}

// RoomSize reports how many connections are in roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// SendToRoom writes msg to every connection of the room. Writes are
// serialized since a websocket.Conn allows one writer at a time.
func (h *Hub) SendToRoom(roomID string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[roomID] {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "ws send failed",
				Error:   err,
				Fields:  map[string]any{"room": roomID},
			})
		}
	}
}

type eventMsg struct {
	Type       string                  `json:"type"`
	Collection string                  `json:"collection"`
	Column     string                  `json:"column"`
	ID         string                  `json:"id,omitempty"`
	From       string                  `json:"from,omitempty"`
	To         string                  `json:"to,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Report     *models.NormalizeReport `json:"report,omitempty"`
}

// Relay forwards normalize progress to the room named after the collection
// until events is closed.
func (h *Hub) Relay(events <-chan ports.NormalizeEvent) {
	for ev := range events {
		payload, err := json.Marshal(eventMsg{
			Type:       string(ev.Kind),
			Collection: ev.Collection,
			Column:     ev.Column,
			ID:         ev.RecordID,
			From:       ev.From,
			To:         ev.To,
			Error:      ev.Error,
			Report:     ev.Report,
		})
		if err != nil {
			h.log.Log(logger.LogEntry{Level: "error", Message: "ws event marshal failed", Error: err})
			continue
		}
		h.SendToRoom(ev.Collection, payload)
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
