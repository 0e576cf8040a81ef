package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
)

const DefaultRunTimeout = 15 * time.Minute

type statusMsg struct {
	Status string                  `json:"status"`
	Error  string                  `json:"error,omitempty"`
	Report *models.NormalizeReport `json:"report,omitempty"`
}

func statusJSON(log *logger.ZapLogger, msg statusMsg) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Log(logger.LogEntry{Level: "error", Message: "ws status marshal failed", Error: err})
		return []byte(`{"status":"error"}`)
	}
	return b
}

// wsToken reads the admin token from X-Auth or, for browsers that cannot set
// headers on a websocket, from ?token=.
func wsToken(r *http.Request) string {
	if t := r.Header.Get("X-Auth"); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

// WSHandler joins an authenticated client to the room given by ?roomID.
// A first message {collection, column, dryRun} with a collection starts a
// normalize run; progress and the final report go to the room named after
// that collection. Without ?roomID the client follows the collection it runs.
// The run outlives the connection and is bounded by runTimeout.
func WSHandler(
	hub *Hub,
	normalizer ports.ImageNormalizer,
	auth ports.AuthService,
	defaults models.NormalizeRequest,
	runTimeout time.Duration,
	log *logger.ZapLogger,
) http.HandlerFunc {
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := wsToken(r)
		if ok, err := auth.ValidateToken(r.Context(), token); token == "" || err != nil || !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Log(logger.LogEntry{Level: "warn", Message: "ws upgrade failed", Error: err})
			return
		}

		explicitRoom := r.URL.Query().Get("roomID")
		roomID := explicitRoom
		if roomID == "" {
			roomID = defaults.Collection
		}

		hub.Register(roomID, conn)
		defer func() {
			hub.Unregister(roomID, conn)
		}()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req models.NormalizeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			hub.SendToRoom(roomID, statusJSON(log, statusMsg{Status: "error", Error: "invalid json"}))
			return
		}

		if req.Collection != "" {
			if req.Collection != roomID {
				if explicitRoom != "" {
					hub.SendToRoom(roomID, statusJSON(log, statusMsg{
						Status: "error",
						Error:  "collection " + req.Collection + " does not match room " + roomID,
					}))
					return
				}
				hub.Move(roomID, req.Collection, conn)
				roomID = req.Collection
			}
			if req.Column == "" {
				req.Column = defaults.Column
			}
			hub.SendToRoom(roomID, statusJSON(log, statusMsg{Status: "processing_started"}))

			room := roomID
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
				defer cancel()

				report, err := normalizer.NormalizeAll(ctx, req)
				if err != nil {
					log.Log(logger.LogEntry{
						Level:   "error",
						Message: "ws normalize failed",
						Error:   err,
						Fields:  map[string]any{"room": room, "target": req.Target()},
					})
					hub.SendToRoom(room, statusJSON(log, statusMsg{Status: "error", Error: err.Error()}))
					return
				}
				hub.SendToRoom(room, statusJSON(log, statusMsg{Status: "ok", Report: report}))
			}()
		}

		// hold the connection until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
