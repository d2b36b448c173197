package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"reco-quiz-service/internal/app"
	"reco-quiz-service/internal/domain"
)

// standingsInterval is how often the current standings are pushed to each
// websocket client.
const standingsInterval = 5 * time.Second

// WSHandler streams leaderboard updates to connected clients.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	interval time.Duration
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		interval: standingsInterval,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and pushes standings until the client leaves.
// A single writer goroutine owns the connection; the read loop only detects
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		standings, err := h.service.TopTeams(r.Context(), 0)
		if err != nil {
			log.Printf("ws standings: %v", err)
			return true
		}
		msg := outboundMessage[[]domain.TeamStanding]{Type: "leaderboard", Payload: standings}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error: %v", err)
			return false
		}
		return true
	}

	if !send() {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
