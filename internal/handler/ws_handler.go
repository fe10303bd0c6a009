package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/rampart/internal/auth"
	"github.com/freeeve/rampart/internal/repository"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
	cacheWait   = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators are authenticated by token, not origin
	},
}

// WSHandler handles spectator WebSocket connections.
type WSHandler struct {
	hub    *Hub
	jwtMgr *auth.JWTManager
	cache  repository.LiveCache
}

// NewWSHandler creates a WSHandler. cache may be nil, in which case late
// subscribers wait for the next turn.
func NewWSHandler(hub *Hub, jwtMgr *auth.JWTManager, cache repository.LiveCache) *WSHandler {
	return &WSHandler{hub: hub, jwtMgr: jwtMgr, cache: cache}
}

// ServeWS handles GET /api/v1/ws and upgrades to WebSocket.
// Auth via ?token= query parameter (WebSocket can't send headers).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, `{"error":"missing token parameter"}`, http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtMgr.ValidateToken(tokenStr)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:   conn,
		claims: claims,
		send:   make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)

	// Send a welcome message so the client can confirm the connection is live.
	h.hub.SendTo(client, WSEvent{Type: EventConnected, MatchID: claims.MatchID, Data: map[string]any{}})

	go h.writePump(client)
	go h.readPump(client)

	log.Info().
		Str("spectatorId", claims.SpectatorID).
		Str("scope", claims.MatchID).
		Int("total", h.hub.ConnectionCount()).
		Msg("WebSocket client connected")
}

// handleMessage applies one client message to the hub.
func (h *WSHandler) handleMessage(c *WSConn, msg ClientMessage) {
	if msg.MatchID == "" {
		return
	}
	switch msg.Action {
	case "subscribe":
		if !c.claims.CanWatch(msg.MatchID) {
			h.hub.SendTo(c, WSEvent{
				Type:    EventError,
				MatchID: msg.MatchID,
				Data:    map[string]string{"error": "token does not cover this match"},
			})
			return
		}
		h.hub.Subscribe(c, msg.MatchID)
		h.sendLastTurn(c, msg.MatchID)
	case "unsubscribe":
		h.hub.Unsubscribe(c, msg.MatchID)
	}
}

// sendLastTurn catches a new subscriber up with the most recent turn.
func (h *WSHandler) sendLastTurn(c *WSConn, matchID string) {
	if h.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheWait)
	defer cancel()

	data, err := h.cache.GetLastTurn(ctx, matchID)
	if err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("Failed to read last turn")
		return
	}
	if data == nil {
		return
	}
	h.hub.SendTo(c, WSEvent{Type: EventLastTurn, MatchID: matchID, Data: json.RawMessage(data)})
}

// readPump reads messages from the WebSocket connection.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("spectatorId", c.spectatorID()).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("spectatorId", c.spectatorID()).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.handleMessage(c, msg)
	}
}

// writePump writes messages to the WebSocket connection.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued messages into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
