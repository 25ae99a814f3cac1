package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/rezzza07/artmart/service"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == requiredOrigin
		},
		Subprotocols: []string{"artmart-v1"},
	}
}

// ServeWS handles websocket requests from the peer. The bearer token rides
// in as the second subprotocol since browsers cannot set headers on
// websocket upgrades.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	protocols := r.Header.Get("Sec-WebSocket-Protocol")
	protocolsSplit := strings.Split(protocols, ",")

	if len(protocolsSplit) != 2 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token := strings.TrimSpace(protocolsSplit[1])

	email, authErr := h.Service.AuthenticateToken(r.Context(), token)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Failed to upgrade ws connection", "error", err)
		return
	}

	// Must upgrade the connection in order to be able to send custom close message
	if authErr != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthenticated"),
		)
		conn.Close()
		return
	}

	client := NewClient(h.Hub, conn, email, h.HandleWsMessage)

	h.Hub.OpenCh <- client

	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type artworkMessage struct {
	ArtworkId string `json:"artworkId"`
}

type responseMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Warn("Invalid JSON", "error", err)
		return
	}

	var resp responseMessage

	switch msg.Type {
	case "subscribe":
		var artMsg artworkMessage
		if err := json.Unmarshal(msg.Data, &artMsg); err != nil {
			slog.Warn("Invalid subscribe data", "error", err)
			return
		}
		resp = h.handleSubscribe(client, artMsg)

	case "unsubscribe":
		var artMsg artworkMessage
		if err := json.Unmarshal(msg.Data, &artMsg); err != nil {
			slog.Warn("Invalid unsubscribe data", "error", err)
			return
		}
		resp = h.handleUnsubscribe(client, artMsg)

	default:
		slog.Warn("Unknown message type", "type", msg.Type)
	}

	if resp.Type != "" {
		respBytes, err := json.Marshal(resp)
		if err != nil {
			slog.Error("Error marshaling response JSON", "error", err)
			return
		}
		client.Send <- respBytes
	}
}

func (h *Handler) handleSubscribe(client *Client, artMsg artworkMessage) responseMessage {
	resp := responseMessage{
		Type: "subscribe_response",
	}

	if err := service.ValidateArtworkId(artMsg.ArtworkId); err != nil {
		slog.Warn("Subscribe artwork id validation failed", "error", err)
		resp.Data = map[string]any{"success": false, "artworkId": artMsg.ArtworkId}
		return resp
	}

	sub := subscription{client: client, artworkId: artMsg.ArtworkId}
	h.Hub.SubscribeCh <- sub
	resp.Data = map[string]any{"success": true, "artworkId": artMsg.ArtworkId}

	return resp
}

func (h *Handler) handleUnsubscribe(client *Client, artMsg artworkMessage) responseMessage {
	resp := responseMessage{
		Type: "unsubscribe_response",
	}

	if err := service.ValidateArtworkId(artMsg.ArtworkId); err != nil {
		slog.Warn("Unsubscribe artwork id validation failed", "error", err)
		resp.Data = map[string]any{"success": false, "artworkId": artMsg.ArtworkId}
		return resp
	}

	sub := subscription{client: client, artworkId: artMsg.ArtworkId}
	h.Hub.UnsubscribeCh <- sub
	resp.Data = map[string]any{"success": true, "artworkId": artMsg.ArtworkId}

	return resp
}
