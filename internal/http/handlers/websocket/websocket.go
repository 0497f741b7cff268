package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/journal-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// clients are authenticated by token, not by origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades an authenticated request and registers the
// connection for notifications about the caller's posts. It runs behind a
// gate chain reading the token from the query string.
// @Summary Subscribe to notifications
// @Description Upgrade to a WebSocket delivering post.liked and post.commented events for the caller's posts
// @Tags notifications
// @Param token query string true "Access token"
// @Success 101 "Switching protocols"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /ws [get]
func WebSocketHandler(hub *wsClient.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, userID, hub)
		if !hub.RegisterClient(client) {
			conn.Close()
			return
		}

		client.Start()

		slog.Info("WebSocket connection established", slog.String("user_id", userID.String()))
	}
}
