package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/fixara/fixara-be/internal/realtime"
	"github.com/fixara/fixara-be/internal/utils"
)

// NotificationHandler streams marketplace events (bid received, bid resolved,
// job completed, review received) over a websocket. Auth rides on a token
// query param because browsers cannot attach the session cookie to cross-site
// upgrade requests.
type NotificationHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewNotificationHandler(hub *realtime.Hub, jwtSecret string) *NotificationHandler {
	return &NotificationHandler{Hub: hub, JWTSecret: jwtSecret}
}

func (h *NotificationHandler) WebSocketHandler(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	claims, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		_ = conn.Close()
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		_ = conn.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   realtime.NewWebSocketConn(conn),
		Send:   make(chan []byte, 16),
	}
	h.Hub.RegisterClient(client)

	// write pump
	done := make(chan struct{})
	go func() {
		defer close(done)
		for payload := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}()

	// read loop only exists to detect disconnects; clients never send
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.Hub.UnregisterClient(client)
	<-done
	if err := conn.Close(); err != nil {
		log.Printf("Error closing notification socket for %s: %v", userID, err)
	}
}
