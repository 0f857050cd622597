package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/thierry1804/toa-permit/internal/auth"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// origin filtering is handled by the CORS layer
		return true
	},
}

// WebSocketHandler subscribes a client to one permit's status events.
// When auth is configured the token travels in the query string, since
// browsers cannot set headers on WebSocket upgrades.
func WebSocketHandler(hub *Hub, validator *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		permitID := c.Param("id")
		if permitID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing permit id"})
			return
		}

		if validator != nil {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
				return
			}
			if _, err := validator.ValidateToken(token); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
			return
		}

		client := NewClient(uuid.New().String(), permitID, hub, conn)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
