package ws

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chatstack/chat-service/internal/realtime"
	registryroute "github.com/chatstack/chat-service/internal/registry/route"
	"github.com/chatstack/chat-service/internal/security"
	"github.com/gin-gonic/gin"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 130,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after registry init
		},
	})
}

// MountRoutes mounts the realtime websocket endpoint on the given router.
func MountRoutes(r *gin.Engine, registry *realtime.Registry, auth gin.HandlerFunc) {
	r.GET("/ws", auth, func(c *gin.Context) {
		userID := security.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		if err := realtime.ServeWS(registry, c.Writer, c.Request, userID); err != nil {
			// Upgrade already wrote the handshake failure response.
			log.Debug("websocket upgrade failed", "user", userID, "err", err)
			return
		}
		log.Info("Realtime connection opened", "user", userID)
	})
}
