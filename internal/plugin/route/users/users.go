package users

import (
	"errors"
	"net/http"

	"github.com/chatstack/chat-service/internal/model"
	registryroute "github.com/chatstack/chat-service/internal/registry/route"
	registrystore "github.com/chatstack/chat-service/internal/registry/store"
	"github.com/chatstack/chat-service/internal/security"
	"github.com/gin-gonic/gin"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 120,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after engine init
		},
	})
}

// MountRoutes mounts user directory routes on the given router.
func MountRoutes(r *gin.Engine, store registrystore.MessageStore, auth gin.HandlerFunc) {
	g := r.Group("/api", auth)

	g.GET("/user", func(c *gin.Context) {
		getSelf(c, store)
	})
	g.PUT("/user", func(c *gin.Context) {
		putSelf(c, store)
	})
	g.GET("/users", func(c *gin.Context) {
		listUsers(c, store)
	})
}

func getSelf(c *gin.Context, store registrystore.MessageStore) {
	userID := security.GetUserID(c)
	user, err := store.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// putSelf upserts the caller's directory profile. Identity comes from auth;
// the body only carries display fields.
func putSelf(c *gin.Context, store registrystore.MessageStore) {
	userID := security.GetUserID(c)

	var req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := store.SaveUser(c.Request.Context(), model.User{
		ID:        userID,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	user, err := store.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func listUsers(c *gin.Context, store registrystore.MessageStore) {
	users, err := store.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
