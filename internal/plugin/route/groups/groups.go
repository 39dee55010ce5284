package groups

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
		Order: 110,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after engine init
		},
	})
}

// MountRoutes mounts group directory routes on the given router.
func MountRoutes(r *gin.Engine, store registrystore.MessageStore, auth gin.HandlerFunc) {
	g := r.Group("/api", auth)

	g.GET("/groups", func(c *gin.Context) {
		listGroups(c, store)
	})
	g.GET("/groups/:groupId", func(c *gin.Context) {
		getGroup(c, store)
	})
	g.PUT("/groups/:groupId", func(c *gin.Context) {
		putGroup(c, store)
	})
}

func listGroups(c *gin.Context, store registrystore.MessageStore) {
	groups, err := store.ListGroups(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

func getGroup(c *gin.Context, store registrystore.MessageStore) {
	groupID := c.Param("groupId")
	group, err := store.FindGroup(c.Request.Context(), groupID)
	if err != nil {
		handleError(c, err)
		return
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": "group not found: " + groupID})
		return
	}
	c.JSON(http.StatusOK, group)
}

func putGroup(c *gin.Context, store registrystore.MessageStore) {
	groupID := c.Param("groupId")
	userID := security.GetUserID(c)

	var req struct {
		Title string   `json:"title"`
		Users []string `json:"users"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The creator is always a member, listed first when absent from the request.
	users := req.Users
	if !contains(users, userID) {
		users = append([]string{userID}, users...)
	}
	if len(users) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "a group needs at least two members", "field": "users"})
		return
	}
	for _, u := range users {
		if u == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "member ids must be non-empty", "field": "users"})
			return
		}
	}

	created, err := store.SaveGroup(c.Request.Context(), model.Group{
		ID:    groupID,
		Title: req.Title,
		Users: users,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	group, err := store.FindGroup(c.Request.Context(), groupID)
	if err != nil {
		handleError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, group)
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
