package conversations

import (
	"errors"
	"net/http"

	"github.com/chatstack/chat-service/internal/chat"
	"github.com/chatstack/chat-service/internal/model"
	registryroute "github.com/chatstack/chat-service/internal/registry/route"
	registrystore "github.com/chatstack/chat-service/internal/registry/store"
	"github.com/chatstack/chat-service/internal/security"
	"github.com/gin-gonic/gin"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 100,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after engine init
		},
	})
}

// MountRoutes mounts conversation routes on the given router.
// Called after store initialization so the engine is available.
func MountRoutes(r *gin.Engine, engine *chat.Engine, auth gin.HandlerFunc) {
	g := r.Group("/api", auth)

	g.GET("/conversations", func(c *gin.Context) {
		listConversations(c, engine)
	})
	g.GET("/conversations/:targetId", func(c *gin.Context) {
		getThread(c, engine)
	})
	g.POST("/conversations/:targetId", func(c *gin.Context) {
		sendMessage(c, engine)
	})
}

// messageDto is the wire shape of one thread message. Seen reflects the
// requesting user's view of the message, not the raw per-recipient vector.
type messageDto struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	GroupID string `json:"groupId,omitempty"`
	SentAt  int64  `json:"sent"`
	Body    string `json:"body"`
	Seen    bool   `json:"seen"`
}

func toDto(msg model.Message, requesterID string) messageDto {
	seen, err := chat.IsSeenBy(msg, requesterID)
	if err != nil {
		seen = false
	}
	return messageDto{
		ID:      msg.ID,
		From:    msg.Origin(),
		GroupID: msg.GroupID,
		SentAt:  msg.SentAt,
		Body:    msg.Body,
		Seen:    seen,
	}
}

func listConversations(c *gin.Context, engine *chat.Engine) {
	userID := security.GetUserID(c)

	summaries, err := engine.Conversations(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func getThread(c *gin.Context, engine *chat.Engine) {
	userID := security.GetUserID(c)
	targetID := c.Param("targetId")

	messages, err := engine.Thread(c.Request.Context(), userID, targetID)
	if err != nil {
		handleError(c, err)
		return
	}
	dtos := make([]messageDto, len(messages))
	for i, m := range messages {
		dtos[i] = toDto(m, userID)
	}
	c.JSON(http.StatusOK, gin.H{"data": dtos})
}

func sendMessage(c *gin.Context, engine *chat.Engine) {
	userID := security.GetUserID(c)
	targetID := c.Param("targetId")

	var req struct {
		Body   string `json:"body"`
		SentAt int64  `json:"sent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := engine.Send(c.Request.Context(), userID, targetID, req.Body, req.SentAt)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDto(msg, userID))
}

// --- Helpers ---

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError
	var notParticipant *registrystore.NotAParticipantError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &notParticipant):
		c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
