package conversations

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatstack/chat-service/internal/chat"
	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/plugin/store/memory"
	"github.com/chatstack/chat-service/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := memory.New()
	engine := chat.NewEngine(st, chat.NewResolver(st), nil)

	auth := func(c *gin.Context) {
		c.Set(security.ContextKeyUserID, c.GetHeader("X-User-ID"))
	}
	r := gin.New()
	MountRoutes(r, engine, auth)
	return r, st
}

func doRequest(r *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessage(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/conversations/bob", "alice", `{"body":"hi","sent":100}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var dto messageDto
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	require.NotEmpty(t, dto.ID)
	require.Equal(t, "alice", dto.From)
	require.Equal(t, "hi", dto.Body)
	require.EqualValues(t, 100, dto.SentAt)
	// The sender's own view of the message is always seen.
	require.True(t, dto.Seen)
}

func TestSendMessage_ValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing body", `{"sent":100}`},
		{"missing timestamp", `{"body":"hi"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/conversations/bob", "alice", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, "validation_error", resp["code"])
		})
	}
}

func TestSendMessage_MalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/conversations/bob", "alice", `{"body":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetThread(t *testing.T) {
	r, _ := newTestRouter(t)

	require.Equal(t, http.StatusCreated,
		doRequest(r, http.MethodPost, "/api/conversations/bob", "alice", `{"body":"one","sent":10}`).Code)
	require.Equal(t, http.StatusCreated,
		doRequest(r, http.MethodPost, "/api/conversations/alice", "bob", `{"body":"two","sent":20}`).Code)

	w := doRequest(r, http.MethodGet, "/api/conversations/bob", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []messageDto `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "one", resp.Data[0].Body)
	require.Equal(t, "two", resp.Data[1].Body)
	// Reading the thread marked bob's message seen for alice.
	require.True(t, resp.Data[1].Seen)
}

func TestGetThread_EmptyConversation(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/api/conversations/stranger", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []messageDto `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Data)
}

func TestListConversations(t *testing.T) {
	r, st := newTestRouter(t)

	_, err := st.SaveGroup(t.Context(), model.Group{ID: "team", Users: []string{"alice", "bob", "carol"}})
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated,
		doRequest(r, http.MethodPost, "/api/conversations/alice", "bob", `{"body":"hey","sent":10}`).Code)
	require.Equal(t, http.StatusCreated,
		doRequest(r, http.MethodPost, "/api/conversations/team", "carol", `{"body":"standup","sent":20}`).Code)

	w := doRequest(r, http.MethodGet, "/api/conversations", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []model.ConversationSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)

	require.Equal(t, "team", resp.Data[0].User)
	require.True(t, resp.Data[0].IsGroup)
	require.True(t, resp.Data[0].AnyUnseen)

	require.Equal(t, "bob", resp.Data[1].User)
	require.False(t, resp.Data[1].IsGroup)
	require.True(t, resp.Data[1].AnyUnseen)
}
