package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

func newRouter(svc *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})
	h := NewHandler(svc)
	r.POST("/events", h.Create)
	r.GET("/events/:id", h.GetByID)
	r.POST("/events/:id/publish", h.Publish)
	r.POST("/events/:id/start", h.Start)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Body {
	t.Helper()
	var body response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandlerCreateAndTransition(t *testing.T) {
	e := newEnv(t, nil)
	r := newRouter(e.svc, e.admin)

	payload, _ := json.Marshal(map[string]any{
		"organization_id": e.org.String(),
		"title":           "Park cleanup",
		"max_attendees":   2,
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload)))
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode(t, w).Data.(map[string]any)
	id := created["id"].(string)
	assert.Equal(t, "draft", created["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/"+id+"/start", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperr.CodeInvalidTransition, decode(t, w).Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/"+id+"/publish", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerErrors(t *testing.T) {
	e := newEnv(t, nil)
	ev := e.create(t)
	outsider := newRouter(e.svc, uuid.New())

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"bad id", http.MethodGet, "/events/not-a-uuid", http.StatusBadRequest},
		{"unknown event", http.MethodGet, "/events/" + uuid.NewString(), http.StatusNotFound},
		{"forbidden publish", http.MethodPost, "/events/" + ev.ID.String() + "/publish", http.StatusForbidden},
		{"missing body", http.MethodPost, "/events", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			outsider.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil).WithContext(context.Background()))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
