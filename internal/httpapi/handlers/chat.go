package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/httpapi/middleware"
	"github.com/docbot-ai/docbot/internal/models"
	"github.com/docbot-ai/docbot/internal/store/rabbitmq"
)

type createSessionReq struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)

	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "title required")
		return
	}

	s, err := h.Sessions.Create(c.Request.Context(), cur.ID, req.Title)
	if err != nil {
		h.Log.Error("create session failed", zap.Uint64("user_id", cur.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to create session")
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) ListSessions(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	skip, limit := pagination(c, 50, 100)

	list, err := h.Sessions.List(c.Request.Context(), cur.ID, skip, limit)
	if err != nil {
		h.Log.Error("list sessions failed", zap.Uint64("user_id", cur.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	total, err := h.Sessions.Count(c.Request.Context(), cur.ID)
	if err != nil {
		h.Log.Error("count sessions failed", zap.Uint64("user_id", cur.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": list,
		"total":    total,
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	sid := c.Param("session_id")

	s, err := h.Sessions.Get(c.Request.Context(), sid, cur.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "session not found")
			return
		}
		h.Log.Error("get session failed", zap.String("session_id", sid), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to get session")
		return
	}
	c.JSON(http.StatusOK, s)
}

type updateSessionReq struct {
	Title    *string               `json:"title"`
	Messages *[]models.ChatMessage `json:"messages"`
}

// UpdateSession changes the title and/or replaces the message list wholesale.
func (h *Handler) UpdateSession(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	sid := c.Param("session_id")

	var req updateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Messages != nil {
		fields["messages"] = models.ChatMessages(*req.Messages)
	}
	if len(fields) == 0 {
		common.Fail(c, http.StatusBadRequest, "no fields to update")
		return
	}

	s, err := h.Sessions.Update(c.Request.Context(), sid, cur.ID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "session not found")
			return
		}
		h.Log.Error("update session failed", zap.String("session_id", sid), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to update session")
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	sid := c.Param("session_id")

	deleted, err := h.Sessions.Delete(c.Request.Context(), sid, cur.ID)
	if err != nil {
		h.Log.Error("delete session failed", zap.String("session_id", sid), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if !deleted {
		common.Fail(c, http.StatusNotFound, "session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

type generateReq struct {
	Text        string `json:"text" binding:"required"`
	ImageBase64 string `json:"image_base64"`
}

// Generate forwards the query to the external generation service and returns
// its raw answer.
func (h *Handler) Generate(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "text required")
		return
	}

	answer, err := h.Gen.Generate(c.Request.Context(), req.Text, req.ImageBase64)
	if err != nil {
		h.Log.Error("generation failed", zap.Error(err))
		common.Fail(c, http.StatusBadGateway, "generation service unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":  req.Text,
		"answer": answer,
	})
}

// GenerateStream runs the same generation and replays the answer as SSE
// chunks, one word per event.
func (h *Handler) GenerateStream(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "text required")
		return
	}

	answer, err := h.Gen.Generate(c.Request.Context(), req.Text, req.ImageBase64)
	if err != nil {
		h.Log.Error("generation failed", zap.Error(err))
		common.Fail(c, http.StatusBadGateway, "generation service unavailable")
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: flusher not supported\n\n")
		return
	}

	ctx := c.Request.Context()
	for _, word := range strings.Fields(answer) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fmt.Fprintf(c.Writer, "data: %s \n\n", word)
		flusher.Flush()
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

// Ingest enqueues a background ingestion trigger and returns immediately.
// Failures are logged, never surfaced: the trigger is fire-and-forget.
func (h *Handler) Ingest(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)

	jobID, err := common.NewULID()
	if err != nil {
		h.Log.Error("ingest job id", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "failed to start ingestion")
		return
	}

	if h.Rabbit == nil {
		h.Log.Warn("ingest requested but queue is not configured")
	} else if err := h.Rabbit.PublishIngest(c.Request.Context(), rabbitmq.IngestMessage{
		JobID:       jobID,
		RequestedBy: cur.ID,
	}); err != nil {
		h.Log.Error("ingest publish failed", zap.String("job_id", jobID), zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "started",
		"message": "Ingestion has been triggered and is running in the background.",
	})
}
