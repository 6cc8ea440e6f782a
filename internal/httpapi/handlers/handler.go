package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docbot-ai/docbot/internal/auth"
	"github.com/docbot-ai/docbot/internal/chat"
	"github.com/docbot-ai/docbot/internal/rag"
	"github.com/docbot-ai/docbot/internal/store/rabbitmq"
	"github.com/docbot-ai/docbot/internal/users"
)

// IngestPublisher enqueues fire-and-forget ingestion triggers.
type IngestPublisher interface {
	PublishIngest(ctx context.Context, msg rabbitmq.IngestMessage) error
}

type Handler struct {
	Auth     *auth.Service
	Users    *users.Repo
	Sessions *chat.Repo
	Gen      rag.Generator
	Rabbit   IngestPublisher
	Log      *zap.Logger
}

func NewHandler(authSvc *auth.Service, userRepo *users.Repo, sessionRepo *chat.Repo, gen rag.Generator, rabbit IngestPublisher, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     authSvc,
		Users:    userRepo,
		Sessions: sessionRepo,
		Gen:      gen,
		Rabbit:   rabbit,
		Log:      log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
