package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/phambaophuc/sign-recognition/internal/services/chat"
	"go.uber.org/zap"
)

type ChatHistory interface {
	Create(ctx context.Context, m *models.ChatMessage) error
	List(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

type ChatHandler struct {
	bot     *chat.Bot
	history ChatHistory
	logger  *zap.Logger
}

// NewChatHandler builds the chat handler; history may be nil.
func NewChatHandler(bot *chat.Bot, history ChatHistory, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{bot: bot, history: history, logger: logger}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, models.ChatResponse{Reply: chat.EmptyReply})
		return
	}

	reply := h.bot.Reply(req.Message)
	h.logger.Info("Chat", zap.String("message", req.Message), zap.String("reply", reply))

	if h.history != nil {
		msg := &models.ChatMessage{UserMessage: req.Message, BotReply: reply}
		if err := h.history.Create(c.Request.Context(), msg); err != nil {
			h.logger.Warn("Failed to record chat", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, models.ChatResponse{Reply: reply})
}

func (h *ChatHandler) History(c *gin.Context) {
	if h.history == nil {
		respondError(c, http.StatusServiceUnavailable, "History is not enabled")
		return
	}

	messages, err := h.history.List(c.Request.Context(), parseLimit(c))
	if err != nil {
		h.logger.Error("Failed to list chat history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load history")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: messages})
}

// Signs lists the signs the bot can describe.
func (h *ChatHandler) Signs(c *gin.Context) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: h.bot.Signs()})
}
