package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/0xtito/network-state-bot/internal/discord"
	"github.com/0xtito/network-state-bot/internal/models"
	"github.com/0xtito/network-state-bot/internal/repositories"
	"github.com/0xtito/network-state-bot/internal/telemetry"
)

// ErrMalformedAuthor marks a stored author blob that does not satisfy the
// strict {id, username} wire shape.
var ErrMalformedAuthor = errors.New("stored author blob is malformed")

// ChannelClient is the slice of the Discord REST client the send path needs.
type ChannelClient interface {
	Channel(ctx context.Context, channelID string) (*discord.Channel, error)
	CreateMessage(ctx context.Context, channelID, content, replyToID string) (*discord.Message, error)
}

// MessageHandler serves the message retrieval and send endpoints.
type MessageHandler struct {
	repo    repositories.MessageRepository
	client  ChannelClient
	emitter *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(repo repositories.MessageRepository, client ChannelClient, emitter *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{repo: repo, client: client, emitter: emitter}
}

type retrieveMessagesRequest struct {
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	ChannelID *string `json:"channelId"`
	Limit     *int    `json:"limit"`
}

type sendMessageRequest struct {
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
	ReplyToID string `json:"replyToId"`
}

// RetrieveMessages returns stored messages inside a time window. Validation
// happens entirely before any store call; a failed projection of the author
// blob is a server-side fault, never coerced into a guess.
func (h *MessageHandler) RetrieveMessages(c *gin.Context) {
	var req retrieveMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"body"})
		return
	}

	var violations []string
	var start, end time.Time
	var err error

	if req.StartTime == "" {
		violations = append(violations, "startTime")
	} else if start, err = time.Parse(time.RFC3339, req.StartTime); err != nil {
		violations = append(violations, "startTime")
	}
	if req.EndTime == "" {
		violations = append(violations, "endTime")
	} else if end, err = time.Parse(time.RFC3339, req.EndTime); err != nil {
		violations = append(violations, "endTime")
	}

	limit := repositories.DefaultQueryLimit
	if req.Limit != nil {
		if *req.Limit < 1 || *req.Limit > repositories.MaxQueryLimit {
			violations = append(violations, "limit")
		} else {
			limit = *req.Limit
		}
	}

	channelID := ""
	if req.ChannelID != nil {
		if *req.ChannelID == "" {
			violations = append(violations, "channelId")
		} else {
			channelID = *req.ChannelID
		}
	}

	if len(violations) > 0 {
		badRequest(c, violations)
		return
	}

	msgs, err := h.repo.QueryMessages(c.Request.Context(), start, end, channelID, limit)
	if err != nil {
		log.Printf("message query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	resp := make([]models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		author, err := projectAuthor(m)
		if err != nil {
			log.Printf("message projection failed: id=%s err=%v", m.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
			return
		}
		resp = append(resp, models.MessageResponse{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			Content:   m.Content,
			Author:    author,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// SendMessage posts content to a channel on behalf of the bot.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"body"})
		return
	}

	var violations []string
	if req.ChannelID == "" {
		violations = append(violations, "channelId")
	}
	if len(req.Content) < 1 || len(req.Content) > 2000 {
		violations = append(violations, "content")
	}
	if len(violations) > 0 {
		badRequest(c, violations)
		return
	}

	channel, err := h.client.Channel(c.Request.Context(), req.ChannelID)
	if err != nil {
		if errors.Is(err, discord.ErrUnknownChannel) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found or is not a text channel"})
			return
		}
		log.Printf("channel lookup failed: channel=%s err=%v", req.ChannelID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	if !channel.TextCapable() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found or is not a text channel"})
		return
	}

	sent, err := h.client.CreateMessage(c.Request.Context(), req.ChannelID, req.Content, req.ReplyToID)
	if err != nil {
		log.Printf("message send failed: channel=%s err=%v", req.ChannelID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO", "message sent via api", requestIDFromContext(c), sent.ID)
	c.JSON(http.StatusOK, models.SendMessageResponse{ID: sent.ID, Content: sent.Content})
}

// Healthz reports liveness.
func (h *MessageHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// projectAuthor flattens the stored author blob into the strict wire shape.
// A blob missing id or username is a shape mismatch between what ingestion
// stored and what the API promises; callers surface it as a 500.
func projectAuthor(m models.ChatMessage) (models.Author, error) {
	var author models.Author
	if err := json.Unmarshal(m.Author, &author); err != nil {
		return models.Author{}, errors.Join(ErrMalformedAuthor, err)
	}
	if author.ID == "" || author.Username == "" {
		return models.Author{}, ErrMalformedAuthor
	}
	return author, nil
}

func badRequest(c *gin.Context, fields []string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Bad Request",
		"message": "Invalid request or unexpected error occurred",
		"details": fields,
	})
}
