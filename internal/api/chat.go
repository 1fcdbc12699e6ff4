package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// ChatHandler serves the cooking assistant
type ChatHandler struct {
	chat    service.IChatService
	limiter gin.HandlerFunc
}

// NewChatHandler creates the handler. limiter may be nil.
func NewChatHandler(chat service.IChatService, limiter gin.HandlerFunc) *ChatHandler {
	return &ChatHandler{chat: chat, limiter: limiter}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat")
	{
		turns := chat.Group("")
		if h.limiter != nil {
			turns.Use(h.limiter)
		}
		turns.POST("/messages", h.SendMessage)
		turns.POST("/stream", h.StreamMessage)
		turns.POST("/images", h.SendImage)

		chat.GET("/sessions/:id", h.GetHistory)
		chat.DELETE("/sessions/:id", h.ResetSession)
	}
}

func newTurn(user *models.User, sessionID, message, source string) *service.ChatTurn {
	return &service.ChatTurn{
		UserID:      user.ID.String(),
		SessionID:   sessionID,
		Message:     message,
		Source:      source,
		Preferences: user.Preferences(),
	}
}

// SendMessage answers a text or voice turn in one response
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ChatMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), newTurn(user, req.SessionID, req.Message, req.Source), nil)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": req.SessionID, "message": msg})
}

// StreamMessage answers a turn as server-sent events: "delta" events carry
// content as it arrives, then one "done" event carries the stored message.
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ChatMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	stream := newEventStream(c)
	msg, err := h.chat.Send(c.Request.Context(), newTurn(user, req.SessionID, req.Message, req.Source), stream.delta)
	stream.finish(req.SessionID, msg, err)
}

// SendImage takes a multipart form with an "image" file, a "session_id",
// an optional "message" caption and optional "stream=true"
func (h *ChatHandler) SendImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxImageBytes+(1<<20))

	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		middleware.AbortWithError(c, apperrors.NewValidationError("session_id is required"))
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("image file is required"))
		return
	}
	if header.Size > service.MaxImageBytes {
		middleware.AbortWithError(c, apperrors.NewValidationError(fmt.Sprintf("image exceeds %d MB", service.MaxImageBytes>>20)))
		return
	}
	f, err := header.Open()
	if err != nil {
		middleware.AbortWithError(c, apperrors.NewBadRequestError("could not read image"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageBytes+1))
	if err != nil {
		middleware.AbortWithError(c, apperrors.NewBadRequestError("could not read image"))
		return
	}

	turn := newTurn(user, sessionID, c.PostForm("message"), service.SourceImage)
	upload := &service.ImageUpload{Filename: header.Filename, Data: data}

	if streaming, _ := strconv.ParseBool(c.PostForm("stream")); streaming {
		stream := newEventStream(c)
		msg, err := h.chat.SendImage(c.Request.Context(), turn, upload, stream.delta)
		stream.finish(sessionID, msg, err)
		return
	}

	msg, err := h.chat.SendImage(c.Request.Context(), turn, upload, nil)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "message": msg})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")
	messages, err := h.chat.History(c.Request.Context(), user.ID.String(), sessionID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if messages == nil {
		messages = []service.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": messages})
}

func (h *ChatHandler) ResetSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.chat.Reset(c.Request.Context(), user.ID.String(), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// eventStream writes server-sent events. Headers are sent with the first
// event so that failures before any content still get a JSON error body.
type eventStream struct {
	c       *gin.Context
	started bool
}

func newEventStream(c *gin.Context) *eventStream {
	return &eventStream{c: c}
}

func (s *eventStream) start() {
	if s.started {
		return
	}
	h := s.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.c.Status(http.StatusOK)
	s.started = true
}

func (s *eventStream) delta(content string) error {
	if err := s.c.Request.Context().Err(); err != nil {
		return err
	}
	if content == "" {
		return nil
	}
	s.start()
	s.c.SSEvent("delta", gin.H{"content": content})
	s.c.Writer.Flush()
	return nil
}

func (s *eventStream) finish(sessionID string, msg *service.ChatMessage, err error) {
	if err != nil {
		if !s.started {
			middleware.AbortWithError(s.c, err)
			return
		}
		_ = s.c.Error(err)
		s.c.SSEvent("error", middleware.PublicError(err))
		s.c.Writer.Flush()
		return
	}
	s.start()
	s.c.SSEvent("done", gin.H{"session_id": sessionID, "message": msg})
	s.c.Writer.Flush()
}
