package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/llm"
	"github.com/pageza/souschef/backend/internal/metrics"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/storage"
)

const (
	chatHistoryTTL    = 24 * time.Hour
	chatHistoryLimit  = 40
	chatHistoryPrefix = "chat:history"
	maxSessionIDLen   = 64
)

// Message sources for a user turn
const (
	SourceText  = "text"
	SourceVoice = "voice"
	SourceImage = "image"
)

const chatSystemPrompt = `You are SousChef, a friendly and practical cooking assistant.
Help with recipes, techniques, ingredient substitutions, meal planning and food safety.
Keep answers concise and use short lists for ingredients and steps.
If a question has nothing to do with food or cooking, politely steer the conversation back to the kitchen.`

const imageDescriptionPrompt = `Describe this photo for a cooking assistant. Identify the dish or the visible ingredients, their approximate quantities and their state (raw, cooked, chopped). Answer in a few sentences.`

// ChatMessage is one entry of a session's history
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatTurn is a single user message addressed to a session
type ChatTurn struct {
	UserID      string
	SessionID   string
	Message     string
	Source      string
	Preferences models.Preferences
}

// ChatService answers cooking questions and keeps per-session history in Redis
type ChatService struct {
	model  ChatModel
	vision ImageDescriber
	store  ObjectStore
	redis  *redis.Client
	log    *zap.Logger
}

var _ IChatService = (*ChatService)(nil)

// NewChatService creates a ChatService. vision and store may be nil, which
// disables image turns and image storage respectively.
func NewChatService(model ChatModel, vision ImageDescriber, store ObjectStore, redisClient *redis.Client, log *zap.Logger) *ChatService {
	return &ChatService{
		model:  model,
		vision: vision,
		store:  store,
		redis:  redisClient,
		log:    log.Named("chat"),
	}
}

// Send answers a text or voice turn. When sink is non-nil the answer is
// streamed through it.
func (s *ChatService) Send(ctx context.Context, turn *ChatTurn, sink func(string) error) (*ChatMessage, error) {
	if err := validateSession(turn.SessionID); err != nil {
		return nil, err
	}

	source := turn.Source
	if source == "" {
		source = SourceText
	}
	text := strings.TrimSpace(turn.Message)
	switch source {
	case SourceVoice:
		cleaned, err := CleanTranscript(text)
		if err != nil {
			return nil, err
		}
		text = cleaned
	case SourceText:
		if text == "" {
			return nil, apperrors.NewValidationError("message is required")
		}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown message source %q", source))
	}

	return s.converse(ctx, turn, ChatMessage{
		Role:      llm.RoleUser,
		Content:   text,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}, sink)
}

// SendImage describes the photo with the vision model, stores it when
// storage is configured and answers the turn with the description inlined
func (s *ChatService) SendImage(ctx context.Context, turn *ChatTurn, upload *ImageUpload, sink func(string) error) (*ChatMessage, error) {
	if err := validateSession(turn.SessionID); err != nil {
		return nil, err
	}
	if s.vision == nil {
		return nil, apperrors.New(apperrors.CodeServiceUnavailable, "image understanding is not configured", "")
	}
	if upload == nil {
		return nil, apperrors.NewValidationError("image is required")
	}

	data, err := PrepareImage(upload.Data)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if s.store != nil {
		imageURL, err = s.store.Upload(ctx, storage.ChatImageKey(turn.UserID), "image/jpeg", data)
		if err != nil {
			s.log.Warn("chat image upload failed", zap.String("user_id", turn.UserID), zap.Error(err))
			imageURL = ""
		}
	}

	description, err := s.vision.DescribeImage(ctx, "jpeg", data, imageDescriptionPrompt)
	if err != nil {
		s.log.Error("image description failed", zap.String("user_id", turn.UserID), zap.Error(err))
		return nil, apperrors.NewExternalServiceError("vision", err)
	}

	caption := strings.TrimSpace(turn.Message)
	if caption == "" {
		caption = "What can I cook with this?"
	}
	content := fmt.Sprintf("%s\n\n[Photo: %s]", caption, strings.TrimSpace(description))

	return s.converse(ctx, turn, ChatMessage{
		Role:      llm.RoleUser,
		Content:   content,
		Source:    SourceImage,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}, sink)
}

// converse runs the model over the history plus userMsg and records the
// user message together with exactly one assistant reply
func (s *ChatService) converse(ctx context.Context, turn *ChatTurn, userMsg ChatMessage, sink func(string) error) (*ChatMessage, error) {
	history, err := s.History(ctx, turn.UserID, turn.SessionID)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: buildChatSystemPrompt(turn.Preferences)})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMsg.Content})

	reply, err := s.respond(ctx, turn, messages, sink)
	if err != nil {
		return nil, err
	}

	assistant := ChatMessage{
		Role:      llm.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.appendTurn(ctx, historyKey(turn.UserID, turn.SessionID), userMsg, assistant); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// respond streams when a sink is given and falls back to a single
// completion when the stream fails before producing content or produces
// none at all
func (s *ChatService) respond(ctx context.Context, turn *ChatTurn, messages []llm.Message, sink func(string) error) (string, error) {
	if sink != nil {
		streamed := false
		text, err := s.model.Stream(ctx, messages, llm.Options{}, func(delta string) error {
			if delta == "" {
				return nil
			}
			streamed = true
			return sink(delta)
		})
		if strings.TrimSpace(text) != "" && (err == nil || streamed) {
			if err != nil {
				s.log.Warn("stream interrupted, keeping partial reply",
					zap.String("session_id", turn.SessionID),
					zap.Error(err))
			}
			return text, nil
		}

		metrics.ChatFallbacksTotal.Inc()
		s.log.Info("stream produced no content, falling back to completion",
			zap.String("session_id", turn.SessionID),
			zap.Error(err))
	}

	text, err := s.model.Complete(ctx, messages, llm.Options{})
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		s.log.Error("chat completion failed", zap.String("session_id", turn.SessionID), zap.Error(err))
		return "", apperrors.NewExternalServiceError("llm", err)
	}

	if sink != nil {
		if err := sink(text); err != nil {
			return "", apperrors.NewInternalError("failed to deliver reply", err)
		}
	}
	return text, nil
}

func buildChatSystemPrompt(prefs models.Preferences) string {
	var b strings.Builder
	b.WriteString(chatSystemPrompt)
	if len(prefs.Dietary) > 0 {
		fmt.Fprintf(&b, "\nThe user follows these diets: %s.", strings.Join(prefs.Dietary, ", "))
	}
	if len(prefs.Allergies) > 0 {
		fmt.Fprintf(&b, "\nThe user is allergic to: %s. Never suggest these.", strings.Join(prefs.Allergies, ", "))
	}
	if len(prefs.Cuisine) > 0 {
		fmt.Fprintf(&b, "\nFavourite cuisines: %s.", strings.Join(prefs.Cuisine, ", "))
	}
	if prefs.SkillLevel != "" {
		fmt.Fprintf(&b, "\nCooking skill: %s.", prefs.SkillLevel)
	}
	if len(prefs.CookingGoals) > 0 {
		fmt.Fprintf(&b, "\nGoals: %s.", strings.Join(prefs.CookingGoals, ", "))
	}
	return b.String()
}

// History returns the stored messages of a session, oldest first
func (s *ChatService) History(ctx context.Context, userID, sessionID string) ([]ChatMessage, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	raw, err := s.redis.LRange(ctx, historyKey(userID, sessionID), 0, -1).Result()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load chat history", err)
	}

	history := make([]ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.log.Warn("skipping corrupt chat message", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		history = append(history, m)
	}
	return history, nil
}

// Reset forgets a session
func (s *ChatService) Reset(ctx context.Context, userID, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, historyKey(userID, sessionID)).Err(); err != nil {
		return apperrors.NewInternalError("failed to reset chat session", err)
	}
	return nil
}

func (s *ChatService) appendTurn(ctx context.Context, key string, msgs ...ChatMessage) error {
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return apperrors.NewInternalError("failed to marshal chat message", err)
		}
		values = append(values, data)
	}

	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -chatHistoryLimit, -1)
	pipe.Expire(ctx, key, chatHistoryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewInternalError("failed to save chat history", err)
	}
	return nil
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.NewValidationError("session_id is required")
	}
	if len(sessionID) > maxSessionIDLen {
		return apperrors.NewValidationError("session_id is too long")
	}
	return nil
}

func historyKey(userID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", chatHistoryPrefix, userID, sessionID)
}
