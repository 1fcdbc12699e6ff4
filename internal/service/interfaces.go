package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/souschef/backend/internal/llm"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

// ChatModel is the text completion backend used by generation and chat
type ChatModel interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)
	Stream(ctx context.Context, messages []llm.Message, opts llm.Options, onDelta func(string) error) (string, error)
}

// RecipeAgent answers natural language recipe searches
type RecipeAgent interface {
	Search(ctx context.Context, query string) (string, error)
	ExtractImage(ctx context.Context, pageURL string) (string, error)
}

// ImageDescriber turns a photo into text the chat model can reason about
type ImageDescriber interface {
	DescribeImage(ctx context.Context, format string, data []byte, prompt string) (string, error)
}

// ObjectStore keeps uploaded chat images
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// IUserService defines the interface for mirrored identity operations
type IUserService interface {
	EnsureUser(ctx context.Context, identity types.Identity) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HandleWebhook(ctx context.Context, event *types.ClerkWebhookEvent) error
}

// IPreferencesService defines the interface for preference management
type IPreferencesService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, userID uuid.UUID, req *types.UpdatePreferencesRequest) (*models.User, error)
	Patch(ctx context.Context, userID uuid.UUID, field string, values []string) (*models.User, error)
}

// ISearchService defines the interface for agent backed recipe search
type ISearchService interface {
	Search(ctx context.Context, prefs models.Preferences, query string) ([]types.Recipe, error)
}

// IGeneratorService defines the interface for LLM recipe generation
type IGeneratorService interface {
	Generate(ctx context.Context, userID string, prefs models.Preferences, prompt string) (*RecipeDraft, error)
	GetDraft(ctx context.Context, userID, id string) (*RecipeDraft, error)
	DeleteDraft(ctx context.Context, userID, id string) error
}

// IChatService defines the interface for the cooking assistant
type IChatService interface {
	Send(ctx context.Context, turn *ChatTurn, sink func(string) error) (*ChatMessage, error)
	SendImage(ctx context.Context, turn *ChatTurn, image *ImageUpload, sink func(string) error) (*ChatMessage, error)
	History(ctx context.Context, userID, sessionID string) ([]ChatMessage, error)
	Reset(ctx context.Context, userID, sessionID string) error
}

// IFavoritesService defines the interface for saved recipes
type IFavoritesService interface {
	Save(ctx context.Context, userID uuid.UUID, recipe *types.Recipe) (*models.SavedRecipe, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.SavedRecipe, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.SavedRecipe, error)
}
