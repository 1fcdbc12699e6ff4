package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// MockUserService is a mock implementation of service.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnsureUser(ctx context.Context, identity types.Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	args := m.Called(ctx, clerkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) HandleWebhook(ctx context.Context, event *types.ClerkWebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockPreferencesService is a mock implementation of service.IPreferencesService
type MockPreferencesService struct {
	mock.Mock
}

func (m *MockPreferencesService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockPreferencesService) Update(ctx context.Context, userID uuid.UUID, req *types.UpdatePreferencesRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockPreferencesService) Patch(ctx context.Context, userID uuid.UUID, field string, values []string) (*models.User, error) {
	args := m.Called(ctx, userID, field, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockSearchService is a mock implementation of service.ISearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, prefs models.Preferences, query string) ([]types.Recipe, error) {
	args := m.Called(ctx, prefs, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

// MockGeneratorService is a mock implementation of service.IGeneratorService
type MockGeneratorService struct {
	mock.Mock
}

func (m *MockGeneratorService) Generate(ctx context.Context, userID string, prefs models.Preferences, prompt string) (*service.RecipeDraft, error) {
	args := m.Called(ctx, userID, prefs, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDraft), args.Error(1)
}

func (m *MockGeneratorService) GetDraft(ctx context.Context, userID, id string) (*service.RecipeDraft, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDraft), args.Error(1)
}

func (m *MockGeneratorService) DeleteDraft(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockChatService is a mock implementation of service.IChatService
type MockChatService struct {
	mock.Mock
}

// Send writes every string in the "deltas" return value to sink when a
// sink is given.
func (m *MockChatService) Send(ctx context.Context, turn *service.ChatTurn, sink func(string) error) (*service.ChatMessage, error) {
	args := m.Called(ctx, turn, sink)
	return m.reply(args, sink)
}

func (m *MockChatService) SendImage(ctx context.Context, turn *service.ChatTurn, image *service.ImageUpload, sink func(string) error) (*service.ChatMessage, error) {
	args := m.Called(ctx, turn, image, sink)
	return m.reply(args, sink)
}

func (m *MockChatService) reply(args mock.Arguments, sink func(string) error) (*service.ChatMessage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	msg := args.Get(0).(*service.ChatMessage)
	if sink != nil && args.Error(1) == nil {
		if err := sink(msg.Content); err != nil {
			return nil, err
		}
	}
	return msg, args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, userID, sessionID string) ([]service.ChatMessage, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ChatMessage), args.Error(1)
}

func (m *MockChatService) Reset(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

// MockFavoritesService is a mock implementation of service.IFavoritesService
type MockFavoritesService struct {
	mock.Mock
}

func (m *MockFavoritesService) Save(ctx context.Context, userID uuid.UUID, recipe *types.Recipe) (*models.SavedRecipe, error) {
	args := m.Called(ctx, userID, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedRecipe), args.Error(1)
}

func (m *MockFavoritesService) List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedRecipe), args.Error(1)
}

func (m *MockFavoritesService) Get(ctx context.Context, userID, id uuid.UUID) (*models.SavedRecipe, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedRecipe), args.Error(1)
}

func (m *MockFavoritesService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockFavoritesService) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.SavedRecipe, error) {
	args := m.Called(ctx, userID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedRecipe), args.Error(1)
}
