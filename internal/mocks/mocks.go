package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/souschef/backend/internal/llm"
)

// MockChatModel is a mock implementation of service.ChatModel
type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

// Stream forwards every string in the "deltas" return value to onDelta
// before returning the configured text and error.
func (m *MockChatModel) Stream(ctx context.Context, messages []llm.Message, opts llm.Options, onDelta func(string) error) (string, error) {
	args := m.Called(ctx, messages, opts, onDelta)
	deltas, _ := args.Get(0).([]string)
	text := ""
	for _, d := range deltas {
		if err := onDelta(d); err != nil {
			return text, err
		}
		text += d
	}
	return text, args.Error(1)
}

// MockRecipeAgent is a mock implementation of service.RecipeAgent
type MockRecipeAgent struct {
	mock.Mock
}

func (m *MockRecipeAgent) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *MockRecipeAgent) ExtractImage(ctx context.Context, pageURL string) (string, error) {
	args := m.Called(ctx, pageURL)
	return args.String(0), args.Error(1)
}

// MockImageDescriber is a mock implementation of service.ImageDescriber
type MockImageDescriber struct {
	mock.Mock
}

func (m *MockImageDescriber) DescribeImage(ctx context.Context, format string, data []byte, prompt string) (string, error) {
	args := m.Called(ctx, format, data, prompt)
	return args.String(0), args.Error(1)
}

// MockObjectStore is a mock implementation of service.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}
