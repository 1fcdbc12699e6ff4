package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/llm"
	"github.com/pageza/souschef/backend/internal/mocks"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/testhelpers"
)

const generatedAnswer = "Sure! Here is a recipe you will love:\n```json\n" + `{
	"name": "Creamy Tomato Pasta",
	"description": "Weeknight pasta in a silky tomato sauce",
	"cuisine": "Italian",
	"ingredients": ["200 g penne", "1 can tomatoes", {"quantity": 2, "unit": "cloves", "name": "garlic"}],
	"instructions": ["Step 1: Boil the penne.", "2. Simmer tomatoes with garlic.", "Toss together."],
	"prep_time": "10 minutes",
	"cook_time": 20,
	"servings": 2,
	"difficulty": "Easy",
	"calories": "520 kcal",
	"protein": 18,
	"carbs": 80,
	"fat": 12
}` + "\n```\nEnjoy your meal!"

func TestParseGeneratedRecipe(t *testing.T) {
	t.Run("free text with fenced json", func(t *testing.T) {
		r, err := service.ParseGeneratedRecipe(generatedAnswer)
		require.NoError(t, err)

		assert.Equal(t, "Creamy Tomato Pasta", r.Title)
		assert.Equal(t, models.SourceGenerated, r.Source)
		assert.Equal(t, "italian", r.Cuisine)
		assert.Equal(t, []string{"200 g penne", "1 can tomatoes", "2 cloves garlic"}, r.Ingredients)
		assert.Equal(t, []string{"Boil the penne.", "Simmer tomatoes with garlic.", "Toss together."}, r.Instructions)
		assert.Equal(t, "20", r.CookTime)
		assert.Equal(t, "2", r.Servings)
		assert.Equal(t, "easy", r.Difficulty)
		require.NotNil(t, r.Macros)
		assert.Equal(t, 520.0, r.Macros.Calories)
		assert.Contains(t, r.Tags, "vegetarian")
	})

	t.Run("alternate keys", func(t *testing.T) {
		r, err := service.ParseGeneratedRecipe(`{"title":"Toast","ingredients":"bread\nbutter","steps":["Toast bread"]}`)
		require.NoError(t, err)
		assert.Equal(t, "Toast", r.Title)
		assert.Equal(t, []string{"bread", "butter"}, r.Ingredients)
		assert.Equal(t, []string{"Toast bread"}, r.Instructions)
		assert.Nil(t, r.Macros)
	})

	t.Run("missing parts", func(t *testing.T) {
		_, err := service.ParseGeneratedRecipe(`{"name":"Nothing","ingredients":[]}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no ingredients")
		assert.Contains(t, err.Error(), "no instructions")
	})

	t.Run("no json", func(t *testing.T) {
		_, err := service.ParseGeneratedRecipe("I cannot help with that.")
		assert.ErrorIs(t, err, llm.ErrNoJSON)
	})
}

func TestGeneratorService(t *testing.T) {
	ctx := context.Background()
	prefs := models.Preferences{
		Dietary:     []string{"vegetarian"},
		Allergies:   []string{"walnut"},
		SkillLevel:  models.SkillBeginner,
		CookingTime: models.CookingTimeQuick,
	}

	t.Run("generates and stores a draft", func(t *testing.T) {
		rdb, mr := testhelpers.SetupRedis(t)
		model := new(mocks.MockChatModel)
		model.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
			return len(msgs) == 2 &&
				msgs[0].Role == llm.RoleSystem &&
				strings.Contains(msgs[1].Content, "pasta") &&
				strings.Contains(msgs[1].Content, "vegetarian") &&
				strings.Contains(msgs[1].Content, "walnut") &&
				strings.Contains(msgs[1].Content, "under 30 minutes")
		}), mock.Anything).Return(generatedAnswer, nil)

		svc := service.NewGeneratorService(model, rdb, zap.NewNop())
		draft, err := svc.Generate(ctx, "user-1", prefs, "a quick pasta")
		require.NoError(t, err)
		assert.NotEmpty(t, draft.ID)
		assert.Equal(t, draft.ID, draft.Recipe.ID)
		assert.Equal(t, "user-1", draft.UserID)

		key := "recipe:draft:" + draft.ID
		assert.True(t, mr.Exists(key))
		assert.Equal(t, 24*time.Hour, mr.TTL(key))

		got, err := svc.GetDraft(ctx, "user-1", draft.ID)
		require.NoError(t, err)
		assert.Equal(t, draft.Recipe, got.Recipe)

		_, err = svc.GetDraft(ctx, "someone-else", draft.ID)
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
		assert.True(t, apperrors.Is(svc.DeleteDraft(ctx, "someone-else", draft.ID), apperrors.CodeNotFound))

		require.NoError(t, svc.DeleteDraft(ctx, "user-1", draft.ID))
		assert.False(t, mr.Exists(key))
		_, err = svc.GetDraft(ctx, "user-1", draft.ID)
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})

	t.Run("unusable output", func(t *testing.T) {
		rdb, mr := testhelpers.SetupRedis(t)
		model := new(mocks.MockChatModel)
		model.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Sorry, I only talk about weather.", nil)

		svc := service.NewGeneratorService(model, rdb, zap.NewNop())
		_, err := svc.Generate(ctx, "user-1", prefs, "soup")
		assert.True(t, apperrors.Is(err, apperrors.CodeExternalServiceError))
		assert.Empty(t, mr.Keys())
	})

	t.Run("model failure", func(t *testing.T) {
		rdb, _ := testhelpers.SetupRedis(t)
		model := new(mocks.MockChatModel)
		model.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))

		svc := service.NewGeneratorService(model, rdb, zap.NewNop())
		_, err := svc.Generate(ctx, "user-1", prefs, "soup")
		assert.True(t, apperrors.Is(err, apperrors.CodeExternalServiceError))
	})

	t.Run("empty prompt", func(t *testing.T) {
		svc := service.NewGeneratorService(new(mocks.MockChatModel), nil, zap.NewNop())
		_, err := svc.Generate(ctx, "user-1", prefs, "  ")
		assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
	})
}
