package testhelpers

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

var (
	fakeDiets    = []string{"vegetarian", "vegan", "pescatarian", "gluten-free", "dairy-free", "omnivore"}
	fakeCuisines = []string{"italian", "mexican", "indian", "thai", "japanese", "french", "mediterranean"}
)

// FakeIdentity returns a random identity provider user
func FakeIdentity() types.Identity {
	return types.Identity{
		ClerkID:  "user_" + gofakeit.LetterN(24),
		Email:    strings.ToLower(gofakeit.Email()),
		Name:     gofakeit.Name(),
		ImageURL: gofakeit.URL(),
	}
}

// FakePreferences returns a valid preference update
func FakePreferences() *types.UpdatePreferencesRequest {
	return &types.UpdatePreferencesRequest{
		DietaryPreferences: []string{gofakeit.RandomString(fakeDiets)},
		CuisinePreferences: []string{gofakeit.RandomString(fakeCuisines), gofakeit.RandomString(fakeCuisines)},
		Allergies:          []string{},
		CookingGoals:       []string{"eat more vegetables"},
		SkillLevel:         gofakeit.RandomString([]string{models.SkillBeginner, models.SkillIntermediate, models.SkillAdvanced}),
		CookingTime:        gofakeit.RandomString([]string{models.CookingTimeQuick, models.CookingTimeModerate, models.CookingTimeExtended}),
	}
}

// FakeRecipe returns a recipe with plausible ingredients and steps
func FakeRecipe(source string) types.Recipe {
	return types.Recipe{
		ID:          gofakeit.UUID(),
		Source:      source,
		Title:       gofakeit.Dinner(),
		Description: gofakeit.Sentence(10),
		Cuisine:     gofakeit.RandomString(fakeCuisines),
		Ingredients: []string{
			"2 cups " + gofakeit.Vegetable(),
			"1 tbsp olive oil",
			"salt and pepper",
		},
		Instructions: []string{
			"Prepare the vegetables.",
			"Cook everything in a pan for 10 minutes.",
			"Season and serve.",
		},
		Servings: "2",
	}
}

// CreateUser inserts a user built from a fake identity
func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	identity := FakeIdentity()
	user := &models.User{
		ClerkID:            identity.ClerkID,
		Email:              identity.Email,
		Name:               identity.Name,
		DietaryPreferences: models.JSONBStringArray{},
		CuisinePreferences: models.JSONBStringArray{},
		Allergies:          models.JSONBStringArray{},
		CookingGoals:       models.JSONBStringArray{},
		SkillLevel:         models.SkillBeginner,
		CookingTime:        models.CookingTimeModerate,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}
