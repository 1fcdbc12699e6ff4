package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/catalog"
	"github.com/pageza/souschef/backend/internal/llm"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

const (
	draftTTL       = 24 * time.Hour
	draftKeyPrefix = "recipe:draft"
)

const generatorSystemPrompt = `You are a professional chef and nutritionist. Reply with a single JSON object and nothing else, using this structure:
{
    "name": "Recipe name",
    "description": "Brief description of the recipe",
    "cuisine": "Cuisine such as Italian, Mexican, Indian, Thai or American",
    "ingredients": ["2 cups flour", "1 cup sugar", "3 eggs"],
    "instructions": ["Mix the dry ingredients", "Add the wet ingredients", "Bake at 350F for 30 minutes"],
    "prep_time": "15 minutes",
    "cook_time": "30 minutes",
    "servings": 4,
    "difficulty": "Easy, Medium or Hard",
    "calories": 350,
    "protein": 15,
    "carbs": 45,
    "fat": 12
}
The calories, protein, carbs and fat fields are per serving and must be numbers.`

// RecipeDraft is a generated recipe waiting for the user to save or discard it
type RecipeDraft struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Prompt    string       `json:"prompt"`
	Recipe    types.Recipe `json:"recipe"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// GeneratorService asks the LLM for one-shot recipes and keeps them as drafts
type GeneratorService struct {
	model ChatModel
	redis *redis.Client
	log   *zap.Logger
}

var _ IGeneratorService = (*GeneratorService)(nil)

func NewGeneratorService(model ChatModel, redisClient *redis.Client, log *zap.Logger) *GeneratorService {
	return &GeneratorService{
		model: model,
		redis: redisClient,
		log:   log.Named("generator"),
	}
}

// Generate creates a recipe for prompt shaped by the user's preferences
func (s *GeneratorService) Generate(ctx context.Context, userID string, prefs models.Preferences, prompt string) (*RecipeDraft, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperrors.NewValidationError("prompt is required")
	}

	temperature := 0.8
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: generatorSystemPrompt},
		{Role: llm.RoleUser, Content: buildGenerationPrompt(prompt, prefs)},
	}
	text, err := s.model.Complete(ctx, messages, llm.Options{Temperature: &temperature})
	if err != nil {
		s.log.Error("recipe generation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.NewExternalServiceError("llm", err)
	}

	recipe, err := ParseGeneratedRecipe(text)
	if err != nil {
		s.log.Warn("unusable generation output", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "the model returned an unusable recipe")
	}

	draft := &RecipeDraft{
		UserID: userID,
		Prompt: prompt,
		Recipe: *recipe,
	}
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}

	s.log.Info("recipe draft created",
		zap.String("user_id", userID),
		zap.String("draft_id", draft.ID),
		zap.String("title", draft.Recipe.Title))
	return draft, nil
}

func buildGenerationPrompt(prompt string, prefs models.Preferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a recipe for: %s.", prompt)
	if len(prefs.Dietary) > 0 {
		fmt.Fprintf(&b, " The recipe must be suitable for: %s.", strings.Join(prefs.Dietary, ", "))
	}
	if len(prefs.Allergies) > 0 {
		fmt.Fprintf(&b, " Never use: %s.", strings.Join(prefs.Allergies, ", "))
	}
	if len(prefs.Cuisine) > 0 {
		fmt.Fprintf(&b, " The cook enjoys %s food.", strings.Join(prefs.Cuisine, ", "))
	}
	if prefs.SkillLevel != "" {
		fmt.Fprintf(&b, " Their skill level is %s.", prefs.SkillLevel)
	}
	switch prefs.CookingTime {
	case models.CookingTimeQuick:
		b.WriteString(" Keep total time under 30 minutes.")
	case models.CookingTimeExtended:
		b.WriteString(" A longer, more involved recipe is welcome.")
	}
	return b.String()
}

// generatedRecipe accepts the loose shapes models produce
type generatedRecipe struct {
	Name         string         `json:"name"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Cuisine      string         `json:"cuisine"`
	Ingredients  ingredientList `json:"ingredients"`
	Instructions ingredientList `json:"instructions"`
	Steps        ingredientList `json:"steps"`
	PrepTime     looseString    `json:"prep_time"`
	CookTime     looseString    `json:"cook_time"`
	Servings     looseString    `json:"servings"`
	Difficulty   string         `json:"difficulty"`
	Calories     looseNumber    `json:"calories"`
	Protein      looseNumber    `json:"protein"`
	Carbs        looseNumber    `json:"carbs"`
	Fat          looseNumber    `json:"fat"`
	Macros       *struct {
		Calories looseNumber `json:"calories"`
		Protein  looseNumber `json:"protein"`
		Carbs    looseNumber `json:"carbs"`
		Fat      looseNumber `json:"fat"`
	} `json:"macros"`
}

// ParseGeneratedRecipe extracts the recipe object from a free text
// completion, validates it and applies catalog tagging
func ParseGeneratedRecipe(text string) (*types.Recipe, error) {
	raw, err := llm.ExtractObject(text)
	if err != nil {
		return nil, err
	}

	var g generatedRecipe
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("failed to decode recipe: %w", err)
	}

	title := strings.TrimSpace(g.Name)
	if title == "" {
		title = strings.TrimSpace(g.Title)
	}
	instructions := g.Instructions
	if len(instructions) == 0 {
		instructions = g.Steps
	}

	var problems []string
	if title == "" {
		problems = append(problems, "name is missing")
	}
	if len(g.Ingredients) == 0 {
		problems = append(problems, "no ingredients")
	}
	if len(instructions) == 0 {
		problems = append(problems, "no instructions")
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, ", "))
	}

	macros := &types.Macros{
		Calories: float64(g.Calories),
		Protein:  float64(g.Protein),
		Carbs:    float64(g.Carbs),
		Fat:      float64(g.Fat),
	}
	if g.Macros != nil {
		macros = &types.Macros{
			Calories: float64(g.Macros.Calories),
			Protein:  float64(g.Macros.Protein),
			Carbs:    float64(g.Macros.Carbs),
			Fat:      float64(g.Macros.Fat),
		}
	}
	if *macros == (types.Macros{}) {
		macros = nil
	}

	recipe := &types.Recipe{
		Source:       models.SourceGenerated,
		Title:        title,
		Description:  strings.TrimSpace(g.Description),
		Cuisine:      strings.ToLower(strings.TrimSpace(g.Cuisine)),
		Ingredients:  []string(g.Ingredients),
		Instructions: stripStepPrefixes(instructions),
		PrepTime:     string(g.PrepTime),
		CookTime:     string(g.CookTime),
		Servings:     string(g.Servings),
		Difficulty:   strings.ToLower(strings.TrimSpace(g.Difficulty)),
		Macros:       macros,
	}
	catalog.Tag(recipe)
	return recipe, nil
}

var stepPrefix = regexp.MustCompile(`^(?i:step\s*)?\d+\s*[:.)-]\s*`)

func stripStepPrefixes(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(stepPrefix.ReplaceAllString(s, "")); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ingredientList decodes an array of strings or of {quantity, unit, name} objects
type ingredientList []string

func (l *ingredientList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = ingredientList(splitNonEmptyLines(single))
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected a list: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Quantity    looseString `json:"quantity"`
			Amount      looseString `json:"amount"`
			Unit        string      `json:"unit"`
			Name        string      `json:"name"`
			Item        string      `json:"item"`
			Ingredient  string      `json:"ingredient"`
			Text        string      `json:"text"`
			Instruction string      `json:"instruction"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		if text := strings.TrimSpace(obj.Text + obj.Instruction); text != "" {
			out = append(out, text)
			continue
		}
		parts := []string{string(obj.Quantity) + string(obj.Amount), obj.Unit, obj.Name + obj.Item + obj.Ingredient}
		if line := strings.Join(strings.Fields(strings.Join(parts, " ")), " "); line != "" {
			out = append(out, line)
		}
	}
	*l = out
	return nil
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•")); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// looseString accepts a string or a number
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(strings.TrimSpace(str))
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = looseString(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}
	*s = ""
	return nil
}

var leadingNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)

// looseNumber accepts a number or a string such as "350 kcal"
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*n = looseNumber(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if m := leadingNumber.FindString(str); m != "" {
			v, _ := strconv.ParseFloat(m, 64)
			*n = looseNumber(v)
		}
		return nil
	}
	*n = 0
	return nil
}

// saveDraft saves a recipe draft to Redis
func (s *GeneratorService) saveDraft(ctx context.Context, draft *RecipeDraft) error {
	draft.ID = uuid.New().String()
	draft.CreatedAt = time.Now()
	draft.UpdatedAt = draft.CreatedAt
	draft.Recipe.ID = draft.ID

	data, err := json.Marshal(draft)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal draft", err)
	}

	if err := s.redis.Set(ctx, draftKey(draft.ID), data, draftTTL).Err(); err != nil {
		return apperrors.NewInternalError("failed to save draft", err)
	}
	return nil
}

// GetDraft retrieves one of the user's drafts from Redis
func (s *GeneratorService) GetDraft(ctx context.Context, userID, id string) (*RecipeDraft, error) {
	data, err := s.redis.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError("draft")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get draft", err)
	}

	var draft RecipeDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal draft", err)
	}
	if draft.UserID != userID {
		return nil, apperrors.NewNotFoundError("draft")
	}
	return &draft, nil
}

// DeleteDraft removes one of the user's drafts from Redis
func (s *GeneratorService) DeleteDraft(ctx context.Context, userID, id string) error {
	if _, err := s.GetDraft(ctx, userID, id); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, draftKey(id)).Err(); err != nil {
		return apperrors.NewInternalError("failed to delete draft", err)
	}
	return nil
}

func draftKey(id string) string {
	return fmt.Sprintf("%s:%s", draftKeyPrefix, id)
}
