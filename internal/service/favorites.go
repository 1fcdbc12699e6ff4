package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

const (
	defaultSavedSearchLimit = 10
	maxSavedSearchLimit     = 50
)

var validSources = map[string]bool{
	models.SourceCatalog:   true,
	models.SourceAgent:     true,
	models.SourceGenerated: true,
	models.SourceCustom:    true,
}

// FavoritesService stores recipes users keep from any source
type FavoritesService struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ IFavoritesService = (*FavoritesService)(nil)

func NewFavoritesService(db *gorm.DB, log *zap.Logger) *FavoritesService {
	return &FavoritesService{
		db:  db,
		log: log.Named("favorites"),
	}
}

// Save keeps recipe for the user. Saving the same source recipe twice
// returns the existing row.
func (s *FavoritesService) Save(ctx context.Context, userID uuid.UUID, recipe *types.Recipe) (*models.SavedRecipe, error) {
	if recipe == nil {
		return nil, apperrors.NewValidationError("recipe is required")
	}
	saved, err := newSavedRecipe(userID, recipe)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var existing models.SavedRecipe
	err = db.Unscoped().
		Where("user_id = ? AND source = ? AND source_id = ?", userID, saved.Source, saved.SourceID).
		First(&existing).Error
	switch {
	case err == nil && !existing.DeletedAt.Valid:
		return &existing, nil
	case err == nil:
		// Saved before and removed since; bring it back with fresh content
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
		if err := db.Unscoped().Select("*").Omit("created_at").Save(saved).Error; err != nil {
			return nil, apperrors.NewDatabaseError("restore saved recipe", err)
		}
		return saved, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.NewDatabaseError("lookup saved recipe", err)
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(saved)
	if result.Error != nil && !isUniqueViolation(result.Error) {
		return nil, apperrors.NewDatabaseError("save recipe", result.Error)
	}
	if result.Error == nil && result.RowsAffected > 0 {
		s.log.Info("recipe saved",
			zap.String("user_id", userID.String()),
			zap.String("source", saved.Source),
			zap.String("source_id", saved.SourceID))
		return saved, nil
	}

	// Lost a concurrent save of the same recipe
	if err := db.Where("user_id = ? AND source = ? AND source_id = ?", userID, saved.Source, saved.SourceID).
		First(&existing).Error; err != nil {
		return nil, apperrors.NewDatabaseError("lookup saved recipe", err)
	}
	return &existing, nil
}

func newSavedRecipe(userID uuid.UUID, r *types.Recipe) (*models.SavedRecipe, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("recipe title is required")
	}
	if len(r.Ingredients) == 0 {
		return nil, apperrors.NewValidationError("recipe needs at least one ingredient")
	}

	source := strings.ToLower(strings.TrimSpace(r.Source))
	if source == "" {
		source = models.SourceCustom
	}
	if !validSources[source] {
		return nil, apperrors.NewValidationError("source must be catalog, agent, generated or custom")
	}
	sourceID := strings.TrimSpace(r.ID)
	if sourceID == "" {
		if source != models.SourceCustom {
			return nil, apperrors.NewValidationError("recipe id is required")
		}
		sourceID = uuid.New().String()
	}

	saved := &models.SavedRecipe{
		UserID:       userID,
		Source:       source,
		SourceID:     sourceID,
		Title:        title,
		Description:  r.Description,
		Cuisine:      r.Cuisine,
		Tags:         models.JSONBStringArray(append([]string{}, r.Tags...)),
		Ingredients:  models.JSONBStringArray(append([]string{}, r.Ingredients...)),
		Instructions: models.JSONBStringArray(append([]string{}, r.Instructions...)),
		ImageURL:     r.ImageURL,
		SourceURL:    r.SourceURL,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Difficulty:   r.Difficulty,
		Embedding:    RecipeEmbedding(r),
	}
	if r.Macros != nil {
		saved.Calories = r.Macros.Calories
		saved.Protein = r.Macros.Protein
		saved.Carbs = r.Macros.Carbs
		saved.Fat = r.Macros.Fat
	}
	return saved, nil
}

// SavedToRecipe converts a saved row back into the shared recipe shape
func SavedToRecipe(s *models.SavedRecipe) types.Recipe {
	r := types.Recipe{
		ID:           s.SourceID,
		Source:       s.Source,
		Title:        s.Title,
		Description:  s.Description,
		Cuisine:      s.Cuisine,
		Tags:         append([]string{}, s.Tags...),
		Ingredients:  append([]string{}, s.Ingredients...),
		Instructions: append([]string{}, s.Instructions...),
		ImageURL:     s.ImageURL,
		SourceURL:    s.SourceURL,
		PrepTime:     s.PrepTime,
		CookTime:     s.CookTime,
		Servings:     s.Servings,
		Difficulty:   s.Difficulty,
	}
	if s.Calories != 0 || s.Protein != 0 || s.Carbs != 0 || s.Fat != 0 {
		r.Macros = &types.Macros{Calories: s.Calories, Protein: s.Protein, Carbs: s.Carbs, Fat: s.Fat}
	}
	return r
}

// List returns the user's saved recipes, newest first
func (s *FavoritesService) List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error) {
	var recipes []models.SavedRecipe
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recipes).Error; err != nil {
		return nil, apperrors.NewDatabaseError("list saved recipes", err)
	}
	return recipes, nil
}

// Get returns one saved recipe owned by the user
func (s *FavoritesService) Get(ctx context.Context, userID, id uuid.UUID) (*models.SavedRecipe, error) {
	var recipe models.SavedRecipe
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("saved recipe")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get saved recipe", err)
	}
	return &recipe, nil
}

// Delete removes one saved recipe owned by the user
func (s *FavoritesService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.SavedRecipe{})
	if result.Error != nil {
		return apperrors.NewDatabaseError("delete saved recipe", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("saved recipe")
	}
	return nil
}

// Search finds saved recipes matching query. On Postgres matches are
// ordered by embedding distance, elsewhere by recency.
func (s *FavoritesService) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.SavedRecipe, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if limit <= 0 {
		limit = defaultSavedSearchLimit
	}
	if limit > maxSavedSearchLimit {
		limit = maxSavedSearchLimit
	}

	pattern := "%" + escapeLike(query) + "%"
	db := s.db.WithContext(ctx).Where("user_id = ?", userID)

	var recipes []models.SavedRecipe
	var err error
	if s.db.Dialector.Name() == "postgres" {
		err = db.Where("(title ILIKE ? OR description ILIKE ? OR cuisine ILIKE ? OR tags::text ILIKE ? OR ingredients::text ILIKE ?)",
			pattern, pattern, pattern, pattern, pattern).
			Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{GenerateEmbedding(query)}}}).
			Limit(limit).
			Find(&recipes).Error
	} else {
		err = db.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(cuisine) LIKE ? ESCAPE '\\' OR LOWER(tags) LIKE ? ESCAPE '\\' OR LOWER(ingredients) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern, pattern, pattern).
			Order("created_at DESC").
			Limit(limit).
			Find(&recipes).Error
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("search saved recipes", err)
	}
	return recipes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
