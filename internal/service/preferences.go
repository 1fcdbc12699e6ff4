package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

const (
	maxPreferenceEntries = 25
	maxPreferenceLength  = 64
)

// Preference fields addressable by PATCH /preferences/:field
const (
	FieldDietary      = "dietary_preferences"
	FieldCuisine      = "cuisine_preferences"
	FieldAllergies    = "allergies"
	FieldCookingGoals = "cooking_goals"
	FieldSkillLevel   = "skill_level"
	FieldCookingTime  = "cooking_time"
)

var (
	validSkillLevels = map[string]bool{
		models.SkillBeginner:     true,
		models.SkillIntermediate: true,
		models.SkillAdvanced:     true,
	}
	validCookingTimes = map[string]bool{
		models.CookingTimeQuick:    true,
		models.CookingTimeModerate: true,
		models.CookingTimeExtended: true,
	}
)

// IsValidSkillLevel reports whether s is an accepted skill level
func IsValidSkillLevel(s string) bool { return validSkillLevels[s] }

// IsValidCookingTime reports whether s is an accepted cooking time bucket
func IsValidCookingTime(s string) bool { return validCookingTimes[s] }

// ValidatePreferences normalises a preference update and rejects it when
// dietary or cuisine preferences are empty or an enum is out of range.
func ValidatePreferences(req *types.UpdatePreferencesRequest) (models.Preferences, error) {
	if req == nil {
		return models.Preferences{}, apperrors.NewValidationError("preferences are required")
	}

	prefs := models.Preferences{
		Dietary:      normalizeList(req.DietaryPreferences),
		Cuisine:      normalizeList(req.CuisinePreferences),
		Allergies:    normalizeList(req.Allergies),
		CookingGoals: normalizeList(req.CookingGoals),
		SkillLevel:   strings.ToLower(strings.TrimSpace(req.SkillLevel)),
		CookingTime:  strings.ToLower(strings.TrimSpace(req.CookingTime)),
	}

	var problems []string
	if len(prefs.Dietary) == 0 {
		problems = append(problems, "at least one dietary preference is required")
	}
	if len(prefs.Cuisine) == 0 {
		problems = append(problems, "at least one cuisine preference is required")
	}
	lists := []struct {
		name   string
		values []string
	}{
		{FieldDietary, prefs.Dietary},
		{FieldCuisine, prefs.Cuisine},
		{FieldAllergies, prefs.Allergies},
		{FieldCookingGoals, prefs.CookingGoals},
	}
	for _, l := range lists {
		if len(l.values) > maxPreferenceEntries {
			problems = append(problems, fmt.Sprintf("%s accepts at most %d entries", l.name, maxPreferenceEntries))
		}
		for _, v := range l.values {
			if len(v) > maxPreferenceLength {
				problems = append(problems, fmt.Sprintf("%s entries must be at most %d characters", l.name, maxPreferenceLength))
				break
			}
		}
	}

	if prefs.SkillLevel == "" {
		prefs.SkillLevel = models.SkillBeginner
	} else if !IsValidSkillLevel(prefs.SkillLevel) {
		problems = append(problems, "skill_level must be beginner, intermediate or advanced")
	}
	if prefs.CookingTime == "" {
		prefs.CookingTime = models.CookingTimeModerate
	} else if !IsValidCookingTime(prefs.CookingTime) {
		problems = append(problems, "cooking_time must be quick, moderate or extended")
	}

	if len(problems) > 0 {
		return models.Preferences{}, apperrors.NewValidationError(strings.Join(problems, "; "))
	}
	return prefs, nil
}

// normalizeList trims, lower-cases and de-duplicates entries, dropping blanks
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.Join(strings.Fields(v), " "))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// PreferencesService stores the preference arrays on the user row
type PreferencesService struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ IPreferencesService = (*PreferencesService)(nil)

func NewPreferencesService(db *gorm.DB, log *zap.Logger) *PreferencesService {
	return &PreferencesService{
		db:  db,
		log: log.Named("preferences"),
	}
}

// Get returns the user row carrying the preferences
func (s *PreferencesService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("get preferences", err)
	}
	return &user, nil
}

// Update replaces every preference. Validation runs before the database is touched.
func (s *PreferencesService) Update(ctx context.Context, userID uuid.UUID, req *types.UpdatePreferencesRequest) (*models.User, error) {
	prefs, err := ValidatePreferences(req)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, userID, prefs)
}

// Patch replaces a single field and re-validates the merged preferences
func (s *PreferencesService) Patch(ctx context.Context, userID uuid.UUID, field string, values []string) (*models.User, error) {
	switch field {
	case FieldDietary, FieldCuisine:
		if len(normalizeList(values)) == 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s cannot be empty", field))
		}
	case FieldAllergies, FieldCookingGoals:
	case FieldSkillLevel, FieldCookingTime:
		if len(values) != 1 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s takes exactly one value", field))
		}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown preference field %q", field))
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := user.Preferences()
	req := &types.UpdatePreferencesRequest{
		DietaryPreferences: current.Dietary,
		CuisinePreferences: current.Cuisine,
		Allergies:          current.Allergies,
		CookingGoals:       current.CookingGoals,
		SkillLevel:         current.SkillLevel,
		CookingTime:        current.CookingTime,
	}
	switch field {
	case FieldDietary:
		req.DietaryPreferences = values
	case FieldCuisine:
		req.CuisinePreferences = values
	case FieldAllergies:
		req.Allergies = values
	case FieldCookingGoals:
		req.CookingGoals = values
	case FieldSkillLevel:
		req.SkillLevel = values[0]
	case FieldCookingTime:
		req.CookingTime = values[0]
	}

	prefs, err := ValidatePreferences(req)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, userID, prefs)
}

func (s *PreferencesService) save(ctx context.Context, userID uuid.UUID, prefs models.Preferences) (*models.User, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"dietary_preferences": models.JSONBStringArray(prefs.Dietary),
		"cuisine_preferences": models.JSONBStringArray(prefs.Cuisine),
		"allergies":           models.JSONBStringArray(prefs.Allergies),
		"cooking_goals":       models.JSONBStringArray(prefs.CookingGoals),
		"skill_level":         prefs.SkillLevel,
		"cooking_time":        prefs.CookingTime,
		"onboarded":           true,
	})
	if result.Error != nil {
		return nil, apperrors.NewDatabaseError("update preferences", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NewNotFoundError("user")
	}

	s.log.Info("preferences updated",
		zap.String("user_id", userID.String()),
		zap.Strings("dietary", prefs.Dietary),
		zap.Strings("cuisine", prefs.Cuisine))
	return s.Get(ctx, userID)
}
