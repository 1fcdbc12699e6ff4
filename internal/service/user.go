package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

// UserService mirrors identity provider accounts into the users table
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

// Ensure UserService implements IUserService
var _ IUserService = (*UserService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{
		db:  db,
		log: log.Named("users"),
	}
}

// EnsureUser returns the row for identity, creating it on first sight.
// Calling it again with the same clerk id or email returns the existing
// row, including when a concurrent call won the insert.
func (s *UserService) EnsureUser(ctx context.Context, identity types.Identity) (*models.User, error) {
	identity = normalizeIdentity(identity)
	if identity.ClerkID == "" {
		return nil, apperrors.NewValidationError("clerk id is required")
	}
	if identity.Email == "" {
		return nil, apperrors.NewValidationError("email is required")
	}

	// A second pass covers the insert losing a race to another request
	for attempt := 0; attempt < 2; attempt++ {
		user, err := s.findExisting(ctx, identity)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		user, created, err := s.insert(ctx, identity)
		if err != nil {
			return nil, err
		}
		if created {
			s.log.Info("user created",
				zap.String("user_id", user.ID.String()),
				zap.String("clerk_id", user.ClerkID))
			return user, nil
		}
		s.log.Debug("user insert skipped on conflict", zap.String("clerk_id", identity.ClerkID))
	}

	return nil, apperrors.New(apperrors.CodeConflict, "user could not be resolved", identity.ClerkID)
}

// findExisting looks the identity up by clerk id, then by email. A row found
// by email belongs to the same person under a new clerk id and is relinked.
// Soft deleted rows are restored.
func (s *UserService) findExisting(ctx context.Context, identity types.Identity) (*models.User, error) {
	db := s.db.WithContext(ctx).Unscoped()

	var user models.User
	err := db.Where("clerk_id = ?", identity.ClerkID).First(&user).Error
	if err == nil {
		if user.DeletedAt.Valid {
			if err := s.restore(ctx, &user, nil); err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewDatabaseError("lookup user", err)
	}

	err = db.Where("email = ?", identity.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("lookup user", err)
	}

	s.log.Info("relinking user to new clerk id",
		zap.String("user_id", user.ID.String()),
		zap.String("old_clerk_id", user.ClerkID),
		zap.String("clerk_id", identity.ClerkID))

	err = s.restore(ctx, &user, map[string]interface{}{"clerk_id": identity.ClerkID})
	if isUniqueViolation(err) {
		// Someone inserted the new clerk id meanwhile
		var winner models.User
		if err := db.Where("clerk_id = ?", identity.ClerkID).First(&winner).Error; err != nil {
			return nil, apperrors.NewDatabaseError("lookup user", err)
		}
		return &winner, nil
	}
	if err != nil {
		return nil, err
	}
	user.ClerkID = identity.ClerkID
	return &user, nil
}

func (s *UserService) restore(ctx context.Context, user *models.User, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["deleted_at"] = nil
	if err := s.db.WithContext(ctx).Unscoped().Model(user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return apperrors.NewDatabaseError("update user", err)
	}
	user.DeletedAt = gorm.DeletedAt{}
	return nil
}

// insert creates the row with ON CONFLICT DO NOTHING. created is false when
// another row already holds the clerk id or email.
func (s *UserService) insert(ctx context.Context, identity types.Identity) (*models.User, bool, error) {
	user := &models.User{
		ClerkID:            identity.ClerkID,
		Email:              identity.Email,
		Name:               identity.Name,
		ImageURL:           identity.ImageURL,
		DietaryPreferences: models.JSONBStringArray{},
		CuisinePreferences: models.JSONBStringArray{},
		Allergies:          models.JSONBStringArray{},
		CookingGoals:       models.JSONBStringArray{},
		SkillLevel:         models.SkillBeginner,
		CookingTime:        models.CookingTimeModerate,
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewDatabaseError("create user", result.Error)
	}
	return user, result.RowsAffected > 0, nil
}

// GetByID retrieves a user by primary key
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	return &user, nil
}

// GetByClerkID retrieves a user by identity provider id
func (s *UserService) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	return &user, nil
}

// UpdateProfile updates the editable identity fields
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update fields if provided
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.ImageURL != nil {
		user.ImageURL = strings.TrimSpace(*req.ImageURL)
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"name":      user.Name,
		"image_url": user.ImageURL,
	}).Error; err != nil {
		return nil, apperrors.NewDatabaseError("update user", err)
	}
	return user, nil
}

// Delete soft deletes the user. A later sign in restores the row.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.NewDatabaseError("delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user")
	}
	return nil
}

// HandleWebhook applies a Clerk user lifecycle event
func (s *UserService) HandleWebhook(ctx context.Context, event *types.ClerkWebhookEvent) error {
	switch event.Type {
	case types.ClerkUserCreated, types.ClerkUserUpdated:
		identity := normalizeIdentity(event.Data.Identity())
		user, err := s.EnsureUser(ctx, identity)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if identity.Name != "" && identity.Name != user.Name {
			updates["name"] = identity.Name
		}
		if identity.ImageURL != user.ImageURL {
			updates["image_url"] = identity.ImageURL
		}
		if identity.Email != user.Email {
			updates["email"] = identity.Email
		}
		if len(updates) == 0 {
			return nil
		}
		err = s.db.WithContext(ctx).Model(user).Updates(updates).Error
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.CodeConflict, "email already belongs to another user", identity.Email)
		}
		if err != nil {
			return apperrors.NewDatabaseError("sync user", err)
		}
		return nil

	case types.ClerkUserDeleted:
		if event.Data.ID == "" {
			return apperrors.NewValidationError("user id is required")
		}
		result := s.db.WithContext(ctx).Where("clerk_id = ?", event.Data.ID).Delete(&models.User{})
		if result.Error != nil {
			return apperrors.NewDatabaseError("delete user", result.Error)
		}
		s.log.Info("user deleted by webhook",
			zap.String("clerk_id", event.Data.ID),
			zap.Int64("rows", result.RowsAffected))
		return nil

	default:
		s.log.Debug("ignoring webhook event", zap.String("type", event.Type))
		return nil
	}
}

func normalizeIdentity(identity types.Identity) types.Identity {
	identity.ClerkID = strings.TrimSpace(identity.ClerkID)
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	identity.Name = strings.TrimSpace(identity.Name)
	identity.ImageURL = strings.TrimSpace(identity.ImageURL)
	return identity
}

// isUniqueViolation recognises duplicate key errors from gorm's translated
// errors, pgx and sqlite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
