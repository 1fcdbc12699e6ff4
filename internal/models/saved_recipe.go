package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Recipe sources a saved recipe can come from
const (
	SourceCatalog   = "catalog"
	SourceAgent     = "agent"
	SourceGenerated = "generated"
	SourceCustom    = "custom"
)

// SavedRecipe is a recipe a user kept from any source
type SavedRecipe struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_user_source" json:"user_id"`
	Source   string    `gorm:"size:32;not null;uniqueIndex:idx_saved_user_source" json:"source"`
	SourceID string    `gorm:"size:255;not null;uniqueIndex:idx_saved_user_source" json:"source_id"`

	Title        string           `gorm:"size:255;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	Cuisine      string           `gorm:"size:64" json:"cuisine"`
	Tags         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Ingredients  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	ImageURL     string           `gorm:"size:512" json:"image_url"`
	SourceURL    string           `gorm:"size:512" json:"source_url"`
	PrepTime     string           `gorm:"size:64" json:"prep_time"`
	CookTime     string           `gorm:"size:64" json:"cook_time"`
	Servings     string           `gorm:"size:64" json:"servings"`
	Difficulty   string           `gorm:"size:32" json:"difficulty"`
	Calories     float64          `json:"calories"`
	Protein      float64          `json:"protein"`
	Carbs        float64          `json:"carbs"`
	Fat          float64          `json:"fat"`
	Embedding    pgvector.Vector  `gorm:"type:vector(3)" json:"-"`
}

func (r *SavedRecipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
