package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Skill levels and cooking time buckets accepted in preferences
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"

	CookingTimeQuick    = "quick"
	CookingTimeModerate = "moderate"
	CookingTimeExtended = "extended"
)

// User mirrors an identity provider account. The row is created lazily on
// the first authenticated request and is keyed by both ClerkID and Email.
type User struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClerkID  string `gorm:"size:255;not null;uniqueIndex" json:"clerk_id"`
	Email    string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name     string `gorm:"size:255" json:"name"`
	ImageURL string `gorm:"size:512" json:"image_url"`

	DietaryPreferences JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_preferences"`
	CuisinePreferences JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"cuisine_preferences"`
	Allergies          JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergies"`
	CookingGoals       JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"cooking_goals"`
	SkillLevel         string           `gorm:"size:32;default:'beginner'" json:"skill_level"`
	CookingTime        string           `gorm:"size:32;default:'moderate'" json:"cooking_time"`
	Onboarded          bool             `gorm:"not null;default:false" json:"onboarded"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Preferences returns the preference portion of the row
func (u *User) Preferences() Preferences {
	return Preferences{
		Dietary:      append([]string(nil), u.DietaryPreferences...),
		Cuisine:      append([]string(nil), u.CuisinePreferences...),
		Allergies:    append([]string(nil), u.Allergies...),
		CookingGoals: append([]string(nil), u.CookingGoals...),
		SkillLevel:   u.SkillLevel,
		CookingTime:  u.CookingTime,
	}
}

// Preferences is the set of user choices that shape recommendations
type Preferences struct {
	Dietary      []string `json:"dietary_preferences"`
	Cuisine      []string `json:"cuisine_preferences"`
	Allergies    []string `json:"allergies"`
	CookingGoals []string `json:"cooking_goals"`
	SkillLevel   string   `json:"skill_level"`
	CookingTime  string   `json:"cooking_time"`
}
