package types

// UpdatePreferencesRequest replaces the caller's preferences
type UpdatePreferencesRequest struct {
	DietaryPreferences []string `json:"dietary_preferences"`
	CuisinePreferences []string `json:"cuisine_preferences"`
	Allergies          []string `json:"allergies"`
	CookingGoals       []string `json:"cooking_goals"`
	SkillLevel         string   `json:"skill_level" binding:"omitempty,skill_level"`
	CookingTime        string   `json:"cooking_time" binding:"omitempty,cooking_time"`
}

// UpdateProfileRequest edits the mirrored identity fields
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
}

// SearchRequest is a natural language recipe search
type SearchRequest struct {
	Query string `json:"query" binding:"required,max=500"`
}

// GenerateRequest asks the LLM for a new recipe
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required,max=1000"`
}

// ChatMessageRequest is one user turn in a chat session
type ChatMessageRequest struct {
	SessionID string `json:"session_id" binding:"required,max=64"`
	Message   string `json:"message" binding:"required,max=4000"`
	Source    string `json:"source" binding:"omitempty,oneof=text voice"`
}

// SaveRecipeRequest stores a recipe in the caller's collection. Either a
// full recipe or the id of a generated draft must be given.
type SaveRecipeRequest struct {
	Recipe  *Recipe `json:"recipe"`
	DraftID string  `json:"draft_id" binding:"omitempty,max=64"`
}

// PatchPreferenceRequest replaces a single preference field
type PatchPreferenceRequest struct {
	Values []string `json:"values"`
	Value  string   `json:"value"`
}
