package types

// Recipe is the wire shape shared by every recipe source: the bundled
// catalog, agent search results and LLM generated drafts.
type Recipe struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Cuisine      string   `json:"cuisine"`
	Tags         []string `json:"tags"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"image_url,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	PrepTime     string   `json:"prep_time,omitempty"`
	CookTime     string   `json:"cook_time,omitempty"`
	Servings     string   `json:"servings,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Macros       *Macros  `json:"macros,omitempty"`
}

// Macros represents nutritional macros information
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// RecipePage is one page of a paginated recipe listing
type RecipePage struct {
	Recipes []Recipe `json:"recipes"`
	Total   int      `json:"total"`
	HasMore bool     `json:"has_more"`
}
