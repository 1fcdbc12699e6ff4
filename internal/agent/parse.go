package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/souschef/backend/internal/llm"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

// flexStrings accepts a JSON array of strings or a single newline separated string
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = splitLines(single)
	return nil
}

// flexString accepts strings and numbers, e.g. "servings": 4
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type agentRecipe struct {
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Cuisine      string      `json:"cuisine"`
	Ingredients  flexStrings `json:"ingredients"`
	Instructions flexStrings `json:"instructions"`
	Steps        flexStrings `json:"steps"`
	ImageURL     string      `json:"image_url"`
	Image        string      `json:"image"`
	SourceURL    string      `json:"source_url"`
	URL          string      `json:"url"`
	PrepTime     flexString  `json:"prep_time"`
	CookTime     flexString  `json:"cook_time"`
	Servings     flexString  `json:"servings"`
}

func (a agentRecipe) toRecipe() types.Recipe {
	r := types.Recipe{
		Source:       models.SourceAgent,
		Title:        firstNonEmpty(a.Title, a.Name),
		Description:  a.Description,
		Cuisine:      strings.ToLower(a.Cuisine),
		Ingredients:  a.Ingredients,
		Instructions: a.Instructions,
		ImageURL:     firstNonEmpty(a.ImageURL, a.Image),
		SourceURL:    firstNonEmpty(a.SourceURL, a.URL),
		PrepTime:     string(a.PrepTime),
		CookTime:     string(a.CookTime),
		Servings:     string(a.Servings),
	}
	if len(r.Instructions) == 0 {
		r.Instructions = a.Steps
	}
	return r
}

// ParseRecipes turns an agent answer into recipes. Structured JSON output
// is preferred; otherwise the text is parsed heuristically.
func ParseRecipes(text string) []types.Recipe {
	recipes, err := parseStructured(text)
	if err != nil || len(recipes) == 0 {
		recipes = parseText(text)
	}

	out := recipes[:0]
	for _, r := range recipes {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		r.Title = strings.TrimSpace(r.Title)
		r.ID = recipeID(r)
		out = append(out, r)
	}
	return out
}

// maxJSONCandidates bounds how many bracketed spans are tried. Citations
// such as "[1]" appear before the real payload often enough to need more
// than the first.
const maxJSONCandidates = 16

func parseStructured(text string) ([]types.Recipe, error) {
	candidates := llm.Candidates(text, maxJSONCandidates)
	if len(candidates) == 0 {
		return nil, llm.ErrNoJSON
	}

	var lastErr error
	for _, body := range candidates {
		raw, err := decodeCandidate(body)
		if err != nil {
			lastErr = err
			continue
		}
		recipes := make([]types.Recipe, 0, len(raw))
		for _, a := range raw {
			if firstNonEmpty(a.Title, a.Name) == "" {
				continue
			}
			recipes = append(recipes, a.toRecipe())
		}
		if len(recipes) > 0 {
			return recipes, nil
		}
	}
	if lastErr == nil {
		lastErr = llm.ErrNoJSON
	}
	return nil, lastErr
}

// decodeCandidate reads an array of recipes, a {"recipes"} or {"results"}
// envelope, or a single recipe object
func decodeCandidate(body string) ([]agentRecipe, error) {
	if body[0] == '[' {
		var raw []agentRecipe
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return nil, fmt.Errorf("decode recipe array: %w", err)
		}
		return raw, nil
	}

	var envelope struct {
		Recipes []agentRecipe `json:"recipes"`
		Results []agentRecipe `json:"results"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("decode recipe object: %w", err)
	}
	if len(envelope.Recipes) > 0 {
		return envelope.Recipes, nil
	}
	if len(envelope.Results) > 0 {
		return envelope.Results, nil
	}

	var single agentRecipe
	if err := json.Unmarshal([]byte(body), &single); err == nil && firstNonEmpty(single.Title, single.Name) != "" {
		return []agentRecipe{single}, nil
	}
	return nil, nil
}

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s)\]>"']+`)
	headingPattern  = regexp.MustCompile(`^(?:#{1,4}\s*|\d+[.)]\s*|recipe\s*\d*\s*[:.-]\s*)?\*{0,2}([^*:#]+?)\*{0,2}\s*:?\s*$`)
	listItemPattern = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

type section int

const (
	sectionNone section = iota
	sectionIngredients
	sectionInstructions
)

// parseText handles free form answers: numbered, bold or markdown headings
// followed by "Ingredients:" and "Instructions:" sections, with optional
// "Source:" and "Image:" lines.
func parseText(text string) []types.Recipe {
	var (
		recipes []types.Recipe
		current *types.Recipe
		sec     section
	)
	flush := func() {
		if current != nil && (len(current.Ingredients) > 0 || len(current.Instructions) > 0 || current.SourceURL != "") {
			recipes = append(recipes, *current)
		}
		current = nil
		sec = sectionNone
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		lower := strings.ToLower(strings.Trim(line, "*#: "))

		switch {
		case strings.HasPrefix(lower, "ingredients"):
			if current != nil {
				sec = sectionIngredients
				if rest := afterColon(line); rest != "" {
					current.Ingredients = append(current.Ingredients, splitInline(rest)...)
				}
			}
			continue
		case strings.HasPrefix(lower, "instructions"), strings.HasPrefix(lower, "directions"),
			strings.HasPrefix(lower, "steps"), strings.HasPrefix(lower, "method"):
			if current != nil {
				sec = sectionInstructions
				if rest := afterColon(line); rest != "" {
					current.Instructions = append(current.Instructions, rest)
				}
			}
			continue
		}

		if url := urlPattern.FindString(line); url != "" && current != nil {
			if isImageURL(url) {
				current.ImageURL = url
			} else if current.SourceURL == "" {
				current.SourceURL = url
			}
			if !listItemPattern.MatchString(line) || sec == sectionNone {
				continue
			}
		}

		// Inside a section only an emphasised line can start the next recipe
		if sec == sectionNone || strings.HasPrefix(line, "#") || strings.Contains(line, "**") {
			if title, ok := headingTitle(line); ok {
				flush()
				current = &types.Recipe{Source: models.SourceAgent, Title: title}
				continue
			}
		}

		if sec != sectionNone && listItemPattern.MatchString(line) && current != nil {
			item := strings.TrimSpace(listItemPattern.ReplaceAllString(line, ""))
			if sec == sectionIngredients {
				current.Ingredients = append(current.Ingredients, item)
			} else {
				current.Instructions = append(current.Instructions, item)
			}
			continue
		}

		if current != nil {
			switch sec {
			case sectionInstructions:
				current.Instructions = append(current.Instructions, line)
			case sectionNone:
				if current.Description == "" {
					current.Description = line
				}
			}
		}
	}
	flush()
	return recipes
}

func headingTitle(line string) (string, bool) {
	emphasised := strings.HasPrefix(line, "#") || strings.Contains(line, "**")
	numbered := len(line) > 2 && line[0] >= '0' && line[0] <= '9'
	if !emphasised && !numbered && !strings.HasPrefix(strings.ToLower(line), "recipe") {
		return "", false
	}
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	// Long numbered lines are sentences, not titles
	if title == "" || len(strings.Fields(title)) > 10 || strings.HasSuffix(title, ".") {
		return "", false
	}
	return title, true
}

func afterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(strings.Trim(line[i+1:], "* "))
	}
	return ""
}

func splitInline(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(listItemPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isImageURL(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".gif"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// recipeID is stable for the same source so saving twice is idempotent
func recipeID(r types.Recipe) string {
	key := r.SourceURL
	if key == "" {
		key = strings.ToLower(r.Title)
	}
	return "agent-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
