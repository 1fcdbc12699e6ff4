package catalog

import (
	"strings"

	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "with": {}, "for": {}, "of": {}, "in": {},
	"to": {}, "me": {}, "i": {}, "want": {}, "some": {}, "recipe": {}, "recipes": {},
	"something": {}, "make": {}, "how": {}, "please": {}, "dish": {}, "food": {}, "on": {},
}

// restrictiveDiets exclude recipes that lack the matching tag
var restrictiveDiets = map[string]string{
	"vegetarian":  "vegetarian",
	"vegan":       "vegan",
	"pescatarian": "pescatarian",
	"gluten-free": "gluten-free",
	"gluten free": "gluten-free",
	"dairy-free":  "dairy-free",
	"dairy free":  "dairy-free",
}

func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(normalize(query)) {
		if _, stop := stopWords[w]; stop || len(w) < 2 {
			continue
		}
		// hasWord already accepts plurals of the stem
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = strings.TrimSuffix(w, "s")
		}
		terms = append(terms, w)
	}
	return terms
}

// KeywordScore weights title hits over ingredient hits over tag or cuisine hits
func KeywordScore(r *types.Recipe, terms []string) int {
	title := normalize(r.Title)
	ingredients := normalize(strings.Join(r.Ingredients, " "))
	labels := normalize(r.Cuisine + " " + strings.Join(r.Tags, " "))

	score := 0
	for _, term := range terms {
		if hasWord(title, term) {
			score += 3
		}
		if hasWord(ingredients, term) {
			score += 2
		}
		if hasWord(labels, term) {
			score++
		}
	}
	return score
}

// Allowed reports whether a recipe is compatible with the user's allergies
// and restrictive diets.
func Allowed(r *types.Recipe, prefs models.Preferences) bool {
	ingredients := normalize(strings.Join(r.Ingredients, " ") + " " + r.Title)
	for _, allergy := range prefs.Allergies {
		a := strings.ToLower(strings.TrimSpace(allergy))
		if a != "" && hasWord(ingredients, a) {
			return false
		}
	}
	for _, diet := range prefs.Dietary {
		if tag, ok := restrictiveDiets[strings.ToLower(diet)]; ok && !hasTag(r, tag) {
			return false
		}
	}
	return true
}

// Score ranks an allowed recipe for a user. Higher is better.
func Score(r *types.Recipe, prefs models.Preferences) int {
	score := 0
	for _, c := range prefs.Cuisine {
		if strings.EqualFold(c, r.Cuisine) {
			score += 3
			break
		}
	}
	for _, d := range prefs.Dietary {
		if hasTag(r, strings.ToLower(d)) {
			score += 2
		}
	}

	steps := len(r.Instructions)
	switch prefs.CookingTime {
	case models.CookingTimeQuick:
		if hasTag(r, "quick") {
			score += 2
		}
	case models.CookingTimeExtended:
		if steps > 6 {
			score++
		}
	}
	switch prefs.SkillLevel {
	case models.SkillBeginner:
		if steps > 0 && steps <= 6 {
			score++
		}
	case models.SkillAdvanced:
		if steps > 8 {
			score++
		}
	}
	return score
}
