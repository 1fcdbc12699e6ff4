package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pageza/souschef/backend/internal/types"
)

const defaultCuisine = "international"

// cuisineKeywords is checked in order; the cuisine with the most hits wins.
var cuisineKeywords = []struct {
	cuisine  string
	keywords []string
}{
	{"italian", []string{"pasta", "spaghetti", "risotto", "parmesan", "mozzarella", "basil", "lasagna", "gnocchi", "prosciutto", "pancetta", "pesto", "ricotta", "focaccia", "marinara", "penne", "linguine", "polenta", "tiramisu"}},
	{"mexican", []string{"tortilla", "salsa", "jalapeno", "cilantro", "taco", "burrito", "enchilada", "chipotle", "guacamole", "queso", "tomatillo", "quesadilla", "pinto", "chorizo"}},
	{"indian", []string{"curry", "garam masala", "turmeric", "cumin", "cardamom", "ghee", "paneer", "naan", "dal", "masala", "tikka", "chutney", "basmati", "tandoori"}},
	{"chinese", []string{"soy sauce", "hoisin", "bok choy", "wok", "five spice", "szechuan", "oyster sauce", "dumpling", "sesame oil", "scallion", "shaoxing", "chow mein"}},
	{"japanese", []string{"miso", "sushi", "nori", "dashi", "mirin", "sake", "wasabi", "teriyaki", "udon", "ramen", "panko", "tempura", "edamame"}},
	{"thai", []string{"fish sauce", "lemongrass", "coconut milk", "thai", "galangal", "kaffir", "pad thai", "sriracha", "green curry", "red curry"}},
	{"french", []string{"gruyere", "dijon", "shallot", "tarragon", "brioche", "creme fraiche", "bechamel", "ratatouille", "gratin", "baguette", "cognac", "croissant"}},
	{"mediterranean", []string{"feta", "olive", "hummus", "tahini", "chickpea", "pita", "za'atar", "tzatziki", "couscous", "sumac", "halloumi", "oregano"}},
	{"korean", []string{"kimchi", "gochujang", "gochugaru", "bulgogi", "bibimbap", "doenjang"}},
	{"american", []string{"burger", "barbecue", "bbq", "cornbread", "mac and cheese", "buffalo", "ranch", "biscuit", "pancake", "hot dog"}},
}

var (
	meatWords    = []string{"chicken", "beef", "pork", "lamb", "bacon", "sausage", "ham", "turkey", "duck", "veal", "prosciutto", "pancetta", "chorizo", "steak", "salami", "meatball", "ground meat", "brisket", "venison"}
	seafoodWords = []string{"fish", "salmon", "tuna", "shrimp", "prawn", "crab", "lobster", "anchovy", "cod", "clam", "mussel", "scallop", "squid", "oyster", "halibut", "tilapia", "sardine", "fish sauce"}
	dairyWords   = []string{"milk", "cheese", "butter", "cream", "yogurt", "ghee", "parmesan", "mozzarella", "ricotta", "feta", "gruyere", "buttermilk", "creme fraiche", "paneer", "halloumi", "mascarpone"}
	eggWords     = []string{"egg", "mayonnaise", "meringue"}
	glutenWords  = []string{"flour", "bread", "pasta", "spaghetti", "noodle", "wheat", "barley", "couscous", "breadcrumb", "panko", "cracker", "penne", "linguine", "lasagna", "brioche", "baguette", "pita", "naan", "udon", "ramen", "soy sauce", "rye", "seitan", "croissant", "biscuit", "tortilla"}
	animalOther  = []string{"honey", "gelatin"}

	// Plant based phrases that would otherwise trip the dairy and egg checks.
	plantExceptions = []string{"peanut butter", "almond butter", "cashew butter", "coconut milk", "coconut cream", "almond milk", "oat milk", "soy milk", "vegan butter", "vegan cheese", "cream of tartar", "eggplant", "gluten free flour", "rice flour", "almond flour", "corn tortilla", "tamari"}

	dessertWords   = []string{"cake", "cookie", "pie", "tart", "brownie", "pudding", "ice cream", "dessert", "sorbet", "cupcake", "cheesecake", "fudge", "mousse", "tiramisu", "crumble"}
	breakfastWords = []string{"pancake", "waffle", "omelet", "omelette", "granola", "muffin", "breakfast", "french toast", "frittata", "porridge", "oatmeal", "overnight oats", "scrambled"}
	soupWords      = []string{"soup", "stew", "chowder", "bisque", "broth", "chili", "gazpacho"}
	saladWords     = []string{"salad", "slaw"}
)

// Tag fills in Cuisine and Tags for a recipe from its title, ingredients and
// instructions. Existing values are kept.
func Tag(r *types.Recipe) {
	title := normalize(r.Title)
	ingredients := stripExceptions(normalize(strings.Join(r.Ingredients, " ")))

	if r.Cuisine == "" {
		r.Cuisine = DetectCuisine(r.Title, strings.Join(r.Ingredients, " "))
	}

	tags := make(map[string]struct{}, len(r.Tags))
	for _, t := range r.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags[t] = struct{}{}
		}
	}
	for _, t := range detectTags(title, ingredients, r.Instructions) {
		tags[t] = struct{}{}
	}

	r.Tags = make([]string, 0, len(tags))
	for t := range tags {
		r.Tags = append(r.Tags, t)
	}
	sort.Strings(r.Tags)
}

// DetectCuisine picks the cuisine whose keywords appear most often. Title
// hits count double.
func DetectCuisine(title, ingredients string) string {
	title, ingredients = normalize(title), normalize(ingredients)
	best, bestHits := defaultCuisine, 0
	for _, c := range cuisineKeywords {
		hits := 2*countMatches(title, c.keywords) + countMatches(ingredients, c.keywords)
		if hits > bestHits {
			best, bestHits = c.cuisine, hits
		}
	}
	return best
}

func detectTags(title, ingredients string, instructions []string) []string {
	var tags []string

	hasMeat := containsAny(ingredients, meatWords) || containsAny(title, meatWords)
	hasSeafood := containsAny(ingredients, seafoodWords) || containsAny(title, seafoodWords)
	hasDairy := containsAny(ingredients, dairyWords)
	hasEgg := containsAny(ingredients, eggWords)
	hasGluten := containsAny(ingredients, glutenWords)

	switch {
	case !hasMeat && !hasSeafood:
		tags = append(tags, "vegetarian", "pescatarian")
		if !hasDairy && !hasEgg && !containsAny(ingredients, animalOther) {
			tags = append(tags, "vegan")
		}
	case !hasMeat:
		tags = append(tags, "pescatarian")
	}
	if !hasGluten {
		tags = append(tags, "gluten-free")
	}
	if !hasDairy {
		tags = append(tags, "dairy-free")
	}
	if isQuick(instructions) {
		tags = append(tags, "quick")
	}

	for _, course := range []struct {
		tag   string
		words []string
	}{
		{"dessert", dessertWords},
		{"breakfast", breakfastWords},
		{"soup", soupWords},
		{"salad", saladWords},
	} {
		if containsAny(title, course.words) {
			tags = append(tags, course.tag)
		}
	}

	return tags
}

// isQuick treats short methods as quick: few steps and little text.
func isQuick(instructions []string) bool {
	if len(instructions) == 0 || len(instructions) > 5 {
		return false
	}
	words := 0
	for _, step := range instructions {
		words += len(strings.Fields(step))
	}
	return words <= 120
}

// normalize lower-cases text and reduces it to space separated words with a
// leading and trailing space so whole-word checks are plain substring tests.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

func stripExceptions(text string) string {
	for _, phrase := range plantExceptions {
		for _, form := range []string{" " + phrase + " ", " " + phrase + "s "} {
			for strings.Contains(text, form) {
				text = strings.ReplaceAll(text, form, " ")
			}
		}
	}
	return text
}

// hasWord matches a keyword or its simple plural as whole words
func hasWord(text, kw string) bool {
	return strings.Contains(text, " "+kw+" ") ||
		strings.Contains(text, " "+kw+"s ") ||
		strings.Contains(text, " "+kw+"es ")
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if hasWord(text, kw) {
			return true
		}
	}
	return false
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if hasWord(text, kw) {
			n++
		}
	}
	return n
}
