package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/souschef/backend/internal/types"
)

func loadBundled(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load("")
	require.NoError(t, err)
	require.Greater(t, c.Len(), 20)
	return c
}

func TestTag(t *testing.T) {
	tests := []struct {
		name      string
		recipe    types.Recipe
		cuisine   string
		hasTags   []string
		lacksTags []string
	}{
		{
			name: "vegan tacos",
			recipe: types.Recipe{
				Title:        "Black Bean Tacos",
				Ingredients:  []string{"1 can black beans", "8 corn tortillas", "1 avocado", "salsa", "cilantro", "1 tsp cumin", "1 jalapeno"},
				Instructions: []string{"Warm the beans.", "Char the tortillas.", "Fill and serve."},
			},
			cuisine:   "mexican",
			hasTags:   []string{"vegan", "vegetarian", "gluten-free", "dairy-free", "quick"},
			lacksTags: []string{"dessert"},
		},
		{
			name: "burger",
			recipe: types.Recipe{
				Title:        "Classic Beef Burger",
				Ingredients:  []string{"1 lb ground beef", "4 brioche buns", "4 slices cheddar cheese"},
				Instructions: []string{"Grill.", "Assemble."},
			},
			cuisine:   "american",
			hasTags:   []string{"quick"},
			lacksTags: []string{"vegetarian", "vegan", "gluten-free", "dairy-free", "pescatarian"},
		},
		{
			name: "salmon",
			recipe: types.Recipe{
				Title:        "Miso Glazed Salmon",
				Ingredients:  []string{"4 salmon fillets", "3 tbsp white miso", "2 tbsp mirin", "1 tbsp soy sauce", "1 tbsp honey"},
				Instructions: []string{"Glaze.", "Broil."},
			},
			cuisine:   "japanese",
			hasTags:   []string{"pescatarian", "dairy-free"},
			lacksTags: []string{"vegetarian", "gluten-free"},
		},
		{
			name: "plant milk is not dairy",
			recipe: types.Recipe{
				Title:        "Overnight Oats",
				Ingredients:  []string{"rolled oats", "almond milk", "peanut butter"},
				Instructions: []string{"Stir and chill."},
			},
			cuisine: "international",
			hasTags: []string{"vegan", "dairy-free", "breakfast"},
		},
		{
			name: "eggplant is not egg",
			recipe: types.Recipe{
				Title:        "Roasted Eggplant",
				Ingredients:  []string{"2 eggplants", "olive oil"},
				Instructions: []string{"Roast."},
			},
			hasTags: []string{"vegan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.recipe
			Tag(&r)
			if tt.cuisine != "" {
				assert.Equal(t, tt.cuisine, r.Cuisine)
			}
			for _, tag := range tt.hasTags {
				assert.Contains(t, r.Tags, tag)
			}
			for _, tag := range tt.lacksTags {
				assert.NotContains(t, r.Tags, tag)
			}
		})
	}
}

func TestTagKeepsExplicitValues(t *testing.T) {
	r := types.Recipe{
		Title:       "House Special",
		Cuisine:     "fusion",
		Tags:        []string{" Spicy "},
		Ingredients: []string{"chicken"},
	}
	Tag(&r)
	assert.Equal(t, "fusion", r.Cuisine)
	assert.Contains(t, r.Tags, "spicy")
}

func TestLoadBundled(t *testing.T) {
	c := loadBundled(t)

	r, ok := c.Get("cat-1")
	require.True(t, ok)
	assert.Equal(t, "Spaghetti Aglio e Olio", r.Title)
	assert.Equal(t, "italian", r.Cuisine)
	assert.Equal(t, "catalog", r.Source)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	assert.Contains(t, c.Cuisines(), "thai")
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	_, err := Parse(strings.NewReader(`[
		{"id":"a","title":"One","ingredients":["x"]},
		{"id":"a","title":"Two","ingredients":["y"]}
	]`))
	assert.Error(t, err)
}

func TestParseSkipsIncompleteEntries(t *testing.T) {
	c, err := Parse(strings.NewReader(`[
		{"title":"","ingredients":["x"]},
		{"title":"No Ingredients"},
		{"title":"Toast","ingredients":["bread"]}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("cat-3")
	assert.True(t, ok)
}

func TestList(t *testing.T) {
	c := loadBundled(t)

	t.Run("keyword ranking", func(t *testing.T) {
		page := c.List(Filter{Query: "recipes with chickpeas"})
		require.NotEmpty(t, page.Recipes)
		assert.Equal(t, "Chickpea Shakshuka", page.Recipes[0].Title)
		for _, r := range page.Recipes {
			assert.Greater(t, KeywordScore(&r, []string{"chickpea"}), 0)
		}
	})

	t.Run("cuisine and tag filter", func(t *testing.T) {
		page := c.List(Filter{Cuisine: "Italian", Tag: "vegetarian"})
		require.NotEmpty(t, page.Recipes)
		for _, r := range page.Recipes {
			assert.Equal(t, "italian", r.Cuisine)
			assert.Contains(t, r.Tags, "vegetarian")
		}
	})

	t.Run("pagination", func(t *testing.T) {
		first := c.List(Filter{Limit: 10})
		second := c.List(Filter{Limit: 10, Offset: 10})
		assert.Len(t, first.Recipes, 10)
		assert.True(t, first.HasMore)
		assert.NotEqual(t, first.Recipes[0].ID, second.Recipes[0].ID)
		assert.Equal(t, c.Len(), first.Total)

		past := c.List(Filter{Offset: 1000})
		assert.Empty(t, past.Recipes)
		assert.False(t, past.HasMore)
	})

	t.Run("no match", func(t *testing.T) {
		page := c.List(Filter{Query: "unobtainium"})
		assert.Equal(t, 0, page.Total)
	})
}
