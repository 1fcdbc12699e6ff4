// Package catalog serves the bundled recipe dataset: heuristic tagging,
// keyword search and preference ranked "For You" pages.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

//go:embed data/recipes.json
var bundled []byte

// DatasetRecipe is one entry of the dataset file written by souschefctl convert-csv
type DatasetRecipe struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageName    string   `json:"image_name,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Cuisine      string   `json:"cuisine,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Catalog is an immutable, tagged view of the dataset
type Catalog struct {
	recipes []types.Recipe
	byID    map[string]int
}

// Load reads the dataset from path, or the bundled copy when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(strings.NewReader(string(bundled)))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a dataset and tags every recipe
func Parse(r io.Reader) (*Catalog, error) {
	var entries []DatasetRecipe
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(entries)
}

// New builds a catalog from decoded dataset entries
func New(entries []DatasetRecipe) (*Catalog, error) {
	c := &Catalog{
		recipes: make([]types.Recipe, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Title) == "" || len(e.Ingredients) == 0 {
			continue
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("cat-%d", i+1)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", id)
		}
		e.ID = id
		rec := e.toRecipe()
		Tag(&rec)
		c.byID[id] = len(c.recipes)
		c.recipes = append(c.recipes, rec)
	}
	return c, nil
}

func (e DatasetRecipe) toRecipe() types.Recipe {
	return types.Recipe{
		ID:           e.ID,
		Source:       models.SourceCatalog,
		Title:        strings.TrimSpace(e.Title),
		Cuisine:      e.Cuisine,
		Tags:         e.Tags,
		Ingredients:  e.Ingredients,
		Instructions: e.Instructions,
		ImageURL:     e.ImageURL,
	}
}

// Len returns the number of recipes
func (c *Catalog) Len() int { return len(c.recipes) }

// Get returns a recipe by id
func (c *Catalog) Get(id string) (types.Recipe, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Recipe{}, false
	}
	return c.recipes[i], true
}

// Filter narrows a listing
type Filter struct {
	Query   string
	Cuisine string
	Tag     string
	Offset  int
	Limit   int
}

// List returns recipes matching the filter. With a query, results are
// ordered by keyword score; otherwise by dataset order.
func (c *Catalog) List(f Filter) types.RecipePage {
	if f.Limit <= 0 || f.Limit > 50 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	terms := queryTerms(f.Query)
	cuisine := strings.ToLower(strings.TrimSpace(f.Cuisine))
	tag := strings.ToLower(strings.TrimSpace(f.Tag))

	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i := range c.recipes {
		r := &c.recipes[i]
		if cuisine != "" && r.Cuisine != cuisine {
			continue
		}
		if tag != "" && !hasTag(r, tag) {
			continue
		}
		score := 0
		if len(terms) > 0 {
			score = KeywordScore(r, terms)
			if score == 0 {
				continue
			}
		}
		hits = append(hits, hit{i, score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	page := types.RecipePage{Total: len(hits), Recipes: []types.Recipe{}}
	if f.Offset >= len(hits) {
		return page
	}
	end := f.Offset + f.Limit
	if end > len(hits) {
		end = len(hits)
	}
	for _, h := range hits[f.Offset:end] {
		page.Recipes = append(page.Recipes, c.recipes[h.idx])
	}
	page.HasMore = end < len(hits)
	return page
}

// Cuisines lists the distinct cuisines present
func (c *Catalog) Cuisines() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range c.recipes {
		if _, ok := seen[r.Cuisine]; !ok {
			seen[r.Cuisine] = struct{}{}
			out = append(out, r.Cuisine)
		}
	}
	sort.Strings(out)
	return out
}

func hasTag(r *types.Recipe, tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
