package service

import (
	"strings"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/souschef/backend/internal/types"
)

// GenerateEmbedding maps text to a 3 dimensional vector of letter count,
// vowel share and consonant share. It carries no semantics; it only gives
// favorites search a stable ordering by rough text shape. The saved_recipes
// embedding column is vector(3), so a real embedding model needs a
// migration that widens it.
func GenerateEmbedding(text string) pgvector.Vector {
	var letters, vowels float32
	for _, r := range strings.ToLower(text) {
		if r < 'a' || r > 'z' {
			continue
		}
		letters++
		if strings.ContainsRune("aeiou", r) {
			vowels++
		}
	}
	if letters == 0 {
		return pgvector.NewVector([]float32{0, 0, 0})
	}
	return pgvector.NewVector([]float32{letters, vowels / letters, (letters - vowels) / letters})
}

// RecipeEmbedding embeds the searchable text of a recipe
func RecipeEmbedding(r *types.Recipe) pgvector.Vector {
	parts := []string{r.Title, r.Cuisine, strings.Join(r.Tags, " "), strings.Join(r.Ingredients, " ")}
	return GenerateEmbedding(strings.Join(parts, " "))
}
