package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/agent"
	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/catalog"
	"github.com/pageza/souschef/backend/internal/metrics"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

const (
	// MaxSearchResults caps every search response
	MaxSearchResults = 3

	searchCacheTTL    = 30 * time.Minute
	searchCachePrefix = "search"
	imageLookupBudget = 15 * time.Second
)

// SearchService runs natural language recipe searches through the agent
type SearchService struct {
	agent RecipeAgent
	redis *redis.Client
	log   *zap.Logger
}

var _ ISearchService = (*SearchService)(nil)

func NewSearchService(a RecipeAgent, redisClient *redis.Client, log *zap.Logger) *SearchService {
	return &SearchService{
		agent: a,
		redis: redisClient,
		log:   log.Named("search"),
	}
}

// Search returns at most MaxSearchResults recipes for query
func (s *SearchService) Search(ctx context.Context, prefs models.Preferences, query string) ([]types.Recipe, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	key := searchCacheKey(query, prefs)
	if cached, ok := s.cached(ctx, key); ok {
		return cached, nil
	}

	text, err := s.agent.Search(ctx, BuildSearchPrompt(query, prefs))
	if err != nil {
		if errors.Is(err, agent.ErrNotConfigured) {
			return nil, apperrors.New(apperrors.CodeServiceUnavailable, "recipe search is not configured", "")
		}
		s.log.Error("agent search failed", zap.String("query", query), zap.Error(err))
		return nil, apperrors.NewExternalServiceError("recipe agent", err)
	}

	parsed := agent.ParseRecipes(text)
	allergies := models.Preferences{Allergies: prefs.Allergies}
	results := make([]types.Recipe, 0, MaxSearchResults)
	for i := range parsed {
		r := parsed[i]
		catalog.Tag(&r)
		if !catalog.Allowed(&r, allergies) {
			continue
		}
		results = append(results, r)
		if len(results) == MaxSearchResults {
			break
		}
	}

	s.log.Info("agent search complete",
		zap.String("query", query),
		zap.Int("parsed", len(parsed)),
		zap.Int("returned", len(results)))

	s.enrichImages(ctx, results)
	s.store(ctx, key, results)
	return results, nil
}

// enrichImages fills in missing images from the recipe page. Lookups run
// concurrently and a failure leaves the image empty.
func (s *SearchService) enrichImages(ctx context.Context, recipes []types.Recipe) {
	ctx, cancel := context.WithTimeout(ctx, imageLookupBudget)
	defer cancel()

	var wg sync.WaitGroup
	for i := range recipes {
		if recipes[i].ImageURL != "" || recipes[i].SourceURL == "" {
			continue
		}
		wg.Add(1)
		go func(r *types.Recipe) {
			defer wg.Done()
			img, err := s.agent.ExtractImage(ctx, r.SourceURL)
			if err != nil {
				if !errors.Is(err, agent.ErrNotConfigured) {
					s.log.Warn("image extraction failed", zap.String("url", r.SourceURL), zap.Error(err))
				}
				return
			}
			r.ImageURL = img
		}(&recipes[i])
	}
	wg.Wait()
}

func (s *SearchService) cached(ctx context.Context, key string) ([]types.Recipe, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("search cache read failed", zap.Error(err))
		}
		metrics.CacheOperations.WithLabelValues("search", "miss").Inc()
		return nil, false
	}

	var recipes []types.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		s.log.Warn("discarding corrupt search cache entry", zap.String("key", key), zap.Error(err))
		metrics.CacheOperations.WithLabelValues("search", "miss").Inc()
		return nil, false
	}
	metrics.CacheOperations.WithLabelValues("search", "hit").Inc()
	if len(recipes) > MaxSearchResults {
		recipes = recipes[:MaxSearchResults]
	}
	return recipes, true
}

func (s *SearchService) store(ctx context.Context, key string, recipes []types.Recipe) {
	if s.redis == nil || len(recipes) == 0 {
		return
	}
	data, err := json.Marshal(recipes)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, searchCacheTTL).Err(); err != nil {
		s.log.Warn("search cache write failed", zap.Error(err))
	}
}

func searchCacheKey(query string, prefs models.Preferences) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(query)))
	for _, part := range [][]string{prefs.Dietary, prefs.Cuisine, prefs.Allergies} {
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(part, ",")))
	}
	return fmt.Sprintf("%s:%s", searchCachePrefix, hex.EncodeToString(h.Sum(nil)))
}

// BuildSearchPrompt augments the user's query with their preferences and
// the answer format the parser understands best
func BuildSearchPrompt(query string, prefs models.Preferences) string {
	var b strings.Builder
	b.WriteString("Find real recipes from the web for: ")
	b.WriteString(query)
	b.WriteString(".")
	if len(prefs.Dietary) > 0 {
		fmt.Fprintf(&b, " Dietary preferences: %s.", strings.Join(prefs.Dietary, ", "))
	}
	if len(prefs.Cuisine) > 0 {
		fmt.Fprintf(&b, " Preferred cuisines: %s.", strings.Join(prefs.Cuisine, ", "))
	}
	if len(prefs.Allergies) > 0 {
		fmt.Fprintf(&b, " Must not contain: %s.", strings.Join(prefs.Allergies, ", "))
	}
	fmt.Fprintf(&b, " Return at most %d recipes as a JSON array of objects with title, description, ingredients, instructions, source_url and image_url.", MaxSearchResults)
	return b.String()
}
