package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

const (
	seenKeyPrefix = "foryou:seen"
	seenTTL       = 6 * time.Hour
	maxPageSize   = 30
)

// SeenStore remembers which recipes a session has already been shown
type SeenStore interface {
	Seen(ctx context.Context, key string) (map[string]struct{}, error)
	// Claim marks ids as seen and returns only those that were not seen before.
	Claim(ctx context.Context, key string, ids []string) ([]string, error)
	Reset(ctx context.Context, key string) error
}

// RedisSeenStore keeps one Redis set per user session
type RedisSeenStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSeenStore(client *redis.Client) *RedisSeenStore {
	return &RedisSeenStore{redis: client, ttl: seenTTL}
}

func (s *RedisSeenStore) Seen(ctx context.Context, key string) (map[string]struct{}, error) {
	members, err := s.redis.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m] = struct{}{}
	}
	return seen, nil
}

func (s *RedisSeenStore) Claim(ctx context.Context, key string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pipe := s.redis.TxPipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.SAdd(ctx, key, id)
	}
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	claimed := make([]string, 0, len(ids))
	for i, cmd := range cmds {
		// Zero means a concurrent request for the same session got there first
		if cmd.Val() == 1 {
			claimed = append(claimed, ids[i])
		}
	}
	return claimed, nil
}

func (s *RedisSeenStore) Reset(ctx context.Context, key string) error {
	return s.redis.Del(ctx, key).Err()
}

// Recommender pages through the catalog for a user without repeating a
// recipe within a session.
type Recommender struct {
	catalog *Catalog
	seen    SeenStore
}

func NewRecommender(c *Catalog, seen SeenStore) *Recommender {
	return &Recommender{catalog: c, seen: seen}
}

// ForYouRequest identifies the caller's session and the ids the client already holds
type ForYouRequest struct {
	UserID    string
	SessionID string
	PageSize  int
	Exclude   []string
	Refresh   bool
}

type ranked struct {
	idx   int
	score int
	tie   uint64
}

// ForYou returns the next page of recommendations. Every returned id is
// recorded as seen for the session before it is returned. Ids are claimed in
// batches; if a later batch fails the ids already claimed are returned as a
// short page with HasMore set, so nothing is marked seen without being shown.
func (r *Recommender) ForYou(ctx context.Context, req ForYouRequest, prefs models.Preferences) (types.RecipePage, error) {
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	key := fmt.Sprintf("%s:%s:%s", seenKeyPrefix, req.UserID, req.SessionID)

	if req.Refresh {
		if err := r.seen.Reset(ctx, key); err != nil {
			return types.RecipePage{}, fmt.Errorf("reset seen set: %w", err)
		}
	}

	seen, err := r.seen.Seen(ctx, key)
	if err != nil {
		return types.RecipePage{}, fmt.Errorf("load seen set: %w", err)
	}
	for _, id := range req.Exclude {
		seen[id] = struct{}{}
	}

	candidates := make([]ranked, 0, r.catalog.Len())
	for i := range r.catalog.recipes {
		rec := &r.catalog.recipes[i]
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		if !Allowed(rec, prefs) {
			continue
		}
		candidates = append(candidates, ranked{
			idx:   i,
			score: Score(rec, prefs),
			tie:   tieBreak(req.SessionID, rec.ID),
		})
	}

	// Ties shuffle per session so a new session sees a different order
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].tie < candidates[j].tie
	})

	page := types.RecipePage{Recipes: []types.Recipe{}, Total: len(candidates)}
	next := 0
	for len(page.Recipes) < req.PageSize && next < len(candidates) {
		end := next + (req.PageSize - len(page.Recipes))
		if end > len(candidates) {
			end = len(candidates)
		}
		ids := make([]string, 0, end-next)
		for _, c := range candidates[next:end] {
			ids = append(ids, r.catalog.recipes[c.idx].ID)
		}
		claimed, err := r.seen.Claim(ctx, key, ids)
		if err != nil {
			if len(page.Recipes) > 0 {
				page.HasMore = true
				return page, nil
			}
			return types.RecipePage{}, fmt.Errorf("record seen ids: %w", err)
		}
		for _, id := range claimed {
			rec, _ := r.catalog.Get(id)
			page.Recipes = append(page.Recipes, rec)
		}
		next = end
	}
	page.HasMore = next < len(candidates)
	return page, nil
}

func tieBreak(session, id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(session))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return h.Sum64()
}
