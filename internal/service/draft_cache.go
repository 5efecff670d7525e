package service

import (
	"context"
	"fmt"
	"time"

	"cicerp/internal/cache"
)

// DraftCacheService keeps in-progress contract edit payloads in redis so a
// half-filled form survives a reload. Drafts are UI convenience only; they
// never feed the totals computation or the approval workflow.
type DraftCacheService struct {
	Cache *cache.RedisStore
	TTL   time.Duration
}

func draftKey(contractID uint64, actorID string) string {
	return fmt.Sprintf("draft:contract:%d:%s", contractID, actorID)
}

func (s *DraftCacheService) Save(ctx context.Context, contractID uint64, actorID string, payload []byte) error {
	if s == nil || s.Cache == nil {
		return nil
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return s.Cache.Set(ctx, draftKey(contractID, actorID), payload, ttl)
}

func (s *DraftCacheService) Load(ctx context.Context, contractID uint64, actorID string) ([]byte, bool, error) {
	if s == nil || s.Cache == nil {
		return nil, false, nil
	}
	return s.Cache.Get(ctx, draftKey(contractID, actorID))
}

func (s *DraftCacheService) Delete(ctx context.Context, contractID uint64, actorID string) error {
	if s == nil || s.Cache == nil {
		return nil
	}
	return s.Cache.Delete(ctx, draftKey(contractID, actorID))
}
