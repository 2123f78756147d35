package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"smartsacco/domain"
)

// CachedMemberRepository puts a CacheRepository in front of FindByID.
// Searches always go to the underlying repository.
type CachedMemberRepository struct {
	next   MemberRepository
	cache  CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedMemberRepository(next MemberRepository, cache CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedMemberRepository {
	return &CachedMemberRepository{next: next, cache: cache, ttl: ttl, logger: logger}
}

func memberCacheKey(id string) string {
	return "member:" + id
}

func (r *CachedMemberRepository) FindByID(ctx context.Context, id string) (domain.Member, error) {
	key := memberCacheKey(id)
	if raw, ok := r.cache.Get(ctx, key); ok {
		var m domain.Member
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return m, nil
		}
		r.logger.Warn("discarding undecodable cached member", zap.String("member_id", id))
	}

	m, err := r.next.FindByID(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}

	// Caching is best effort
	if raw, err := json.Marshal(m); err == nil {
		if err := r.cache.Set(ctx, key, string(raw), r.ttl); err != nil {
			r.logger.Warn("failed to cache member", zap.String("member_id", id), zap.Error(err))
		}
	}
	return m, nil
}

func (r *CachedMemberRepository) Search(ctx context.Context, query string) ([]domain.Member, error) {
	return r.next.Search(ctx, query)
}
