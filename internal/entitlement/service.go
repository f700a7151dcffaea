// Package entitlement implements the premium-entitlement service: the single
// authority for reading and writing a user's premium flag. Reads go through
// a short-TTL in-process cache; writes go to the store and invalidate the
// cache so the next read observes the new state immediately.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/majorload/majorload/internal/cache"
	"github.com/majorload/majorload/internal/metrics"
	"github.com/majorload/majorload/internal/model"
	"github.com/majorload/majorload/internal/repository"
)

const (
	// premiumKeyPrefix is the cache key prefix for premium flags.
	premiumKeyPrefix = "premium:"

	// DefaultPremiumTTL bounds how long a cached premium flag is trusted.
	DefaultPremiumTTL = 30 * time.Second
)

// Store is the persistence collaborator for entitlement state.
// It is implemented by *repository.Repository.
type Store interface {
	// GetUserPremium reads the premium flag for email.
	// Must return repository.ErrUserNotFound when no record exists.
	GetUserPremium(ctx context.Context, email string) (bool, error)

	// SetUserPremium upserts the premium flag for email and returns the
	// persisted record.
	SetUserPremium(ctx context.Context, email string, premium bool) (*model.User, error)
}

// Service reads and writes premium entitlement.
type Service struct {
	store   Store
	cache   *cache.Memory
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New creates an entitlement Service. The cache instance is owned by the
// caller (constructed at process start) so its lifecycle is explicit.
func New(store Store, memCache *cache.Memory, ttl time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if ttl <= 0 {
		ttl = DefaultPremiumTTL
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		store:   store,
		cache:   memCache,
		ttl:     ttl,
		logger:  logger,
		metrics: recorder,
	}
}

// IsPremium reports whether the user identified by email has paid-tier
// access. An empty email returns false without any lookup. A store read
// failure is logged and treated as false: absence of proof of premium is
// not-premium, so a transient outage reduces access rather than granting it.
func (s *Service) IsPremium(ctx context.Context, email string) bool {
	if email == "" {
		return false
	}

	loaded := false
	loader := func(ctx context.Context) (any, error) {
		loaded = true
		premium, err := s.store.GetUserPremium(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return false, nil
			}
			return nil, err
		}
		return premium, nil
	}

	value, err := s.cache.GetOrLoad(ctx, premiumKeyPrefix+email, s.ttl, loader)
	if err != nil {
		s.metrics.IncPremiumCacheMiss()
		s.logger.Warn("premium check failed, treating as not premium",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return false
	}

	if loaded {
		s.metrics.IncPremiumCacheMiss()
	} else {
		s.metrics.IncPremiumCacheHit()
	}

	premium, ok := value.(bool)
	return ok && premium
}

// SetPremium upserts the user's premium flag and invalidates the cached
// entry, so the next IsPremium call on this process observes the new value
// regardless of the TTL. Store failures propagate: swallowing a write error
// would silently deny paid entitlement.
//
// The store write and the invalidation are two separate steps. A crash
// between them leaves the cache stale for at most the TTL, which is an
// accepted bounded-staleness tradeoff.
func (s *Service) SetPremium(ctx context.Context, email string, premium bool) (*model.User, error) {
	user, err := s.store.SetUserPremium(ctx, email, premium)
	if err != nil {
		return nil, fmt.Errorf("set premium for %s: %w", email, err)
	}

	s.cache.Invalidate(premiumKeyPrefix + email)

	if premium {
		s.metrics.IncPremiumActivation()
	}

	s.logger.Info("premium entitlement updated",
		slog.String("email", email),
		slog.Bool("premium", premium),
	)

	return user, nil
}
