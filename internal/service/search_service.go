package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/repository"
)

const popularSearchesCacheKey = "searches:popular"

// ErrQueryRequired indicates an empty search query.
var ErrQueryRequired = errors.New("search query is required")

// SearchService records queries and ranks the most frequent ones.
type SearchService interface {
	Record(ctx context.Context, userID uint, query string) error
	Popular(ctx context.Context) ([]dto.PopularSearch, error)
}

type searchService struct {
	repo     repository.SearchRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewSearchService builds the search service. cache may be nil.
func NewSearchService(repo repository.SearchRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) SearchService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &searchService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "search_service").Logger(),
	}
}

func (s *searchService) Record(ctx context.Context, userID uint, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrQueryRequired
	}

	if err := s.repo.Record(ctx, userID, query); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, popularSearchesCacheKey).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate popular searches cache")
		}
	}
	return nil
}

func (s *searchService) Popular(ctx context.Context) ([]dto.PopularSearch, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, popularSearchesCacheKey).Result(); err == nil {
			var items []dto.PopularSearch
			if unmarshalErr := json.Unmarshal([]byte(cached), &items); unmarshalErr == nil {
				s.logger.Debug().Msg("popular searches cache hit")
				return items, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read popular searches cache")
		}
	}

	rows, err := s.repo.Popular(ctx, repository.PopularSearchLimit)
	if err != nil {
		return nil, err
	}
	items := dto.NewPopularSearchSlice(rows)

	if s.cache != nil {
		payload, err := json.Marshal(items)
		if err == nil {
			if err := s.cache.Set(ctx, popularSearchesCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store popular searches cache")
			}
		}
	}

	return items, nil
}
