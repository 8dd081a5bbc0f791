package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kemdeholo/internal/domain"
)

const articlesListLimit = 100

type QueryService struct {
	repo     domain.ContentRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ContentRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func testimonialsKey(category string) string {
	if category == "" {
		return "testimonials:all"
	}
	return "testimonials:" + strings.ToLower(category)
}

const (
	roomsKey    = "rooms:all"
	articlesKey = "articles:all"
)

func articleKey(id int64) string { return fmt.Sprintf("article:%d", id) }

func (s *QueryService) Testimonials(ctx context.Context, category string) ([]domain.Testimonial, error) {
	category = strings.TrimSpace(category)
	key := testimonialsKey(category)
	var out []domain.Testimonial
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	q := domain.TestimonialsQuery{Limit: 50}
	if category != "" {
		q.Category = &category
	}
	ts, err := s.repo.ListTestimonials(ctx, q)
	if err != nil {
		return nil, err
	}
	ts = copyOf(ts)
	_ = s.cache.Set(ctx, key, ts, int(s.cacheTTL.Seconds()))
	return ts, nil
}

func (s *QueryService) Rooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	if ok, _ := s.cache.Get(ctx, roomsKey, &out); ok {
		return out, nil
	}
	rs, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rs = copyOf(rs)
	_ = s.cache.Set(ctx, roomsKey, rs, int(s.cacheTTL.Seconds()))
	return rs, nil
}

// Articles returns the newest articles first.
func (s *QueryService) Articles(ctx context.Context) ([]domain.Article, error) {
	var out []domain.Article
	if ok, _ := s.cache.Get(ctx, articlesKey, &out); ok {
		return out, nil
	}
	as, err := s.repo.ListArticles(ctx, articlesListLimit)
	if err != nil {
		return nil, err
	}
	as = copyOf(as)
	_ = s.cache.Set(ctx, articlesKey, as, int(s.cacheTTL.Seconds()))
	return as, nil
}

func (s *QueryService) Article(ctx context.Context, id int64) (domain.Article, error) {
	key := articleKey(id)
	var a domain.Article
	if ok, _ := s.cache.Get(ctx, key, &a); ok {
		return a, nil
	}
	a, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}
	_ = s.cache.Set(ctx, key, a, int(s.cacheTTL.Seconds()))
	return a, nil
}

// copyOf detaches the result from the repo's backing array before caching it.
func copyOf[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
