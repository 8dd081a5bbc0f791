package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"kemdeholo/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu           sync.Mutex
	testimonials []domain.Testimonial
	rooms        []domain.Room
	articles     []domain.Article
	subscribers  map[string]bool
	reservations []domain.Reservation
	inserted     []domain.Testimonial
	listCalls    int
	err          error
}

func (f *fakeRepo) InsertTestimonial(ctx context.Context, t domain.Testimonial) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.inserted = append(f.inserted, t)
	return int64(len(f.inserted)), nil
}

func (f *fakeRepo) InsertReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.reservations = append(f.reservations, r)
	return int64(len(f.reservations)), nil
}

func (f *fakeRepo) InsertSubscriber(ctx context.Context, s domain.Subscriber) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribers == nil {
		f.subscribers = map[string]bool{}
	}
	if f.subscribers[s.Email] {
		return 0, domain.ErrDuplicate
	}
	f.subscribers[s.Email] = true
	return int64(len(f.subscribers)), nil
}

func (f *fakeRepo) ListTestimonials(ctx context.Context, q domain.TestimonialsQuery) ([]domain.Testimonial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Testimonial
	for _, t := range f.testimonials {
		if q.Category != nil && (t.Category == nil || *t.Category != *q.Category) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rooms, nil
}

func (f *fakeRepo) ListArticles(ctx context.Context, limit int) ([]domain.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func (f *fakeRepo) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrNotFound
}

type fakeInscriptions struct{ got []domain.CourseInscription }

func (f *fakeInscriptions) CreateInscription(ctx context.Context, in *domain.CourseInscription) error {
	in.ID = uint(len(f.got) + 1)
	f.got = append(f.got, *in)
	return nil
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type fakeSignals struct{ got []domain.Signal }

func (f *fakeSignals) Publish(ctx context.Context, s domain.Signal) error {
	f.got = append(f.got, s)
	return nil
}

func ptr[T any](v T) *T { return &v }
