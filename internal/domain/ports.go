package domain

import "context"

type ContentRepository interface {
	// Write paths
	InsertTestimonial(ctx context.Context, t Testimonial) (int64, error)
	InsertReservation(ctx context.Context, r Reservation) (int64, error)
	InsertSubscriber(ctx context.Context, s Subscriber) (int64, error)

	// Read paths
	ListTestimonials(ctx context.Context, q TestimonialsQuery) ([]Testimonial, error)
	ListRooms(ctx context.Context) ([]Room, error)
	ListArticles(ctx context.Context, limit int) ([]Article, error)
	GetArticle(ctx context.Context, id int64) (Article, error)
}

type InscriptionRepository interface {
	CreateInscription(ctx context.Context, in *CourseInscription) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type SignalPublisher interface {
	Publish(ctx context.Context, s Signal) error
}

type SignalSubscriber interface {
	// Subscribe streams signals until ctx is done; the channel is closed then.
	Subscribe(ctx context.Context) (<-chan Signal, error)
}

type TestimonialsQuery struct {
	Category *string
	Limit    int
}
