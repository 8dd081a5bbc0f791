package app

import (
	"context"
	"encoding/json"

	"kemdeholo/internal/domain"
)

// Local serves a page's data needs in-process, without an HTTP hop. The server
// uses it to render pages.
type Local struct {
	Q *QueryService
	C *SubmissionService
}

func (l Local) Testimonials(ctx context.Context, category string) ([]domain.Testimonial, error) {
	return l.Q.Testimonials(ctx, category)
}

func (l Local) Rooms(ctx context.Context) ([]domain.Room, error) { return l.Q.Rooms(ctx) }

func (l Local) Articles(ctx context.Context) ([]domain.Article, error) { return l.Q.Articles(ctx) }

func (l Local) Article(ctx context.Context, id int64) (domain.Article, error) {
	return l.Q.Article(ctx, id)
}

func (l Local) SubmitTestimonial(ctx context.Context, body map[string]any) (domain.SubmitResult, error) {
	var req TestimonialRequest
	if err := remarshal(body, &req); err != nil {
		return ResultFor("", err), nil
	}
	return ResultFor(l.C.CreateTestimonial(ctx, req)), nil
}

func (l Local) SubmitReservation(ctx context.Context, fields map[string]string) (domain.SubmitResult, error) {
	return ResultFor(l.C.CreateReservation(ctx, ReservationRequest(fields))), nil
}

func (l Local) Subscribe(ctx context.Context, email string) (domain.SubmitResult, error) {
	return ResultFor(l.C.Subscribe(ctx, SubscribeRequest{Email: email})), nil
}

// remarshal runs the body through the same JSON decoding the HTTP handler uses.
func remarshal(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		if domain.IsValidation(err) {
			return err
		}
		return domain.Invalid("requête invalide")
	}
	return nil
}
