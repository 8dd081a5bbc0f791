package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"kemdeholo/internal/adapters/observability"
	"kemdeholo/internal/domain"
)

const (
	MsgTestimonialPending   = "Merci pour votre témoignage ! Il sera publié après validation."
	MsgTestimonialPublished = "Merci pour votre témoignage !"
	MsgReservation          = "Votre demande de réservation a bien été envoyée. Nous vous contacterons rapidement."
	MsgSubscribed           = "Merci pour votre inscription à la newsletter !"
	MsgAlreadySubscribed    = "Cet email est déjà inscrit à la newsletter."
	MsgInscription          = "Votre inscription à la formation a bien été enregistrée."
	MsgArrivalInPast        = "La date d'arrivée ne peut pas être dans le passé."
	MsgDepartureBeforeStay  = "La date de départ doit être postérieure ou égale à la date d'arrivée."
	MsgGeneric              = "Une erreur est survenue."
)

type SubmissionService struct {
	repo         domain.ContentRepository
	inscriptions domain.InscriptionRepository
	cache        domain.Cache
	signals      domain.SignalPublisher
	loc          *time.Location
	now          func() time.Time
	autoApprove  bool
}

type SubmissionOption func(*SubmissionService)

func WithClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

func WithAutoApprove(on bool) SubmissionOption {
	return func(s *SubmissionService) { s.autoApprove = on }
}

func NewSubmissionService(
	r domain.ContentRepository,
	ins domain.InscriptionRepository,
	cache domain.Cache,
	sig domain.SignalPublisher,
	loc *time.Location,
	opts ...SubmissionOption,
) *SubmissionService {
	if loc == nil {
		loc = time.UTC
	}
	s := &SubmissionService{repo: r, inscriptions: ins, cache: cache, signals: sig, loc: loc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *SubmissionService) CreateTestimonial(ctx context.Context, req TestimonialRequest) (string, error) {
	req.Name = plainText(req.Name)
	req.Quote = plainText(req.Quote)
	req.Category = strings.ToLower(plainText(req.Category))
	if err := req.Validate(); err != nil {
		observability.ObserveSubmission("testimonial", "invalid")
		return "", validationErr(err)
	}

	t := domain.Testimonial{
		Name:     req.Name,
		Quote:    req.Quote,
		Rating:   int(req.Rating),
		Approved: s.autoApprove,
	}
	if req.Category != "" {
		c := req.Category
		t.Category = &c
	}
	if _, err := s.repo.InsertTestimonial(ctx, t); err != nil {
		observability.ObserveSubmission("testimonial", "error")
		return "", fmt.Errorf("insert testimonial: %w", err)
	}
	observability.ObserveSubmission("testimonial", "ok")

	if !s.autoApprove {
		return MsgTestimonialPending, nil
	}
	// Published right away: drop the listings that should now include it.
	_ = s.cache.Del(ctx, testimonialsKey(""))
	if req.Category != "" {
		_ = s.cache.Del(ctx, testimonialsKey(req.Category))
	}
	return MsgTestimonialPublished, nil
}

func (s *SubmissionService) CreateReservation(ctx context.Context, req ReservationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		observability.ObserveSubmission("reservation", "invalid")
		return "", validationErr(err)
	}
	arrival, _ := domain.ParseDay(req.get("arrival_date"), s.loc)
	departure, _ := domain.ParseDay(req.get("departure_date"), s.loc)
	if domain.ArrivalInPast(arrival, s.now(), s.loc) {
		observability.ObserveSubmission("reservation", "invalid")
		return "", domain.Invalid(MsgArrivalInPast)
	}
	if departure.Before(arrival) {
		observability.ObserveSubmission("reservation", "invalid")
		return "", domain.Invalid(MsgDepartureBeforeStay)
	}

	rv := domain.Reservation{
		Name:          plainText(req.get("name")),
		Email:         req.get("email"),
		RoomType:      req.get("room_type"),
		ArrivalDate:   arrival,
		DepartureDate: departure,
		Raw:           map[string]string(req),
	}
	if p := req.get("phone"); p != "" {
		rv.Phone = &p
	}
	if g := req.get("guests"); g != "" {
		n, _ := strconv.Atoi(g)
		rv.Guests = &n
	}
	if m := plainText(req.get("message")); m != "" {
		rv.Message = &m
	}
	id, err := s.repo.InsertReservation(ctx, rv)
	if err != nil {
		observability.ObserveSubmission("reservation", "error")
		return "", fmt.Errorf("insert reservation: %w", err)
	}
	observability.ObserveSubmission("reservation", "ok")
	log.Info().Int64("id", id).Str("room", rv.RoomType).
		Str("arrival", arrival.Format(domain.DayLayout)).Msg("reservation received")
	return MsgReservation, nil
}

// Subscribe stores the address and tells listening admin views to refresh.
func (s *SubmissionService) Subscribe(ctx context.Context, req SubscribeRequest) (string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		observability.ObserveSubmission("subscribe", "invalid")
		return "", validationErr(err)
	}
	if _, err := s.repo.InsertSubscriber(ctx, domain.Subscriber{Email: req.Email}); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			observability.ObserveSubmission("subscribe", "duplicate")
			return "", domain.ErrDuplicate
		}
		observability.ObserveSubmission("subscribe", "error")
		return "", fmt.Errorf("insert subscriber: %w", err)
	}
	observability.ObserveSubmission("subscribe", "ok")

	if s.signals != nil {
		if err := s.signals.Publish(ctx, domain.NewSignal(domain.EventSubscribers, s.now())); err != nil {
			// the subscription itself succeeded
			log.Warn().Err(err).Msg("publish refresh signal failed")
		}
	}
	return MsgSubscribed, nil
}

func (s *SubmissionService) CreateInscription(ctx context.Context, req InscriptionRequest) (string, error) {
	req.Nom = plainText(req.Nom)
	req.Email = strings.TrimSpace(req.Email)
	req.Telephone = strings.TrimSpace(req.Telephone)
	req.Formation = plainText(req.Formation)
	if err := req.Validate(); err != nil {
		observability.ObserveSubmission("inscription", "invalid")
		return "", validationErr(err)
	}
	in := &domain.CourseInscription{
		Name:       req.Nom,
		Email:      req.Email,
		Phone:      req.Telephone,
		CourseName: req.Formation,
	}
	if err := s.inscriptions.CreateInscription(ctx, in); err != nil {
		observability.ObserveSubmission("inscription", "error")
		return "", fmt.Errorf("create inscription: %w", err)
	}
	observability.ObserveSubmission("inscription", "ok")
	return MsgInscription, nil
}
