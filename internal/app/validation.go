package app

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/microcosm-cc/bluemonday"

	"kemdeholo/internal/domain"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{6,20}$`)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText strips any markup a visitor typed into a free-text field. The
// result is stored unescaped; escaping happens when it is rendered.
func plainText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(raw))))
}

// FlexInt accepts 4, "4" or null; radio groups post their value as a string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return domain.Invalid("rating: must be a number")
	}
	*f = FlexInt(n)
	return nil
}

type TestimonialRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quote    string  `json:"quote"`
	Rating   FlexInt `json:"rating"`
}

func (req *TestimonialRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Category, validation.Length(0, 64)),
		validation.Field(&req.Quote, validation.Required, validation.Length(5, 1000)),
		validation.Field(&req.Rating, validation.Required, validation.Min(FlexInt(1)), validation.Max(FlexInt(5))),
	)
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

func (req *SubscribeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type InscriptionRequest struct {
	Nom       string `json:"nom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Formation string `json:"formation"`
}

func (req *InscriptionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Nom, validation.Required, validation.Length(2, 255)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Telephone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&req.Formation, validation.Required, validation.Length(1, 255)),
	)
}

// ReservationRequest is the reservation form as posted: every field is a string.
type ReservationRequest map[string]string

func (r *ReservationRequest) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(ReservationRequest, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, _ := json.Marshal(t)
			out[k] = string(b)
		}
	}
	*r = out
	return nil
}

func (r ReservationRequest) get(k string) string { return strings.TrimSpace(r[k]) }

func (r ReservationRequest) Validate() error {
	name, email, room := r.get("name"), r.get("email"), r.get("room_type")
	arrival, departure := r.get("arrival_date"), r.get("departure_date")
	phone, guests := r.get("phone"), r.get("guests")
	return validation.Errors{
		"name":           validation.Validate(name, validation.Required, validation.Length(2, 255)),
		"email":          validation.Validate(email, validation.Required, is.Email),
		"room_type":      validation.Validate(room, validation.Required),
		"arrival_date":   validation.Validate(arrival, validation.Required, validation.Date(domain.DayLayout)),
		"departure_date": validation.Validate(departure, validation.Required, validation.Date(domain.DayLayout)),
		"phone":          validation.Validate(phone, validation.Match(phonePattern)),
		"guests":         validation.Validate(guests, is.Int),
	}.Filter()
}

// validationErr turns ozzo errors into a visitor-facing domain error.
func validationErr(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) {
		return err
	}
	return &domain.ValidationError{Msg: err.Error()}
}
