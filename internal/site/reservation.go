package site

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"kemdeholo/internal/domain"
)

const (
	MsgArrivalInPast = "La date d'arrivée ne peut pas être dans le passé. Veuillez choisir une date valide."

	roomPlaceholder = `<option value="">Sélectionnez un type de chambre</option>`
	roomLoadFailed  = `<option value="" disabled>Erreur de chargement</option>`
)

func (p *Page) initReservations() func(context.Context) error {
	modal := p.byID("reservation-modal")
	books := ByClass(p.doc, "btn-book-room")
	closeBtn := p.byID("close-reservation-modal-btn")
	if modal == nil || len(books) == 0 || closeBtn == nil {
		return nil
	}
	arrival := p.byID("arrival-date")
	departure := p.byID("departure-date")
	roomSelect := p.byID("room-type-select")

	closeModal := func() {
		AddClass(modal, "hidden")
		RemoveClass(modal, "flex")
	}
	for _, b := range books {
		p.on(b, "click", func(ev *event) {
			RemoveClass(modal, "hidden")
			AddClass(modal, "flex")
			if rt := attrOr(ev.current, "data-room-type", ""); rt != "" && roomSelect != nil {
				p.setValue(roomSelect, rt)
			}
		})
	}
	p.on(closeBtn, "click", func(*event) { closeModal() })

	if arrival != nil && departure != nil {
		SetAttr(arrival, "min", domain.Today(p.now(), p.loc).Format(domain.DayLayout))
		p.on(arrival, "change", func(*event) {
			a := p.value(arrival)
			if a == "" {
				return
			}
			SetAttr(departure, "min", a)
			p.setValue(departure, domain.ClampDeparture(a, p.value(departure)))
		})
	}

	if form := p.byID("reservation-form"); form != nil {
		p.on(form, "submit", func(*event) {
			if p.arrivalInPast(arrival) {
				p.alert(MsgArrivalInPast)
				return
			}
			fields := p.formData(form)
			p.spawn(func(ctx context.Context) {
				res, err := p.src.SubmitReservation(ctx, fields)

				p.mu.Lock()
				defer p.mu.Unlock()
				if err == nil && res.OK() {
					p.alert(res.Message)
					p.resetForm(form)
					if roomSelect != nil {
						p.setValue(roomSelect, "")
					}
					closeModal()
					return
				}
				msg := msgSubmitFailed
				if err != nil {
					p.log.Error().Err(err).Msg("reservation submission failed")
				} else if res.Error != "" {
					msg = res.Error
				}
				p.alert("Erreur: " + msg)
			})
		})
	}

	if roomSelect == nil {
		return nil
	}
	return func(ctx context.Context) error {
		rooms, err := p.src.Rooms(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.setHTML(roomSelect, roomLoadFailed)
			return err
		}
		var b strings.Builder
		b.WriteString(roomPlaceholder)
		for _, r := range rooms {
			v := html.EscapeString(r.Type)
			b.WriteString(`<option value="` + v + `">` + v + `</option>`)
		}
		p.setHTML(roomSelect, b.String())
		return nil
	}
}

// arrivalInPast compares the chosen day with today at midnight. An empty or
// malformed date is left for the server to reject.
func (p *Page) arrivalInPast(arrival *html.Node) bool {
	if arrival == nil {
		return false
	}
	day, err := domain.ParseDay(p.value(arrival), p.loc)
	if err != nil {
		return false
	}
	return domain.ArrivalInPast(day, p.now(), p.loc)
}
