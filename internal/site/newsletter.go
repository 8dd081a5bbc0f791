package site

import (
	"context"

	"kemdeholo/internal/domain"
)

const (
	MsgNewsletterFailed = "Une erreur est survenue. Veuillez réessayer."

	classNewsletterOK  = "mb-8 text-green-300 max-w-xl mx-auto"
	classNewsletterErr = "mb-8 text-red-500 max-w-xl mx-auto"
)

// initNewsletter binds #newsletter-form. The outcome follows the HTTP status:
// 2xx shows the message and publishes a subscribers signal, any other status
// shows the server's error, a transport failure shows the generic message.
func (p *Page) initNewsletter() func(context.Context) error {
	form := p.byID("newsletter-form")
	if form == nil {
		return nil
	}
	p.on(form, "submit", func(*event) {
		input := p.byID("newsletter-email")
		msgP := p.byID("newsletter-message")
		email := p.value(input)

		p.spawn(func(ctx context.Context) {
			res, err := p.src.Subscribe(ctx, email)

			var signal *domain.Signal
			p.mu.Lock()
			switch {
			case err != nil:
				p.log.Error().Err(err).Msg("newsletter subscription failed")
				p.setStatusText(msgP, MsgNewsletterFailed, classNewsletterErr)
			case res.OK():
				p.setStatusText(msgP, res.Message, classNewsletterOK)
				if input != nil {
					p.setValue(input, "")
				}
				s := domain.NewSignal(domain.EventSubscribers, p.now())
				signal = &s
			default:
				msg := res.Error
				if msg == "" {
					msg = res.Message
				}
				if msg == "" {
					msg = MsgNewsletterFailed
				}
				p.setStatusText(msgP, msg, classNewsletterErr)
			}
			p.mu.Unlock()

			if signal != nil && p.signals != nil {
				if err := p.signals.Publish(ctx, *signal); err != nil {
					p.log.Warn().Err(err).Msg("publish refresh signal failed")
				}
			}
		})
	})
	return nil
}
