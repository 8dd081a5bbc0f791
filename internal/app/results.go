package app

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"kemdeholo/internal/domain"
)

// ResultFor maps a command outcome onto what the visitor is shown.
func ResultFor(msg string, err error) domain.SubmitResult {
	if err == nil {
		return domain.SubmitResult{Status: http.StatusCreated, Message: msg}
	}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return domain.SubmitResult{Status: http.StatusBadRequest, Error: ve.Msg}
	case errors.Is(err, domain.ErrDuplicate):
		return domain.SubmitResult{Status: http.StatusConflict, Error: MsgAlreadySubscribed}
	case errors.Is(err, domain.ErrNotFound):
		return domain.SubmitResult{Status: http.StatusNotFound, Error: "Ressource introuvable."}
	default:
		log.Error().Err(err).Msg("submission failed")
		return domain.SubmitResult{Status: http.StatusInternalServerError, Error: MsgGeneric}
	}
}
