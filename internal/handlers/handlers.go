package handlers

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/mess"
)

// MessHandler serves the attendance and billing API.
type MessHandler struct {
	svc         *mess.Service
	authHandler *auth.AuthHandler
	dateCookie  string
}

func NewMessHandler(svc *mess.Service, authHandler *auth.AuthHandler, dateCookie string) *MessHandler {
	if dateCookie == "" {
		dateCookie = "clientDate"
	}
	return &MessHandler{svc: svc, authHandler: authHandler, dateCookie: dateCookie}
}

// DatedInput is embedded by requests whose meaning depends on "today".
type DatedInput struct {
	auth.AuthInput
	ClientDate string `query:"clientDate" doc:"The caller's local date, e.g. 2025-03-09. Overrides the date cookie and the server clock."`
}

func (h *MessHandler) hints(in DatedInput) calendar.Hints {
	return calendar.Hints{
		ClientDate: in.ClientDate,
		Cookie:     auth.CookieValue(in.Cookie, h.dateCookie),
	}
}

// respond maps a failed result onto the matching HTTP error.
func respond[T any](r failure.Result[T]) (T, error) {
	f := r.Failure()
	if f == nil {
		return r.Value(), nil
	}
	var zero T
	switch f.Kind {
	case failure.KindValidation:
		return zero, huma.Error400BadRequest(f.Message)
	case failure.KindNotFound:
		return zero, huma.Error404NotFound(f.Message)
	case failure.KindConflict:
		return zero, huma.Error409Conflict(f.Message)
	default:
		return zero, huma.Error500InternalServerError(f.Message)
	}
}
