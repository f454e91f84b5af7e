package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"filehost/internal/domain"
	"filehost/web"
)

// Renderer executes the embedded HTML templates. Errors are surfaced to the
// user by passing a message into the same data map the form renders from,
// never through a separate channel or HTTP error status.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (re *Renderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := re.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
	}
}

// errorMessage maps a flow error to the single human-readable string shown
// on the re-rendered form.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return "Please fill in all required fields."
	case errors.Is(err, domain.ErrInvalidEmail):
		return "No account exists for that email address."
	case errors.Is(err, domain.ErrInvalidPassword):
		return "Incorrect password."
	case errors.Is(err, domain.ErrInvalid2FA):
		return "Invalid two-factor code."
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "The passwords do not match."
	case errors.Is(err, domain.ErrEmailInUse):
		return "That email address is already registered."
	case errors.Is(err, domain.ErrBanned):
		return "This account is banned."
	case errors.Is(err, domain.ErrInvalidSession):
		return "Invalid session data."
	default:
		return "Something went wrong. Please try again."
	}
}
