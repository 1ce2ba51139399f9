package handler

import (
	"html/template"
	"log/slog"
	"net/http"
)

type HomeHandler struct {
	templates *template.Template
	logger    *slog.Logger
}

func NewHomeHandler(logger *slog.Logger) *HomeHandler {
	return &HomeHandler{templates: parseTemplates(), logger: logger}
}

// Home renders the public landing page.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "home.html", nil)
}
