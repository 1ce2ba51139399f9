package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/okuznet/zametki/web"
)

// parseTemplates loads the embedded page templates. Panics on a bad
// template, which is a programming error caught at startup.
func parseTemplates() *template.Template {
	return template.Must(template.ParseFS(web.Templates, "templates/*.html"))
}

func render(w http.ResponseWriter, tmpl *template.Template, logger *slog.Logger, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("render template", "template", name, "error", err)
	}
}
