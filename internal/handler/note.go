package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/okuznet/zametki/internal/auth"
	"github.com/okuznet/zametki/internal/note"
	"github.com/okuznet/zametki/internal/slug"
	"github.com/okuznet/zametki/internal/websocket"
)

type NoteHandler struct {
	service   *note.Service
	hub       *websocket.Hub
	templates *template.Template
	logger    *slog.Logger
}

func NewNoteHandler(svc *note.Service, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		service:   svc,
		hub:       hub,
		templates: parseTemplates(),
		logger:    logger,
	}
}

func (h *NoteHandler) notify(userID int64, action, slugValue string) {
	if h.hub != nil {
		h.hub.Send(userID, websocket.NewMessage("note", action, slugValue))
	}
}

// List shows the caller's notes, oldest first.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list notes", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	render(w, h.templates, h.logger, "notes_list.html", map[string]any{
		"Notes":    notes,
		"Username": auth.Username(r.Context()),
	})
}

func (h *NoteHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "note_form.html", noteForm("Новая заметка", "/notes/add/", "", "", ""))
}

func (h *NoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	title := strings.TrimSpace(r.FormValue("title"))
	text := r.FormValue("text")
	slugValue := strings.TrimSpace(r.FormValue("slug"))

	form := noteForm("Новая заметка", "/notes/add/", title, text, slugValue)

	created, err := h.service.Create(userID, title, text, slugValue)
	if err != nil {
		h.renderFormError(w, form, err)
		return
	}

	h.notify(userID, "created", created.Slug)
	http.Redirect(w, r, "/notes/success/", http.StatusSeeOther)
}

func (h *NoteHandler) Success(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "success.html", nil)
}

func (h *NoteHandler) Detail(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Detail(auth.UserID(r.Context()), r.PathValue("slug"))
	if errors.Is(err, note.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("note detail", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	render(w, h.templates, h.logger, "note_detail.html", map[string]any{"Note": n})
}

func (h *NoteHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Detail(auth.UserID(r.Context()), r.PathValue("slug"))
	if errors.Is(err, note.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("note edit form", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	render(w, h.templates, h.logger, "note_form.html", noteForm("Редактирование заметки", "/notes/"+n.Slug+"/edit/", n.Title, n.Text, n.Slug))
}

func (h *NoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	slugValue := r.PathValue("slug")
	title := strings.TrimSpace(r.FormValue("title"))
	text := r.FormValue("text")
	newSlug := strings.TrimSpace(r.FormValue("slug"))

	form := noteForm("Редактирование заметки", "/notes/"+slugValue+"/edit/", title, text, newSlug)

	updated, err := h.service.Update(userID, slugValue, title, text, newSlug)
	if errors.Is(err, note.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.renderFormError(w, form, err)
		return
	}

	h.notify(userID, "updated", updated.Slug)
	http.Redirect(w, r, "/notes/success/", http.StatusSeeOther)
}

func (h *NoteHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Detail(auth.UserID(r.Context()), r.PathValue("slug"))
	if errors.Is(err, note.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("note delete confirm", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	render(w, h.templates, h.logger, "note_confirm_delete.html", map[string]any{"Note": n})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	slugValue := r.PathValue("slug")

	err := h.service.Delete(userID, slugValue)
	if errors.Is(err, note.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("delete note", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.notify(userID, "deleted", slugValue)
	http.Redirect(w, r, "/notes/success/", http.StatusSeeOther)
}

// noteForm builds the template data for the note form with every key set,
// so re-renders never leave a field half-populated.
func noteForm(pageTitle, action, title, text, slugValue string) map[string]any {
	return map[string]any{
		"PageTitle":  pageTitle,
		"Action":     action,
		"Title":      title,
		"Text":       text,
		"Slug":       slugValue,
		"TitleError": "",
		"SlugError":  "",
	}
}

// renderFormError re-renders the note form with the submitted values and the
// error attached to the right field. A duplicate slug is not an HTTP error:
// the page comes back 200 with the message on the slug field.
func (h *NoteHandler) renderFormError(w http.ResponseWriter, form map[string]any, err error) {
	var dup *slug.DuplicateError
	switch {
	case errors.As(err, &dup):
		form["SlugError"] = dup.Error()
	case errors.Is(err, note.ErrInvalidTitle):
		form["TitleError"] = "Заголовок обязателен и не длиннее 100 символов"
	case errors.Is(err, note.ErrInvalidSlug):
		form["SlugError"] = "Slug может содержать только латинские буквы, цифры, дефисы и подчёркивания (не длиннее 100 символов)"
	default:
		h.logger.Error("save note", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	render(w, h.templates, h.logger, "note_form.html", form)
}
