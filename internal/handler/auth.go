package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/okuznet/zametki/internal/middleware"
	"github.com/okuznet/zametki/internal/store"
)

const (
	sessionMaxAge     = 30 * 24 * 60 * 60
	minPasswordLength = 6
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	templates    *template.Template
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		templates:    parseTemplates(),
		logger:       logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "login.html", map[string]any{
		"Error":    "",
		"Username": "",
		"Next":     r.URL.Query().Get("next"),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	fail := func(msg string) {
		render(w, h.templates, h.logger, "login.html", map[string]any{
			"Error":    msg,
			"Username": username,
			"Next":     next,
		})
	}

	if username == "" || password == "" {
		fail("Введите имя пользователя и пароль")
		return
	}

	user, err := h.userStore.Authenticate(username, password)
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		fail("Не удалось выполнить вход, попробуйте ещё раз")
		return
	}
	if user == nil {
		// Same message for unknown username and wrong password
		fail("Неверное имя пользователя или пароль")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		fail("Не удалось выполнить вход, попробуйте ещё раз")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, "signup.html", map[string]any{
		"Error":    "",
		"Username": "",
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(msg string) {
		render(w, h.templates, h.logger, "signup.html", map[string]any{
			"Error":    msg,
			"Username": username,
		})
	}

	if username == "" {
		fail("Введите имя пользователя")
		return
	}
	if len(password) < minPasswordLength {
		fail("Пароль должен быть не короче 6 символов")
		return
	}

	_, err := h.userStore.Create(username, password)
	if errors.Is(err, store.ErrUsernameTaken) {
		fail("Пользователь с таким именем уже существует")
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		fail("Не удалось зарегистрироваться, попробуйте ещё раз")
		return
	}

	http.Redirect(w, r, "/auth/login/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessionStore.DeleteByToken(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site: only rooted paths are
// honored, everything else falls back to the notes list.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/notes/"
}
