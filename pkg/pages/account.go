package pages

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/logging"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
)

const (
	msgLoginFailed     = "Login failed"
	msgRegisterFailed  = "Something went wrong"
	msgRegistered      = "Account created. Please log in."
	msgLoggedOut       = "You have been logged out."
	msgSessionNotSaved = "Could not start your session. Please try again."
)

// Home handles GET /. Signed-in buyers and sellers never reach it; the guard
// forwards them to their dashboard.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageHome, view{})
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLogin, view{Title: "Login", Data: loginForm{}})
}

// Login handles POST /login. On success the token and user are stored and the
// browser goes to the role's dashboard. On failure the session is untouched
// and the form re-renders with the backend's message.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := parseLoginForm(r)
	if err != nil {
		h.loginFailed(w, r, form, userMessage(err, msgLoginFailed))
		return
	}

	resp, err := h.backend.Login(r.Context(), models.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		h.logger.Debug("Login failed", zap.String("error", logging.SanitizeError(err)))
		h.auditor.LogLoginFailure(r.Context(), form.Email, api.StatusCode(err), r.RemoteAddr)
		h.loginFailed(w, r, form, api.Message(err, msgLoginFailed))
		return
	}

	if err := h.sessions.Set(w, r, resp.User, resp.Token); err != nil {
		h.logger.Error("Failed to store session", zap.Error(err))
		h.loginFailed(w, r, form, msgSessionNotSaved)
		return
	}

	h.logger.Debug("User logged in", zap.Int64("user_id", resp.User.ID), zap.String("role", string(resp.User.Role)))
	http.Redirect(w, r, resp.User.Role.DashboardPath(), http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, form loginForm, message string) {
	form.Password = ""
	h.render(w, r, http.StatusUnprocessableEntity, pageLogin, view{Title: "Login", Error: message, Data: form})
}

// RegisterPage handles GET /register.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageRegister, view{Title: "Register", Data: newRegisterForm()})
}

// Register handles POST /register. Only 201 Created counts as success.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := parseRegisterForm(r)
	if err != nil {
		h.auditInput(r, "register", err)
		h.registerFailed(w, r, form, userMessage(err, msgRegisterFailed))
		return
	}

	if err := h.backend.Register(r.Context(), form.request()); err != nil {
		h.logger.Info("Registration failed",
			zap.String("email", form.Email),
			zap.String("error", logging.SanitizeError(err)))
		h.registerFailed(w, r, form, api.Message(err, msgRegisterFailed))
		return
	}

	h.noticeAndRedirect(w, r, msgRegistered, auth.LoginPath)
}

func (h *Handler) registerFailed(w http.ResponseWriter, r *http.Request, form registerForm, message string) {
	form.Password = ""
	h.render(w, r, http.StatusUnprocessableEntity, pageRegister, view{Title: "Register", Error: message, Data: form})
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
	}
	h.flash(w, r, session.FlashNotice, msgLoggedOut)
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}
