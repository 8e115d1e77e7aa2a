// Package pages serves the marketplace's browser pages. Every page is a
// server-rendered template; every mutation is a form POST answered with a
// redirect to a page that re-reads the backend (Post/Redirect/Get).
package pages

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/apperrors"
	"github.com/bidzilla/bidzilla-web/pkg/audit"
	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
)

// Page template names.
const (
	pageHome            = "home"
	pageLogin           = "login"
	pageRegister        = "register"
	pageBuyerDashboard  = "buyer_dashboard"
	pageSellerDashboard = "seller_dashboard"
	pageProjects        = "projects"
	pageProjectNew      = "project_new"
	pageProjectDetail   = "project_detail"
)

// view is the data every template receives. Data holds the page's own fields.
type view struct {
	Title   string
	User    *models.User
	Flashes []session.Flash
	Error   string
	Data    any
}

// Handler serves the marketplace pages.
type Handler struct {
	backend  api.Marketplace
	sessions session.Store
	guard    *auth.Guard
	views    *Renderer
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewHandler creates the page handler.
func NewHandler(backend api.Marketplace, sessions session.Store, guard *auth.Guard, views *Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		backend:  backend,
		sessions: sessions,
		guard:    guard,
		views:    views,
		auditor:  audit.NewSecurityAuditor(logger),
		logger:   logger.Named("pages"),
	}
}

// RegisterRoutes registers every page and form action on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	buyer := func(next http.HandlerFunc) http.HandlerFunc { return h.guard.RequireRole(models.RoleBuyer, next) }
	seller := func(next http.HandlerFunc) http.HandlerFunc { return h.guard.RequireRole(models.RoleSeller, next) }

	mux.HandleFunc("GET /{$}", h.guard.RedirectAuthenticated(h.Home))
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterPage)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.HandleFunc("GET /buyer/dashboard", buyer(h.BuyerDashboard))
	mux.HandleFunc("GET /seller/dashboard", seller(h.SellerDashboard))
	mux.HandleFunc("POST /seller/dashboard/deliverables", seller(h.DashboardUpload))

	mux.HandleFunc("GET /projects", h.guard.RequireSession(h.Projects))
	mux.HandleFunc("GET /projects/new", buyer(h.NewProject))
	mux.HandleFunc("POST /projects", buyer(h.CreateProject))
	mux.HandleFunc("GET /projects/{id}", h.guard.RequireSession(h.ProjectDetail))
	mux.HandleFunc("POST /projects/{id}/bids", seller(h.SubmitBid))
	mux.HandleFunc("POST /projects/{id}/accept-bid", buyer(h.AcceptBid))
	mux.HandleFunc("POST /projects/{id}/deliverables", seller(h.UploadDeliverable))
	mux.HandleFunc("POST /projects/{id}/complete", buyer(h.MarkComplete))
}

// StaticHandler serves the stylesheet and other assets under /static/.
func StaticHandler(fsys fs.FS) (http.Handler, error) {
	static, err := fs.Sub(fsys, "static")
	if err != nil {
		return nil, err
	}
	return http.StripPrefix("/static/", http.FileServerFS(static)), nil
}

// render consumes pending flashes and writes the page. Flashes are read
// before any output because consuming them rewrites the session cookie.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	if v.User == nil {
		v.User = auth.UserFromContext(r.Context())
	}

	flashes, err := h.sessions.Flashes(w, r)
	if err != nil {
		h.logger.Warn("Failed to read flash messages", zap.Error(err))
	}
	v.Flashes = flashes

	var buf bytes.Buffer
	if err := h.views.Render(&buf, name, v); err != nil {
		h.logger.Error("Failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind session.FlashKind, message string) {
	if err := h.sessions.AddFlash(w, r, kind, message); err != nil {
		h.logger.Error("Failed to store flash message", zap.Error(err))
	}
}

// alertAndRedirect queues a failure alert and redirects.
func (h *Handler) alertAndRedirect(w http.ResponseWriter, r *http.Request, message, target string) {
	h.flash(w, r, session.FlashAlert, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// noticeAndRedirect queues a success acknowledgment and redirects.
func (h *Handler) noticeAndRedirect(w http.ResponseWriter, r *http.Request, message, target string) {
	h.flash(w, r, session.FlashNotice, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sessionRejected ends the session when the backend refused the token and
// reports whether it did. The response is complete in that case.
func (h *Handler) sessionRejected(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		return false
	}
	h.auditor.LogSessionRejected(r.Context(), r.URL.Path, r.RemoteAddr)
	h.guard.EndSession(w, r)
	return true
}

// projectID reads the {id} path value. An invalid id alerts and redirects home.
func (h *Handler) projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		h.alertAndRedirect(w, r, msgInvalidProjectID, auth.HomePath)
		return 0, false
	}
	return id, true
}

// auditInput records a submission refused for carrying markup.
func (h *Handler) auditInput(r *http.Request, form string, err error) {
	if errors.Is(err, errUnsafeInput) {
		h.auditor.LogMarkupRejected(r.Context(), audit.MarkupDetails{Form: form, Path: r.URL.Path}, r.RemoteAddr)
	}
}

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}
