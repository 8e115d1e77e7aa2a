package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/metrics"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
)

const (
	// LoginPath is where unauthenticated browsers are sent.
	LoginPath = "/login"
	// HomePath is where browsers with the wrong role are sent.
	HomePath = "/"

	// SessionExpiredMessage is flashed when an expired or rejected token ends the session.
	SessionExpiredMessage = "Your session has expired. Please log in again."
)

// WrongRoleMessage is the alert shown when a page requires another role,
// e.g. "Only buyers can access this page."
func WrongRoleMessage(role models.Role) string {
	return fmt.Sprintf("Only %s can access this page.", inflection.Plural(strings.ToLower(role.Label())))
}

// Guard decides, before any page renders, whether the browser may see it.
// It is thin and delegates storage to the session store.
type Guard struct {
	sessions  session.Store
	inspector TokenInspector
	logger    *zap.Logger
}

// NewGuard creates a guard. inspector may be nil to skip token inspection.
func NewGuard(sessions session.Store, inspector TokenInspector, logger *zap.Logger) *Guard {
	return &Guard{
		sessions:  sessions,
		inspector: inspector,
		logger:    logger.Named("guard"),
	}
}

// RequireSession lets any signed-in user through and redirects everyone
// else to the login page. The session is attached to the request context.
func (g *Guard) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(WithSession(r.Context(), sess)))
	}
}

// RequireRole is RequireSession plus a role check. A signed-in user with a
// different role gets an alert and is sent home; the page never renders.
func (g *Guard) RequireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := g.authenticate(w, r)
		if !ok {
			return
		}

		if sess.Role() != role {
			g.logger.Debug("Role mismatch",
				zap.String("path", r.URL.Path),
				zap.String("required", string(role)),
				zap.String("actual", string(sess.Role())))
			metrics.IncrementGuardRejection("wrong_role")
			g.flash(w, r, session.FlashAlert, WrongRoleMessage(role))
			http.Redirect(w, r, HomePath, http.StatusSeeOther)
			return
		}

		next(w, r.WithContext(WithSession(r.Context(), sess)))
	}
}

// RedirectAuthenticated forwards a signed-in buyer or seller to their
// dashboard. Everyone else sees the page.
func (g *Guard) RedirectAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.sessions.Get(r)
		if err != nil {
			g.logger.Warn("Failed to read session", zap.Error(err))
			next(w, r)
			return
		}

		if sess.Authenticated() && sess.Role().Valid() {
			if g.inspect(w, r, sess) {
				http.Redirect(w, r, sess.Role().DashboardPath(), http.StatusSeeOther)
			}
			return
		}

		next(w, r.WithContext(WithSession(r.Context(), sess)))
	}
}

// authenticate loads the session and redirects to login when it is missing,
// incomplete or carries an unusable token. The redirect is terminal.
func (g *Guard) authenticate(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := g.sessions.Get(r)
	if err != nil {
		g.logger.Warn("Failed to read session", zap.Error(err))
		sess = &session.Session{}
	}

	if !sess.Authenticated() {
		metrics.IncrementGuardRejection("unauthenticated")
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return nil, false
	}

	if !g.inspect(w, r, sess) {
		return nil, false
	}
	return sess, true
}

// inspect checks the stored token. A rejected token clears the session and
// redirects to login with an alert; it reports false in that case.
func (g *Guard) inspect(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if g.inspector == nil {
		return true
	}

	claims, err := g.inspector.Inspect(r.Context(), sess.Token)
	if err == nil {
		if claimsMatch(claims, sess.User) {
			return true
		}
		g.logger.Warn("Session token does not belong to the session user",
			zap.Int64("user_id", sess.User.ID),
			zap.Int64("claims_user_id", claims.UserID),
			zap.String("claims_role", claims.Role))
		metrics.IncrementGuardRejection("mismatch")
		g.EndSession(w, r)
		return false
	}

	if errors.Is(err, ErrTokenExpired) {
		g.logger.Debug("Session token expired", zap.Int64("user_id", sess.User.ID))
	} else {
		g.logger.Warn("Session token rejected", zap.Int64("user_id", sess.User.ID), zap.Error(err))
	}
	metrics.IncrementGuardRejection("expired")
	g.EndSession(w, r)
	return false
}

// claimsMatch reports whether the token's id and role claims, when present,
// agree with the stored user. Opaque tokens carry no claims and always match.
func claimsMatch(claims *Claims, user *models.User) bool {
	if claims == nil {
		return true
	}
	if claims.UserID != 0 && claims.UserID != user.ID {
		return false
	}
	role := claims.MarketplaceRole()
	return role == "" || role == user.Role
}

// EndSession clears the session and sends the browser to the login page with
// the expired-session alert. Used when the backend answers 401.
func (g *Guard) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := g.sessions.Clear(w, r); err != nil {
		g.logger.Error("Failed to clear session", zap.Error(err))
	}
	g.flash(w, r, session.FlashAlert, SessionExpiredMessage)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (g *Guard) flash(w http.ResponseWriter, r *http.Request, kind session.FlashKind, message string) {
	if err := g.sessions.AddFlash(w, r, kind, message); err != nil {
		g.logger.Error("Failed to store flash message", zap.Error(err))
	}
}
