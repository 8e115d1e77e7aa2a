package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
)

// mockStore is an in-memory session.Store for a single browser.
type mockStore struct {
	sess    session.Session
	flashes []session.Flash
	getErr  error
	cleared bool
}

func (m *mockStore) Get(r *http.Request) (*session.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.sess
	return &s, nil
}

func (m *mockStore) Set(w http.ResponseWriter, r *http.Request, user models.User, token string) error {
	m.sess = session.Session{Token: token, User: &user}
	return nil
}

func (m *mockStore) Clear(w http.ResponseWriter, r *http.Request) error {
	m.sess = session.Session{}
	m.cleared = true
	return nil
}

func (m *mockStore) AddFlash(w http.ResponseWriter, r *http.Request, kind session.FlashKind, message string) error {
	m.flashes = append(m.flashes, session.Flash{Kind: kind, Message: message})
	return nil
}

func (m *mockStore) Flashes(w http.ResponseWriter, r *http.Request) ([]session.Flash, error) {
	out := m.flashes
	m.flashes = nil
	return out, nil
}

// mockInspector returns a fixed result for every token.
type mockInspector struct {
	claims *Claims
	err    error
}

func (m *mockInspector) Inspect(ctx context.Context, token string) (*Claims, error) {
	return m.claims, m.err
}

func (m *mockInspector) Close() {}

func signedIn(role models.Role) *mockStore {
	return &mockStore{sess: session.Session{
		Token: "tok",
		User:  &models.User{ID: 9, Name: "Pat", Role: role},
	}}
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/buyer/dashboard", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestGuard_RequireRole_Unauthenticated(t *testing.T) {
	tests := []struct {
		name  string
		store *mockStore
	}{
		{name: "empty session", store: &mockStore{}},
		{name: "token without user", store: &mockStore{sess: session.Session{Token: "tok"}}},
		{name: "user without token", store: &mockStore{sess: session.Session{User: &models.User{ID: 1, Role: models.RoleBuyer}}}},
		{name: "unreadable session", store: &mockStore{getErr: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(tt.store, nil, zap.NewNop())
			rec := serve(guard.RequireRole(models.RoleBuyer, func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		})
	}
}

func TestGuard_RequireRole_WrongRole(t *testing.T) {
	tests := []struct {
		required models.Role
		actual   models.Role
		message  string
	}{
		{required: models.RoleBuyer, actual: models.RoleSeller, message: "Only buyers can access this page."},
		{required: models.RoleSeller, actual: models.RoleBuyer, message: "Only sellers can access this page."},
	}

	for _, tt := range tests {
		t.Run(string(tt.required), func(t *testing.T) {
			store := signedIn(tt.actual)
			guard := NewGuard(store, nil, zap.NewNop())

			rec := serve(guard.RequireRole(tt.required, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("restricted content"))
			}))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, HomePath, rec.Header().Get("Location"))
			assert.NotContains(t, rec.Body.String(), "restricted content")
			assert.Equal(t, []session.Flash{{Kind: session.FlashAlert, Message: tt.message}}, store.flashes)
			assert.False(t, store.cleared, "wrong role must not sign the user out")
		})
	}
}

func TestGuard_RequireRole_Authorized(t *testing.T) {
	store := signedIn(models.RoleBuyer)
	guard := NewGuard(store, &mockInspector{}, zap.NewNop())

	var gotUser *models.User
	var gotToken string
	rec := serve(guard.RequireRole(models.RoleBuyer, func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		gotToken, _ = api.TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, gotUser) {
		assert.Equal(t, int64(9), gotUser.ID)
	}
	assert.Equal(t, "tok", gotToken)
}

func TestGuard_RequireSession_AnyRole(t *testing.T) {
	for _, role := range models.ValidRoles {
		t.Run(string(role), func(t *testing.T) {
			guard := NewGuard(signedIn(role), nil, zap.NewNop())

			called := false
			rec := serve(guard.RequireSession(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			assert.True(t, called)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestGuard_ExpiredTokenEndsSession(t *testing.T) {
	for _, inspectErr := range []error{ErrTokenExpired, errors.New("bad signature")} {
		t.Run(inspectErr.Error(), func(t *testing.T) {
			store := signedIn(models.RoleBuyer)
			guard := NewGuard(store, &mockInspector{err: inspectErr}, zap.NewNop())

			rec := serve(guard.RequireRole(models.RoleBuyer, func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, LoginPath, rec.Header().Get("Location"))
			assert.True(t, store.cleared)
			assert.Equal(t, []session.Flash{{Kind: session.FlashAlert, Message: SessionExpiredMessage}}, store.flashes)
		})
	}
}

func TestGuard_ClaimsMustMatchSessionUser(t *testing.T) {
	tests := []struct {
		name      string
		claims    *Claims
		wantEnded bool
	}{
		{name: "opaque token", claims: nil},
		{name: "matching id and role", claims: &Claims{UserID: 9, Role: "buyer"}},
		{name: "no id or role claims", claims: &Claims{}},
		{name: "other user", claims: &Claims{UserID: 10, Role: "BUYER"}, wantEnded: true},
		{name: "other role", claims: &Claims{UserID: 9, Role: "SELLER"}, wantEnded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := signedIn(models.RoleBuyer)
			guard := NewGuard(store, &mockInspector{claims: tt.claims}, zap.NewNop())

			called := false
			rec := serve(guard.RequireRole(models.RoleBuyer, func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			if !tt.wantEnded {
				assert.True(t, called)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.False(t, store.cleared)
				return
			}
			assert.False(t, called)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, LoginPath, rec.Header().Get("Location"))
			assert.True(t, store.cleared)
			assert.Equal(t, []session.Flash{{Kind: session.FlashAlert, Message: SessionExpiredMessage}}, store.flashes)
		})
	}
}

func TestGuard_RedirectAuthenticated(t *testing.T) {
	tests := []struct {
		name         string
		store        *mockStore
		wantLocation string
	}{
		{name: "buyer goes to dashboard", store: signedIn(models.RoleBuyer), wantLocation: "/buyer/dashboard"},
		{name: "seller goes to dashboard", store: signedIn(models.RoleSeller), wantLocation: "/seller/dashboard"},
		{name: "other role sees page", store: signedIn(models.Role("ADMIN"))},
		{name: "signed out sees page", store: &mockStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(tt.store, nil, zap.NewNop())
			rec := serve(guard.RedirectAuthenticated(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			if tt.wantLocation == "" {
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestGuard_RedirectAuthenticated_ExpiredToken(t *testing.T) {
	store := signedIn(models.RoleSeller)
	guard := NewGuard(store, &mockInspector{err: ErrTokenExpired}, zap.NewNop())

	rec := serve(guard.RedirectAuthenticated(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.True(t, store.cleared)
}

func TestWrongRoleMessage(t *testing.T) {
	assert.Equal(t, "Only buyers can access this page.", WrongRoleMessage(models.RoleBuyer))
	assert.Equal(t, "Only sellers can access this page.", WrongRoleMessage(models.RoleSeller))
}
