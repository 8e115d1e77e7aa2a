package pages

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
	"github.com/bidzilla/bidzilla-web/ui"
)

// backendCall is one request seen by the fake marketplace backend.
type backendCall struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
	Form   *multipart.Form
}

// fakeBackend is an httptest marketplace backend that records every request.
// Unrouted requests answer 404.
type fakeBackend struct {
	server *httptest.Server
	mu     sync.Mutex
	calls  []backendCall
	routes map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{routes: make(map[string]http.HandlerFunc)}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	call := backendCall{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			call.Form = r.MultipartForm
		}
	} else {
		call.Body, _ = io.ReadAll(r.Body)
	}

	b.mu.Lock()
	b.calls = append(b.calls, call)
	handler, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	handler(w, r)
}

// on answers method+path with a fixed status and JSON body.
func (b *fakeBackend) on(method, path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, status, body)
	}
}

// onText answers method+path with a fixed status and a plain-text body.
func (b *fakeBackend) onText(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// requests returns the recorded calls matching method and path.
func (b *fakeBackend) requests(method, path string) []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backendCall
	for _, c := range b.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// total returns the number of recorded calls.
func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// testApp is the full page stack wired to a fake backend, plus a browser
// that keeps cookies and does not follow redirects.
type testApp struct {
	t       *testing.T
	backend *fakeBackend
	server  *httptest.Server
	browser *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	backend := newFakeBackend(t)

	client, err := api.NewClient(backend.server.URL+"/api", zap.NewNop())
	require.NoError(t, err)

	store := session.NewManager(
		session.NewCookieStore("test-secret", session.CookieSettings{}, 3600),
		"bidzilla_session", zap.NewNop())
	guard := auth.NewGuard(store, nil, zap.NewNop())

	views, err := NewRenderer(ui.FS())
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(client, store, guard, views, zap.NewNop()).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:       t,
		backend: backend,
		server:  server,
		browser: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// page is a response as the browser saw it.
type page struct {
	Status   int
	Location string
	Body     string
}

func (a *testApp) do(req *http.Request) page {
	a.t.Helper()
	resp, err := a.browser.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return page{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Body: string(body)}
}

func (a *testApp) get(path string) page {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

func (a *testApp) post(path string, values url.Values) page {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(values.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

// postFile submits a multipart form. An empty fileName submits the file
// input with nothing selected, as a browser does.
func (a *testApp) postFile(path string, fields map[string]string, fileName, content string) page {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(a.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req)
}

// follow issues a GET for the redirect target of p.
func (a *testApp) follow(p page) page {
	a.t.Helper()
	require.Equal(a.t, http.StatusSeeOther, p.Status, "expected a redirect")
	return a.get(p.Location)
}

var (
	testBuyer  = models.User{ID: 1, Name: "Bea Buyer", Email: "bea@example.com", Role: models.RoleBuyer}
	testSeller = models.User{ID: 2, Name: "Sam Seller", Email: "sam@example.com", Role: models.RoleSeller}
)

// signIn logs the browser in as user through the login page.
func (a *testApp) signIn(user models.User) {
	a.t.Helper()
	a.backend.on(http.MethodPost, "/api/auth/login", http.StatusOK,
		models.LoginResponse{Token: "token-" + user.Email, User: user})

	p := a.post("/login", url.Values{"email": {user.Email}, "password": {"secret"}})
	require.Equal(a.t, http.StatusSeeOther, p.Status)
	require.Equal(a.t, user.Role.DashboardPath(), p.Location)
}

func int64Ptr(v int64) *int64 { return &v }
