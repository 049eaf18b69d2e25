package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/and161185/gophauth/internal/codestore"
	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/metrics"
	"github.com/and161185/gophauth/internal/model"
	"github.com/and161185/gophauth/internal/service"
	"github.com/and161185/gophauth/internal/token"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type memClients map[int64]*model.Application

func (m memClients) GetByID(_ context.Context, id int64) (*model.Application, error) {
	a, ok := m[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

type memUsers struct {
	byLogin map[string]*model.User
}

func (m *memUsers) GetByLogin(_ context.Context, login string) (*model.User, error) {
	u, ok := m.byLogin[login]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetPasswordHash(_ context.Context, id int64) (string, error) {
	for _, u := range m.byLogin {
		if u.ID == id {
			return u.PasswordHash, nil
		}
	}
	return "", errs.ErrNotFound
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]model.Grant
}

func (m *memTokens) Save(_ context.Context, d []byte, g model.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[string(d)] = g
	return nil
}

func (m *memTokens) Get(_ context.Context, d []byte) (*model.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[string(d)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &g, nil
}

func (m *memTokens) Delete(_ context.Context, d []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, string(d))
	return nil
}

const (
	cbURI    = "https://app.example/cb"
	login    = "alice@example.com"
	password = "s3cret"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	users := &memUsers{byLogin: map[string]*model.User{login: {ID: 7, PasswordHash: string(hash)}}}
	iss, err := token.NewIssuer([]byte("test-secret"), users, &memTokens{rows: map[string]model.Grant{}})
	require.NoError(t, err)

	m := metrics.New()
	svc := service.NewOAuthService(service.Deps{
		Clients: memClients{1: {ID: 1, Name: "Example <App>", RedirectURI: cbURI}},
		Users:   users,
		Codes:   codestore.NewMemory(),
		Tokens:  iss,
		Metrics: m,
		Log:     zaptest.NewLogger(t),
	})
	return New(svc, zaptest.NewLogger(t), Options{Metrics: m})
}

func authorizeQuery(redirect, responseType string) string {
	q := url.Values{
		"client_id":     {"1"},
		"redirect_uri":  {redirect},
		"response_type": {responseType},
		"state":         {"st"},
	}
	return "/authorize?" + q.Encode()
}

func postForm(s http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.RemoteAddr = "192.0.2.10:40000"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, r)
	return rec
}

func exchangeForm(code string) url.Values {
	return url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {cbURI},
		"client_id":    {"1"},
	}
}

func TestFlow_AuthorizeExchangeRevoke(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := postForm(s, authorizeQuery(cbURI, "code"), url.Values{"login": {login}, "password": {password}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := rec.Body.String()
	require.Len(t, code, 40)

	rec = postForm(s, "/token", exchangeForm(code))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var resp service.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "user", resp.Scope)

	rec = postForm(s, "/token", exchangeForm(code))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Wrong or expired authorization code passed", decodeMessage(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/token/revoke", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Deleted access token", decodeMessage(t, rec))

	// A revoked token no longer passes RequireBearer, so a second HTTP revoke
	// is 401. Revoke itself succeeds every time it is called: see
	// TestValidateAndRevoke in internal/service and TestValidate_RevokedOrUnknown
	// in internal/token.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToken_ClientSecretOptional(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, secret := range []string{"", "anything"} {
		rec := postForm(s, authorizeQuery(cbURI, "code"), url.Values{"login": {login}, "password": {password}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		f := exchangeForm(rec.Body.String())
		if secret != "" {
			f.Set("client_secret", secret)
		}
		rec = postForm(s, "/token", f)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp service.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "user", resp.Scope)
	}
}

func TestAuthorizeForm_Renders(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, authorizeQuery(cbURI, "code"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	html := string(body)
	require.Contains(t, html, "Example &lt;App&gt;")
	require.Contains(t, html, `name="login"`)
	require.Contains(t, html, `action="/authorize?client_id=1`)
	require.Contains(t, html, "<code>user</code>")
}

func TestAuthorize_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	cases := []struct {
		name   string
		target string
		status int
		msg    string
	}{
		{"redirect mismatch", authorizeQuery("https://evil.example/cb", "code"), http.StatusBadRequest, "Bad redirect_uri passed"},
		{"implicit grant", authorizeQuery(cbURI, "token"), http.StatusNotImplemented, "response_type=token is not supported yet"},
		{"unknown client", strings.Replace(authorizeQuery(cbURI, "code"), "client_id=1", "client_id=9", 1), http.StatusNotFound, "Application not found in database"},
		{"missing client", "/authorize?redirect_uri=https://app.example/cb&response_type=code", http.StatusBadRequest, "client_id: missing"},
		{"empty scope", authorizeQuery(cbURI, "code") + "&scope=", http.StatusBadRequest, msgEmptyScope},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
		require.Equal(t, tc.status, rec.Code, tc.name)
		require.Equal(t, tc.msg, decodeMessage(t, rec), tc.name)
	}

	rec := postForm(s, authorizeQuery(cbURI, "code"), url.Values{"login": {login}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postForm(s, authorizeQuery("https://evil.example/cb", "code"), url.Values{"login": {login}, "password": {password}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToken_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	f := exchangeForm("0000")
	f.Set("grant_type", "refresh_token")
	rec := postForm(s, "/token", f)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	require.Equal(t, "grant_type=refresh_token is not supported yet", decodeMessage(t, rec))

	rec = postForm(s, authorizeQuery(cbURI, "code"), url.Values{"login": {login}, "password": {password}})
	require.Equal(t, http.StatusOK, rec.Code)
	f = exchangeForm(rec.Body.String())
	f.Set("redirect_uri", "https://other.example/cb")
	rec = postForm(s, "/token", f)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bad authorization code passed", decodeMessage(t, rec))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := postForm(s, "/token", exchangeForm("missing"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `gophauth_code_exchanges_total{outcome="missing"} 1`)
	require.Contains(t, rec.Body.String(), `gophauth_http_requests_total{code="401",route="/token"} 1`)
}
