// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/mix/internal/audit"
	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/authz"
	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/models"
	"github.com/tomtom215/mix/internal/store"
	ws "github.com/tomtom215/mix/internal/websocket"
)

const (
	testAdminUser     = "root"
	testAdminPassword = "correct horse battery staple"
)

type publishedEvent struct {
	topic   string
	payload interface{}
}

// recordingPublisher captures events instead of sending them to a bus.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, payload: payload})
	return nil
}

// byTopic returns every payload published on topic, oldest first.
func (p *recordingPublisher) byTopic(topic string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []interface{}
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

type testServer struct {
	t         *testing.T
	cfg       *config.Config
	handler   *Handler
	mux       http.Handler
	store     *store.Memory
	sessions  *auth.MemorySessionStore
	publisher *recordingPublisher
	hub       *ws.Hub
	jwt       *auth.JWTManager
	audit     *audit.MemoryStore
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Environment: config.EnvDevelopment,
			StaticDir:   t.TempDir(),
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitDisabled: true,
		},
		Auth: config.AuthConfig{
			AdminUsername: testAdminUser,
			AdminPassword: testAdminPassword,
			AdminRole:     authz.RoleAdmin,
		},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig(t)
	for _, fn := range mutate {
		fn(cfg)
	}

	signer, err := auth.NewCookieSigner(auth.CookieConfig{
		Secret:     []byte("api-test-session-secret-0123456789"),
		Production: cfg.IsProduction(),
	})
	if err != nil {
		t.Fatal(err)
	}
	sessionStore := auth.NewMemorySessionStore()
	sessions := auth.NewSessionManager(sessionStore, signer, time.Hour)

	jwtManager, err := auth.NewJWTManager("api-test-jwt-secret-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	admin, err := auth.NewAdminAuthenticator(testAdminUser, testAdminPassword, authz.RoleAdmin, bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	enforcer, err := authz.NewEnforcer(authz.Config{})
	if err != nil {
		t.Fatal(err)
	}

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)

	auditStore := audit.NewMemoryStore(0)
	trail := audit.NewLogger(auditStore, audit.DefaultConfig())
	go func() { _ = trail.Serve(ctx) }()

	mem := store.NewMemory()
	pub := &recordingPublisher{}
	h := NewHandler(Dependencies{
		Config:    cfg,
		Store:     mem,
		Sessions:  sessions,
		Admin:     admin,
		JWT:       jwtManager,
		Publisher: pub,
		Hub:       hub,
		Audit:     trail,
	})

	return &testServer{
		t:         t,
		cfg:       cfg,
		handler:   h,
		mux:       NewRouter(h, enforcer).SetupChi(),
		store:     mem,
		sessions:  sessionStore,
		publisher: pub,
		hub:       hub,
		jwt:       jwtManager,
		audit:     auditStore,
	}
}

type requestOption func(*http.Request)

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) {
		if c != nil {
			r.AddCookie(c)
		}
	}
}

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (ts *testServer) do(method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

// envelope is models.APIResponse with Data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	env := decodeEnvelope(t, rec, nil)
	if env.Status != "error" || env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", auth.DefaultCookieName)
	return nil
}

// signIn signs in with phone and returns the cookie and user id.
func (ts *testServer) signIn(phone string) (*http.Cookie, string) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/phone", models.PhoneLoginRequest{PhoneNumber: phone})
	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
		ts.t.Fatalf("sign in %s: status %d body %s", phone, rec.Code, rec.Body.String())
	}
	var user models.User
	decodeEnvelope(ts.t, rec, &user)
	return sessionCookie(ts.t, rec), user.ID
}

func testProfile(name string) models.ProfileUpdate {
	return models.ProfileUpdate{
		Name:         name,
		BirthDate:    "1994-04-20",
		Gender:       "woman",
		InterestedIn: "everyone",
		Bio:          "Here for the dumplings.",
		Photos:       []string{"https://cdn.example.com/" + name + ".jpg"},
		Interests:    []string{"hiking"},
	}
}

// onboardedUser signs in and completes the profile.
func (ts *testServer) onboardedUser(phone, name string) (*http.Cookie, string) {
	ts.t.Helper()
	cookie, id := ts.signIn(phone)
	rec := ts.do(http.MethodPut, "/api/profile", testProfile(name), withCookie(cookie))
	expectStatus(ts.t, rec, http.StatusOK)
	return cookie, id
}

// matchedPair returns two onboarded users who liked each other and their
// match id.
func (ts *testServer) matchedPair() (a, b *http.Cookie, aID, bID, matchID string) {
	ts.t.Helper()
	a, aID = ts.onboardedUser("+14155550101", "ana")
	b, bID = ts.onboardedUser("+14155550102", "bea")

	rec := ts.do(http.MethodPost, "/api/discover/swipe", models.SwipeRequest{TargetUserID: bID, Action: models.SwipeLike}, withCookie(a))
	expectStatus(ts.t, rec, http.StatusOK)
	rec = ts.do(http.MethodPost, "/api/discover/swipe", models.SwipeRequest{TargetUserID: aID, Action: models.SwipeSuperlike}, withCookie(b))
	expectStatus(ts.t, rec, http.StatusOK)

	var res models.SwipeResult
	decodeEnvelope(ts.t, rec, &res)
	if !res.Matched || res.Match == nil {
		ts.t.Fatalf("expected match, got %+v", res)
	}
	return a, b, aID, bID, res.Match.ID
}

func (ts *testServer) adminToken() string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/admin/login", models.AdminLoginRequest{Username: testAdminUser, Password: testAdminPassword})
	expectStatus(ts.t, rec, http.StatusOK)
	var resp models.AdminLoginResponse
	decodeEnvelope(ts.t, rec, &resp)
	return resp.Token
}
