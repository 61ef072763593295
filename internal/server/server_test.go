package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/catalog"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/config"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/database"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/events"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity/otp"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/migrations"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/slots"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/wizard"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func setupServer(t *testing.T, devMode bool) (*Server, *captureMailer) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	cat := catalog.NewStore(db)
	if err := catalog.Seed(ctx, cat, logger); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	authCfg := config.AuthConfig{
		DevMode:     devMode,
		DevFakeOTP:  "4242",
		CodeLength:  4,
		CodeTTL:     10 * time.Minute,
		MaxAttempts: 5,
		SessionTTL:  time.Hour,
		JWTSecret:   "test-secret",
	}
	mail := &captureMailer{codes: make(map[string]string)}
	pub := events.NewLog(logger)

	deps := Deps{
		Slots:     slots.NewSQLiteStore(db),
		Identity:  otp.New(db, authCfg, mail, otp.NewMemorySessions(), pub, logger),
		Catalog:   cat,
		Submitter: wizard.NewEventSubmitter(pub),
		Auth:      auth.Config{DevMode: devMode, DevCode: authCfg.DevFakeOTP, CodeLength: authCfg.CodeLength},
	}
	srv := New(Options{Addr: ":0", CORSOrigins: []string{"http://localhost:5173"}}, deps, logger, nil)
	t.Cleanup(srv.clients.Close)
	return srv, mail
}

// browser carries the client cookie between requests like a browser tab.
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func newBrowser(t *testing.T, srv *Server) *browser {
	return &browser{t: t, h: srv.srv.Handler}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			b.t.Fatal(err)
		}
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == clientCookieName {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) session() SessionResponse {
	b.t.Helper()
	rec := b.do(http.MethodGet, "/api/session", nil)
	if rec.Code != http.StatusOK {
		b.t.Fatalf("GET /api/session status = %d", rec.Code)
	}
	return decode[SessionResponse](b.t, rec)
}

// signInDev signs the browser in through the dev-mode code path.
func (b *browser) signInDev() {
	b.t.Helper()
	if rec := b.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "dev@studio.test"}); rec.Code != http.StatusOK {
		b.t.Fatalf("signin status = %d: %s", rec.Code, rec.Body.String())
	}
	rec := b.do(http.MethodPost, "/api/auth/verify", VerifyRequest{Code: "9876"})
	if rec.Code != http.StatusOK {
		b.t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	if set := decode[AuthStepResponse](b.t, rec).Session.Set; set != route.SetAuthenticated {
		b.t.Fatalf("verify answered with set %q", set)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}
