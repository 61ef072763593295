package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
)

func TestEventsStream(t *testing.T) {
	srv, _ := setupServer(t, true)
	ts := httptest.NewServer(srv.srv.Handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.Type != eventSession || ev.Session == nil || ev.Session.Set != route.SetUnauthenticated {
			t.Fatalf("first event = %+v", ev)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", sc.Err())
}

func TestWebSocketStream(t *testing.T) {
	srv, _ := setupServer(t, true)
	b := newBrowser(t, srv)
	b.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "dev@studio.test"})

	ts := httptest.NewServer(srv.srv.Handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + ts.URL[len("http"):] + "/api/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Cookie": {b.cookie.Name + "=" + b.cookie.Value}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	read := func() StreamEvent {
		t.Helper()
		_, msg, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev StreamEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	}

	if ev := read(); ev.Type != eventSession || ev.Session.Snapshot.EmailPending == nil {
		t.Fatalf("first event = %+v", ev)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"action":"paste","value":"4242"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	sawOTP := false
	for {
		ev := read()
		if ev.Type == eventOTP && ev.OTP.Complete {
			sawOTP = true
		}
		if ev.Type == eventSession && ev.Session.Set == route.SetAuthenticated {
			break
		}
	}
	if !sawOTP {
		t.Fatal("authenticated before the completed code was pushed")
	}
	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestWebSocketOrigin(t *testing.T) {
	srv, _ := setupServer(t, true)
	b := newBrowser(t, srv)
	b.session()

	ts := httptest.NewServer(srv.srv.Handler)
	defer ts.Close()
	wsURL := "ws" + ts.URL[len("http"):] + "/api/ws"

	tests := []struct {
		origin string
		wantOK bool
	}{
		{origin: "http://localhost:5173", wantOK: true},
		{origin: "https://evil.example", wantOK: false},
	}
	for _, tt := range tests {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
			HTTPHeader: http.Header{
				"Cookie": {b.cookie.Name + "=" + b.cookie.Value},
				"Origin": {tt.origin},
			},
		})
		if (err == nil) != tt.wantOK {
			t.Errorf("origin %s: dial err = %v, want ok=%v", tt.origin, err, tt.wantOK)
		}
		if conn != nil {
			conn.CloseNow()
		}
		cancel()
	}
}

func TestOriginHosts(t *testing.T) {
	got := originHosts([]string{"http://localhost:5173", "https://studio.example", "*.studio.example"})
	want := []string{"localhost:5173", "studio.example", "*.studio.example"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("originHosts = %v, want %v", got, want)
	}
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>studio</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hackathon-1.jpg"), []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := handleSPA(dir)
	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/home", http.StatusOK, "studio"},
		{"/hackathon/1", http.StatusOK, "studio"},
		{"/hackathon-1.jpg", http.StatusOK, "jpg"},
		{"/api/nope", http.StatusNotFound, `"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus || !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
			}
		})
	}
}
