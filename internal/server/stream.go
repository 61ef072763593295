package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"nhooyr.io/websocket"
)

// originHosts turns the allowed CORS origins into websocket origin
// patterns, which match on host alone.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			hosts = append(hosts, o)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// handleStream pushes the client's events over a websocket. Messages sent
// by the peer are read as OTP input interactions, the same as
// POST /api/auth/otp. Cross-origin upgrades are refused unless the origin
// is one the SPA is served from.
func handleStream(broker *Broker, logger *slog.Logger, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		c := clientFrom(r)
		ch := broker.Subscribe(c.ID)
		defer broker.Unsubscribe(c.ID, ch)

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		go func() {
			defer cancel()
			for {
				_, msg, err := conn.Read(ctx)
				if err != nil {
					logger.Debug("websocket read ended", "client", c.ID, "error", err)
					return
				}
				var in OTPInputRequest
				if err := json.Unmarshal(msg, &in); err != nil {
					logger.Debug("ignoring malformed websocket message", "client", c.ID, "error", err)
					continue
				}
				_, code, err := c.inputOTP(in)
				if err != nil || code == "" {
					continue
				}
				// The outcome reaches the peer as session and notice events.
				_ = c.verify(ctx, "", "", code)
			}
		}()

		state := c.state(c.Session.Snapshot())
		first, _ := json.Marshal(StreamEvent{Type: eventSession, Session: &state})
		if err := conn.Write(ctx, websocket.MessageText, first); err != nil {
			logger.Debug("websocket write failed", "client", c.ID, "error", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "client", c.ID, "error", err)
					return
				}
			}
		}
	}
}
