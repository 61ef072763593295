package server

import (
	"encoding/json"
	"sync"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/otpinput"
)

const (
	eventSession = "session"
	eventNotice  = "notice"
	eventOTP     = "otp"
)

// StreamEvent is the payload pushed to a client's SSE and websocket
// subscribers. Exactly one of the pointer fields is set, matching Type.
type StreamEvent struct {
	Type    string           `json:"type" enum:"session,notice,otp"`
	Session *SessionResponse `json:"session,omitempty"`
	Notice  *auth.Notice     `json:"notice,omitempty"`
	OTP     *otpinput.State  `json:"otp,omitempty"`
}

// Broker is an in-process pub/sub for stream events, keyed by client ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given client.
func (b *Broker) Subscribe(client string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[client] == nil {
		b.subs[client] = make(map[chan []byte]struct{})
	}
	b.subs[client][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(client string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[client], ch)
	if len(b.subs[client]) == 0 {
		delete(b.subs, client)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given client.
func (b *Broker) Publish(client string, event StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs[client]) == 0 {
		return
	}
	data, _ := json.Marshal(event)
	for ch := range b.subs[client] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}
