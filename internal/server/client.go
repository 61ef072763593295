package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/otpinput"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/session"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/wizard"
)

// Flow tells the verify step which screen started the code request.
type Flow string

const (
	FlowSignUp Flow = "signup"
	FlowSignIn Flow = "signin"
)

const maxQueuedNotices = 20

var errUnknownAction = errors.New("unknown otp action")

// Client is the state bundle of one browsing context.
type Client struct {
	ID      string
	Session *session.Store
	Auth    *auth.Controller
	Wizard  *wizard.Wizard

	broker    *Broker
	logger    *slog.Logger
	stopWatch func()

	noticeMu sync.Mutex
	notices  []auth.Notice

	otpMu     sync.Mutex
	otp       *otpinput.Challenge
	flow      Flow
	completed string
}

// SessionResponse is the snapshot together with what the SPA needs to
// render it.
type SessionResponse struct {
	Snapshot    session.Snapshot `json:"snapshot"`
	Set         route.Set        `json:"set"`
	DevMode     bool             `json:"devMode"`
	CodeLength  int              `json:"codeLength"`
	DevGuidance string           `json:"devGuidance,omitempty"`
}

func (c *Client) state(snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		Snapshot:   snap,
		Set:        route.Gate(snap),
		DevMode:    c.Auth.DevMode(),
		CodeLength: c.Auth.CodeLength(),
	}
	if resp.DevMode {
		resp.DevGuidance = c.Auth.DevGuidance()
	}
	return resp
}

func (c *Client) pushNotice(n auth.Notice) {
	c.noticeMu.Lock()
	c.notices = append(c.notices, n)
	if len(c.notices) > maxQueuedNotices {
		c.notices = c.notices[len(c.notices)-maxQueuedNotices:]
	}
	c.noticeMu.Unlock()

	c.broker.Publish(c.ID, StreamEvent{Type: eventNotice, Notice: &n})
}

// drainNotices returns the queued notices and empties the queue.
func (c *Client) drainNotices() []auth.Notice {
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	out := c.notices
	c.notices = nil
	if out == nil {
		out = []auth.Notice{}
	}
	return out
}

// startFlow records which screen requested a code and clears the input.
func (c *Client) startFlow(f Flow) {
	c.otpMu.Lock()
	c.flow = f
	c.otp.Reset()
	state := c.otp.State()
	c.otpMu.Unlock()

	c.broker.Publish(c.ID, StreamEvent{Type: eventOTP, OTP: &state})
}

func (c *Client) currentFlow() Flow {
	c.otpMu.Lock()
	defer c.otpMu.Unlock()
	return c.flow
}

// recordCompletion runs under otpMu from inside the challenge.
func (c *Client) recordCompletion(code string) { c.completed = code }

func (c *Client) otpState() otpinput.State {
	c.otpMu.Lock()
	defer c.otpMu.Unlock()
	return c.otp.State()
}

// OTPInputRequest is one interaction with the code input.
type OTPInputRequest struct {
	Action string `json:"action" enum:"type,backspace,left,right,focus,paste,reset"`
	Index  int    `json:"index"`
	Value  string `json:"value,omitempty"`
}

// inputOTP applies in to the challenge. completed is the full code when
// this interaction completed it.
func (c *Client) inputOTP(in OTPInputRequest) (state otpinput.State, completed string, err error) {
	c.otpMu.Lock()
	c.completed = ""
	switch in.Action {
	case "type":
		c.otp.Type(in.Index, in.Value)
	case "backspace":
		c.otp.Backspace(in.Index)
	case "left":
		c.otp.ArrowLeft(in.Index)
	case "right":
		c.otp.ArrowRight(in.Index)
	case "focus":
		c.otp.Focus(in.Index)
	case "paste":
		c.otp.Paste(in.Value)
	case "reset":
		c.otp.Reset()
	default:
		c.otpMu.Unlock()
		return otpinput.State{}, "", errUnknownAction
	}
	state = c.otp.State()
	completed = c.completed
	c.otpMu.Unlock()

	c.broker.Publish(c.ID, StreamEvent{Type: eventOTP, OTP: &state})
	return state, completed, nil
}

// verify submits code for the pending email, falling back to the draft
// email. A successful sign-up also completes onboarding.
func (c *Client) verify(ctx context.Context, f Flow, email, code string) error {
	if f == "" {
		f = c.currentFlow()
	}
	if email == "" {
		snap := c.Session.Snapshot()
		email = snap.ProfileDraft.Email
		if snap.EmailPending != nil && *snap.EmailPending != "" {
			email = *snap.EmailPending
		}
	}

	if err := c.Auth.VerifyCode(ctx, email, code); err != nil {
		return err
	}
	if f == FlowSignUp {
		c.Session.SetOnboardingComplete(true)
	}
	return nil
}
