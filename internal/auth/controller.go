// Package auth runs the email-code sign-in flow for one browsing context.
// It talks to the identity provider and translates outcomes into session
// store mutations and user-visible notices.
//
// The provider's session events are the only writer of IsAuthenticated and
// User. Request and verify calls never set them directly.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/session"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

var (
	ErrInvalidCodeFormat = errors.New("invalid code format")
	// ErrSuperseded is returned when a newer call of the same kind, or a
	// sign-out, was issued while this one was in flight and its outcome was
	// not applied. A verify the provider accepted is always applied.
	ErrSuperseded     = errors.New("superseded by a newer request")
	ErrNoPendingEmail = errors.New("no email awaiting verification")
)

const (
	profileTimeout   = 10 * time.Second
	establishTimeout = 5 * time.Second
)

type Config struct {
	DevMode    bool
	DevCode    string
	CodeLength int
	// EstablishTimeout bounds how long a successful verify keeps loading
	// set while the provider's session event is on its way. Zero means 5s.
	EstablishTimeout time.Duration
}

type Controller struct {
	store    *session.Store
	provider identity.Provider
	cfg      Config
	notify   Notifier
	logger   *slog.Logger

	requestSeq atomic.Uint64
	verifySeq  atomic.Uint64
	signOutSeq atomic.Uint64

	startOnce sync.Once
	stopOnce  sync.Once
	unsub     func()
	wg        sync.WaitGroup
}

func New(store *session.Store, provider identity.Provider, cfg Config, notify Notifier, logger *slog.Logger) *Controller {
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}
	return &Controller{
		store:    store,
		provider: provider,
		cfg:      cfg,
		notify:   notify,
		logger:   logger,
	}
}

func (c *Controller) DevMode() bool   { return c.cfg.DevMode }
func (c *Controller) CodeLength() int { return c.cfg.CodeLength }

// DevGuidance is the hint shown on the verify screen in dev mode.
func (c *Controller) DevGuidance() string {
	return fmt.Sprintf("Enter any %d digits to continue (default: %s)", c.cfg.CodeLength, c.cfg.DevCode)
}

// Start registers the session listener and rehydrates the store from the
// provider's current session. Calls after the first are no-ops.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		events, unsub := c.provider.Subscribe()
		c.unsub = unsub
		c.wg.Add(1)
		go c.listen(events)

		release := c.store.AcquireLoading()
		defer release()

		sess, err := c.provider.CurrentSession(ctx)
		if err != nil {
			c.logger.Error("loading current session", "error", err)
			return
		}
		if sess != nil {
			c.store.Apply(identity.Event{Kind: identity.SessionEstablished, Session: sess})
		}
	})
}

// Close stops the listener and waits for background profile refreshes.
func (c *Controller) Close() {
	c.stopOnce.Do(func() {
		if c.unsub != nil {
			c.unsub()
		}
	})
	c.wg.Wait()
}

func (c *Controller) listen(events <-chan identity.Event) {
	defer c.wg.Done()
	for ev := range events {
		if c.store.Apply(ev) {
			c.refreshProfile(ev.Session)
		}
	}
}

// refreshProfile creates or updates the backing profile without blocking
// the sign-in. Failures are logged and never retried.
func (c *Controller) refreshProfile(sess *identity.Session) {
	snap := c.store.Snapshot()

	p := identity.Profile{
		IdentityID: sess.User.ID,
		Email:      sess.User.Email,
		Name:       snap.ProfileDraft.FullName,
		Role:       studio.RoleParticipant,
	}
	if p.Email == "" && snap.EmailPending != nil {
		p.Email = *snap.EmailPending
	}
	if p.Email == "" {
		p.Email = snap.ProfileDraft.Email
	}
	if p.Name == "" {
		p.Name = sess.User.DisplayName
	}
	if p.Name == "" {
		p.Name = "User"
	}
	if snap.SelectedRole != nil {
		p.Role = *snap.SelectedRole
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), profileTimeout)
		defer cancel()
		if err := c.provider.CreateOrRefreshProfile(ctx, p); err != nil {
			c.logger.Error("refreshing profile", "identity", p.IdentityID, "error", err)
		}
	}()
}

// RequestCode records email as pending and asks the provider to send a
// code to it. In dev mode no code is sent.
func (c *Controller) RequestCode(ctx context.Context, email string) error {
	release := c.store.AcquireLoading()
	defer release()

	ticket := c.requestSeq.Add(1)
	c.store.SetEmailPending(&email)

	if c.cfg.DevMode {
		c.notify.Notify(Notice{Title: "Dev Mode", Description: c.DevGuidance()})
		return nil
	}

	err := c.provider.RequestCode(ctx, email)
	if c.requestSeq.Load() != ticket {
		return ErrSuperseded
	}
	if err != nil {
		c.notify.Notify(Notice{Title: "Error", Description: identity.Message(err), Variant: VariantDestructive})
		return err
	}
	c.notify.Notify(Notice{
		Title:       "Verification code sent",
		Description: "Please check your email for the verification code.",
	})
	return nil
}

// Resend requests a fresh code for the pending email, falling back to the
// draft email. It does nothing in dev mode.
func (c *Controller) Resend(ctx context.Context) error {
	if c.cfg.DevMode {
		return nil
	}
	snap := c.store.Snapshot()
	email := snap.ProfileDraft.Email
	if snap.EmailPending != nil {
		email = *snap.EmailPending
	}
	if email == "" {
		return ErrNoPendingEmail
	}
	return c.RequestCode(ctx, email)
}

// VerifyCode submits code for email. On success the pending email is
// cleared and loading stays set until the provider's session event has
// reached the store, so the caller sees the authenticated state on return.
func (c *Controller) VerifyCode(ctx context.Context, email, code string) error {
	release := c.store.AcquireLoading()
	defer release()

	ticket := c.verifySeq.Add(1)
	signOuts := c.signOutSeq.Load()

	if c.cfg.DevMode && len([]rune(code)) != c.cfg.CodeLength {
		c.notify.Notify(Notice{
			Title:       "Invalid Code",
			Description: fmt.Sprintf("Please enter exactly %d digits", c.cfg.CodeLength),
			Variant:     VariantDestructive,
		})
		return ErrInvalidCodeFormat
	}

	established, stop := c.watchEstablished(signOuts)
	defer stop()

	var err error
	if c.cfg.DevMode {
		err = c.provider.SignInAnonymously(ctx)
	} else {
		err = c.provider.VerifyCode(ctx, email, code)
	}

	if c.signOutSeq.Load() != signOuts {
		return ErrSuperseded
	}
	superseded := c.verifySeq.Load() != ticket
	if err != nil {
		if superseded {
			return ErrSuperseded
		}
		title := "Verification Failed"
		if c.cfg.DevMode {
			title = "Dev Auth Failed"
		}
		c.notify.Notify(Notice{Title: title, Description: identity.Message(err), Variant: VariantDestructive})
		return err
	}

	// The provider has signed the user in even if a newer verify was issued
	// meanwhile, so the outcome is applied either way. Only the notice is
	// left to the newest call.
	c.store.ClearEmailPendingIf(email)
	c.awaitSession(ctx, established)
	if superseded {
		return nil
	}
	desc := "Signed in successfully"
	if c.cfg.DevMode {
		desc = "Signed in successfully (dev mode)"
	}
	c.notify.Notify(Notice{Title: "Welcome!", Description: desc})
	return nil
}

// watchEstablished signals once the store reports a live session, or once
// a sign-out made the wait pointless. It must be registered before the
// provider call so the event cannot be missed.
func (c *Controller) watchEstablished(signOuts uint64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	stop := c.store.Watch(func(snap session.Snapshot) {
		if !snap.IsAuthenticated && c.signOutSeq.Load() == signOuts {
			return
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	return ch, stop
}

func (c *Controller) awaitSession(ctx context.Context, established <-chan struct{}) {
	if c.store.Snapshot().IsAuthenticated {
		return
	}
	timeout := c.cfg.EstablishTimeout
	if timeout <= 0 {
		timeout = establishTimeout
	}
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-established:
	case <-ctx.Done():
	case <-t.C:
		c.logger.Warn("provider session not established after verify", "timeout", timeout)
	}
}

// SignOut ends the provider session and clears the local auth fields. The
// store is cleared even when the provider call fails; that failure is
// returned for logging only.
func (c *Controller) SignOut(ctx context.Context) error {
	release := c.store.AcquireLoading()
	defer release()

	// Results of verifies still in flight no longer apply.
	c.signOutSeq.Add(1)

	err := c.provider.SignOut(ctx)
	if err != nil {
		c.logger.Error("provider sign-out", "error", err)
	}
	c.store.ClearAuth()
	c.notify.Notify(Notice{Title: "Signed out", Description: "You have been signed out successfully"})
	return err
}
