// Package otp is the live identity provider. Emailed one-time codes are
// stored as bcrypt hashes and exchanged for a signed session per browsing
// context.
package otp

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/config"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/events"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/mailer"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

var validate = validator.New()

type Service struct {
	db       *sql.DB
	cfg      config.AuthConfig
	mail     mailer.Service
	sessions SessionStore
	tokens   *Tokens
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	subs map[string]map[chan identity.Event]struct{}
}

func New(db *sql.DB, cfg config.AuthConfig, mail mailer.Service, sessions SessionStore, pub events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		mail:     mail,
		sessions: sessions,
		tokens:   NewTokens(cfg.JWTSecret, cfg.SessionTTL),
		events:   pub,
		logger:   logger,
		now:      time.Now,
		subs:     make(map[string]map[chan identity.Event]struct{}),
	}
}

// Bind returns a Provider scoped to one browsing context.
func (s *Service) Bind(client string) identity.Provider {
	return &binding{svc: s, client: client}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) requestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return identity.NewError(identity.CodeInvalidEmail, "Please enter a valid email address", err)
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return identity.NewError(identity.CodeUnavailable, "We couldn't send a code right now. Please try again.", err)
	}
	if err := s.storeCode(ctx, email, code, s.now()); err != nil {
		return identity.NewError(identity.CodeUnavailable, "We couldn't send a code right now. Please try again.", err)
	}
	if err := s.mail.SendCode(ctx, email, code); err != nil {
		return identity.NewError(identity.CodeUnavailable, "We couldn't send the email. Please try again.", err)
	}
	return nil
}

func (s *Service) verifyCode(ctx context.Context, client, email, code string) error {
	email = normalizeEmail(email)
	if email == "" {
		return identity.NewError(identity.CodeInvalidEmail, "Please enter a valid email address", nil)
	}

	res, err := s.checkCode(ctx, email, strings.TrimSpace(code), s.now())
	if err != nil {
		return identity.NewError(identity.CodeUnavailable, "Verification is unavailable right now. Please try again.", err)
	}
	switch res {
	case codeMissing, codeWrong:
		return identity.NewError(identity.CodeInvalidCode, "Invalid verification code", nil)
	case codeExpired:
		return identity.NewError(identity.CodeExpiredCode, "This code has expired. Please request a new one.", nil)
	case codeExhausted:
		return identity.NewError(identity.CodeTooManyAttempts, "Too many attempts. Please request a new code.", nil)
	}

	user, err := s.findOrCreateIdentity(ctx, email)
	if err != nil {
		return identity.NewError(identity.CodeUnavailable, "Verification is unavailable right now. Please try again.", err)
	}
	return s.establish(ctx, client, user)
}

func (s *Service) signInAnonymously(ctx context.Context, client string) error {
	user := studio.Identity{ID: uuid.NewString(), Anonymous: true}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, anonymous) VALUES (?, NULL, 1)`, user.ID,
	); err != nil {
		return identity.NewError(identity.CodeUnavailable, "Sign-in is unavailable right now. Please try again.", err)
	}
	return s.establish(ctx, client, user)
}

func (s *Service) findOrCreateIdentity(ctx context.Context, email string) (studio.Identity, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (id, email) VALUES (?, ?) ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), email,
	); err != nil {
		return studio.Identity{}, fmt.Errorf("creating identity: %w", err)
	}

	u := studio.Identity{Email: email}
	var name sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT i.id, p.name
		FROM identities i
		LEFT JOIN profiles p ON p.auth_id = i.id
		WHERE i.email = ?`, email,
	).Scan(&u.ID, &name)
	if err != nil {
		return studio.Identity{}, fmt.Errorf("reading identity: %w", err)
	}
	u.DisplayName = name.String
	return u, nil
}

func (s *Service) establish(ctx context.Context, client string, user studio.Identity) error {
	token, exp, err := s.tokens.Issue(user, s.now())
	if err != nil {
		return identity.NewError(identity.CodeUnavailable, "Sign-in is unavailable right now. Please try again.", err)
	}
	sess := identity.Session{User: user, AccessToken: token, ExpiresAt: exp}
	if err := s.sessions.Put(ctx, client, sess); err != nil {
		return identity.NewError(identity.CodeUnavailable, "Sign-in is unavailable right now. Please try again.", err)
	}
	s.publish(client, identity.Event{Kind: identity.SessionEstablished, Session: &sess})
	return nil
}

func (s *Service) currentSession(ctx context.Context, client string) (*identity.Session, error) {
	sess, err := s.sessions.Get(ctx, client)
	if err != nil {
		return nil, identity.NewError(identity.CodeUnavailable, "Session lookup failed", err)
	}
	if sess == nil {
		return nil, nil
	}
	if _, err := s.tokens.Parse(sess.AccessToken, s.now()); err != nil {
		s.logger.Info("dropping invalid session", "client", client, "error", err)
		if err := s.sessions.Delete(ctx, client); err != nil {
			s.logger.Error("deleting invalid session", "client", client, "error", err)
		}
		return nil, nil
	}
	return sess, nil
}

func (s *Service) signOut(ctx context.Context, client string) error {
	if err := s.sessions.Delete(ctx, client); err != nil {
		return identity.NewError(identity.CodeUnavailable, "Sign-out failed", err)
	}
	s.publish(client, identity.Event{Kind: identity.SessionCleared})
	return nil
}

func (s *Service) upsertProfile(ctx context.Context, p identity.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (auth_id, email, name, role)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (auth_id) DO UPDATE
		SET email = excluded.email,
		    name = excluded.name,
		    role = excluded.role,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, p.IdentityID, p.Email, p.Name, string(p.Role))
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	ev := events.ProfileRefreshedEvent{
		IdentityID:  p.IdentityID,
		Email:       p.Email,
		Name:        p.Name,
		Role:        string(p.Role),
		RefreshedAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, events.ProfileRefreshed, ev); err != nil {
		s.logger.Error("publishing profile event", "identity", p.IdentityID, "error", err)
	}
	return nil
}

// Profile returns the stored profile of an identity.
func (s *Service) Profile(ctx context.Context, identityID string) (identity.Profile, error) {
	p := identity.Profile{IdentityID: identityID}
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT email, name, role FROM profiles WHERE auth_id = ?`, identityID,
	).Scan(&p.Email, &p.Name, &role)
	if err != nil {
		return identity.Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	p.Role = studio.Role(role)
	return p, nil
}

func (s *Service) subscribe(client string) (<-chan identity.Event, func()) {
	ch := make(chan identity.Event, 16)
	s.mu.Lock()
	if s.subs[client] == nil {
		s.subs[client] = make(map[chan identity.Event]struct{})
	}
	s.subs[client][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[client], ch)
			if len(s.subs[client]) == 0 {
				delete(s.subs, client)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Service) publish(client string, ev identity.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs[client] {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("dropping session event for slow subscriber", "client", client, "kind", ev.Kind.String())
		}
	}
}

type binding struct {
	svc    *Service
	client string
}

func (b *binding) RequestCode(ctx context.Context, email string) error {
	return b.svc.requestCode(ctx, email)
}

func (b *binding) VerifyCode(ctx context.Context, email, code string) error {
	return b.svc.verifyCode(ctx, b.client, email, code)
}

func (b *binding) SignInAnonymously(ctx context.Context) error {
	return b.svc.signInAnonymously(ctx, b.client)
}

func (b *binding) SignOut(ctx context.Context) error {
	return b.svc.signOut(ctx, b.client)
}

func (b *binding) CurrentSession(ctx context.Context) (*identity.Session, error) {
	return b.svc.currentSession(ctx, b.client)
}

func (b *binding) Subscribe() (<-chan identity.Event, func()) {
	return b.svc.subscribe(b.client)
}

func (b *binding) CreateOrRefreshProfile(ctx context.Context, p identity.Profile) error {
	return b.svc.upsertProfile(ctx, p)
}
