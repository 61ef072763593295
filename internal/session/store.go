// Package session holds the per-browsing-context authentication and
// onboarding state. A Store is an explicit container passed to whoever
// needs it; there is no process-wide instance.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

// Snapshot is an immutable copy of the session state. Pointer fields are
// never mutated in place by the Store, only replaced.
type Snapshot struct {
	IsAuthenticated        bool                `json:"isAuthenticated"`
	User                   *studio.Identity    `json:"user"`
	Loading                bool                `json:"loading"`
	EmailPending           *string             `json:"emailPending"`
	HasCompletedOnboarding bool                `json:"hasCompletedOnboarding"`
	SelectedRole           *studio.Role        `json:"selectedRole"`
	ProfileDraft           studio.ProfileDraft `json:"profileDraft"`
	Version                uint64              `json:"version"`
}

// Persisted is the subset of the snapshot that survives a restart.
type Persisted struct {
	HasCompletedOnboarding bool                `json:"hasCompletedOnboarding"`
	SelectedRole           *studio.Role        `json:"selectedRole"`
	ProfileDraft           studio.ProfileDraft `json:"profileDraft"`
}

func (s Snapshot) persisted() Persisted {
	return Persisted{
		HasCompletedOnboarding: s.HasCompletedOnboarding,
		SelectedRole:           s.SelectedRole,
		ProfileDraft:           s.ProfileDraft,
	}
}

func (p Persisted) equal(o Persisted) bool {
	if p.HasCompletedOnboarding != o.HasCompletedOnboarding || p.ProfileDraft != o.ProfileDraft {
		return false
	}
	if p.SelectedRole == nil || o.SelectedRole == nil {
		return p.SelectedRole == o.SelectedRole
	}
	return *p.SelectedRole == *o.SelectedRole
}

// Persister durably stores the curated subset. Load returns the zero
// value when nothing was written yet.
type Persister interface {
	Load(ctx context.Context) (Persisted, error)
	Save(ctx context.Context, p Persisted) error
}

const persistTimeout = 3 * time.Second

type Store struct {
	mu       sync.Mutex
	snap     Snapshot
	holders  int
	persist  Persister
	logger   *slog.Logger
	watchers map[int]func(Snapshot)
	nextW    int

	// saveMu serializes writes of the persisted subset. It is never held
	// together with mu, so readers don't wait on the database.
	saveMu       sync.Mutex
	saved        Persisted
	savedVersion uint64
}

// Open reads the persisted subset before returning, so the first route
// decision already sees it. All other fields start at their defaults.
func Open(ctx context.Context, p Persister, logger *slog.Logger) (*Store, error) {
	saved, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{
		snap: Snapshot{
			HasCompletedOnboarding: saved.HasCompletedOnboarding,
			SelectedRole:           saved.SelectedRole,
			ProfileDraft:           saved.ProfileDraft,
		},
		saved:    saved,
		persist:  p,
		logger:   logger,
		watchers: make(map[int]func(Snapshot)),
	}, nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Watch registers fn to be called with every new snapshot. The returned
// func removes it.
func (s *Store) Watch(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextW
	s.nextW++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// update applies fn atomically, then writes the persisted subset and
// notifies watchers outside the lock.
func (s *Store) update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.Version++
	snap := s.snap

	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	s.save(snap)

	for _, w := range watchers {
		w(snap)
	}
	return snap
}

// save writes the persisted subset of snap unless a newer version was
// already written or the subset did not change.
func (s *Store) save(snap Snapshot) {
	p := snap.persisted()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if snap.Version <= s.savedVersion {
		return
	}
	if !p.equal(s.saved) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persist.Save(ctx, p); err != nil {
			s.logger.Error("persisting session state", "error", err)
			return
		}
		s.saved = p
	}
	s.savedVersion = snap.Version
}

func (s *Store) SetUser(u *studio.Identity) {
	s.update(func(snap *Snapshot) { snap.User = cloneIdentity(u) })
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(snap *Snapshot) {
		if !loading {
			s.holders = 0
		}
		snap.Loading = loading
	})
}

func (s *Store) SetAuthenticated(authenticated bool) {
	s.update(func(snap *Snapshot) { snap.IsAuthenticated = authenticated })
}

func (s *Store) SetOnboardingComplete(complete bool) {
	s.update(func(snap *Snapshot) { snap.HasCompletedOnboarding = complete })
}

func (s *Store) SetSelectedRole(role *studio.Role) {
	s.update(func(snap *Snapshot) {
		if role == nil {
			snap.SelectedRole = nil
			return
		}
		r := *role
		snap.SelectedRole = &r
	})
}

// SetProfileDraft shallow-merges patch into the existing draft.
func (s *Store) SetProfileDraft(patch studio.ProfileDraft) {
	s.update(func(snap *Snapshot) { snap.ProfileDraft = snap.ProfileDraft.Merge(patch) })
}

func (s *Store) SetEmailPending(email *string) {
	s.update(func(snap *Snapshot) {
		if email == nil {
			snap.EmailPending = nil
			return
		}
		e := *email
		snap.EmailPending = &e
	})
}

// ClearEmailPendingIf clears the pending email only if it still names
// email, ignoring case and surrounding space. It reports whether anything
// was cleared.
func (s *Store) ClearEmailPendingIf(email string) bool {
	cleared := false
	s.update(func(snap *Snapshot) {
		if snap.EmailPending != nil && sameEmail(*snap.EmailPending, email) {
			snap.EmailPending = nil
			cleared = true
		}
	})
	return cleared
}

// ClearAuth resets the authentication fields in a single step. Onboarding
// progress is kept.
func (s *Store) ClearAuth() {
	s.update(func(snap *Snapshot) {
		snap.IsAuthenticated = false
		snap.User = nil
		snap.EmailPending = nil
	})
}

// AcquireLoading marks an auth operation in flight. Loading stays true
// until every holder has called its release func; release is idempotent.
func (s *Store) AcquireLoading() (release func()) {
	s.update(func(snap *Snapshot) {
		s.holders++
		snap.Loading = true
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.update(func(snap *Snapshot) {
				if s.holders > 0 {
					s.holders--
				}
				snap.Loading = s.holders > 0
			})
		})
	}
}

// Apply mirrors a provider session change into the store and reports
// whether it was a transition into the signed-in state.
func (s *Store) Apply(ev identity.Event) (signedIn bool) {
	s.update(func(snap *Snapshot) {
		switch ev.Kind {
		case identity.SessionEstablished:
			if ev.Session == nil {
				return
			}
			signedIn = !snap.IsAuthenticated
			snap.User = cloneIdentity(&ev.Session.User)
			snap.IsAuthenticated = true
		case identity.SessionCleared:
			snap.User = nil
			snap.IsAuthenticated = false
		}
	})
	return signedIn
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func cloneIdentity(u *studio.Identity) *studio.Identity {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
