package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/database"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/migrations"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/slots"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupBucket(t *testing.T) *slots.Bucket {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return slots.NewBucket(slots.NewSQLiteStore(db), "client-1")
}

func openStore(t *testing.T, b *slots.Bucket) *Store {
	t.Helper()
	s, err := Open(context.Background(), NewSlotPersister(b), discardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func TestRestartKeepsOnlyPersistedFields(t *testing.T) {
	b := setupBucket(t)
	s := openStore(t, b)

	s.SetUser(&studio.Identity{ID: "u1", Email: "a@b.com"})
	s.SetAuthenticated(true)
	s.SetLoading(true)
	s.SetEmailPending(ptr("a@b.com"))
	s.SetSelectedRole(ptr(studio.RoleJudge))
	s.SetProfileDraft(studio.ProfileDraft{FullName: "Ada", Email: "a@b.com"})
	s.SetOnboardingComplete(true)
	s.SetSelectedRole(ptr(studio.RoleCoordinator))
	s.SetProfileDraft(studio.ProfileDraft{MobileNumber: "5550001111"})

	restarted := openStore(t, b).Snapshot()

	if restarted.IsAuthenticated || restarted.User != nil || restarted.Loading || restarted.EmailPending != nil {
		t.Fatalf("runtime fields survived restart: %+v", restarted)
	}
	if !restarted.HasCompletedOnboarding {
		t.Error("hasCompletedOnboarding lost")
	}
	if restarted.SelectedRole == nil || *restarted.SelectedRole != studio.RoleCoordinator {
		t.Errorf("selectedRole = %v, want coordinator", restarted.SelectedRole)
	}
	want := studio.ProfileDraft{FullName: "Ada", Email: "a@b.com", MobileNumber: "5550001111"}
	if restarted.ProfileDraft != want {
		t.Errorf("profileDraft = %+v, want %+v", restarted.ProfileDraft, want)
	}
}

func TestFreshStoreDefaults(t *testing.T) {
	snap := openStore(t, setupBucket(t)).Snapshot()
	if snap.IsAuthenticated || snap.Loading || snap.User != nil || snap.EmailPending != nil ||
		snap.HasCompletedOnboarding || snap.SelectedRole != nil || snap.ProfileDraft != (studio.ProfileDraft{}) {
		t.Fatalf("unexpected defaults: %+v", snap)
	}
}

func TestSetProfileDraftMerges(t *testing.T) {
	s := openStore(t, setupBucket(t))

	s.SetProfileDraft(studio.ProfileDraft{FullName: "A", Email: "old@b.com"})
	s.SetProfileDraft(studio.ProfileDraft{Email: "new@b.com", CountryCode: "+44"})

	got := s.Snapshot().ProfileDraft
	want := studio.ProfileDraft{FullName: "A", Email: "new@b.com", CountryCode: "+44"}
	if got != want {
		t.Fatalf("draft = %+v, want %+v", got, want)
	}
}

func TestClearAuthResetsAuthFieldsOnly(t *testing.T) {
	s := openStore(t, setupBucket(t))
	s.SetUser(&studio.Identity{ID: "u1"})
	s.SetAuthenticated(true)
	s.SetEmailPending(ptr("a@b.com"))
	s.SetSelectedRole(ptr(studio.RoleParticipant))
	s.SetOnboardingComplete(true)

	s.ClearAuth()

	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.User != nil || snap.EmailPending != nil {
		t.Fatalf("auth fields not cleared: %+v", snap)
	}
	if !snap.HasCompletedOnboarding || snap.SelectedRole == nil {
		t.Fatalf("onboarding fields cleared: %+v", snap)
	}
}

func TestAcquireLoadingHoldsUntilLastRelease(t *testing.T) {
	s := openStore(t, setupBucket(t))

	r1 := s.AcquireLoading()
	r2 := s.AcquireLoading()
	if !s.Snapshot().Loading {
		t.Fatal("loading = false while held")
	}

	r1()
	r1()
	if !s.Snapshot().Loading {
		t.Fatal("loading released while a holder remains")
	}

	r2()
	if s.Snapshot().Loading {
		t.Fatal("loading = true after every release")
	}
}

func TestClearEmailPendingIf(t *testing.T) {
	s := openStore(t, setupBucket(t))
	s.SetEmailPending(ptr("new@b.com"))

	if s.ClearEmailPendingIf("old@b.com") {
		t.Fatal("cleared a different pending email")
	}
	if !s.ClearEmailPendingIf("new@b.com") {
		t.Fatal("did not clear matching pending email")
	}
	if s.Snapshot().EmailPending != nil {
		t.Fatal("emailPending still set")
	}

	// The provider lowercases addresses, so an explicit email may differ in
	// case from the one recorded when the code was requested.
	s.SetEmailPending(ptr("Ada@Example.com"))
	if !s.ClearEmailPendingIf(" ada@example.COM") {
		t.Fatal("did not clear pending email differing only in case")
	}
}

type blockingPersister struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	saved []Persisted
}

func (p *blockingPersister) Load(context.Context) (Persisted, error) { return Persisted{}, nil }

func (p *blockingPersister) Save(_ context.Context, saved Persisted) error {
	p.entered <- struct{}{}
	<-p.release
	p.mu.Lock()
	p.saved = append(p.saved, saved)
	p.mu.Unlock()
	return nil
}

func (p *blockingPersister) saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved)
}

func TestSnapshotDoesNotWaitForPersistence(t *testing.T) {
	p := &blockingPersister{entered: make(chan struct{}), release: make(chan struct{})}
	s, err := Open(context.Background(), p, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		s.SetProfileDraft(studio.ProfileDraft{FullName: "Ada"})
		close(done)
	}()
	<-p.entered

	got := make(chan Snapshot, 1)
	go func() { got <- s.Snapshot() }()
	select {
	case snap := <-got:
		if snap.ProfileDraft.FullName != "Ada" {
			t.Fatalf("draft = %+v", snap.ProfileDraft)
		}
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked behind a pending save")
	}

	close(p.release)
	<-done

	// Loading is not persisted, so toggling it writes nothing.
	s.SetLoading(true)
	s.SetLoading(false)
	if n := p.saves(); n != 1 {
		t.Fatalf("saves = %d, want 1", n)
	}
}

func TestApplyReportsSignInTransition(t *testing.T) {
	s := openStore(t, setupBucket(t))
	sess := &identity.Session{User: studio.Identity{ID: "u1", Email: "a@b.com"}}

	if !s.Apply(identity.Event{Kind: identity.SessionEstablished, Session: sess}) {
		t.Fatal("first establish should be a sign-in transition")
	}
	if s.Apply(identity.Event{Kind: identity.SessionEstablished, Session: sess}) {
		t.Fatal("refresh of a live session is not a transition")
	}
	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil || snap.User.ID != "u1" {
		t.Fatalf("session not mirrored: %+v", snap)
	}

	s.Apply(identity.Event{Kind: identity.SessionCleared})
	snap = s.Snapshot()
	if snap.IsAuthenticated || snap.User != nil {
		t.Fatalf("session not cleared: %+v", snap)
	}
}

func TestWatchSeesEveryVersion(t *testing.T) {
	s := openStore(t, setupBucket(t))

	var versions []uint64
	stop := s.Watch(func(snap Snapshot) { versions = append(versions, snap.Version) })

	s.SetLoading(true)
	s.SetLoading(false)
	stop()
	s.SetLoading(true)

	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Fatalf("versions = %v, want [1 2]", versions)
	}
}
