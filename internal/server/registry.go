package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/otpinput"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/session"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/slots"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/wizard"
)

// Binder hands out identity providers scoped to one browsing context.
type Binder interface {
	Bind(client string) identity.Provider
}

type Catalog interface {
	List(ctx context.Context) ([]studio.Hackathon, error)
	Get(ctx context.Context, id string) (studio.Hackathon, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Deps are the shared collaborators every client bundle is built from.
type Deps struct {
	Slots     slots.Store
	Identity  Binder
	Catalog   Catalog
	Submitter wizard.Submitter
	Auth      auth.Config
	Wizard    wizard.Config
}

// Registry owns one Client per browsing context, created on first use.
type Registry struct {
	deps   Deps
	broker *Broker
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry(deps Deps, broker *Broker, logger *slog.Logger) *Registry {
	return &Registry{
		deps:    deps,
		broker:  broker,
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// Get returns the client for id, opening it if needed. The returned client
// has finished rehydrating its session.
func (r *Registry) Get(ctx context.Context, id string) (*Client, error) {
	c, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	// Concurrent first requests block here until rehydration is done. It
	// runs once per client, so it must not die with this request.
	c.Auth.Start(context.WithoutCancel(ctx))
	return c, nil
}

func (r *Registry) lookup(ctx context.Context, id string) (*Client, error) {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if c, ok := r.clients[id]; ok {
		return c, nil
	}

	c, err := r.open(ctx, id)
	if err != nil {
		return nil, err
	}
	r.clients[id] = c
	return c, nil
}

func (r *Registry) open(ctx context.Context, id string) (*Client, error) {
	logger := r.logger.With("client", id)
	bucket := slots.NewBucket(r.deps.Slots, id)

	store, err := session.Open(ctx, session.NewSlotPersister(bucket), logger)
	if err != nil {
		return nil, fmt.Errorf("opening session for client %q: %w", id, err)
	}

	c := &Client{
		ID:      id,
		Session: store,
		Wizard:  wizard.New(bucket, r.deps.Catalog, r.deps.Submitter, r.deps.Wizard, logger),
		broker:  r.broker,
		logger:  logger,
	}
	c.Auth = auth.New(store, r.deps.Identity.Bind(id), r.deps.Auth, auth.NotifierFunc(c.pushNotice), logger)
	c.otp = otpinput.New(r.deps.Auth.CodeLength, c.recordCompletion)
	c.stopWatch = store.Watch(func(snap session.Snapshot) {
		state := c.state(snap)
		r.broker.Publish(id, StreamEvent{Type: eventSession, Session: &state})
	})
	return c, nil
}

// Close stops every client's session listener.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.clients {
		c.stopWatch()
		c.Auth.Close()
		delete(r.clients, id)
	}
}
