package echoapi

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/session"
	"github.com/edukit/eduhub/core/user"
	identitysvc "github.com/edukit/eduhub/services/identity"
)

type (
	// clientSession pairs one client's session store with its identity
	// provider, the way a browser tab owns one auth SDK instance.
	clientSession struct {
		store    *session.Store
		provider *identitysvc.Provider
	}

	// Registry hands out the clientSession of an X-Client-Session id,
	// creating it on first sight.
	Registry struct {
		conf   *core.Config
		users  user.Service
		kv     core.KeyValueStore
		logger core.Logger

		mu       sync.Mutex
		sessions map[string]*clientSession
	}
)

func NewRegistry(conf *core.Config, users user.Service, kv core.KeyValueStore, logger core.Logger) *Registry {
	return &Registry{
		conf:     conf,
		users:    users,
		kv:       kv,
		logger:   logger,
		sessions: make(map[string]*clientSession),
	}
}

func (r *Registry) Get(ctx context.Context, id string) (*clientSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.sessions[id]; ok {
		return cs, nil
	}

	provider := identitysvc.NewProvider(r.users)
	store := session.NewStore(
		session.Config{
			DemoDuration: r.conf.Session.DemoDuration,
			PollInterval: r.conf.Session.VerifyPollInterval,
			LoadTimeout:  r.conf.Session.LoadTimeout,
			KeyPrefix:    "client:" + id + ":",
		},
		provider,
		identitysvc.NewProfileService(r.users),
		r.kv,
		r.logger,
	)
	if err := store.Initialize(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing client session")
	}

	cs := &clientSession{store: store, provider: provider}
	r.sessions[id] = cs
	return cs, nil
}

// Close tears down every client session. Called on server shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cs := range r.sessions {
		cs.store.Close()
		delete(r.sessions, id)
	}
}
