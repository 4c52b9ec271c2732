package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/user"
)

// persisted marker keys, relative to the store's key prefix
const (
	demoModeKey = "demoMode"
	demoRoleKey = "demoRole"
)

const profileFetchTimeout = 15 * time.Second

var (
	ErrStoreClosed = errors.New("session store closed")
	// ErrDemoWhileAuthenticated rejects demo mode while a real account is
	// signed in; the user must log out first.
	ErrDemoWhileAuthenticated = errors.New("demo mode unavailable while signed in")
	ErrInvalidDemoRole        = errors.New("invalid demo role")
)

type (
	// Config holds the store's timing knobs. Tests shrink them.
	Config struct {
		// DemoDuration is the hard ceiling on a demo session.
		DemoDuration time.Duration
		// PollInterval is the verification poller's fixed tick.
		PollInterval time.Duration
		// LoadTimeout bounds the initial identity resolution.
		LoadTimeout time.Duration
		// KeyPrefix namespaces the persisted marker keys so stores of
		// different clients can share one durable store.
		KeyPrefix string
	}

	// Store is the single source of truth for one client's Session. All
	// mutations go through it; the persisted demo marker is written and read
	// by it alone.
	Store struct {
		conf     Config
		provider IdentityProvider
		profiles ProfileStore
		kv       core.KeyValueStore
		logger   core.Logger

		mu          sync.Mutex
		sess        Session
		gen         uint64 // identity generation; stale async results are discarded
		unsubscribe func()
		demoTimer   *time.Timer
		poller      *poller
		loadTimer   *time.Timer
		events      chan Event
		closed      bool
	}
)

func NewStore(conf Config, provider IdentityProvider, profiles ProfileStore, kv core.KeyValueStore, logger core.Logger) *Store {
	return &Store{
		conf:     conf,
		provider: provider,
		profiles: profiles,
		kv:       kv,
		logger:   logger,
		sess: Session{
			Identity:     Identity{Kind: Anonymous},
			Verification: NotApplicable,
			Loading:      true,
		},
		events: make(chan Event, 16),
	}
}

// Initialize subscribes to identity change notifications and reconstructs a
// persisted demo session if a marker is present. A reconstructed demo
// session gets a full fresh countdown; the elapsed portion of the original
// window is deliberately not preserved.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}

	if mode, err := s.kv.Get(ctx, s.conf.KeyPrefix+demoModeKey); err == nil && mode == "true" {
		role, err := s.kv.Get(ctx, s.conf.KeyPrefix+demoRoleKey)
		if err != nil || !validDemoRole(role) {
			// half-written marker; drop it rather than guess
			s.clearMarker(ctx)
		} else {
			s.sess.Identity = Identity{Kind: Demo, Persona: NewPersona(role)}
			s.sess.Verification = NotApplicable
			s.sess.Loading = false
			s.armDemoTimer()
		}
	} else if err != nil && err != core.ErrKeyNotFound {
		s.logger.Warn(fmt.Sprintf("session: reading demo marker: %v", err), err)
	}
	s.mu.Unlock()

	// the provider delivers the current auth state synchronously from
	// Subscribe and the callback takes s.mu, so the lock must be free here
	unsubscribe := s.provider.Subscribe(s.onIdentityChanged)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		unsubscribe()
		return ErrStoreClosed
	}
	s.unsubscribe = unsubscribe

	// safety net: never report loading forever if the provider stays silent
	if s.sess.Loading && s.conf.LoadTimeout > 0 {
		s.loadTimer = time.AfterFunc(s.conf.LoadTimeout, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.sess.Loading = false
		})
	}
	return nil
}

// Session returns a snapshot of the current session state.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// Events is the store's user-facing notification channel. Closed on Close.
func (s *Store) Events() <-chan Event {
	return s.events
}

// onIdentityChanged handles a provider auth state notification.
// Last write wins: the generation counter invalidates the profile fetch and
// poller of any previous notification still in flight.
func (s *Store) onIdentityChanged(acct *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.sess.Loading = false

	if acct == nil {
		// demo mode lives outside the auth state; the signed-out
		// notification must not tear down an active demo session
		if s.sess.Identity.Kind == Demo {
			return
		}
		s.gen++
		s.stopPollerLocked()
		s.sess.Identity = Identity{Kind: Anonymous}
		s.sess.Verification = NotApplicable
		return
	}

	// a real sign-in supersedes an in-progress demo session
	if s.sess.Identity.Kind == Demo {
		s.endDemoLocked(context.Background(), false)
	}

	// take the generation after the demo teardown, which bumps it too;
	// the fetch and poller below must not start out already stale
	s.gen++
	gen := s.gen
	s.stopPollerLocked()

	s.sess.Identity = Identity{
		Kind:    Authenticated,
		Account: user.User{ID: acct.ID, Email: acct.Email, EmailVerified: acct.EmailVerified},
	}
	if acct.EmailVerified {
		s.sess.Verification = Verified
	} else {
		s.sess.Verification = Unverified
		s.startPollerLocked(gen, *acct)
	}

	go s.fetchProfile(gen, *acct)
}

// fetchProfile resolves the account's profile document. A failure is not
// fatal: the session stays authenticated but profile-less. A result arriving
// after the identity changed again is discarded.
func (s *Store) fetchProfile(gen uint64, acct Account) {
	ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
	defer cancel()

	usr, err := s.profiles.GetProfile(ctx, acct.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return // superseded; never apply a stale profile
	}
	if err != nil {
		s.logger.Warn(fmt.Sprintf("session: fetching profile %s: %v", acct.ID, err), err)
		return
	}
	usr.EmailVerified = s.sess.Verification == Verified
	s.sess.Identity.Account = usr
}

// StartDemo switches the session to a demo persona for the configured
// window, persisting the marker so a reload can reconstruct the session.
// Rejected while a real account is signed in.
func (s *Store) StartDemo(ctx context.Context, role string) error {
	if !validDemoRole(role) {
		return ErrInvalidDemoRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.sess.Identity.Kind == Authenticated {
		return ErrDemoWhileAuthenticated
	}

	s.gen++
	s.stopPollerLocked()

	s.sess.Identity = Identity{Kind: Demo, Persona: NewPersona(role)}
	s.sess.Verification = NotApplicable
	s.sess.Loading = false

	if err := s.kv.Set(ctx, s.conf.KeyPrefix+demoModeKey, "true", 0); err != nil {
		s.logger.Warn(fmt.Sprintf("session: persisting demo marker: %v", err), err)
	} else if err = s.kv.Set(ctx, s.conf.KeyPrefix+demoRoleKey, role, 0); err != nil {
		s.logger.Warn(fmt.Sprintf("session: persisting demo role: %v", err), err)
	}

	s.armDemoTimer()
	s.emit(Event{Kind: EventDemoStarted, Role: role})
	return nil
}

// EndDemo tears down an in-progress demo session. Idempotent: calling it
// when no demo session is active is a no-op.
func (s *Store) EndDemo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.sess.Identity.Kind != Demo {
		return nil
	}
	role := s.sess.Identity.Persona.Role
	s.endDemoLocked(ctx, false)
	s.emit(Event{Kind: EventDemoEnded, Role: role})
	return nil
}

// endDemoLocked cancels the demo timer, clears the persisted marker and
// resets the identity. Caller holds the lock.
func (s *Store) endDemoLocked(ctx context.Context, expired bool) {
	s.cancelDemoTimerLocked()
	s.clearMarker(ctx)
	s.gen++
	s.sess.Identity = Identity{Kind: Anonymous}
	s.sess.Verification = NotApplicable
	if expired {
		s.emit(Event{Kind: EventDemoExpired})
	}
}

// SetProfile replaces the profile of the current authenticated identity.
// No-op when not authenticated.
func (s *Store) SetProfile(usr user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sess.Identity.Kind != Authenticated {
		return
	}
	usr.EmailVerified = s.sess.Verification == Verified
	s.sess.Identity.Account = usr
}

// markVerified is the poller's upcall. gen guards against a late result
// resurrecting a session that has since logged out or switched identity.
func (s *Store) markVerified(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return
	}
	if s.sess.Identity.Kind != Authenticated || s.sess.Verification != Unverified {
		return
	}
	s.sess.Verification = Verified
	s.sess.Identity.Account.EmailVerified = true
	s.stopPollerLocked()
	s.emit(Event{Kind: EventVerified})
}

// Close tears the store down: the provider subscription, the poller and any
// pending timers. Idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.stopPollerLocked()
	s.cancelDemoTimerLocked()
	if s.loadTimer != nil {
		s.loadTimer.Stop()
	}
	close(s.events)
}

// armDemoTimer schedules the demo expiry. At most one armed timer exists per
// store; arming again cancels the previous handle first. Caller holds the lock.
func (s *Store) armDemoTimer() {
	s.cancelDemoTimerLocked()
	s.demoTimer = time.AfterFunc(s.conf.DemoDuration, s.onDemoExpired)
}

// cancelDemoTimerLocked is a no-op if the timer already fired or was
// already cancelled.
func (s *Store) cancelDemoTimerLocked() {
	if s.demoTimer != nil {
		s.demoTimer.Stop()
		s.demoTimer = nil
	}
}

func (s *Store) onDemoExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sess.Identity.Kind != Demo {
		return
	}
	s.endDemoLocked(context.Background(), true)
}

func (s *Store) startPollerLocked(gen uint64, acct Account) {
	s.poller = newPoller(s, gen, acct, s.conf.PollInterval)
	s.poller.start()
}

func (s *Store) stopPollerLocked() {
	if s.poller != nil {
		s.poller.stop()
		s.poller = nil
	}
}

func (s *Store) clearMarker(ctx context.Context) {
	if err := s.kv.Remove(ctx, s.conf.KeyPrefix+demoModeKey); err != nil {
		s.logger.Warn(fmt.Sprintf("session: clearing demo marker: %v", err), err)
	}
	if err := s.kv.Remove(ctx, s.conf.KeyPrefix+demoRoleKey); err != nil {
		s.logger.Warn(fmt.Sprintf("session: clearing demo role: %v", err), err)
	}
}

// emit never blocks; if the UI is not draining the channel, the event is
// dropped. Caller holds the lock.
func (s *Store) emit(evt Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- evt:
	default:
		s.logger.Warn(fmt.Sprintf("session: dropping event %s", evt.Kind))
	}
}

func validDemoRole(role string) bool {
	switch role {
	case user.RoleStudent, user.RoleTeacher, user.RoleSchool:
		return true
	}
	return false
}
