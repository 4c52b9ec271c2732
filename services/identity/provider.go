package identitysvc

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/session"
	"github.com/edukit/eduhub/core/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

// Provider adapts user.Service to the session store's identity capability.
// One Provider serves one client session and remembers who that client is
// signed in as; auth state changes fan out to its subscribers.
type Provider struct {
	users user.Service

	mu      sync.Mutex
	subs    map[int]func(*session.Account)
	nextSub int
	current *session.Account
}

var _ session.IdentityProvider = (*Provider)(nil)

func NewProvider(users user.Service) *Provider {
	return &Provider{
		users: users,
		subs:  make(map[int]func(*session.Account)),
	}
}

// Subscribe registers the callback and immediately invokes it with the
// current auth state, so a fresh subscriber never waits for the next change.
func (p *Provider) Subscribe(fn func(acct *session.Account)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(copyAccount(current))

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// CreateAccount registers a new account and signs the client in as it, the
// way the registration wizard leaves a fresh account signed in.
func (p *Provider) CreateAccount(_ context.Context, nu user.NewUser) (session.Account, error) {
	usr, err := p.users.Create(nu)
	if err != nil {
		return session.Account{}, err
	}
	return p.setSignedIn(usr), nil
}

func (p *Provider) SignIn(_ context.Context, usernameOrEmail, password string) (session.Account, error) {
	usr, err := p.users.GetByUsernameOrEmail(usernameOrEmail)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return session.Account{}, ErrInvalidCredentials
		}
		return session.Account{}, err
	}
	if err = usr.CheckPassword(password); err != nil {
		return session.Account{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return session.Account{}, ErrAccountDisabled
	}

	if usr, err = p.users.SetLastLogin(usr); err != nil {
		return session.Account{}, errors.Wrap(err, "setting last login")
	}
	return p.setSignedIn(usr), nil
}

func (p *Provider) SignOut(context.Context) error {
	p.mu.Lock()
	p.current = nil
	subs := p.snapshotSubs()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

func (p *Provider) SendVerification(_ context.Context, acct session.Account) error {
	usr, err := p.users.GetByID(acct.ID)
	if err != nil {
		return err
	}
	return p.users.RequestVerification(usr)
}

func (p *Provider) CheckVerified(_ context.Context, acct session.Account) (bool, error) {
	return p.users.IsVerified(acct.ID)
}

// Account returns the client's current auth state, nil when signed out.
func (p *Provider) Account() *session.Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyAccount(p.current)
}

func (p *Provider) setSignedIn(usr user.User) session.Account {
	acct := session.Account{ID: usr.ID, Email: usr.Email, EmailVerified: usr.EmailVerified}

	p.mu.Lock()
	p.current = &acct
	subs := p.snapshotSubs()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(copyAccount(&acct))
	}
	return acct
}

// snapshotSubs is called with the lock held; callbacks run without it.
func (p *Provider) snapshotSubs() []func(*session.Account) {
	subs := make([]func(*session.Account), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	return subs
}

func copyAccount(acct *session.Account) *session.Account {
	if acct == nil {
		return nil
	}
	cp := *acct
	return &cp
}
