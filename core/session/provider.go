package session

import (
	"context"

	"github.com/edukit/eduhub/core/user"
)

// Account is the identity provider's handle on a signed-in account.
// EmailVerified is the provider's cached flag at notification time and may
// be stale; CheckVerified forces a fresh read.
type Account struct {
	ID            string
	Email         string
	EmailVerified bool
}

// IdentityProvider is the capability the session store requires from the
// auth backend. One provider instance serves one client session.
type IdentityProvider interface {
	// Subscribe registers a callback invoked with the current account on
	// every auth state change (nil on sign-out). The returned func cancels
	// the subscription; cancelling twice is a no-op.
	Subscribe(fn func(acct *Account)) (unsubscribe func())
	CreateAccount(ctx context.Context, nu user.NewUser) (Account, error)
	SignIn(ctx context.Context, usernameOrEmail, password string) (Account, error)
	SignOut(ctx context.Context) error
	SendVerification(ctx context.Context, acct Account) error
	// CheckVerified re-reads the account record; never served from cache.
	CheckVerified(ctx context.Context, acct Account) (bool, error)
}

// ProfileStore fetches the profile document backing an account.
type ProfileStore interface {
	GetProfile(ctx context.Context, accountID string) (user.User, error)
}
