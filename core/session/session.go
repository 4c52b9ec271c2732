// Package session implements the client session lifecycle: the session
// store holding the current identity (real account, demo persona or
// anonymous), the email verification poller and the timed demo mode.
package session

import (
	"github.com/edukit/eduhub/core/user"
)

// IdentityKind discriminates the three possible session identities.
type IdentityKind int

const (
	Anonymous IdentityKind = iota
	Authenticated
	Demo
)

func (k IdentityKind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case Demo:
		return "demo"
	default:
		return "anonymous"
	}
}

// Verification is the email verification state of the session identity.
type Verification int

const (
	NotApplicable Verification = iota
	Unverified
	Verified
)

func (v Verification) String() string {
	switch v {
	case Unverified:
		return "unverified"
	case Verified:
		return "verified"
	default:
		return "n/a"
	}
}

// Persona is a synthetic, non-persisted account used for time-boxed product
// trials. It never reaches the backend.
type Persona struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NewPersona(role string) Persona {
	p := Persona{
		ID:    "demo-user",
		Email: "demo@example.com",
		Role:  role,
	}
	switch role {
	case user.RoleTeacher:
		p.Name = "Demo Teacher"
	case user.RoleSchool:
		p.Name = "Demo School"
	default:
		p.Name = "Demo Student"
	}
	return p
}

// Identity is the discriminated identity value. Account is only meaningful
// when Kind is Authenticated, Persona when Kind is Demo.
type Identity struct {
	Kind    IdentityKind `json:"kind"`
	Account user.User    `json:"account,omitempty"`
	Persona Persona      `json:"persona,omitempty"`
}

// Session is a snapshot of the session state.
type Session struct {
	Identity     Identity     `json:"identity"`
	Verification Verification `json:"verification"`
	Loading      bool         `json:"loading"`
}

// EffectivelyVerified reports whether gating decisions should treat the
// session as verified. Demo personas always are.
func (s Session) EffectivelyVerified() bool {
	return s.Identity.Kind == Demo || (s.Identity.Kind == Authenticated && s.Verification == Verified)
}

// EventKind enumerates user-visible session notifications.
type EventKind int

const (
	EventDemoStarted EventKind = iota
	EventDemoEnded
	EventDemoExpired
	EventVerified
)

func (k EventKind) String() string {
	switch k {
	case EventDemoStarted:
		return "demo_started"
	case EventDemoEnded:
		return "demo_ended"
	case EventDemoExpired:
		return "demo_expired"
	default:
		return "verified"
	}
}

// Event is delivered on the store's notification channel for the UI layer
// (toasts, redirects).
type Event struct {
	Kind EventKind `json:"kind"`
	Role string    `json:"role,omitempty"` // demo events only
}
