package session

type (
	// Target describes the protection requirements of a destination page.
	Target struct {
		// RequiresAuth admits authenticated and demo identities only.
		RequiresAuth bool
		// RequiresVerified additionally demands a verified email address.
		// Demo identities satisfy it; they have no address to verify.
		RequiresVerified bool
		// Entry marks the sign-in/sign-up page; demo and verified
		// identities are bounced away from it.
		Entry bool
		// VerifyPage marks the "confirm your email" page, useless to
		// anyone already verified.
		VerifyPage bool
	}

	// Decision is the guard's verdict on a navigation.
	Decision int
)

const (
	// Allow admits the navigation.
	Allow Decision = iota
	// Defer means the identity is still resolving; render nothing and
	// re-evaluate once loading completes.
	Defer
	// RedirectEntry sends the visitor to the sign-in page.
	RedirectEntry
	// RedirectVerify sends an unverified account to the verification page.
	RedirectVerify
	// RedirectHome sends the visitor to their home page.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Defer:
		return "defer"
	case RedirectEntry:
		return "redirect-entry"
	case RedirectVerify:
		return "redirect-verify"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Decide evaluates a navigation against the current session. It is a pure
// function of its inputs; the same session and target always yield the same
// decision.
func Decide(sess Session, target Target) Decision {
	if sess.Loading {
		return Defer
	}

	switch sess.Identity.Kind {
	case Anonymous:
		if target.RequiresAuth || target.VerifyPage {
			return RedirectEntry
		}
		return Allow

	case Demo:
		if target.Entry || target.VerifyPage {
			return RedirectHome
		}
		return Allow

	case Authenticated:
		verified := sess.EffectivelyVerified()
		if target.Entry {
			if verified {
				return RedirectHome
			}
			return Allow
		}
		if target.VerifyPage {
			if verified {
				return RedirectHome
			}
			return Allow
		}
		if target.RequiresVerified && !verified {
			return RedirectVerify
		}
		return Allow
	}
	return RedirectEntry
}
