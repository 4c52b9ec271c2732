package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// poller periodically re-checks an unverified account's verification status
// with the identity provider. One poller runs per unverified sign-in; it
// stops on verification, on identity change and on store shutdown.
type poller struct {
	store    *Store
	gen      uint64
	acct     Account
	interval time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

func newPoller(store *Store, gen uint64, acct Account, interval time.Duration) *poller {
	return &poller{
		store:    store,
		gen:      gen,
		acct:     acct,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (p *poller) start() { go p.run() }

// stop is idempotent and safe to call from the poller's own upcall path.
func (p *poller) stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			verified, err := p.check()
			if err != nil {
				// transient; keep polling at the same cadence
				p.store.logger.Warn(fmt.Sprintf("session: verification check %s: %v", p.acct.ID, err), err)
				continue
			}
			if verified {
				p.store.markVerified(p.gen)
				return
			}
		}
	}
}

func (p *poller) check() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()
	return p.store.provider.CheckVerified(ctx, p.acct)
}
