package credential

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// Credential is a single bearer token and the time from which it may be used.
type Credential struct {
	// Token is the secret presented in the Authorization header.
	Token string

	// AvailableAt is the earliest time the token may be handed out again.
	// The zero value means the token is available immediately.
	AvailableAt time.Time
}

// Pool rotates over a fixed set of tokens.
//
// Design decision: The cursor and the per-token availability are guarded by
// one mutex. Acquire reads availability and moves the cursor in the same
// critical section, so concurrent callers never observe a half-updated cursor.
type Pool struct {
	mu sync.Mutex

	// creds holds the tokens in rotation order. Entries are never removed.
	creds []Credential

	// cursor is the index handed out by the next Acquire, provided that
	// credential is still available.
	cursor int

	// now returns the current time. Tests replace it with a fake clock.
	now func() time.Time

	// shuffle randomizes the rotation order at construction.
	shuffle bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithClock sets the time source used to evaluate cooldowns.
func WithClock(now func() time.Time) PoolOption {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}

// WithoutShuffle keeps the tokens in the order they were given.
func WithoutShuffle() PoolOption {
	return func(p *Pool) {
		p.shuffle = false
	}
}

// NewPool builds a pool from tokens. Duplicates are dropped and the
// remaining tokens are shuffled unless WithoutShuffle is given, so that
// separate runs sharing one token list do not all start on the same token.
func NewPool(tokens []string, opts ...PoolOption) *Pool {
	p := &Pool{
		now:     time.Now,
		shuffle: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, t := range Dedupe(tokens) {
		p.creds = append(p.creds, Credential{Token: t})
	}
	if p.shuffle {
		rand.Shuffle(len(p.creds), func(i, j int) {
			p.creds[i], p.creds[j] = p.creds[j], p.creds[i]
		})
	}

	return p
}

// Len returns the number of tokens in the pool, available or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Acquire returns the next available credential in round-robin order.
// It never blocks: when every credential is cooling down it returns false
// and the caller decides whether to wait or give up.
//
// Among available credentials the cursor advances strictly past the one just
// returned, wrapping at the end. When the cursor points at a credential that
// has since been disabled, rotation resumes from the first available one.
func (p *Pool) Acquire() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	avail := p.availableLocked()
	if len(avail) == 0 {
		return Credential{}, false
	}

	pos := slices.Index(avail, p.cursor)
	if pos < 0 {
		pos = 0
		p.cursor = avail[0]
	}
	c := p.creds[p.cursor]

	next := pos + 1
	if next >= len(avail) {
		next = 0
	}
	p.cursor = avail[next]

	return c, true
}

// Disable withholds token from rotation for cooldown, measured from now.
// Unknown tokens are ignored.
func (p *Pool) Disable(token string, cooldown time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	until := p.now().Add(cooldown)
	for i := range p.creds {
		if p.creds[i].Token == token {
			p.creds[i].AvailableAt = until
			return
		}
	}
}

// HasAvailable reports whether at least one credential may be used now.
func (p *Pool) HasAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.availableLocked()) > 0
}

// Available returns the number of credentials usable right now.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.availableLocked())
}

// NextAvailableAt returns the earliest time any credential becomes usable.
// It returns the zero time for an empty pool.
func (p *Pool) NextAvailableAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	var earliest time.Time
	for i, c := range p.creds {
		if i == 0 || c.AvailableAt.Before(earliest) {
			earliest = c.AvailableAt
		}
	}
	return earliest
}

// availableLocked returns the indices of usable credentials in rotation
// order. The caller must hold p.mu.
func (p *Pool) availableLocked() []int {
	now := p.now()
	avail := make([]int, 0, len(p.creds))
	for i, c := range p.creds {
		if !c.AvailableAt.After(now) {
			avail = append(avail, i)
		}
	}
	return avail
}
