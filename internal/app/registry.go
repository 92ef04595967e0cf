package app

import (
	"context"
	"sync"
)

// ReviewerFactory builds an unrestored Reviewer for a user and course. wallet
// is the user's shared Wallet, or nil for the user's first course, in which
// case the Reviewer builds one and the Registry shares it from then on.
type ReviewerFactory func(userID, course string, wallet *Wallet) *Reviewer

// Registry shares one Reviewer per (user, course) between connections and one
// Wallet per user between courses. A Reviewer is restored on first acquire
// and dropped on last release.
type Registry struct {
	factory ReviewerFactory

	mu      sync.Mutex
	entries map[string]*registryEntry
	wallets map[string]*walletEntry
}

type registryEntry struct {
	reviewer *Reviewer
	refs     int
	ready    chan struct{}
}

type walletEntry struct {
	wallet *Wallet
	refs   int
}

func NewRegistry(factory ReviewerFactory) *Registry {
	return &Registry{
		factory: factory,
		entries: make(map[string]*registryEntry),
		wallets: make(map[string]*walletEntry),
	}
}

// Acquire returns the restored Reviewer for userID and course. Every Acquire
// must be paired with a Release. Restoring happens outside the registry lock;
// concurrent callers for the same key wait for it.
func (g *Registry) Acquire(ctx context.Context, userID, course string) *Reviewer {
	key := registryKey(userID, course)

	g.mu.Lock()
	if e, ok := g.entries[key]; ok {
		e.refs++
		g.mu.Unlock()
		<-e.ready
		return e.reviewer
	}
	we, ok := g.wallets[userID]
	var wallet *Wallet
	if ok {
		wallet = we.wallet
	}
	r := g.factory(userID, course, wallet)
	if !ok {
		we = &walletEntry{wallet: r.Wallet()}
		g.wallets[userID] = we
	}
	we.refs++
	e := &registryEntry{reviewer: r, refs: 1, ready: make(chan struct{})}
	g.entries[key] = e
	g.mu.Unlock()

	r.Restore(context.WithoutCancel(ctx))
	close(e.ready)
	return r
}

// Release drops one reference.
func (g *Registry) Release(userID, course string) {
	key := registryKey(userID, course)

	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(g.entries, key)
	if we, ok := g.wallets[userID]; ok {
		we.refs--
		if we.refs <= 0 {
			delete(g.wallets, userID)
		}
	}
}

// Len returns the number of live reviewers.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func registryKey(userID, course string) string {
	return userID + "\x00" + course
}
