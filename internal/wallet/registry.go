package wallet

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Wallet is a connected identity. Signing is an optional capability that
// callers discover with a type assertion.
type Wallet interface {
	Name() string
	Address() string
}

var ErrNotRegistered = errors.New("wallet not registered")

// Registry tracks discovered wallets and the one currently connected.
// Populate with Register, connect on demand, Disconnect or Clear on teardown.
type Registry struct {
	mu      sync.Mutex
	wallets []Wallet
	active  Wallet
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds w unless a wallet with the same name is already known.
func (r *Registry) Register(w Wallet) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.Name() == w.Name() {
			return false
		}
	}
	r.wallets = append(r.wallets, w)
	slog.Info("wallet registered", "wallet", w.Name())
	return true
}

func (r *Registry) Wallets() []Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Wallet, len(r.wallets))
	copy(out, r.wallets)
	return out
}

func (r *Registry) Connect(name string) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.Name() == name {
			r.active = w
			slog.Info("wallet connected", "wallet", name, "address", w.Address())
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
}

func (r *Registry) Active() (Wallet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != nil
}

func (r *Registry) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
}

// Clear forgets every discovered wallet along with the active connection.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets = nil
	r.active = nil
}
