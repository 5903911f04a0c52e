// Package settings provides atomic access to the runtime-tunable
// admin configuration. Each request captures one snapshot pointer at
// start and works against it for its whole lifetime; admin updates
// swap the pointer without touching in-flight requests.
package settings

import (
	"sync/atomic"

	domset "github.com/kailas-cloud/snapfind/internal/domain/settings"
)

// Provider holds the current admin settings snapshot.
type Provider struct {
	current atomic.Pointer[domset.Admin]
}

// NewProvider creates a provider seeded with the given snapshot.
func NewProvider(seed domset.Admin) (*Provider, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	p := &Provider{}
	p.current.Store(&seed)
	return p, nil
}

// Get returns the current immutable snapshot. Callers must not mutate it.
func (p *Provider) Get() *domset.Admin {
	return p.current.Load()
}

// Update validates and atomically installs a new snapshot.
func (p *Provider) Update(next domset.Admin) error {
	if err := next.Validate(); err != nil {
		return err
	}
	p.current.Store(&next)
	return nil
}
