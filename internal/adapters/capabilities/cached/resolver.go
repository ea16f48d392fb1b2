package cached

import (
	"context"
	"sync"
	"time"

	"metrology-records/internal/ports/auth"
	"metrology-records/internal/ports/capabilities"
)

const DefaultTTL = time.Minute

// Resolver cachea las decisiones de otro ModuleResolver por (usuario, rol, módulo).
// Los errores no se cachean.
type Resolver struct {
	inner capabilities.ModuleResolver
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[key]entry
}

type key struct {
	userID string
	role   string
	module capabilities.Module
}

type entry struct {
	allowed bool
	expires time.Time
}

func New(inner capabilities.ModuleResolver, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[key]entry),
	}
}

func (r *Resolver) HasModule(ctx context.Context, claims auth.Claims, module capabilities.Module) (bool, error) {
	k := key{userID: claims.UserID, role: claims.Role, module: module}
	now := r.now()

	r.mu.Lock()
	e, ok := r.entries[k]
	r.mu.Unlock()
	if ok && now.Before(e.expires) {
		return e.allowed, nil
	}

	allowed, err := r.inner.HasModule(ctx, claims, module)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	r.entries[k] = entry{allowed: allowed, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return allowed, nil
}

// Invalidate descarta lo cacheado para un usuario (p.ej. tras cambiarle el rol).
func (r *Resolver) Invalidate(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.entries {
		if k.userID == userID {
			delete(r.entries, k)
		}
	}
}
