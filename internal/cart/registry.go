package cart

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"go.uber.org/multierr"
)

// Factory builds an empty cart for a new session.
type Factory func() (*Cart, error)

// Registry owns one cart per session. Snapshots are optional; without a store
// carts live only in memory.
type Registry struct {
	mu      sync.Mutex
	carts   map[string]*Cart
	factory Factory
	store   SnapshotStore
	logg    *logger.Logger
}

// NewRegistry builds a session registry. store may be nil.
func NewRegistry(factory Factory, store SnapshotStore, logg *logger.Logger) (*Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("cart factory required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		carts:   make(map[string]*Cart),
		factory: factory,
		store:   store,
		logg:    logg,
	}, nil
}

// Get returns the cart for sessionID, restoring its snapshot or creating an
// empty cart on first use. A snapshot that cannot be loaded is logged and the
// session starts empty.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.carts[sessionID]; ok {
		return c, nil
	}

	c, err := r.factory()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart")
	}

	if r.store != nil {
		ctx = r.logg.WithSessionID(ctx, sessionID)
		snapshot, err := r.store.Load(ctx, sessionID)
		switch {
		case err != nil:
			r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "cart snapshot unavailable, starting empty")
		case snapshot != nil:
			if err := c.Restore(*snapshot); err != nil {
				r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "discarding invalid cart snapshot")
			}
		}
	}

	r.carts[sessionID] = c
	return c, nil
}

// Persist writes the session's snapshot, deleting it once the cart is empty.
func (r *Registry) Persist(ctx context.Context, sessionID string) error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	c, ok := r.carts[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.persist(ctx, sessionID, c)
}

// PersistAll writes every live session, combining failures.
func (r *Registry) PersistAll(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	carts := make(map[string]*Cart, len(r.carts))
	for id, c := range r.carts {
		carts[id] = c
	}
	r.mu.Unlock()

	var errs error
	for id, c := range carts {
		errs = multierr.Append(errs, r.persist(ctx, id, c))
	}
	return errs
}

func (r *Registry) persist(ctx context.Context, sessionID string, c *Cart) error {
	snapshot := c.Snapshot()
	if len(snapshot.Items) == 0 {
		return r.store.Delete(ctx, sessionID)
	}
	return r.store.Save(ctx, sessionID, snapshot)
}

// Sessions reports how many carts are held in memory.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
