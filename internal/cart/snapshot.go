package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/angelmondragon/colchonesapp/pkg/redis"
)

// Snapshot is the serializable state of a cart.
type Snapshot struct {
	PaymentMethod string `json:"payment_method"`
	Items         []Item `json:"items"`
}

// Snapshot captures the current cart state.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{PaymentMethod: c.method, Items: c.copyItems()}
}

// Restore replaces the cart content with s. Lines with a blank code or a
// quantity of 0 or below are skipped and repeated codes are merged. An
// unknown payment method rejects the whole snapshot.
func (c *Cart) Restore(s Snapshot) error {
	if !c.recognized(s.PaymentMethod) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", s.PaymentMethod))
	}

	items := make([]Item, 0, len(s.Items))
	index := make(map[string]int, len(s.Items))
	for _, item := range s.Items {
		code := strings.TrimSpace(item.Code)
		if code == "" || item.Quantity <= 0 {
			continue
		}
		if idx, ok := index[code]; ok {
			items[idx].Quantity = addQuantity(items[idx].Quantity, item.Quantity)
			continue
		}
		item.Code = code
		item.Product.Code = code
		index[code] = len(items)
		items = append(items, item)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.method = s.PaymentMethod
	c.items = items
	return nil
}

// SnapshotStore persists cart snapshots between process restarts.
type SnapshotStore interface {
	// Load returns nil when no snapshot exists for the session.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snapshot Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartSnapshotKey(sessionID string) string
}

// RedisSnapshots stores cart snapshots as JSON strings in Redis.
type RedisSnapshots struct {
	store kv
	ttl   time.Duration
}

// NewRedisSnapshots builds a Redis-backed SnapshotStore. A zero ttl keeps
// snapshots until they are deleted.
func NewRedisSnapshots(store kv, ttl time.Duration) (*RedisSnapshots, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisSnapshots{store: store, ttl: ttl}, nil
}

func (r *RedisSnapshots) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	raw, err := r.store.Get(ctx, r.store.CartSnapshotKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart snapshot")
	}
	return &snapshot, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, sessionID string, snapshot Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := r.store.Set(ctx, r.store.CartSnapshotKey(sessionID), string(raw), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart snapshot")
	}
	return nil
}

func (r *RedisSnapshots) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.CartSnapshotKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
	}
	return nil
}
