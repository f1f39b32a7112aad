package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
)

// Scope names the set of changes a subscriber cares about.
type Scope string

// EventScope covers every change affecting one event.
func EventScope(eventID uuid.UUID) Scope {
	return Scope("event:" + eventID.String())
}

// OrganizationScope covers every change affecting any event of one organization.
func OrganizationScope(orgID uuid.UUID) Scope {
	return Scope("organization:" + orgID.String())
}

// ScopesOf returns the scopes a change is delivered to.
func ScopesOf(change models.Change) []Scope {
	scopes := make([]Scope, 0, 2)
	if change.EventID != uuid.Nil {
		scopes = append(scopes, EventScope(change.EventID))
	}
	if change.OrganizationID != uuid.Nil {
		scopes = append(scopes, OrganizationScope(change.OrganizationID))
	}
	return scopes
}

// Callback is invoked with every change delivered to a scope.
type Callback func(models.Change)

// RedisPublisher publishes a change to other instances.
type RedisPublisher interface {
	PublishChange(ctx context.Context, scope Scope, change models.Change) error
}

// RedisSubscriber subscribes to a scope's channel and invokes handler for incoming changes.
type RedisSubscriber interface {
	SubscribeScope(scope Scope, handler func(models.Change)) (cancel func(), err error)
}

// Hub maintains scope -> callbacks and fans changes out to them.
// With Redis configured, Publish only writes to Redis and the per-scope Redis
// subscription delivers locally, so each instance delivers exactly once.
type Hub struct {
	scopes   map[Scope]map[uint64]Callback
	subs     map[Scope]func() // cancel Redis subscription per scope
	nextID   uint64
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// NewHub creates a change hub. Both Redis collaborators may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		scopes:   make(map[Scope]map[uint64]Callback),
		subs:     make(map[Scope]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Subscribe registers cb for scope. Starts the Redis subscription for this scope if it is the first subscriber.
// The Redis round trip happens outside the lock; a subscription that loses the race to another is cancelled.
// The returned cancel is idempotent.
func (h *Hub) Subscribe(scope Scope, cb Callback) (func(), error) {
	if scope == "" || cb == nil {
		return nil, fmt.Errorf("subscribe: scope and callback required")
	}
	for {
		if err := h.ensureRedis(scope); err != nil {
			return nil, err
		}
		h.mu.Lock()
		// The last subscriber may have left and cancelled it in between.
		if _, ok := h.subs[scope]; h.redisSub == nil || ok {
			break
		}
		h.mu.Unlock()
	}
	if h.scopes[scope] == nil {
		h.scopes[scope] = make(map[uint64]Callback)
	}
	h.nextID++
	id := h.nextID
	h.scopes[scope][id] = cb
	h.mu.Unlock()

	h.logger.Debug("relay subscriber added", zap.String("scope", string(scope)))
	var once sync.Once
	return func() { once.Do(func() { h.unsubscribe(scope, id) }) }, nil
}

// ensureRedis makes sure scope has a live Redis subscription.
func (h *Hub) ensureRedis(scope Scope) error {
	if h.redisSub == nil {
		return nil
	}
	h.mu.RLock()
	_, ok := h.subs[scope]
	h.mu.RUnlock()
	if ok {
		return nil
	}

	cancel, err := h.redisSub.SubscribeScope(scope, func(change models.Change) {
		h.deliver(scope, change)
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	_, ok = h.subs[scope]
	if !ok {
		h.subs[scope] = cancel
	}
	h.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// unsubscribe removes a callback. Cancels the Redis subscription when the last subscriber leaves.
func (h *Hub) unsubscribe(scope Scope, id uint64) {
	h.mu.Lock()
	m, ok := h.scopes[scope]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(m, id)
	var cancel func()
	if len(m) == 0 {
		delete(h.scopes, scope)
		cancel = h.subs[scope]
		delete(h.subs, scope)
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Publish announces a committed change to the event and organization scopes it touches.
func (h *Hub) Publish(ctx context.Context, change models.Change) error {
	for _, scope := range ScopesOf(change) {
		if h.redis != nil {
			if err := h.redis.PublishChange(ctx, scope, change); err != nil {
				return fmt.Errorf("publish %s: %w", scope, err)
			}
			continue
		}
		h.deliver(scope, change)
	}
	return nil
}

// Subscribers returns the number of callbacks registered for scope.
func (h *Hub) Subscribers(scope Scope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[scope])
}

// deliver invokes local callbacks outside the lock so a callback may cancel itself.
func (h *Hub) deliver(scope Scope, change models.Change) {
	h.mu.RLock()
	m := h.scopes[scope]
	callbacks := make([]Callback, 0, len(m))
	for _, cb := range m {
		callbacks = append(callbacks, cb)
	}
	h.mu.RUnlock()

	for _, cb := range callbacks {
		h.invoke(scope, cb, change)
	}
}

func (h *Hub) invoke(scope Scope, cb Callback, change models.Change) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("relay callback panicked",
				zap.String("scope", string(scope)),
				zap.Any("panic", r),
			)
		}
	}()
	cb(change)
}
