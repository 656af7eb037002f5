package actors

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/event"
)

// System manages actor instances and dispatches addressed messages to
// them. Messages for one address are processed one at a time, in the
// order they were queued; actors that stay idle beyond the configured
// inactivity window are passivated and recreated on the next message.
type System struct {
	registry *Registry
	actors   *actorMap
	egress   Egress
	logger   *zap.Logger

	maxActorInactivity   time.Duration
	passivationFrequency time.Duration
	mailboxSize          int

	isReceiving atomic.Bool
	stopCh      chan struct{}
	stopOnce    sync.Once
}

var _ Sender = (*System)(nil)

// NewSystem returns a new actor system over the given registry. The
// egress may be nil when nothing is published outward (tests).
func NewSystem(registry *Registry, egress Egress, logger *zap.Logger, opts ...Option) *System {
	system := &System{
		registry:             registry,
		actors:               newActorMap(100),
		egress:               egress,
		logger:               logger,
		maxActorInactivity:   2 * time.Minute,
		passivationFrequency: 30 * time.Second,
		mailboxSize:          64,
		stopCh:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(system)
	}
	return system
}

// Start begins accepting messages and runs the passivation loop.
func (x *System) Start() {
	if !x.isReceiving.CompareAndSwap(false, true) {
		return
	}
	go x.passivateLoop()
}

// Stop halts the passivation loop and drains every live mailbox.
func (x *System) Stop() {
	x.stopOnce.Do(func() {
		x.isReceiving.Store(false)
		close(x.stopCh)
		for _, mb := range x.actors.list() {
			mb.halt()
			x.actors.delete(mb.address.Key())
		}
	})
}

// Send queues a message for the actor at target, creating the actor if
// it is not live. Send returns once the message is in the target's
// mailbox; processing is asynchronous.
func (x *System) Send(ctx context.Context, target event.Address, evt event.Event) error {
	if !x.isReceiving.Load() {
		return errors.New("actor system is not receiving messages")
	}
	for {
		mb, err := x.getActor(ctx, target)
		if err != nil {
			return err
		}
		if mb.push(ctx, evt) {
			return nil
		}
		// the mailbox stopped between lookup and push (passivation race);
		// wait for the registry to drop it, then recreate
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "send to %s", target.Key())
		}
		time.Sleep(time.Millisecond)
	}
}

// getActor gets or creates the mailbox for an address.
func (x *System) getActor(ctx context.Context, target event.Address) (*mailbox, error) {
	factory, err := x.registry.factory(target)
	if err != nil {
		return nil, err
	}
	mb := x.actors.getOrCreate(target.Key(), func() *mailbox {
		x.logger.Debug("spawning actor", zap.String("actor", target.Key()))
		return newMailbox(ctx, target, factory(target.ID), x)
	})
	return mb, nil
}

// ActorCount returns the number of live actor instances.
func (x *System) ActorCount() int {
	return len(x.actors.list())
}

// passivateLoop periodically stops actors that have been idle too long.
// Their state lives in the store, so the next message simply recreates
// them.
func (x *System) passivateLoop() {
	ticker := time.NewTicker(x.passivationFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-x.stopCh:
			return
		case <-ticker.C:
			for _, mb := range x.actors.list() {
				idle := mb.idleTime()
				if idle >= x.maxActorInactivity {
					mb.halt()
					x.actors.delete(mb.address.Key())
					x.logger.Info("actor passivated",
						zap.String("actor", mb.address.Key()),
						zap.Duration("idle", idle.Round(time.Second)))
				}
			}
		}
	}
}

// actorMap is a mutex-guarded map of live mailboxes keyed by address.
type actorMap struct {
	mailboxes map[string]*mailbox
	mtx       sync.Mutex
}

func newActorMap(initialCapacity int) *actorMap {
	return &actorMap{mailboxes: make(map[string]*mailbox, initialCapacity)}
}

func (x *actorMap) getOrCreate(key string, factory func() *mailbox) *mailbox {
	x.mtx.Lock()
	defer x.mtx.Unlock()
	mb, exists := x.mailboxes[key]
	if !exists {
		mb = factory()
		x.mailboxes[key] = mb
	}
	return mb
}

func (x *actorMap) delete(key string) {
	x.mtx.Lock()
	defer x.mtx.Unlock()
	delete(x.mailboxes, key)
}

func (x *actorMap) list() []*mailbox {
	x.mtx.Lock()
	defer x.mtx.Unlock()
	out := make([]*mailbox, 0, len(x.mailboxes))
	for _, mb := range x.mailboxes {
		out = append(out, mb)
	}
	return out
}
