package actors

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopstate/cartflow/event"
)

// Sender delivers a message to the actor at target.
type Sender interface {
	Send(ctx context.Context, target event.Address, evt event.Event) error
}

// Egress publishes an event to the outbound transport, partitioned by
// the given key.
type Egress interface {
	Publish(ctx context.Context, evt event.Event, partitionKey string) error
}

// Context carries the identity of the executing actor and its outbound
// effects. All sends are asynchronous fire-and-forget; there is no
// call-and-response primitive.
type Context struct {
	ctx    context.Context
	self   event.Address
	sender Sender
	egress Egress
	logger *zap.Logger
}

// NewContext builds a handler context. The runtime creates these per
// message; tests can build them directly around fakes.
func NewContext(ctx context.Context, self event.Address, sender Sender, egress Egress, logger *zap.Logger) *Context {
	return &Context{ctx: ctx, self: self, sender: sender, egress: egress, logger: logger}
}

// Context returns the underlying context of the current delivery.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Self returns the address of the executing actor.
func (c *Context) Self() event.Address {
	return c.self
}

// Send queues evt for the actor at target. Failures are logged, not
// returned; delivery guarantees are the runtime's concern.
func (c *Context) Send(target event.Address, evt event.Event) {
	if err := c.sender.Send(c.ctx, target, evt); err != nil {
		c.logger.Error("failed to forward message",
			zap.String("from", c.self.Key()),
			zap.String("to", target.Key()),
			zap.String("type", evt.EventType()),
			zap.Error(err))
	}
}

// SendEgress publishes evt to the egress transport under partitionKey.
func (c *Context) SendEgress(evt event.Event, partitionKey string) {
	if c.egress == nil {
		c.logger.Warn("no egress configured, dropping event",
			zap.String("type", evt.EventType()))
		return
	}
	if err := c.egress.Publish(c.ctx, evt, partitionKey); err != nil {
		c.logger.Error("failed to publish egress event",
			zap.String("from", c.self.Key()),
			zap.String("type", evt.EventType()),
			zap.Error(err))
	}
}
