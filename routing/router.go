// Package routing maps inbound business events to the actor addresses
// that should process them. The router itself keeps no state; each rule
// decides independently whether to accept an event, so one event may
// produce zero, one or many forwards.
package routing

import (
	"strings"

	"go.uber.org/zap"

	"github.com/shopstate/cartflow/event"
)

// Forward instructs the runtime to deliver an event to one actor.
type Forward struct {
	Target event.Address
	Event  event.Event
}

// Forwarder is a single routing rule. Rules do not know about each
// other; any subset of them may accept the same event.
type Forwarder interface {
	// Accept reports whether this rule wants the event.
	Accept(evt event.Event) bool
	// Forward maps the event to its forward instructions.
	Forward(evt event.Event) []Forward
}

// Router fans an inbound event across its forwarders.
type Router struct {
	forwarders []Forwarder
	logger     *zap.Logger
}

// New returns a router over the given rules.
func New(logger *zap.Logger, forwarders ...Forwarder) *Router {
	return &Router{forwarders: forwarders, logger: logger}
}

// Default returns the router with the two standard rules: product
// updates to product actors, cart-* events to cart actors.
func Default(logger *zap.Logger) *Router {
	return New(logger, ProductForwarder{}, CartForwarder{})
}

// Route returns the forward instructions for evt. An event no rule
// accepts yields an empty result; that is a drop, not an error.
func (r *Router) Route(evt event.Event) []Forward {
	var out []Forward
	for _, fwd := range r.forwarders {
		if fwd.Accept(evt) {
			out = append(out, fwd.Forward(evt)...)
		}
	}
	if len(out) == 0 {
		r.logger.Debug("no route for event", zap.String("type", evt.EventType()))
	}
	return out
}

// ProductForwarder routes authoritative product updates to the product
// actor keyed by the product id.
type ProductForwarder struct{}

func (ProductForwarder) Accept(evt event.Event) bool {
	return evt.EventType() == event.TypeProduct
}

func (ProductForwarder) Forward(evt event.Event) []Forward {
	p, ok := evt.(*event.Product)
	if !ok {
		return nil
	}
	return []Forward{{Target: event.ProductAddress(p.ID), Event: evt}}
}

// CartForwarder routes every cart-* event to the cart actor keyed by
// the cart id.
type CartForwarder struct{}

func (CartForwarder) Accept(evt event.Event) bool {
	return strings.HasPrefix(evt.EventType(), "cart-")
}

func (CartForwarder) Forward(evt event.Event) []Forward {
	switch e := evt.(type) {
	case *event.CartProduct:
		return []Forward{{Target: event.CartAddress(e.CartID), Event: evt}}
	case *event.CartCleared:
		return []Forward{{Target: event.CartAddress(e.CartID), Event: evt}}
	case *event.CartStatus:
		// cart-status is an egress-only event; nothing consumes it here
		return nil
	}
	return nil
}
