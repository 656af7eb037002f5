// Package actors hosts actor instances keyed by (type, id). It gives
// each key a serialized mailbox, durable-state friendly activation, and
// passivation of idle instances. Actors never share state; everything
// crosses between them as immutable message values.
package actors

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shopstate/cartflow/event"
)

// Actor processes the messages addressed to a single key, one at a
// time, in arrival order.
type Actor interface {
	// Init runs once before the first message, typically to recover
	// persisted state. It is retried with backoff on failure.
	Init(ctx context.Context) error
	// Receive handles one message. Returning an error only logs it; the
	// mailbox keeps processing.
	Receive(ctx *Context, evt event.Event) error
}

// Factory creates the actor instance for one business key.
type Factory func(id string) Actor

// Registry maps actor kinds to their factories. It is built once at
// startup; dispatch never discovers actor types at runtime.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a kind (the address type component) to a factory and
// returns the registry for chaining.
func (r *Registry) Register(kind string, factory Factory) *Registry {
	r.factories[kind] = factory
	return r
}

// factory resolves the factory for an address, or errors for a kind
// nothing registered.
func (r *Registry) factory(addr event.Address) (Factory, error) {
	factory, ok := r.factories[addr.Type]
	if !ok {
		return nil, errors.Errorf("no actor registered for kind %q", addr.Type)
	}
	return factory, nil
}
