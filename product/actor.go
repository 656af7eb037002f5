// Package product implements the product actor: the owner of one
// product's attributes and of the registry of actors subscribed to its
// updates.
package product

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/actors"
	"github.com/shopstate/cartflow/event"
	"github.com/shopstate/cartflow/store"
)

// Details are the authoritative attributes of one product.
type Details struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Price        float64            `json:"price"`
	Availability event.Availability `json:"availability"`
}

// Subscriber is one entry in the fan-out registry.
type Subscriber struct {
	Namespace     string    `json:"namespace"`
	Type          string    `json:"type"`
	ID            string    `json:"id"`
	DateCreated   time.Time `json:"dateCreated"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// Address returns the subscriber's actor address.
func (s Subscriber) Address() event.Address {
	return event.Address{Namespace: s.Namespace, Type: s.Type, ID: s.ID}
}

// Key returns the registry key, "namespace:type:id".
func (s Subscriber) Key() string {
	return s.Address().Key()
}

// persistedState is the single durable record of a product actor: the
// product attributes (nil until the first update arrives) plus the
// subscriber registry.
type persistedState struct {
	Product     *Details              `json:"product"`
	Subscribers map[string]Subscriber `json:"subscribers"`
}

// Actor owns one product's state and its subscriber registry.
type Actor struct {
	id     string
	store  store.StateStore
	logger *zap.Logger

	details     *Details
	subscribers map[string]Subscriber
}

var _ actors.Actor = (*Actor)(nil)

// New returns the factory registered for the product actor kind.
func New(st store.StateStore, logger *zap.Logger) actors.Factory {
	return func(id string) actors.Actor {
		return &Actor{
			id:     id,
			store:  st,
			logger: logger.With(zap.String("actor", event.ProductAddress(id).Key())),
		}
	}
}

// Init recovers the persisted record, if any.
func (a *Actor) Init(_ context.Context) error {
	data, err := a.store.Load(a.id)
	if err != nil {
		return err
	}
	a.subscribers = make(map[string]Subscriber)
	if data == nil {
		return nil
	}
	var record persistedState
	if err := json.Unmarshal(data, &record); err != nil {
		return errors.Wrapf(err, "decode product state %s", a.id)
	}
	a.details = record.Product
	if record.Subscribers != nil {
		a.subscribers = record.Subscribers
	}
	return nil
}

func (a *Actor) Receive(ctx *actors.Context, evt event.Event) error {
	switch e := evt.(type) {
	case *event.Product:
		return a.handleProduct(ctx, e)
	case *event.FunctionSubscription:
		return a.handleSubscription(ctx, e)
	default:
		a.logger.Info("ignoring event", zap.String("type", evt.EventType()))
		return nil
	}
}

// handleProduct overwrites the stored attributes and fans the new state
// out to every registered subscriber. Deliveries are independent; none
// blocks on another.
func (a *Actor) handleProduct(ctx *actors.Context, e *event.Product) error {
	a.details = &Details{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Price:        e.Price,
		Availability: e.Availability,
	}
	if err := a.save(); err != nil {
		return err
	}
	update := a.eventFromState()
	for _, sub := range a.subscribers {
		ctx.Send(sub.Address(), update)
	}
	return nil
}

// handleSubscription maintains the subscriber registry. UNSUBSCRIBE
// removes the entry and sends no reply. SUBSCRIBE upserts the entry.
// Every non-UNSUBSCRIBE action gets an immediate sync of the current
// state, whether or not the subscriber was already registered, so a
// subscribing actor always sees current state even if no further update
// ever arrives.
func (a *Actor) handleSubscription(ctx *actors.Context, e *event.FunctionSubscription) error {
	sub := subscriberFrom(e)
	if !sub.Address().Valid() {
		a.logger.Warn("dropping subscription with incomplete subscriber address",
			zap.String("subscriber", sub.Key()))
		return nil
	}
	switch e.Action {
	case event.Unsubscribe:
		delete(a.subscribers, sub.Key())
		return a.save()
	case event.Subscribe:
		a.subscribers[sub.Key()] = sub
		if err := a.save(); err != nil {
			return err
		}
	}
	// SUBSCRIBE and QUERY both sync; QUERY without registering
	if a.details == nil {
		a.logger.Debug("no product state to sync",
			zap.String("subscriber", sub.Key()))
		return nil
	}
	ctx.Send(sub.Address(), a.eventFromState())
	return nil
}

// eventFromState builds the product event reflecting the stored state.
func (a *Actor) eventFromState() *event.Product {
	return &event.Product{
		ID:           a.details.ID,
		Title:        a.details.Title,
		Description:  a.details.Description,
		Price:        a.details.Price,
		Availability: a.details.Availability,
	}
}

func (a *Actor) save() error {
	data, err := json.Marshal(persistedState{Product: a.details, Subscribers: a.subscribers})
	if err != nil {
		return errors.Wrapf(err, "encode product state %s", a.id)
	}
	return a.store.Save(a.id, data)
}

// subscriberFrom converts subscription details into a registry entry,
// stamping the creation time.
func subscriberFrom(e *event.FunctionSubscription) Subscriber {
	return Subscriber{
		Namespace:     e.Subscriber.Namespace,
		Type:          e.Subscriber.Type,
		ID:            e.Subscriber.ID,
		DateCreated:   time.Now().UTC(),
		CorrelationID: e.CorrelationID,
	}
}
