// Package cart implements the cart actor. It tracks the items in one
// cart and keeps a denormalized product snapshot per item by
// subscribing to the product actors the cart depends on.
package cart

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/actors"
	"github.com/shopstate/cartflow/event"
	"github.com/shopstate/cartflow/store"
)

// State is the persisted state of one cart. It exists only while the
// cart holds at least one item.
type State struct {
	ID             string           `json:"id"`
	DateCreatedUTC time.Time        `json:"dateCreatedUtc"`
	Items          map[string]*Item `json:"items"`
}

// Item tracks one product position in the cart plus the latest snapshot
// received from the product actor. Price and availability are zero
// until the first sync arrives.
type Item struct {
	ProductID           string             `json:"productId"`
	SubscribedToProduct bool               `json:"subscribedToProduct"`
	OriginPrice         float64            `json:"originPrice"`
	Price               float64            `json:"price"`
	Quantity            int                `json:"quantity"`
	Availability        event.Availability `json:"availability,omitempty"`
}

// Actor owns one cart's item list.
type Actor struct {
	id      string
	version string
	store   store.StateStore
	logger  *zap.Logger

	state *State
}

var _ actors.Actor = (*Actor)(nil)

// New returns the factory registered for the cart actor kind. The
// version tag is stamped on every cart-status item.
func New(st store.StateStore, version string, logger *zap.Logger) actors.Factory {
	return func(id string) actors.Actor {
		return &Actor{
			id:      id,
			version: version,
			store:   st,
			logger:  logger.With(zap.String("actor", event.CartAddress(id).Key())),
		}
	}
}

// Init recovers the persisted cart, if any.
func (a *Actor) Init(_ context.Context) error {
	data, err := a.store.Load(a.id)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return errors.Wrapf(err, "decode cart state %s", a.id)
	}
	if state.Items == nil {
		state.Items = make(map[string]*Item)
	}
	a.state = &state
	return nil
}

func (a *Actor) Receive(ctx *actors.Context, evt event.Event) error {
	switch e := evt.(type) {
	case *event.CartProduct:
		return a.handleCartProduct(ctx, e)
	case *event.Product:
		return a.handleProduct(ctx, e)
	default:
		a.logger.Info("ignoring event", zap.String("type", evt.EventType()))
		return nil
	}
}

// handleCartProduct applies a quantity delta. Quantities never go below
// zero. The first positive quantity for a product subscribes the cart
// to that product; reaching zero unsubscribes and removes the item.
// When the last item goes, the whole persisted state goes with it and
// the actor reverts to nonexistent. No egress event is emitted here:
// the consolidated status is derived from product updates, not from
// cart edits.
func (a *Actor) handleCartProduct(ctx *actors.Context, e *event.CartProduct) error {
	state := a.state
	if state == nil {
		a.logger.Info("creating cart state")
		state = &State{
			ID:             e.CartID,
			DateCreatedUTC: time.Now().UTC(),
			Items:          make(map[string]*Item),
		}
	}

	item := state.Items[e.ProductID]
	startingQuantity := 0
	if item != nil {
		startingQuantity = item.Quantity
	}
	resultingQuantity := startingQuantity + e.Quantity
	if resultingQuantity < 0 {
		resultingQuantity = 0
	}

	if item == nil && resultingQuantity > 0 {
		item = &Item{ProductID: e.ProductID}
	}
	if item != nil {
		item.Quantity = resultingQuantity
		// the origin price always reflects the latest price the customer saw
		item.OriginPrice = e.OriginPrice

		if item.Quantity > 0 && !item.SubscribedToProduct {
			a.sendSubscription(ctx, e.ProductID, event.Subscribe)
			item.SubscribedToProduct = true
		}
		if item.Quantity == 0 {
			if item.SubscribedToProduct {
				a.sendSubscription(ctx, e.ProductID, event.Unsubscribe)
				item.SubscribedToProduct = false
			}
			delete(state.Items, e.ProductID)
		} else {
			state.Items[e.ProductID] = item
		}
	}

	if len(state.Items) == 0 {
		a.state = nil
		return a.store.Clear(a.id)
	}
	a.state = state
	return a.save()
}

// handleProduct refreshes the item snapshot from a subscribed product
// update and emits the consolidated cart status. Updates for a cart or
// item that no longer exists are stale (unsubscribe race) and ignored.
func (a *Actor) handleProduct(ctx *actors.Context, e *event.Product) error {
	if a.state == nil {
		a.logger.Info("no cart state, ignoring product update",
			zap.String("productId", e.ID))
		return nil
	}
	item := a.state.Items[e.ID]
	if item == nil {
		return nil
	}
	item.Price = e.Price
	item.Availability = e.Availability
	if err := a.save(); err != nil {
		return err
	}
	a.emitStatus(ctx)
	return nil
}

// emitStatus publishes the consolidated cart view to egress, keyed by
// the cart id for downstream partitioning.
func (a *Actor) emitStatus(ctx *actors.Context) {
	status := &event.CartStatus{
		CartID: a.state.ID,
		Items:  make([]event.CartItemStatus, 0, len(a.state.Items)),
	}
	productIDs := make([]string, 0, len(a.state.Items))
	for productID := range a.state.Items {
		productIDs = append(productIDs, productID)
	}
	sort.Strings(productIDs)
	for _, productID := range productIDs {
		item := a.state.Items[productID]
		status.Items = append(status.Items, event.CartItemStatus{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			OriginPrice:  item.OriginPrice,
			CurrentPrice: item.Price,
			Availability: item.Availability,
			Version:      a.version,
		})
	}
	ctx.SendEgress(status, a.state.ID)
}

// sendSubscription sends a subscribe/unsubscribe message to the product
// actor that owns productID. The message is addressed to the publisher
// and carries this cart's address for the reply and future updates.
func (a *Actor) sendSubscription(ctx *actors.Context, productID string, action event.SubscriptionAction) {
	ctx.Send(event.ProductAddress(productID), &event.FunctionSubscription{
		Action:        action,
		Publisher:     event.ProductAddress(productID),
		Subscriber:    event.CartAddress(a.id),
		CorrelationID: uuid.NewString(),
	})
}

func (a *Actor) save() error {
	data, err := json.Marshal(a.state)
	if err != nil {
		return errors.Wrapf(err, "encode cart state %s", a.id)
	}
	return a.store.Save(a.id, data)
}
