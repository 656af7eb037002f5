package product

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/actors"
	"github.com/shopstate/cartflow/event"
	"github.com/shopstate/cartflow/store"
)

type sentMessage struct {
	Target event.Address
	Event  event.Event
}

// sendRecorder captures outbound messages instead of delivering them.
type sendRecorder struct {
	mtx  sync.Mutex
	sent []sentMessage
}

func (r *sendRecorder) Send(_ context.Context, target event.Address, evt event.Event) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.sent = append(r.sent, sentMessage{Target: target, Event: evt})
	return nil
}

func (r *sendRecorder) messages() []sentMessage {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

func (r *sendRecorder) reset() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.sent = nil
}

func newTestActor(t *testing.T, st store.StateStore, id string) (actors.Actor, *sendRecorder, *actors.Context) {
	t.Helper()
	actor := New(st, zap.NewNop())(id)
	require.NoError(t, actor.Init(context.Background()))
	recorder := &sendRecorder{}
	ctx := actors.NewContext(context.Background(), event.ProductAddress(id), recorder, nil, zap.NewNop())
	return actor, recorder, ctx
}

func widgetEvent() *event.Product {
	return &event.Product{
		ID:           "P1",
		Title:        "Widget",
		Description:  "A widget",
		Price:        42.42,
		Availability: event.InStock,
	}
}

func subscription(action event.SubscriptionAction, cartID string) *event.FunctionSubscription {
	return &event.FunctionSubscription{
		Action:     action,
		Publisher:  event.ProductAddress("P1"),
		Subscriber: event.CartAddress(cartID),
	}
}

func TestSubscribeAlwaysSyncs(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, widgetEvent()))

	require.NoError(t, actor.Receive(ctx, subscription(event.Subscribe, "C1")))
	sent := recorder.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "example:cart:C1", sent[0].Target.Key())
	reply, ok := sent[0].Event.(*event.Product)
	require.True(t, ok)
	assert.Equal(t, 42.42, reply.Price)

	// re-subscribing still syncs, and does not duplicate the registry
	recorder.reset()
	require.NoError(t, actor.Receive(ctx, subscription(event.Subscribe, "C1")))
	require.Len(t, recorder.messages(), 1)

	recorder.reset()
	require.NoError(t, actor.Receive(ctx, widgetEvent()))
	assert.Len(t, recorder.messages(), 1, "one fan-out delivery per distinct subscriber")
}

func TestQuerySyncsWithoutRegistering(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, widgetEvent()))

	require.NoError(t, actor.Receive(ctx, subscription(event.Query, "C1")))
	require.Len(t, recorder.messages(), 1)

	recorder.reset()
	require.NoError(t, actor.Receive(ctx, widgetEvent()))
	assert.Empty(t, recorder.messages(), "a query must not register a subscriber")
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, widgetEvent()))
	require.NoError(t, actor.Receive(ctx, subscription(event.Subscribe, "C1")))
	recorder.reset()

	require.NoError(t, actor.Receive(ctx, subscription(event.Unsubscribe, "C1")))
	require.NoError(t, actor.Receive(ctx, subscription(event.Unsubscribe, "C1")))
	assert.Empty(t, recorder.messages(), "unsubscribe never replies")

	require.NoError(t, actor.Receive(ctx, widgetEvent()))
	assert.Empty(t, recorder.messages(), "removed subscriber receives nothing")
}

func TestFanOutCompleteness(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, widgetEvent()))

	cartIDs := []string{"C1", "C2", "C3"}
	for _, cartID := range cartIDs {
		require.NoError(t, actor.Receive(ctx, subscription(event.Subscribe, cartID)))
	}
	recorder.reset()

	update := widgetEvent()
	update.Price = 43.00
	require.NoError(t, actor.Receive(ctx, update))

	sent := recorder.messages()
	require.Len(t, sent, len(cartIDs))
	targets := make(map[string]bool)
	for _, msg := range sent {
		targets[msg.Target.Key()] = true
		reply, ok := msg.Event.(*event.Product)
		require.True(t, ok)
		assert.Equal(t, 43.00, reply.Price, "fan-out reflects the just-stored state")
	}
	assert.Len(t, targets, len(cartIDs), "one delivery per distinct subscriber")
}

func TestSubscribeBeforeStateSendsNoReply(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, subscription(event.Subscribe, "C1")))
	assert.Empty(t, recorder.messages(), "nothing to sync without state")

	// the registration itself took effect
	require.NoError(t, actor.Receive(ctx, widgetEvent()))
	assert.Len(t, recorder.messages(), 1)
}

func TestIncompleteSubscriberAddressIsDropped(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, widgetEvent()))

	bad := subscription(event.Subscribe, "C1")
	bad.Subscriber.ID = ""
	require.NoError(t, actor.Receive(ctx, bad))
	assert.Empty(t, recorder.messages())
}

func TestUnexpectedEventTypeIgnored(t *testing.T) {
	actor, recorder, ctx := newTestActor(t, store.NewMemory(), "P1")
	require.NoError(t, actor.Receive(ctx, &event.CartProduct{CartID: "C1", ProductID: "P1", Quantity: 1}))
	assert.Empty(t, recorder.messages())
}

func TestRegistrySurvivesRestart(t *testing.T) {
	st := store.NewMemory()
	actor, _, ctx := newTestActor(t, st, "P1")
	require.NoError(t, actor.Receive(ctx, widgetEvent()))
	require.NoError(t, actor.Receive(ctx, subscription(event.Subscribe, "C1")))

	// a fresh instance over the same store recovers state and registry
	revived, recorder, ctx := newTestActor(t, st, "P1")
	require.NoError(t, revived.Receive(ctx, widgetEvent()))
	sent := recorder.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "example:cart:C1", sent[0].Target.Key())
}
