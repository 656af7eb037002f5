package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/event"
)

func TestRouteProductEvent(t *testing.T) {
	router := Default(zap.NewNop())
	forwards := router.Route(&event.Product{ID: "P1"})
	require.Len(t, forwards, 1)
	assert.Equal(t, "example:product:P1", forwards[0].Target.Key())
}

func TestRouteCartProductEvent(t *testing.T) {
	router := Default(zap.NewNop())
	forwards := router.Route(&event.CartProduct{CartID: "C1", ProductID: "P1", Quantity: 1})
	require.Len(t, forwards, 1)
	assert.Equal(t, "example:cart:C1", forwards[0].Target.Key())
}

func TestRouteCartClearedEvent(t *testing.T) {
	router := Default(zap.NewNop())
	forwards := router.Route(&event.CartCleared{CartID: "C1"})
	require.Len(t, forwards, 1)
	assert.Equal(t, "example:cart:C1", forwards[0].Target.Key())
}

func TestRouteUnmatchedEventIsDropped(t *testing.T) {
	router := Default(zap.NewNop())
	// cart-status is egress-only: no rule forwards it
	forwards := router.Route(&event.CartStatus{CartID: "C1"})
	assert.Empty(t, forwards)
}

// auditForwarder accepts everything and copies it to a fixed address,
// exercising multi-rule matches.
type auditForwarder struct{}

func (auditForwarder) Accept(event.Event) bool { return true }

func (auditForwarder) Forward(evt event.Event) []Forward {
	return []Forward{{Target: event.Address{Namespace: "example", Type: "audit", ID: "all"}, Event: evt}}
}

func TestIndependentRulesMayBothForward(t *testing.T) {
	router := New(zap.NewNop(), ProductForwarder{}, CartForwarder{}, auditForwarder{})
	forwards := router.Route(&event.Product{ID: "P1"})
	require.Len(t, forwards, 2)
	assert.Equal(t, "example:product:P1", forwards[0].Target.Key())
	assert.Equal(t, "example:audit:all", forwards[1].Target.Key())
}
