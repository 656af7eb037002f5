package event

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeProduct(t *testing.T) {
	in := &Product{
		ID:           "P1",
		Title:        "Widget",
		Description:  "A widget",
		Price:        42.42,
		Availability: InStock,
	}
	payload, err := Encode(in, "test/source", "")
	require.NoError(t, err)

	out, env, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, TypeProduct, env.Type)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "test/source", env.Source)
	assert.Equal(t, in, out)
}

func TestEncodeCarriesPartitionKey(t *testing.T) {
	status := &CartStatus{CartID: "C1"}
	payload, err := Encode(status, "test/source", "C1")
	require.NoError(t, err)

	_, env, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "C1", env.PartitionKey)
}

func TestDecodeFunctionSubscription(t *testing.T) {
	in := &FunctionSubscription{
		Action:        Subscribe,
		Publisher:     ProductAddress("P1"),
		Subscriber:    CartAddress("C1"),
		CorrelationID: "corr-1",
	}
	payload, err := Encode(in, "test/source", "")
	require.NoError(t, err)

	out, _, err := Decode(payload)
	require.NoError(t, err)
	sub, ok := out.(*FunctionSubscription)
	require.True(t, ok)
	assert.Equal(t, Subscribe, sub.Action)
	assert.Equal(t, "example:product:P1", sub.Publisher.Key())
	assert.Equal(t, "example:cart:C1", sub.Subscriber.Key())
	assert.Equal(t, "corr-1", sub.CorrelationID)
}

func TestDecodeUnknownType(t *testing.T) {
	payload := []byte(`{"id":"1","type":"order","data":{}}`)
	_, _, err := Decode(payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, _, err := Decode([]byte("not json"))
	require.Error(t, err)
}

func TestAddressKey(t *testing.T) {
	assert.Equal(t, "example:cart:C1", CartAddress("C1").Key())
	assert.Equal(t, "example:product:P1", ProductAddress("P1").Key())
	assert.False(t, Address{Namespace: "example", Type: "cart"}.Valid())
	assert.True(t, CartAddress("C1").Valid())
}
