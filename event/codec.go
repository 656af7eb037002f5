package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Envelope is the wire frame around a business event: a CloudEvents
// style JSON document with the typed payload under "data". The optional
// partition key tells the egress transport how to shard the record.
type Envelope struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Source       string          `json:"source"`
	Time         time.Time       `json:"time"`
	PartitionKey string          `json:"partitionKey,omitempty"`
	Data         json.RawMessage `json:"data"`
}

// ErrUnknownType is returned by Decode for event types outside the
// catalog. Callers drop such payloads; they are not an error condition.
var ErrUnknownType = errors.New("unknown event type")

// Encode wraps evt in a fresh envelope and serializes it.
func Encode(evt Event, source, partitionKey string) ([]byte, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s data", evt.EventType())
	}
	env := Envelope{
		ID:           uuid.NewString(),
		Type:         evt.EventType(),
		Source:       source,
		Time:         time.Now().UTC(),
		PartitionKey: partitionKey,
		Data:         data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "encode envelope")
	}
	return payload, nil
}

// Decode parses an opaque payload into its envelope and typed event.
func Decode(payload []byte) (Event, *Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, nil, errors.Wrap(err, "decode envelope")
	}
	evt, err := decodeData(env.Type, env.Data)
	if err != nil {
		return nil, nil, err
	}
	return evt, &env, nil
}

func decodeData(eventType string, data []byte) (Event, error) {
	var evt Event
	switch eventType {
	case TypeProduct:
		evt = &Product{}
	case TypeCartProduct:
		evt = &CartProduct{}
	case TypeCartStatus:
		evt = &CartStatus{}
	case TypeCartCleared:
		evt = &CartCleared{}
	case TypeFunctionSubscription:
		evt = &FunctionSubscription{}
	default:
		return nil, errors.Wrap(ErrUnknownType, eventType)
	}
	if err := json.Unmarshal(data, evt); err != nil {
		return nil, errors.Wrapf(err, "decode %s data", eventType)
	}
	return evt, nil
}
