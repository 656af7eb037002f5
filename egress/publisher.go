// Package egress publishes outbound envelopes (cart-status events) to
// NATS Streaming, partitioned by cart id.
package egress

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	stan "github.com/nats-io/stan.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/actors"
	"github.com/shopstate/cartflow/event"
)

const connectMaxRetries = 5

// Publisher writes envelopes to the egress subject. The partition key
// rides inside the envelope; records without one fall back to the md5
// of the event data, matching the upstream contract.
type Publisher struct {
	subject string
	source  string
	conn    stan.Conn
	logger  *zap.Logger
}

var _ actors.Egress = (*Publisher)(nil)

// Connect dials the streaming cluster with exponential backoff.
func Connect(clusterID, clientID, url, subject, source string, logger *zap.Logger) (*Publisher, error) {
	var conn stan.Conn
	expoBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectMaxRetries)
	err := backoff.Retry(func() error {
		var err error
		conn, err = stan.Connect(clusterID, clientID, stan.NatsURL(url))
		return err
	}, expoBackoff)
	if err != nil {
		return nil, errors.Wrap(err, "stan connect")
	}
	return &Publisher{subject: subject, source: source, conn: conn, logger: logger}, nil
}

// Publish wraps evt in an envelope and writes it to the egress subject.
func (p *Publisher) Publish(_ context.Context, evt event.Event, partitionKey string) error {
	if partitionKey == "" {
		data, err := json.Marshal(evt)
		if err != nil {
			return errors.Wrapf(err, "encode %s data", evt.EventType())
		}
		sum := md5.Sum(data)
		partitionKey = hex.EncodeToString(sum[:])
	}
	payload, err := event.Encode(evt, p.source, partitionKey)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return errors.Wrap(err, "publish egress event")
	}
	p.logger.Debug("published egress event",
		zap.String("type", evt.EventType()),
		zap.String("partitionKey", partitionKey))
	return nil
}

// Close closes the streaming connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
