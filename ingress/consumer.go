// Package ingress consumes inbound envelopes from NATS Streaming and
// dispatches them through the router into the actor system. The durable
// queue subscription with manual acks gives the at-least-once delivery
// the actor contract assumes.
package ingress

import (
	"context"
	"time"

	stan "github.com/nats-io/stan.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/actors"
	"github.com/shopstate/cartflow/event"
	"github.com/shopstate/cartflow/routing"
)

const (
	ackWait         = 10 * time.Second
	dispatchTimeout = 5 * time.Second
)

// Consumer subscribes to the ingress subject and feeds the system.
type Consumer struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string
	Queue     string

	Router *routing.Router
	System *actors.System
	Logger *zap.Logger
}

// Run connects and subscribes, then returns; message handling happens
// on the subscription callbacks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	sc, err := stan.Connect(c.ClusterID, c.ClientID, stan.NatsURL(c.URL))
	if err != nil {
		return errors.Wrap(err, "stan connect")
	}
	go func() {
		<-ctx.Done()
		if err := sc.Close(); err != nil {
			c.Logger.Warn("closing stan connection", zap.Error(err))
		}
	}()
	_, err = sc.QueueSubscribe(c.Subject, c.Queue, func(m *stan.Msg) {
		if err := c.handle(m.Data); err != nil {
			// no ack: let the message redeliver
			c.Logger.Error("ingress handler error", zap.Error(err))
			return
		}
		if err := m.Ack(); err != nil {
			c.Logger.Error("ack failed", zap.Error(err))
		}
	}, stan.DurableName(c.Durable), stan.SetManualAckMode(), stan.AckWait(ackWait), stan.DeliverAllAvailable())
	return errors.Wrap(err, "stan subscribe")
}

// handle decodes one payload and forwards it to every matching actor.
// Undecodable payloads are dropped at this boundary; they never reach
// actor logic and are not an error.
func (c *Consumer) handle(payload []byte) error {
	evt, env, err := event.Decode(payload)
	if err != nil {
		c.Logger.Debug("dropping undecodable payload", zap.Error(err))
		return nil
	}
	forwards := c.Router.Route(evt)
	for _, fwd := range forwards {
		sendCtx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err := c.System.Send(sendCtx, fwd.Target, fwd.Event)
		cancel()
		if err != nil {
			return errors.Wrapf(err, "dispatch event %s to %s", env.ID, fwd.Target.Key())
		}
	}
	return nil
}
