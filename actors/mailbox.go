package actors

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/event"
)

const initMaxRetries = 10

// delivery wraps one queued message with the context it was sent under.
type delivery struct {
	ctx context.Context
	evt event.Event
}

// mailbox serializes message processing for one actor instance. All
// messages pushed to it are handled by a single goroutine in FIFO
// order.
type mailbox struct {
	address           event.Address
	queue             chan *delivery
	stop              chan bool
	lastUpdated       time.Time
	acceptingMessages bool
	msgCount          int
	mtx               sync.RWMutex
	actor             Actor
	system            *System
	logger            *zap.Logger
}

func newMailbox(ctx context.Context, address event.Address, actor Actor, system *System) *mailbox {
	m := &mailbox{
		address:           address,
		queue:             make(chan *delivery, system.mailboxSize),
		stop:              make(chan bool, 1),
		lastUpdated:       time.Now(),
		acceptingMessages: true,
		actor:             actor,
		system:            system,
		logger:            system.logger.With(zap.String("actor", address.Key())),
	}
	// async initialize the actor and start processing messages
	go m.run(ctx)
	return m
}

// idleTime returns how long the actor has been idle.
func (m *mailbox) idleTime() time.Duration {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return time.Since(m.lastUpdated)
}

// push queues a message for processing. It returns false once the
// mailbox has stopped accepting messages (passivation in progress).
func (m *mailbox) push(ctx context.Context, evt event.Event) bool {
	spanCtx, span := getSpanContext(ctx, "Actor.Mailbox.Push")
	defer span.End()
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if !m.acceptingMessages {
		return false
	}
	m.lastUpdated = time.Now()
	m.queue <- &delivery{ctx: spanCtx, evt: evt}
	return true
}

// halt stops intake, waits for the queue to drain, then stops the
// processing loop.
func (m *mailbox) halt() {
	m.mtx.Lock()
	m.acceptingMessages = false
	m.mtx.Unlock()
	for len(m.queue) != 0 {
		time.Sleep(time.Millisecond)
	}
	m.logger.Debug("mailbox shutting down")
	m.stop <- true
}

// run initializes the actor, then processes messages until stopped.
func (m *mailbox) run(bootCtx context.Context) {
	if !m.selfInit(bootCtx) {
		m.discard()
		return
	}
	m.process()
}

// discard drops queued messages after a failed initialization so that
// neither senders nor passivation block on a dead actor. Passivation
// eventually removes the mailbox; the next message recreates the actor
// and retries initialization.
func (m *mailbox) discard() {
	for {
		select {
		case <-m.stop:
			return
		case received := <-m.queue:
			m.logger.Warn("dropping message for failed actor",
				zap.String("type", received.evt.EventType()))
		}
	}
}

// selfInit runs the actor initialization with exponential backoff. When
// the retry limit is exhausted the mailbox refuses further messages and
// waits to be passivated.
func (m *mailbox) selfInit(ctx context.Context) bool {
	spanCtx, span := getSpanContext(ctx, "Actor.Mailbox.Init")
	defer span.End()
	expoBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), initMaxRetries)
	err := backoff.Retry(func() error {
		return m.actor.Init(spanCtx)
	}, expoBackoff)
	if err != nil {
		m.logger.Error("failed to initialize actor", zap.Error(err))
		m.mtx.Lock()
		m.acceptingMessages = false
		m.mtx.Unlock()
		return false
	}
	return true
}

func (m *mailbox) process() {
	for {
		select {
		case <-m.stop:
			return
		case received := <-m.queue:
			handlerCtx := NewContext(received.ctx, m.address, m.system, m.system.egress, m.logger)
			if err := m.actor.Receive(handlerCtx, received.evt); err != nil {
				m.logger.Error("error handling message",
					zap.String("type", received.evt.EventType()),
					zap.Error(err))
			}
			m.msgCount++
		}
	}
}
