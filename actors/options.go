package actors

import "time"

// Option customizes a System.
type Option func(system *System)

// WithPassivation sets how long an actor may stay idle before it is
// passivated.
func WithPassivation(maxInactivity time.Duration) Option {
	return func(system *System) {
		system.maxActorInactivity = maxInactivity
	}
}

// WithPassivationFrequency sets how often the passivation sweep runs.
func WithPassivationFrequency(frequency time.Duration) Option {
	return func(system *System) {
		system.passivationFrequency = frequency
	}
}

// WithMailboxSize sets the per-actor mailbox buffer size.
func WithMailboxSize(size int) Option {
	return func(system *System) {
		system.mailboxSize = size
	}
}
