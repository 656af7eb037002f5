// Package store provides the per-key durable state contract the actor
// runtime requires: load, atomic save, and clear of one opaque record
// per actor key. Serialization of the record is the actor's concern.
package store

// StateStore persists one opaque state record per actor key.
type StateStore interface {
	// Load returns the record for key, or nil when no state exists.
	Load(key string) ([]byte, error)
	// Save atomically writes the record for key.
	Save(key string, data []byte) error
	// Clear removes the record for key. Clearing an absent key is a no-op.
	Clear(key string) error
}
