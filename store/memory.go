package store

import "sync"

// Memory is an in-process StateStore used in tests and local runs.
type Memory struct {
	mtx     sync.RWMutex
	records map[string][]byte
}

var _ StateStore = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Load(key string) ([]byte, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	data, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Save(key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.records[key] = stored
	return nil
}

func (m *Memory) Clear(key string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.records, key)
	return nil
}
