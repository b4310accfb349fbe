package sdk

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrTxClosed = errors.New("TX_CLOSED")

// Tx is a read-your-writes view of contract state. Nothing it stages is
// visible to other transactions until Commit returns nil.
type Tx interface {
	// Get returns nil, nil when the key is absent.
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Commit() error
	// Discard drops staged writes. Safe to call after Commit.
	Discard()
}

// Store is the contract's persistent key/value state.
type Store interface {
	Begin() (Tx, error)
	Close() error
}

// ---------- In-memory store ----------

// MemStore keeps state in a map. Used by tests and by the CLI when no data
// directory is configured.
type MemStore struct {
	mu    sync.Mutex
	state map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{state: make(map[string][]byte)}
}

func (s *MemStore) Begin() (Tx, error) {
	return &memTx{store: s, writes: make(map[string][]byte)}, nil
}

func (s *MemStore) Close() error { return nil }

// Len reports how many keys are stored.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state)
}

type memTx struct {
	store  *MemStore
	writes map[string][]byte // nil value marks a delete
	closed bool
}

func (t *memTx) Get(key string) ([]byte, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, nil
		}
		return append([]byte(nil), v...), nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	v, ok := t.store.state[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (t *memTx) Set(key string, value []byte) error {
	if t.closed {
		return ErrTxClosed
	}
	t.writes[key] = append(make([]byte, 0, len(value)), value...)
	return nil
}

func (t *memTx) Delete(key string) error {
	if t.closed {
		return ErrTxClosed
	}
	t.writes[key] = nil
	return nil
}

func (t *memTx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for k, v := range t.writes {
		if v == nil {
			delete(t.store.state, k)
		} else {
			t.store.state[k] = v
		}
	}
	t.closed = true
	return nil
}

func (t *memTx) Discard() {
	t.closed = true
	t.writes = nil
}
