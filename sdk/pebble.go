package sdk

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

// PebbleStore persists contract state in a pebble database. Each Tx is an
// indexed batch, so reads observe the transaction's own staged writes.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (or creates) a database under dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	return openPebble(dir, &pebble.Options{})
}

// OpenMemPebbleStore opens a pebble database on an in-memory filesystem.
func OpenMemPebbleStore() (*PebbleStore, error) {
	return openPebble("state", &pebble.Options{FS: vfs.NewMem()})
}

func openPebble(dir string, opts *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening pebble state at %q", dir)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Begin() (Tx, error) {
	return &pebbleTx{batch: s.db.NewIndexedBatch()}, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

type pebbleTx struct {
	batch  *pebble.Batch
	closed bool
}

func (t *pebbleTx) Get(key string) ([]byte, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	v, closer, err := t.batch.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (t *pebbleTx) Set(key string, value []byte) error {
	if t.closed {
		return ErrTxClosed
	}
	return t.batch.Set([]byte(key), value, nil)
}

func (t *pebbleTx) Delete(key string) error {
	if t.closed {
		return ErrTxClosed
	}
	return t.batch.Delete([]byte(key), nil)
}

func (t *pebbleTx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true
	defer t.batch.Close()
	return t.batch.Commit(pebble.Sync)
}

func (t *pebbleTx) Discard() {
	if t.closed {
		return
	}
	t.closed = true
	_ = t.batch.Close()
}
