package auth

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v3"
)

const defaultSessionKey = "auth:session"

// BadgerScope is the durable session scope, backed by a local badger
// store so the session survives client restarts.
type BadgerScope struct {
	db  *badger.DB
	key []byte
}

var _ SessionScope = (*BadgerScope)(nil)

// NewBadgerScope wraps an open badger database. The key isolates this
// client's session entry; pass "" for the default.
func NewBadgerScope(db *badger.DB, key string) *BadgerScope {
	if key == "" {
		key = defaultSessionKey
	}
	return &BadgerScope{db: db, key: []byte(key)}
}

// OpenBadgerScope opens (or creates) a badger store at dir and returns a
// scope over it. The caller owns closing the returned database.
func OpenBadgerScope(dir string) (*BadgerScope, *badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, WrapInfrastructure(err, "failed to open durable session store")
	}
	return NewBadgerScope(db, ""), db, nil
}

func (b *BadgerScope) Get(ctx context.Context) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, WrapInfrastructure(err, "failed to read durable session entry")
	}
	return out, nil
}

func (b *BadgerScope) Set(ctx context.Context, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, value)
	})
	if err != nil {
		return WrapInfrastructure(err, "failed to write durable session entry")
	}
	return nil
}

func (b *BadgerScope) Delete(ctx context.Context) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key)
	})
	if err != nil {
		return WrapInfrastructure(err, "failed to delete durable session entry")
	}
	return nil
}
