package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/loadstore/pkg/log"
)

// storeFileName is the single database file inside the data directory.
const storeFileName = "loadstore.db"

// EnvironmentOptions control how the on-disk environment is opened.
type EnvironmentOptions struct {
	// Create makes a missing environment instead of failing on it.
	Create bool

	// ReadOnly opens the environment for reads only; every mutating
	// call fails with ErrReadOnly.
	ReadOnly bool

	// Sync forces an fsync on every commit. Off by default: the store
	// favors throughput and syncs once on close.
	Sync bool
}

// Environment wraps the embedded engine. Collections are named buckets in
// a single database file; an explicit transaction groups operations so
// they become visible together or not at all.
//
// The engine is single-writer: a writable transaction holds the write
// lock until commit or abort, which is what serializes concurrent
// mutations of the same folder record.
type Environment struct {
	dir      string
	readOnly bool

	mu     sync.Mutex
	db     *bolt.DB
	open   bool
	active map[*Txn]struct{}
}

// Txn is one open transaction against the environment.
type Txn struct {
	tx       *bolt.Tx
	writable bool
}

// EnvironmentExists reports whether an environment has been created in
// the directory.
func EnvironmentExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, storeFileName))
	return err == nil
}

// OpenEnvironment opens the environment in the given directory. Unless
// opts.Create is set, a missing environment is an error rather than an
// implicit create.
func OpenEnvironment(dir string, opts EnvironmentOptions) (*Environment, error) {
	if !opts.Create && !EnvironmentExists(dir) {
		return nil, fmt.Errorf("no store environment in %s", dir)
	}
	if opts.Create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("create environment directory", err)
		}
	}

	db, err := bolt.Open(filepath.Join(dir, storeFileName), 0o600, &bolt.Options{
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, storageErr("open environment", err)
	}
	db.NoSync = !opts.Sync && !opts.ReadOnly

	logger := log.WithComponent("environment")
	logger.Debug().
		Str("dir", dir).
		Bool("read_only", opts.ReadOnly).
		Msg("environment opened")

	return &Environment{
		dir:      dir,
		readOnly: opts.ReadOnly,
		db:       db,
		open:     true,
		active:   make(map[*Txn]struct{}),
	}, nil
}

// Dir returns the directory the environment lives in.
func (e *Environment) Dir() string {
	return e.dir
}

// ReadOnly reports whether the environment was opened read-only.
func (e *Environment) ReadOnly() bool {
	return e.readOnly
}

// Close force-aborts any outstanding transactions, syncs the database,
// and shuts the environment down. Operations after Close fail with
// ErrEnvClosed.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ErrEnvClosed
	}
	e.open = false

	logger := log.WithComponent("environment")
	for txn := range e.active {
		if err := txn.tx.Rollback(); err != nil {
			logger.Warn().Err(err).Msg("unable to abort outstanding transaction on close")
		}
	}
	e.active = nil

	if !e.readOnly {
		if err := e.db.Sync(); err != nil {
			logger.Warn().Err(err).Msg("final sync failed")
		}
	}
	if err := e.db.Close(); err != nil {
		return storageErr("close environment", err)
	}
	logger.Debug().Str("dir", e.dir).Msg("environment closed")
	return nil
}

// Begin opens a transaction. Writable transactions block one another
// until the holder commits or aborts.
func (e *Environment) Begin(writable bool) (*Txn, error) {
	if writable && e.readOnly {
		return nil, ErrReadOnly
	}
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return nil, ErrEnvClosed
	}
	e.mu.Unlock()

	tx, err := e.db.Begin(writable)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	txn := &Txn{tx: tx, writable: writable}

	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		_ = tx.Rollback()
		return nil, ErrEnvClosed
	}
	e.active[txn] = struct{}{}
	e.mu.Unlock()
	return txn, nil
}

// Commit makes the transaction's operations visible together.
func (e *Environment) Commit(txn *Txn) error {
	e.release(txn)
	if txn.writable {
		if err := txn.tx.Commit(); err != nil {
			return storageErr("commit transaction", err)
		}
		return nil
	}
	if err := txn.tx.Rollback(); err != nil {
		return storageErr("end read transaction", err)
	}
	return nil
}

// Abort discards the transaction's operations.
func (e *Environment) Abort(txn *Txn) error {
	e.release(txn)
	if err := txn.tx.Rollback(); err != nil {
		return storageErr("abort transaction", err)
	}
	return nil
}

func (e *Environment) release(txn *Txn) {
	e.mu.Lock()
	if e.active != nil {
		delete(e.active, txn)
	}
	e.mu.Unlock()
}

// CreateCollections creates the named collections if absent.
func (e *Environment) CreateCollections(names []string) error {
	if e.readOnly {
		return ErrReadOnly
	}
	err := e.db.Update(func(tx *bolt.Tx) error {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create collection %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("create collections", err)
	}
	return nil
}

// HasCollection reports whether the named collection exists.
func (e *Environment) HasCollection(name string) (bool, error) {
	var found bool
	err := e.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(name)) != nil
		return nil
	})
	if err != nil {
		return false, storageErr("check collection", err)
	}
	return found, nil
}

// Get reads the value stored under key, or (nil, nil) when absent. With a
// nil txn the read runs in its own one-shot transaction; otherwise it
// observes (and, in a writable transaction, locks out) concurrent writers.
func (e *Environment) Get(txn *Txn, collection, key string) ([]byte, error) {
	if txn != nil {
		return e.getInTx(txn.tx, collection, key)
	}

	var value []byte
	err := e.db.View(func(tx *bolt.Tx) error {
		v, err := e.getInTx(tx, collection, key)
		value = v
		return err
	})
	if err != nil {
		return nil, wrapEngineErr("get", err)
	}
	return value, nil
}

func (e *Environment) getInTx(tx *bolt.Tx, collection, key string) ([]byte, error) {
	b := tx.Bucket([]byte(collection))
	if b == nil {
		return nil, fmt.Errorf("no such collection: %s", collection)
	}
	v := b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	// Bucket memory is only valid for the life of the transaction.
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores value under key, overwriting any existing record.
func (e *Environment) Put(txn *Txn, collection, key string, value []byte) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if txn != nil {
		return e.putInTx(txn.tx, collection, key, value)
	}
	err := e.db.Update(func(tx *bolt.Tx) error {
		return e.putInTx(tx, collection, key, value)
	})
	return wrapEngineErr("put", err)
}

func (e *Environment) putInTx(tx *bolt.Tx, collection, key string, value []byte) error {
	b := tx.Bucket([]byte(collection))
	if b == nil {
		return fmt.Errorf("no such collection: %s", collection)
	}
	return b.Put([]byte(key), value)
}

// Delete removes the record stored under key. Deleting an absent key is
// not an error.
func (e *Environment) Delete(txn *Txn, collection, key string) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if txn != nil {
		return e.deleteInTx(txn.tx, collection, key)
	}
	err := e.db.Update(func(tx *bolt.Tx) error {
		return e.deleteInTx(tx, collection, key)
	})
	return wrapEngineErr("delete", err)
}

func (e *Environment) deleteInTx(tx *bolt.Tx, collection, key string) error {
	b := tx.Bucket([]byte(collection))
	if b == nil {
		return fmt.Errorf("no such collection: %s", collection)
	}
	return b.Delete([]byte(key))
}

// Scan walks the collection in key order, calling fn for each record. The
// value passed to fn is only valid for the duration of the call.
func (e *Environment) Scan(collection string, fn func(key string, value []byte) error) error {
	err := e.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("no such collection: %s", collection)
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := fn(string(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapEngineErr("scan", err)
}

func wrapEngineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == bolt.ErrDatabaseNotOpen {
		return ErrEnvClosed
	}
	return storageErr(op, err)
}
