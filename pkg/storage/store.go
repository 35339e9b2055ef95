package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/loadstore/pkg/catalog"
	"github.com/cuemby/loadstore/pkg/log"
	"github.com/cuemby/loadstore/pkg/types"
)

// Collection names. The set is fixed; every store carries all nine.
const (
	CollectionConfig        = "config"
	CollectionJob           = "job"
	CollectionOptimizingJob = "optimizing_job"
	CollectionFolder        = "folder"
	CollectionVirtualFolder = "virtual_folder"
	CollectionFile          = "file"
	CollectionUser          = "user"
	CollectionGroup         = "group"
	CollectionJobGroup      = "job_group"
)

var collectionNames = []string{
	CollectionConfig,
	CollectionJob,
	CollectionOptimizingJob,
	CollectionFolder,
	CollectionVirtualFolder,
	CollectionFile,
	CollectionUser,
	CollectionGroup,
	CollectionJobGroup,
}

// Config keys with special meaning to the store itself.
const (
	configKeyDisabledJobs      = "disabled_jobs"
	configKeyPendingJobs       = "pending_jobs"
	configKeyRunningJobs       = "running_jobs"
	configKeyJobClasses        = "job_classes"
	configKeyOptimizationAlgos = "optimization_algorithms"
	configKeyReportGenerators  = "report_generators"
	configKeyLogFile           = "log_filename"
)

// defaultLogFileName seeds the log_filename config parameter at bootstrap.
const defaultLogFileName = "loadstore.log"

// Options configure Open.
type Options struct {
	// DataDir is the environment directory.
	DataDir string

	// ReadOnly opens the store for reads only.
	ReadOnly bool

	// Sync forces an fsync on every commit instead of one sync on
	// close.
	Sync bool

	// Resolver validates job-class names for catalog operations. Nil
	// means every class name is accepted.
	Resolver catalog.Resolver
}

// Store is the persistence layer: nine named collections inside one
// transactional environment, plus the in-memory state derived from them
// (config cache, disabled/pending/running job sets).
type Store struct {
	env      *Environment
	readOnly bool
	resolver catalog.Resolver
	logger   zerolog.Logger

	// mu guards the collections-open flag. Operations hold the read side
	// for their whole duration, so CloseCollections cannot slip in
	// between an operation's open check and its work.
	mu              sync.RWMutex
	collectionsOpen bool

	configMu    sync.RWMutex
	configCache map[string]string
	subscribers map[string]ConfigSubscriber

	// Each derived job-ID set has its own lock so that job-state
	// reclassification does not contend with folder CRUD.
	disabledMu   sync.Mutex
	disabledJobs map[string]struct{}
	pendingMu    sync.Mutex
	pendingJobs  map[string]struct{}
	runningMu    sync.Mutex
	runningJobs  map[string]struct{}
}

// StoreExists reports whether a store has been bootstrapped in the
// directory.
func StoreExists(dir string) bool {
	return EnvironmentExists(dir)
}

// Bootstrap creates a brand-new store: the environment, the nine empty
// collections, the default catalogs, and the default folder. It fails if
// a store already exists in the directory.
func Bootstrap(dir string) error {
	if StoreExists(dir) {
		return fmt.Errorf("store already exists in %s", dir)
	}

	env, err := OpenEnvironment(dir, EnvironmentOptions{Create: true, Sync: true})
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.CreateCollections(collectionNames); err != nil {
		return err
	}

	seed := map[string]string{
		configKeyJobClasses:        catalog.Join(catalog.DefaultJobClasses),
		configKeyOptimizationAlgos: catalog.Join(catalog.DefaultOptimizationAlgorithms),
		configKeyReportGenerators:  catalog.Join(catalog.DefaultReportGenerators),
		configKeyLogFile:           defaultLogFileName,
	}
	for key, value := range seed {
		if err := env.Put(nil, CollectionConfig, key, []byte(value)); err != nil {
			return err
		}
	}

	unclassified := types.NewJobFolder(types.FolderNameUnclassified)
	unclassified.DisplayInReadOnly = true
	if err := env.Put(nil, CollectionFolder, unclassified.Name, unclassified.Encode()); err != nil {
		return err
	}

	logger := log.WithComponent("store")
	logger.Info().Str("dir", dir).Msg("store bootstrapped")
	return nil
}

// Open opens an existing store and its collections. The config cache and
// derived job sets are rebuilt from storage before Open returns.
func Open(opts Options) (*Store, error) {
	env, err := OpenEnvironment(opts.DataDir, EnvironmentOptions{
		ReadOnly: opts.ReadOnly,
		Sync:     opts.Sync,
	})
	if err != nil {
		return nil, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = catalog.PermissiveResolver{}
	}

	s := &Store{
		env:         env,
		readOnly:    opts.ReadOnly,
		resolver:    resolver,
		logger:      log.WithComponent("store"),
		subscribers: make(map[string]ConfigSubscriber),
	}
	if err := s.OpenCollections(); err != nil {
		env.Close()
		return nil, err
	}
	return s, nil
}

// Environment returns the store's underlying environment.
func (s *Store) Environment() *Environment {
	return s.env
}

// ReadOnly reports whether the store was opened read-only.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// OpenCollections opens the nine collections as one unit and rebuilds the
// in-memory state from them. If any collection is missing, nothing is
// opened and the environment stays usable so the caller can retry.
func (s *Store) OpenCollections() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionsOpen {
		return nil
	}

	for _, name := range collectionNames {
		found, err := s.env.HasCollection(name)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("collection %s is missing; environment was not bootstrapped", name)
		}
	}

	cache := make(map[string]string)
	err := s.env.Scan(CollectionConfig, func(key string, value []byte) error {
		cache[key] = string(value)
		return nil
	})
	if err != nil {
		return err
	}

	s.configMu.Lock()
	s.configCache = cache
	s.configMu.Unlock()

	s.disabledMu.Lock()
	s.disabledJobs = jobIDSet(cache[configKeyDisabledJobs])
	s.disabledMu.Unlock()
	s.pendingMu.Lock()
	s.pendingJobs = jobIDSet(cache[configKeyPendingJobs])
	s.pendingMu.Unlock()
	s.runningMu.Lock()
	s.runningJobs = jobIDSet(cache[configKeyRunningJobs])
	s.runningMu.Unlock()

	s.collectionsOpen = true
	s.logger.Debug().Int("config_parameters", len(cache)).Msg("collections opened")
	return nil
}

// CloseCollections marks the collections closed, waiting for in-flight
// operations to finish first. The environment stays open;
// OpenCollections reopens them and rebuilds the caches.
func (s *Store) CloseCollections() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.collectionsOpen {
		return ErrStoreClosed
	}
	s.collectionsOpen = false

	s.configMu.Lock()
	s.configCache = nil
	s.configMu.Unlock()

	s.logger.Debug().Msg("collections closed")
	return nil
}

// CloseEnvironment shuts down the underlying environment, force-aborting
// any outstanding transactions.
func (s *Store) CloseEnvironment() error {
	return s.env.Close()
}

// Close closes the collections and then the environment.
func (s *Store) Close() error {
	s.mu.Lock()
	s.collectionsOpen = false
	s.mu.Unlock()
	return s.env.Close()
}

// acquireOpen takes a shared hold on the open state, failing if the
// collections are closed. On success the returned release function must
// be called when the operation finishes; until then CloseCollections and
// Close block.
func (s *Store) acquireOpen() (func(), error) {
	s.mu.RLock()
	if !s.collectionsOpen {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	return s.mu.RUnlock, nil
}

// acquireWritable is acquireOpen plus a writability check.
func (s *Store) acquireWritable() (func(), error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	if s.readOnly {
		release()
		return nil, ErrReadOnly
	}
	return release, nil
}

// CollectionNames returns the names of the store's collections.
func (s *Store) CollectionNames() []string {
	names := make([]string, len(collectionNames))
	copy(names, collectionNames)
	return names
}

// CollectionKeys returns every key in the named collection via a dirty
// forward scan, for diagnostics.
func (s *Store) CollectionKeys(collection string) ([]string, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	if !isKnownCollection(collection) {
		return nil, fmt.Errorf("no such collection: %s", collection)
	}

	var keys []string
	err = s.env.Scan(collection, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// RawRecord returns the stored bytes for a key without decoding them, or
// (nil, nil) when absent.
func (s *Store) RawRecord(collection, key string) ([]byte, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	if !isKnownCollection(collection) {
		return nil, fmt.Errorf("no such collection: %s", collection)
	}
	return s.env.Get(nil, collection, key)
}

func isKnownCollection(name string) bool {
	for _, n := range collectionNames {
		if n == name {
			return true
		}
	}
	return false
}
