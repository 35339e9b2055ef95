package storage

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cuemby/loadstore/pkg/catalog"
)

// ConfigSubscriber is notified when a configuration parameter changes.
// Implementations register under a stable name so they can be looked up
// and removed.
type ConfigSubscriber interface {
	SubscriberName() string
	ConfigChanged(parameterName string) error
}

// RegisterSubscriber adds (or replaces) a config-change subscriber.
func (s *Store) RegisterSubscriber(sub ConfigSubscriber) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.subscribers[sub.SubscriberName()] = sub
}

// UnregisterSubscriber removes the named subscriber, if registered.
func (s *Store) UnregisterSubscriber(name string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	delete(s.subscribers, name)
}

// Subscriber returns the named subscriber, or nil.
func (s *Store) Subscriber(name string) ConfigSubscriber {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.subscribers[name]
}

// notifySubscribers tells every subscriber about a changed parameter. A
// failing subscriber is logged and skipped; it never blocks the others or
// the write.
func (s *Store) notifySubscribers(parameterName string) {
	s.configMu.RLock()
	subs := make([]ConfigSubscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.configMu.RUnlock()

	for _, sub := range subs {
		if err := sub.ConfigChanged(parameterName); err != nil {
			s.logger.Warn().
				Err(err).
				Str("subscriber", sub.SubscriberName()).
				Str("parameter", parameterName).
				Msg("config subscriber notification failed")
		}
	}
}

// GetConfigParameter returns the cached value of a configuration
// parameter, or the empty string when unset. The cache is authoritative
// between writes; it is rebuilt from the collection on open.
func (s *Store) GetConfigParameter(name string) (string, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return "", err
	}
	defer release()
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.configCache[name], nil
}

// GetConfigString returns the parameter's value, or the default when
// unset.
func (s *Store) GetConfigString(name, defaultValue string) (string, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return "", err
	}
	defer release()
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	value, ok := s.configCache[name]
	if !ok || value == "" {
		return defaultValue, nil
	}
	return value, nil
}

// GetConfigBool returns the parameter parsed as a boolean, or the default
// when unset or unparseable. Unparseable values are a deliberate
// fall-back, not an error.
func (s *Store) GetConfigBool(name string, defaultValue bool) (bool, error) {
	value, err := s.GetConfigString(name, "")
	if err != nil {
		return false, err
	}
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, nil
	}
	return parsed, nil
}

// GetConfigInt returns the parameter parsed as an integer, or the default
// when unset or unparseable.
func (s *Store) GetConfigInt(name string, defaultValue int) (int, error) {
	value, err := s.GetConfigString(name, "")
	if err != nil {
		return 0, err
	}
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, nil
	}
	return parsed, nil
}

// SetConfigParameter stores the parameter and updates the cache, then
// notifies subscribers. The collection is written before the cache so a
// cached value is never one that was not durably committed.
func (s *Store) SetConfigParameter(name, value string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	if err := s.env.Put(nil, CollectionConfig, name, []byte(value)); err != nil {
		return err
	}

	s.configMu.Lock()
	s.configCache[name] = value
	s.configMu.Unlock()

	s.notifySubscribers(name)
	return nil
}

// RemoveConfigParameter deletes the parameter from the collection and the
// cache, then notifies subscribers.
func (s *Store) RemoveConfigParameter(name string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	if err := s.env.Delete(nil, CollectionConfig, name); err != nil {
		return err
	}

	s.configMu.Lock()
	delete(s.configCache, name)
	s.configMu.Unlock()

	s.notifySubscribers(name)
	return nil
}

// ConfigParameterNames returns the names of all set parameters in sorted
// order.
func (s *Store) ConfigParameterNames() ([]string, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	s.configMu.RLock()
	names := make([]string, 0, len(s.configCache))
	for name := range s.configCache {
		names = append(names, name)
	}
	s.configMu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// JobClassNames returns the stored job-class catalog.
func (s *Store) JobClassNames() ([]string, error) {
	value, err := s.GetConfigParameter(configKeyJobClasses)
	if err != nil {
		return nil, err
	}
	return catalog.Split(value), nil
}

// AddJobClass adds a class name to the stored catalog. When a resolver
// was injected, unknown class names are rejected.
func (s *Store) AddJobClass(name string) error {
	if !s.resolver.IsKnownClass(name) {
		return fmt.Errorf("unknown job class: %s", name)
	}
	classes, err := s.JobClassNames()
	if err != nil {
		return err
	}
	for _, c := range classes {
		if c == name {
			return nil
		}
	}
	classes = append(classes, name)
	sort.Strings(classes)
	return s.SetConfigParameter(configKeyJobClasses, catalog.Join(classes))
}

// RemoveJobClass removes a class name from the stored catalog.
func (s *Store) RemoveJobClass(name string) error {
	classes, err := s.JobClassNames()
	if err != nil {
		return err
	}
	for i, c := range classes {
		if c == name {
			classes = append(classes[:i:i], classes[i+1:]...)
			return s.SetConfigParameter(configKeyJobClasses, catalog.Join(classes))
		}
	}
	return nil
}

// OptimizationAlgorithmNames returns the stored optimization-algorithm
// catalog.
func (s *Store) OptimizationAlgorithmNames() ([]string, error) {
	value, err := s.GetConfigParameter(configKeyOptimizationAlgos)
	if err != nil {
		return nil, err
	}
	return catalog.Split(value), nil
}

// ReportGeneratorNames returns the stored report-generator catalog.
func (s *Store) ReportGeneratorNames() ([]string, error) {
	value, err := s.GetConfigParameter(configKeyReportGenerators)
	if err != nil {
		return nil, err
	}
	return catalog.Split(value), nil
}
