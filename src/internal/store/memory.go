package store

import (
	"reflect"
	"regexp"
	"sort"
	"sync"

	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

type subscription struct {
	keys     map[string]bool
	patterns []*regexp.Regexp
	callback func(changedKeys []string)
}

func (s *subscription) matches(key string) bool {
	if s.keys[key] {
		return true
	}
	for _, p := range s.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// MemoryStore is a thread-safe in-memory configuration store. Callbacks run
// synchronously on the goroutine that changed the store, after its lock
// is released.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]any
	subs    map[int]*subscription
	nextSub int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]any),
		subs:   make(map[int]*subscription),
	}
}

func (s *MemoryStore) GetEntity(serviceID models.ServiceID, entity models.EntityType) (any, error) {
	key := ServiceKey(serviceID, entity)
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ipmonerrors.NewConfigNotFoundError("no value for " + key)
	}
	return value, nil
}

// Get returns the value stored at key.
func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryStore) GetMultiple(keys []string, patterns []string) map[string]any {
	compiled := compilePatterns(patterns)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	for k, v := range s.values {
		for _, p := range compiled {
			if p.MatchString(k) {
				out[k] = v
				break
			}
		}
	}
	return out
}

func (s *MemoryStore) Subscribe(keys []string, patterns []string, callback func(changedKeys []string)) (func(), error) {
	sub := &subscription{keys: make(map[string]bool, len(keys)), callback: callback}
	for _, k := range keys {
		sub.keys[k] = true
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, ipmonerrors.NewConfigError("invalid key pattern "+p, err)
		}
		sub.patterns = append(sub.patterns, re)
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// Set stores value at key. Storing an equal value does not notify.
func (s *MemoryStore) Set(key string, value any) {
	s.update(map[string]any{key: value}, nil, false)
}

// Remove deletes key.
func (s *MemoryStore) Remove(key string) {
	s.update(nil, []string{key}, false)
}

// Apply replaces the whole content of the store with snapshot.
func (s *MemoryStore) Apply(snapshot map[string]any) {
	s.update(snapshot, nil, true)
}

// Keys returns every stored key in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) update(set map[string]any, remove []string, replace bool) {
	s.mu.Lock()
	var changed []string
	if replace {
		for k := range s.values {
			if _, ok := set[k]; !ok {
				remove = append(remove, k)
			}
		}
	}
	for _, k := range remove {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			changed = append(changed, k)
		}
	}
	for k, v := range set {
		if old, ok := s.values[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		s.values[k] = v
		changed = append(changed, k)
	}

	type delivery struct {
		callback func([]string)
		keys     []string
	}
	var deliveries []delivery
	if len(changed) > 0 {
		sort.Strings(changed)
		for _, sub := range s.subs {
			var keys []string
			for _, k := range changed {
				if sub.matches(k) {
					keys = append(keys, k)
				}
			}
			if len(keys) > 0 {
				deliveries = append(deliveries, delivery{sub.callback, keys})
			}
		}
	}
	s.mu.Unlock()

	for _, d := range deliveries {
		d.callback(d.keys)
	}
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warnf("Ignoring invalid key pattern %q: %v", p, err)
			continue
		}
		out = append(out, re)
	}
	return out
}
