// Package domain defines core interfaces for dependency injection and abstraction.
//
// These are the collaborators the reconciliation core consumes but does not
// own: the configuration store, interface name/index resolution and the
// kernel routing table.
package domain

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// ConfigStore is the key/value store holding per-service network state.
//
// Keys follow the layout State:/Network/Service/<id>/<Entity>. Values are
// the typed entity structs of the models package.
type ConfigStore interface {
	// GetEntity returns one entity of a service. An absent entity yields an
	// error matching errors.ErrConfigNotFound.
	GetEntity(serviceID models.ServiceID, entity models.EntityType) (any, error)

	// GetMultiple returns every value whose key is listed in keys or matches
	// one of the regular expressions in patterns.
	GetMultiple(keys []string, patterns []string) map[string]any

	// Subscribe registers callback for changes to the given keys and
	// patterns. The callback receives the changed keys and may run on any
	// goroutine. The returned function cancels the subscription.
	Subscribe(keys []string, patterns []string, callback func(changedKeys []string)) (cancel func(), err error)
}

// InterfaceResolver maps interface names to kernel indices and back.
type InterfaceResolver interface {
	// NameToIndex returns the index of the named interface, or 0 if unknown.
	NameToIndex(name string) int

	// IndexToName returns the name of the interface with the given index.
	IndexToName(index int) (string, bool)
}

// KernelRouteApplier installs and removes IPv4 routes.
//
// Implementations may return errors for routes that already exist on Add
// or are already gone on Remove; callers treat those as success.
type KernelRouteApplier interface {
	Add(route models.IPv4Route) error
	Remove(route models.IPv4Route) error
}
