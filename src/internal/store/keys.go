package store

import (
	"regexp"
	"strings"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const (
	servicePrefix = "State:/Network/Service/"

	// GlobalIPv4Key holds the GlobalIPv4 settings.
	GlobalIPv4Key = "Setup:/Network/Global/IPv4"
	// MulticastDNSKey holds the multicast DNS DomainList.
	MulticastDNSKey = "State:/Network/MulticastDNS"
	// PrivateDNSKey holds the private DNS DomainList.
	PrivateDNSKey = "State:/Network/PrivateDNS"
)

// ServiceKeyPattern matches the key of every service entity.
var ServiceKeyPattern = "^" + regexp.QuoteMeta(servicePrefix) + "[^/]+/[^/]+$"

// ServiceKey returns the key of one entity of a service.
func ServiceKey(id models.ServiceID, entity models.EntityType) string {
	return servicePrefix + string(id) + "/" + string(entity)
}

// ParseServiceKey splits a service entity key.
func ParseServiceKey(key string) (models.ServiceID, models.EntityType, bool) {
	rest, ok := strings.CutPrefix(key, servicePrefix)
	if !ok {
		return "", "", false
	}
	id, entity, ok := strings.Cut(rest, "/")
	if !ok || id == "" || entity == "" || strings.Contains(entity, "/") {
		return "", "", false
	}
	return models.ServiceID(id), models.EntityType(entity), true
}

// GlobalIPv4 carries the global election settings.
type GlobalIPv4 struct {
	ServiceOrder       models.ServiceOrder `toml:"service_order" json:"service_order,omitempty"`
	PPPOverridePrimary bool                `toml:"ppp_override_primary" json:"ppp_override_primary,omitempty"`
}

// DomainList is a list of DNS domains published by an external source.
type DomainList struct {
	Domains []string `toml:"domains" json:"domains,omitempty"`
}
