package service

import (
	"fmt"
	"sort"

	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

// ValidationService checks a state file before it replaces the store
// contents.
//
// Structural problems (duplicate order entries, services without an ID,
// malformed entities) are errors. References that may resolve later, such
// as interfaces that do not exist yet, are only logged.
type ValidationService struct {
	resolver domain.InterfaceResolver
}

// NewValidationService creates a validation service. The resolver is
// optional; without it interfaces are not checked.
func NewValidationService(resolver domain.InterfaceResolver) *ValidationService {
	return &ValidationService{resolver: resolver}
}

// ValidateState runs every validator and returns the first error.
func (v *ValidationService) ValidateState(state *store.StateFile) error {
	validators := []func(*store.StateFile) error{
		v.validateServiceOrder,
		v.validateServices,
	}

	for _, validator := range validators {
		if err := validator(state); err != nil {
			return err
		}
	}

	v.warnUnknownInterfaces(state)
	return nil
}

func (v *ValidationService) validateServiceOrder(state *store.StateFile) error {
	seen := make(map[string]bool, len(state.ServiceOrder))
	for _, id := range state.ServiceOrder {
		if id == "" {
			return errors.NewConfigError("Empty service ID in service_order", nil)
		}
		if seen[id] {
			return errors.NewConfigError(fmt.Sprintf("Duplicate service %s in service_order", id), nil)
		}
		seen[id] = true

		if _, ok := state.Services[id]; !ok {
			log.Debugf("Service %s is ordered but not configured", id)
		}
	}
	return nil
}

func (v *ValidationService) validateServices(state *store.StateFile) error {
	for _, id := range sortedStateIDs(state) {
		svc := state.Services[id]
		if id == "" {
			return errors.NewConfigError("Service with an empty ID", nil)
		}
		if svc == nil {
			continue
		}
		for _, entity := range []struct {
			name  models.EntityType
			value any
		}{
			{models.EntityIPv4, svc.IPv4},
			{models.EntityIPv6, svc.IPv6},
			{models.EntityDNS, svc.DNS},
			{models.EntityProxies, svc.Proxy},
			{models.EntityService, svc.Options},
			{models.EntityVPN, svc.VPN},
		} {
			if err := models.ValidateEntity(entity.value); err != nil {
				return errors.NewConfigError(fmt.Sprintf("Service %s has malformed %s", id, entity.name), err)
			}
		}
	}
	return nil
}

func (v *ValidationService) warnUnknownInterfaces(state *store.StateFile) {
	if v.resolver == nil {
		return
	}
	for _, id := range sortedStateIDs(state) {
		svc := state.Services[id]
		if svc == nil {
			continue
		}
		names := map[string]bool{}
		if svc.IPv4 != nil && svc.IPv4.InterfaceName != "" {
			names[svc.IPv4.InterfaceName] = true
		}
		if svc.IPv6 != nil && svc.IPv6.InterfaceName != "" {
			names[svc.IPv6.InterfaceName] = true
		}
		if svc.DNS != nil && svc.DNS.InterfaceName != "" {
			names[svc.DNS.InterfaceName] = true
		}
		for name := range names {
			if v.resolver.NameToIndex(name) == 0 {
				log.Warnf("Service %s uses interface %s which does not exist (yet)", id, name)
			}
		}
	}
}

func sortedStateIDs(state *store.StateFile) []string {
	ids := make([]string, 0, len(state.Services))
	for id := range state.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
