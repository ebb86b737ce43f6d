package service

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/networking"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

// RoutePlan is what one evaluation of a state file elects and routes.
type RoutePlan struct {
	IPv4   *election.Results  `json:"ipv4"`
	IPv6   *election.Results  `json:"ipv6"`
	Routes []models.IPv4Route `json:"routes"`
}

// RoutingService evaluates a state file once, outside the daemon.
//
// It shares the pass pipeline with the Engine but keeps no state between
// calls, so every Plan starts from an empty committed route list.
type RoutingService struct {
	resolver  domain.InterfaceResolver
	applier   domain.KernelRouteApplier
	validator *ValidationService
	opts      Options
}

// NewRoutingService creates a routing service.
//
// Parameters:
//   - resolver: Resolves interface names of candidates
//   - applier: Installs routes on Apply (optional, can be nil)
//   - validator: Validates the state file first (optional, can be nil)
func NewRoutingService(
	resolver domain.InterfaceResolver,
	applier domain.KernelRouteApplier,
	validator *ValidationService,
	opts Options,
) *RoutingService {
	return &RoutingService{
		resolver:  resolver,
		applier:   applier,
		validator: validator,
		opts:      opts,
	}
}

// Plan elects primaries and merges the route lists of every candidate.
func (s *RoutingService) Plan(state *store.StateFile) (*RoutePlan, error) {
	if err := s.validate(state); err != nil {
		return nil, err
	}

	ev := evaluate(election.NewEngine(), snapshotFromState(state, s.opts))
	sync := networking.NewSynchronizer(s.applier, s.resolver)
	return &RoutePlan{
		IPv4:   ev.ipv4,
		IPv6:   ev.ipv6,
		Routes: sync.Build(ev.ipv4, ev.lists).Routes(),
	}, nil
}

// Apply installs the planned routes through the applier. Routes that
// already exist are left alone; nothing is removed.
func (s *RoutingService) Apply(state *store.StateFile) (*RoutePlan, error) {
	if s.applier == nil {
		return nil, errors.NewInternalError("no route applier configured", nil)
	}
	if err := s.validate(state); err != nil {
		return nil, err
	}

	ev := evaluate(election.NewEngine(), snapshotFromState(state, s.opts))
	sync := networking.NewSynchronizer(s.applier, s.resolver)
	if sync.Sync(ev.ipv4, ev.lists) {
		log.Infof("Routes applied")
	}
	return &RoutePlan{
		IPv4:   ev.ipv4,
		IPv6:   ev.ipv6,
		Routes: sync.Committed().Routes(),
	}, nil
}

func (s *RoutingService) validate(state *store.StateFile) error {
	if s.validator == nil {
		return nil
	}
	if err := s.validator.ValidateState(state); err != nil {
		log.Errorf("State validation failed: %v", err)
		return err
	}
	return nil
}

// snapshotFromState builds service records from a state file. Malformed
// entities are dropped the same way the engine drops them.
func snapshotFromState(state *store.StateFile, opts Options) snapshot {
	snap := snapshot{
		services:           make(map[models.ServiceID]*models.ServiceRecord, len(state.Services)),
		order:              opts.ServiceOrder,
		pppOverridePrimary: opts.PPPOverridePrimary || state.PPPOverridePrimary,
		multicastDomains:   state.MulticastDomains,
		privateDomains:     state.PrivateDomains,
	}
	if len(state.ServiceOrder) > 0 {
		snap.order = make(models.ServiceOrder, 0, len(state.ServiceOrder))
		for _, id := range state.ServiceOrder {
			snap.order = append(snap.order, models.ServiceID(id))
		}
	}

	for _, id := range sortedStateIDs(state) {
		st := state.Services[id]
		if st == nil {
			continue
		}
		svc := &models.ServiceRecord{
			ID:      models.ServiceID(id),
			IPv4:    st.IPv4,
			IPv6:    st.IPv6,
			DNS:     st.DNS.Clone(),
			Proxy:   st.Proxy,
			Options: st.Options,
			VPN:     st.VPN,
		}
		if st.IPv4 != nil {
			ipv4 := *st.IPv4
			svc.IPv4 = &ipv4
		}
		for entity, err := range svc.Validate() {
			log.Warnf("Dropping %s of service %s: %v", entity, id, err)
		}
		if !svc.IsEmpty() {
			snap.services[svc.ID] = svc
		}
	}
	return snap
}
