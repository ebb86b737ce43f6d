package networking

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const (
	multicastNet    uint32 = 0xe0000000 // 224.0.0.0
	multicastMask   uint32 = 0xf0000000 // /4
	loopbackAddress uint32 = 0x7f000001 // 127.0.0.1
	applyOpAdd             = "add"
	applyOpRemove          = "remove"
)

// Synchronizer owns the committed IPv4 route list and keeps the kernel in
// line with it. It is not safe for concurrent use; callers serialize passes.
type Synchronizer struct {
	applier  domain.KernelRouteApplier
	resolver domain.InterfaceResolver

	committed          *RouteList
	multicastInstalled bool
}

func NewSynchronizer(applier domain.KernelRouteApplier, resolver domain.InterfaceResolver) *Synchronizer {
	return &Synchronizer{
		applier:   applier,
		resolver:  resolver,
		committed: NewRouteList(),
	}
}

// Build merges the route lists of every candidate, each route carrying its
// candidate's rank. Candidates whose interface cannot be resolved are left
// out.
func (s *Synchronizer) Build(results *election.Results, lists map[models.ServiceID]*RouteList) *RouteList {
	merged := NewRouteList()
	if results == nil {
		return merged
	}

	for _, c := range results.Candidates {
		list := lists[c.ServiceID]
		if list.Len() == 0 {
			continue
		}
		ifIndex := s.resolver.NameToIndex(c.InterfaceName)
		if ifIndex == 0 {
			err := ipmonerrors.NewInterfaceResolutionError("unknown interface "+c.InterfaceName, nil)
			log.Debugf("Skipping routes of service %s: %v", c.ServiceID, err)
			continue
		}
		for _, r := range list.routes {
			r.Rank = c.Rank
			r.IfIndex = ifIndex
			merged.Add(r)
		}
	}
	return merged
}

// Sync builds the merged list, applies the difference to the committed list
// and commits the result. Reports whether any route changed.
func (s *Synchronizer) Sync(results *election.Results, lists map[models.ServiceID]*RouteList) bool {
	merged := s.Build(results, lists)
	adds, removes := Reconcile(s.committed, merged)

	for _, r := range removes {
		s.remove(r)
	}
	for _, r := range adds {
		s.add(r)
	}

	changed := len(adds) > 0 || len(removes) > 0

	_, hasDefault := merged.DefaultRoute()
	if wantMulticast := !hasDefault; wantMulticast != s.multicastInstalled {
		route := s.multicastRoute()
		if wantMulticast {
			s.add(route)
		} else {
			s.remove(route)
		}
		s.multicastInstalled = wantMulticast
		changed = true
	}

	s.committed = merged
	committedRoutes.Set(float64(merged.Len()))

	if changed {
		log.Debugf("IPv4 route list (%d added, %d removed):\n%s", len(adds), len(removes), merged)
	}
	return changed
}

// Withdraw removes every committed route, the multicast route included,
// and leaves an empty committed list behind.
func (s *Synchronizer) Withdraw() {
	for _, r := range s.committed.Routes() {
		s.remove(r)
	}
	if s.multicastInstalled {
		s.remove(s.multicastRoute())
		s.multicastInstalled = false
	}
	s.committed = NewRouteList()
	committedRoutes.Set(0)
}

// Committed returns the last committed route list.
func (s *Synchronizer) Committed() *RouteList {
	c := NewRouteList()
	c.routes = s.committed.Routes()
	return c
}

// MulticastInstalled reports whether the loopback multicast route is in place.
func (s *Synchronizer) MulticastInstalled() bool {
	return s.multicastInstalled
}

func (s *Synchronizer) multicastRoute() models.IPv4Route {
	return models.IPv4Route{
		Dest:    multicastNet,
		Mask:    multicastMask,
		Gateway: loopbackAddress,
		IfName:  loopbackInterface,
		IfIndex: s.resolver.NameToIndex(loopbackInterface),
		IfAddr:  loopbackAddress,
		Flags:   models.RouteFlagDirectToInterface,
	}
}

func (s *Synchronizer) add(r models.IPv4Route) {
	err := s.applier.Add(r)
	if err != nil && !errors.Is(err, unix.EEXIST) {
		recordApplyFailure(applyOpAdd)
		log.Warnf("%v", ipmonerrors.NewRouteApplyError("failed to add route "+r.String(), err))
		return
	}
	routeAdds.Inc()
}

func (s *Synchronizer) remove(r models.IPv4Route) {
	err := s.applier.Remove(r)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		recordApplyFailure(applyOpRemove)
		log.Warnf("%v", ipmonerrors.NewRouteApplyError("failed to remove route "+r.String(), err))
		return
	}
	routeRemoves.Inc()
}
