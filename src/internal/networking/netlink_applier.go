package networking

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// NetlinkApplier installs routes in the kernel through netlink.
type NetlinkApplier struct {
	layout TableLayout
}

func NewNetlinkApplier(layout TableLayout) *NetlinkApplier {
	return &NetlinkApplier{layout: layout}
}

func (a *NetlinkApplier) Add(route models.IPv4Route) error {
	return BuildIPv4Route(route, a.layout).Add()
}

func (a *NetlinkApplier) Remove(route models.IPv4Route) error {
	return BuildIPv4Route(route, a.layout).Del()
}

// DryRunApplier only logs the route operations it is asked to perform.
type DryRunApplier struct {
	layout TableLayout
}

func NewDryRunApplier(layout TableLayout) *DryRunApplier {
	return &DryRunApplier{layout: layout}
}

func (a *DryRunApplier) Add(route models.IPv4Route) error {
	log.Infof("[dry-run] ip route add %s", BuildIPv4Route(route, a.layout))
	return nil
}

func (a *DryRunApplier) Remove(route models.IPv4Route) error {
	log.Infof("[dry-run] ip route del %s", BuildIPv4Route(route, a.layout))
	return nil
}
