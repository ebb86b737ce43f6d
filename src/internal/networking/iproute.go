package networking

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

// TableLayout decides which kernel table a route lands in.
type TableLayout struct {
	// MainTable holds unscoped routes.
	MainTable int
	// ScopedTableBase + interface index is the table of a scoped route.
	ScopedTableBase int
	// Metric is the priority of every installed route.
	Metric int
}

// TableFor returns the kernel table of the route.
func (l TableLayout) TableFor(route models.IPv4Route) int {
	if route.Flags.Has(models.RouteFlagScoped) {
		return l.ScopedTableBase + route.IfIndex
	}
	return l.MainTable
}

type IpRoute struct {
	*netlink.Route
}

func (r *IpRoute) String() string {
	to := "all"
	if r.Dst != nil && r.Dst.String() != "<nil>" {
		to = r.Dst.String()
	}

	via := "direct"
	if r.Gw != nil {
		via = r.Gw.String()
	}
	if r.Type == unix.RTN_BLACKHOLE {
		via = "blackhole"
	}

	return fmt.Sprintf("table %d: dst=%s via %s -> idx=%d [metric:%d]",
		r.Table, to, via, r.LinkIndex, r.Priority)
}

// BuildIPv4Route translates a route into its netlink form. Null routes
// become blackhole routes, scoped routes go to the interface's own table.
func BuildIPv4Route(route models.IPv4Route, layout TableLayout) *IpRoute {
	prefixLen, _ := utils.MaskPrefixLen(route.Mask)

	ipr := netlink.Route{}
	ipr.Family = netlink.FAMILY_V4
	ipr.Table = layout.TableFor(route)
	ipr.Priority = layout.Metric
	ipr.Dst = &net.IPNet{
		IP:   utils.IPv4ToNetIP(route.Dest),
		Mask: net.CIDRMask(prefixLen, 32),
	}

	if route.Flags.Has(models.RouteFlagNull) {
		ipr.Type = unix.RTN_BLACKHOLE
		return &IpRoute{&ipr}
	}

	ipr.LinkIndex = route.IfIndex
	if route.IfAddr != 0 {
		ipr.Src = utils.IPv4ToNetIP(route.IfAddr)
	}
	if route.Flags.Has(models.RouteFlagDirectToInterface) {
		ipr.Scope = netlink.SCOPE_LINK
	} else {
		ipr.Gw = utils.IPv4ToNetIP(route.Gateway)
		if route.Flags.Has(models.RouteFlagNotSubnetLocal) {
			ipr.SetFlag(netlink.FLAG_ONLINK)
		}
	}
	return &IpRoute{&ipr}
}

func (ipr *IpRoute) Add() error {
	log.Debugf("Adding IP route [%v]", ipr)
	return netlink.RouteAdd(ipr.Route)
}

func (ipr *IpRoute) Del() error {
	log.Debugf("Deleting IP route [%v]", ipr)
	return netlink.RouteDel(ipr.Route)
}
