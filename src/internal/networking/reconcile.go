package networking

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

type routeKey struct {
	dest, mask, ifAddr, gateway uint32
	ifName                      string
	flags                       models.RouteFlags
}

func keyOf(r models.IPv4Route) routeKey {
	return routeKey{
		dest:    r.Dest,
		mask:    r.Mask,
		ifAddr:  r.IfAddr,
		gateway: r.Gateway,
		ifName:  r.IfName,
		flags:   r.Flags,
	}
}

// Reconcile diffs two route lists. A route is kept only when the other list
// holds a route with identical destination, mask, interface, interface
// address, gateway and flags, so a changed route shows up as a removal
// plus an addition.
func Reconcile(prev, next *RouteList) (adds, removes []models.IPv4Route) {
	prevKeys := make(map[routeKey]struct{}, prev.Len())
	for _, r := range prev.Routes() {
		prevKeys[keyOf(r)] = struct{}{}
	}
	nextKeys := make(map[routeKey]struct{}, next.Len())
	for _, r := range next.Routes() {
		nextKeys[keyOf(r)] = struct{}{}
	}

	for _, r := range prev.Routes() {
		if _, ok := nextKeys[keyOf(r)]; !ok {
			removes = append(removes, r)
		}
	}
	for _, r := range next.Routes() {
		if _, ok := prevKeys[keyOf(r)]; !ok {
			adds = append(adds, r)
		}
	}
	return adds, removes
}
