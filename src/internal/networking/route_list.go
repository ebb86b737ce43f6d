package networking

import (
	"strings"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const initialRouteListCapacity = 4

// RouteList is an IPv4 route list kept sorted by destination and mask.
// Routes sharing a destination are ordered by rank, then interface index,
// then interface name; only the first of them is unscoped.
type RouteList struct {
	routes []models.IPv4Route

	// ExcludeFromNWI marks a service route list that must not carry traffic.
	ExcludeFromNWI bool
}

func NewRouteList() *RouteList {
	return &RouteList{}
}

// Routes returns a copy of the routes in list order.
func (l *RouteList) Routes() []models.IPv4Route {
	if l == nil {
		return nil
	}
	out := make([]models.IPv4Route, len(l.routes))
	copy(out, l.routes)
	return out
}

func (l *RouteList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.routes)
}

// Add merges route into the list.
//
// A route with the Never assertion is always scoped. A route for a
// destination and interface already present replaces the existing entry
// only when its rank is lower. When several interfaces share a destination,
// the best ranked one stays unscoped and every other is flagged scoped.
// Reports whether the list changed.
func (l *RouteList) Add(route models.IPv4Route) bool {
	if route.Rank.IsNever() {
		route.Flags |= models.RouteFlagScoped
	} else {
		route.Flags &^= models.RouteFlagScoped
	}

	start, end := l.group(route.Dest, route.Mask)
	for i := start; i < end; i++ {
		if l.routes[i].IfName != route.IfName {
			continue
		}
		if !route.Rank.Less(l.routes[i].Rank) {
			return false
		}
		l.removeAt(i, start)
		end--
		break
	}

	pos := start
	for pos < end && routeLess(l.routes[pos], route) {
		pos++
	}
	if end > start {
		if pos == start {
			// The new route takes over the group; the old head steps aside.
			l.routes[start].Flags |= models.RouteFlagScoped
		} else {
			route.Flags |= models.RouteFlagScoped
		}
	}
	l.insertAt(pos, route)
	return true
}

// DefaultRoute returns the unscoped default route, if any.
func (l *RouteList) DefaultRoute() (models.IPv4Route, bool) {
	if l == nil {
		return models.IPv4Route{}, false
	}
	for _, r := range l.routes {
		if !r.IsDefault() {
			break
		}
		if !r.Flags.Has(models.RouteFlagScoped) {
			return r, true
		}
	}
	return models.IPv4Route{}, false
}

func (l *RouteList) String() string {
	if l.Len() == 0 {
		return "<empty>"
	}
	var sb strings.Builder
	for i, r := range l.routes {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(r.String())
	}
	return sb.String()
}

// group returns the half-open range of routes with the given destination
// and mask. An empty range starts where such a route would be inserted.
func (l *RouteList) group(dest, mask uint32) (int, int) {
	lo, hi := 0, len(l.routes)
	for lo < hi {
		mid := (lo + hi) / 2
		if destLess(l.routes[mid].Dest, l.routes[mid].Mask, dest, mask) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	end := lo
	for end < len(l.routes) && l.routes[end].Dest == dest && l.routes[end].Mask == mask {
		end++
	}
	return lo, end
}

// insertAt grows the backing storage by doubling and shifts the tail.
func (l *RouteList) insertAt(pos int, route models.IPv4Route) {
	n := len(l.routes)
	if n == cap(l.routes) {
		newCap := cap(l.routes) * 2
		if newCap == 0 {
			newCap = initialRouteListCapacity
		}
		grown := make([]models.IPv4Route, n, newCap)
		copy(grown, l.routes)
		l.routes = grown
	}
	l.routes = l.routes[:n+1]
	copy(l.routes[pos+1:], l.routes[pos:n])
	l.routes[pos] = route
}

// removeAt drops the route at i. When it headed its group, the next route
// of the group becomes unscoped unless it is asserted Never.
func (l *RouteList) removeAt(i, groupStart int) {
	removed := l.routes[i]
	copy(l.routes[i:], l.routes[i+1:])
	l.routes = l.routes[:len(l.routes)-1]

	if i != groupStart || i >= len(l.routes) {
		return
	}
	next := &l.routes[i]
	if next.Dest == removed.Dest && next.Mask == removed.Mask && !next.Rank.IsNever() {
		next.Flags &^= models.RouteFlagScoped
	}
}

func destLess(aDest, aMask, bDest, bMask uint32) bool {
	if aDest != bDest {
		return aDest < bDest
	}
	return aMask < bMask
}

// routeLess orders routes of one destination group.
func routeLess(a, b models.IPv4Route) bool {
	if a.Rank != b.Rank {
		return a.Rank.Less(b.Rank)
	}
	if a.IfIndex != b.IfIndex {
		return a.IfIndex < b.IfIndex
	}
	return a.IfName < b.IfName
}
