package dnsconfig

import (
	"sort"
	"strings"
)

// sortResolvers orders a resolver list for publication.
//
// Entries without a domain come first, unscoped before scoped. Forward
// domains precede reverse zones. Domains are compared label by label from
// the right, case-insensitively, and a domain sorts before its own parent.
// Remaining ties are broken by search order and then insertion order.
func sortResolvers(resolvers []Resolver, defaultOrder int) {
	sort.SliceStable(resolvers, func(i, j int) bool {
		return resolverLess(&resolvers[i], &resolvers[j], defaultOrder)
	})
}

func resolverLess(a, b *Resolver, defaultOrder int) bool {
	if (a.Domain == "") != (b.Domain == "") {
		return a.Domain == ""
	}
	if a.Scoped() != b.Scoped() {
		return !a.Scoped()
	}
	if a.Domain != "" {
		aRev, bRev := isReverseDomain(a.Domain), isReverseDomain(b.Domain)
		if aRev != bRev {
			return !aRev
		}
		if c := compareDomains(a.Domain, b.Domain); c != 0 {
			return c < 0
		}
	}
	if ao, bo := a.order(defaultOrder), b.order(defaultOrder); ao != bo {
		return ao < bo
	}
	return a.InsertionOrderTag < b.InsertionOrderTag
}

// compareDomains compares domains label by label starting from the top
// level. When one domain is a suffix of the other the longer one comes first.
func compareDomains(a, b string) int {
	al := strings.Split(strings.ToLower(a), ".")
	bl := strings.Split(strings.ToLower(b), ".")
	i, j := len(al)-1, len(bl)-1
	for ; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if c := strings.Compare(al[i], bl[j]); c != 0 {
			return c
		}
	}
	switch {
	case i >= 0:
		return -1
	case j >= 0:
		return 1
	}
	return 0
}
