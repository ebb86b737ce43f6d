package dnsconfig

import (
	"math"
	"reflect"
)

// List accumulates resolvers while a configuration is being built.
type List struct {
	resolvers []Resolver
	nextTag   int
}

func NewList() *List {
	return &List{}
}

// AddResolver appends r, tagging it with the next insertion order.
//
// An entry identical to an existing one is rejected. An entry that only
// differs from an existing one by search order replaces it in place when
// its search order is lower, and is rejected otherwise. Reports whether
// the list changed.
func (l *List) AddResolver(r Resolver) bool {
	for i := range l.resolvers {
		existing := &l.resolvers[i]
		if !sameResolver(existing, &r, true) {
			continue
		}
		if sameResolver(existing, &r, false) {
			return false
		}
		if r.order(math.MaxInt) < existing.order(math.MaxInt) {
			r.InsertionOrderTag = existing.InsertionOrderTag
			*existing = r
			return true
		}
		return false
	}

	r.InsertionOrderTag = l.nextTag
	l.nextTag++
	l.resolvers = append(l.resolvers, r)
	return true
}

// Resolvers returns the accumulated entries.
func (l *List) Resolvers() []Resolver {
	return l.resolvers
}

func (l *List) Len() int {
	return len(l.resolvers)
}

// sameResolver compares two entries ignoring their bookkeeping fields. With
// ignoreOrder the search order is ignored as well.
func sameResolver(a, b *Resolver, ignoreOrder bool) bool {
	x, y := *a, *b
	x.InsertionOrderTag, y.InsertionOrderTag = 0, 0
	x.IfIndex, y.IfIndex = 0, 0
	x.ServiceID, y.ServiceID = "", ""
	if ignoreOrder {
		x.SearchOrder, y.SearchOrder = nil, nil
	}
	return reflect.DeepEqual(x, y)
}
