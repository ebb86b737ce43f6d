package models

import "fmt"

// RankAssertion is the administrative class of a service's position in the
// service order. It occupies the high 8 bits of a Rank.
type RankAssertion uint32

const (
	RankAssertionFirst   RankAssertion = 0 << 24
	RankAssertionDefault RankAssertion = 1 << 24
	RankAssertionLast    RankAssertion = 2 << 24
	RankAssertionNever   RankAssertion = 3 << 24
)

const (
	rankAssertionMask = 0xff000000
	rankIndexMask     = 0x00ffffff

	// RankIndexUnranked is the index of a service missing from the service order.
	RankIndexUnranked = rankIndexMask
)

// Rank orders candidates and routes. Lower values are preferred.
type Rank uint32

// RankMake combines a service order index with an assertion class.
func RankMake(index uint32, assertion RankAssertion) Rank {
	if index > rankIndexMask {
		index = rankIndexMask
	}
	return Rank(uint32(assertion)&rankAssertionMask | index&rankIndexMask)
}

// Assertion returns the assertion class of the rank.
func (r Rank) Assertion() RankAssertion {
	return RankAssertion(uint32(r) & rankAssertionMask)
}

// Index returns the service order index of the rank.
func (r Rank) Index() uint32 {
	return uint32(r) & rankIndexMask
}

// WithAssertion keeps the index and replaces the assertion class.
func (r Rank) WithAssertion(assertion RankAssertion) Rank {
	return RankMake(r.Index(), assertion)
}

// Less reports whether r is preferred over o.
func (r Rank) Less(o Rank) bool {
	return r < o
}

// IsNever reports whether the rank can never make its owner primary.
func (r Rank) IsNever() bool {
	return r.Assertion() == RankAssertionNever
}

func (r Rank) String() string {
	if r.Index() == RankIndexUnranked {
		return fmt.Sprintf("%s/unranked", r.Assertion())
	}
	return fmt.Sprintf("%s/%d", r.Assertion(), r.Index())
}

func (a RankAssertion) String() string {
	switch a {
	case RankAssertionFirst:
		return "First"
	case RankAssertionDefault:
		return "Default"
	case RankAssertionLast:
		return "Last"
	case RankAssertionNever:
		return "Never"
	default:
		return fmt.Sprintf("RankAssertion(%#x)", uint32(a))
	}
}

// ParseRankAssertion maps the PrimaryRank option string to an assertion
// class. Unknown or empty values yield RankAssertionDefault and false.
func ParseRankAssertion(s string) (RankAssertion, bool) {
	switch s {
	case "First":
		return RankAssertionFirst, true
	case "Last":
		return RankAssertionLast, true
	case "Never":
		return RankAssertionNever, true
	case "Default":
		return RankAssertionDefault, true
	default:
		return RankAssertionDefault, false
	}
}

// assertionPrecedence: Never always wins, then Last, then First.
var assertionPrecedence = map[RankAssertion]int{
	RankAssertionDefault: 0,
	RankAssertionFirst:   1,
	RankAssertionLast:    2,
	RankAssertionNever:   3,
}

// MergeAssertion resolves two sources that disagree about a service's class.
func MergeAssertion(a, b RankAssertion) RankAssertion {
	if assertionPrecedence[b] > assertionPrecedence[a] {
		return b
	}
	return a
}
