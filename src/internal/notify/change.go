package notify

import "strings"

// Change is a set of changed configuration categories.
type Change uint32

const (
	ChangeNet Change = 1 << iota
	ChangeDNS
	ChangeProxy
)

var changeNames = []struct {
	bit  Change
	name string
}{
	{ChangeNet, "net"},
	{ChangeDNS, "dns"},
	{ChangeProxy, "proxy"},
}

func (c Change) Has(bit Change) bool {
	return c&bit != 0
}

func (c Change) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range changeNames {
		if c.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}
