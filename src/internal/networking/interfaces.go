package networking

import (
	"github.com/vishvananda/netlink"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

// NetlinkResolver resolves interface names and indices through netlink.
type NetlinkResolver struct{}

func NewNetlinkResolver() *NetlinkResolver {
	return &NetlinkResolver{}
}

func (r *NetlinkResolver) NameToIndex(name string) int {
	link, err := netlink.LinkByName(name)
	if err != nil {
		log.Debugf("Failed to resolve interface %q: %v", name, err)
		return 0
	}
	return link.Attrs().Index
}

func (r *NetlinkResolver) IndexToName(index int) (string, bool) {
	link, err := netlink.LinkByIndex(index)
	if err != nil {
		log.Debugf("Failed to resolve interface index %d: %v", index, err)
		return "", false
	}
	return link.Attrs().Name, true
}
