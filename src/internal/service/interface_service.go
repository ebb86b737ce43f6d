package service

import (
	"fmt"
	"net"
	"sort"

	"github.com/vishvananda/netlink"

	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// InterfaceInfo represents a network interface together with the services
// running over it.
type InterfaceInfo struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	IsUp        bool     `json:"is_up"`
	IsLoopback  bool     `json:"is_loopback"`
	IPAddresses []string `json:"ip_addresses,omitempty"`

	// Services lists the services whose IPv4 or IPv6 entity uses the interface.
	Services []models.ServiceID `json:"services,omitempty"`
	// PrimaryFor lists the families the interface is primary for.
	PrimaryFor []models.Family `json:"primary_for,omitempty"`
}

// InterfaceService provides unified interface information for both CLI and API.
type InterfaceService struct {
	linkList func() ([]netlink.Link, error)
	addrList func(netlink.Link, int) ([]netlink.Addr, error)
}

// NewInterfaceService creates an interface service backed by netlink.
func NewInterfaceService() *InterfaceService {
	return &InterfaceService{
		linkList: netlink.LinkList,
		addrList: netlink.AddrList,
	}
}

// GetInterfaces returns all network interfaces. When status is not nil,
// every interface is annotated with the services and primaries on it.
func (s *InterfaceService) GetInterfaces(status *Status, includeIPs bool, includeLoopback bool) ([]InterfaceInfo, error) {
	links, err := s.linkList()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	services, primaries := interfaceUsage(status)

	result := make([]InterfaceInfo, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		isLoopback := attrs.Flags&net.FlagLoopback != 0

		if isLoopback && !includeLoopback {
			continue
		}

		info := InterfaceInfo{
			Index:      attrs.Index,
			Name:       attrs.Name,
			IsUp:       attrs.Flags&net.FlagUp != 0,
			IsLoopback: isLoopback,
			Services:   services[attrs.Name],
			PrimaryFor: primaries[attrs.Name],
		}

		if includeIPs {
			addrs, err := s.addrList(link, netlink.FAMILY_ALL)
			if err == nil {
				info.IPAddresses = make([]string, 0, len(addrs))
				for _, addr := range addrs {
					info.IPAddresses = append(info.IPAddresses, addr.IPNet.String())
				}
			}
		}

		result = append(result, info)
	}

	return result, nil
}

// interfaceUsage maps interface names to the candidates running over them
// and to the families they are primary for.
func interfaceUsage(status *Status) (map[string][]models.ServiceID, map[string][]models.Family) {
	services := make(map[string][]models.ServiceID)
	primaries := make(map[string][]models.Family)
	if status == nil {
		return services, primaries
	}

	for _, results := range []*election.Results{status.IPv4, status.IPv6} {
		if results == nil {
			continue
		}
		for _, c := range results.Candidates {
			if !containsID(services[c.InterfaceName], c.ServiceID) {
				services[c.InterfaceName] = append(services[c.InterfaceName], c.ServiceID)
			}
		}
		if primary := results.PrimaryRecord(); primary != nil {
			primaries[primary.InterfaceName] = append(primaries[primary.InterfaceName], results.Family)
		}
	}
	for name := range services {
		ids := services[name]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return services, primaries
}

func containsID(ids []models.ServiceID, id models.ServiceID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
