package service

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vishvananda/netlink"

	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

func fakeInterfaceService(links []netlink.Link, addrs map[string][]netlink.Addr) *InterfaceService {
	return &InterfaceService{
		linkList: func() ([]netlink.Link, error) { return links, nil },
		addrList: func(link netlink.Link, family int) ([]netlink.Addr, error) {
			return addrs[link.Attrs().Name], nil
		},
	}
}

func dummyLink(index int, name string, flags net.Flags) netlink.Link {
	return &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: index, Name: name, Flags: flags}}
}

func TestInterfaceService_GetInterfaces(t *testing.T) {
	links := []netlink.Link{
		dummyLink(1, "lo", net.FlagUp|net.FlagLoopback),
		dummyLink(2, "eth0", net.FlagUp),
		dummyLink(3, "usb0", 0),
	}
	addrs := map[string][]netlink.Addr{
		"eth0": {{IPNet: &net.IPNet{IP: net.ParseIP("192.0.2.10"), Mask: net.CIDRMask(24, 32)}}},
	}

	ev := evaluate(election.NewEngine(), snapshotFromState(parseTestState(t, testState), Options{}))
	status := &Status{IPv4: ev.ipv4, IPv6: ev.ipv6}

	service := fakeInterfaceService(links, addrs)

	t.Run("Without loopback", func(t *testing.T) {
		got, err := service.GetInterfaces(status, true, false)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		want := []InterfaceInfo{
			{Index: 2, Name: "eth0", IsUp: true, IPAddresses: []string{"192.0.2.10/24"}, Services: []models.ServiceID{"wan"}, PrimaryFor: []models.Family{models.IPv4}},
			{Index: 3, Name: "usb0", IPAddresses: []string{}, Services: []models.ServiceID{"lte"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("GetInterfaces() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("With loopback, without addresses", func(t *testing.T) {
		got, err := service.GetInterfaces(nil, false, true)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(got) != 3 || !got[0].IsLoopback || got[0].IPAddresses != nil {
			t.Errorf("Unexpected interfaces: %+v", got)
		}
	})

	t.Run("Link list failure", func(t *testing.T) {
		failing := &InterfaceService{linkList: func() ([]netlink.Link, error) { return nil, errors.New("no netlink") }}
		if _, err := failing.GetInterfaces(nil, false, false); err == nil {
			t.Error("Expected an error")
		}
	})
}
