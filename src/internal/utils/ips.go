package utils

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net"
	"net/netip"
)

// ParseIPv4 converts a dotted-quad address to its host-order integer value.
func ParseIPv4(s string) (uint32, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return 0, fmt.Errorf("invalid IPv4 address: %s", s)
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// ParseIPv4Mask converts a dotted-quad netmask to its integer value. The
// mask must be contiguous.
func ParseIPv4Mask(s string) (uint32, error) {
	mask, err := ParseIPv4(s)
	if err != nil {
		return 0, fmt.Errorf("invalid IPv4 mask: %s", s)
	}
	if _, ok := MaskPrefixLen(mask); !ok {
		return 0, fmt.Errorf("non-contiguous IPv4 mask: %s", s)
	}
	return mask, nil
}

// IPv4String formats a host-order integer address.
func IPv4String(ip uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], ip)
	return netip.AddrFrom4(b).String()
}

// IPv4ToNetIP converts a host-order integer address to a net.IP.
func IPv4ToNetIP(ip uint32) net.IP {
	return net.IPv4(byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip)).To4()
}

// MaskPrefixLen returns the prefix length of a contiguous mask.
func MaskPrefixLen(mask uint32) (int, bool) {
	ones := bits.LeadingZeros32(^mask)
	if ones < 32 && mask<<ones != 0 {
		return 0, false
	}
	return ones, true
}
