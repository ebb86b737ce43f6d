package models

import (
	"errors"
	"testing"

	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
)

func TestRankMake(t *testing.T) {
	r := RankMake(7, RankAssertionLast)
	if r.Index() != 7 {
		t.Errorf("Index() = %d, want 7", r.Index())
	}
	if r.Assertion() != RankAssertionLast {
		t.Errorf("Assertion() = %s, want Last", r.Assertion())
	}

	clamped := RankMake(0xfffffff, RankAssertionFirst)
	if clamped.Index() != RankIndexUnranked {
		t.Errorf("oversized index should clamp to unranked, got %#x", clamped.Index())
	}
}

func TestRankOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b Rank
	}{
		{"assertion dominates index", RankMake(100, RankAssertionFirst), RankMake(0, RankAssertionDefault)},
		{"index breaks ties", RankMake(1, RankAssertionDefault), RankMake(2, RankAssertionDefault)},
		{"unranked sorts after ranked", RankMake(5, RankAssertionDefault), RankMake(RankIndexUnranked, RankAssertionDefault)},
		{"never is last", RankMake(RankIndexUnranked, RankAssertionLast), RankMake(0, RankAssertionNever)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.a.Less(tt.b) {
				t.Errorf("expected %s < %s", tt.a, tt.b)
			}
			if tt.b.Less(tt.a) {
				t.Errorf("expected !(%s < %s)", tt.b, tt.a)
			}
		})
	}
}

func TestWithAssertionKeepsIndex(t *testing.T) {
	r := RankMake(3, RankAssertionFirst).WithAssertion(RankAssertionNever)
	if !r.IsNever() || r.Index() != 3 {
		t.Errorf("got %s, want Never/3", r)
	}
}

func TestMergeAssertion(t *testing.T) {
	tests := []struct {
		a, b, want RankAssertion
	}{
		{RankAssertionDefault, RankAssertionFirst, RankAssertionFirst},
		{RankAssertionFirst, RankAssertionLast, RankAssertionLast},
		{RankAssertionLast, RankAssertionFirst, RankAssertionLast},
		{RankAssertionNever, RankAssertionFirst, RankAssertionNever},
		{RankAssertionLast, RankAssertionNever, RankAssertionNever},
		{RankAssertionDefault, RankAssertionDefault, RankAssertionDefault},
	}
	for _, tt := range tests {
		if got := MergeAssertion(tt.a, tt.b); got != tt.want {
			t.Errorf("MergeAssertion(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseRankAssertion(t *testing.T) {
	for _, name := range []string{"First", "Default", "Last", "Never"} {
		a, ok := ParseRankAssertion(name)
		if !ok || a.String() != name {
			t.Errorf("ParseRankAssertion(%q) = %s, %v", name, a, ok)
		}
	}
	if a, ok := ParseRankAssertion("Sometimes"); ok || a != RankAssertionDefault {
		t.Errorf("unknown assertion should map to Default/false, got %s/%v", a, ok)
	}
}

func TestServiceOrderIndexOf(t *testing.T) {
	order := ServiceOrder{"A", "B"}
	if order.IndexOf("B") != 1 {
		t.Errorf("IndexOf(B) = %d", order.IndexOf("B"))
	}
	if order.IndexOf("C") != RankIndexUnranked {
		t.Errorf("missing service should be unranked")
	}
}

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name      string
		entity    any
		malformed bool
	}{
		{"valid ipv4", &IPv4Info{InterfaceName: "en0", Addresses: []string{"10.0.0.10"}, SubnetMasks: []string{"255.255.255.0"}, Router: "10.0.0.1"}, false},
		{"bad ipv4 address", &IPv4Info{InterfaceName: "en0", Addresses: []string{"10.0.0"}}, true},
		{"mask count mismatch", &IPv4Info{Addresses: []string{"10.0.0.1", "10.0.0.2"}, SubnetMasks: []string{"255.0.0.0"}}, true},
		{"ipv6 address in ipv4", &IPv4Info{Addresses: []string{"fe80::1"}}, true},
		{"valid ipv6", &IPv6Info{Addresses: []string{"2001:db8::1"}, PrefixLengths: []int{64}, Router: "fe80::1"}, false},
		{"prefix too long", &IPv6Info{Addresses: []string{"2001:db8::1"}, PrefixLengths: []int{129}}, true},
		{"bad dns server", &DNSInfo{ServerAddresses: []string{"resolver"}}, true},
		{"orders without domains", &DNSInfo{SupplementalMatchOrders: []int{1}}, true},
		{"bad primary rank", &ServiceOptions{PrimaryRank: "Sometimes"}, true},
		{"proxy without host", &ProxyInfo{HTTPEnable: true}, true},
		{"nil entity", (*DNSInfo)(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.entity)
			if tt.malformed {
				if !errors.Is(err, ipmonerrors.ErrMalformedEntity) {
					t.Errorf("expected malformed entity error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestServiceRecordValidateDropsMalformed(t *testing.T) {
	rec := &ServiceRecord{
		ID:   "A",
		IPv4: &IPv4Info{InterfaceName: "en0", Addresses: []string{"300.0.0.1"}},
		DNS:  &DNSInfo{ServerAddresses: []string{"10.0.0.1"}},
	}
	errs := rec.Validate()
	if _, ok := errs[EntityIPv4]; !ok {
		t.Fatalf("expected IPv4 to be reported, got %v", errs)
	}
	if rec.IPv4 != nil {
		t.Error("malformed IPv4 entity should be dropped")
	}
	if rec.DNS == nil {
		t.Error("valid DNS entity should be kept")
	}
}

func TestServiceRecordIsPPP(t *testing.T) {
	rec := &ServiceRecord{IPv4: &IPv4Info{InterfaceName: "ppp0"}}
	if !rec.IsPPP(IPv4) {
		t.Error("ppp0 should be a PPP service")
	}
	rec = &ServiceRecord{IPv4: &IPv4Info{InterfaceName: "en0"}, VPN: &VPNStatus{Type: "PPP"}}
	if !rec.IsPPP(IPv4) {
		t.Error("PPP VPN status should mark the service PPP")
	}
}

func TestDNSInfoCloneIsDeep(t *testing.T) {
	order := 5
	d := &DNSInfo{ServerAddresses: []string{"10.0.0.1"}, SearchOrder: &order}
	c := d.Clone()
	c.ServerAddresses[0] = "10.0.0.2"
	*c.SearchOrder = 6
	if d.ServerAddresses[0] != "10.0.0.1" || *d.SearchOrder != 5 {
		t.Error("Clone shares storage with the original")
	}
}

func TestIPv4RouteString(t *testing.T) {
	tests := []struct {
		name  string
		route IPv4Route
		want  string
	}{
		{
			name: "default route",
			route: IPv4Route{
				Gateway: 0xc0000201, IfName: "eth0", IfAddr: 0xc000020a,
				Rank: RankMake(0, RankAssertionDefault),
			},
			want: "0.0.0.0/0 via 192.0.2.1 dev eth0 ifaddr 192.0.2.10 rank Default/0",
		},
		{
			name: "scoped subnet route",
			route: IPv4Route{
				Dest: 0x0a000000, Mask: 0xffffff00, Gateway: 0x0a000002, IfName: "usb0", IfIndex: 3,
				IfAddr: 0x0a000002, Rank: RankMake(1, RankAssertionDefault),
				Flags: RouteFlagDirectToInterface | RouteFlagScoped,
			},
			want: "10.0.0.0/24 via 10.0.0.2 dev usb0 ifaddr 10.0.0.2 rank Default/1 idx 3 [direct,scoped]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.route.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
