package election

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

func ipv4Service(id, ifname, addr, router string) *models.ServiceRecord {
	return &models.ServiceRecord{
		ID: models.ServiceID(id),
		IPv4: &models.IPv4Info{
			InterfaceName: ifname,
			Addresses:     []string{addr},
			SubnetMasks:   []string{"255.255.255.0"},
			Router:        router,
		},
	}
}

func withIPv6(svc *models.ServiceRecord, ifname, addr, router string) *models.ServiceRecord {
	svc.IPv6 = &models.IPv6Info{
		InterfaceName: ifname,
		Addresses:     []string{addr},
		PrefixLengths: []int{64},
		Router:        router,
	}
	return svc
}

func withOptions(svc *models.ServiceRecord, rank string, coupled bool) *models.ServiceRecord {
	svc.Options = &models.ServiceOptions{PrimaryRank: rank, IPIsCoupled: coupled}
	return svc
}

func services(list ...*models.ServiceRecord) map[models.ServiceID]*models.ServiceRecord {
	m := make(map[models.ServiceID]*models.ServiceRecord, len(list))
	for _, s := range list {
		m[s.ID] = s
	}
	return m
}

func ids(r *Results) []models.ServiceID {
	out := make([]models.ServiceID, 0, r.Len())
	for _, c := range r.Candidates {
		out = append(out, c.ServiceID)
	}
	return out
}

func assertSorted(t *testing.T, r *Results) {
	t.Helper()
	for i := 1; i < r.Len(); i++ {
		if r.Candidates[i].Rank.Less(r.Candidates[i-1].Rank) {
			t.Errorf("candidates not sorted at %d: %s before %s", i, r.Candidates[i-1].Rank, r.Candidates[i].Rank)
		}
	}
}

func TestElect_Empty(t *testing.T) {
	results, other := NewEngine().Elect(models.IPv4, Input{})
	if results.Len() != 0 || other.Len() != 0 {
		t.Errorf("expected no candidates, got %d/%d", results.Len(), other.Len())
	}
	if results.Primary() != nil || other.Primary() != nil {
		t.Error("expected no primary")
	}
	if results.Family != models.IPv4 || other.Family != models.IPv6 {
		t.Errorf("unexpected families %s/%s", results.Family, other.Family)
	}
}

func TestElect_RankingAndEligibility(t *testing.T) {
	tests := []struct {
		name     string
		services map[models.ServiceID]*models.ServiceRecord
		order    models.ServiceOrder
		ppp      bool
		want     []models.ServiceID
		primary  models.ServiceID
	}{
		{
			name: "service order decides",
			services: services(
				ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"),
				ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"),
			),
			order:   models.ServiceOrder{"B", "A"},
			want:    []models.ServiceID{"B", "A"},
			primary: "B",
		},
		{
			name: "loopback and address-less services are not candidates",
			services: services(
				ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"),
				ipv4Service("L", "lo", "127.0.0.1", ""),
				&models.ServiceRecord{ID: "E", IPv4: &models.IPv4Info{InterfaceName: "en2"}},
				&models.ServiceRecord{ID: "N", IPv4: &models.IPv4Info{Addresses: []string{"10.9.9.9"}}},
				&models.ServiceRecord{ID: "D", DNS: &models.DNSInfo{ServerAddresses: []string{"10.0.0.1"}}},
			),
			order:   models.ServiceOrder{"L", "E", "N", "D", "A"},
			want:    []models.ServiceID{"A"},
			primary: "A",
		},
		{
			name: "unranked services follow ranked ones",
			services: services(
				ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"),
				ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"),
				ipv4Service("C", "en2", "10.0.2.10", "10.0.2.1"),
			),
			order:   models.ServiceOrder{"C"},
			want:    []models.ServiceID{"C", "A", "B"},
			primary: "C",
		},
		{
			name: "rank assertions",
			services: services(
				withOptions(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), "Last", false),
				withOptions(ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"), "", false),
				withOptions(ipv4Service("C", "en2", "10.0.2.10", "10.0.2.1"), "First", false),
				withOptions(ipv4Service("D", "en3", "10.0.3.10", "10.0.3.1"), "Never", false),
			),
			order:   models.ServiceOrder{"D", "A", "B", "C"},
			want:    []models.ServiceID{"C", "B", "A", "D"},
			primary: "C",
		},
		{
			name: "legacy override primary",
			services: func() map[models.ServiceID]*models.ServiceRecord {
				b := ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1")
				b.IPv4.OverridePrimary = true
				return services(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), b)
			}(),
			order:   models.ServiceOrder{"A", "B"},
			want:    []models.ServiceID{"B", "A"},
			primary: "B",
		},
		{
			name: "ppp override primary",
			services: services(
				ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"),
				ipv4Service("P", "ppp0", "100.64.0.2", "100.64.0.1"),
			),
			order:   models.ServiceOrder{"A", "P"},
			ppp:     true,
			want:    []models.ServiceID{"P", "A"},
			primary: "P",
		},
		{
			name: "ppp override off",
			services: services(
				ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"),
				ipv4Service("P", "ppp0", "100.64.0.2", "100.64.0.1"),
			),
			order:   models.ServiceOrder{"A", "P"},
			want:    []models.ServiceID{"A", "P"},
			primary: "A",
		},
		{
			name: "override never lifts Never",
			services: func() map[models.ServiceID]*models.ServiceRecord {
				p := withOptions(ipv4Service("P", "ppp0", "100.64.0.2", "100.64.0.1"), "Never", false)
				return services(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), p)
			}(),
			order:   models.ServiceOrder{"P", "A"},
			ppp:     true,
			want:    []models.ServiceID{"A", "P"},
			primary: "A",
		},
		{
			name: "vpn Never beats option First",
			services: func() map[models.ServiceID]*models.ServiceRecord {
				v := withOptions(ipv4Service("V", "utun0", "10.8.0.2", "10.8.0.1"), "First", false)
				v.VPN = &models.VPNStatus{Type: "VPN", PrimaryRank: "Never"}
				return services(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), v)
			}(),
			order:   models.ServiceOrder{"V", "A"},
			want:    []models.ServiceID{"A", "V"},
			primary: "A",
		},
		{
			name: "equal ranks are ordered by service id",
			services: services(
				ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"),
				ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"),
			),
			want:    []models.ServiceID{"A", "B"},
			primary: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, _ := NewEngine().Elect(models.IPv4, Input{
				Services:           tt.services,
				Order:              tt.order,
				PPPOverridePrimary: tt.ppp,
			})
			assertSorted(t, results)
			if diff := cmp.Diff(tt.want, ids(results)); diff != "" {
				t.Errorf("candidate order mismatch (-want +got):\n%s", diff)
			}
			if got := results.PrimaryServiceID(); got != tt.primary {
				t.Errorf("primary = %q, want %q", got, tt.primary)
			}
			for _, c := range results.Candidates {
				if c.InterfaceName == "lo" {
					t.Errorf("loopback candidate %s in results", c.ServiceID)
				}
			}
		})
	}
}

func TestElect_IPv6RequiresRouter(t *testing.T) {
	svcs := services(
		withIPv6(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), "en0", "2001:db8::10", ""),
		withIPv6(ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"), "en1", "2001:db8:1::10", "fe80::1"),
	)
	results, other := NewEngine().Elect(models.IPv6, Input{Services: svcs, Order: models.ServiceOrder{"A", "B"}})

	if diff := cmp.Diff([]models.ServiceID{"B"}, ids(results)); diff != "" {
		t.Errorf("IPv6 candidates mismatch (-want +got):\n%s", diff)
	}
	if other.PrimaryServiceID() != "A" {
		t.Errorf("IPv4 primary = %q, want A", other.PrimaryServiceID())
	}
	rec := results.PrimaryRecord()
	if rec == nil || rec.InterfaceName != "en1" || rec.Router != "fe80::1" {
		t.Errorf("unexpected IPv6 primary record %+v", rec)
	}
}

func TestElect_CoupledDemotion(t *testing.T) {
	tests := []struct {
		name        string
		otherIfname string
		otherRank   string
		demoted     bool
	}{
		{"other family ranked higher on another interface", "en1", "", true},
		{"6to4 interface never demotes", "stf0", "", false},
		{"other candidate is Never", "en1", "Never", false},
		{"other candidate on the same interface", "en0", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := withOptions(withIPv6(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), "en0", "2001:db8::10", "fe80::1"), "", true)
			b := &models.ServiceRecord{ID: "B"}
			withIPv6(b, tt.otherIfname, "2001:db8:1::10", "fe80::2")
			if tt.otherRank != "" {
				withOptions(b, tt.otherRank, false)
			}

			results, other := NewEngine().Elect(models.IPv4, Input{
				Services: services(a, b),
				Order:    models.ServiceOrder{"B", "A"},
			})

			c := results.Candidate("A")
			if c == nil {
				t.Fatal("candidate A missing")
			}
			if c.Rank.IsNever() != tt.demoted {
				t.Errorf("demoted = %v, want %v (rank %s)", c.Rank.IsNever(), tt.demoted, c.Rank)
			}
			if c.Rank.Index() != 1 {
				t.Errorf("demotion must keep the order index, got %d", c.Rank.Index())
			}
			wantPrimary := models.ServiceID("A")
			if tt.demoted {
				wantPrimary = ""
			}
			if got := results.PrimaryServiceID(); got != wantPrimary {
				t.Errorf("IPv4 primary = %q, want %q", got, wantPrimary)
			}
			assertSorted(t, other)
		})
	}
}

func TestElect_CoupledCandidateRankedHigherStays(t *testing.T) {
	a := withOptions(withIPv6(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), "en0", "2001:db8::10", "fe80::1"), "", true)
	b := withIPv6(&models.ServiceRecord{ID: "B"}, "en1", "2001:db8:1::10", "fe80::2")

	results, other := NewEngine().Elect(models.IPv4, Input{
		Services: services(a, b),
		Order:    models.ServiceOrder{"A", "B"},
	})
	if results.PrimaryServiceID() != "A" {
		t.Errorf("IPv4 primary = %q, want A", results.PrimaryServiceID())
	}
	if other.PrimaryServiceID() != "A" {
		t.Errorf("IPv6 primary = %q, want A", other.PrimaryServiceID())
	}
}

func TestElect_SkipCandidateBlocksElection(t *testing.T) {
	svcs := services(
		ipv4Service("A", "en0", "169.254.10.10", ""),
		ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"),
		withOptions(ipv4Service("C", "en2", "10.0.2.10", "10.0.2.1"), "First", false),
	)

	results, _ := NewEngine().Elect(models.IPv4, Input{
		Services:       svcs,
		Order:          models.ServiceOrder{"A", "B", "C"},
		ExcludeFromNWI: map[models.ServiceID]bool{"C": true},
	})

	if results.Primary() != nil {
		t.Fatalf("expected no primary, got %s", results.PrimaryServiceID())
	}
	if diff := cmp.Diff([]models.ServiceID{"C", "A", "B"}, ids(results)); diff != "" {
		t.Errorf("candidate order mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []models.ServiceID{"A", "B"} {
		if !results.Candidate(id).Rank.IsNever() {
			t.Errorf("candidate %s below a skip candidate must be Never", id)
		}
	}
	assertSorted(t, results)
}

func TestElect_NullIPv6IsSkipped(t *testing.T) {
	a := withIPv6(&models.ServiceRecord{ID: "A"}, "en0", "2001:db8::10", "fe80::1")
	a.IPv6.IsNull = true
	b := withIPv6(&models.ServiceRecord{ID: "B"}, "en1", "2001:db8:1::10", "fe80::2")

	results, _ := NewEngine().Elect(models.IPv6, Input{
		Services: services(a, b),
		Order:    models.ServiceOrder{"A", "B"},
	})
	if results.Primary() != nil {
		t.Errorf("expected no IPv6 primary, got %s", results.PrimaryServiceID())
	}
}

func TestElect_RouteAssertionMerged(t *testing.T) {
	a := ipv4Service("A", "en0", "10.0.0.10", "")
	b := ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1")

	results, _ := NewEngine().Elect(models.IPv4, Input{
		Services: services(a, b),
		Order:    models.ServiceOrder{"A", "B"},
		IPv4RankAssertions: map[models.ServiceID]models.RankAssertion{
			"A": models.RankAssertionLast,
			"B": models.RankAssertionDefault,
		},
	})

	if diff := cmp.Diff([]models.ServiceID{"B", "A"}, ids(results)); diff != "" {
		t.Errorf("candidate order mismatch (-want +got):\n%s", diff)
	}
	if got := results.Candidate("A").Rank.Assertion(); got != models.RankAssertionLast {
		t.Errorf("expected A to be asserted Last, got %s", got)
	}
	if results.PrimaryServiceID() != "B" {
		t.Errorf("expected B primary, got %s", results.PrimaryServiceID())
	}
}

func TestElect_ResultsDoNotAlias(t *testing.T) {
	in := Input{
		Services: services(
			withIPv6(ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1"), "en0", "2001:db8::10", "fe80::1"),
			ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1"),
		),
		Order: models.ServiceOrder{"A", "B"},
	}
	engine := NewEngine()
	first, _ := engine.Elect(models.IPv4, in)
	second, _ := engine.Elect(models.IPv4, in)

	if !first.Equal(second) {
		t.Fatal("identical inputs must produce equal results")
	}
	second.Candidates[0].Rank = models.RankMake(0, models.RankAssertionNever)
	if first.Candidates[0].Rank.IsNever() {
		t.Error("results of two elections share storage")
	}
	if first.Equal(second) {
		t.Error("Equal should notice a changed rank")
	}
}

func TestPrimaryChanged(t *testing.T) {
	engine := NewEngine()
	a := ipv4Service("A", "en0", "10.0.0.10", "10.0.0.1")
	b := ipv4Service("B", "en1", "10.0.1.10", "10.0.1.1")

	before, _ := engine.Elect(models.IPv4, Input{Services: services(a, b), Order: models.ServiceOrder{"A", "B"}})
	same, _ := engine.Elect(models.IPv4, Input{Services: services(a, b), Order: models.ServiceOrder{"A", "B"}})
	after, _ := engine.Elect(models.IPv4, Input{Services: services(a, b), Order: models.ServiceOrder{"B", "A"}})
	none, _ := engine.Elect(models.IPv4, Input{})

	if PrimaryChanged(before, same) {
		t.Error("same primary reported as changed")
	}
	if !PrimaryChanged(before, after) {
		t.Error("new primary not reported")
	}
	if !PrimaryChanged(before, none) || !PrimaryChanged(nil, before) {
		t.Error("appearing or disappearing primary not reported")
	}
	if PrimaryChanged(nil, none) {
		t.Error("two empty elections reported as changed")
	}
}
