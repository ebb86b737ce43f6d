package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

func TestServiceKey(t *testing.T) {
	key := ServiceKey("wan", models.EntityIPv4)
	if key != "State:/Network/Service/wan/IPv4" {
		t.Errorf("unexpected key %s", key)
	}

	id, entity, ok := ParseServiceKey(key)
	if !ok || id != "wan" || entity != models.EntityIPv4 {
		t.Errorf("ParseServiceKey(%s) = %s, %s, %v", key, id, entity, ok)
	}

	for _, bad := range []string{GlobalIPv4Key, "State:/Network/Service/wan", "State:/Network/Service//IPv4", "State:/Network/Service/a/b/c"} {
		if _, _, ok := ParseServiceKey(bad); ok {
			t.Errorf("ParseServiceKey(%s) should fail", bad)
		}
	}
}

func TestMemoryStore_GetEntity(t *testing.T) {
	s := NewMemoryStore()
	info := &models.IPv4Info{InterfaceName: "eth3"}
	s.Set(ServiceKey("wan", models.EntityIPv4), info)

	got, err := s.GetEntity("wan", models.EntityIPv4)
	if err != nil || got != info {
		t.Errorf("GetEntity() = %v, %v", got, err)
	}

	_, err = s.GetEntity("wan", models.EntityDNS)
	if !errors.Is(err, ipmonerrors.ErrConfigNotFound) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestMemoryStore_GetMultiple(t *testing.T) {
	s := NewMemoryStore()
	s.Set(ServiceKey("wan", models.EntityIPv4), 1)
	s.Set(ServiceKey("lte", models.EntityDNS), 2)
	s.Set(GlobalIPv4Key, 3)
	s.Set(MulticastDNSKey, 4)

	got := s.GetMultiple([]string{GlobalIPv4Key, "missing"}, []string{ServiceKeyPattern, "(invalid"})
	want := map[string]any{
		ServiceKey("wan", models.EntityIPv4): 1,
		ServiceKey("lte", models.EntityDNS):  2,
		GlobalIPv4Key:                        3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetMultiple() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	s := NewMemoryStore()
	var calls [][]string
	cancel, err := s.Subscribe([]string{GlobalIPv4Key}, []string{ServiceKeyPattern}, func(keys []string) {
		calls = append(calls, keys)
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	wanKey := ServiceKey("wan", models.EntityIPv4)
	s.Set(wanKey, &models.IPv4Info{InterfaceName: "eth3"})
	s.Set(wanKey, &models.IPv4Info{InterfaceName: "eth3"})
	s.Set(MulticastDNSKey, &DomainList{})
	s.Apply(map[string]any{
		GlobalIPv4Key: &GlobalIPv4{ServiceOrder: models.ServiceOrder{"wan"}},
	})

	want := [][]string{
		{wanKey},
		{GlobalIPv4Key, wanKey},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Get(MulticastDNSKey); ok {
		t.Error("Apply must remove keys missing from the snapshot")
	}

	cancel()
	s.Remove(GlobalIPv4Key)
	if len(calls) != 2 {
		t.Errorf("canceled subscription still notified: %v", calls)
	}

	if _, err := s.Subscribe(nil, []string{"(bad"}, func([]string) {}); err == nil {
		t.Error("expected an error for an invalid pattern")
	}
}

const testStateFile = `
service_order = ["wan", "lte"]
multicast_domains = ["local"]

[services.wan.ipv4]
interface = "eth3"
addresses = ["192.0.2.10"]
subnet_masks = ["255.255.255.0"]
router = "192.0.2.1"

[services.wan.dns]
server_addresses = ["192.0.2.1"]
domain_name = "home.lan"
search_order = 100

[services.lte.ipv4]
interface = "usb0"
addresses = ["10.64.0.2"]

[services.lte.options]
primary_rank = "Last"
`

func TestLoadStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	if err := os.WriteFile(path, []byte(testStateFile), 0644); err != nil {
		t.Fatal(err)
	}

	state, checksum, err := LoadStateFile(path)
	if err != nil {
		t.Fatalf("LoadStateFile failed: %v", err)
	}
	if len(checksum) != 32 {
		t.Errorf("unexpected checksum %q", checksum)
	}

	snapshot := state.Snapshot()
	wantKeys := []string{
		GlobalIPv4Key,
		MulticastDNSKey,
		ServiceKey("lte", models.EntityIPv4),
		ServiceKey("lte", models.EntityService),
		ServiceKey("wan", models.EntityDNS),
		ServiceKey("wan", models.EntityIPv4),
	}
	s := NewMemoryStore()
	s.Apply(snapshot)
	if diff := cmp.Diff(wantKeys, s.Keys()); diff != "" {
		t.Errorf("snapshot keys mismatch (-want +got):\n%s", diff)
	}

	global := snapshot[GlobalIPv4Key].(*GlobalIPv4)
	if !reflect.DeepEqual(global.ServiceOrder, models.ServiceOrder{"wan", "lte"}) {
		t.Errorf("unexpected service order %v", global.ServiceOrder)
	}
	dns := snapshot[ServiceKey("wan", models.EntityDNS)].(*models.DNSInfo)
	if dns.SearchOrder == nil || *dns.SearchOrder != 100 || dns.DomainName != "home.lan" {
		t.Errorf("unexpected DNS entity %+v", dns)
	}
	opts := snapshot[ServiceKey("lte", models.EntityService)].(*models.ServiceOptions)
	if opts.PrimaryRank != "Last" {
		t.Errorf("unexpected options %+v", opts)
	}

	_, again, err := LoadStateFile(path)
	if err != nil || again != checksum {
		t.Errorf("checksum not stable: %s vs %s (%v)", checksum, again, err)
	}
}

func TestLoadStateFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadStateFile(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, ipmonerrors.ErrConfigNotFound) {
		t.Errorf("expected a not-found error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("service_order = [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err = LoadStateFile(bad)
	if !errors.Is(err, ipmonerrors.ErrMalformedEntity) {
		t.Errorf("expected a malformed entity error, got %v", err)
	}
}
