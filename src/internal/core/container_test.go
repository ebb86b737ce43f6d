package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/networking"
)

func parseConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := config.ParseConfig([]byte(content))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}
	return cfg
}

func TestNewAppDependencies(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		deps := NewAppDependencies(AppConfig{Config: parseConfig(t, "")})
		defer deps.Close()

		if _, ok := deps.RouteApplier().(*networking.NetlinkApplier); !ok {
			t.Errorf("Expected a netlink applier, got %T", deps.RouteApplier())
		}
		if deps.dnsPublisher != nil {
			t.Error("Expected no DNS publisher without resolv_conf_path")
		}
		if deps.ConfigStore() == nil || deps.Validator() == nil || deps.InterfaceService() == nil {
			t.Error("Expected every dependency to be created")
		}
	})

	t.Run("Dry run", func(t *testing.T) {
		deps := NewAppDependencies(AppConfig{Config: parseConfig(t, ""), DryRun: true})
		defer deps.Close()

		if _, ok := deps.RouteApplier().(*networking.DryRunApplier); !ok {
			t.Errorf("Expected a dry-run applier, got %T", deps.RouteApplier())
		}
	})

	t.Run("Routing disabled", func(t *testing.T) {
		deps := NewAppDependencies(AppConfig{Config: parseConfig(t, "[routing]\nenable = false\n")})
		defer deps.Close()

		if _, ok := deps.RouteApplier().(*networking.DryRunApplier); !ok {
			t.Errorf("Expected a dry-run applier, got %T", deps.RouteApplier())
		}
	})

	t.Run("Resolv.conf publisher", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "resolv.conf")
		deps := NewAppDependencies(AppConfig{Config: parseConfig(t, "[dns]\nresolv_conf_path = \""+path+"\"\n")})
		defer deps.Close()

		if _, ok := deps.dnsPublisher.(*dnsconfig.ResolvConfPublisher); !ok {
			t.Errorf("Expected a resolv.conf publisher, got %T", deps.dnsPublisher)
		}
	})
}

func TestAppDependencies_EngineOptions(t *testing.T) {
	cfg := parseConfig(t, `
[election]
ppp_override_primary = true
service_order = ["wan", "lte"]

[dns]
default_search_order = 100000
multicast_timeout_seconds = -1
scope_all_interfaces = true

[notify]
grace_period_ms = 1500
`)
	deps := NewAppDependencies(AppConfig{Config: cfg, DryRun: true})
	defer deps.Close()

	opts := deps.EngineOptions()
	if len(opts.ServiceOrder) != 2 || opts.ServiceOrder[0] != models.ServiceID("wan") {
		t.Errorf("Unexpected service order %v", opts.ServiceOrder)
	}
	if !opts.PPPOverridePrimary {
		t.Error("Expected PPPOverridePrimary")
	}
	if opts.DNS.DefaultSearchOrder != 100000 || opts.DNS.MulticastTimeout != 0 || !opts.DNS.ScopeAllInterfaces {
		t.Errorf("Unexpected DNS options %+v", opts.DNS)
	}
	if opts.GracePeriod != 1500*time.Millisecond {
		t.Errorf("Unexpected grace period %v", opts.GracePeriod)
	}
}
