package config

import (
	"path/filepath"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

type Config struct {
	// General holds general configuration.
	General *GeneralConfig `toml:"general" json:"general"`
	// Election controls primary service election.
	Election *ElectionConfig `toml:"election" json:"election"`
	// Routing controls how the merged IPv4 route list is applied to the kernel.
	Routing *RoutingConfig `toml:"routing" json:"routing"`
	// DNS controls resolver configuration building and publishing.
	DNS *DNSConfig `toml:"dns" json:"dns"`
	// Notify controls the coalesced "network changed" notification.
	Notify *NotifyConfig `toml:"notify" json:"notify"`
	// API controls the read-only status API.
	API *APIConfig `toml:"api" json:"api"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// StateFile is a TOML file describing network services. Relative paths are resolved against the config directory.
	StateFile string `toml:"state_file" json:"state_file" validate:"required"`
	// InterfaceMonitoringIntervalSeconds is the interval for re-reading the state file (0 = only on SIGHUP).
	InterfaceMonitoringIntervalSeconds int `toml:"interface_monitoring_interval_seconds" json:"interface_monitoring_interval_seconds" validate:"gte=0"`
}

type ElectionConfig struct {
	// PPPOverridePrimary makes every service on a ppp* interface assert First.
	PPPOverridePrimary bool `toml:"ppp_override_primary" json:"ppp_override_primary"`
	// ServiceOrder is used when the state file does not provide its own order.
	ServiceOrder []string `toml:"service_order" json:"service_order" validate:"dive,service_id"`
}

type RoutingConfig struct {
	// Enable applies route changes to the kernel. When false, changes are only logged.
	Enable bool `toml:"enable" json:"enable"`
	// MainTable is the table for unscoped routes (default: 254, the main table).
	MainTable int `toml:"main_table" json:"main_table" validate:"min=1,route_table"`
	// ScopedTableBase is added to the interface index to get the table for scoped routes (default: 1000).
	ScopedTableBase int `toml:"scoped_table_base" json:"scoped_table_base" validate:"min=1"`
	// RouteMetric is the priority of installed routes (0 = kernel default).
	RouteMetric int `toml:"route_metric" json:"route_metric" validate:"gte=0"`
}

type DNSConfig struct {
	// DefaultSearchOrder is the search order assigned to the default resolver (default: 200000).
	DefaultSearchOrder int `toml:"default_search_order" json:"default_search_order" validate:"min=1000"`
	// MulticastTimeoutSeconds is the server timeout of multicast resolvers (default: 5, -1 = none).
	MulticastTimeoutSeconds int `toml:"multicast_timeout_seconds" json:"multicast_timeout_seconds" validate:"gte=-1"`
	// ResolvConfPath is where the default resolver is rendered (empty = disabled).
	ResolvConfPath string `toml:"resolv_conf_path" json:"resolv_conf_path"`
	// ScopeAllInterfaces creates a scoped resolver for every interface with DNS servers.
	ScopeAllInterfaces bool `toml:"scope_all_interfaces" json:"scope_all_interfaces"`
}

type NotifyConfig struct {
	// GracePeriodMs bounds the wait for DNS and NWI acknowledgments (default: 5000).
	GracePeriodMs int `toml:"grace_period_ms" json:"grace_period_ms" validate:"min=1"`
	// Command is run on every network change notification (empty = log only).
	Command []string `toml:"command" json:"command"`
}

type APIConfig struct {
	// Enable starts the status API.
	Enable bool `toml:"enable" json:"enable"`
	// ListenAddr is the status API listen address (default: 127.0.0.1:12121).
	ListenAddr string `toml:"listen_addr" json:"listen_addr" validate:"hostport_or_empty"`
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

func (c *Config) GetAbsStateFilePath() string {
	return utils.GetAbsolutePath(c.General.StateFile, c.GetConfigDir())
}

func (c *Config) GetAbsResolvConfPath() string {
	if c.DNS.ResolvConfPath == "" {
		return ""
	}
	return utils.GetAbsolutePath(c.DNS.ResolvConfPath, c.GetConfigDir())
}

func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Notify.GracePeriodMs) * time.Millisecond
}

func (c *Config) MulticastTimeout() time.Duration {
	if c.DNS.MulticastTimeoutSeconds < 0 {
		return 0
	}
	return time.Duration(c.DNS.MulticastTimeoutSeconds) * time.Second
}

func (c *Config) MonitoringInterval() time.Duration {
	return time.Duration(c.General.InterfaceMonitoringIntervalSeconds) * time.Second
}
