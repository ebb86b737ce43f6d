// Package config handles configuration file parsing and validation for keen-ipmon.
//
// The configuration is a TOML file with one table per concern:
//
//	[general]   state file location and re-read interval
//	[election]  PPP override and fallback service order
//	[routing]   kernel route application, main and scoped tables
//	[dns]       default search order, multicast timeout, resolv.conf output
//	[notify]    grace period and change hook command
//	[api]       status API listen address
//
// Absent tables and zero values with a non-zero default are filled by
// ApplyDefaults. ValidateConfig reports every problem at once as
// ValidationErrors with TOML field paths.
//
//	cfg, err := config.LoadConfig("/opt/etc/keen-ipmon/keen-ipmon.toml")
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package config
