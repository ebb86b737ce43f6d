// Package commands implements the CLI subcommands of keen-ipmon.
//
// Each command implements the Runner interface: Init parses its flags and
// loads the configuration, Run does the work through the core container.
//
// # Available Commands
//
//   - service: run the reconciliation daemon over the state file, with the
//     optional status API
//   - routes: elect the primaries of the state file once and print (or
//     install) the merged IPv4 route list
//   - dns: build the resolver configuration of the state file once and print it
//   - interfaces: list network interfaces with the services running over them
//
// # Example Usage
//
//	cmd := commands.CreateRoutesCommand()
//	ctx := &commands.AppContext{ConfigPath: "/opt/etc/keen-ipmon/keen-ipmon.toml"}
//	if err := cmd.Init(args, ctx); err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cmd.Run(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package commands
