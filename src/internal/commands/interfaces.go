package commands

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/core"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
)

func CreateInterfacesCommand() *InterfacesCommand {
	c := &InterfacesCommand{
		fs: flag.NewFlagSet("interfaces", flag.ExitOnError),
	}

	c.fs.BoolVar(&c.Loopback, "loopback", false, "Include loopback interfaces")
	c.fs.BoolVar(&c.NoIPs, "no-ips", false, "Do not print interface addresses")

	return c
}

// InterfacesCommand lists network interfaces with the services of the state
// file running over them.
type InterfacesCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	Loopback bool
	NoIPs    bool
}

func (c *InterfacesCommand) Name() string {
	return c.fs.Name()
}

func (c *InterfacesCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	return nil
}

func (c *InterfacesCommand) Run() error {
	deps := core.NewAppDependencies(core.AppConfig{Config: c.cfg, DryRun: true})
	defer deps.Close()

	// Interfaces are still listed when the state file is unusable.
	var status *service.Status
	if state, err := loadStateOrFail(c.cfg, ""); err != nil {
		log.Warnf("Interfaces are shown without services: %v", err)
	} else if plan, err := deps.RoutingService().Plan(state); err != nil {
		log.Warnf("Interfaces are shown without services: %v", err)
	} else {
		status = &service.Status{IPv4: plan.IPv4, IPv6: plan.IPv6}
	}

	interfaces, err := deps.InterfaceService().GetInterfaces(status, !c.NoIPs, c.Loopback)
	if err != nil {
		return fmt.Errorf("failed to get interfaces: %w", err)
	}

	formatInterfaces(c.ctx.stdout(), interfaces)
	return nil
}

func formatInterfaces(out io.Writer, interfaces []service.InterfaceInfo) {
	for _, iface := range interfaces {
		state := "down"
		if iface.IsUp {
			state = "up"
		}
		fmt.Fprintf(out, "%d. %s (%s)", iface.Index, iface.Name, state)
		for _, family := range iface.PrimaryFor {
			fmt.Fprintf(out, " [%s primary]", family)
		}
		fmt.Fprintln(out)

		if len(iface.Services) > 0 {
			ids := make([]string, 0, len(iface.Services))
			for _, id := range iface.Services {
				ids = append(ids, string(id))
			}
			fmt.Fprintf(out, "   services: %s\n", strings.Join(ids, ", "))
		}
		for _, addr := range iface.IPAddresses {
			fmt.Fprintf(out, "   %s\n", addr)
		}
	}
}
